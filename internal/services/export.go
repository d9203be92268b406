package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/diewo77/goldenline/internal/models"
	"gorm.io/gorm"
)

// DefaultExportRows is used when no row count is given.
const DefaultExportRows = 10

var ErrInvalidRowCount = errors.New("invalid_row_count")

// ExportHeader is the first line of every export.
var ExportHeader = []string{"identifiant_collecte", "detail_panier"}

// ExportService streams collections as CSV.
type ExportService struct {
	db *gorm.DB
}

func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{db: db}
}

// ParseRowCount reads the nombre_lignes form value: empty means the
// default, anything but a non-negative integer is an error.
func ParseRowCount(raw string) (int, error) {
	if raw == "" {
		return DefaultExportRows, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRowCount, raw)
	}
	return n, nil
}

// WriteCSV writes the header then at most limit collections in primary key
// order, CRLF terminated, quoting only fields that need it.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer, limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRowCount, limit)
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	if limit > 0 {
		rows, err := s.db.WithContext(ctx).Model(&models.Collection{}).
			Order("identifiant_collecte").Limit(limit).Rows()
		if err != nil {
			return fmt.Errorf("query collectes: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var c models.Collection
			if err := s.db.ScanRows(rows, &c); err != nil {
				return fmt.Errorf("scan collecte: %w", err)
			}
			b, err := c.Basket()
			if err != nil {
				return err
			}
			if err := cw.Write([]string{strconv.FormatUint(uint64(c.ID), 10), b.Literal()}); err != nil {
				return err
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
