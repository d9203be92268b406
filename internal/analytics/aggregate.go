// Package analytics computes the basket analysis shown on /analyses.
package analytics

import (
	"errors"
	"fmt"

	"github.com/diewo77/goldenline/internal/models"
	"github.com/shopspring/decimal"
)

// ErrMissingCollection is returned when a client references a collection
// that is not part of the input.
var ErrMissingCollection = errors.New("client references a missing collection")

// Average is the mean basket price of one socio-professional category.
type Average struct {
	SocioCategory string          `json:"categorie_socioprofessionnelle"`
	Value         decimal.Decimal `json:"moyenne_prix"`
	Count         int             `json:"nombre_clients"`
}

// Report is the result of Aggregate.
type Report struct {
	// Averages follow the first-seen order of socio-professional categories.
	Averages []Average
	// Categories lists spending categories across all collections, first seen first.
	Categories []string
	// SocioCategories lists socio-professional categories across all clients, first seen first.
	SocioCategories []string
	// Totals maps a spending category to one total per entry of SocioCategories.
	Totals map[string][]decimal.Decimal
}

// Aggregate sums the basket of every client's collection into its
// socio-professional category. Inputs are expected in primary key order.
// Each cell is summed exactly and rounded once to two decimals, half to even.
func Aggregate(collections []models.Collection, clients []models.Client) (Report, error) {
	baskets := make(map[uint]models.Basket, len(collections))
	var categories []string
	seenCategory := map[string]bool{}
	for _, c := range collections {
		b, err := c.Basket()
		if err != nil {
			return Report{}, err
		}
		baskets[c.ID] = b
		for _, line := range b {
			if !seenCategory[line.Category] {
				seenCategory[line.Category] = true
				categories = append(categories, line.Category)
			}
		}
	}

	var socios []string
	socioIndex := map[string]int{}
	for _, cl := range clients {
		if _, ok := socioIndex[cl.SocioCategory]; !ok {
			socioIndex[cl.SocioCategory] = len(socios)
			socios = append(socios, cl.SocioCategory)
		}
	}

	totals := make(map[string][]decimal.Decimal, len(categories))
	for _, cat := range categories {
		row := make([]decimal.Decimal, len(socios))
		for i := range row {
			row[i] = decimal.Zero
		}
		totals[cat] = row
	}

	sums := make([]decimal.Decimal, len(socios))
	counts := make([]int, len(socios))
	for i := range sums {
		sums[i] = decimal.Zero
	}

	for _, cl := range clients {
		idx := socioIndex[cl.SocioCategory]
		sums[idx] = sums[idx].Add(cl.BasketPrice)
		counts[idx]++

		b, ok := baskets[cl.CollectionID]
		if !ok {
			return Report{}, fmt.Errorf("%w: client %d -> collecte %d", ErrMissingCollection, cl.ID, cl.CollectionID)
		}
		for _, line := range b {
			totals[line.Category][idx] = totals[line.Category][idx].Add(line.Amount)
		}
	}

	for _, row := range totals {
		for i := range row {
			row[i] = row[i].RoundBank(2)
		}
	}

	averages := make([]Average, len(socios))
	for i, s := range socios {
		averages[i] = Average{
			SocioCategory: s,
			Value:         sums[i].Div(decimal.NewFromInt(int64(counts[i]))),
			Count:         counts[i],
		}
	}

	return Report{
		Averages:        averages,
		Categories:      nonNil(categories),
		SocioCategories: nonNil(socios),
		Totals:          totals,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
