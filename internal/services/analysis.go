package services

import (
	"context"

	"github.com/diewo77/goldenline/internal/analytics"
)

// AnalysisService loads the records and aggregates them.
type AnalysisService struct {
	records *RecordService
}

func NewAnalysisService(records *RecordService) *AnalysisService {
	return &AnalysisService{records: records}
}

// Report aggregates every client and collection of the store.
func (s *AnalysisService) Report(ctx context.Context) (analytics.Report, error) {
	collections, err := s.records.Collections(ctx)
	if err != nil {
		return analytics.Report{}, err
	}
	clients, err := s.records.Clients(ctx)
	if err != nil {
		return analytics.Report{}, err
	}
	return analytics.Aggregate(collections, clients)
}
