package services

import (
	"context"

	"github.com/vvka-141/usaccidents/internal/archive"
	"github.com/vvka-141/usaccidents/internal/frame"
	"github.com/vvka-141/usaccidents/internal/normalize"
	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// InspectService reports how well candidate keys identify locations,
// without touching the database.
type InspectService struct {
	logger usaccidents.Logger
}

// NewInspectService creates an InspectService.
func NewInspectService(logger usaccidents.Logger) *InspectService {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &InspectService{logger: logger}
}

// Inspect extracts the archive if needed, indexes the CSV and diagnoses the
// location set. topN bounds the groups reported per check.
func (s *InspectService) Inspect(ctx context.Context, cfg usaccidents.LoadConfig, topN int) (*normalize.Report, error) {
	extraction, err := archive.EnsureExtracted(cfg.ArchivePath(), cfg.DataDir, cfg.CSVName)
	if err != nil {
		return nil, err
	}
	if extraction.Extracted {
		s.logger.Info("Extracted %s", extraction.CSVPath)
	}

	rows, err := frame.Scan(extraction.CSVPath).Open()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s.logger.Info("Indexing locations in %s", extraction.CSVPath)
	index, err := normalize.BuildIndex(ctx, rows)
	if err != nil {
		return nil, err
	}
	s.logger.Verbose("Scanned %d rows, %d distinct locations", rows.Count(), index.Len())

	report := normalize.Diagnose(index.Locations(), topN)
	return &report, nil
}
