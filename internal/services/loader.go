package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/vvka-141/usaccidents/internal/archive"
	"github.com/vvka-141/usaccidents/internal/db"
	"github.com/vvka-141/usaccidents/internal/frame"
	"github.com/vvka-141/usaccidents/internal/normalize"
	"github.com/vvka-141/usaccidents/internal/store"
	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// LoadService runs the extract, normalize, write and constrain pipeline.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type LoadService struct {
	connectorFactory usaccidents.ConnectorFactory
	logger           usaccidents.Logger
	clock            clockwork.Clock
}

// NewLoadService creates a LoadService. Nil dependencies are programmer errors and panic.
func NewLoadService(connectorFactory usaccidents.ConnectorFactory, logger usaccidents.Logger) *LoadService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &LoadService{
		connectorFactory: connectorFactory,
		logger:           logger,
		clock:            clockwork.NewRealClock(),
	}
}

// WithClock replaces the clock used to time runs.
func (s *LoadService) WithClock(clock clockwork.Clock) *LoadService {
	s.clock = clock
	return s
}

// Run executes a full load. The database connection is opened after extraction
// and always released before Run returns.
func (s *LoadService) Run(ctx context.Context, cfg usaccidents.LoadConfig) (*usaccidents.Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := s.clock.Now()
	summary := &usaccidents.Summary{}

	s.logger.Info("Checking zip file and extracting if needed")
	extraction, err := archive.EnsureExtracted(cfg.ArchivePath(), cfg.DataDir, cfg.CSVName)
	if err != nil {
		return nil, err
	}
	summary.Extracted = extraction.Extracted
	if extraction.Extracted {
		s.logger.Info("Extracted %d file(s) from %s", extraction.Files, cfg.ArchivePath())
	} else {
		s.logger.Info("File already unzipped")
	}

	connConfig := *cfg.Connection
	if connConfig.AppName == "" {
		connConfig.AppName = fmt.Sprintf("%s-%s", usaccidents.AppNamePrefix, uuid.NewString())
	}

	s.logger.Info("Connecting to database %q on %s:%d", connConfig.Database, connConfig.Host, connConfig.Port)
	connector, err := s.connectorFactory(&connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	if closer, ok := connector.(io.Closer); ok {
		defer closer.Close()
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer pool.Close()
	s.logger.Verbose("Connected as application %s", connConfig.AppName)

	if err := s.Load(ctx, db.NewPoolAdapter(pool), cfg, summary); err != nil {
		return nil, err
	}

	summary.Duration = s.clock.Since(start)
	s.logger.Info("✓ Loaded %d accidents and %d cities in %v", summary.Accidents, summary.Locations, summary.Duration)
	return summary, nil
}

// Load runs the pipeline stages that follow connection establishment against conn.
// The CSV must already be extracted. Counters are accumulated into summary.
func (s *LoadService) Load(ctx context.Context, conn usaccidents.DBConnection, cfg usaccidents.LoadConfig, summary *usaccidents.Summary) error {
	source := frame.Scan(cfg.CSVPath())
	writer := store.NewWriter(conn, s.logger)

	s.logger.Info("Indexing locations in %s", source.Path())
	index, err := s.buildIndex(ctx, source)
	if err != nil {
		return err
	}
	s.logger.Verbose("Found %d distinct (City, County, State) locations", index.Len())

	s.logger.Info("Creating tables %s and %s", usaccidents.CitiesTable, usaccidents.AccidentsTable)
	if err := writer.CreateTables(ctx, cfg.IfExists); err != nil {
		return err
	}

	s.logger.Info("Writing cities to database")
	locations, err := writer.WriteLocations(ctx, index.Locations())
	if err != nil {
		return err
	}
	summary.Locations = locations

	s.logger.Info("Replacing city, county, and state columns with city_id and writing accidents")
	accidents, unmatched, err := s.writeAccidents(ctx, writer, source, index)
	if err != nil {
		return err
	}
	summary.Accidents = accidents
	summary.Unmatched = unmatched
	if unmatched > 0 {
		s.logger.Verbose("%d accidents have no city_id (null City, County or State)", unmatched)
	}

	// The CSV is the only copy of the source; keep it unless both tables hold what was written.
	if err := writer.VerifyRowCount(ctx, usaccidents.CitiesTable, locations); err != nil {
		return err
	}
	if err := writer.VerifyRowCount(ctx, usaccidents.AccidentsTable, accidents); err != nil {
		return err
	}

	if cfg.KeepCSV {
		s.logger.Verbose("Keeping %s", source.Path())
	} else {
		s.logger.Info("Removing the unzipped file")
		if err := os.Remove(source.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", source.Path(), err)
		}
		summary.CSVRemoved = true
	}

	s.logger.Info("Adding constraints %s and %s", store.UniqueCityIDConstraint, store.AccidentsFKConstraint)
	return writer.AddConstraints(ctx)
}

func (s *LoadService) buildIndex(ctx context.Context, source *frame.Frame) (*normalize.Index, error) {
	rows, err := source.Open()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return normalize.BuildIndex(ctx, rows)
}

func (s *LoadService) writeAccidents(ctx context.Context, writer *store.Writer, source *frame.Frame, index *normalize.Index) (int64, int64, error) {
	rows, err := source.Open()
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	joined := normalize.Join(rows, index)
	n, err := writer.WriteAccidents(ctx, joined)
	if err != nil {
		return 0, 0, err
	}
	return n, joined.Unmatched(), nil
}
