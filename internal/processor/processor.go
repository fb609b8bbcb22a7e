// Package processor orchestrates a batch run: detect the track, pick an
// extractor, expand rows, append to the table and keep the search index
// in step. Files are processed strictly one at a time; pricing is a
// separate whole-table pass run only after extraction completes.
package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/TheMaksoo/karting/internal/builder"
	"github.com/TheMaksoo/karting/internal/config"
	"github.com/TheMaksoo/karting/internal/core/domain"
	"github.com/TheMaksoo/karting/internal/detect"
	"github.com/TheMaksoo/karting/internal/extract"
	"github.com/TheMaksoo/karting/internal/extract/apexmail"
	"github.com/TheMaksoo/karting/internal/extract/fastkart"
	"github.com/TheMaksoo/karting/internal/extract/lot66"
	"github.com/TheMaksoo/karting/internal/extract/smstiming"
	"github.com/TheMaksoo/karting/internal/index"
	"github.com/TheMaksoo/karting/internal/logger"
	"github.com/TheMaksoo/karting/internal/pricing"
	"github.com/TheMaksoo/karting/internal/table"
	"github.com/TheMaksoo/karting/internal/weather"
)

// Processor wires the extraction pipeline end to end.
type Processor struct {
	cfg      *config.Config
	store    *table.Store
	idx      *index.Index
	registry *extract.Registry
	builder  *builder.Builder
	weather  *weather.Client
	pricing  *pricing.Distributor
}

// New builds a processor with every known vendor extractor registered.
// idx may be nil to run without a search index.
func New(cfg *config.Config, store *table.Store, idx *index.Index) *Processor {
	reg := extract.NewRegistry()
	reg.Register(smstiming.New(cfg))
	reg.Register(apexmail.New(cfg))
	reg.Register(lot66.New(cfg))
	reg.Register(fastkart.New(cfg))

	return &Processor{
		cfg:      cfg,
		store:    store,
		idx:      idx,
		registry: reg,
		builder:  builder.New(cfg),
		weather:  weather.New(cfg),
		pricing:  pricing.New(cfg),
	}
}

// DriverSummary is one driver's line in a processed-file report.
type DriverSummary struct {
	Name     string
	Position int
	Laps     int
	Best     float64
}

// FileResult reports one processed file.
type FileResult struct {
	RunID     string
	File      string
	Track     string
	Session   string
	Heat      int
	Date      string
	Time      string
	Rows      int
	Duplicate bool
	Drivers   []DriverSummary
}

// BatchResult aggregates a folder run.
type BatchResult struct {
	RunID      string
	Files      int
	Rows       int
	Duplicates int
	Failures   []string
}

// ProcessFile extracts one file and appends its rows. The track is
// detected from the file content, falling back to path components.
// Duplicate sessions return a result with Duplicate set and zero rows,
// not an error.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*FileResult, error) {
	track, err := p.detectTrack(path)
	if err != nil {
		return nil, err
	}
	return p.processAs(ctx, path, track)
}

// processAs runs the pipeline for a file whose track is already known.
func (p *Processor) processAs(ctx context.Context, path, track string) (*FileResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrInvalidInput, path, err)
	}

	ex, err := p.registry.For(track)
	if err != nil {
		return nil, err
	}

	rec, err := ex.Extract(ctx, content, path, track)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
	}

	existing, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	nextID, err := p.store.NextRowID()
	if err != nil {
		return nil, err
	}

	conditions := p.weather.For(ctx, rec)
	result := p.builder.BuildRows(rec, existing, nextID, conditions)

	fr := &FileResult{
		RunID:     uuid.NewString(),
		File:      filepath.Base(path),
		Track:     rec.Track,
		Session:   rec.Session,
		Heat:      result.Heat,
		Date:      rec.Date,
		Time:      rec.Time,
		Rows:      len(result.Rows),
		Duplicate: result.Duplicate,
		Drivers:   summarize(rec),
	}
	if result.Duplicate || len(result.Rows) == 0 {
		return fr, nil
	}

	if err := p.store.Append(result.Rows); err != nil {
		return nil, err
	}
	logger.Info("appended %d rows for %s session %s (heat %d)", len(result.Rows), rec.Track, rec.Session, result.Heat)

	if err := p.refreshIndex(ctx); err != nil {
		logger.Warn("search index refresh failed: %v", err)
	}
	return fr, nil
}

// ProcessFolder walks one level of track subfolders under root,
// processing every supported file inside each recognized folder. The
// only fatal condition is finding no recognizable input at all.
func (p *Processor) ProcessFolder(ctx context.Context, root string) (*BatchResult, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: reading folder %s: %v", domain.ErrInvalidInput, root, err)
	}

	batch := &BatchResult{RunID: uuid.NewString()}
	recognized := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		track, ok := detect.Track(entry.Name())
		if !ok {
			logger.Debug("skipping unrecognized folder %s", entry.Name())
			continue
		}
		recognized++
		logger.Section(fmt.Sprintf("processing %s files from %s/", track, entry.Name()))

		files, err := supportedFiles(filepath.Join(root, entry.Name()))
		if err != nil {
			batch.Failures = append(batch.Failures, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		for _, file := range files {
			fr, err := p.processAs(ctx, file, track)
			if err != nil {
				logger.Warn("skipping %s: %v", filepath.Base(file), err)
				batch.Failures = append(batch.Failures, fmt.Sprintf("%s: %v", filepath.Base(file), err))
				continue
			}
			batch.Files++
			batch.Rows += fr.Rows
			if fr.Duplicate {
				batch.Duplicates++
			}
		}
	}

	if recognized == 0 {
		return nil, fmt.Errorf("%w: no track folders under %s", domain.ErrNoInput, root)
	}
	return batch, nil
}

// Reprice recomputes pricing across the whole table and rewrites it.
func (p *Processor) Reprice(ctx context.Context) (int, error) {
	rows, err := p.store.Load()
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	p.pricing.Apply(rows)
	if err := p.store.Rewrite(rows); err != nil {
		return 0, err
	}
	if err := p.refreshIndex(ctx); err != nil {
		logger.Warn("search index refresh failed: %v", err)
	}
	return len(rows), nil
}

// RebuildIndex reloads the table into the search index.
func (p *Processor) RebuildIndex(ctx context.Context) error {
	return p.refreshIndex(ctx)
}

func (p *Processor) refreshIndex(ctx context.Context) error {
	if p.idx == nil {
		return nil
	}
	rows, err := p.store.Load()
	if err != nil {
		return err
	}
	return p.idx.Rebuild(ctx, rows)
}

// detectTrack identifies the track from file content, then from the
// file's path components.
func (p *Processor) detectTrack(path string) (string, error) {
	if content, err := os.ReadFile(path); err == nil {
		if track, ok := detect.Track(string(content)); ok {
			return track, nil
		}
	}
	if track, ok := detect.Track(path); ok {
		return track, nil
	}
	return "", fmt.Errorf("%w: cannot determine track for %s", domain.ErrUnrecognizedFormat, filepath.Base(path))
}

// supportedFiles lists the processable files in a folder, sorted for a
// stable run order.
func supportedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".eml", ".txt":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func summarize(rec *domain.SessionRecord) []DriverSummary {
	names := make([]string, 0, len(rec.Drivers))
	for name := range rec.Drivers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]DriverSummary, 0, len(names))
	for _, name := range names {
		ds := rec.Drivers[name]
		out = append(out, DriverSummary{
			Name:     name,
			Position: ds.Position,
			Laps:     len(ds.Laps),
			Best:     ds.Best(),
		})
	}
	return out
}
