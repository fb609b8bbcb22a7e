// Package table persists the canonical lap table as a flat CSV file.
// The column set and order are a compatibility contract with downstream
// dashboards and must not change.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/TheMaksoo/karting/internal/core/domain"
	"github.com/TheMaksoo/karting/internal/logger"
)

// header is the canonical column order. Readers tolerate shorter legacy
// rows; writers always emit the full set.
var header = []string{
	"RowID", "Date", "Time", "SessionType", "Heat", "Track", "TrackID",
	"InOrOutdoor", "Weather", "Source", "Driver", "Position", "LapNumber",
	"LapTime", "Sector1", "Sector2", "Sector3", "BestLap", "GapToBestLap",
	"Interval", "GapToPrevious", "BestOfDay", "BestofWeek", "BestofMonth",
	"Kart", "Tyre", "CostPerLap", "HeatPrice", "SessionDate",
	"TrackDistance", "Corners", "AvgSpeed", "Notes",
}

// Header returns a copy of the canonical column names.
func Header() []string {
	return append([]string(nil), header...)
}

// Store reads and writes the lap table at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store for the given CSV path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads every row from the table. A missing file yields an empty
// table, not an error. Rows shorter than the canonical header are
// padded so legacy files remain readable.
func (s *Store) Load() ([]domain.LapRow, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening lap table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading lap table: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]domain.LapRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		row, err := unmarshalRow(rec)
		if err != nil {
			logger.Debug("skipping unreadable row: %v", err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// NextRowID returns max(existing numeric row ids) + 1, or 1 for an
// empty or absent table.
func (s *Store) NextRowID() (int, error) {
	rows, err := s.Load()
	if err != nil {
		return 0, err
	}
	maxID := 0
	for _, row := range rows {
		if row.RowID > maxID {
			maxID = row.RowID
		}
	}
	return maxID + 1, nil
}

// Append writes rows to the end of the table, creating the file with a
// header line when absent.
func (s *Store) Append(rows []domain.LapRow) error {
	if len(rows) == 0 {
		return nil
	}

	_, statErr := os.Stat(s.path)
	fresh := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening lap table for append: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("writing lap table header: %w", err)
		}
	}
	for _, row := range rows {
		if err := w.Write(marshalRow(row)); err != nil {
			return fmt.Errorf("writing lap row %d: %w", row.RowID, err)
		}
	}
	w.Flush()
	return w.Error()
}

// Rewrite replaces the whole table atomically via a temp file rename.
func (s *Store) Rewrite(rows []domain.LapRow) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp lap table: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("writing lap table header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(marshalRow(row)); err != nil {
			tmp.Close()
			return fmt.Errorf("writing lap row %d: %w", row.RowID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

func marshalRow(r domain.LapRow) []string {
	return []string{
		strconv.Itoa(r.RowID),
		r.Date,
		r.Time,
		r.SessionType,
		strconv.Itoa(r.Heat),
		r.Track,
		r.TrackID,
		r.InOrOutdoor,
		r.Weather,
		r.Source,
		r.Driver,
		strconv.Itoa(r.Position),
		strconv.Itoa(r.LapNumber),
		strconv.FormatFloat(r.LapTime, 'f', 3, 64),
		r.Sector1,
		r.Sector2,
		r.Sector3,
		r.BestLap,
		strconv.FormatFloat(r.GapToBestLap, 'f', 3, 64),
		r.Interval,
		r.GapToPrevious,
		r.BestOfDay,
		r.BestOfWeek,
		r.BestOfMonth,
		r.Kart,
		r.Tyre,
		r.CostPerLap,
		r.HeatPrice,
		r.SessionDate,
		strconv.FormatFloat(r.TrackDistance, 'f', -1, 64),
		strconv.Itoa(r.Corners),
		strconv.FormatFloat(r.AvgSpeed, 'f', 2, 64),
		r.Notes,
	}
}

func unmarshalRow(rec []string) (domain.LapRow, error) {
	id, err := strconv.Atoi(rec[0])
	if err != nil {
		return domain.LapRow{}, fmt.Errorf("row id %q: %w", rec[0], err)
	}
	row := domain.LapRow{
		RowID:         id,
		Date:          rec[1],
		Time:          rec[2],
		SessionType:   rec[3],
		Track:         rec[5],
		TrackID:       rec[6],
		InOrOutdoor:   rec[7],
		Weather:       rec[8],
		Source:        rec[9],
		Driver:        rec[10],
		Sector1:       rec[14],
		Sector2:       rec[15],
		Sector3:       rec[16],
		BestLap:       rec[17],
		Interval:      rec[19],
		GapToPrevious: rec[20],
		BestOfDay:     rec[21],
		BestOfWeek:    rec[22],
		BestOfMonth:   rec[23],
		Kart:          rec[24],
		Tyre:          rec[25],
		CostPerLap:    rec[26],
		HeatPrice:     rec[27],
		SessionDate:   rec[28],
		Notes:         rec[32],
	}
	row.Heat, _ = strconv.Atoi(rec[4])
	row.Position, _ = strconv.Atoi(rec[11])
	row.LapNumber, _ = strconv.Atoi(rec[12])
	row.LapTime, _ = strconv.ParseFloat(rec[13], 64)
	row.GapToBestLap, _ = strconv.ParseFloat(rec[18], 64)
	row.TrackDistance, _ = strconv.ParseFloat(rec[29], 64)
	row.Corners, _ = strconv.Atoi(rec[30])
	row.AvgSpeed, _ = strconv.ParseFloat(rec[31], 64)
	return row, nil
}
