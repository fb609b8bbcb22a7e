package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMaksoo/karting/internal/config"
	"github.com/TheMaksoo/karting/internal/core/domain"
	"github.com/TheMaksoo/karting/internal/table"
)

const lot66Session = `Lot66 Breda
Driver 1
01.01.2024 At 1830h

00:30.123
00:29.876
00:31.000
`

const lot66LaterSession = `Lot66 Breda
Driver 1
01.01.2024 At 1930h

00:30.500
00:30.100
`

func newProcessor(t *testing.T) (*Processor, *table.Store) {
	t.Helper()
	store := table.NewStore(filepath.Join(t.TempDir(), "Karten.csv"))
	return New(config.Defaults(), store, nil), store
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProcessFile_EndToEnd(t *testing.T) {
	proc, store := newProcessor(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "session 1.txt", lot66Session)

	result, err := proc.ProcessFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Lot66", result.Track)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 1, result.Heat)
	assert.False(t, result.Duplicate)
	require.Len(t, result.Drivers, 1)
	assert.InDelta(t, 29.876, result.Drivers[0].Best, 1e-9)

	rows, err := store.Load()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "2024-01-01", rows[0].Date)
	assert.Equal(t, "18:30", rows[0].Time)
	assert.Equal(t, "Indoor", rows[0].Weather)

	assert.Equal(t, "N", rows[0].BestLap)
	assert.Equal(t, "Y", rows[1].BestLap)
	assert.InDelta(t, 0.247, rows[0].GapToBestLap, 1e-9)
	assert.InDelta(t, 1.124, rows[2].GapToBestLap, 1e-9)
	assert.Equal(t, "0.247", rows[0].GapToPrevious)
	assert.Equal(t, "1.124", rows[2].GapToPrevious)
}

func TestProcessFile_SecondRunIsNoOp(t *testing.T) {
	proc, store := newProcessor(t)
	path := writeFile(t, t.TempDir(), "session 1.txt", lot66Session)

	first, err := proc.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 3, first.Rows)

	second, err := proc.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, 0, second.Rows)

	rows, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestProcessFile_HeatSequence(t *testing.T) {
	proc, store := newProcessor(t)
	dir := t.TempDir()

	first, err := proc.ProcessFile(context.Background(), writeFile(t, dir, "session 1.txt", lot66Session))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Heat)

	// Second session, same track and date, later start time.
	second, err := proc.ProcessFile(context.Background(), writeFile(t, dir, "evening copy.txt", lot66LaterSession))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Heat)

	rows, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestProcessFile_UnrecognizedFormat(t *testing.T) {
	proc, _ := newProcessor(t)
	path := writeFile(t, t.TempDir(), "notes.txt", "nothing track related here")

	_, err := proc.ProcessFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnrecognizedFormat))
}

func TestProcessFolder(t *testing.T) {
	proc, store := newProcessor(t)
	root := t.TempDir()
	trackDir := filepath.Join(root, "lot66")
	require.NoError(t, os.MkdirAll(trackDir, 0o755))
	writeFile(t, trackDir, "session 1.txt", lot66Session)
	writeFile(t, trackDir, "session 1 again.txt", lot66Session)
	writeFile(t, trackDir, "ignored.pdf", "binary")

	batch, err := proc.ProcessFolder(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Files)
	assert.Equal(t, 3, batch.Rows)
	assert.Equal(t, 1, batch.Duplicates)
	assert.Empty(t, batch.Failures)

	rows, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestProcessFolder_NoInput(t *testing.T) {
	proc, _ := newProcessor(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "random stuff"), 0o755))

	_, err := proc.ProcessFolder(context.Background(), root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoInput))
}

func TestProcessFolder_BadFileDoesNotAbortBatch(t *testing.T) {
	proc, store := newProcessor(t)
	root := t.TempDir()
	trackDir := filepath.Join(root, "lot66")
	require.NoError(t, os.MkdirAll(trackDir, 0o755))
	writeFile(t, trackDir, "a broken.txt", "Lot66 Breda\nSomebody Else\nbad header\n")
	writeFile(t, trackDir, "b session.txt", lot66Session)

	batch, err := proc.ProcessFolder(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, batch.Files)
	assert.Equal(t, 3, batch.Rows)
	require.Len(t, batch.Failures, 1)

	rows, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestReprice(t *testing.T) {
	proc, store := newProcessor(t)
	path := writeFile(t, t.TempDir(), "session 1.txt", lot66Session)

	_, err := proc.ProcessFile(context.Background(), path)
	require.NoError(t, err)

	updated, err := proc.Reprice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, updated)

	rows, err := store.Load()
	require.NoError(t, err)
	// One heat at Lot66 costs 30.00, spread over three laps.
	assert.Equal(t, "30.00", rows[0].HeatPrice)
	assert.Equal(t, "10.00", rows[0].CostPerLap)
}

func TestReprice_EmptyTable(t *testing.T) {
	proc, _ := newProcessor(t)
	updated, err := proc.Reprice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}
