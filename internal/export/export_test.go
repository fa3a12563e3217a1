package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/reqtrace/internal/core"
	"github.com/JonMunkholm/reqtrace/internal/record"
)

// ============================================================================
// Fixtures
// ============================================================================

func testResult() *core.Result {
	header := record.Record{
		ReqID:           "4",
		DocName:         "Flight Controls",
		DocType:         "FCSS",
		Level:           "System",
		SectionTitle:    "Pumps",
		SectionNumber:   "4",
		SectionType:     "Heading",
		IsSectionHeader: true,
		ObjectNumber:    "4",
		RequirementText: "Pumps",
	}
	req := record.Record{
		ReqID:           "FCSS-1",
		Aliases:         []string{"FCSS-1A"},
		DocName:         "Flight Controls",
		DocType:         "FCSS",
		Level:           "System",
		ParentReqIDs:    []string{"FSRD-10"},
		SectionTitle:    "Pumps",
		SectionNumber:   "4",
		SectionType:     "Heading",
		SectionInferred: true,
		ObjectNumber:    "4-1",
		RequirementText: "The pump shall start.",
	}
	fsrd := record.Record{
		ReqID:           "FSRD-10",
		DocName:         "FSRD",
		DocType:         "FSRD",
		ChildReqIDs:     []string{"FCSS-1", "SRS-7"},
		RequirementText: "Start on demand.",
	}
	records := []record.Record{header, req, fsrd}
	for i := range records {
		records[i].Render()
	}

	return &core.Result{
		RunID:         uuid.MustParse("6f1c2a8e-3d7b-4c59-9a10-2b4e5f6a7b8c"),
		SchemaVersion: "builtin-2025-11",
		Records:       records,
		Documents: []core.DocumentSummary{
			{Input: core.Input{Level: "System"}, DocName: "Flight Controls", DocType: "FCSS"},
			{DocName: "FSRD", DocType: "FSRD"},
		},
	}
}

type fakeWriter struct {
	target  string
	err     error
	delay   time.Duration
	calls   atomic.Int32
	running *atomic.Int32
	peak    *atomic.Int32
}

func (f *fakeWriter) Target() string { return f.target }

func (f *fakeWriter) Write(ctx context.Context, _ *core.Result) error {
	f.calls.Add(1)
	if f.running != nil {
		n := f.running.Add(1)
		defer f.running.Add(-1)
		for {
			p := f.peak.Load()
			if n <= p || f.peak.CompareAndSwap(p, n) {
				break
			}
		}
	}
	time.Sleep(f.delay)
	return f.err
}

// ============================================================================
// WriteAll Tests
// ============================================================================

func TestWriteAllRunsEveryWriter(t *testing.T) {
	a := &fakeWriter{target: "a"}
	b := &fakeWriter{target: "b"}

	err := WriteAll(context.Background(), testResult(), NewLimiter(2, time.Second), a, b)
	require.NoError(t, err)
	assert.EqualValues(t, 1, a.calls.Load())
	assert.EqualValues(t, 1, b.calls.Load())
}

func TestWriteAllIsolatesFailures(t *testing.T) {
	cause := errors.New("disk full")
	bad := &fakeWriter{target: "sqlite", err: cause}
	good := &fakeWriter{target: "csv"}

	err := WriteAll(context.Background(), testResult(), nil, bad, good)
	require.Error(t, err)
	assert.EqualValues(t, 1, good.calls.Load(), "a failing writer must not stop the others")

	var exportErr *core.ExportError
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, "sqlite", exportErr.Target)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "EXP001", core.MapError(err).Code)
}

func TestWriteAllRespectsLimiter(t *testing.T) {
	var running, peak atomic.Int32
	var writers []Writer
	for i := 0; i < 4; i++ {
		writers = append(writers, &fakeWriter{
			target:  "w",
			delay:   20 * time.Millisecond,
			running: &running,
			peak:    &peak,
		})
	}

	require.NoError(t, WriteAll(context.Background(), testResult(), NewLimiter(1, time.Second), writers...))
	assert.EqualValues(t, 1, peak.Load())
}

func TestWriteAllLogsLimiterState(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	require.NoError(t, WriteAll(context.Background(), testResult(), NewLimiter(3, time.Second), &fakeWriter{target: "csv"}))

	out := logs.String()
	assert.Contains(t, out, "export started")
	assert.Contains(t, out, "max_concurrent=3")
	assert.Contains(t, out, "available=3")
	assert.Contains(t, out, "export slot acquired")
	assert.Contains(t, out, "active=1")
}

// ============================================================================
// Limiter Tests
// ============================================================================

func TestLimiterAcquireRelease(t *testing.T) {
	limiter := NewLimiter(2, time.Second)
	ctx := context.Background()

	assert.Equal(t, 2, limiter.Available())
	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))
	assert.Equal(t, 2, limiter.ActiveCount())
	assert.Equal(t, 0, limiter.Available())

	limiter.Release()
	assert.Equal(t, 1, limiter.ActiveCount())
	limiter.Release()
	assert.Equal(t, 0, limiter.ActiveCount())
	assert.Equal(t, 2, limiter.MaxConcurrent())
}

func TestLimiterTimeout(t *testing.T) {
	limiter := NewLimiter(1, 10*time.Millisecond)
	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	err := limiter.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrLimiterTimeout)
}

func TestLimiterCancelled(t *testing.T) {
	limiter := NewLimiter(1, time.Second)
	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, limiter.Acquire(ctx), context.Canceled)
}

func TestNewLimiterDefaults(t *testing.T) {
	limiter := NewLimiter(0, 0)
	assert.Equal(t, DefaultMaxConcurrentWriters, limiter.MaxConcurrent())
}

// ============================================================================
// CSV Tests
// ============================================================================

func TestWriteCSV(t *testing.T) {
	res := testResult()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(context.Background(), &buf, res.Records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, record.Columns, rows[0])
	assert.Equal(t, res.Records[1].Values(), rows[2])
	assert.Equal(t, "FCSS-1A", rows[2][1])
	assert.Equal(t, "true", rows[2][10], "Section_Inferred")
}

func TestCSVWriterCreatesDirectories(t *testing.T) {
	path := t.TempDir() + "/out/nested/requirements.csv"
	w := NewCSVWriter(path)

	require.NoError(t, w.Write(context.Background(), testResult()))
	assert.FileExists(t, path)
	assert.Equal(t, "csv", w.Target())
}
