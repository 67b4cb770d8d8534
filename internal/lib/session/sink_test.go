package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink_AppendsTimestampedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "run.csv")
	sink := NewFileSink(path)
	sink.now = func() time.Time {
		return time.Date(2026, 10, 17, 9, 30, 5, 0, time.UTC)
	}

	require.NoError(t, sink.Write("Start of session"))
	require.NoError(t, sink.Write("OLC; 0.00;"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "09:30:05 : Start of session\n09:30:05 : OLC; 0.00;\n", string(data))
	assert.Equal(t, path, sink.Path())
}

func TestFileSink_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// A regular file where the directory should be
	sink := NewFileSink(filepath.Join(blocker, "run.csv"))
	assert.Error(t, sink.Write("lost"))
}

func TestSession_WritesThroughFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	s := New(DefaultConfig(), NewFileSink(path))
	s.WriteHeader()
	s.Start()
	s.Update(fixAt(jog[0], 0))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), " : Tracking is started.\n")
	assert.Contains(t, string(data), " : OLC; 0.00; 0.00; 5.00;")
	assert.Equal(t, int64(0), s.Stats().DroppedLogLines)
}

func TestMemorySink(t *testing.T) {
	sink := &MemorySink{}
	assert.Equal(t, "", sink.Last())

	require.NoError(t, sink.Write("a"))
	require.NoError(t, sink.Write("b"))
	assert.Equal(t, "b", sink.Last())

	lines := sink.Lines()
	lines[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, sink.Lines())
}

func TestLogFileName(t *testing.T) {
	at := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("logs", "Run_Sat_17_Oct_2026__09_30_00.csv"), LogFileName("logs", ".csv", at))
}
