package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

func TestWatchTargets(t *testing.T) {
	targets := watchTargets(Inputs{
		Dbid:        "/data/unit/DBID.imp",
		GraphicsDir: "/data/unit/graphics",
		LogicDir:    "file:///data/unit/logic",
		Historian:   "/data/unit/HistorianConfig.xml",
	})

	assert.Len(t, targets.dirs, 3)
	assert.True(t, targets.relevant("/data/unit/DBID.imp"))
	assert.True(t, targets.relevant("/data/unit/HistorianConfig.xml"))
	assert.True(t, targets.relevant("/data/unit/graphics/screen.SRC"))
	assert.True(t, targets.relevant("/data/unit/logic/sheet.xml"))
	assert.False(t, targets.relevant("/data/unit/notes.txt"))
	assert.False(t, targets.relevant("/data/unit/graphics/screen.xml"))
	assert.False(t, targets.relevant("/data/unit/graphics/nested/screen.src"))
}

func TestWatchRejectsEmptyInputs(t *testing.T) {
	s := newTestSession(t, afs.New())
	err := s.Watch(context.Background(), Inputs{}, 0, func(*Report, error) {})
	assert.True(t, IsFatal(err))
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	graphics := filepath.Join(dir, "graphics")
	require.NoError(t, os.Mkdir(graphics, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(graphics, "a.src"), []byte("\\TAG1\\\n"), 0o644))

	s := newTestSession(t, afs.New())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan *Report, 16)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, Inputs{GraphicsDir: graphics}, 20*time.Millisecond, func(r *Report, err error) {
			if err == nil {
				results <- r
			}
		})
	}()

	wait := func() *Report {
		select {
		case r := <-results:
			return r
		case <-time.After(5 * time.Second):
			t.Fatal("no load reported")
			return nil
		}
	}
	assert.Equal(t, 1, wait().Points)

	require.NoError(t, os.WriteFile(filepath.Join(graphics, "b.src"), []byte("\\TAG2\\\n"), 0o644))
	// a reload may observe the file before its content is written
	for wait().Points != 2 {
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
