package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/viant/afs/url"
)

// DefaultDebounce is the quiet period after the last change before a
// reload starts.
const DefaultDebounce = 300 * time.Millisecond

// ResultFunc receives the outcome of every load performed by Watch.
type ResultFunc func(report *Report, err error)

// Watch loads inputs, then reloads them each time one of the input files
// or directories changes, until ctx is done. Inputs must be local paths.
// Load failures are passed to onResult and do not stop the watch.
func (s *Session) Watch(ctx context.Context, inputs Inputs, debounce time.Duration, onResult ResultFunc) error {
	if inputs.empty() {
		return newError(ErrorClassConfig, ErrCodeNoInputs, "no inputs configured", nil)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	targets := watchTargets(inputs)
	for dir := range targets.dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %v: %w", dir, err)
		}
	}
	s.logger.Info().Int("directories", len(targets.dirs)).Dur("debounce", debounce).Msg("Watching inputs")

	onResult(s.Load(ctx, inputs))

	due := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets.relevant(ev.Name) {
				continue
			}
			s.logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("Input changed")
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case due <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn().Err(err).Msg("Watch error")
		case <-due:
			onResult(s.Load(ctx, inputs))
		}
	}
}

type targets struct {
	dirs  map[string]struct{}
	files map[string]bool
	// exts maps a watched input directory to the extension of its files.
	exts map[string]string
}

func watchTargets(inputs Inputs) *targets {
	t := &targets{dirs: map[string]struct{}{}, files: map[string]bool{}, exts: map[string]string{}}
	for _, d := range []struct{ URL, ext string }{
		{inputs.GraphicsDir, ".src"},
		{inputs.LogicDir, ".xml"},
	} {
		if d.URL == "" {
			continue
		}
		dir := localPath(d.URL)
		t.dirs[dir] = struct{}{}
		t.exts[dir] = d.ext
	}
	for _, URL := range []string{inputs.Dbid, inputs.Historian} {
		if URL == "" {
			continue
		}
		p := localPath(URL)
		t.dirs[filepath.Dir(p)] = struct{}{}
		t.files[p] = true
	}
	return t
}

func (t *targets) relevant(name string) bool {
	name = filepath.Clean(name)
	if t.files[name] {
		return true
	}
	ext, ok := t.exts[filepath.Dir(name)]
	return ok && strings.EqualFold(filepath.Ext(name), ext)
}

func localPath(URL string) string {
	if strings.Contains(URL, "://") {
		URL = url.Path(URL)
	}
	return filepath.Clean(URL)
}
