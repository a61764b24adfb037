package scan

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/pointaudit/pointaudit/pkg/point"
	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"golang.org/x/sync/errgroup"
)

// Input kinds reported to progress callbacks and metrics.
const (
	KindGraphics  = "src"
	KindLogic     = "xml"
	KindHistorian = "ophxml"
	KindDbid      = "dbid"
)

// ProgressFunc receives advisory progress for one input kind. It may be
// called from several goroutines at once.
type ProgressFunc func(kind string, percent int)

// Loader reads exported files through afs and feeds them to the scanners.
// Files of one directory are scanned concurrently; results are always
// returned in file name order.
type Loader struct {
	fs          afs.Service
	logger      zerolog.Logger
	codec       *Codec
	concurrency int
	progress    ProgressFunc
	onFile      func(kind string)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCodec sets the encoding of every file read.
func WithCodec(codec *Codec) LoaderOption {
	return func(l *Loader) {
		l.codec = codec
	}
}

// WithConcurrency limits the number of files scanned at once.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithProgress registers an advisory progress callback.
func WithProgress(fn ProgressFunc) LoaderOption {
	return func(l *Loader) {
		l.progress = fn
	}
}

// WithFileHook registers a callback invoked once per file read.
func WithFileHook(fn func(kind string)) LoaderOption {
	return func(l *Loader) {
		l.onFile = fn
	}
}

// NewLoader creates a loader over fs.
func NewLoader(fs afs.Service, logger zerolog.Logger, opts ...LoaderOption) *Loader {
	utf8, _ := NewCodec("")
	l := &Loader{
		fs:          fs,
		logger:      logger,
		codec:       utf8,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Codec returns the encoding used for reading.
func (l *Loader) Codec() *Codec { return l.codec }

// ReadText downloads URL and decodes it.
func (l *Loader) ReadText(ctx context.Context, URL string) (string, error) {
	data, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return "", fmt.Errorf("failed to read %v: %w", URL, err)
	}
	text, err := l.codec.Decode(data)
	if err != nil {
		return "", fmt.Errorf("%v: %w", URL, err)
	}
	return text, nil
}

// LoadGraphicsDir scans every *.src file directly inside URL.
func (l *Loader) LoadGraphicsDir(ctx context.Context, URL string) (*GraphicsResult, error) {
	results, err := scanDir(ctx, l, URL, KindGraphics, ScanGraphics)
	if err != nil {
		return nil, err
	}
	merged := &GraphicsResult{}
	for _, r := range results {
		merged.Batches = append(merged.Batches, r.Batches...)
		merged.Background = append(merged.Background, r.Background...)
	}
	l.logger.Debug().
		Str("url", URL).
		Int("files", len(results)).
		Int("tags", len(merged.Batches)).
		Int("background_issues", merged.Background.Count()).
		Msg("Scanned graphics sources")
	return merged, nil
}

// LoadLogicDir scans every *.xml file directly inside URL.
func (l *Loader) LoadLogicDir(ctx context.Context, URL string) ([]point.Batch, error) {
	results, err := scanDir(ctx, l, URL, KindLogic, func(name, text string) ([]point.Batch, error) {
		return ScanLogic(name, text), nil
	})
	if err != nil {
		return nil, err
	}
	var batches []point.Batch
	for _, r := range results {
		batches = append(batches, r...)
	}
	l.logger.Debug().
		Str("url", URL).
		Int("files", len(results)).
		Int("tags", len(batches)).
		Msg("Scanned logic files")
	return batches, nil
}

// LoadHistorianFile scans a single historian configuration.
func (l *Loader) LoadHistorianFile(ctx context.Context, URL string) ([]point.Batch, error) {
	text, err := l.ReadText(ctx, URL)
	if err != nil {
		return nil, err
	}
	l.fileRead(KindHistorian)
	batches := ScanHistorian(path.Base(URL), text)
	l.report(KindHistorian, 100)
	l.logger.Debug().
		Str("url", URL).
		Int("tags", len(batches)).
		Msg("Scanned historian configuration")
	return batches, nil
}

func scanDir[T any](ctx context.Context, l *Loader, URL, ext string, scan func(name, text string) (T, error)) ([]T, error) {
	objects, err := l.list(ctx, URL, ext)
	if err != nil {
		return nil, err
	}
	results := make([]T, len(objects))
	var done int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(l.concurrency)
	for i, object := range objects {
		i, object := i, object
		eg.Go(func() error {
			data, err := l.fs.Download(egCtx, object)
			if err != nil {
				return fmt.Errorf("failed to read %v: %w", object.URL(), err)
			}
			text, err := l.codec.Decode(data)
			if err != nil {
				return fmt.Errorf("%v: %w", object.URL(), err)
			}
			l.fileRead(ext)
			result, err := scan(object.Name(), text)
			if err != nil {
				return err
			}
			results[i] = result
			l.report(ext, int(100*atomic.AddInt64(&done, 1)/int64(len(objects))))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// list returns the regular files of URL with the given extension, sorted
// by name.
func (l *Loader) list(ctx context.Context, URL, ext string) ([]storage.Object, error) {
	candidates, err := l.fs.List(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to list %v: %w", URL, err)
	}
	var objects []storage.Object
	for _, candidate := range candidates {
		if candidate.IsDir() {
			continue
		}
		if !strings.EqualFold(strings.TrimPrefix(path.Ext(candidate.Name()), "."), ext) {
			continue
		}
		objects = append(objects, candidate)
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Name() < objects[j].Name()
	})
	return objects, nil
}

func (l *Loader) report(kind string, percent int) {
	if l.progress != nil {
		l.progress(kind, percent)
	}
}

func (l *Loader) fileRead(kind string) {
	if l.onFile != nil {
		l.onFile(kind)
	}
}
