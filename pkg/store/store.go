package store

import (
	"sort"
	"sync"

	"github.com/pointaudit/pointaudit/pkg/point"
	"github.com/rs/zerolog"
)

// Store is the merge engine holding one Point per distinct tag, in order of
// first sighting, together with the indexes the validation rules need.
type Store struct {
	mu     sync.RWMutex
	logger zerolog.Logger

	points []*point.Point
	index  map[string]int
	// tasks lists the distinct task indexes declared per drop and module
	// location, in order of first sighting.
	tasks map[string]map[string][]string
	drops map[string]*DropInfo
}

// New creates an empty store.
func New(logger zerolog.Logger) *Store {
	s := &Store{logger: logger}
	s.reset()
	return s
}

// Reset discards every point, index and drop record.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Store) reset() {
	s.points = nil
	s.index = make(map[string]int)
	s.tasks = make(map[string]map[string][]string)
	s.drops = nil
}

// Merge folds batches into the store and returns how many new points were
// created. Batches without a KKS are skipped. A new non-module point that
// declares a drop and an I/O location registers its task index for that
// module.
func (s *Store) Merge(batches []point.Batch) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := 0
	for _, b := range batches {
		kks := b.KKS()
		if kks == "" {
			continue
		}
		if i, ok := s.index[kks]; ok {
			s.points[i].Merge(b)
			continue
		}
		s.index[kks] = len(s.points)
		s.points = append(s.points, point.New(b))
		created++
		if b[point.Type] != point.ModulePoint.String() {
			s.registerTask(b[point.Drop], b[point.IOLocation], b[point.IOTaskIndex])
		}
	}
	s.logger.Debug().
		Int("batches", len(batches)).
		Int("created", created).
		Int("points", len(s.points)).
		Msg("Merged batches")
	return created
}

func (s *Store) registerTask(drop, location, task string) {
	if drop == "" || location == "" {
		return
	}
	byLocation, ok := s.tasks[drop]
	if !ok {
		byLocation = make(map[string][]string)
		s.tasks[drop] = byLocation
	}
	for _, known := range byLocation[location] {
		if known == task {
			return
		}
	}
	byLocation[location] = append(byLocation[location], task)
}

// Len returns the number of points.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Points returns every point in order of first sighting. The slice is a
// copy, but the points are the ones Merge updates in place: callers must
// not modify them, and must not read them while a Merge or Reset runs.
// ingest.Session guarantees this by running one operation at a time.
func (s *Store) Points() []*point.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*point.Point(nil), s.points...)
}

// Point looks a point up by tag.
func (s *Store) Point(kks string) (*point.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[kks]
	if !ok {
		return nil, false
	}
	return s.points[i], true
}

// TasksAt returns the distinct task indexes declared by points of the module
// at (drop, location).
func (s *Store) TasksAt(drop, location string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.tasks[drop][location]...)
}

// Drop returns the auxiliary record of one drop.
func (s *Store) Drop(name string) (*DropInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drops[name]
	return d, ok
}

// Drops returns every drop record sorted by name.
func (s *Store) Drops() []*DropInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*DropInfo, 0, len(s.drops))
	for _, d := range s.drops {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}
