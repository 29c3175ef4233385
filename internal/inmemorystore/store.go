package inmemorystore

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/vk/courseplanner/internal/course"
	"github.com/vk/courseplanner/internal/ctxlog"
	"github.com/vk/courseplanner/internal/store"
)

// Store keeps course names and prerequisite sets keyed by course number. A
// single RWMutex guards both maps; edits are rare and always touch both.
type Store struct {
	mu      sync.RWMutex
	names   map[string]string
	prereqs map[string]map[string]struct{}
}

var _ store.Mirror = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		names:   make(map[string]string),
		prereqs: make(map[string]map[string]struct{}),
	}
}

// Migrate is a no-op; the maps are the schema.
func (s *Store) Migrate(context.Context) error { return nil }

// Drop empties the store.
func (s *Store) Drop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = make(map[string]string)
	s.prereqs = make(map[string]map[string]struct{})
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) Replace(ctx context.Context, courses []course.Course) (store.MigrationStats, error) {
	logger := ctxlog.FromContext(ctx)
	courses = store.Dedupe(courses)

	names := make(map[string]string, len(courses))
	for _, c := range courses {
		if c.ID() == "" {
			return store.MigrationStats{}, course.ErrEmptyID
		}
		names[c.ID()] = c.Name()
	}

	var stats store.MigrationStats
	stats.Courses = len(courses)
	prereqs := make(map[string]map[string]struct{}, len(courses))
	for _, c := range courses {
		for _, p := range c.Prerequisites() {
			if _, ok := names[p]; !ok {
				logger.Warn("Skipping prerequisite link to unknown course.", "course", c.ID(), "prerequisite", p)
				stats.Skipped++
				continue
			}
			if prereqs[c.ID()] == nil {
				prereqs[c.ID()] = make(map[string]struct{})
			}
			prereqs[c.ID()][p] = struct{}{}
			stats.Links++
		}
	}

	s.mu.Lock()
	s.names, s.prereqs = names, prereqs
	s.mu.Unlock()
	return stats, nil
}

func (s *Store) Load(context.Context) ([]course.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.names))
	for id := range s.names {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]course.Course, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.courseLocked(id))
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (course.Course, error) {
	key, err := store.NormalizeID(id)
	if err != nil {
		return course.Course{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.names[key]; !ok {
		return course.Course{}, store.NotFound(key)
	}
	return s.courseLocked(key), nil
}

func (s *Store) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.names), nil
}

func (s *Store) Prerequisites(_ context.Context, id string) ([]string, error) {
	key, err := store.NormalizeID(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.names[key]; !ok {
		return nil, store.NotFound(key)
	}
	return s.sortedPrereqsLocked(key), nil
}

func (s *Store) AddCourse(_ context.Context, id, name string) error {
	key, err := store.NormalizeID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[key]; ok {
		return errors.Wrapf(store.ErrCourseExists, "%s", key)
	}
	s.names[key] = strings.TrimSpace(name)
	return nil
}

func (s *Store) UpdateCourse(_ context.Context, id, name string) error {
	key, err := store.NormalizeID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[key]; !ok {
		return store.NotFound(key)
	}
	s.names[key] = strings.TrimSpace(name)
	return nil
}

func (s *Store) DeleteCourse(_ context.Context, id string) error {
	key, err := store.NormalizeID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[key]; !ok {
		return store.NotFound(key)
	}
	delete(s.names, key)
	delete(s.prereqs, key)
	for _, set := range s.prereqs {
		delete(set, key)
	}
	return nil
}

func (s *Store) AddPrerequisite(_ context.Context, id, prereq string) error {
	from, to, err := normalizePair(id, prereq)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLocked(from, to); err != nil {
		return err
	}
	if _, ok := s.prereqs[from][to]; ok {
		return errors.Wrapf(store.ErrLinkExists, "%s -> %s", from, to)
	}
	if s.prereqs[from] == nil {
		s.prereqs[from] = make(map[string]struct{})
	}
	s.prereqs[from][to] = struct{}{}
	return nil
}

func (s *Store) RemovePrerequisite(_ context.Context, id, prereq string) error {
	from, to, err := normalizePair(id, prereq)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLocked(from, to); err != nil {
		return err
	}
	if _, ok := s.prereqs[from][to]; !ok {
		return errors.Wrapf(store.ErrLinkNotFound, "%s -> %s", from, to)
	}
	delete(s.prereqs[from], to)
	return nil
}

func normalizePair(id, prereq string) (string, string, error) {
	from, err := store.NormalizeID(id)
	if err != nil {
		return "", "", err
	}
	to, err := store.NormalizeID(prereq)
	if err != nil {
		return "", "", err
	}
	return from, to, nil
}

func (s *Store) requireLocked(ids ...string) error {
	for _, id := range ids {
		if _, ok := s.names[id]; !ok {
			return store.NotFound(id)
		}
	}
	return nil
}

func (s *Store) sortedPrereqsLocked(id string) []string {
	out := make([]string, 0, len(s.prereqs[id]))
	for p := range s.prereqs[id] {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

func (s *Store) courseLocked(id string) course.Course {
	// Stored identifiers are already normalised and non-blank.
	c, _ := course.New(id, s.names[id], s.sortedPrereqsLocked(id))
	return c
}
