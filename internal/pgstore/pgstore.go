// Package pgstore is the PostgreSQL implementation of store.Mirror, using a
// pgx connection pool and batched inserts for bulk replacement.
package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vk/courseplanner/internal/course"
	"github.com/vk/courseplanner/internal/ctxlog"
	"github.com/vk/courseplanner/internal/store"
)

const uniqueViolation = "23505"

// Store implements store.Mirror on a pgx pool.
type Store struct {
	Pool *pgxpool.Pool
}

var _ store.Mirror = (*Store)(nil)

// Open connects to dsn, verifies the connection and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		panic("pgstore: dsn must not be empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to reach postgres")
	}

	s := &Store{Pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Opened Postgres mirror.")
	return s, nil
}

// Describe names the server and database of dsn without its credentials.
func Describe(dsn string) string {
	cfg, err := pgconn.ParseConfig(dsn)
	if err != nil {
		return "postgres"
	}
	return fmt.Sprintf("postgres://%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
}

// Close releases the pool.
func (s *Store) Close() error {
	s.Pool.Close()
	return nil
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range []string{
		createCourses,
		createPrerequisites,
		createCourseNumberIndex,
		createPrereqCourseIndex,
		createPrereqTargetIndex,
	} {
		if _, err := s.Pool.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "migration failed")
		}
	}
	return nil
}

// Drop removes both tables.
func (s *Store) Drop(ctx context.Context) error {
	for _, stmt := range []string{dropPrerequisites, dropCourses} {
		if _, err := s.Pool.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to drop schema")
		}
	}
	return nil
}

// Replace swaps the stored catalog for courses in one transaction, sending
// course rows and link rows as two batches.
func (s *Store) Replace(ctx context.Context, courses []course.Course) (store.MigrationStats, error) {
	logger := ctxlog.FromContext(ctx)
	courses = store.Dedupe(courses)

	known := make(map[string]struct{}, len(courses))
	for _, c := range courses {
		if c.ID() == "" {
			return store.MigrationStats{}, course.ErrEmptyID
		}
		known[c.ID()] = struct{}{}
	}

	var stats store.MigrationStats
	err := pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deletePrerequisites); err != nil {
			return errors.Wrap(err, "failed to clear prerequisites")
		}
		if _, err := tx.Exec(ctx, deleteCourses); err != nil {
			return errors.Wrap(err, "failed to clear courses")
		}

		courseBatch := pgx.Batch{}
		for _, c := range courses {
			courseBatch.Queue(insertCourse, c.ID(), c.Name()).Exec(func(pgconn.CommandTag) error {
				stats.Courses++
				return nil
			})
		}
		if err := tx.SendBatch(ctx, &courseBatch).Close(); err != nil {
			return errors.Wrap(err, "failed to insert courses")
		}

		linkBatch := pgx.Batch{}
		for _, c := range courses {
			for _, p := range c.Prerequisites() {
				if _, ok := known[p]; !ok {
					logger.Warn("Skipping prerequisite link to unknown course.", "course", c.ID(), "prerequisite", p)
					stats.Skipped++
					continue
				}
				linkBatch.Queue(insertLinkByNumber, c.ID(), p).Exec(func(ct pgconn.CommandTag) error {
					stats.Links += int(ct.RowsAffected())
					return nil
				})
			}
		}
		if err := tx.SendBatch(ctx, &linkBatch).Close(); err != nil {
			return errors.Wrap(err, "failed to insert prerequisite links")
		}
		return nil
	})
	if err != nil {
		return store.MigrationStats{}, err
	}

	logger.Info("Replaced Postgres mirror contents.", "courses", stats.Courses, "links", stats.Links, "skipped", stats.Skipped)
	return stats, nil
}

// Load returns every course ordered by number.
func (s *Store) Load(ctx context.Context) ([]course.Course, error) {
	rows, err := s.Pool.Query(ctx, listCourses)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query courses")
	}
	return collect(rows)
}

// Get returns one course with its prerequisites.
func (s *Store) Get(ctx context.Context, id string) (course.Course, error) {
	key, err := store.NormalizeID(id)
	if err != nil {
		return course.Course{}, err
	}
	rows, err := s.Pool.Query(ctx, getCourse, key)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "failed to query course")
	}
	courses, err := collect(rows)
	if err != nil {
		return course.Course{}, err
	}
	if len(courses) == 0 {
		return course.Course{}, store.NotFound(key)
	}
	return courses[0], nil
}

func collect(rows pgx.Rows) ([]course.Course, error) {
	defer rows.Close()

	type pending struct {
		id, name string
		prereqs  []string
	}
	var all []*pending
	for rows.Next() {
		var (
			id, name string
			prereq   *string
		)
		if err := rows.Scan(&id, &name, &prereq); err != nil {
			return nil, errors.Wrap(err, "failed to scan course row")
		}
		if len(all) == 0 || all[len(all)-1].id != id {
			all = append(all, &pending{id: id, name: name})
		}
		if prereq != nil {
			last := all[len(all)-1]
			last.prereqs = append(last.prereqs, *prereq)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read course rows")
	}

	out := make([]course.Course, 0, len(all))
	for _, p := range all {
		c, err := course.New(p.id, p.name, p.prereqs)
		if err != nil {
			return nil, errors.Wrap(err, "stored course")
		}
		out = append(out, c)
	}
	return out, nil
}

// Count returns the number of stored courses.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.Pool.QueryRow(ctx, countCourses).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count courses")
	}
	return n, nil
}

// Prerequisites returns the direct prerequisites of id ordered by number.
func (s *Store) Prerequisites(ctx context.Context, id string) ([]string, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Prerequisites(), nil
}

// AddCourse inserts a course without prerequisites.
func (s *Store) AddCourse(ctx context.Context, id, name string) error {
	key, err := store.NormalizeID(id)
	if err != nil {
		return err
	}
	if _, err := s.Pool.Exec(ctx, insertCourse, key, strings.TrimSpace(name)); err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(store.ErrCourseExists, "%s", key)
		}
		return errors.Wrapf(err, "failed to insert course %s", key)
	}
	return nil
}

// UpdateCourse renames a course.
func (s *Store) UpdateCourse(ctx context.Context, id, name string) error {
	key, err := store.NormalizeID(id)
	if err != nil {
		return err
	}
	ct, err := s.Pool.Exec(ctx, updateCourse, strings.TrimSpace(name), key)
	if err != nil {
		return errors.Wrapf(err, "failed to update course %s", key)
	}
	if ct.RowsAffected() == 0 {
		return store.NotFound(key)
	}
	return nil
}

// DeleteCourse removes a course; the foreign keys cascade to its links.
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	key, err := store.NormalizeID(id)
	if err != nil {
		return err
	}
	ct, err := s.Pool.Exec(ctx, deleteCourse, key)
	if err != nil {
		return errors.Wrapf(err, "failed to delete course %s", key)
	}
	if ct.RowsAffected() == 0 {
		return store.NotFound(key)
	}
	return nil
}

// AddPrerequisite records that id requires prereq.
func (s *Store) AddPrerequisite(ctx context.Context, id, prereq string) error {
	return s.editLink(ctx, id, prereq, func(tx pgx.Tx, from, to int64, label string) error {
		if _, err := tx.Exec(ctx, insertLink, from, to); err != nil {
			if isUniqueViolation(err) {
				return errors.Wrapf(store.ErrLinkExists, "%s", label)
			}
			return errors.Wrapf(err, "failed to link %s", label)
		}
		return nil
	})
}

// RemovePrerequisite deletes the link from id to prereq.
func (s *Store) RemovePrerequisite(ctx context.Context, id, prereq string) error {
	return s.editLink(ctx, id, prereq, func(tx pgx.Tx, from, to int64, label string) error {
		ct, err := tx.Exec(ctx, deleteLink, from, to)
		if err != nil {
			return errors.Wrapf(err, "failed to unlink %s", label)
		}
		if ct.RowsAffected() == 0 {
			return errors.Wrapf(store.ErrLinkNotFound, "%s", label)
		}
		return nil
	})
}

func (s *Store) editLink(ctx context.Context, id, prereq string, fn func(tx pgx.Tx, from, to int64, label string) error) error {
	fromKey, err := store.NormalizeID(id)
	if err != nil {
		return err
	}
	toKey, err := store.NormalizeID(prereq)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		from, err := courseID(ctx, tx, fromKey)
		if err != nil {
			return err
		}
		to, err := courseID(ctx, tx, toKey)
		if err != nil {
			return err
		}
		return fn(tx, from, to, fromKey+" -> "+toKey)
	})
}

func courseID(ctx context.Context, tx pgx.Tx, key string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, selectCourseID, key).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, store.NotFound(key)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "failed to look up course %s", key)
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
