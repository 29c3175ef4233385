// Package sqlitestore is the SQLite implementation of store.Mirror, backed by
// the pure Go modernc.org/sqlite driver.
package sqlitestore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vk/courseplanner/internal/course"
	"github.com/vk/courseplanner/internal/ctxlog"
	"github.com/vk/courseplanner/internal/store"
)

const defaultDirPerms = 0o755

// Store implements store.Mirror on a single SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

var _ store.Mirror = (*Store)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		panic("sqlitestore: path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerms); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// foreign_keys is per connection, so keep exactly one.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to apply %q", pragma)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("Opened SQLite mirror.", "path", path)
	return s, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		course_id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_number TEXT UNIQUE NOT NULL,
		course_name TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS prerequisites (
		prerequisite_id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		prerequisite_course_id INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (course_id) REFERENCES courses(course_id) ON DELETE CASCADE,
		FOREIGN KEY (prerequisite_course_id) REFERENCES courses(course_id) ON DELETE CASCADE,
		UNIQUE (course_id, prerequisite_course_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_course_number ON courses(course_number)`,
	`CREATE INDEX IF NOT EXISTS idx_prerequisites_course ON prerequisites(course_id)`,
	`CREATE INDEX IF NOT EXISTS idx_prerequisites_prereq ON prerequisites(prerequisite_course_id)`,
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return errors.Wrap(err, "migration failed")
		}
	}
	return nil
}

// Drop removes both tables.
func (s *Store) Drop(ctx context.Context) error {
	for _, stmt := range []string{
		`DROP TABLE IF EXISTS prerequisites`,
		`DROP TABLE IF EXISTS courses`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to drop schema")
		}
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

// Replace swaps the stored catalog for courses.
func (s *Store) Replace(ctx context.Context, courses []course.Course) (store.MigrationStats, error) {
	logger := ctxlog.FromContext(ctx)
	courses = store.Dedupe(courses)

	var stats store.MigrationStats
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM prerequisites`); err != nil {
			return errors.Wrap(err, "failed to clear prerequisites")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM courses`); err != nil {
			return errors.Wrap(err, "failed to clear courses")
		}

		insertCourse, err := tx.PrepareContext(ctx, `INSERT INTO courses (course_number, course_name) VALUES (?, ?)`)
		if err != nil {
			return errors.Wrap(err, "failed to prepare course insert")
		}
		defer insertCourse.Close()

		ids := make(map[string]int64, len(courses))
		for _, c := range courses {
			if c.ID() == "" {
				return course.ErrEmptyID
			}
			res, err := insertCourse.ExecContext(ctx, c.ID(), c.Name())
			if err != nil {
				return errors.Wrapf(err, "failed to insert course %s", c.ID())
			}
			if ids[c.ID()], err = res.LastInsertId(); err != nil {
				return errors.Wrap(err, "failed to read course id")
			}
			stats.Courses++
		}

		insertLink, err := tx.PrepareContext(ctx, `INSERT INTO prerequisites (course_id, prerequisite_course_id) VALUES (?, ?)`)
		if err != nil {
			return errors.Wrap(err, "failed to prepare prerequisite insert")
		}
		defer insertLink.Close()

		for _, c := range courses {
			for _, p := range c.Prerequisites() {
				target, ok := ids[p]
				if !ok {
					logger.Warn("Skipping prerequisite link to unknown course.", "course", c.ID(), "prerequisite", p)
					stats.Skipped++
					continue
				}
				if _, err := insertLink.ExecContext(ctx, ids[c.ID()], target); err != nil {
					return errors.Wrapf(err, "failed to link %s -> %s", c.ID(), p)
				}
				stats.Links++
			}
		}
		return nil
	})
	if err != nil {
		return store.MigrationStats{}, err
	}

	logger.Info("Replaced SQLite mirror contents.", "courses", stats.Courses, "links", stats.Links, "skipped", stats.Skipped)
	return stats, nil
}

const selectCourses = `
	SELECT c.course_number, c.course_name, p.course_number
	FROM courses c
	LEFT JOIN prerequisites l ON l.course_id = c.course_id
	LEFT JOIN courses p ON p.course_id = l.prerequisite_course_id`

// Load returns every course ordered by number.
func (s *Store) Load(ctx context.Context) ([]course.Course, error) {
	rows, err := s.db.QueryContext(ctx, selectCourses+` ORDER BY c.course_number, p.course_number`)
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
	rows, err := s.db.QueryContext(ctx, selectCourses+` WHERE c.course_number = ? ORDER BY p.course_number`, key)
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

// collect folds joined course/prerequisite rows, already ordered by course
// number, into courses.
func collect(rows *sql.Rows) ([]course.Course, error) {
	defer rows.Close()

	type pending struct {
		id, name string
		prereqs  []string
	}
	var all []*pending
	for rows.Next() {
		var (
			id, name string
			prereq   sql.NullString
		)
		if err := rows.Scan(&id, &name, &prereq); err != nil {
			return nil, errors.Wrap(err, "failed to scan course row")
		}
		if len(all) == 0 || all[len(all)-1].id != id {
			all = append(all, &pending{id: id, name: name})
		}
		if prereq.Valid {
			last := all[len(all)-1]
			last.prereqs = append(last.prereqs, prereq.String)
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
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n); err != nil {
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
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := courseID(ctx, tx, key); err == nil {
			return errors.Wrapf(store.ErrCourseExists, "%s", key)
		} else if !errors.Is(err, store.ErrCourseNotFound) {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO courses (course_number, course_name) VALUES (?, ?)`,
			key, strings.TrimSpace(name))
		return errors.Wrapf(err, "failed to insert course %s", key)
	})
}

// UpdateCourse renames a course.
func (s *Store) UpdateCourse(ctx context.Context, id, name string) error {
	key, err := store.NormalizeID(id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE courses SET course_name = ?, updated_at = CURRENT_TIMESTAMP WHERE course_number = ?`,
		strings.TrimSpace(name), key)
	if err != nil {
		return errors.Wrapf(err, "failed to update course %s", key)
	}
	return requireAffected(res, store.NotFound(key))
}

// DeleteCourse removes a course; the foreign keys cascade to its links.
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	key, err := store.NormalizeID(id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE course_number = ?`, key)
	if err != nil {
		return errors.Wrapf(err, "failed to delete course %s", key)
	}
	return requireAffected(res, store.NotFound(key))
}

// AddPrerequisite records that id requires prereq.
func (s *Store) AddPrerequisite(ctx context.Context, id, prereq string) error {
	return s.editLink(ctx, id, prereq, func(tx *sql.Tx, from, to int64, label string) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM prerequisites WHERE course_id = ? AND prerequisite_course_id = ?)`,
			from, to).Scan(&exists)
		if err != nil {
			return errors.Wrap(err, "failed to check prerequisite link")
		}
		if exists {
			return errors.Wrapf(store.ErrLinkExists, "%s", label)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO prerequisites (course_id, prerequisite_course_id) VALUES (?, ?)`, from, to)
		return errors.Wrapf(err, "failed to link %s", label)
	})
}

// RemovePrerequisite deletes the link from id to prereq.
func (s *Store) RemovePrerequisite(ctx context.Context, id, prereq string) error {
	return s.editLink(ctx, id, prereq, func(tx *sql.Tx, from, to int64, label string) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM prerequisites WHERE course_id = ? AND prerequisite_course_id = ?`, from, to)
		if err != nil {
			return errors.Wrapf(err, "failed to unlink %s", label)
		}
		return requireAffected(res, errors.Wrapf(store.ErrLinkNotFound, "%s", label))
	})
}

func (s *Store) editLink(ctx context.Context, id, prereq string, fn func(tx *sql.Tx, from, to int64, label string) error) error {
	fromKey, err := store.NormalizeID(id)
	if err != nil {
		return err
	}
	toKey, err := store.NormalizeID(prereq)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
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

func courseID(ctx context.Context, tx *sql.Tx, key string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT course_id FROM courses WHERE course_number = ?`, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.NotFound(key)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "failed to look up course %s", key)
	}
	return id, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
