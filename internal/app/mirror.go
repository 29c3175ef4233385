package app

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vk/courseplanner/internal/course"
	"github.com/vk/courseplanner/internal/ctxlog"
	"github.com/vk/courseplanner/internal/inmemorystore"
	"github.com/vk/courseplanner/internal/render"
	"github.com/vk/courseplanner/internal/store"
)

// MigrateOptions selects where Migrate writes.
type MigrateOptions struct {
	// Target is SourceSQLite or SourcePostgres. Empty picks Postgres when a
	// DSN is configured and SQLite otherwise.
	Target string
	// DryRun replaces an in-memory mirror instead, reporting what a real
	// migration would store.
	DryRun bool
}

// Migrate reads the configured source and replaces the contents of a
// relational mirror with it.
func (a *App) Migrate(ctx context.Context, opts MigrateOptions) error {
	ctx = a.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)

	target, err := a.mirrorKind(opts.Target)
	if err != nil {
		return err
	}
	if target == a.cfg.Source && !opts.DryRun {
		return errors.Mark(errors.WithHintf(
			errors.Newf("cannot migrate the %s mirror onto itself", target),
			"Pick a catalog file with --source csv|hcl|html, or migrate to the other database."), ErrInvalidConfig)
	}

	courses, err := a.src.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load catalog")
	}
	logger.Info("Migrating catalog.", "courses", len(courses), "source", a.origin, "target", target, "dry_run", opts.DryRun)

	var (
		m    store.Mirror
		desc string
	)
	if opts.DryRun {
		m, desc = inmemorystore.New(), "dry run (nothing written)"
	} else {
		m, desc, err = a.openMirror(ctx, target)
		if err != nil {
			return err
		}
	}
	defer m.Close()

	stats, err := m.Replace(ctx, courses)
	if err != nil {
		return errors.Wrapf(err, "migration to %s failed", desc)
	}
	if !opts.DryRun {
		a.invalidateCache(ctx, target)
	}
	logger.Debug("Migration finished.", "courses", stats.Courses, "links", stats.Links, "skipped", stats.Skipped)

	return a.out.Migrated(render.MigrationReport{Source: a.origin, Target: desc, Stats: stats})
}

func (a *App) mirrorKind(requested string) (string, error) {
	switch requested {
	case SourceSQLite, SourcePostgres:
		return requested, nil
	case "":
		if a.cfg.PostgresDSN != "" {
			return SourcePostgres, nil
		}
		return SourceSQLite, nil
	default:
		return "", errors.Mark(errors.WithHint(
			errors.Newf("unknown database %q", requested), "Use sqlite or postgres."), ErrInvalidConfig)
	}
}

// AddCourse inserts a course without prerequisites.
func (a *App) AddCourse(ctx context.Context, id, name string) error {
	return a.edit(ctx, render.EditReport{Action: render.ActionAdd, Course: id, Name: name},
		func(ctx context.Context, m store.Mirror) error {
			err := m.AddCourse(ctx, id, name)
			if errors.Is(err, store.ErrCourseExists) {
				err = errors.WithHint(err, "Use db update to rename an existing course.")
			}
			return err
		})
}

// UpdateCourse renames a course.
func (a *App) UpdateCourse(ctx context.Context, id, name string) error {
	return a.edit(ctx, render.EditReport{Action: render.ActionUpdate, Course: id, Name: name},
		func(ctx context.Context, m store.Mirror) error {
			return m.UpdateCourse(ctx, id, name)
		})
}

// DeleteCourse removes a course and every link that mentions it.
func (a *App) DeleteCourse(ctx context.Context, id string) error {
	return a.edit(ctx, render.EditReport{Action: render.ActionDelete, Course: id},
		func(ctx context.Context, m store.Mirror) error {
			return m.DeleteCourse(ctx, id)
		})
}

// Link records prereq as a prerequisite of id.
func (a *App) Link(ctx context.Context, id, prereq string) error {
	return a.edit(ctx, render.EditReport{Action: render.ActionLink, Course: id, Prerequisite: prereq},
		func(ctx context.Context, m store.Mirror) error {
			return m.AddPrerequisite(ctx, id, prereq)
		})
}

// Unlink removes prereq from the prerequisites of id.
func (a *App) Unlink(ctx context.Context, id, prereq string) error {
	return a.edit(ctx, render.EditReport{Action: render.ActionUnlink, Course: id, Prerequisite: prereq},
		func(ctx context.Context, m store.Mirror) error {
			return m.RemovePrerequisite(ctx, id, prereq)
		})
}

func (a *App) edit(ctx context.Context, rep render.EditReport, fn func(context.Context, store.Mirror) error) error {
	ctx = a.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)

	kind, err := a.mirrorKind("")
	if err != nil {
		return err
	}
	m, desc, err := a.openMirror(ctx, kind)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := fn(ctx, m); err != nil {
		if errors.Is(err, store.ErrCourseNotFound) {
			err = errors.WithHint(err, "Run migrate to populate the database, or db add the course first.")
		}
		return errors.Wrapf(err, "%s %s", rep.Action, rep.Course)
	}
	a.invalidateCache(ctx, kind)
	logger.Info("Mirror updated.", "action", string(rep.Action), "course", rep.Course, "target", desc)

	rep.Target = desc
	rep.Course = course.NormalizeID(rep.Course)
	rep.Name = strings.TrimSpace(rep.Name)
	rep.Prerequisite = course.NormalizeID(rep.Prerequisite)
	return a.out.Edited(rep)
}
