package app

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vk/courseplanner/internal/course"
	"github.com/vk/courseplanner/internal/ctxlog"
	"github.com/vk/courseplanner/internal/dag"
	"github.com/vk/courseplanner/internal/render"
)

var (
	// ErrInvalidCatalog is returned by Validate, and by Chain in strict
	// mode, when the catalog has problems. The report has already been
	// printed.
	ErrInvalidCatalog = errors.New("catalog failed validation")
	// ErrInvalidArgument marks malformed command arguments.
	ErrInvalidArgument = errors.New("invalid argument")
)

// List prints every course sorted by identifier.
func (a *App) List(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	idx, err := a.ensureLoaded(ctx)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Listing courses.", "count", idx.Count())
	return a.out.List(idx.Sorted())
}

// Search prints one course. Identifiers are case-insensitive.
func (a *App) Search(ctx context.Context, id string) error {
	ctx = a.withLogger(ctx)
	if strings.TrimSpace(id) == "" {
		return blankArgument("course number")
	}
	idx, err := a.ensureLoaded(ctx)
	if err != nil {
		return err
	}

	c, ok := idx.Lookup(id)
	if !ok {
		ctxlog.FromContext(ctx).Debug("Course lookup missed.", "id", course.NormalizeID(id))
		return notFound(id)
	}
	return a.out.Course(c)
}

// Validate checks the catalog for missing prerequisites and circular
// dependencies and prints the report.
func (a *App) Validate(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	idx, err := a.ensureLoaded(ctx)
	if err != nil {
		return err
	}

	problems := dag.Check(idx)
	ctxlog.FromContext(ctx).Debug("Validation finished.", "courses", idx.Count(), "problems", len(problems))
	if err := a.out.Validation(render.NewValidationReport(idx.Count(), problems)); err != nil {
		return err
	}
	if len(problems) > 0 {
		return ErrInvalidCatalog
	}
	return nil
}

// Chain prints the transitive prerequisites of id. With strict set it
// refuses to run on a catalog that fails validation.
func (a *App) Chain(ctx context.Context, id string, strict bool) error {
	ctx = a.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)
	if strings.TrimSpace(id) == "" {
		return blankArgument("course number")
	}
	idx, err := a.ensureLoaded(ctx)
	if err != nil {
		return err
	}

	if strict {
		if problems := dag.Check(idx); len(problems) > 0 {
			logger.Debug("Refusing chain on invalid catalog.", "problems", len(problems))
			return errors.WithHintf(errors.Wrapf(ErrInvalidCatalog, "%d problems", len(problems)),
				"Run validate to see the problems, or drop --strict.")
		}
	}

	res, err := dag.Chain(idx, id, dag.WithMaxDepth(a.cfg.MaxDepth))
	if err != nil {
		if errors.Is(err, dag.ErrCourseNotFound) {
			return notFound(id)
		}
		return err
	}
	logger.Debug("Chain computed.", "course", res.Course.ID, "total", res.Total, "max_depth", res.MaxDepth, "truncated", res.Truncated)
	if res.Truncated {
		logger.Warn("Chain walk hit the depth ceiling.", "course", res.Course.ID, "depth", res.MaxDepth)
	}
	return a.out.Chain(res)
}

// Clear removes the cache file.
func (a *App) Clear(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	removed, err := a.cache.Clear(ctx)
	if err != nil {
		return errors.WithHint(err, "Another courseplanner process may be using the cache; try again.")
	}
	_, _ = a.current.Replace(nil)
	a.loaded = false
	return a.out.Cleared(render.ClearReport{Path: a.cache.Path(), Removed: removed})
}

func notFound(id string) error {
	return errors.WithHint(&dag.NotFoundError{ID: course.NormalizeID(id)},
		"Course numbers are case-insensitive; run list to see every course.")
}

func blankArgument(what string) error {
	return errors.Wrapf(ErrInvalidArgument, "%s must not be blank", what)
}
