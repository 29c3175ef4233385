package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/vk/courseplanner/internal/app"
)

// exactArgs wraps cobra.ExactArgs so that arity mistakes exit as usage errors.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return errors.Mark(err, errUsage)
		}
		return nil
	}
}

func (o *rootOptions) newLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Read the catalog source and refresh the cache",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.app.Load(cmd.Context())
		},
	}
}

func (o *rootOptions) newMigrateCommand() *cobra.Command {
	var opts app.MigrateOptions
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Replace the contents of a SQLite or Postgres mirror with the catalog",
		Long: `migrate reads the configured catalog and replaces everything stored in the
relational mirror with it, in one transaction. Prerequisites that name courses
outside the catalog are skipped and reported.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.app.Migrate(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.Target, "to", "", "Mirror to write: sqlite or postgres (default: postgres when a DSN is set)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report what would be migrated without writing anything")
	return cmd
}

func (o *rootOptions) newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every course sorted by course number",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.app.List(cmd.Context())
		},
	}
}

func (o *rootOptions) newSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "search <course>",
		Short:   "Show one course and its direct prerequisites",
		Example: "  courseplanner search csci300",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.app.Search(cmd.Context(), args[0])
		},
	}
}

func (o *rootOptions) newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check for missing prerequisites and circular dependencies",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.app.Validate(cmd.Context())
		},
	}
}

func (o *rootOptions) newChainCommand() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "chain <course>",
		Short: "Show every transitive prerequisite of a course, by depth",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.app.Chain(cmd.Context(), args[0], strict)
		},
	}
	cmd.Flags().Int("max-depth", 0, "Stop after this many levels (0: as deep as the catalog allows)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Refuse to run when the catalog fails validation")
	_ = o.v.BindPFlag("max-depth", cmd.Flags().Lookup("max-depth"))
	return cmd
}

func (o *rootOptions) newClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the catalog cache",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.app.Clear(cmd.Context())
		},
	}
}

func (o *rootOptions) newDBCommand() *cobra.Command {
	db := &cobra.Command{
		Use:   "db",
		Short: "Edit the relational mirror one course or link at a time",
		Long: `db edits the SQLite mirror (--db-path), or the Postgres mirror when
--postgres-dsn is set. Run migrate first to populate it.`,
	}
	db.AddCommand(
		&cobra.Command{
			Use:   "add <course> <name>",
			Short: "Add a course without prerequisites",
			Args:  exactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.app.AddCourse(cmd.Context(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "update <course> <name>",
			Short: "Rename a course",
			Args:  exactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.app.UpdateCourse(cmd.Context(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "delete <course>",
			Short: "Delete a course and every link that mentions it",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.app.DeleteCourse(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "link <course> <prerequisite>",
			Short: "Add a prerequisite to a course",
			Args:  exactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.app.Link(cmd.Context(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "unlink <course> <prerequisite>",
			Short: "Remove a prerequisite from a course",
			Args:  exactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.app.Unlink(cmd.Context(), args[0], args[1])
			},
		},
	)
	return db
}
