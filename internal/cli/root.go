package cli

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vk/courseplanner/internal/app"
	"github.com/vk/courseplanner/internal/htmlcatalog"
	"github.com/vk/courseplanner/internal/render"
)

const (
	envPrefix      = "COURSEPLANNER"
	configName     = "courseplanner"
	defaultCatalog = "data/courses.csv"
	defaultDB      = "course_catalog.db"
)

// rootOptions carries state from flag parsing into the commands.
type rootOptions struct {
	v    *viper.Viper
	app  *app.App
	outW io.Writer
	errW io.Writer
}

// NewRootCommand builds the command tree. Every call gets its own viper
// instance, so command trees never share settings.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	o := &rootOptions{v: viper.New(), outW: outW, errW: errW}
	o.v.SetEnvPrefix(envPrefix)
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "courseplanner",
		Short: "Explore a course catalog and its prerequisite graph",
		Long: `courseplanner loads a course catalog (CSV, HCL, HTML, SQLite or Postgres),
checks its prerequisites for missing courses and circular dependencies, and
lists the full prerequisite chain of any course.

Settings come from flags, COURSEPLANNER_* environment variables and an
optional courseplanner.yaml in the working directory or
$XDG_CONFIG_HOME/courseplanner.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: o.setup,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Mark(err, errUsage)
	})

	flags := root.PersistentFlags()
	flags.String("config", "", "Config file (default ./courseplanner.yaml, then $XDG_CONFIG_HOME/courseplanner)")
	flags.String("source", "", "Catalog source: "+strings.Join(app.Sources, ", ")+" (default: from the catalog extension)")
	flags.StringP("catalog", "f", defaultCatalog, "Catalog file, or directory of .hcl files")
	flags.String("html-selector", htmlcatalog.DefaultSelector, "CSS selector for course rows in an HTML catalog")
	flags.String("db-path", defaultDB, "SQLite mirror file")
	flags.String("postgres-dsn", "", "Postgres mirror connection string")
	flags.String("cache-path", "", "Catalog cache file (default $XDG_CACHE_HOME/courseplanner/catalog.msgpack)")
	flags.Bool("no-cache", false, "Always read the source; neither read nor write the cache")
	flags.Bool("strict-ids", false, "Fail on duplicate course numbers instead of keeping the last one")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text, json, logfmt")
	flags.StringP("output", "o", string(render.Text), "Output format: "+strings.Join(render.FormatNames(), ", "))
	flags.BoolP("verbose", "v", false, "Shorthand for --log-level=debug")
	_ = o.v.BindPFlags(flags)

	root.AddCommand(
		o.newLoadCommand(),
		o.newMigrateCommand(),
		o.newListCommand(),
		o.newSearchCommand(),
		o.newValidateCommand(),
		o.newChainCommand(),
		o.newClearCommand(),
		o.newDBCommand(),
	)
	return root
}

// setup reads the config file and builds the App before any command runs.
func (o *rootOptions) setup(_ *cobra.Command, _ []string) error {
	if err := o.readConfigFile(); err != nil {
		return err
	}

	level := o.v.GetString("log-level")
	if o.v.GetBool("verbose") {
		level = "debug"
	}

	cfg, err := app.NewConfig(app.Config{
		Source:       o.v.GetString("source"),
		CatalogPath:  o.v.GetString("catalog"),
		HTMLSelector: o.v.GetString("html-selector"),
		DatabasePath: o.v.GetString("db-path"),
		PostgresDSN:  o.v.GetString("postgres-dsn"),
		CachePath:    o.v.GetString("cache-path"),
		NoCache:      o.v.GetBool("no-cache"),
		StrictIDs:    o.v.GetBool("strict-ids"),
		LogLevel:     level,
		LogFormat:    o.v.GetString("log-format"),
		Output:       o.v.GetString("output"),
		MaxDepth:     o.v.GetInt("max-depth"),
	})
	if err != nil {
		return err
	}

	o.app = app.New(o.outW, o.errW, cfg)
	if used := o.v.ConfigFileUsed(); used != "" {
		o.app.Logger().Debug("Loaded config file.", "file", used)
	}
	return nil
}

func (o *rootOptions) readConfigFile() error {
	if path := o.v.GetString("config"); path != "" {
		o.v.SetConfigFile(path)
		if err := o.v.ReadInConfig(); err != nil {
			return errors.Mark(errors.Wrapf(err, "failed to read config file %s", path), errUsage)
		}
		return nil
	}

	o.v.SetConfigName(configName)
	o.v.AddConfigPath(".")
	o.v.AddConfigPath(filepath.Join(xdg.ConfigHome, configName))
	if err := o.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Mark(errors.Wrap(err, "failed to read config file"), errUsage)
	}
	return nil
}
