package cli

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/ItsaMeTuni/caser/internal/config"
	"github.com/ItsaMeTuni/caser/server/recurrence"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Timezone string // overrides the configured timezone when set

	runtime *config.Runtime
	logger  *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{config.FormatText, config.FormatJSON}

// NewRootCommand creates the root command for the caser CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "caser",
		Short: "caser - recurrence rule toolkit",
		Long:  "Validate, expand and convert RFC 5545 recurrence rules and iCalendar events.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			if !cmd.Flags().Changed("format") {
				opts.Format = rt.Format
			}
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", config.FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Timezone, "tz", "", "timezone for floating dates (default from config)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewExpandCommand(opts))
	cmd.AddCommand(NewNextCommand(opts))
	cmd.AddCommand(NewICSCommand(opts))
	cmd.AddCommand(NewXCalCommand(opts))

	return cmd
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

// load returns the runtime configuration, reading it on first use.
func (o *RootOptions) load() (config.Runtime, error) {
	if o.runtime == nil {
		rt, err := config.Load()
		if err != nil {
			return config.Runtime{}, err
		}
		o.runtime = &rt
	}
	rt := *o.runtime
	if o.Timezone != "" {
		loc, err := time.LoadLocation(o.Timezone)
		if err != nil {
			return config.Runtime{}, fmt.Errorf("unknown timezone %q: %w", o.Timezone, err)
		}
		rt.Location = loc
	}
	if rt.Location == nil {
		rt.Location = time.UTC
	}
	return rt, nil
}

// loggerFor returns a text logger on the command's stderr at the configured
// level, or debug when verbose.
func (o *RootOptions) loggerFor(cmd *cobra.Command, rt config.Runtime) *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	level := rt.LogLevel
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return o.logger
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// parseDateTimeFlag reads an RFC 5545 DATE or DATE-TIME flag value. Empty
// values yield fallback.
func parseDateTimeFlag(name, value string, loc *time.Location, fallback recurrence.DateTime) (recurrence.DateTime, error) {
	if value == "" {
		return fallback, nil
	}
	dt, err := recurrence.ParseDateTime(value, loc)
	if err != nil {
		return recurrence.DateTime{}, fmt.Errorf("--%s: %w", name, err)
	}
	return dt, nil
}

func parseDateTimeList(name string, values []string, loc *time.Location) ([]recurrence.DateTime, error) {
	out := make([]recurrence.DateTime, 0, len(values))
	for _, v := range values {
		dt, err := parseDateTimeFlag(name, v, loc, recurrence.DateTime{})
		if err != nil {
			return nil, err
		}
		out = append(out, dt)
	}
	return out, nil
}
