package cli

import (
	"github.com/spf13/cobra"

	"github.com/ItsaMeTuni/caser/server/recurrence"
)

type expandOptions struct {
	ruleInput
	from, to string
	limit    int
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	var opts expandOptions

	cmd := &cobra.Command{
		Use:   "expand <rrule>",
		Short: "List the occurrences of a rule inside a window",
		Long: `Expand an RRULE into the occurrences that start inside [from, to).

The window defaults to DTSTART plus the configured window length. EXDATE
and RDATE values may be repeated.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.dtstart, "dtstart", "", "first occurrence (RFC 5545 DATE or DATE-TIME)")
	cmd.Flags().StringVar(&opts.from, "from", "", "window start, inclusive (default dtstart)")
	cmd.Flags().StringVar(&opts.to, "to", "", "window end, exclusive (default from plus the configured window)")
	cmd.Flags().StringArrayVar(&opts.exdates, "exdate", nil, "excluded occurrence (repeatable)")
	cmd.Flags().StringArrayVar(&opts.rdates, "rdate", nil, "additional occurrence (repeatable)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "maximum occurrences to print (default from config)")

	return cmd
}

func runExpand(rootOpts *RootOptions, opts expandOptions, text string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	rt, err := rootOpts.load()
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidInput, err)
	}

	seq, err := opts.sequencer(text, rt.Location)
	if err != nil {
		return ruleFailure(formatter, err)
	}

	from, err := parseDateTimeFlag("from", opts.from, rt.Location, seq.Rule().Dtstart())
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidInput, err)
	}
	to, err := parseDateTimeFlag("to", opts.to, rt.Location, recurrence.At(from.Time.Add(rt.Window)))
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidInput, err)
	}

	limit := opts.limit
	if limit <= 0 {
		limit = rt.MaxOccurrences
	}
	formatter.VerboseLog("expanding %s over [%s, %s), limit %d", seq.Rule(), formatStart(from), formatStart(to), limit)

	result := OccurrenceList{Rule: seq.Rule().String(), Occurrences: []OccurrenceView{}}
	for o := range seq.Between(from.Time, to.Time) {
		if len(result.Occurrences) == limit {
			result.Truncated = true
			break
		}
		result.Occurrences = append(result.Occurrences, newOccurrenceView(o))
	}
	return formatter.Success(result)
}
