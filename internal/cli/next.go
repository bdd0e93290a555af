package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type nextOptions struct {
	ruleInput
	after string
	count int
}

// NewNextCommand creates the next command.
func NewNextCommand(rootOpts *RootOptions) *cobra.Command {
	var opts nextOptions

	cmd := &cobra.Command{
		Use:           "next <rrule>",
		Short:         "Print the next occurrences of a rule",
		Long:          "Print up to n occurrences starting at or after the given instant.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNext(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.dtstart, "dtstart", "", "first occurrence (RFC 5545 DATE or DATE-TIME)")
	cmd.Flags().StringVar(&opts.after, "after", "", "earliest occurrence to print, inclusive (default dtstart)")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 10, "number of occurrences")
	cmd.Flags().StringArrayVar(&opts.exdates, "exdate", nil, "excluded occurrence (repeatable)")
	cmd.Flags().StringArrayVar(&opts.rdates, "rdate", nil, "additional occurrence (repeatable)")

	return cmd
}

func runNext(rootOpts *RootOptions, opts nextOptions, text string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	rt, err := rootOpts.load()
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidInput, err)
	}
	if opts.count <= 0 || opts.count > rt.MaxOccurrences {
		return fail(formatter, ExitCommandError, ErrCodeInvalidInput,
			fmt.Errorf("--count must be between 1 and %d", rt.MaxOccurrences))
	}

	seq, err := opts.sequencer(text, rt.Location)
	if err != nil {
		return ruleFailure(formatter, err)
	}
	after, err := parseDateTimeFlag("after", opts.after, rt.Location, seq.Rule().Dtstart())
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidInput, err)
	}

	result := OccurrenceList{Rule: seq.Rule().String(), Occurrences: []OccurrenceView{}}
	for _, o := range seq.NextN(after.Time, opts.count) {
		result.Occurrences = append(result.Occurrences, newOccurrenceView(o))
	}
	formatter.VerboseLog("%d of %d requested occurrences", len(result.Occurrences), opts.count)
	return formatter.Success(result)
}
