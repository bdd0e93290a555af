package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ItsaMeTuni/caser/server/recurrence"
)

// XCalResult carries a rule in both RRULE and xCal form.
type XCalResult struct {
	Rule string `json:"rule"`
	XCal string `json:"xcal"`

	decoded bool
}

func (r XCalResult) renderText(w io.Writer) error {
	if r.decoded {
		_, err := fmt.Fprintln(w, r.Rule)
		return err
	}
	_, err := io.WriteString(w, r.XCal)
	return err
}

type xcalOptions struct {
	ruleInput
	decode bool
}

// NewXCalCommand creates the xcal command.
func NewXCalCommand(rootOpts *RootOptions) *cobra.Command {
	var opts xcalOptions

	cmd := &cobra.Command{
		Use:   "xcal <rrule | file>",
		Short: "Convert a rule between RRULE text and its xCal <recur> element",
		Long: `Encode an RRULE as an xCal <recur> element (RFC 6321).

With --decode the argument names an xCal document ("-" for standard input)
whose first <recur> element is printed as RRULE text.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runXCal(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.dtstart, "dtstart", "", "first occurrence (RFC 5545 DATE or DATE-TIME)")
	cmd.Flags().BoolVar(&opts.decode, "decode", false, "read xCal and print RRULE text")

	return cmd
}

func runXCal(rootOpts *RootOptions, opts xcalOptions, arg string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	rt, err := rootOpts.load()
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidInput, err)
	}

	var rule *recurrence.Rule
	if opts.decode {
		data, err := readInput(cmd, arg)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeReadFailed, err)
		}
		dtstart, err := parseDateTimeFlag("dtstart", opts.dtstart, rt.Location, recurrence.DateTime{})
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeInvalidInput, err)
		}
		if dtstart.IsZero() {
			return fail(formatter, ExitCommandError, ErrCodeInvalidInput, fmt.Errorf("--dtstart is required"))
		}
		rule, err = recurrence.ParseXCal(data, dtstart)
		if err != nil {
			return ruleFailure(formatter, err)
		}
	} else {
		rule, err = opts.rule(arg, rt.Location)
		if err != nil {
			return ruleFailure(formatter, err)
		}
	}

	encoded, err := recurrence.MarshalXCal(rule)
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeInvalidRule, err)
	}
	return formatter.Success(XCalResult{Rule: rule.String(), XCal: string(encoded), decoded: opts.decode})
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
