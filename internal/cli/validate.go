package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ValidationResult describes an accepted rule.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Rule    string `json:"rule"`
	Freq    string `json:"freq"`
	Dtstart string `json:"dtstart"`
}

func (r ValidationResult) renderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "✓ %s (dtstart %s)\n", r.Rule, r.Dtstart)
	return err
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var in ruleInput

	cmd := &cobra.Command{
		Use:   "validate <rrule>",
		Short: "Check a recurrence rule against its DTSTART",
		Long: `Parse and validate an RRULE without expanding it.

Prints the rule in canonical form. Exits with status 1 when the rule is
rejected and names the offending rule part.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, in, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&in.dtstart, "dtstart", "", "first occurrence (RFC 5545 DATE or DATE-TIME)")

	return cmd
}

func runValidate(opts *RootOptions, in ruleInput, text string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	rt, err := opts.load()
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidInput, err)
	}

	rule, err := in.rule(text, rt.Location)
	if err != nil {
		return ruleFailure(formatter, err)
	}
	formatter.VerboseLog("rule %q accepted in %s", text, rule.Location())

	return formatter.Success(ValidationResult{
		Valid:   true,
		Rule:    rule.String(),
		Freq:    rule.Freq().String(),
		Dtstart: formatStart(rule.Dtstart()),
	})
}
