package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ItsaMeTuni/caser/server/recurrence"
)

// OccurrenceView is the printed form of one occurrence.
type OccurrenceView struct {
	Start    string `json:"start"`
	AllDay   bool   `json:"all_day"`
	Addition bool   `json:"addition"`
}

// OccurrenceList is the result of the expand and next commands.
type OccurrenceList struct {
	Rule        string           `json:"rule"`
	Occurrences []OccurrenceView `json:"occurrences"`
	Truncated   bool             `json:"truncated,omitempty"`
}

func newOccurrenceView(o recurrence.Occurrence) OccurrenceView {
	return OccurrenceView{
		Start:    formatStart(o.DateTime),
		AllDay:   o.DateOnly,
		Addition: o.Additional,
	}
}

func formatStart(d recurrence.DateTime) string {
	if d.DateOnly {
		return d.Time.Format(time.DateOnly)
	}
	return d.Time.Format(time.RFC3339)
}

func (l OccurrenceList) renderText(w io.Writer) error {
	for _, o := range l.Occurrences {
		line := o.Start
		if o.Addition {
			line += " (rdate)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if l.Truncated {
		_, err := fmt.Fprintf(w, "truncated after %d occurrences\n", len(l.Occurrences))
		return err
	}
	return nil
}

// ruleInput gathers the flags shared by commands that take an RRULE.
type ruleInput struct {
	dtstart string
	exdates []string
	rdates  []string
}

// rule parses text against the --dtstart flag.
func (in ruleInput) rule(text string, loc *time.Location) (*recurrence.Rule, error) {
	if in.dtstart == "" {
		return nil, errors.New("--dtstart is required")
	}
	dtstart, err := parseDateTimeFlag("dtstart", in.dtstart, loc, recurrence.DateTime{})
	if err != nil {
		return nil, err
	}
	return recurrence.Parse(text, dtstart)
}

// sequencer returns a sequencer over the parsed rule with the --exdate and
// --rdate values applied.
func (in ruleInput) sequencer(text string, loc *time.Location) (*recurrence.Sequencer, error) {
	rule, err := in.rule(text, loc)
	if err != nil {
		return nil, err
	}
	exdates, err := parseDateTimeList("exdate", in.exdates, loc)
	if err != nil {
		return nil, err
	}
	rdates, err := parseDateTimeList("rdate", in.rdates, loc)
	if err != nil {
		return nil, err
	}
	return recurrence.NewSequencer(rule, exdates, rdates), nil
}

// ruleFailure reports err, naming the rejected rule part when known. Rule
// errors exit with ExitFailure and everything else with ExitCommandError.
func ruleFailure(f *OutputFormatter, err error) error {
	if !errors.Is(err, recurrence.ErrInvalidRule) {
		return fail(f, ExitCommandError, ErrCodeInvalidInput, err)
	}
	var details any
	var ruleErr *recurrence.RuleError
	if errors.As(err, &ruleErr) {
		details = map[string]string{
			"field":  ruleErr.Field,
			"value":  ruleErr.Value,
			"reason": ruleErr.Reason,
		}
	}
	_ = f.Error(ErrCodeInvalidRule, err.Error(), details)
	return WrapExitError(ExitFailure, ErrCodeInvalidRule, err)
}
