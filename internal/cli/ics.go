package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/ItsaMeTuni/caser/server/event"
	"github.com/ItsaMeTuni/caser/server/recurrence"
)

// InstanceView is the printed form of one event instance.
type InstanceView struct {
	Event    string `json:"event"`
	Start    string `json:"start"`
	End      string `json:"end"`
	AllDay   bool   `json:"all_day"`
	Addition bool   `json:"addition"`
}

// InstanceList is the result of the ics command.
type InstanceList struct {
	Events    int            `json:"events"`
	Instances []InstanceView `json:"instances"`
}

func (l InstanceList) renderText(w io.Writer) error {
	for _, inst := range l.Instances {
		line := fmt.Sprintf("%s  %s  %s", inst.Start, inst.End, inst.Event)
		if inst.Addition {
			line += " (rdate)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d instance(s) from %d event(s)\n", len(l.Instances), l.Events)
	return err
}

type icsOptions struct {
	from, to string
}

// NewICSCommand creates the ics command.
func NewICSCommand(rootOpts *RootOptions) *cobra.Command {
	var opts icsOptions

	cmd := &cobra.Command{
		Use:   "ics <file>",
		Short: "List the event instances of an iCalendar file inside a window",
		Long: `Decode the VEVENTs of an iCalendar file and expand them over [from, to).

Overridden instances replace the occurrence they were moved from. Use "-"
to read from standard input.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runICS(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "window start, inclusive (default today)")
	cmd.Flags().StringVar(&opts.to, "to", "", "window end, exclusive (default from plus the configured window)")

	return cmd
}

func runICS(rootOpts *RootOptions, opts icsOptions, path string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	rt, err := rootOpts.load()
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidInput, err)
	}
	logger := rootOpts.loggerFor(cmd, rt)

	y, m, d := time.Now().In(rt.Location).Date()
	from, err := parseDateTimeFlag("from", opts.from, rt.Location, recurrence.Date(y, m, d, rt.Location))
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidInput, err)
	}
	to, err := parseDateTimeFlag("to", opts.to, rt.Location, recurrence.At(from.Time.Add(rt.Window)))
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidInput, err)
	}

	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeReadFailed, err)
		}
		defer f.Close()
		r = f
	}

	events, err := event.DecodeICS(r, rt.Location, logger)
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeDecodeFailed, err)
	}
	formatter.VerboseLog("decoded %d event(s) from %s", len(events), path)

	engine := recurrence.NewEngineWithConfig(rt.EngineConfig(logger))
	defer engine.Close()

	series := make([]recurrence.EventSeries, len(events))
	for i, e := range events {
		series[i] = e.Series()
	}
	expanded, err := engine.ExpandEvents(cmd.Context(), series, from.Time, to.Time)
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeExpandFailed, err)
	}

	var instances []event.Instance
	for i, s := range expanded {
		instances = append(instances, event.InstancesFromOccurrences(events[i].ID, s.Occurrences)...)
	}
	slices.SortStableFunc(instances, func(a, b event.Instance) int {
		return a.Span.Start.Compare(b.Span.Start)
	})

	result := InstanceList{Events: len(events), Instances: make([]InstanceView, 0, len(instances))}
	for _, inst := range instances {
		result.Instances = append(result.Instances, newInstanceView(inst, rt.Location))
	}
	return formatter.Success(result)
}

func newInstanceView(inst event.Instance, loc *time.Location) InstanceView {
	start, end := inst.Span.Start.In(loc).Format(time.RFC3339), inst.Span.End.In(loc).Format(time.RFC3339)
	if inst.Span.AllDay {
		start, end = inst.Span.Start.Format(time.DateOnly), inst.Span.End.Format(time.DateOnly)
	}
	return InstanceView{
		Event:    inst.ParentID.String(),
		Start:    start,
		End:      end,
		AllDay:   inst.Span.AllDay,
		Addition: inst.Addition,
	}
}
