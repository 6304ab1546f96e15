package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/felixbrock/okrs/internal/app"
	"github.com/felixbrock/okrs/internal/domain"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

const barWidth = 20

func bar(percentage int) string {
	filled := percentage * barWidth / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}

func colorFor(percentage int) func(a ...interface{}) string {
	switch {
	case percentage >= 100:
		return green
	case percentage >= 50:
		return cyan
	default:
		return yellow
	}
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func printObjectives(w io.Writer, views []app.ObjectiveView) {
	if len(views) == 0 {
		fmt.Fprintln(w, gray("No objectives yet."))
		return
	}

	for _, o := range views {
		paint := colorFor(o.Percentage)
		fmt.Fprintf(w, "%s %s %s %s\n", bold(o.Title), gray("("+o.Id+")"), paint(bar(o.Percentage)), paint(fmt.Sprintf("%d%%", o.Percentage)))
		if len(o.KeyResults) == 0 {
			fmt.Fprintf(w, "   %s\n", gray("no key results"))
		}
		for _, kr := range o.KeyResults {
			mark := " "
			if kr.Completed {
				mark = green("✓")
			}
			fmt.Fprintf(w, "   %s %s %s %s/%s %s %s\n",
				mark,
				kr.Description,
				gray("("+kr.Id+")"),
				number(kr.Current),
				number(kr.Target),
				kr.Metric,
				colorFor(kr.Percentage)(fmt.Sprintf("%d%%", kr.Percentage)))
		}
	}
}

func printDraft(w io.Writer, d *app.Draft) {
	fmt.Fprintf(w, "%s %s\n", bold("Objective:"), d.Title)
	for i, kr := range d.KeyResults {
		fmt.Fprintf(w, "   %d. %s %s/%s %s\n", i+1, kr.Description, number(kr.Current), number(kr.Target), kr.Metric)
	}
}

func success(msg string) string {
	return green(msg)
}

func failure(err error) string {
	var validationErr *domain.ValidationError
	var partialErr *app.PartialCommitError

	switch {
	case errors.As(err, &validationErr):
		return red("invalid input: " + validationErr.Msg)
	case errors.As(err, &partialErr):
		return red(fmt.Sprintf("only part of the draft was saved: objective %s exists with %d of %d key results; fix the failing entry and add it with add-kr (%v)",
			partialErr.ObjectiveId, partialErr.Created, partialErr.Total, partialErr.Err))
	case domain.IsNotFound(err):
		return red("not found: " + err.Error())
	case errors.Is(err, domain.ErrTransport):
		return red("could not reach the OKR service: " + err.Error())
	default:
		return red(err.Error())
	}
}
