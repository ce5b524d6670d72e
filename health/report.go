package health

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const ruleWidth = 60

// ReportResponse is the JSON form of a Report.
type ReportResponse struct {
	Target    string          `json:"target"`
	Status    string          `json:"status"`
	Passed    int             `json:"passed"`
	Total     int             `json:"total"`
	Duration  string          `json:"duration"`
	Timestamp string          `json:"timestamp"`
	Checks    []CheckResponse `json:"checks"`
}

// CheckResponse is the JSON form of a single Outcome.
type CheckResponse struct {
	Check    string `json:"check"`
	Status   string `json:"status"`
	Kind     string `json:"kind,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Duration string `json:"duration,omitempty"`
	Payload  string `json:"payload,omitempty"`
	Error    string `json:"error,omitempty"`
}

func statusWord(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

// Render writes the human-readable report: one line per outcome, a
// passed/total summary and the verdict.
//
// Colors are only emitted when w is a terminal.
func Render(w io.Writer, r Report) error {
	renderer := lipgloss.NewRenderer(w)
	passStyle := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failStyle := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	dimStyle := renderer.NewStyle().Faint(true)

	mark := func(ok bool) string {
		if ok {
			return passStyle.Render(statusWord(true))
		}
		return failStyle.Render(statusWord(false))
	}

	var b strings.Builder
	rule := strings.Repeat("=", ruleWidth)

	fmt.Fprintf(&b, "Smoke test against %s\n", r.Target)
	b.WriteString(rule + "\n")
	for _, o := range r.Outcomes {
		fmt.Fprintf(&b, "%s  %-18s %s", mark(o.Success), o.Check.Title(), o.Detail)
		if o.Duration > 0 {
			b.WriteString(" " + dimStyle.Render("("+o.Duration.Round(time.Millisecond).String()+")"))
		}
		b.WriteString("\n")
	}
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Overall: %d/%d checks passed\n", r.Passed(), len(r.Outcomes))

	if r.Overall {
		fmt.Fprintf(&b, "%s  service is healthy and ready for use\n", mark(true))
	} else {
		fmt.Fprintf(&b, "%s  service has critical issues (%s check failed)\n", mark(false), GateCheck)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderJSON writes the report as a single JSON document.
func RenderJSON(w io.Writer, r Report) error {
	response := ReportResponse{
		Target:    r.Target,
		Status:    strings.ToLower(statusWord(r.Overall)),
		Passed:    r.Passed(),
		Total:     len(r.Outcomes),
		Duration:  r.Duration.String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make([]CheckResponse, 0, len(r.Outcomes)),
	}

	for _, o := range r.Outcomes {
		check := CheckResponse{
			Check:    o.Check.String(),
			Status:   strings.ToLower(statusWord(o.Success)),
			Detail:   o.Detail,
			Duration: o.Duration.String(),
			Payload:  string(o.Payload),
		}
		if !o.Success {
			check.Kind = o.Kind.String()
		}
		if o.Err != nil {
			check.Error = o.Err.Error()
		}
		response.Checks = append(response.Checks, check)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(response)
}
