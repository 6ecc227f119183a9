// Package render draws reviews and session snapshots for the terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/prdreview/internal/domain/submission"
	"github.com/felixgeelhaar/prdreview/pkg/domain/presentation"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
)

const (
	IdleTitle      = "Ready to analyze"
	IdleHint       = "Paste or load a PRD, then run the analysis."
	AnalyzingTitle = "Analyzing PRD..."
	FailureTitle   = "Analysis Failed"

	barWidth = 10
)

// Renderer turns domain values into terminal text.
type Renderer struct {
	Tags presentation.Tags
	// Expand shows the items of every section, not only the open ones.
	Expand bool
	Now    func() time.Time
}

// New returns a renderer that expands every section.
func New(tags presentation.Tags) *Renderer {
	return &Renderer{Tags: tags, Expand: true, Now: time.Now}
}

// Snapshot renders whatever the session currently holds.
func (r *Renderer) Snapshot(snap submission.Snapshot) string {
	switch snap.Status {
	case submission.StatusPending:
		return r.Analyzing(snap)
	case submission.StatusSuccess:
		if snap.Result != nil {
			return r.Report(snap.Result)
		}
	case submission.StatusFailure:
		if snap.Failure != nil {
			return r.Failure(*snap.Failure)
		}
	}
	return r.Idle()
}

// Idle is the placeholder shown before any submission.
func (r *Renderer) Idle() string {
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		sectionTitleStyle.Render(IdleTitle),
		mutedStyle.Render(IdleHint),
	))
}

// Analyzing is the placeholder shown while a review is pending.
func (r *Renderer) Analyzing(snap submission.Snapshot) string {
	lines := []string{sectionTitleStyle.Render(AnalyzingTitle)}
	if !snap.SubmittedAt.IsZero() {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("elapsed %s", snap.Elapsed(r.now()).Round(time.Second))))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Failure renders the failure card. The HTTP status is shown only when the
// server answered.
func (r *Renderer) Failure(f submission.Failure) string {
	lines := []string{errorStyle.Render(FailureTitle)}
	if f.Status > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("HTTP %d", f.Status)))
	}
	lines = append(lines, f.Message)
	return failureCardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Report renders a full review: header, summary, rubric and sections.
func (r *Renderer) Report(res *review.ReviewResponse) string {
	blocks := []string{
		r.header(res),
		res.Summary,
	}
	if rubric := r.Rubric(res); rubric != "" {
		blocks = append(blocks, sectionTitleStyle.Render("Scoring Rubric"), rubric)
	}
	for _, s := range presentation.Sections(res) {
		blocks = append(blocks, r.section(s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func (r *Renderer) header(res *review.ReviewResponse) string {
	h := r.Tags.HeaderFor(res)

	score := ToneStyle(h.ScoreBand.Tone()).Bold(true).
		Render(fmt.Sprintf("%d/100", h.Score))
	top := []string{
		titleStyle.Render("PRD Review"),
		" ",
		score,
		mutedStyle.Render(fmt.Sprintf(" (%s)", h.ScoreBand)),
		mutedStyle.Render(fmt.Sprintf("  confidence %d%%", h.Confidence)),
	}
	lines := []string{lipgloss.JoinHorizontal(lipgloss.Center, top...)}

	var chips []string
	if h.HasReady {
		chips = append(chips, chip(h.Readiness))
	}
	for _, tag := range h.Impact {
		chips = append(chips, chip(tag))
	}
	if len(chips) > 0 {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, chips...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Rubric renders the scoring rubric as a static table. It returns "" when the
// rubric is empty.
func (r *Renderer) Rubric(res *review.ReviewResponse) string {
	rows := presentation.Rows(res)
	if len(rows) == 0 {
		return ""
	}

	columns := []table.Column{
		{Title: "Criterion", Width: 24},
		{Title: "Score", Width: 9},
		{Title: "Fit", Width: barWidth + 2},
		{Title: "Band", Width: 9},
		{Title: "Notes", Width: 40},
	}

	tableRows := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		score := presentation.FormatNumber(row.Item.Score) + "/" + presentation.FormatNumber(row.Item.Weight)
		if row.Deficient {
			score += " !"
		}
		tableRows = append(tableRows, table.Row{
			row.Item.Criterion,
			score,
			Bar(row.Ratio, barWidth),
			string(row.Band),
			row.Item.Notes,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithHeight(len(tableRows)+3),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Bold(true)
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)

	return t.View()
}

// Bar draws ratio as a fixed-width bar. Ratios outside [0,1] are clamped.
func Bar(ratio float64, width int) string {
	if width <= 0 {
		return ""
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (r *Renderer) section(s presentation.Section) string {
	marker := "▸"
	expanded := r.Expand || s.Open
	if expanded {
		marker = "▾"
	}
	title := sectionTitleStyle.Render(fmt.Sprintf("%s %s (%d)", marker, s.Title, s.Count()))
	if !expanded {
		return title
	}

	lines := []string{title}
	for _, item := range s.Items {
		lines = append(lines, "  • "+item.Title)
		for _, d := range item.Detail {
			lines = append(lines, mutedStyle.Render("    "+d))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Health renders the API status indicator.
func Health(ok bool) string {
	if ok {
		return ToneStyle(presentation.ToneGood).Render("● API online")
	}
	return ToneStyle(presentation.ToneBad).Render("● API offline")
}

func (r *Renderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
