// Package tui is the interactive terminal front end: a PRD editor next to
// the live review result.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/prdreview/internal/domain/submission"
	"github.com/felixgeelhaar/prdreview/internal/infrastructure/render"
	"github.com/felixgeelhaar/prdreview/pkg/domain/presentation"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
)

const flashDuration = 2 * time.Second

// Session is the part of submission.Session the model drives.
type Session interface {
	Submit(req review.ReviewRequest) (submission.Snapshot, error)
	Reset() submission.Snapshot
	Snapshot() submission.Snapshot
	Subscribe(fn func(submission.Snapshot)) func()
}

// HealthChecker probes the API.
type HealthChecker interface {
	CheckHealth(ctx context.Context) bool
}

// Options configure the model.
type Options struct {
	Session        Session
	Health         HealthChecker
	Renderer       *render.Renderer
	HealthInterval time.Duration
	// Initial is the editor content. Empty loads the sample PRD.
	Initial string
	// Request turns editor text into a request; nil uses review.NewRequest.
	Request func(markdown string) review.ReviewRequest
	// ExportDir is where ctrl+d writes the JSON file.
	ExportDir string
	// Clipboard overrides the system clipboard.
	Clipboard func(string) error
}

type focus int

const (
	focusEditor focus = iota
	focusResults
)

type (
	changedMsg    struct{}
	healthMsg     bool
	healthTickMsg struct{}
	flashDoneMsg  struct{ seq int }
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)
	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
	focusedPaneStyle = paneStyle.BorderForeground(lipgloss.Color("205"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	flashStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// Model is the bubbletea model.
type Model struct {
	session   Session
	health    HealthChecker
	renderer  *render.Renderer
	interval  time.Duration
	request   func(string) review.ReviewRequest
	exportDir string
	clipboard func(string) error

	editor   textarea.Model
	spinner  spinner.Model
	viewport viewport.Model

	changed     chan struct{}
	unsubscribe func()

	snap        submission.Snapshot
	online      bool
	healthKnown bool
	focus       focus
	flash       string
	flashSeq    int
	width       int
	height      int
}

// New builds the model and subscribes it to the session.
func New(opts Options) *Model {
	ta := textarea.New()
	ta.Placeholder = "Paste your PRD markdown here..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	initial := opts.Initial
	if initial == "" {
		initial = review.Sample()
	}
	ta.SetValue(initial)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.New(presentation.Tags{})
	}
	interval := opts.HealthInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	request := opts.Request
	if request == nil {
		request = review.NewRequest
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.WriteAll
	}

	m := &Model{
		session:   opts.Session,
		health:    opts.Health,
		renderer:  renderer,
		interval:  interval,
		request:   request,
		exportDir: opts.ExportDir,
		clipboard: clip,
		editor:    ta,
		spinner:   sp,
		viewport:  viewport.New(60, 20),
		changed:   make(chan struct{}, 1),
		snap:      opts.Session.Snapshot(),
	}
	m.unsubscribe = opts.Session.Subscribe(func(submission.Snapshot) {
		select {
		case m.changed <- struct{}{}:
		default:
		}
	})
	m.refreshResults()
	return m
}

// Close detaches the model from the session.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.checkHealth(), m.waitForChange())
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.changed
		return changedMsg{}
	}
}

func (m *Model) checkHealth() tea.Cmd {
	if m.health == nil {
		return nil
	}
	return func() tea.Msg {
		return healthMsg(m.health.CheckHealth(context.Background()))
	}
}

func (m *Model) scheduleHealth() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return healthTickMsg{} })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+s":
			return m, m.analyze()
		case "ctrl+r":
			m.snap = m.session.Reset()
			m.refreshResults()
			return m, nil
		case "ctrl+l":
			m.editor.SetValue(review.Sample())
			return m, nil
		case "ctrl+y":
			return m, m.copyResult()
		case "ctrl+d":
			return m, m.download()
		case "tab":
			m.toggleFocus()
			return m, nil
		}

	case changedMsg:
		m.snap = m.session.Snapshot()
		m.refreshResults()
		cmds = append(cmds, m.waitForChange())

	case healthMsg:
		m.online = bool(msg)
		m.healthKnown = true
		cmds = append(cmds, m.scheduleHealth())

	case healthTickMsg:
		cmds = append(cmds, m.checkHealth())

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.snap.Analyzing {
			m.refreshResults()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	if m.focus == focusEditor {
		m.editor, cmd = m.editor.Update(msg)
	} else {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// CanAnalyze mirrors the analyze button: disabled while pending or when the
// editor is blank.
func (m *Model) CanAnalyze() bool {
	return !m.snap.Analyzing && strings.TrimSpace(m.editor.Value()) != ""
}

func (m *Model) analyze() tea.Cmd {
	if !m.CanAnalyze() {
		return nil
	}
	snap, err := m.session.Submit(m.request(m.editor.Value()))
	if err != nil {
		return m.setFlash(err.Error())
	}
	m.snap = snap
	m.focus = focusResults
	m.editor.Blur()
	m.refreshResults()
	return nil
}

func (m *Model) exportable() (string, error) {
	if m.snap.Result == nil {
		return "", errors.New("no result yet")
	}
	return presentation.Export(m.snap.Result)
}

func (m *Model) copyResult() tea.Cmd {
	out, err := m.exportable()
	if err != nil {
		return nil
	}
	if err := m.clipboard(out); err != nil {
		return m.setFlash("copy failed: " + err.Error())
	}
	return m.setFlash("Copied")
}

func (m *Model) download() tea.Cmd {
	out, err := m.exportable()
	if err != nil {
		return nil
	}
	path := filepath.Join(m.exportDir, presentation.ExportFilename)
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return m.setFlash("save failed: " + err.Error())
	}
	return m.setFlash("Saved " + path)
}

func (m *Model) setFlash(text string) tea.Cmd {
	m.flashSeq++
	m.flash = text
	seq := m.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })
}

func (m *Model) toggleFocus() {
	if m.focus == focusEditor {
		m.focus = focusResults
		m.editor.Blur()
		return
	}
	m.focus = focusEditor
	m.editor.Focus()
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	paneW := w/2 - 2
	paneH := h - 5
	if paneW < 20 {
		paneW = 20
	}
	if paneH < 5 {
		paneH = 5
	}
	m.editor.SetWidth(paneW)
	m.editor.SetHeight(paneH)
	m.viewport.Width = paneW
	m.viewport.Height = paneH
	m.refreshResults()
}

func (m *Model) refreshResults() {
	var content string
	if m.snap.Analyzing {
		content = m.spinner.View() + " " + m.renderer.Analyzing(m.snap)
	} else {
		content = m.renderer.Snapshot(m.snap)
	}
	m.viewport.SetContent(content)
}

func (m *Model) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("PRD Review"),
		" ",
		m.healthView(),
		helpStyle.Render(fmt.Sprintf("  %d chars", utf8.RuneCountInString(m.editor.Value()))),
	)

	editorPane, resultPane := paneStyle, paneStyle
	if m.focus == focusEditor {
		editorPane = focusedPaneStyle
	} else {
		resultPane = focusedPaneStyle
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		editorPane.Render(m.editor.View()),
		resultPane.Render(m.viewport.View()),
	)

	analyze := "[ctrl+s] Analyze"
	switch {
	case m.snap.Analyzing:
		analyze = "Analyzing..."
	case !m.CanAnalyze():
		analyze = "[ctrl+s] Analyze (enter a PRD)"
	}
	help := helpStyle.Render(analyze + "  [ctrl+l] Sample  [ctrl+r] Reset  [ctrl+y] Copy  [ctrl+d] JSON  [tab] Focus  [esc] Quit")
	if m.flash != "" {
		help += "  " + flashStyle.Render(m.flash)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, help) + "\n"
}

func (m *Model) healthView() string {
	if !m.healthKnown {
		return helpStyle.Render("● checking API")
	}
	return render.Health(m.online)
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(opts Options) error {
	m := New(opts)
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui run failed: %w", err)
	}
	return nil
}
