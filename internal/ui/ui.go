package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wpx/internal/tasks"
)

const (
	progressBuffer = 256
	recentFailures = 5
	barWidth       = 40
)

// Runner executes a migration run, sending updates on progress. It must not close progress.
type Runner func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunReport, error)

type kindState struct {
	bar           progress.Model
	status        string
	total, done   int
	submitted     int
	failed        int
	assetFailures int
	fetchErr      error
	finished      bool
}

func (s *kindState) percent() float64 {
	if s.total == 0 {
		if s.finished {
			return 1
		}
		return 0
	}
	return float64(s.done) / float64(s.total)
}

// fromReport replaces the counters derived from individual updates, some of which may have been dropped.
func (s *kindState) fromReport(r *tasks.KindReport) {
	s.total, s.done = r.Total, r.Total
	s.submitted, s.failed, s.assetFailures = r.Submitted, r.Failed, r.AssetFailures
	if err := r.FetchErr(); err != nil {
		s.fetchErr = err
	}
	s.finished = true
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	run      Runner
	once     sync.Once
	updates  chan tasks.ProgressUpdate
	finished chan struct{}
	result   runFinishedMsg

	kinds        []tasks.Kind
	state        map[tasks.Kind]*kindState
	failures     []string
	failureCount int
	showFailures bool
	done         bool
	quitting     bool

	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a model that will execute run for the given kinds once started.
func NewModel(ctx context.Context, kinds []tasks.Kind, run Runner) *Model {
	ctx, cancel := context.WithCancel(ctx)
	if len(kinds) == 0 {
		kinds = tasks.AllKinds
	}
	kinds = slices.Clone(kinds)
	slices.SortStableFunc(kinds, func(a, b tasks.Kind) int {
		return slices.Index(tasks.AllKinds, a) - slices.Index(tasks.AllKinds, b)
	})
	kinds = slices.Compact(kinds)

	m := &Model{
		ctx:          ctx,
		cancel:       cancel,
		run:          run,
		updates:      make(chan tasks.ProgressUpdate, progressBuffer),
		finished:     make(chan struct{}),
		kinds:        kinds,
		state:        make(map[tasks.Kind]*kindState, len(kinds)),
		showFailures: true,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.warn)),
		help:         help.New(),
		keys:         newKeyMap(),
	}
	for _, k := range kinds {
		m.state[k] = &kindState{bar: newBar()}
	}
	return m
}

func newBar() progress.Model {
	return progress.New(
		progress.WithGradient(styles.barStart, styles.barEnd),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
}

// Init starts the run and begins listening for its updates.
func (m *Model) Init() tea.Cmd {
	m.start()
	return tea.Batch(m.wait(), m.spinner.Tick)
}

// Wait blocks until the run returns and yields its report.
//
// The run is started if the program never called Init.
func (m *Model) Wait() (*tasks.RunReport, error) {
	m.start()
	<-m.finished
	return m.result.report, m.result.err
}

func (m *Model) start() {
	m.once.Do(func() {
		go func() {
			report, err := m.run(m.ctx, m.updates)
			m.result = runFinishedMsg{report: report, err: err}
			close(m.updates)
			close(m.finished)
		}()
	})
}

func (m *Model) wait() tea.Cmd {
	return waitForProgress(m.updates, m.finished, func() runFinishedMsg { return m.result })
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w := min(barWidth, msg.Width-40)
		if w >= 10 {
			for _, st := range m.state {
				st.bar.Width = w
			}
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			m.quitting = !m.done
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.failures):
			m.showFailures = !m.showFailures
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg:
		m.apply(tasks.ProgressUpdate(msg))
		return m, m.wait()

	case runFinishedMsg:
		m.done = true
		m.result = msg
		if msg.report != nil {
			for _, kr := range msg.report.Kinds {
				m.stateFor(kr.Kind).fromReport(kr)
			}
		}
		m.cancel()
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) stateFor(k tasks.Kind) *kindState {
	st, ok := m.state[k]
	if !ok {
		st = &kindState{bar: newBar()}
		m.state[k] = st
		m.kinds = append(m.kinds, k)
	}
	return st
}

func (m *Model) apply(u tasks.ProgressUpdate) {
	st := m.stateFor(u.Kind)
	st.status = u.Message

	switch u.Phase {
	case tasks.FetchEntities:
		if err, ok := u.Data.(error); ok {
			st.fetchErr = err
			st.finished = true
			m.pushFailure(fmt.Sprintf("%s: %v", u.Kind, err))
			return
		}
		st.total = u.Total

	case tasks.MigrateEntities:
		st.total = u.Total
		st.done = max(st.done, u.Step)
		o, ok := u.Data.(tasks.Outcome)
		if !ok {
			return
		}
		switch {
		case o.Failed():
			st.failed++
			m.pushFailure(fmt.Sprintf("%s %d (%s): %s", u.Kind, o.SourceID, o.Label, o.Error))
		case o.State == tasks.StateSubmitted:
			st.submitted++
		}
		if o.AssetError != "" {
			st.assetFailures++
		}

	case tasks.KindFinished:
		if r, ok := u.Data.(*tasks.KindReport); ok {
			st.fromReport(r)
		}
		st.finished = true
	}
}

func (m *Model) pushFailure(line string) {
	m.failureCount++
	m.failures = append(m.failures, line)
	if len(m.failures) > recentFailures {
		m.failures = m.failures[len(m.failures)-recentFailures:]
	}
}

// View renders the bars, counters and recent failures.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTitle())
	b.WriteString("\n")

	for _, k := range m.kinds {
		b.WriteString(m.renderKind(k, m.state[k]))
		b.WriteString("\n")
	}

	if m.showFailures && len(m.failures) > 0 {
		fmt.Fprintf(&b, "\n%s\n", styles.warn.Render(fmt.Sprintf("Recent failures (%d total):", m.failureCount)))
		for _, f := range m.failures {
			fmt.Fprintf(&b, "  %s\n", styles.err.Render("✗ "+f))
		}
	}

	if m.done && m.result.report != nil {
		r := m.result.report
		total, submitted, failed, assetFailures := r.Totals()
		fmt.Fprintf(&b, "\nRun %s: %d total, %d submitted, %d failed, %d asset failures in %s\n",
			r.ID, total, submitted, failed, assetFailures, r.Duration().Round(time.Millisecond))
	}

	fmt.Fprintf(&b, "\n%s", m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) renderTitle() string {
	switch {
	case m.done && m.result.err != nil:
		return styles.err.Render(fmt.Sprintf("Migration finished with errors: %v", m.result.err))
	case m.done:
		return styles.ok.Render("✓ Migration finished")
	case m.quitting:
		return styles.warn.Render("Stopping...")
	default:
		return styles.title.Render(m.spinner.View() + " Migrating WordPress content")
	}
}

func (m *Model) renderKind(k tasks.Kind, st *kindState) string {
	name := styles.kind.Render(string(k))
	if st.fetchErr != nil {
		return fmt.Sprintf("%s %s", name, styles.err.Render("fetch failed: "+st.fetchErr.Error()))
	}

	line := fmt.Sprintf("%s %s %d/%d  %s %s %s",
		name,
		st.bar.ViewAs(st.percent()),
		st.done, st.total,
		styles.ok.Render(fmt.Sprintf("✓ %d", st.submitted)),
		styles.err.Render(fmt.Sprintf("✗ %d", st.failed)),
		styles.warn.Render(fmt.Sprintf("⚠ %d", st.assetFailures)),
	)
	if !st.finished && st.done == 0 && st.status != "" {
		line += "  " + styles.help.Render(st.status)
	}
	return line
}
