package tui

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"neuroscreen/internal/config"
	"neuroscreen/internal/models"
	"neuroscreen/internal/report"
	"neuroscreen/internal/scoring"
	"neuroscreen/internal/session"
	"neuroscreen/internal/tasks"
	"neuroscreen/internal/tasks/reaction"
	"neuroscreen/internal/timing"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

const (
	arenaCols = 48
	arenaRows = 16
)

// Options configures the player.
type Options struct {
	Log        *zap.Logger
	Assessment *models.Assessment
	Play       config.PlayConfig
	ReportDir  string
	// Clock and Rand default to the wall clock and a time-seeded generator.
	Clock timing.Clock
	Rand  *rand.Rand
}

type (
	// signalMsg means a running task changed state.
	signalMsg   struct{}
	analyzeMsg  struct{}
	reportSaved struct {
		path string
		err  error
	}
)

// Model is the bubbletea model for one assessment run.
type Model struct {
	opts     Options
	log      *zap.Logger
	sess     *session.Session
	game     game
	signal   chan struct{}
	arena    arena
	styles   Styles
	progress progress.Model
	spinner  spinner.Model
	status   string
	err      error
}

func New(opts Options) Model {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = timing.System
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(Accent)
	return Model{
		opts:     opts,
		log:      opts.Log,
		sess:     session.New(opts.Assessment),
		signal:   make(chan struct{}, 1),
		arena:    arena{cols: arenaCols, rows: arenaRows, area: reaction.Area{Width: opts.Play.AreaWidth, Height: opts.Play.AreaHeight}},
		styles:   DefaultStyles(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner:  sp,
	}
}

// Session exposes the session being played.
func (m Model) Session() *session.Session { return m.sess }

func (m Model) Init() tea.Cmd {
	return waitForSignal(m.signal)
}

func waitForSignal(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return signalMsg{}
	}
}

// notify wakes the event loop. A pending wake-up already covers this change.
func (m Model) notify() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

func (m Model) taskOptions() tasks.Options {
	return tasks.Options{
		Clock:      m.opts.Clock,
		Rand:       m.opts.Rand,
		Log:        m.log,
		OnChange:   m.notify,
		OnComplete: func(models.TrialResult) { m.notify() },
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = clamp(msg.Width-4, 10, 60)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.game != nil {
			m.game.handle(msg)
		}
		return m, nil

	case signalMsg:
		cmd := m.collect()
		return m, tea.Batch(waitForSignal(m.signal), cmd)

	case analyzeMsg:
		m.analyze()
		return m, nil

	case spinner.TickMsg:
		if m.sess.Stage != session.StageAnalysis {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case reportSaved:
		if msg.err != nil {
			m.log.Error("Failed to save report", zap.Error(msg.err))
			m.status = m.styles.Error.Render("Could not save report: " + msg.err.Error())
		} else {
			m.log.Info("Report saved", zap.String("path", msg.path))
			m.status = m.styles.Good.Render("Report saved to " + msg.path)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.sess.Stage {
	case session.StageOnboarding:
		if msg.Type == tea.KeyEnter || msg.String() == " " {
			if err := m.sess.Begin(); err != nil {
				m.log.Warn("Begin rejected", zap.Error(err))
				return m, nil
			}
			m.err = nil
			return m, m.enterStage()
		}
		if msg.String() == "q" {
			return m.quit()
		}

	case session.StageQuestionnaire:
		q, ok := m.sess.CurrentQuestion()
		if !ok {
			return m, nil
		}
		n, err := strconv.Atoi(msg.String())
		if err != nil || n < 1 || n > len(q.Options) {
			return m, nil
		}
		if err := m.sess.Answer(q.ID, q.Options[n-1].Value); err != nil {
			m.log.Warn("Answer rejected", zap.String("question", q.ID), zap.Error(err))
			return m, nil
		}
		return m, m.enterStage()

	case session.StageResults:
		switch msg.String() {
		case "s":
			return m, m.saveReport()
		case "n":
			m.sess.Reset()
			m.status = ""
			return m, nil
		case "q":
			return m.quit()
		}

	default:
		if m.game != nil {
			m.game.handle(msg)
		}
	}
	return m, nil
}

// enterStage mounts whatever the current stage needs.
func (m *Model) enterStage() tea.Cmd {
	if m.game != nil {
		return nil
	}
	task, ok := m.sess.Stage.Task()
	if ok {
		opts := m.taskOptions()
		switch task {
		case models.TaskReaction:
			m.game = newReactionGame(opts, m.arena)
		case models.TaskMemory:
			m.game = newMemoryGame(opts)
		case models.TaskInterference:
			m.game = newInterferenceGame(opts)
		case models.TaskSequencing:
			m.game = newSequencingGame(opts, m.arena)
		}
		m.log.Debug("Task mounted", zap.String("task", string(task)))
		return nil
	}
	if m.sess.Stage == session.StageAnalysis {
		return tea.Batch(m.spinner.Tick, tea.Tick(m.opts.Play.AnalysisDelay, func(time.Time) tea.Msg {
			return analyzeMsg{}
		}))
	}
	return nil
}

// collect records the running task's result once it has one.
func (m *Model) collect() tea.Cmd {
	if m.game == nil {
		return nil
	}
	result, ok := m.game.result()
	if !ok {
		return nil
	}
	m.game.stop()
	m.game = nil

	if err := m.sess.Record(result); err != nil {
		m.log.Error("Failed to record task result", zap.Error(err))
		m.err = err
		return nil
	}
	m.log.Info("Task completed", zap.String("task", string(result.Task())), zap.Any("result", result))
	return m.enterStage()
}

func (m *Model) analyze() {
	if m.sess.Stage != session.StageAnalysis {
		return
	}
	outcome, err := m.sess.Analyze(scoring.Analyze)
	if err != nil {
		// The session has been reset; start over from onboarding.
		m.log.Error("Analysis failed", zap.Error(err))
		m.err = err
		return
	}
	m.log.Info("Assessment scored", zap.Int("healthScore", outcome.HealthScore))
}

func (m Model) saveReport() tea.Cmd {
	if m.sess.Outcome == nil {
		return nil
	}
	doc := report.Document{
		ReportID: report.NewReportID(),
		Date:     m.opts.Clock.Now(),
		Record:   m.sess.Data.Clone(),
		Outcome:  *m.sess.Outcome,
	}
	dir := m.opts.ReportDir
	return func() tea.Msg {
		path, err := report.Save(dir, doc)
		return reportSaved{path: path, err: err}
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.game != nil {
		m.game.stop()
		m.game = nil
	}
	return m, tea.Quit
}

func (m Model) View() string {
	header := m.header()
	var body string
	switch stage := m.sess.Stage; stage {
	case session.StageOnboarding:
		body = m.onboardingView()
	case session.StageQuestionnaire:
		body = m.questionView()
	case session.StageAnalysis:
		body = m.spinner.View() + " Analyzing your results..."
	case session.StageResults:
		body = m.resultsView()
	default:
		if m.game != nil {
			body = m.game.view(m.styles)
		}
	}
	return header + "\n" + body + "\n"
}

// header is always three lines so the arena sits at a fixed offset.
func (m Model) header() string {
	title := m.styles.Title.Render("NeuroScreen")
	if t := m.sess.Stage.Title(); t != "" {
		title += "  " + m.styles.Subtitle.Render(t)
	}
	return title + "\n" + m.progress.ViewAs(m.sess.Fraction()) + "\n"
}

func (m Model) onboardingView() string {
	lines := []string{
		m.styles.Bold.Render("A five-part cognitive screening."),
		"You will answer a short questionnaire, then play four timed tasks:",
		"reaction, pattern recall, colour interference and number sequencing.",
		"",
		m.styles.Muted.Render("This is a screening tool, not a diagnosis."),
		"",
		"Press enter to begin, q to quit.",
	}
	if m.err != nil {
		lines = append(lines, "", m.styles.Error.Render("The previous run could not be scored and was reset."))
	}
	return strings.Join(lines, "\n")
}

func (m Model) questionView() string {
	q, ok := m.sess.CurrentQuestion()
	if !ok {
		return ""
	}
	total := len(m.sess.Assessment().Questions)
	lines := []string{
		m.styles.Muted.Render(fmt.Sprintf("Question %d of %d", m.sess.QuestionIndex+1, total)),
		m.styles.Bold.Render(q.Text),
		"",
	}
	for i, o := range q.Options {
		lines = append(lines, fmt.Sprintf("  [%d] %s", i+1, o.Label))
	}
	return strings.Join(lines, "\n")
}

func (m Model) resultsView() string {
	out := m.sess.Outcome
	if out == nil {
		return ""
	}
	lines := []string{
		m.styles.Score.Render(fmt.Sprintf("Health Index %d / 100", out.HealthScore)),
		"",
		out.Summary,
		"",
		m.styles.Bold.Render("Key findings"),
	}
	if len(out.RiskIndicators) == 0 {
		lines = append(lines, m.styles.Good.Render("  • No significant risk indicators detected."))
	}
	for _, r := range out.RiskIndicators {
		lines = append(lines, m.styles.Risk.Render("  • "+r))
	}
	lines = append(lines, "", m.styles.Bold.Render("Recommendations"))
	for _, r := range out.Recommendations {
		lines = append(lines, "  • "+r)
	}
	lines = append(lines, "", m.styles.Bold.Render("Measurements"))
	for _, h := range report.Headlines(m.sess.Data) {
		lines = append(lines, "  "+h)
	}
	lines = append(lines, "", m.styles.Muted.Render("[s] save PDF report   [n] new test   [q] quit"))
	if m.status != "" {
		lines = append(lines, m.status)
	}
	return strings.Join(lines, "\n")
}

// Run plays one assessment in the terminal until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if m, ok := final.(Model); ok && m.game != nil {
		m.game.stop()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
