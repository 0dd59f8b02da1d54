package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"neuroscreen/internal/models"
	"neuroscreen/internal/tasks"
	"neuroscreen/internal/tasks/interference"
	"neuroscreen/internal/tasks/memory"
	"neuroscreen/internal/tasks/reaction"
	"neuroscreen/internal/tasks/sequencing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// The arena's inner top-left corner on screen: three header lines plus the
// arena border.
const (
	arenaTop  = 4
	arenaLeft = 1
)

// arena maps the logical play area onto a grid of terminal cells.
type arena struct {
	cols, rows int
	area       reaction.Area
}

func (a arena) point(col, row int) reaction.Point {
	return reaction.Point{
		X: (float64(col) + 0.5) / float64(a.cols) * a.area.Width,
		Y: (float64(row) + 0.5) / float64(a.rows) * a.area.Height,
	}
}

func (a arena) cell(p reaction.Point) (col, row int) {
	col = clamp(int(p.X/a.area.Width*float64(a.cols)), 0, a.cols-1)
	row = clamp(int(p.Y/a.area.Height*float64(a.rows)), 0, a.rows-1)
	return col, row
}

// radius is the hit radius in area units: one terminal row.
func (a arena) radius() float64 {
	return math.Max(a.area.Width/float64(a.cols), a.area.Height/float64(a.rows))
}

// hit converts a left click into arena coordinates.
func (a arena) hit(msg tea.MouseMsg) (col, row int, ok bool) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return 0, 0, false
	}
	col, row = msg.X-arenaLeft, msg.Y-arenaTop
	if col < 0 || row < 0 || col >= a.cols || row >= a.rows {
		return 0, 0, false
	}
	return col, row, true
}

func (a arena) render(st Styles, glyphs map[[2]int]string) string {
	var b strings.Builder
	for row := 0; row < a.rows; row++ {
		for col := 0; col < a.cols; col++ {
			if g, ok := glyphs[[2]int{col, row}]; ok {
				b.WriteString(g)
				continue
			}
			b.WriteByte(' ')
		}
		if row < a.rows-1 {
			b.WriteByte('\n')
		}
	}
	return st.Arena.Render(b.String())
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// game is one mounted task as the player sees it.
type game interface {
	handle(msg tea.Msg)
	view(st Styles) string
	result() (models.TrialResult, bool)
	stop()
}

func mount[S tasks.Machine[S]](initial S, opts tasks.Options, start tasks.Event) *tasks.Runner[S] {
	r := tasks.NewRunner(initial, opts)
	r.Send(start)
	return r
}

type reactionGame struct {
	runner *tasks.Runner[reaction.State]
	arena  arena
}

func newReactionGame(opts tasks.Options, ar arena) *reactionGame {
	return &reactionGame{
		runner: mount(reaction.New().WithPadding(ar.radius()), opts, reaction.Start{Area: ar.area}),
		arena:  ar,
	}
}

func (g *reactionGame) handle(msg tea.Msg) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type != tea.KeySpace && msg.String() != " " {
			return
		}
		// Without a pointer, space counts as a tap on the target.
		if g.runner.State().Visible {
			g.runner.Send(reaction.TargetTap{})
		} else {
			g.runner.Send(reaction.BackgroundTap{})
		}
	case tea.MouseMsg:
		col, row, ok := g.arena.hit(msg)
		if !ok {
			return
		}
		if g.runner.State().Contains(g.arena.point(col, row), g.arena.radius()) {
			g.runner.Send(reaction.TargetTap{})
		} else {
			g.runner.Send(reaction.BackgroundTap{})
		}
	}
}

func (g *reactionGame) view(st Styles) string {
	s := g.runner.State()
	glyphs := map[[2]int]string{}
	if s.Visible {
		col, row := g.arena.cell(s.Target)
		glyphs[[2]int{col, row}] = st.Target.Render("◉")
	}
	status := fmt.Sprintf("Hits %d/%d   Misses %d", s.Hits, reaction.TotalTargets, s.Misses)
	return lipgloss.JoinVertical(lipgloss.Left,
		g.arena.render(st, glyphs),
		st.Bold.Render(status),
		st.Muted.Render("Click the target as fast as you can, or press space when it appears."),
	)
}

func (g *reactionGame) result() (models.TrialResult, bool) { return g.runner.Result() }
func (g *reactionGame) stop()                               { g.runner.Stop() }

type memoryGame struct {
	runner *tasks.Runner[memory.State]
}

func newMemoryGame(opts tasks.Options) *memoryGame {
	return &memoryGame{runner: mount(memory.New(), opts, memory.Start{})}
}

func (g *memoryGame) handle(msg tea.Msg) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return
	}
	n, err := strconv.Atoi(key.String())
	if err != nil || n < 1 || n > memory.GridSize {
		return
	}
	g.runner.Send(memory.Tap{Cell: n - 1})
}

func (g *memoryGame) view(st Styles) string {
	s := g.runner.State()
	rows := make([]string, 0, 3)
	for r := 0; r < 3; r++ {
		cells := make([]string, 0, 3)
		for c := 0; c < 3; c++ {
			i := r*3 + c
			label := strconv.Itoa(i + 1)
			switch {
			case s.Errored == i:
				cells = append(cells, st.CellError.Render("✕"))
			case s.Active == i:
				cells = append(cells, st.CellActive.Render("●"))
			default:
				cells = append(cells, st.Cell.Render(label))
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	hint := "Get ready..."
	switch s.Phase {
	case memory.Showing:
		hint = "Watch the sequence."
	case memory.Input:
		hint = fmt.Sprintf("Repeat it with keys 1-9 (%d/%d).", len(s.Entered), len(s.Sequence))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
		st.Bold.Render(fmt.Sprintf("Level %d/%d   Score %d", s.Level, memory.Levels, s.Score)),
		st.Muted.Render(hint),
	)
}

func (g *memoryGame) result() (models.TrialResult, bool) { return g.runner.Result() }
func (g *memoryGame) stop()                               { g.runner.Stop() }

type interferenceGame struct {
	runner *tasks.Runner[interference.State]
}

func newInterferenceGame(opts tasks.Options) *interferenceGame {
	return &interferenceGame{runner: mount(interference.New(), opts, interference.Start{})}
}

// colorKey is the key that answers with c: the first letter of its name.
func colorKey(c interference.Color) string {
	return strings.ToLower(c.Name[:1])
}

func (g *interferenceGame) handle(msg tea.Msg) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return
	}
	for _, c := range interference.Palette {
		if key.String() == colorKey(c) {
			g.runner.Send(interference.Choice{Hex: c.Hex})
			return
		}
	}
}

func (g *interferenceGame) view(st Styles) string {
	s := g.runner.State()
	stimulus := ""
	if s.Phase == interference.Active {
		word, ink := s.Stimulus()
		stimulus = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ink.Hex)).
			Padding(1, 4).
			Render(strings.ToUpper(word.Name))
	}

	legend := make([]string, 0, len(interference.Palette))
	for _, c := range interference.Palette {
		legend = append(legend, fmt.Sprintf("[%s] %s",
			colorKey(c), lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex)).Render(c.Name)))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		stimulus,
		st.Bold.Render(fmt.Sprintf("Round %d/%d   Accuracy %.0f%%",
			min(s.Round+1, interference.Rounds), interference.Rounds, s.RunningAccuracy())),
		st.Muted.Render("Pick the INK colour, not the word."),
		strings.Join(legend, "   "),
	)
}

func (g *interferenceGame) result() (models.TrialResult, bool) { return g.runner.Result() }
func (g *interferenceGame) stop()                               { g.runner.Stop() }

type sequencingGame struct {
	runner *tasks.Runner[sequencing.State]
	arena  arena
}

func newSequencingGame(opts tasks.Options, ar arena) *sequencingGame {
	return &sequencingGame{runner: mount(sequencing.New(), opts, sequencing.Start{}), arena: ar}
}

// markerCell places a marker given in percent of the play area.
func (g *sequencingGame) markerCell(m sequencing.Marker) (int, int) {
	return g.arena.cell(reaction.Point{
		X: m.X / 100 * g.arena.area.Width,
		Y: m.Y / 100 * g.arena.area.Height,
	})
}

func (g *sequencingGame) handle(msg tea.Msg) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		n, err := strconv.Atoi(msg.String())
		if err != nil || n < 1 || n > sequencing.Markers {
			return
		}
		g.runner.Send(sequencing.Tap{ID: n})
	case tea.MouseMsg:
		col, row, ok := g.arena.hit(msg)
		if !ok {
			return
		}
		for _, m := range g.runner.State().Markers {
			mc, mr := g.markerCell(m)
			if abs(mc-col) <= 1 && mr == row {
				g.runner.Send(sequencing.Tap{ID: m.ID})
				return
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (g *sequencingGame) view(st Styles) string {
	s := g.runner.State()
	glyphs := map[[2]int]string{}
	for _, m := range s.Markers {
		col, row := g.markerCell(m)
		style := st.Marker
		if s.Cleared(m.ID) {
			style = st.Cleared
		}
		glyphs[[2]int{col, row}] = style.Render(strconv.Itoa(m.ID))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		g.arena.render(st, glyphs),
		st.Bold.Render(fmt.Sprintf("Next: %d", min(s.NextExpected, sequencing.Markers))),
		st.Muted.Render("Tap the numbers in order, 1 to 6, by clicking or with the number keys."),
	)
}

func (g *sequencingGame) result() (models.TrialResult, bool) { return g.runner.Result() }
func (g *sequencingGame) stop()                               { g.runner.Stop() }
