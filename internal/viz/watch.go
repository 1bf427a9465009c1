package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ringsim/internal/experiment"
	"github.com/san-kum/ringsim/internal/kernel"
)

const (
	canvasWidth     = 40
	canvasHeight    = 12
	historyCapacity = 600
	maxSpinsPerTick = 64
)

type TickMsg time.Time

// Watch spins an experiment on a timer and shows the energy flowing
// between its rings.
type Watch struct {
	exp      *experiment.Experiment
	fps      int
	speed    int
	running  bool
	showHelp bool

	last    kernel.SpinResult
	spins   int
	err     error
	history map[string][]float64
	drift   []float64
	maxPos  float64
	canvas  *Canvas
}

func NewWatch(exp *experiment.Experiment, fps int) Watch {
	if fps <= 0 {
		fps = 30
	}
	return Watch{
		exp:     exp,
		fps:     fps,
		speed:   1,
		running: true,
		history: make(map[string][]float64),
		canvas:  NewCanvas(canvasWidth, canvasHeight),
	}
}

func (w Watch) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(w.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (w Watch) Init() tea.Cmd {
	return w.tick()
}

func (w Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return w, tea.Quit
		case " ", "space":
			w.running = !w.running
		case "r":
			w.reset()
		case "+", "=":
			w.speed = min(w.speed*2, maxSpinsPerTick)
		case "-", "_":
			w.speed = max(w.speed/2, 1)
		case "?":
			w.showHelp = !w.showHelp
		}
	case TickMsg:
		if w.running && w.err == nil && !w.done() {
			w.advance()
		}
		return w, w.tick()
	}
	return w, nil
}

func (w Watch) done() bool {
	return w.spins >= w.exp.Scenario().Steps
}

func (w *Watch) advance() {
	for i := 0; i < w.speed && !w.done(); i++ {
		res, err := w.exp.Step()
		if err != nil {
			w.err = err
			return
		}
		w.last = res
		w.spins++
		w.record(res)
	}
}

func (w *Watch) record(res kernel.SpinResult) {
	for _, r := range res.State.Rings {
		w.history[r.ID] = appendCapped(w.history[r.ID], r.Energy.Total)
		if p, ok := r.State["position"]; ok {
			w.maxPos = math.Max(w.maxPos, math.Abs(p))
		}
	}
	w.drift = appendCapped(w.drift, res.EnergyDrift)
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[len(s)-historyCapacity:]
	}
	return s
}

func (w *Watch) reset() {
	w.exp.Reset()
	w.spins = 0
	w.err = nil
	w.last = kernel.SpinResult{}
	w.history = make(map[string][]float64)
	w.drift = nil
	w.maxPos = 0
}

func (w Watch) View() string {
	sc := w.exp.Scenario()

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(sc.Name)) + "\n")
	switch {
	case w.err != nil:
		s.WriteString(StatusFail.Render("FAULTED: "+w.err.Error()) + "\n")
	case w.done():
		s.WriteString(StatusOK.Render("DONE") + "\n")
	case !w.running:
		s.WriteString(StatusWarn.Render("PAUSED") + "\n")
	default:
		s.WriteString(StatusOK.Render(fmt.Sprintf("RUNNING x%d", w.speed)) + "\n")
	}
	s.WriteString(ProgressBar(w.spins, sc.Steps, 30) + "\n\n")

	s.WriteString(MetricLabel.Render("time") + MetricValue.Render(fmt.Sprintf("%.2fs", w.last.Time)) + "\n")
	s.WriteString(MetricLabel.Render("total energy") + MetricValue.Render(fmt.Sprintf("%.6f J", w.last.EnergyAfter)) + "\n")
	s.WriteString(MetricLabel.Render("drift") + MetricValue.Render(fmt.Sprintf("%.2e", w.last.EnergyDrift)) + "\n")
	s.WriteString(MetricLabel.Render("entropy") + MetricValue.Render(fmt.Sprintf("%.4g", w.last.State.Entropy.Irreversible)) + "\n")
	if w.spins > 0 {
		s.WriteString(MetricLabel.Render("status") + Conservation(w.last.Conserved) + "\n")
	}
	s.WriteString(MetricLabel.Render("drift trend") + SparkMid.Render(Sparkline(w.drift, 24)) + "\n\n")

	if w.spins > 1 {
		ids := w.exp.Kernel().Rings()
		series := make([][]float64, 0, len(ids))
		for _, id := range ids {
			series = append(series, w.history[id])
		}
		s.WriteString(asciigraph.PlotMany(series,
			asciigraph.Height(6),
			asciigraph.Width(40),
			asciigraph.SeriesColors(seriesColors[:min(len(ids), len(seriesColors))]...),
			asciigraph.Caption("ring energy"),
		) + "\n\n")
		s.WriteString(RingTable(w.last.State))
	}

	s.WriteString(KeyHint.Render("\nSPC:Pause R:Reset +/-:Speed ?:Help Q:Quit"))

	stats := Panel.Render(s.String())
	view := lipgloss.JoinHorizontal(lipgloss.Top, Panel.Render(w.drawRings()), stats)
	if w.showHelp {
		help := Panel.Render(strings.Join([]string{
			Title.Render("keys"),
			"space  pause or resume",
			"r      reset the kernel",
			"+ / -  double or halve spins per frame",
			"?      toggle this help",
			"q      quit",
		}, "\n"))
		return help + "\n" + view
	}
	return view
}

// drawRings places every ring with a position on its own lane.
func (w Watch) drawRings() string {
	w.canvas.Clear()
	var pos []float64
	for _, r := range w.last.State.Rings {
		if p, ok := r.State["position"]; ok {
			pos = append(pos, p)
		}
	}
	w.canvas.Lanes(pos, w.maxPos)
	return w.canvas.String()
}
