package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/ringsim/internal/kernel"
)

// RenderSummary shows the outcome of a run: conservation status, metrics
// and a per-ring table of the final state.
func RenderSummary(name string, spins []kernel.SpinResult, metrics map[string]float64) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(strings.ToUpper(name)) + "\n\n")

	conserved := true
	for _, s := range spins {
		conserved = conserved && s.Conserved
	}
	b.WriteString(MetricLabel.Render("spins") + MetricValue.Render(fmt.Sprintf("%d", len(spins))) + "\n")
	b.WriteString(MetricLabel.Render("status") + Conservation(conserved) + "\n")

	if n := len(spins); n > 0 {
		last := spins[n-1]
		b.WriteString(MetricLabel.Render("time") + MetricValue.Render(fmt.Sprintf("%.3fs", last.Time)) + "\n")
		b.WriteString(MetricLabel.Render("baseline") + MetricValue.Render(fmt.Sprintf("%.6f J", last.State.Baseline)) + "\n")
		b.WriteString(MetricLabel.Render("total energy") + MetricValue.Render(fmt.Sprintf("%.6f J", last.EnergyAfter)) + "\n")
	}

	if len(metrics) > 0 {
		b.WriteString("\n" + Title.Render("metrics") + "\n")
		names := make([]string, 0, len(metrics))
		for k := range metrics {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			b.WriteString(MetricLabel.Render(k) + MetricValue.Render(fmt.Sprintf("%.6g", metrics[k])) + "\n")
		}
	}

	if n := len(spins); n > 0 {
		b.WriteString("\n" + Title.Render("rings") + "\n")
		b.WriteString(RingTable(spins[n-1].State))
	}
	return Panel.Render(b.String())
}

// RingTable lists each ring's energy split and entropy.
func RingTable(st kernel.SystemState) string {
	col := lipgloss.NewStyle().Width(12).Align(lipgloss.Right)
	id := lipgloss.NewStyle().Width(12)

	var b strings.Builder
	b.WriteString(Subtle.Render(id.Render("ring") +
		col.Render("kinetic") + col.Render("potential") + col.Render("internal") +
		col.Render("total") + col.Render("entropy")) + "\n")
	for _, r := range st.Rings {
		b.WriteString(id.Render(r.ID) +
			col.Render(fmt.Sprintf("%.4f", r.Energy.Kinetic)) +
			col.Render(fmt.Sprintf("%.4f", r.Energy.Potential)) +
			col.Render(fmt.Sprintf("%.4f", r.Energy.Internal)) +
			col.Render(fmt.Sprintf("%.4f", r.Energy.Total)) +
			col.Render(fmt.Sprintf("%.3g", r.Entropy.Total)) + "\n")
	}
	return b.String()
}
