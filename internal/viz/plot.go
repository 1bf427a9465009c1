package viz

import (
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ringsim/internal/storage"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan, asciigraph.Yellow, asciigraph.Green,
	asciigraph.Red, asciigraph.Magenta, asciigraph.Blue,
}

// PlotSpins draws per-ring energy, drift and cumulative entropy for a
// stored run.
func PlotSpins(spins []storage.SpinRecord, width, height int) string {
	if len(spins) == 0 {
		return ""
	}

	ids := make([]string, 0, len(spins[0].Rings))
	for id := range spins[0].Rings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	energy := make([][]float64, len(ids))
	drift := make([]float64, len(spins))
	entropy := make([]float64, len(spins))
	for i := range ids {
		energy[i] = make([]float64, len(spins))
	}
	for j, sp := range spins {
		for i, id := range ids {
			energy[i][j] = sp.Rings[id]
		}
		drift[j] = sp.Drift
		entropy[j] = sp.Entropy
	}

	var b strings.Builder
	if len(ids) > 0 {
		colors := make([]asciigraph.AnsiColor, len(ids))
		for i := range ids {
			colors[i] = seriesColors[i%len(seriesColors)]
		}
		b.WriteString(asciigraph.PlotMany(energy,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.SeriesColors(colors...),
			asciigraph.SeriesLegends(ids...),
			asciigraph.Caption("ring energy (J)"),
		))
		b.WriteString("\n\n")
	}
	b.WriteString(PlotSeries("energy drift (J)", drift, width, height/2))
	b.WriteString("\n\n")
	b.WriteString(PlotSeries("irreversible entropy (J/K)", entropy, width, height/2))
	return b.String()
}

// PlotSeries is a single captioned asciigraph chart.
func PlotSeries(caption string, data []float64, width, height int) string {
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(max(height, 2)),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
