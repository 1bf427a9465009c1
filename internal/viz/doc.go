// Package viz renders kernel runs in the terminal.
//
//   - [RenderSummary]: a lipgloss panel with metrics and the final ring table
//   - [PlotSpins]: asciigraph charts of stored runs
//   - [Watch]: a Bubble Tea model that spins a live experiment
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset the kernel
//	+/-   - Spins per frame
//	?     - Help
//	Q     - Quit
package viz
