// Package viz renders a hover task live in the terminal with bubbletea,
// lipgloss and asciigraph.
package viz
