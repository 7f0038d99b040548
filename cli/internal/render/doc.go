// Package render prints analysis results for the CLI: a lipgloss table when
// stdout is a terminal, plain "name: value" lines when it is piped.
package render
