// Package ui holds the terminal styles shared by the CLI commands.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	// TitleStyle is ANSI cyan, readable on light and dark terminals.
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)

	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	// DescStyle is dimmed so descriptions sit behind command names.
	DescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	FlagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	OkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	WarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)
