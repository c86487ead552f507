package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/riv-patcher/riv"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().
			Bold(true)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// renderDocument formats the header, the TOC and the inputs of doc.
func renderDocument(file string, doc *riv.Document) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("RIV"))
	b.WriteString(" ")
	b.WriteString(file)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Version: %d\n", doc.Header.Version)
	fmt.Fprintf(&b, "TOC offset: %d\n", doc.Header.TOCOffset)
	fmt.Fprintf(&b, "Size: %d bytes\n\n", doc.Size)

	b.WriteString(headingStyle.Render(fmt.Sprintf("Sections (%d):", len(doc.Sections))))
	b.WriteString("\n")
	for _, s := range doc.Sections {
		fmt.Fprintf(&b, "  [%d] %-13s tag=%-3d offset=%-8d length=%d", s.Index, s.Name(), s.Tag, s.Offset, s.Length)
		if objs, ok := doc.Objects[s.Index]; ok {
			fmt.Fprintf(&b, " objects=%d", len(objs))
		}
		b.WriteString("\n")
	}

	inputs := doc.Inputs()
	b.WriteString("\n")
	b.WriteString(headingStyle.Render(fmt.Sprintf("Inputs (%d):", len(inputs))))
	b.WriteString("\n")
	for _, in := range inputs {
		b.WriteString("  ")
		b.WriteString(formatInput(in))
		b.WriteString("\n")
	}
	return b.String()
}

func formatInput(in riv.Input) string {
	s := nameStyle.Render(in.Name) + " " + kindStyle.Render(in.Kind.String())
	if in.Kind == riv.InputNumber {
		s += fmt.Sprintf(" default=%g", in.Default)
	}
	return s + fmt.Sprintf(" (section %d, offset %d)", in.Section, in.Offset)
}
