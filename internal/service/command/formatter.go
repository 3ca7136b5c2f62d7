package command

import (
	"fmt"
	"strings"

	"github.com/sandevgo/riskmon/internal/service/ui"
)

type responseFormatter struct{}

var formatter responseFormatter

func (responseFormatter) Info(title string) string {
	return ui.TitleStyle.Render(title)
}

func (responseFormatter) Success(message string) string {
	return ui.OkStyle.Render("✓ " + message)
}

func (responseFormatter) Error(err error) string {
	return ui.WarnStyle.Render("✗ " + err.Error())
}

func (responseFormatter) Label(label, value string) string {
	return fmt.Sprintf("%s  ›  %s", ui.DescStyle.Render(label), value)
}

func (responseFormatter) Usage(usage string) string {
	return ui.DescStyle.Render("usage: ") + ui.UsageStyle.Render(usage)
}

func (responseFormatter) List(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("› " + item)
	}
	return sb.String()
}

func (responseFormatter) Combine(sections ...string) string {
	return strings.Join(sections, "\n")
}
