// Package output provides styled terminal output helpers (success, error,
// warning, order formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/ordr/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	numberStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	statusStyles = map[string]lipgloss.Style{
		models.StatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StatusProcessing: lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.StatusDelivered:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.StatusCancelled:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.StatusOnHold:     lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
	}
	connStyles = map[models.ConnectionStatus]lipgloss.Style{
		models.ConnDisconnected: errorStyle,
		models.ConnTesting:      warningStyle,
		models.ConnConnected:    successStyle,
	}
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 2)
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// FormatStatus formats an order status with color
func FormatStatus(s string) string {
	style, ok := statusStyles[s]
	if !ok {
		return fmt.Sprintf("[%s]", s)
	}
	return style.Render(fmt.Sprintf("[%s]", s))
}

// FormatDelivered renders the delivered flag as a mark
func FormatDelivered(d string) string {
	switch d {
	case models.DeliveredYes:
		return successStyle.Render("✓ delivered")
	case models.DeliveredNo, "":
		return subtleStyle.Render("not delivered")
	}
	return subtleStyle.Render(d)
}

// FormatConnection formats a connection status with color
func FormatConnection(s models.ConnectionStatus) string {
	style, ok := connStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(string(s))
}

// FormatOrderShort formats an order on one line
func FormatOrderShort(o models.Order) string {
	parts := []string{numberStyle.Render(o.OrderNumber)}
	if o.PartyName != "" {
		parts = append(parts, o.PartyName)
	}
	if o.OrderDate != "" {
		parts = append(parts, subtleStyle.Render(o.OrderDate))
	}
	parts = append(parts, FormatStatus(o.OrderStatus))
	if o.Delivered == models.DeliveredYes {
		parts = append(parts, successStyle.Render("✓"))
	}
	return strings.Join(parts, "  ")
}

// FormatOrderLong formats every field of an order
func FormatOrderLong(o models.Order) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s", o.OrderNumber, orDash(o.PartyName))))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Status: %s  %s\n", FormatStatus(o.OrderStatus), FormatDelivered(o.Delivered)))
	sb.WriteString(fmt.Sprintf("Ordered: %s | Expected: %s\n", orDash(o.OrderDate), orDash(o.ExpectedDelivery)))
	if o.Contact != "" {
		sb.WriteString(fmt.Sprintf("Contact: %s\n", o.Contact))
	}

	if urls := SplitImageURLs(o.ImageURLs); len(urls) > 0 {
		sb.WriteString(SectionHeader("Images"))
		for _, line := range BulletList(urls, 2) {
			sb.WriteString(line + "\n")
		}
	}

	sb.WriteString(subtleStyle.Render("id " + o.ID))
	sb.WriteString("\n")
	return sb.String()
}

// FormatProgress renders the production stages with the order's current
// stage highlighted and earlier ones ticked. Statuses outside the
// workflow show every stage as pending.
func FormatProgress(status string) string {
	cur := models.StageIndex(status)
	steps := make([]string, 0, len(models.ProductionStages()))
	for i, s := range models.ProductionStages() {
		switch {
		case cur >= 0 && i < cur:
			steps = append(steps, successStyle.Render("✓ "+s))
		case i == cur:
			steps = append(steps, numberStyle.Render("● "+s))
		default:
			steps = append(steps, subtleStyle.Render("○ "+s))
		}
	}
	return strings.Join(steps, subtleStyle.Render(" → "))
}

// FormatOrderMarkdown renders an order as a markdown document
func FormatOrderMarkdown(o models.Order) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Order %s\n\n", o.OrderNumber))
	sb.WriteString("| Field | Value |\n|---|---|\n")
	rows := [][2]string{
		{"Party", o.PartyName},
		{"Order date", o.OrderDate},
		{"Status", o.OrderStatus},
		{"Expected delivery", o.ExpectedDelivery},
		{"Delivered", o.Delivered},
		{"Contact", o.Contact},
	}
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", r[0], escapeCell(orDash(r[1]))))
	}
	if urls := SplitImageURLs(o.ImageURLs); len(urls) > 0 {
		sb.WriteString("\n## Images\n\n")
		for i, u := range urls {
			sb.WriteString(fmt.Sprintf("- [image %d](%s)\n", i+1, u))
		}
	}
	return sb.String()
}

// SplitImageURLs splits the image URL field on commas and whitespace
func SplitImageURLs(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
}

// Dashboard renders totals and the most recent orders
func Dashboard(c models.Counts, recent []models.Order) string {
	box := func(label string, n int, style lipgloss.Style) string {
		return cardStyle.Render(fmt.Sprintf("%s\n%s", subtleStyle.Render(label), style.Render(fmt.Sprint(n))))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		box("Total", c.Total, titleStyle),
		box("Delivered", c.Delivered, successStyle),
		box("Pending", c.Pending, warningStyle),
		box("Cancelled", c.Cancelled, errorStyle),
	)

	var sb strings.Builder
	sb.WriteString(row)
	sb.WriteString("\n")
	sb.WriteString(SectionHeader("Recent orders"))
	if len(recent) == 0 {
		sb.WriteString(subtleStyle.Render("  no orders yet"))
		sb.WriteString("\n")
		return sb.String()
	}
	for _, o := range recent {
		sb.WriteString("  " + FormatOrderShort(o) + "\n")
	}
	return sb.String()
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nRECENT ORDERS:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// BulletList formats items as a bulleted list with optional indentation
func BulletList(items []string, indent int) []string {
	prefix := strings.Repeat(" ", indent)
	result := make([]string, len(items))
	for i, item := range items {
		result[i] = prefix + "- " + item
	}
	return result
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
