package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/scanbridge/scanbridge/internal/domain"
)

// ── palette ──
var (
	accent  = lipgloss.Color("#D97706") // amber
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
	info    = lipgloss.Color("#8B949E") // soft blue-gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	statusColors = map[domain.ProjectStatus]lipgloss.Color{
		domain.StatusValid:            success,
		domain.StatusNoFilesToAnalyze: warning,
		domain.StatusExcludeFlagSet:   info,
		domain.StatusInvalidGuid:      danger,
	}

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	fileStyle     = lipgloss.NewStyle().Foreground(dim)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	nameStyle     = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// statusOrder is the order status groups are listed in.
var statusOrder = []domain.ProjectStatus{
	domain.StatusValid,
	domain.StatusNoFilesToAnalyze,
	domain.StatusExcludeFlagSet,
	domain.StatusInvalidGuid,
}

// RenderResult formats a properties generation run for terminal output.
func RenderResult(result *domain.AggregationResult) string {
	var b strings.Builder

	// ── Header ──
	title := headerStyle.Render("scanbridge")
	subtitle := dimStyle.Render("Analysis properties")
	var outcome string
	if result.Succeeded() {
		outcome = passStyle.Bold(true).Render("generated")
	} else {
		outcome = failStyle.Bold(true).Render("not generated")
	}
	counts := fmt.Sprintf("%d / %d projects valid", result.CountByStatus(domain.StatusValid), len(result.Statuses))
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + outcome + "  " + dimStyle.Render(counts)))
	b.WriteString("\n\n")

	// ── Projects ──
	projects := append([]domain.ProjectSummary(nil), result.Projects...)
	sort.SliceStable(projects, func(i, j int) bool {
		return statusRank(projects[i].Status) < statusRank(projects[j].Status)
	})
	if len(projects) > 0 {
		b.WriteString("  " + titleStyle.Render("Projects") + "\n\n")
		for _, p := range projects {
			renderProject(&b, p)
		}
	} else if len(result.Statuses) == 0 {
		b.WriteString("  " + dimStyle.Render("No projects found.") + "\n")
	}

	b.WriteString("\n")
	b.WriteString("  " + separatorLine)
	b.WriteString("\n\n")

	// ── Footer ──
	if result.SharedFiles > 0 {
		fmt.Fprintf(&b, "  %s %s\n", padRight("Shared files", 14), dimStyle.Render(fmt.Sprint(result.SharedFiles)))
	}
	if result.Revision != "" {
		fmt.Fprintf(&b, "  %s %s\n", padRight("Revision", 14), faintStyle.Render(shortHash(result.Revision)))
	}
	if result.Succeeded() {
		fmt.Fprintf(&b, "  %s %s\n", padRight("Written to", 14), fileStyle.Render(result.PropertiesPath))
	} else {
		b.WriteString("  " + failStyle.Render("No properties file was written; see the log above.") + "\n")
	}

	b.WriteString("\n")
	return b.String()
}

func renderProject(b *strings.Builder, p domain.ProjectSummary) {
	icon := statusStyle(p.Status).Render("●")
	name := nameStyle.Render(padRight(p.Name, 28))
	kind := dimStyle.Render(padRight(fmt.Sprintf("%s %s", p.Language, p.Type), 14))
	status := statusStyle(p.Status).Render(padRight(string(p.Status), 17))
	files := faintStyle.Render(fmt.Sprintf("%d files", p.Files))
	fmt.Fprintf(b, "    %s %s %s %s %s\n", icon, name, kind, status, files)
}

// RenderStatuses formats the id → classification map, grouped by status.
func RenderStatuses(statuses map[string]domain.ProjectStatus) string {
	if len(statuses) == 0 {
		return "  " + dimStyle.Render("No projects found.") + "\n"
	}

	ids := make([]string, 0, len(statuses))
	for id := range statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("\n")
	for _, status := range statusOrder {
		var group []string
		for _, id := range ids {
			if statuses[id] == status {
				group = append(group, id)
			}
		}
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s %s\n", statusStyle(status).Bold(true).Render(string(status)), dimStyle.Render(fmt.Sprintf("(%d)", len(group))))
		for _, id := range group {
			b.WriteString("    " + faintStyle.Render(id) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderReconcile formats a pull request cache reconciliation.
func RenderReconcile(result *domain.ReconcileResult) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Pull request cache") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	if result.BasePath == "" {
		b.WriteString("  " + failStyle.Render("Incremental analysis is disabled.") + "\n")
		return b.String()
	}

	fmt.Fprintf(&b, "  %s %s\n", padRight("Base path", 14), fileStyle.Render(result.BasePath))
	unchanged := lipgloss.NewStyle().Bold(true).Foreground(success).Render(fmt.Sprint(len(result.Unchanged)))
	fmt.Fprintf(&b, "  %s %s %s\n", padRight("Unchanged", 14), unchanged, dimStyle.Render(fmt.Sprintf("of %d cached files", result.Total)))
	if result.UnchangedFilesPath != "" {
		fmt.Fprintf(&b, "  %s %s\n", padRight("Written to", 14), fileStyle.Render(result.UnchangedFilesPath))
	}
	return b.String()
}

// RenderHistory formats the generation history for terminal output.
func RenderHistory(entries []domain.HistoryEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No generation history found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Generation History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	for i, e := range entries {
		hash := shortHash(e.Revision)
		if hash == "" {
			hash = "·······"
		}

		valid := 0
		for _, s := range e.Statuses {
			if s == domain.StatusValid {
				valid++
			}
		}
		var outcome string
		if e.PropertiesPath != "" {
			outcome = passStyle.Render("ok    ")
		} else {
			outcome = failStyle.Render("failed")
		}

		line := fmt.Sprintf("  %s  %s  %s  %s",
			dimStyle.Render(datePart(e.Timestamp)),
			faintStyle.Render(hash),
			outcome,
			fmt.Sprintf("%d/%d valid", valid, len(e.Statuses)),
		)
		if e.AnalyzedFiles > 0 || e.SharedFiles > 0 {
			line += "  " + dimStyle.Render(fmt.Sprintf("%d files, %d shared", e.AnalyzedFiles, e.SharedFiles))
		}

		if i > 0 {
			prev := len(entries[i-1].Statuses)
			if diff := len(e.Statuses) - prev; diff > 0 {
				line += "  " + passStyle.Render(fmt.Sprintf("+%d", diff))
			} else if diff < 0 {
				line += "  " + failStyle.Render(fmt.Sprintf("-%d", -diff))
			}
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

func statusStyle(status domain.ProjectStatus) lipgloss.Style {
	if c, ok := statusColors[status]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return lipgloss.NewStyle().Foreground(fg)
}

func statusRank(status domain.ProjectStatus) int {
	for i, s := range statusOrder {
		if s == status {
			return i
		}
	}
	return len(statusOrder)
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

func datePart(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

func padRight(s string, width int) string {
	if lipgloss.Width(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-lipgloss.Width(s))
}
