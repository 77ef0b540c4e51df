package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/contextkit/internal/patterns"
	"github.com/fyrsmithlabs/contextkit/internal/ranker"
	"github.com/fyrsmithlabs/contextkit/internal/resolver"
)

// Lipgloss styles (k9s-inspired color scheme)
var (
	// Section title style - bold bright cyan
	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	// Label style - dim cyan
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	// Value style - bright white
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	// Dim style - for secondary info
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	goodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	badStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// scoreBadge colors a score in [0, 1].
func scoreBadge(score float64) string {
	s := fmt.Sprintf("%.3f", score)
	switch {
	case score >= 0.5:
		return goodStyle.Render(s)
	case score >= 0.2:
		return warnStyle.Render(s)
	default:
		return badStyle.Render(s)
	}
}

func field(label, value string) string {
	return labelStyle.Render(label+": ") + valueStyle.Render(value)
}

func renderRecommendations(res ranker.Result, verbose bool) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("┃ Recommendations") + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  intent %s · domain %s · %d considered",
		res.Analysis.Intent, res.Analysis.Domain, res.Considered)) + "\n")

	if len(res.Recommendations) == 0 {
		b.WriteString("  " + warnStyle.Render("no matching documents") + "\n")
	}
	for i, rec := range res.Recommendations {
		b.WriteString(fmt.Sprintf("  %2d. %s  %s\n", i+1, scoreBadge(rec.Score), valueStyle.Render(rec.DocumentID)))
		if verbose && rec.Breakdown != nil {
			bd := rec.Breakdown
			line := fmt.Sprintf("lexical %.3f · usage %.3f · context %.3f · semantic %.3f · combined %.3f",
				bd.Lexical, bd.UsageFrequency, bd.ContextualRelevance, bd.SemanticMatch, bd.Combined)
			if bd.SuccessPrediction != nil {
				line += fmt.Sprintf(" · success %.3f", *bd.SuccessPrediction)
			}
			b.WriteString("      " + dimStyle.Render(line) + "\n")
		}
	}
	if res.Failed > 0 {
		b.WriteString("  " + badStyle.Render(fmt.Sprintf("%d documents failed to score", res.Failed)) + "\n")
	}
	return containerStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func renderBundle(bundle *resolver.Bundle, out string) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("┃ Bundle") + "\n")
	b.WriteString("  " + field("Files", fmt.Sprint(bundle.Stats.TotalFilesLoaded)) + "   " +
		field("Depth", fmt.Sprint(bundle.Stats.MaxDepthReached)) + "   " +
		field("Redacted", fmt.Sprint(bundle.Stats.RedactedSecrets)) + "\n")
	if out != "" {
		b.WriteString("  " + field("Written to", out) + "\n")
	}

	ids := make([]string, 0, len(bundle.Index))
	for id := range bundle.Index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		e := bundle.Index[id]
		status := goodStyle.Render("✓")
		if e.Error != "" {
			status = badStyle.Render("✗ " + e.Error)
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n", dimStyle.Render(id), e.Path, status))
	}
	return containerStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func renderRecord(res recordResult) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("┃ Recorded "+string(res.Action)) + "\n")
	b.WriteString("  " + field("Document", res.DocumentID) + "\n")
	b.WriteString("  " + field("Views", fmt.Sprint(res.Usage.Views)) + "   " +
		field("Creates", fmt.Sprint(res.Usage.Creates)) + "   " +
		labelStyle.Render("Usage score: ") + scoreBadge(res.UsageScore) + "\n")
	if res.Pattern != nil {
		b.WriteString("  " + field("Uses", fmt.Sprint(res.Pattern.UsageCount)) + "   " +
			labelStyle.Render("Success rate: ") + scoreBadge(res.Pattern.SuccessRate) + "\n")
	}
	return containerStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func renderStats(st patterns.Stats) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("┃ Patterns") + "\n")
	b.WriteString("  " + field("Total", fmt.Sprint(st.TotalPatterns)) + "   " +
		field("Active", fmt.Sprint(st.ActivePatterns)) + "   " +
		labelStyle.Render("Avg success: ") + scoreBadge(st.AverageSuccessRate) + "\n")
	if len(st.MostUsed) > 0 {
		b.WriteString(sectionStyle.Render("┃ Most used") + "\n")
		for _, u := range st.MostUsed {
			b.WriteString(fmt.Sprintf("  %s %s\n", valueStyle.Render(fmt.Sprintf("%4d", u.UsageCount)), u.DocumentID))
		}
	}
	return containerStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func renderEvolution(ev patterns.Evolution) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("┃ "+ev.DocumentID) + "\n")
	if !ev.Found {
		b.WriteString("  " + dimStyle.Render("no recorded usage") + "\n")
		return containerStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
	}
	b.WriteString("  " + field("Trend", ev.UsageTrend) + "   " +
		labelStyle.Render("Success rate: ") + scoreBadge(ev.SuccessRate) + "\n")
	b.WriteString("  " + field("Adaptability", fmt.Sprintf("%.2f", ev.Adaptability)) + "   " +
		field("Contexts", fmt.Sprint(ev.ContextDiversity)) + "\n")
	for _, r := range ev.Recommendations {
		b.WriteString("  " + warnStyle.Render("•") + " " + r + "\n")
	}
	return containerStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}
