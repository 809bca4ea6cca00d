package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dashetica/wealthsync/pkg/analysis"
)

// renderDashboard lays out every analysis section that is present. Missing
// sections render nothing; the document is never rejected for what it lacks.
func renderDashboard(doc *analysis.Document, width int) string {
	if doc == nil {
		return labelStyle.Render("No analysis loaded.")
	}

	var sections []string

	if cp := doc.ClientProfile; cp != nil {
		var b strings.Builder
		b.WriteString(sectionStyle.Render("Client Profile") + "\n")
		if cp.Name != "" {
			b.WriteString(fmt.Sprintf("  Name: %s\n", cp.Name))
		}
		if cp.RiskTolerance != "" {
			b.WriteString(fmt.Sprintf("  Risk tolerance: %s\n", cp.RiskTolerance))
		}
		if cp.LifeStage != "" {
			b.WriteString(fmt.Sprintf("  Life stage: %s\n", cp.LifeStage))
		}
		if cp.PotentialRank > 0 {
			b.WriteString(fmt.Sprintf("  Potential: %s %.0f/10\n", rankBar(cp.PotentialRank), cp.PotentialRank))
		}
		sections = append(sections, b.String())
	}

	if fs := doc.FinancialSnapshot; fs != nil {
		var b strings.Builder
		b.WriteString(sectionStyle.Render("Financial Snapshot") + "\n")
		writePair(&b, "Net worth", fs.NetWorth)
		writePair(&b, "Monthly burn", fs.MonthlyBurn)
		writePair(&b, "Savings rate", fs.SavingsRate)
		writePair(&b, "Total assets", fs.TotalAssetsValue)
		sections = append(sections, b.String())
	}

	if len(doc.AssetsDetail) > 0 {
		var b strings.Builder
		b.WriteString(sectionStyle.Render("Assets") + "\n")
		for _, a := range doc.AssetsDetail {
			b.WriteString(fmt.Sprintf("  • %s: %s", a.Type, a.Value))
			if a.Description != "" {
				b.WriteString("  " + labelStyle.Render(a.Description))
			}
			b.WriteString("\n")
		}
		sections = append(sections, b.String())
	}

	if len(doc.CategoryTotals) > 0 {
		var b strings.Builder
		b.WriteString(sectionStyle.Render("Category Totals") + "\n")
		for _, c := range doc.CategoryTotals {
			b.WriteString(fmt.Sprintf("  %s: %s\n", c.Type, c.TotalValue))
		}
		sections = append(sections, b.String())
	}

	if len(doc.GoalsDetected) > 0 {
		var b strings.Builder
		b.WriteString(sectionStyle.Render("Goals") + "\n")
		for _, g := range doc.GoalsDetected {
			b.WriteString(fmt.Sprintf("  • %s (%s, feasibility %s)\n", g.Goal, g.Timeline, g.Feasibility))
		}
		sections = append(sections, b.String())
	}

	if len(doc.KeyRisks) > 0 {
		var b strings.Builder
		b.WriteString(sectionStyle.Render("Key Risks") + "\n")
		for _, r := range doc.KeyRisks {
			b.WriteString("  ! " + r + "\n")
		}
		sections = append(sections, b.String())
	}

	if len(doc.StrategicRoadmap) > 0 {
		var b strings.Builder
		b.WriteString(sectionStyle.Render("Strategic Roadmap") + "\n")
		for _, s := range doc.StrategicRoadmap {
			b.WriteString(fmt.Sprintf("  %s. %s\n", s.Step, s.Action))
			if s.Reasoning != "" {
				b.WriteString("     " + labelStyle.Render(s.Reasoning) + "\n")
			}
		}
		sections = append(sections, b.String())
	}

	if len(doc.PortfolioAllocation) > 0 {
		var b strings.Builder
		b.WriteString(sectionStyle.Render("Portfolio Allocation") + "\n")
		for _, a := range doc.PortfolioAllocation {
			b.WriteString(fmt.Sprintf("  %-20s %5.1f%%  %s\n", a.Category, a.Percentage, allocationBar(a.Percentage)))
		}
		sections = append(sections, b.String())
	}

	if ia := doc.InsuranceAnalysis; ia != nil {
		var b strings.Builder
		b.WriteString(sectionStyle.Render("Insurance") + "\n")
		writeCoverage(&b, "Life", ia.LifeInsurance)
		writeCoverage(&b, "Health", ia.HealthInsurance)
		if ia.RMSuggestion != "" {
			b.WriteString("  Suggestion: " + ia.RMSuggestion + "\n")
		}
		sections = append(sections, b.String())
	}

	if len(doc.PersonalDetails) > 0 {
		var b strings.Builder
		b.WriteString(sectionStyle.Render("Personal Details") + "\n")
		keys := make([]string, 0, len(doc.PersonalDetails))
		for k := range doc.PersonalDetails {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("  %s: %s\n", k, doc.PersonalDetails[k]))
		}
		sections = append(sections, b.String())
	}

	if ma := doc.MeetingAnalysis; ma != nil {
		var b strings.Builder
		b.WriteString(sectionStyle.Render("Meeting Analysis") + "\n")
		if ma.Summary != "" {
			b.WriteString("  " + ma.Summary + "\n")
		}
		for _, item := range ma.ActionItems {
			b.WriteString("  → " + item + "\n")
		}
		if ma.Sentiment != "" {
			writePair(&b, "Sentiment", ma.Sentiment)
		}
		sections = append(sections, b.String())
	}

	if len(sections) == 0 {
		return labelStyle.Render("The analysis came back empty.")
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func writePair(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "  %s: %s\n", label, value)
}

func writeCoverage(b *strings.Builder, label string, c *analysis.CoverageDetail) {
	if c == nil {
		return
	}
	status := c.Status
	if c.CoverageAmount != "" {
		status += ", " + c.CoverageAmount
	}
	if !c.IsSufficient && c.GapDetails != "" {
		status += "  " + errorStyle.UnsetPadding().Render("gap: "+c.GapDetails)
	}
	fmt.Fprintf(b, "  %s: %s\n", label, status)
}

func rankBar(rank float64) string {
	n := int(rank)
	if n < 0 {
		n = 0
	}
	if n > 10 {
		n = 10
	}
	return strings.Repeat("█", n) + strings.Repeat("░", 10-n)
}

func allocationBar(pct float64) string {
	n := int(pct / 5)
	if n < 0 {
		n = 0
	}
	if n > 20 {
		n = 20
	}
	return strings.Repeat("▰", n)
}
