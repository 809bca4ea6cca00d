// Package analysis models the structured analysis document produced by the
// backend and the submission protocol that creates one.
package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Document is the analysis the backend produced for one client. Every section
// is optional: the client renders what is present and never rejects a
// document for what is missing. The original response bytes are retained so
// saving a profile round-trips sections this version does not know about.
type Document struct {
	ClientProfile       *ClientProfile     `json:"client_profile,omitempty"`
	FinancialSnapshot   *Snapshot          `json:"financial_snapshot,omitempty"`
	AssetsDetail        []Asset            `json:"assets_detail,omitempty"`
	CategoryTotals      []CategoryTotal    `json:"category_totals,omitempty"`
	GoalsDetected       []Goal             `json:"goals_detected,omitempty"`
	KeyRisks            []string           `json:"key_risks,omitempty"`
	StrategicRoadmap    []RoadmapStep      `json:"strategic_roadmap,omitempty"`
	PortfolioAllocation []Allocation       `json:"portfolio_allocation,omitempty"`
	InsuranceAnalysis   *InsuranceAnalysis `json:"insurance_analysis,omitempty"`
	PersonalDetails     map[string]string  `json:"personal_details,omitempty"`
	MeetingAnalysis     *MeetingAnalysis   `json:"meeting_analysis,omitempty"`

	raw json.RawMessage
}

// ClientProfile is the named profile block with the 0-10 potential ranking.
type ClientProfile struct {
	Name          string  `json:"name"`
	RiskTolerance string  `json:"risk_tolerance"`
	LifeStage     string  `json:"life_stage"`
	PotentialRank float64 `json:"potential_rank"`
}

// Snapshot is the financial overview block. Values are display strings
// produced by the backend, not parsed numbers.
type Snapshot struct {
	NetWorth         string `json:"net_worth"`
	MonthlyBurn      string `json:"monthly_burn"`
	SavingsRate      string `json:"savings_rate"`
	TotalAssetsValue string `json:"total_assets_value"`
}

// Asset is one detected holding.
type Asset struct {
	Type        string `json:"type"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// CategoryTotal aggregates assets of one type.
type CategoryTotal struct {
	Type       string `json:"type"`
	TotalValue string `json:"total_value"`
}

// Goal is one detected client goal.
type Goal struct {
	Goal        string `json:"goal"`
	Timeline    string `json:"timeline"`
	Feasibility string `json:"feasibility"`
}

// RoadmapStep is one entry of the strategic roadmap.
type RoadmapStep struct {
	Step      string `json:"step"`
	Action    string `json:"action"`
	Reasoning string `json:"reasoning"`
}

// Allocation is one slice of the recommended portfolio.
type Allocation struct {
	Category   string  `json:"category"`
	Percentage float64 `json:"percentage"`
}

// InsuranceAnalysis covers life and health coverage plus the relationship
// manager's suggestion.
type InsuranceAnalysis struct {
	LifeInsurance   *CoverageDetail `json:"life_insurance,omitempty"`
	HealthInsurance *CoverageDetail `json:"health_insurance,omitempty"`
	RMSuggestion    string          `json:"rm_suggestion,omitempty"`
}

// CoverageDetail describes one insurance line.
type CoverageDetail struct {
	Status         string `json:"status"`
	CoverageAmount string `json:"coverage_amount"`
	IsSufficient   bool   `json:"is_sufficient"`
	GapDetails     string `json:"gap_details"`
}

// MeetingAnalysis is present when a transcript was part of the submission.
type MeetingAnalysis struct {
	Summary     string   `json:"summary,omitempty"`
	ActionItems []string `json:"action_items,omitempty"`
	Sentiment   string   `json:"sentiment,omitempty"`
}

// Parse decodes a backend document, keeping the raw bytes alongside the
// typed sections.
func Parse(raw json.RawMessage) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode analysis document: %w", err)
	}
	doc.raw = append(json.RawMessage(nil), raw...)
	return &doc, nil
}

// Raw returns the document exactly as the backend sent it. This is what gets
// persisted on save and what a conversation binds to as its frozen snapshot.
func (d *Document) Raw() json.RawMessage {
	if d.raw != nil {
		return d.raw
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	return data
}

// ClientName returns the display name from the profile block, or "".
func (d *Document) ClientName() string {
	if d.ClientProfile == nil {
		return ""
	}
	return d.ClientProfile.Name
}

// SaveName derives the name a profile is persisted under: the client's name,
// or a generated fallback when the analysis produced none.
func (d *Document) SaveName(now time.Time) string {
	if name := d.ClientName(); name != "" {
		return name
	}
	return "Client_" + strconv.FormatInt(now.UnixMilli(), 10)
}
