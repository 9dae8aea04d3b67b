package models

import (
	"encoding/json"
	"time"
)

// Deep dive section keys, in display order.
const (
	SectionProductClarity    = "product_clarity"
	SectionTiming            = "timing"
	SectionMarketOpportunity = "market_opportunity"
	SectionStrategicMoat     = "strategic_moat"
	SectionBusinessFunding   = "business_funding"
	SectionInvestorScoring   = "investor_scoring"
	SectionSummary           = "summary"
)

// DeepDiveSections lists every fixed section key.
var DeepDiveSections = []string{
	SectionProductClarity,
	SectionTiming,
	SectionMarketOpportunity,
	SectionStrategicMoat,
	SectionBusinessFunding,
	SectionInvestorScoring,
	SectionSummary,
}

// DeepDive maps section keys to analysis text.
type DeepDive map[string]string

// NewDeepDive returns a deep dive with every fixed section present and empty.
func NewDeepDive() DeepDive {
	d := make(DeepDive, len(DeepDiveSections))
	for _, k := range DeepDiveSections {
		d[k] = ""
	}
	return d
}

// Normalize returns a copy containing every fixed section. Unknown keys are kept.
func (d DeepDive) Normalize() DeepDive {
	out := NewDeepDive()
	for k, v := range d {
		out[k] = v
	}
	return out
}

// IsEmpty reports whether no section carries text.
func (d DeepDive) IsEmpty() bool {
	for _, v := range d {
		if v != "" {
			return false
		}
	}
	return true
}

// Encode serializes the deep dive for storage.
func (d DeepDive) Encode() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeDeepDive parses a stored deep dive; empty input yields nil.
func DecodeDeepDive(s string) (*DeepDive, error) {
	if s == "" {
		return nil, nil
	}
	var d DeepDive
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DeepDiveVersion is an immutable numbered snapshot of a deep dive.
type DeepDiveVersion struct {
	ID             string
	IdeaID         string
	VersionNumber  int
	Fields         DeepDive
	LLMRawResponse string
	CreatedAt      time.Time
}
