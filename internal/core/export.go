package core

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ExportVersion is bumped whenever the export layout changes.
const ExportVersion = "1.0.0"

// RuleExport represents the exported rule table for external tools.
type RuleExport struct {
	Version     string        `json:"version"`
	GeneratedAt time.Time     `json:"generated_at"`
	SHA256      string        `json:"sha256"`
	Rules       []RuleDetails `json:"rules"`
	Metadata    RuleMetadata  `json:"metadata"`
}

// RuleDetails represents a single rule for export.
type RuleDetails struct {
	Order       int      `json:"order"`
	Name        string   `json:"name"`
	Pattern     string   `json:"pattern"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// RuleMetadata contains summary information about the export.
type RuleMetadata struct {
	RuleCount      int              `json:"rule_count"`
	SeverityCounts map[Severity]int `json:"severity_counts"`
}

// Export describes the rule table in evaluation order.
func (c *Classifier) Export() *RuleExport {
	export := &RuleExport{
		Version:     ExportVersion,
		GeneratedAt: time.Now().UTC(),
		Rules:       make([]RuleDetails, 0, len(c.rules)),
		Metadata: RuleMetadata{
			SeverityCounts: make(map[Severity]int),
		},
	}
	for i, r := range c.rules {
		export.Rules = append(export.Rules, RuleDetails{
			Order:       i + 1,
			Name:        r.Name,
			Pattern:     r.Expr,
			Severity:    r.Severity,
			Description: r.Description,
		})
		export.Metadata.SeverityCounts[r.Severity]++
	}
	export.Metadata.RuleCount = len(c.rules)
	export.SHA256 = c.ComputeHash()
	return export
}

// ComputeHash returns a hash of the rule table. Unlike a set hash it is
// order-sensitive, since evaluation order changes verdicts.
func (c *Classifier) ComputeHash() string {
	h := sha256.New()
	for _, r := range c.rules {
		h.Write([]byte(r.Name))
		h.Write([]byte{0})
		h.Write([]byte(r.Severity))
		h.Write([]byte{0})
		h.Write([]byte(r.Expr))
		h.Write([]byte{0}) // Separator
	}
	return hex.EncodeToString(h.Sum(nil))
}
