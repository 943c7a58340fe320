// Package core implements the command safety classifier.
package core

import (
	"bytes"
	"regexp"
	"text/template"
)

// Severity is the effect a rule has when it matches.
type Severity string

const (
	SeverityBlock Severity = "block"
	SeverityWarn  Severity = "warn"
)

// Outcome is the result of classifying a command.
type Outcome string

const (
	OutcomeAllow Outcome = "allow"
	OutcomeWarn  Outcome = "warn"
	OutcomeBlock Outcome = "block"
)

// Outcome returns the verdict outcome a matching rule of this severity produces.
func (s Severity) Outcome() Outcome {
	if s == SeverityWarn {
		return OutcomeWarn
	}
	return OutcomeBlock
}

// Rule is a single entry of the classification table.
type Rule struct {
	// Name is a short, stable identifier (e.g. "privileged-delete").
	Name string
	// Expr is the source of Pattern, kept for listing and hashing.
	Expr string
	// Pattern is matched case-sensitively against any substring of the command.
	Pattern *regexp.Regexp
	// Severity decides whether a match blocks or only warns.
	Severity Severity
	// Description is a one-line summary used by listings.
	Description string
	// Message renders the diagnostic block. It receives MessageData.
	Message *template.Template
	// Suggest optionally derives a safer command from the offending one.
	Suggest func(command string) string
}

// MessageData is the template input for Rule.Message.
type MessageData struct {
	Command    string
	Suggestion string
}

// Render produces the diagnostic text for command.
func (r *Rule) Render(command string) string {
	if r == nil || r.Message == nil {
		return ""
	}
	data := MessageData{Command: command}
	if r.Suggest != nil {
		data.Suggestion = r.Suggest(command)
	}
	var buf bytes.Buffer
	if err := r.Message.Execute(&buf, data); err != nil {
		// Builtin templates are parsed with template.Must; an execution error
		// still must not stop the verdict from being returned.
		return r.Description + ": " + command
	}
	return buf.String()
}

// Verdict is the result of Classify. Rule and Message are empty on allow.
type Verdict struct {
	Outcome Outcome
	Rule    *Rule
	Message string
}

// Blocked reports whether the command must not run.
func (v Verdict) Blocked() bool {
	return v.Outcome == OutcomeBlock
}

// RuleName returns the matched rule's name, or "" when nothing matched.
func (v Verdict) RuleName() string {
	if v.Rule == nil {
		return ""
	}
	return v.Rule.Name
}

// Classifier evaluates commands against an ordered, immutable rule table.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules []*Rule
}

// NewClassifier returns a classifier over rules, evaluated in the given order.
func NewClassifier(rules ...*Rule) *Classifier {
	cp := make([]*Rule, len(rules))
	copy(cp, rules)
	return &Classifier{rules: cp}
}

// Classify returns the verdict of the first rule that matches command.
// Evaluation stops at the first match; no match (including empty input) is allow.
func (c *Classifier) Classify(command string) Verdict {
	for _, r := range c.rules {
		if r.Pattern.MatchString(command) {
			return Verdict{
				Outcome: r.Severity.Outcome(),
				Rule:    r,
				Message: r.Render(command),
			}
		}
	}
	return Verdict{Outcome: OutcomeAllow}
}

// Rules returns the rule table in evaluation order.
func (c *Classifier) Rules() []*Rule {
	cp := make([]*Rule, len(c.rules))
	copy(cp, c.rules)
	return cp
}

var defaultClassifier = NewClassifier(BuiltinRules()...)

// DefaultClassifier returns the classifier over the builtin rule table.
func DefaultClassifier() *Classifier {
	return defaultClassifier
}

// Classify is a convenience function using the default classifier.
func Classify(command string) Verdict {
	return defaultClassifier.Classify(command)
}
