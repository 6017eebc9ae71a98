// Package ratings converts detector results into 1-5 scores with
// human-readable reasons and suggestions.
package ratings

import (
	"fmt"
	"strings"

	"github.com/steph-dove/conventions/internal/detect"
)

// Labels maps scores to display labels.
var Labels = map[int]string{
	1: "Poor",
	2: "Below Average",
	3: "Average",
	4: "Good",
	5: "Excellent",
}

// CategorySuggestions provides generic improvement advice keyed by result
// category, used when a rule has no specific suggestion.
var CategorySuggestions = map[string]string{
	"typing":         "Add type annotations to function parameters and return types. Start with public APIs.",
	"testing":        "Add more test cases and increase coverage of edge cases and error paths.",
	"documentation":  "Add documentation to public functions and classes explaining purpose and parameters.",
	"error_handling": "Define custom error types for domain-specific errors and handle them at appropriate layers.",
	"naming":         "Align names with the language's standard naming convention.",
	"patterns":       "Apply consistent design patterns across the codebase for maintainability.",
	"structure":      "Organize the repository into conventional directories (src, tests, docs).",
	"api":            "Standardize on a single framework and keep transport concerns at the boundary.",
}

// Rule scores one detector result. Reason and Suggestion may be nil; a nil
// Suggestion falls back to the category map.
type Rule struct {
	Score      func(r *detect.Result) int
	Reason     func(r *detect.Result, score int) string
	Suggestion func(r *detect.Result, score int) string
}

// Rating is the scored view of one detector result.
type Rating struct {
	RuleID     string `json:"rule_id"`
	Score      int    `json:"score"`
	Label      string `json:"label"`
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Table maps rule ids to rating rules. Unknown rule ids fall through to a
// confidence-based default.
type Table struct {
	rules map[string]Rule
}

// NewTable creates an empty rating table.
func NewTable() *Table {
	return &Table{rules: make(map[string]Rule)}
}

// Register adds or replaces the rating rule for a rule id. A nil Score
// function is rejected.
func (t *Table) Register(ruleID string, rule Rule) error {
	if ruleID == "" {
		return fmt.Errorf("ratings: empty rule id")
	}
	if rule.Score == nil {
		return fmt.Errorf("ratings: rule %q has no score function", ruleID)
	}
	t.rules[ruleID] = rule
	return nil
}

// Rate scores one result, clamping to 1-5 and filling the label, reason,
// and suggestion.
func (t *Table) Rate(r *detect.Result) Rating {
	rule, ok := t.rules[r.RuleID]
	score := 0
	if ok {
		score = rule.Score(r)
	} else {
		score = defaultScore(r)
	}
	score = clampScore(score)

	rating := Rating{
		RuleID: r.RuleID,
		Score:  score,
		Label:  Labels[score],
	}

	if ok && rule.Reason != nil {
		rating.Reason = rule.Reason(r, score)
	} else {
		rating.Reason = fmt.Sprintf("Convention detected with %d%% confidence", r.Confidence)
	}

	if ok && rule.Suggestion != nil {
		rating.Suggestion = rule.Suggestion(r, score)
	} else if score < 4 {
		rating.Suggestion = categorySuggestion(r.Category)
	}

	return rating
}

// Average returns the mean score across ratings, 0 when empty.
func Average(rr []Rating) float64 {
	if len(rr) == 0 {
		return 0
	}
	sum := 0
	for _, r := range rr {
		sum += r.Score
	}
	return float64(sum) / float64(len(rr))
}

// defaultScore maps confidence to a score for rules without a dedicated
// rating entry.
func defaultScore(r *detect.Result) int {
	switch {
	case r.Confidence >= 90:
		return 5
	case r.Confidence >= 80:
		return 4
	case r.Confidence >= 70:
		return 3
	case r.Confidence >= 60:
		return 2
	default:
		return 1
	}
}

func categorySuggestion(category string) string {
	if s, ok := CategorySuggestions[strings.ToLower(category)]; ok {
		return s
	}
	return ""
}

func clampScore(s int) int {
	if s < 1 {
		return 1
	}
	if s > 5 {
		return 5
	}
	return s
}
