package text

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ReplacementRule replaces every occurrence of FromText with ToText. A
// Prefix rule only replaces FromText at the start of each backslash path
// component.
type ReplacementRule struct {
	FromText string
	ToText   string
	Prefix   bool
}

// ReplacementResult describes what a replacement pass changed
type ReplacementResult struct {
	Original         string
	Modified         string
	WasModified      bool
	ReplacementCount int
}

// SimpleTextReplacer applies rules with plain string replacement
type SimpleTextReplacer struct{}

// NewSimpleTextReplacer creates a new SimpleTextReplacer
func NewSimpleTextReplacer() *SimpleTextReplacer {
	return &SimpleTextReplacer{}
}

// ReplaceText applies rules in order. Empty FromText rules are skipped.
func (r *SimpleTextReplacer) ReplaceText(content string, rules []ReplacementRule) ReplacementResult {
	result := ReplacementResult{
		Original: content,
		Modified: content,
	}

	current := content
	for _, rule := range rules {
		if rule.FromText == "" {
			continue
		}

		var next string
		var count int
		if rule.Prefix {
			next, count = replacePrefixes(current, rule)
		} else {
			next, count = strings.ReplaceAll(current, rule.FromText, rule.ToText), strings.Count(current, rule.FromText)
		}
		if next != current {
			result.WasModified = true
			result.ReplacementCount += count
		}
		current = next
	}

	result.Modified = current
	return result
}

func replacePrefixes(content string, rule ReplacementRule) (string, int) {
	parts := strings.Split(content, Separator)
	count := 0
	for i, part := range parts {
		if rest, ok := strings.CutPrefix(part, rule.FromText); ok {
			parts[i] = rule.ToText + rest
			count++
		}
	}
	return strings.Join(parts, Separator), count
}

// ValidateRules rejects rules that cannot be applied
func (r *SimpleTextReplacer) ValidateRules(rules []ReplacementRule) error {
	for i, rule := range rules {
		if rule.FromText == "" {
			return errors.Errorf("rule %d: from_text is required", i)
		}
		if strings.ContainsAny(rule.ToText, `\/`) {
			return errors.Errorf("rule %d: to_text %q must not contain a path separator", i, rule.ToText)
		}
	}
	return nil
}
