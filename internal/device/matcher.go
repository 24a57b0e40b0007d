package device

import "strings"

// Field selects which Record attribute a Rule matches against.
type Field string

// Matchable record fields.
const (
	// FieldDescription matches against Record.Description.
	FieldDescription Field = "description"

	// FieldHardwareID matches against Record.HardwareID.
	FieldHardwareID Field = "hwid"
)

// Rule is one classification criterion: a record is eligible when the
// selected field contains Substring, compared case-insensitively.
type Rule struct {
	Substring string
	Field     Field
}

// DefaultRules returns the built-in classification table covering the
// USB-to-UART bridge chips found on common ESP development boards.
func DefaultRules() []Rule {
	return []Rule{
		{Substring: "cp210", Field: FieldDescription},
		{Substring: "ch340", Field: FieldDescription},
		{Substring: "usb serial", Field: FieldDescription},
		{Substring: "esp", Field: FieldDescription},
		{Substring: "vid:pid=10c4", Field: FieldHardwareID}, // Silicon Labs
		{Substring: "vid:pid=1a86", Field: FieldHardwareID}, // WCH CH340
	}
}

// NewRules builds a rule table from plain substring lists, as supplied
// by configuration. Both lists may be empty.
func NewRules(descriptions, hardwareIDs []string) []Rule {
	rules := make([]Rule, 0, len(descriptions)+len(hardwareIDs))
	for _, s := range descriptions {
		rules = append(rules, Rule{Substring: s, Field: FieldDescription})
	}
	for _, s := range hardwareIDs {
		rules = append(rules, Rule{Substring: s, Field: FieldHardwareID})
	}
	return rules
}

// Matcher classifies enumerated records against a rule table.
//
// Classification is case-insensitive substring matching with no side
// effects; the first matching rule short-circuits.
type Matcher struct {
	rules []Rule
}

// NewMatcher creates a matcher for the given rules.
// An empty rule list falls back to DefaultRules.
func NewMatcher(rules []Rule) *Matcher {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Matcher{rules: rules}
}

// Classify reports whether the record is an eligible device.
// Empty Description or HardwareID fields simply never match.
func (m *Matcher) Classify(rec Record) bool {
	desc := strings.ToLower(rec.Description)
	hwid := strings.ToLower(rec.HardwareID)

	for _, rule := range m.rules {
		target := desc
		if rule.Field == FieldHardwareID {
			target = hwid
		}
		if strings.Contains(target, strings.ToLower(rule.Substring)) {
			return true
		}
	}
	return false
}

// EligiblePaths filters records through Classify and returns the paths
// of the matches, preserving enumeration order.
func (m *Matcher) EligiblePaths(records []Record) []string {
	var paths []string
	for _, rec := range records {
		if m.Classify(rec) {
			paths = append(paths, rec.Path)
		}
	}
	return paths
}
