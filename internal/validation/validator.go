// Package validation provides validation rules for rule-set data and request parameters.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/TimurManjosov/interceptor/internal/rules"
)

const (
	// MaxNameLength is the maximum length for rule-set names
	MaxNameLength = 64
	// MaxConditions is the maximum number of conditions in one rule
	MaxConditions = 50
	// MaxTargetLength is the maximum length of a condition target
	MaxTargetLength = 256
)

// ValidationResult holds the result of validation
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// NewValidationResult creates a new validation result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:  true,
		Errors: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid
func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors[field] = message
}

// Merge combines another validation result into this one
func (v *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for field, message := range other.Errors {
		v.AddError(field, message)
	}
}

// First returns one error message, preferring the given field order.
func (v *ValidationResult) First(fields ...string) string {
	for _, f := range fields {
		if msg, ok := v.Errors[f]; ok {
			return msg
		}
	}
	for _, msg := range v.Errors {
		return msg
	}
	return ""
}

// RuleSetParams contains the parameters for validating a new rule set
type RuleSetParams struct {
	Name string
	Mode string
	Rule rules.Rule
}

// ValidateRuleSet validates all rule-set fields and returns a validation result
func ValidateRuleSet(params RuleSetParams) *ValidationResult {
	result := NewValidationResult()
	result.Merge(ValidateName(params.Name))
	if params.Mode != "" {
		result.Merge(ValidateMode(params.Mode))
	}
	result.Merge(ValidateRule(params.Rule))
	return result
}

// ValidateName validates a rule-set name
func ValidateName(name string) *ValidationResult {
	result := NewValidationResult()
	name = strings.TrimSpace(name)

	if name == "" {
		result.AddError("name", "Name is required")
		return result
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		result.AddError("name", fmt.Sprintf("Name must not exceed %d characters", MaxNameLength))
		return result
	}

	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		result.AddError("name", "Name must not contain control characters")
		return result
	}

	return result
}

// ValidateMode validates a mode tag
func ValidateMode(mode string) *ValidationResult {
	result := NewValidationResult()
	if !rules.ValidMode(rules.Mode(mode)) {
		result.AddError("mode", "Mode must be whitelist or blacklist")
	}
	return result
}

// ValidateRule validates the conditions of a rule
func ValidateRule(rule rules.Rule) *ValidationResult {
	result := NewValidationResult()

	if len(rule) > MaxConditions {
		result.AddError("rule", fmt.Sprintf("Rule must not exceed %d conditions", MaxConditions))
		return result
	}

	if err := rules.ValidateRule(rule); err != nil {
		result.AddError("rule", err.Error())
		return result
	}

	for i, c := range rule {
		if utf8.RuneCountInString(c.Target) > MaxTargetLength {
			result.AddError("rule", fmt.Sprintf("condition[%d]: target must not exceed %d characters", i, MaxTargetLength))
			return result
		}
	}

	return result
}

// ParseID parses and validates a rule-set id
func ParseID(raw string) (int64, *ValidationResult) {
	result := NewValidationResult()
	raw = strings.TrimSpace(raw)

	if raw == "" {
		result.AddError("id", "ID is required")
		return 0, result
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		result.AddError("id", "ID must be a positive integer")
		return 0, result
	}

	return id, result
}
