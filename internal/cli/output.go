package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/interceptor/internal/engine"
	"github.com/TimurManjosov/interceptor/internal/store"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ParseFormat validates a --output value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// PrintRuleSets outputs rule sets in the specified format
func PrintRuleSets(w io.Writer, sets []store.RuleSet, format OutputFormat) error {
	switch format {
	case FormatJSON:
		// Wrap in a "ruleSets" key to mirror the API response
		return printJSON(w, map[string][]store.RuleSet{"ruleSets": sets})
	case FormatYAML:
		return printYAML(w, sets)
	case FormatTable:
		return printRuleSetTable(w, sets)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintRuleSet outputs a single rule set in the specified format
func PrintRuleSet(w io.Writer, rs *store.RuleSet, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, rs)
	case FormatYAML:
		return printYAML(w, rs)
	case FormatTable:
		return printRuleSetTable(w, []store.RuleSet{*rs})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintDecision outputs an interception result
func PrintDecision(w io.Writer, res engine.Result, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, res)
	case FormatYAML:
		return printYAML(w, map[string]any{
			"allowed":   res.Allowed,
			"reason":    string(res.Reason),
			"ruleSetId": res.RuleSetID,
		})
	case FormatTable:
		table := tablewriter.NewWriter(w)
		table.Header("Decision", "Reason", "Rule Set")
		decision := "deny"
		if res.Allowed {
			decision = "allow"
		}
		ruleSet := "-"
		if res.RuleSetID != 0 {
			ruleSet = strconv.FormatInt(res.RuleSetID, 10)
		}
		if err := table.Append(decision, string(res.Reason), ruleSet); err != nil {
			return err
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printRuleSetTable(w io.Writer, sets []store.RuleSet) error {
	table := tablewriter.NewWriter(w)

	table.Header("ID", "Name", "Mode", "Enabled", "Conditions", "Updated At")

	for _, rs := range sets {
		conditions := rs.Rule.String()
		if conditions == "" {
			conditions = "none"
		}
		if len(conditions) > 50 {
			conditions = conditions[:47] + "..."
		}

		if err := table.Append(
			strconv.FormatInt(rs.ID, 10),
			rs.Name,
			string(rs.Mode),
			strconv.FormatBool(rs.Enabled),
			conditions,
			rs.UpdatedAt.Format("2006-01-02 15:04"),
		); err != nil {
			return err
		}
	}

	return table.Render()
}
