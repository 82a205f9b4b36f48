package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/interceptor/internal/client"
	"github.com/TimurManjosov/interceptor/internal/rules"
	"github.com/TimurManjosov/interceptor/internal/store"
)

var (
	exportOutput string
	importDryRun bool
)

// ExportFormat is the file layout used by export and import.
type ExportFormat struct {
	RuleSets []ExportedRuleSet `yaml:"ruleSets" json:"ruleSets"`
}

// ExportedRuleSet is a rule set without server-assigned fields.
type ExportedRuleSet struct {
	Name    string     `yaml:"name" json:"name"`
	Mode    rules.Mode `yaml:"mode" json:"mode"`
	Rule    rules.Rule `yaml:"rule" json:"rule"`
	Enabled bool       `yaml:"enabled" json:"enabled"`
}

func toExport(sets []store.RuleSet) ExportFormat {
	out := ExportFormat{RuleSets: make([]ExportedRuleSet, 0, len(sets))}
	for _, rs := range sets {
		out.RuleSets = append(out.RuleSets, ExportedRuleSet{
			Name: rs.Name, Mode: rs.Mode, Rule: rs.Rule, Enabled: rs.Enabled,
		})
	}
	return out
}

func writeExport(w io.Writer, data ExportFormat, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

// readExport parses an export file (YAML is a superset of JSON) and checks
// every entry.
func readExport(data []byte) (ExportFormat, error) {
	var in ExportFormat
	if err := yaml.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("failed to parse file: %w", err)
	}
	if len(in.RuleSets) == 0 {
		return in, fmt.Errorf("no rule sets found in file")
	}
	for i, rs := range in.RuleSets {
		if rs.Name == "" {
			return in, fmt.Errorf("ruleSets[%d]: name is required", i)
		}
		if rs.Mode != "" && !rules.ValidMode(rs.Mode) {
			return in, fmt.Errorf("ruleSets[%d]: %w: %q", i, rules.ErrInvalidMode, rs.Mode)
		}
		if err := rules.ValidateRule(rs.Rule); err != nil {
			return in, fmt.Errorf("ruleSets[%d]: %w", i, err)
		}
	}
	return in, nil
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export rule sets to a file",
	Long: `Export all rule sets to a YAML or JSON file.

Examples:
  interceptor export --output rulesets.yaml
  interceptor export --output rulesets.json --format json
  interceptor export > backup.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		sets, err := c.ListRuleSets(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list rule sets: %w", err)
		}

		// Determine output destination
		out := cmd.OutOrStdout()
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		if err := writeExport(out, toExport(sets), format == "json"); err != nil {
			return fmt.Errorf("failed to encode export: %w", err)
		}

		if exportOutput != "" && exportOutput != "-" && !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Successfully exported %d rule set(s) to %s\n", len(sets), exportOutput)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import rule sets from a file",
	Long: `Create the rule sets listed in a YAML or JSON export file. Imported
rule sets are appended after the existing ones.

Examples:
  interceptor import rulesets.yaml
  interceptor import rulesets.yaml --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		in, err := readExport(data)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if verbose {
			fmt.Fprintf(out, "Found %d rule set(s) to import\n", len(in.RuleSets))
		}

		if importDryRun {
			fmt.Fprintln(out, "Dry run mode - the following rule sets would be imported:")
			for _, rs := range in.RuleSets {
				fmt.Fprintf(out, "  - %s (mode: %s, enabled: %v, rules: %d)\n", rs.Name, rs.Mode, rs.Enabled, len(rs.Rule))
			}
			return nil
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		created := 0
		for _, rs := range in.RuleSets {
			enabled := rs.Enabled
			_, err := c.CreateRuleSet(cmd.Context(), client.CreateRequest{
				Name: rs.Name, Mode: rs.Mode, Rule: rs.Rule, Enabled: &enabled,
			})
			if err != nil {
				return fmt.Errorf("failed to import %q after %d created: %w", rs.Name, created, err)
			}
			created++
		}

		if !quiet {
			fmt.Fprintf(out, "Successfully imported %d rule set(s)\n", created)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and show what would be imported")
}
