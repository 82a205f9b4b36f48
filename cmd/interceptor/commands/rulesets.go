package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/interceptor/internal/cli"
	"github.com/TimurManjosov/interceptor/internal/client"
	"github.com/TimurManjosov/interceptor/internal/rules"
)

var (
	createMode       string
	createConditions []string
	createDisabled   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List rule sets",
	Long: `List every rule set in evaluation order.

Examples:
  interceptor list
  interceptor list --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat()
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}

		sets, err := c.ListRuleSets(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list rule sets: %w", err)
		}
		if quiet {
			return nil
		}
		return cli.PrintRuleSets(cmd.OutOrStdout(), sets, f)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a rule set",
	Long: `Get details of a specific rule set.

Examples:
  interceptor get 3
  interceptor get 3 --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		f, err := outputFormat()
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}

		rs, err := c.GetRuleSet(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get rule set: %w", err)
		}
		if quiet {
			return nil
		}
		return cli.PrintRuleSet(cmd.OutOrStdout(), rs, f)
	},
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a rule set",
	Long: `Create a rule set. Conditions are given as "type compare target" and
combined with AND; the target may contain spaces.

Examples:
  interceptor create friends
  interceptor create spam --mode blacklist --condition "message in buy now"
  interceptor create qq-admins --condition "platform eq qq" --condition "user eq 42"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rule, err := parseConditions(createConditions)
		if err != nil {
			return err
		}
		req := client.CreateRequest{Name: args[0], Rule: rule}
		if createMode != "" {
			mode, ok := rules.LookupMode(createMode)
			if !ok {
				return fmt.Errorf("invalid mode %q: want whitelist or blacklist", createMode)
			}
			req.Mode = mode
		}
		if createDisabled {
			enabled := false
			req.Enabled = &enabled
		}

		f, err := outputFormat()
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}

		rs, err := c.CreateRuleSet(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to create rule set: %w", err)
		}
		if quiet {
			return nil
		}
		return cli.PrintRuleSet(cmd.OutOrStdout(), rs, f)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a rule set",
	Long: `Delete a rule set. Operators editing it are told on their next message.

Example:
  interceptor delete 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}

		if err := c.DeleteRuleSet(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete rule set: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted rule set %d\n", id)
		}
		return nil
	},
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", raw)
	}
	return id, nil
}

// parseConditions turns "type compare target" strings into a rule.
func parseConditions(specs []string) (rules.Rule, error) {
	rule := rules.Rule{}
	for _, spec := range specs {
		parts := strings.SplitN(strings.TrimSpace(spec), " ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid condition %q: want \"type compare target\"", spec)
		}
		c, err := rules.ParseCondition(parts[0], parts[1], parts[2])
		if err != nil {
			return nil, fmt.Errorf("invalid condition %q: %w", spec, err)
		}
		rule = append(rule, c)
	}
	return rule, nil
}

func init() {
	rootCmd.AddCommand(listCmd, getCmd, createCmd, deleteCmd)

	createCmd.Flags().StringVar(&createMode, "mode", "", "whitelist or blacklist (default whitelist)")
	createCmd.Flags().StringArrayVar(&createConditions, "condition", nil, `Condition "type compare target" (repeatable)`)
	createCmd.Flags().BoolVar(&createDisabled, "disabled", false, "Create the rule set switched off")
}
