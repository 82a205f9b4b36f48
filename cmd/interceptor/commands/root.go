package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/interceptor/internal/cli"
	"github.com/TimurManjosov/interceptor/internal/client"
)

var (
	// Global flags
	baseURL string
	apiKey  string
	profile string
	format  string
	quiet   bool
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "interceptor",
	Short: "CLI tool for managing interceptor rule sets",
	Long: `interceptor is a command-line tool for the interceptor service.

It manages rule sets, asks the service for decisions on sample events and
talks to the operator console the way a chat adapter would.

Examples:
  interceptor list
  interceptor create spam --mode blacklist --condition "message in buy now"
  interceptor decide --platform qq --user 42 --content "hello"
  interceptor send --platform qq --user 1 --private "select 1"
  interceptor export --output rulesets.yaml`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the interceptor API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Profile from the config file")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}

// newClient resolves the active profile and builds an API client.
func newClient() (*client.Client, error) {
	p, _, err := cli.GetProfile(profile, baseURL, apiKey)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return client.NewClient(p.BaseURL, p.APIKey), nil
}

func outputFormat() (cli.OutputFormat, error) {
	return cli.ParseFormat(format)
}
