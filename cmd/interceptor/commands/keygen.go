package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/interceptor/internal/auth"
	"github.com/TimurManjosov/interceptor/internal/webhook"
)

var keygenWebhook bool

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an API key",
	Long: `Generate a random API key and its bcrypt hash. Put the hash in
ADMIN_API_KEY or CLIENT_API_KEY and hand the key to the caller.

With --webhook, generate a WEBHOOK_SECRET instead.

Example:
  interceptor keygen
  interceptor keygen --webhook`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if keygenWebhook {
			secret, err := webhook.GenerateSecret()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "secret: %s\n", secret)
			return nil
		}

		key, err := auth.GenerateAPIKey()
		if err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}
		hash, err := auth.HashAPIKey(key)
		if err != nil {
			return fmt.Errorf("failed to hash key: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "key:  %s\n", key)
		fmt.Fprintf(out, "hash: %s\n", hash)
		return nil
	},
}

func init() {
	keygenCmd.Flags().BoolVar(&keygenWebhook, "webhook", false, "generate a webhook signing secret")
	rootCmd.AddCommand(keygenCmd)
}
