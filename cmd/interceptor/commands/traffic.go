package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/interceptor/internal/cli"
	"github.com/TimurManjosov/interceptor/internal/engine"
	"github.com/TimurManjosov/interceptor/internal/operator"
)

var (
	evPlatform string
	evGuild    string
	evUser     string
	evContent  string
	evPrivate  bool
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Ask for a decision on a sample event",
	Long: `Send an event to the service and print whether it would pass.

Examples:
  interceptor decide --platform qq --user 42 --content "hello"
  interceptor decide --platform discord --guild 7 --user 42 --content "buy now" --format json`,
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

		res, err := c.Decide(cmd.Context(), engine.Event{
			Platform:       evPlatform,
			GuildID:        evGuild,
			UserID:         evUser,
			Content:        evContent,
			ChannelPrivate: evPrivate,
		})
		if err != nil {
			return fmt.Errorf("failed to decide: %w", err)
		}
		if quiet {
			return nil
		}
		return cli.PrintDecision(cmd.OutOrStdout(), res, f)
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <message...>",
	Short: "Send a message to the operator console",
	Long: `Deliver a chat message to the operator console and print its reply.
Root commands need --private; edit commands work on any channel once a rule
set is selected.

Examples:
  interceptor send --platform qq --user 1 --private list
  interceptor send --platform qq --user 1 --private select 2
  interceptor send --platform qq --user 1 add message in buy now`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		reply, err := c.SendMessage(cmd.Context(), operator.Message{
			Platform:       evPlatform,
			UserID:         evUser,
			ChannelPrivate: evPrivate,
			Content:        strings.Join(args, " "),
		})
		if err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
		if quiet {
			return nil
		}
		if !reply.Handled {
			fmt.Fprintln(cmd.OutOrStdout(), "(not handled by the console)")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
		return nil
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show edit sessions and administrators",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		info, err := c.Sessions(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get sessions: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Active edit sessions: %d (ttl %ds)\n", info.Active, info.TTLSeconds)
		fmt.Fprintf(out, "Administrators: %s\n", strings.Join(info.Admins, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decideCmd, sendCmd, sessionsCmd)

	for _, c := range []*cobra.Command{decideCmd, sendCmd} {
		c.Flags().StringVar(&evPlatform, "platform", "", "Chat platform")
		c.Flags().StringVar(&evUser, "user", "", "Sender id")
		c.Flags().BoolVar(&evPrivate, "private", false, "Message arrived on a private channel")
		_ = c.MarkFlagRequired("platform")
		_ = c.MarkFlagRequired("user")
	}
	decideCmd.Flags().StringVar(&evGuild, "guild", "", "Guild id")
	decideCmd.Flags().StringVar(&evContent, "content", "", "Message content")
}
