package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"tbsu/internal/alerts"
	"tbsu/internal/frame"
)

type targetFlags struct {
	channel, webhook, alerter string
}

func (t *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&t.channel, "channel", "c", "", "stored channel to post to")
	cmd.Flags().StringVar(&t.webhook, "webhook", "", "webhook URL, overrides --channel")
	cmd.Flags().StringVarP(&t.alerter, "alerter", "a", "", "stored alerter to post as")
	cmd.MarkFlagsOneRequired("channel", "webhook")
}

func (t *targetFlags) target() alerts.Target {
	return alerts.Target{Channel: t.channel, Webhook: t.webhook, AlerterID: t.alerter}
}

func (c *cli) alertCmd() *cobra.Command {
	var (
		target targetFlags
		table  string
	)

	cmd := &cobra.Command{
		Use:   "alert TEXT",
		Short: "Post a message to Slack",
		Example: `  tbsu alert -c ops -a robot "nightly load finished"
  tbsu alert -c ops --table counts.csv "Row counts"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[0]
			if table != "" {
				f, err := frame.ReadFile(table)
				if err != nil {
					return err
				}
				text = alerts.MessageWithTable(text, f)
			}
			return c.app.Notifier.Alert(cmd.Context(), text, target.target())
		},
	}
	target.register(cmd)
	cmd.Flags().StringVar(&table, "table", "", "CSV/XLSX file rendered as a table under the text")
	return cmd
}

func (c *cli) monitorCmd() *cobra.Command {
	var (
		target targetFlags
		text   string
		silent bool
	)

	cmd := &cobra.Command{
		Use:     "monitor -- COMMAND [ARG...]",
		Short:   "Run a command and alert Slack when it fails",
		Example: `  tbsu monitor -c ops -a skull --text "backup failed" -- ./backup.sh /data`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alertText := alerts.NewAlertText(text)
			if alertText.Text == "" {
				alertText.Text = fmt.Sprintf("`%s` failed", strings.Join(args, " "))
			}
			alertText.Active = !silent

			return c.app.Notifier.Monitor(cmd.Context(), alertText, target.target(), func(ctx context.Context) error {
				child := exec.CommandContext(ctx, args[0], args[1:]...)
				child.Stdin = os.Stdin
				child.Stdout = cmd.OutOrStdout()
				child.Stderr = cmd.ErrOrStderr()
				return child.Run()
			})
		},
	}
	target.register(cmd)
	cmd.Flags().StringVarP(&text, "text", "t", "", "alert text (default: the failed command line)")
	cmd.Flags().BoolVar(&silent, "silent", false, "run without alerting, only log failures")
	return cmd
}

func (c *cli) alertersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerters",
		Short: "Manage the identities alerts are posted as",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored alerters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stored, err := c.app.Registry.Alerters()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(stored))
			for _, id := range sortedKeys(stored) {
				rows = append(rows, []string{id, stored[id].Username, stored[id].Emoji})
			}
			printTable(cmd.OutOrStdout(), []string{"id", "username", "emoji"}, rows)
			return nil
		},
	}

	var overwrite bool
	store := &cobra.Command{
		Use:   "store ID USERNAME EMOJI",
		Short: "Store an alerter",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Registry.StoreAlerters(map[string]alerts.Alerter{
				args[0]: {Username: args[1], Emoji: args[2]},
			}, overwrite)
		},
	}
	store.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing alerter with the same id")

	var overwriteDefaults bool
	defaults := &cobra.Command{
		Use:   "defaults",
		Short: "Store the built-in alerters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Registry.StoreDefaultAlerters(overwriteDefaults)
		},
	}
	defaults.Flags().BoolVar(&overwriteDefaults, "overwrite", false, "replace stored alerters that share a default id")

	remove := &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete stored alerters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Registry.DeleteAlerters(args...)
		},
	}

	cmd.AddCommand(list, store, defaults, remove)
	return cmd
}

func (c *cli) channelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Manage the Slack webhooks alerts can be posted to",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stored, err := c.app.Registry.Channels()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(stored))
			for _, id := range sortedKeys(stored) {
				rows = append(rows, []string{id, stored[id]})
			}
			printTable(cmd.OutOrStdout(), []string{"channel", "webhook"}, rows)
			return nil
		},
	}

	store := &cobra.Command{
		Use:   "store CHANNEL WEBHOOK",
		Short: "Store or replace a channel webhook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Registry.StoreChannels(map[string]string{args[0]: args[1]})
		},
	}

	remove := &cobra.Command{
		Use:   "delete CHANNEL...",
		Short: "Delete stored channels",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Registry.DeleteChannels(args...)
		},
	}

	cmd.AddCommand(list, store, remove)
	return cmd
}
