package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewPromptCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Show or set daily prompts",
	}
	cmd.AddCommand(newPromptShowCommand(rootOpts))
	cmd.AddCommand(newPromptSetCommand(rootOpts))
	return cmd
}

func newPromptShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [YYYY-MM-DD]",
		Short: "Show the prompt for today or a given date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			date := "today"
			if len(args) == 1 {
				date = args[0]
			}

			p, err := c.Prompt(cmd.Context(), date)
			if err != nil {
				return err
			}
			if p == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "No prompt set for %s\n", date)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", p.Date, p.Text)
			return nil
		},
	}
}

func newPromptSetCommand(opts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "set <text>",
		Short: "Set the prompt for today or a future date (admin)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.authedClient()
			if err != nil {
				return err
			}
			p, err := c.SetPrompt(cmd.Context(), date, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Prompt for %s set: %s\n", p.Date, p.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "today", "YYYY-MM-DD, today or later")
	return cmd
}
