package main

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear variables persisted across invocations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List persisted session variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := a.store.Load()
			if err != nil {
				return err
			}

			names := make([]string, 0, len(values))
			for name := range values {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", name, values[name])
			}
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Remove all persisted session variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store.Clear()
		},
	}

	cmd.AddCommand(list, clear)
	return cmd
}

func (a *app) historyCommand() *cobra.Command {
	var (
		limit   int
		command string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent command invocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.hist.Load(); err != nil {
				return err
			}

			entries := a.hist.ByCommand(command)
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tCOMMAND\tMETHOD\tSTATUS\tDURATION\tERROR")
			for _, entry := range entries {
				status := entry.Status
				if status == "" && entry.Error == "" {
					status = "ok"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					entry.ExecutedAt.Local().Format("2006-01-02 15:04:05"),
					entry.Command,
					entry.Method,
					status,
					entry.Duration.Round(time.Millisecond),
					entry.Error,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	cmd.Flags().StringVar(&command, "command", "", "Only show invocations of this command")
	return cmd
}
