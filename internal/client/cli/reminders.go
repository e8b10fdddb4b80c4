package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/bloombuddy/internal/reminderview"
	"github.com/dmitrijs2005/bloombuddy/internal/rpcapi"
)

func reminderStatus(r rpcapi.Reminder) string {
	switch {
	case r.IsCompleted:
		return "done"
	case r.Overdue:
		return "OVERDUE"
	}
	return "pending"
}

func remindersCmd(e *env) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Show care reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := reminderview.ParseFilter(filter); err != nil {
				return err
			}

			api, err := e.connect(cmd)
			if err != nil {
				return err
			}
			defer api.Close()

			ctx, cancel := e.requestContext(cmd.Context())
			defer cancel()

			resp, err := api.ListReminders(ctx, filter)
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			if len(resp.Reminders) == 0 {
				fmt.Fprintf(out, "No %s reminders.\n", filter)
			} else {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tPLANT\tTASK\tDUE\tSTATUS")
				for _, r := range resp.Reminders {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.PlantName, r.TaskLabel, r.DueDate, reminderStatus(r))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}

			counts := make([]string, 0, len(reminderview.Filters))
			for _, f := range reminderview.Filters {
				counts = append(counts, fmt.Sprintf("%s: %d", f, resp.Counts[string(f)]))
			}
			fmt.Fprintln(out, strings.Join(counts, "  "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", string(reminderview.All), "all, upcoming, overdue or completed")
	return cmd
}

func completeCmd(e *env, name string, completed bool) *cobra.Command {
	short := "Mark a reminder as done"
	if !completed {
		short = "Mark a reminder as not done"
	}

	return &cobra.Command{
		Use:   name + " <reminder-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid reminder id %q", args[0])
			}

			api, err := e.connect(cmd)
			if err != nil {
				return err
			}
			defer api.Close()

			ctx, cancel := e.requestContext(cmd.Context())
			defer cancel()

			if err := api.SetReminderCompleted(ctx, id, completed); err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminder %d marked %s\n", id, name)
			return nil
		},
	}
}
