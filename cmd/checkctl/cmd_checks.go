package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	addOwner   string
	addMethod  string
	addCodes   []int
	addTimeout int
	listOwner  string
)

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a check (e.g. https://example.com/health)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]
		if !strings.Contains(target, "://") {
			target = "https://" + target
		}
		c, err := newClient().Add(cmd.Context(), NewCheck{
			OwnerContact:   addOwner,
			URL:            target,
			Method:         strings.ToUpper(addMethod),
			SuccessCodes:   addCodes,
			TimeoutSeconds: addTimeout,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s %s://%s)\n", c.ID, c.Method, c.Protocol, c.URL)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List checks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		checks, err := newClient().List(cmd.Context(), listOwner)
		if err != nil {
			return err
		}
		printChecks(cmd.OutOrStdout(), checks)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a check",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addOwner, "owner", "", "phone number alerts are sent to")
	addCmd.Flags().StringVar(&addMethod, "method", "GET", "HTTP method (GET, POST, PUT or DELETE)")
	addCmd.Flags().IntSliceVar(&addCodes, "codes", []int{200}, "status codes that count as up")
	addCmd.Flags().IntVar(&addTimeout, "timeout", 3, "timeout in seconds (1-5)")
	_ = addCmd.MarkFlagRequired("owner")

	listCmd.Flags().StringVar(&listOwner, "owner", "", "only show checks for this owner")

	rootCmd.AddCommand(addCmd, listCmd, deleteCmd)
}

func printChecks(w io.Writer, checks []Check) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tMETHOD\tTARGET\tLAST CHECKED")
	for _, c := range checks {
		last := "-"
		if c.LastChecked > 0 {
			last = time.UnixMilli(c.LastChecked).UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s://%s\t%s\n", c.ID, c.State, c.Method, c.Protocol, c.URL, last)
	}
	_ = tw.Flush()
}
