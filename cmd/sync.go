package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/marcus/ordr/internal/models"
	"github.com/marcus/ordr/internal/output"
	ordrsync "github.com/marcus/ordr/internal/sync"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect [url]",
	Short: "Connect to a spreadsheet script endpoint",
	Long: `Tests the endpoint, remembers it for this project, and replaces the
local orders with the remote sheet's contents. Without a url the
remembered endpoint (or remote.url from config) is used.`,
	Args:    cobra.MaximumNArgs(1),
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer sess.Close()

		ep := sess.endpoint()
		if len(args) > 0 {
			ep = strings.TrimSpace(args[0])
		}

		fmt.Printf("Testing %s ...\n", ep)
		n, err := sess.coord.TestAndConnect(cmd.Context(), ep)
		switch {
		case errors.Is(err, ordrsync.ErrInitialSyncFailed):
			sess.warnIfUnsaved()
			output.Success("connected")
			output.Warning("%v", err)
			return nil
		case err != nil:
			output.Error("connection failed: %v", err)
			return err
		}
		sess.warnIfUnsaved()
		output.Success("connected, %d orders loaded from remote", n)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reload orders from the remote sheet",
	Long: `Replaces local orders with the remote sheet's contents. With --push
every local order is uploaded instead, one at a time.`,
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer sess.Close()

		ep := sess.endpoint()
		if ep == "" {
			err := fmt.Errorf("%w: run 'ordr connect <url>' first", ordrsync.ErrNotConnected)
			output.Error("%v", err)
			return err
		}
		if err := sess.coord.Validate(cmd.Context(), ep); err != nil {
			output.Error("connection failed: %v", err)
			return err
		}

		if push, _ := cmd.Flags().GetBool("push"); push {
			orders := sess.store.List()
			if len(orders) == 0 {
				output.Warning("no local orders to upload")
				return nil
			}
			fmt.Printf("Uploading %d orders ...\n", len(orders))
			tally := sess.coord.BulkPropagate(cmd.Context(), orders)
			for _, f := range tally.Failures {
				output.Warning("%s: %v", f.OrderNumber, f.Err)
			}
			if tally.Failed > 0 {
				output.Warning("uploaded %d, failed %d", tally.Succeeded, tally.Failed)
				return fmt.Errorf("%d of %d orders not uploaded", tally.Failed, tally.Total())
			}
			output.Success("uploaded %d orders", tally.Succeeded)
			return nil
		}

		n, err := sess.coord.Reconcile(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		sess.warnIfUnsaved()
		output.Success("synced %d orders from remote", n)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show remote connection status and order counts",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer sess.Close()

		ep := sess.endpoint()
		state := models.ConnDisconnected
		if check, _ := cmd.Flags().GetBool("check"); check && ep != "" {
			if err := sess.coord.Validate(cmd.Context(), ep); err != nil {
				output.Warning("%v", err)
			}
			state = sess.coord.Status().Status
		}
		counts := models.CountOrders(sess.store.List())

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(map[string]interface{}{
				"endpoint":  ep,
				"status":    state,
				"counts":    counts,
				"lastSaved": sess.store.LastSaved(),
			})
		}

		if ep == "" {
			fmt.Println("Remote: not configured")
		} else {
			fmt.Printf("Remote: %s\n", ep)
			if check, _ := cmd.Flags().GetBool("check"); check {
				fmt.Printf("Status: %s\n", output.FormatConnection(state))
			}
		}
		fmt.Printf("Orders: %d total, %d delivered, %d pending, %d cancelled\n",
			counts.Total, counts.Delivered, counts.Pending, counts.Cancelled)
		if saved := sess.store.LastSaved(); !saved.IsZero() {
			fmt.Printf("Saved:  %s\n", output.FormatTimeAgo(saved))
		}
		return nil
	},
}

var lookupCmd = &cobra.Command{
	Use:     "lookup <order-number>",
	Short:   "Look up an order's status on the remote sheet",
	Args:    cobra.ExactArgs(1),
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer sess.Close()

		ep, _ := cmd.Flags().GetString("url")
		if ep == "" {
			ep = sess.endpoint()
		}
		o, err := sess.coord.Lookup(cmd.Context(), ep, strings.TrimSpace(args[0]))
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(o)
		}
		fmt.Print(output.FormatOrderLong(o))
		fmt.Println("Progress: " + output.FormatProgress(o.OrderStatus))
		return nil
	},
}

var disconnectCmd = &cobra.Command{
	Use:     "disconnect",
	Short:   "Forget the remembered remote endpoint",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer sess.Close()

		sess.coord.Disconnect()
		sess.warnIfUnsaved()
		output.Success("disconnected; local orders kept")
		return nil
	},
}

func init() {
	syncCmd.Flags().Bool("push", false, "upload every local order instead of downloading")
	statusCmd.Flags().Bool("check", false, "test the remote endpoint")
	statusCmd.Flags().Bool("json", false, "output as JSON")
	lookupCmd.Flags().String("url", "", "endpoint to query instead of the remembered one")
	lookupCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(disconnectCmd)
}
