package cmd

import (
	"fmt"

	"github.com/marcus/ordr/internal/output"
	"github.com/marcus/ordr/internal/remote"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <order> [order...]",
	Aliases: []string{"rm"},
	Short:   "Delete one or more orders",
	Long:    `Delete orders by id or order number. Deletion is immediate and cannot be undone.`,
	Args:    cobra.MinimumNArgs(1),
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer sess.Close()

		var firstErr error
		for _, ref := range args {
			o, err := sess.resolveOrder(ref)
			if err == nil {
				o, err = sess.store.Delete(o.ID)
			}
			if err != nil {
				output.Error("%v", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			sess.warnIfUnsaved()
			fmt.Printf("DELETED %s\n", o.OrderNumber)
			sess.pushChange(cmd.Context(), remote.ActionDelete, o)
		}
		return firstErr
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
