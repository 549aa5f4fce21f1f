package cmd

import (
	"errors"
	"fmt"

	"github.com/marcus/ordr/internal/models"
	"github.com/marcus/ordr/internal/output"
	"github.com/marcus/ordr/internal/remote"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:     "update <order>",
	Aliases: []string{"edit"},
	Short:   "Update an order's fields",
	Long: `Update an order by id or order number. Only the flags given are
changed. The order number itself cannot be changed.`,
	Example: `  ordr update IJD101 --status delivered --delivered yes
  ordr edit 1002 --form`,
	Args:    cobra.ExactArgs(1),
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer sess.Close()

		current, err := sess.resolveOrder(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		fields, err := fieldsFromFlags(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		useForm, _ := cmd.Flags().GetBool("form")
		if useForm || (fields.IsEmpty() && interactive()) {
			draft := current
			fields.Apply(&draft)
			if err := orderForm(&draft, false); err != nil {
				output.Error("%v", err)
				return err
			}
			fields = models.FieldsFromOrder(draft)
		}
		if fields.IsEmpty() {
			output.Error("nothing to update: pass at least one field flag")
			return errors.New("nothing to update")
		}

		o, err := sess.store.Update(current.ID, fields)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		sess.warnIfUnsaved()

		fmt.Printf("UPDATED %s\n", output.FormatOrderShort(o))
		sess.pushChange(cmd.Context(), remote.ActionUpdate, o)
		return nil
	},
}

func init() {
	addOrderFlags(updateCmd)
	updateCmd.Flags().Bool("form", false, "edit the order interactively")
	rootCmd.AddCommand(updateCmd)
}
