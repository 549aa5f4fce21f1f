package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/marcus/ordr/internal/models"
	"github.com/marcus/ordr/internal/output"
	"github.com/marcus/ordr/internal/remote"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:     "create [order-number]",
	Aliases: []string{"add", "new"},
	Short:   "Create a new order",
	Long: `Create a new order. Fields come from flags; with --form (or no order
number on a terminal) an interactive form is shown.`,
	Example: `  ordr create IJD101 --party Tawfik --date today --contact 1234567890
  ordr add --form`,
	Args:    cobra.MaximumNArgs(1),
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer sess.Close()

		fields, err := fieldsFromFlags(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		var number string
		if len(args) > 0 {
			number = strings.TrimSpace(args[0])
		}

		useForm, _ := cmd.Flags().GetBool("form")
		if useForm || (number == "" && interactive()) {
			draft := models.Order{OrderNumber: number}
			fields.Apply(&draft)
			if err := orderForm(&draft, true); err != nil {
				output.Error("%v", err)
				return err
			}
			number = draft.OrderNumber
			fields = models.FieldsFromOrder(draft)
		}

		if number == "" {
			output.Error("order number is required")
			return errors.New("order number is required")
		}

		// new orders start Pending / not delivered unless told otherwise
		if fields.OrderStatus == nil || *fields.OrderStatus == "" {
			s := models.DefaultOrderStatus
			fields.OrderStatus = &s
		}
		if fields.Delivered == nil || *fields.Delivered == "" {
			d := models.DefaultDelivered
			fields.Delivered = &d
		}
		fields.OrderNumber = &number

		o, err := sess.store.Create(fields)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		sess.warnIfUnsaved()

		fmt.Printf("CREATED %s\n", output.FormatOrderShort(o))
		sess.pushChange(cmd.Context(), remote.ActionCreate, o)
		return nil
	},
}

func init() {
	addOrderFlags(createCmd)
	createCmd.Flags().Bool("form", false, "fill in the order interactively")
	rootCmd.AddCommand(createCmd)
}
