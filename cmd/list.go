package cmd

import (
	"fmt"

	"github.com/marcus/ordr/internal/models"
	"github.com/marcus/ordr/internal/output"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List orders, newest order date first",
	Example: `  ordr list --search tawfik
  ordr ls --status pending --delivered no`,
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer sess.Close()

		search, _ := cmd.Flags().GetString("search")
		status, _ := cmd.Flags().GetString("status")
		delivered, _ := cmd.Flags().GetString("delivered")
		limit, _ := cmd.Flags().GetInt("limit")

		f := models.Filter{Search: search}
		if status != "" {
			f.Status = models.NormalizeStatus(status)
		}
		if delivered != "" {
			f.Delivered = models.NormalizeDelivered(delivered)
		}

		orders := f.Apply(sess.store.List())
		models.SortByDateDesc(orders)
		if limit > 0 && len(orders) > limit {
			orders = orders[:limit]
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(orders)
		}
		if len(orders) == 0 {
			fmt.Println("No orders found")
			return nil
		}
		for _, o := range orders {
			fmt.Println(output.FormatOrderShort(o))
		}
		return nil
	},
}

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash"},
	Short:   "Show order totals and recent orders",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer sess.Close()

		orders := sess.store.List()
		counts := models.CountOrders(orders)
		recent := models.Recent(orders, 5)

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(map[string]interface{}{
				"counts": counts,
				"recent": recent,
			})
		}
		fmt.Print(output.Dashboard(counts, recent))
		return nil
	},
}

func init() {
	listCmd.Flags().StringP("search", "s", "", "match order number, party or contact")
	listCmd.Flags().String("status", "", "only orders with this status")
	listCmd.Flags().String("delivered", "", "only delivered (yes) or undelivered (no) orders")
	listCmd.Flags().IntP("limit", "n", 0, "maximum orders to show")
	listCmd.Flags().Bool("json", false, "output as JSON")
	dashboardCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(dashboardCmd)
}
