package cmd

import (
	"fmt"

	"github.com/marcus/ordr/internal/output"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <order>",
	Short:   "Show all fields of an order",
	Args:    cobra.ExactArgs(1),
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer sess.Close()

		o, err := sess.resolveOrder(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(o)
		}
		if md, _ := cmd.Flags().GetBool("markdown"); md {
			rendered, err := output.RenderOrder(o, output.TerminalWidth())
			if err != nil {
				output.Error("render: %v", err)
				return err
			}
			fmt.Println(rendered)
			return nil
		}
		fmt.Print(output.FormatOrderLong(o))
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("json", false, "output as JSON")
	showCmd.Flags().Bool("markdown", false, "render as a markdown card")
	rootCmd.AddCommand(showCmd)
}
