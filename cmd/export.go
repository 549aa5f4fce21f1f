package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/marcus/ordr/internal/csvcodec"
	"github.com/marcus/ordr/internal/models"
	"github.com/marcus/ordr/internal/output"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:       "export <csv|json>",
	Short:     "Export orders as CSV or a JSON backup",
	Example:   "  ordr export csv -o orders.csv\n  ordr export json -o orders-backup.json",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"csv", "json"},
	GroupID:   "data",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer sess.Close()

		orders := sess.store.List()
		var data []byte
		switch args[0] {
		case "csv":
			if len(orders) == 0 {
				output.Warning("no orders to export")
				return nil
			}
			data = []byte(csvcodec.Encode(orders) + "\n")
		case "json":
			data, err = json.MarshalIndent(models.NewExport(orders, time.Now()), "", "  ")
			if err != nil {
				return err
			}
			data = append(data, '\n')
		default:
			err := fmt.Errorf("unknown format %q (valid: csv, json)", args[0])
			output.Error("%v", err)
			return err
		}

		path, _ := cmd.Flags().GetString("output")
		if path == "" || path == "-" {
			_, err := os.Stdout.Write(data)
			return err
		}
		if err := writeFileAtomic(path, data); err != nil {
			output.Error("write %s: %v", path, err)
			return err
		}
		output.Success("exported %d orders to %s", len(orders), path)
		return nil
	},
}

// writeFileAtomic writes data to a temp file beside path, then renames it.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ordr-export-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

var clearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Delete every local order",
	Long:    `Removes all local orders. The remote sheet is not touched and the remembered endpoint is kept.`,
	GroupID: "data",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			ok, err := confirm("Clear all local data?", "This cannot be undone.")
			if err != nil {
				if errors.Is(err, errNotInteractive) {
					err = errors.New("pass --yes to clear without a prompt")
				}
				output.Error("%v", err)
				return err
			}
			if !ok {
				fmt.Println("Cancelled")
				return nil
			}
		}

		sess, err := openSession()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer sess.Close()

		n := sess.store.Len()
		sess.store.Clear()
		sess.warnIfUnsaved()
		output.Success("cleared %d orders", n)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	clearCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(clearCmd)
}
