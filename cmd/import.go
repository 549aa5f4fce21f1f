package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/marcus/ordr/internal/csvcodec"
	"github.com/marcus/ordr/internal/output"
	"github.com/spf13/cobra"
)

const (
	importReplace = "replace"
	importAppend  = "append"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv|->",
	Short: "Import orders from CSV",
	Long: `Import orders from a CSV file, or from stdin with "-". Every imported
row gets a new id. Choose --replace to discard existing orders or --append
to keep them; on a terminal you are asked when neither is given.`,
	Example: `  ordr import orders.csv --append
  pbpaste | ordr import - --replace`,
	Args:    cobra.ExactArgs(1),
	GroupID: "data",
	RunE: func(cmd *cobra.Command, args []string) error {
		replace, _ := cmd.Flags().GetBool("replace")
		appendFlag, _ := cmd.Flags().GetBool("append")
		if replace && appendFlag {
			err := errors.New("--replace and --append are mutually exclusive")
			output.Error("%v", err)
			return err
		}

		text, err := readImport(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		res, err := csvcodec.Decode(text)
		if res != nil {
			for _, s := range res.Skipped {
				output.Warning("skipped line %d (%d fields): %s", s.Line, s.Fields, s.Text)
			}
		}
		if err != nil {
			output.Error("%v", err)
			return err
		}

		mode := ""
		switch {
		case replace:
			mode = importReplace
		case appendFlag:
			mode = importAppend
		default:
			mode, err = choose(
				fmt.Sprintf("Found %d orders in CSV", len(res.Orders)),
				huh.NewOption("Append to existing orders", importAppend),
				huh.NewOption("Replace existing orders", importReplace),
			)
			if errors.Is(err, errNotInteractive) {
				err = errors.New("pass --replace or --append when not running in a terminal")
			}
			if err != nil {
				output.Error("%v", err)
				return err
			}
		}

		sess, err := openSession()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer sess.Close()

		if mode == importReplace {
			sess.store.ReplaceAll(res.Orders)
		} else {
			sess.store.AppendAll(res.Orders)
		}
		sess.warnIfUnsaved()

		output.Success("imported %d orders (%s)", len(res.Orders), mode)
		return nil
	},
}

// readImport reads the CSV source. Files must carry a .csv extension.
func readImport(src string) (string, error) {
	if src == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	if !strings.EqualFold(filepath.Ext(src), ".csv") {
		return "", fmt.Errorf("%s: please select a CSV file", src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func init() {
	importCmd.Flags().Bool("replace", false, "replace all existing orders")
	importCmd.Flags().Bool("append", false, "append to existing orders")
	rootCmd.AddCommand(importCmd)
}
