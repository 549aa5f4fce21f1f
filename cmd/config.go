package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/marcus/ordr/internal/config"
	"github.com/marcus/ordr/internal/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage ordr configuration",
	Long:    `Reads and writes ~/.config/ordr/config.json. Environment variables override file values.`,
	GroupID: "system",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value (empty value clears it)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if err := config.Set(key, val); err != nil {
			output.Error("%v", err)
			if errors.Is(err, config.ErrUnknownKey) {
				fmt.Println("Valid keys:", strings.Join(config.Keys(), ", "))
			}
			return err
		}
		output.Success("set %s = %s", key, val)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get the effective value of a config key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.Get(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List config keys with effective values",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, k := range config.Keys() {
			v, _ := config.Get(k)
			fileVal, err := config.GetFile(k)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			source := "default"
			switch {
			case envSet(config.EnvVar(k)):
				source = "env " + config.EnvVar(k)
			case fileVal != "":
				source = "config"
			}
			fmt.Printf("%-18s %-30s (%s)\n", k, v, source)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show version",
	GroupID: "system",
	Run: func(cmd *cobra.Command, args []string) {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Print(versionStr)
			return
		}
		fmt.Printf("ordr version %s\n", versionStr)
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	versionCmd.Flags().Bool("short", false, "print only the version")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func envSet(key string) bool {
	return os.Getenv(key) != ""
}
