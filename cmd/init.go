package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcus/ordr/internal/db"
	"github.com/marcus/ordr/internal/models"
	"github.com/marcus/ordr/internal/output"
	"github.com/marcus/ordr/internal/store"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize order tracking in this directory",
	Long:    `Creates the local .ordr directory and SQLite database.`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := getBaseDir()
		sample, _ := cmd.Flags().GetBool("sample")

		existed := db.Exists(dir)
		database, err := db.Initialize(dir)
		if err != nil {
			output.Error("failed to initialize database: %v", err)
			return err
		}
		defer database.Close()

		if existed {
			output.Warning(".ordr/ already exists")
		} else {
			fmt.Println("INITIALIZED .ordr/")
			addToGitignore(filepath.Join(dir, ".gitignore"))
		}

		if !sample {
			return nil
		}
		st := store.Load(database.Snapshots())
		if st.Len() > 0 {
			output.Warning("orders already present, sample data not loaded")
			return nil
		}
		st.AppendAll(sampleOrders())
		if err := st.LastSaveError(); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("loaded %d sample orders", st.Len())
		return nil
	},
}

// sampleOrders is the demo data offered on first run
func sampleOrders() []models.Order {
	orders := []models.Order{
		{OrderNumber: "IJD101", PartyName: "Tawfik", OrderDate: "2024-09-17", OrderStatus: models.StatusDelivered,
			ExpectedDelivery: "2024-09-25", Delivered: models.DeliveredNo, Contact: "1234567890", ImageURLs: "https://example.com/image1.jpg"},
		{OrderNumber: "1002", PartyName: "Munmun", OrderDate: "2024-09-18", OrderStatus: models.StatusCancelled,
			ExpectedDelivery: "2024-09-22", Delivered: models.DeliveredYes, Contact: "9876543210", ImageURLs: "https://example.com/image2.jpg"},
		{OrderNumber: "1003", PartyName: "Diamond Works", OrderDate: "2024-09-19", OrderStatus: models.StatusDelivered,
			ExpectedDelivery: "2024-09-24", Delivered: models.DeliveredNo, Contact: "1122334455", ImageURLs: "https://example.com/image3.jpg"},
	}
	for i := range orders {
		orders[i].ID = models.NewOrderID()
	}
	return orders
}

// addToGitignore appends .ordr/ to an existing .gitignore
func addToGitignore(path string) {
	content, err := os.ReadFile(path)
	if err != nil || strings.Contains(string(content), ".ordr/") {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		f.WriteString("\n")
	}
	f.WriteString(".ordr/\n")
	fmt.Println("Added .ordr/ to .gitignore")
}

func init() {
	initCmd.Flags().Bool("sample", false, "load three sample orders into an empty project")
	rootCmd.AddCommand(initCmd)
}
