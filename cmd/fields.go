package cmd

import (
	"fmt"
	"strings"

	"github.com/marcus/ordr/internal/dateparse"
	"github.com/marcus/ordr/internal/models"
	"github.com/marcus/ordr/internal/output"
	"github.com/marcus/ordr/internal/suggest"
	"github.com/spf13/cobra"
)

// addOrderFlags registers the editable order fields on cmd
func addOrderFlags(cmd *cobra.Command) {
	cmd.Flags().String("party", "", "party (customer) name")
	cmd.Flags().String("date", "", "order date (YYYY-MM-DD, today, +3d, fri)")
	cmd.Flags().String("status", "", "order status: "+strings.Join(models.KnownStatuses(), ", "))
	cmd.Flags().String("expected", "", "expected delivery date (YYYY-MM-DD, +7d, ...)")
	cmd.Flags().String("delivered", "", "delivered flag: yes or no")
	cmd.Flags().String("contact", "", "contact number or address")
	cmd.Flags().String("images", "", "image URLs, comma separated")
}

// fieldsFromFlags collects the flags the user actually set.
func fieldsFromFlags(cmd *cobra.Command) (models.OrderFields, error) {
	var f models.OrderFields
	get := func(name string) (*string, bool) {
		if !cmd.Flags().Changed(name) {
			return nil, false
		}
		v, _ := cmd.Flags().GetString(name)
		v = strings.TrimSpace(v)
		return &v, true
	}

	if v, ok := get("party"); ok {
		f.PartyName = v
	}
	if v, ok := get("date"); ok {
		d, err := parseDate(*v)
		if err != nil {
			return f, fmt.Errorf("--date: %w", err)
		}
		f.OrderDate = &d
	}
	if v, ok := get("status"); ok {
		s := models.NormalizeStatus(*v)
		if s != "" && !models.IsKnownStatus(s) {
			if hints := suggest.Closest(s, models.KnownStatuses(), 1); len(hints) > 0 {
				output.Warning("unusual status %q (did you mean %q?)", s, hints[0])
			} else {
				output.Warning("unusual status %q (known: %s)", s, strings.Join(models.KnownStatuses(), ", "))
			}
		}
		f.OrderStatus = &s
	}
	if v, ok := get("expected"); ok {
		d, err := parseDate(*v)
		if err != nil {
			return f, fmt.Errorf("--expected: %w", err)
		}
		f.ExpectedDelivery = &d
	}
	if v, ok := get("delivered"); ok {
		d := models.NormalizeDelivered(*v)
		if d != models.DeliveredYes && d != models.DeliveredNo {
			return f, fmt.Errorf("--delivered: want yes or no, got %q", *v)
		}
		f.Delivered = &d
	}
	if v, ok := get("contact"); ok {
		f.Contact = v
	}
	if v, ok := get("images"); ok {
		f.ImageURLs = v
	}
	return f, nil
}

// parseDate accepts the shorthands dateparse understands, or empty.
func parseDate(s string) (string, error) {
	return dateparse.Parse(s)
}
