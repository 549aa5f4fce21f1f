package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/marcus/ordr/internal/models"
	"github.com/marcus/ordr/internal/output"
)

// errNotInteractive is returned when a prompt is needed but stdin is not
// a terminal
var errNotInteractive = errors.New("not running in a terminal")

func interactive() bool {
	return output.IsTerminal(os.Stdin) && output.IsTerminal(os.Stdout)
}

// orderForm edits o in place. The order number is only editable for new
// orders.
func orderForm(o *models.Order, isNew bool) error {
	if !interactive() {
		return errNotInteractive
	}

	statusOptions := make([]huh.Option[string], 0, len(models.KnownStatuses())+1)
	for _, s := range models.KnownStatuses() {
		statusOptions = append(statusOptions, huh.NewOption(s, s))
	}
	if o.OrderStatus != "" && !models.IsKnownStatus(o.OrderStatus) {
		statusOptions = append(statusOptions, huh.NewOption(o.OrderStatus, o.OrderStatus))
	}
	if o.OrderStatus == "" {
		o.OrderStatus = models.DefaultOrderStatus
	}
	delivered := o.Delivered == models.DeliveredYes

	validDate := func(s string) error {
		_, err := parseDate(strings.TrimSpace(s))
		return err
	}

	var fields []huh.Field
	if isNew {
		fields = append(fields, huh.NewInput().
			Title("Order Number").
			Value(&o.OrderNumber).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("order number is required")
				}
				return nil
			}))
	}
	fields = append(fields,
		huh.NewInput().
			Title("Party Name").
			Value(&o.PartyName),
		huh.NewInput().
			Title("Order Date").
			Placeholder("YYYY-MM-DD").
			Value(&o.OrderDate).
			Validate(validDate),
		huh.NewSelect[string]().
			Title("Order Status").
			Options(statusOptions...).
			Value(&o.OrderStatus),
		huh.NewInput().
			Title("Expected Delivery").
			Placeholder("YYYY-MM-DD").
			Value(&o.ExpectedDelivery).
			Validate(validDate),
		huh.NewConfirm().
			Title("Delivered").
			Affirmative("Yes").
			Negative("No").
			Value(&delivered),
		huh.NewInput().
			Title("Contact").
			Value(&o.Contact),
		huh.NewText().
			Title("Image URLs").
			Placeholder("https://...").
			Lines(2).
			Value(&o.ImageURLs),
	)

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	o.OrderNumber = strings.TrimSpace(o.OrderNumber)
	o.OrderDate, _ = parseDate(strings.TrimSpace(o.OrderDate))
	o.ExpectedDelivery, _ = parseDate(strings.TrimSpace(o.ExpectedDelivery))
	o.Delivered = models.DeliveredNo
	if delivered {
		o.Delivered = models.DeliveredYes
	}
	return nil
}

// confirm asks a yes/no question
func confirm(title, description string) (bool, error) {
	if !interactive() {
		return false, errNotInteractive
	}
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Value(&ok).
		Run()
	return ok, err
}

// choose asks the user to pick one of options (label, value pairs)
func choose(title string, options ...huh.Option[string]) (string, error) {
	if !interactive() {
		return "", errNotInteractive
	}
	var v string
	err := huh.NewSelect[string]().
		Title(title).
		Options(options...).
		Value(&v).
		Run()
	return v, err
}
