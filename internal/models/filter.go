package models

import (
	"sort"
	"strings"
)

// KnownStatuses lists the statuses offered when creating or editing an order
func KnownStatuses() []string {
	return []string{StatusPending, StatusProcessing, StatusDelivered, StatusCancelled, StatusOnHold}
}

// IsKnownStatus checks if s is one of the offered statuses
func IsKnownStatus(s string) bool {
	for _, k := range KnownStatuses() {
		if k == s {
			return true
		}
	}
	return false
}

// NormalizeStatus maps case-insensitive spellings ("on-hold", "delivered")
// onto the canonical status. Unknown values are returned trimmed.
func NormalizeStatus(s string) string {
	s = strings.TrimSpace(s)
	key := strings.ReplaceAll(strings.ToLower(s), "-", " ")
	key = strings.ReplaceAll(key, "_", " ")
	for _, k := range KnownStatuses() {
		if strings.ToLower(k) == key {
			return k
		}
	}
	return s
}

// ProductionStages is the order workflow shown by lookup, in sequence.
// The spellings match what the sheet stores.
func ProductionStages() []string {
	return []string{"New", "Cad Done", "RPT DONE", "Casting Procces", "Ready For Delivery", "Delivered"}
}

// StageIndex returns the position of status in ProductionStages, or -1.
func StageIndex(status string) int {
	status = strings.TrimSpace(status)
	for i, s := range ProductionStages() {
		if strings.EqualFold(s, status) {
			return i
		}
	}
	return -1
}

// NormalizeDelivered maps yes/no spellings onto "Yes"/"No".
func NormalizeDelivered(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return DeliveredYes
	case "no", "n", "false", "0":
		return DeliveredNo
	}
	return strings.TrimSpace(s)
}

// Filter narrows an order list the way the orders view does
type Filter struct {
	Search    string // matched case-insensitively against number, party, contact
	Status    string // exact order status, empty = any
	Delivered string // exact delivered flag, empty = any
}

// Matches reports whether o passes the filter.
func (f Filter) Matches(o Order) bool {
	if term := strings.ToLower(f.Search); term != "" {
		if !strings.Contains(strings.ToLower(o.OrderNumber), term) &&
			!strings.Contains(strings.ToLower(o.PartyName), term) &&
			!strings.Contains(strings.ToLower(o.Contact), term) {
			return false
		}
	}
	if f.Status != "" && o.OrderStatus != f.Status {
		return false
	}
	if f.Delivered != "" && o.Delivered != f.Delivered {
		return false
	}
	return true
}

// Apply returns the orders matching the filter, preserving order.
func (f Filter) Apply(orders []Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if f.Matches(o) {
			out = append(out, o)
		}
	}
	return out
}

// SortByDateDesc sorts orders newest order date first. Dates are ISO
// (YYYY-MM-DD) strings so lexical order is chronological; ties keep
// their relative order.
func SortByDateDesc(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate > orders[j].OrderDate
	})
}

// Recent returns up to n orders with the newest order dates.
func Recent(orders []Order, n int) []Order {
	sorted := make([]Order, len(orders))
	copy(sorted, orders)
	SortByDateDesc(sorted)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// FindByNumber returns the first order whose number matches case-insensitively.
func FindByNumber(orders []Order, number string) (Order, bool) {
	for _, o := range orders {
		if strings.EqualFold(o.OrderNumber, number) {
			return o, true
		}
	}
	return Order{}, false
}
