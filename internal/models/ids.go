package models

import (
	"strings"

	"github.com/google/uuid"
)

const idPrefix = "ord-"

// NewOrderID generates a unique order ID. IDs are time-ordered UUIDv7 values,
// monotonic within a process, so a batch generated in one millisecond still
// yields distinct IDs.
func NewOrderID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// v7 only fails when the random source does; fall back to v4
		return idPrefix + uuid.NewString()
	}
	return idPrefix + id.String()
}

// NormalizeOrderID ensures an order ID has the ord- prefix.
// Accepts bare UUIDs and returns "ord-<uuid>".
func NormalizeOrderID(id string) string {
	if id == "" || strings.HasPrefix(id, idPrefix) {
		return id
	}
	if _, err := uuid.Parse(id); err == nil {
		return idPrefix + id
	}
	return id
}
