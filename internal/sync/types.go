package sync

import (
	"errors"

	"github.com/marcus/ordr/internal/models"
)

// Coordinator-level sentinel errors
var (
	ErrNotConnected      = errors.New("not connected to remote")
	ErrEmptyEndpoint     = errors.New("remote endpoint is empty")
	ErrNotSynced         = errors.New("saved locally, not synced")
	ErrInitialSyncFailed = errors.New("initial sync failed, but connection is working")
	ErrNotFound          = errors.New("order not found on remote")
)

// State is the connection state of the current session
type State struct {
	Status   models.ConnectionStatus
	Endpoint string
}

// Connected reports whether calls can be propagated.
func (s State) Connected() bool {
	return s.Status == models.ConnConnected
}

// Tally is the outcome of a bulk propagation
type Tally struct {
	Succeeded int
	Failed    int
	// Failures holds the order number and error for each failed record.
	Failures []Failure
}

// Failure records one record that did not propagate
type Failure struct {
	OrderNumber string
	Err         error
}

// Total returns the number of records attempted
func (t Tally) Total() int {
	return t.Succeeded + t.Failed
}
