// Package sync mirrors the local order store to a remote script endpoint.
//
// The coordinator owns the session's connection state. Remote data is
// authoritative on reconcile: the fetched set replaces the local store.
// Local mutations are pushed one record at a time and never roll back.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	gosync "sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/marcus/ordr/internal/models"
	"github.com/marcus/ordr/internal/remote"
	"github.com/marcus/ordr/internal/store"
)

// DefaultBulkDelay separates consecutive calls of a bulk propagation
const DefaultBulkDelay = 200 * time.Millisecond

// Caller performs one remote call. *remote.Channel implements it.
type Caller interface {
	Call(ctx context.Context, endpoint string, action remote.Action, params url.Values) (*remote.Response, error)
}

// Options configures a Coordinator
type Options struct {
	BulkDelay time.Duration
}

// Coordinator drives connection testing, reconciliation and propagation.
type Coordinator struct {
	store  *store.Store
	caller Caller
	delay  time.Duration
	sleep  func(context.Context, time.Duration) error

	mu     gosync.Mutex
	status models.ConnectionStatus

	reconciles singleflight.Group
}

// New creates a disconnected Coordinator over st.
func New(st *store.Store, caller Caller, opts Options) *Coordinator {
	delay := opts.BulkDelay
	if delay < 0 {
		delay = 0
	}
	return &Coordinator{
		store:  st,
		caller: caller,
		delay:  delay,
		sleep:  sleepCtx,
		status: models.ConnDisconnected,
	}
}

// Status returns the connection status and the remembered endpoint.
func (c *Coordinator) Status() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Status: c.status, Endpoint: c.store.Endpoint()}
}

func (c *Coordinator) setStatus(s models.ConnectionStatus) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

// connected returns the remembered endpoint if the session is connected.
func (c *Coordinator) connected() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != models.ConnConnected {
		return "", false
	}
	return c.store.Endpoint(), true
}

// Validate tests endpoint and marks the session connected on success. The
// endpoint is remembered. Local data is not touched.
func (c *Coordinator) Validate(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		return ErrEmptyEndpoint
	}
	c.setStatus(models.ConnTesting)

	if _, err := c.caller.Call(ctx, endpoint, remote.ActionTest, nil); err != nil {
		c.setStatus(models.ConnDisconnected)
		slog.Debug("sync: connection test failed", "endpoint", endpoint, "err", err)
		return fmt.Errorf("connection test: %w", err)
	}

	c.store.SetEndpoint(endpoint)
	c.setStatus(models.ConnConnected)
	return nil
}

// TestAndConnect validates endpoint and then reconciles. It returns the
// number of orders fetched. A failed reconcile leaves the session
// connected and is reported wrapped in ErrInitialSyncFailed.
func (c *Coordinator) TestAndConnect(ctx context.Context, endpoint string) (int, error) {
	if err := c.Validate(ctx, endpoint); err != nil {
		return 0, err
	}
	n, err := c.Reconcile(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInitialSyncFailed, err)
	}
	return n, nil
}

// Reconcile fetches every remote record and replaces the local store with
// them. On failure local data is untouched. Concurrent calls share one
// fetch.
func (c *Coordinator) Reconcile(ctx context.Context) (int, error) {
	endpoint, ok := c.connected()
	if !ok {
		return 0, ErrNotConnected
	}

	v, err, shared := c.reconciles.Do(endpoint, func() (any, error) {
		orders, err := c.fetchAll(ctx, endpoint)
		if err != nil {
			return 0, err
		}
		c.store.ReplaceAll(orders)
		slog.Info("sync: reconciled", "endpoint", endpoint, "orders", len(orders))
		return len(orders), nil
	})
	if shared {
		slog.Debug("sync: reconcile coalesced", "endpoint", endpoint)
	}
	if err != nil {
		return 0, fmt.Errorf("reconcile: %w", err)
	}
	return v.(int), nil
}

// fetchAll reads and normalizes every remote record.
func (c *Coordinator) fetchAll(ctx context.Context, endpoint string) ([]models.Order, error) {
	resp, err := c.caller.Call(ctx, endpoint, remote.ActionRead, nil)
	if err != nil {
		return nil, err
	}
	recs, err := resp.Records()
	if err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0, len(recs))
	seen := make(map[string]bool, len(recs))
	for i, raw := range recs {
		o, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", remote.ErrInvalidResponse, i, err)
		}
		// one order per id; repeated sheet ids get a fresh one
		if seen[o.ID] {
			slog.Debug("sync: duplicate remote id", "id", o.ID, "order", o.OrderNumber)
			o.ID = models.NewOrderID()
		}
		seen[o.ID] = true
		orders = append(orders, o)
	}
	return orders, nil
}

// Propagate pushes one locally committed change to the remote side. It
// never touches the store or the connection status; any failure is
// wrapped in ErrNotSynced.
func (c *Coordinator) Propagate(ctx context.Context, action remote.Action, o models.Order) error {
	endpoint, ok := c.connected()
	if !ok {
		return fmt.Errorf("%w: %w", ErrNotSynced, ErrNotConnected)
	}
	if _, err := c.caller.Call(ctx, endpoint, action, flatten(o)); err != nil {
		slog.Warn("sync: propagate failed", "action", action, "order", o.OrderNumber, "err", err)
		return fmt.Errorf("%w: %s %s: %w", ErrNotSynced, action, o.OrderNumber, err)
	}
	slog.Debug("sync: propagated", "action", action, "order", o.OrderNumber)
	return nil
}

// BulkPropagate creates each order remotely in turn, waiting the bulk
// delay between calls. Failures are counted, never rolled back. If ctx
// ends early the remaining orders count as failed.
func (c *Coordinator) BulkPropagate(ctx context.Context, orders []models.Order) Tally {
	var t Tally
	for i, o := range orders {
		if err := c.Propagate(ctx, remote.ActionCreate, o); err != nil {
			t.Failed++
			t.Failures = append(t.Failures, Failure{OrderNumber: o.OrderNumber, Err: err})
		} else {
			t.Succeeded++
		}

		if i == len(orders)-1 {
			break
		}
		if err := c.sleep(ctx, c.delay); err != nil {
			for _, rest := range orders[i+1:] {
				t.Failed++
				t.Failures = append(t.Failures, Failure{OrderNumber: rest.OrderNumber, Err: err})
			}
			break
		}
	}
	slog.Info("sync: bulk propagate", "succeeded", t.Succeeded, "failed", t.Failed)
	return t
}

// Lookup reads the remote records at endpoint and returns the one whose
// order number matches case-insensitively. It does not need a connected
// session.
func (c *Coordinator) Lookup(ctx context.Context, endpoint, orderNumber string) (models.Order, error) {
	if endpoint == "" {
		return models.Order{}, ErrEmptyEndpoint
	}
	orders, err := c.fetchAll(ctx, endpoint)
	if err != nil {
		return models.Order{}, fmt.Errorf("lookup: %w", err)
	}
	o, ok := models.FindByNumber(orders, orderNumber)
	if !ok {
		return models.Order{}, fmt.Errorf("%w: %s", ErrNotFound, orderNumber)
	}
	return o, nil
}

// Disconnect forgets the remembered endpoint and drops the connection.
func (c *Coordinator) Disconnect() {
	c.store.SetEndpoint("")
	c.setStatus(models.ConnDisconnected)
}

// flatten encodes an order's fields as request parameters.
func flatten(o models.Order) url.Values {
	return url.Values{
		"orderNumber":      {o.OrderNumber},
		"partyName":        {o.PartyName},
		"orderDate":        {o.OrderDate},
		"orderStatus":      {o.OrderStatus},
		"expectedDelivery": {o.ExpectedDelivery},
		"delivered":        {o.Delivered},
		"contact":          {o.Contact},
		"imageUrls":        {o.ImageURLs},
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
