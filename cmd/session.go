package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcus/ordr/internal/config"
	"github.com/marcus/ordr/internal/db"
	"github.com/marcus/ordr/internal/models"
	"github.com/marcus/ordr/internal/output"
	"github.com/marcus/ordr/internal/remote"
	"github.com/marcus/ordr/internal/store"
	"github.com/marcus/ordr/internal/suggest"
	ordrsync "github.com/marcus/ordr/internal/sync"
	"github.com/marcus/ordr/internal/workdir"
)

// session bundles what a command needs: the database, the order store
// loaded from it, and a disconnected sync coordinator.
type session struct {
	db      *db.DB
	store   *store.Store
	channel *remote.Channel
	coord   *ordrsync.Coordinator
}

// openSession opens the project database and loads the store.
func openSession() (*session, error) {
	database, err := db.Open(workdir.FindRoot(getBaseDir()))
	if err != nil {
		return nil, err
	}

	ch, err := newChannel()
	if err != nil {
		database.Close()
		return nil, err
	}

	st := store.Load(database.Snapshots())
	return &session{
		db:      database,
		store:   st,
		channel: ch,
		coord:   ordrsync.New(st, ch, ordrsync.Options{BulkDelay: config.GetBulkDelay()}),
	}, nil
}

func (s *session) Close() {
	s.channel.Close()
	s.db.Close()
}

// newChannel builds a remote channel from the global config.
func newChannel() (*remote.Channel, error) {
	mode, err := remote.ParseMode(config.GetTransport())
	if err != nil {
		return nil, err
	}
	return remote.New(remote.Options{Timeout: config.GetTimeout(), Mode: mode}), nil
}

// endpoint returns the project's remembered endpoint, falling back to the
// configured remote.url.
func (s *session) endpoint() string {
	if ep := s.store.Endpoint(); ep != "" {
		return ep
	}
	return config.GetRemoteURL()
}

// warnIfUnsaved reports a swallowed persistence failure.
func (s *session) warnIfUnsaved() {
	if err := s.store.LastSaveError(); err != nil {
		output.Warning("changes kept in memory but not written to disk: %v", err)
	}
}

// pushChange propagates a committed local change when auto-sync is on and
// an endpoint is known. Each process starts disconnected, so the endpoint
// is tested first. Failures only warn: the local change stands.
func (s *session) pushChange(ctx context.Context, action remote.Action, o models.Order) {
	if !config.GetAutoSync() {
		return
	}
	ep := s.endpoint()
	if ep == "" {
		return
	}
	if !s.coord.Status().Connected() {
		if err := s.coord.Validate(ctx, ep); err != nil {
			output.Warning("%v: %v", ordrsync.ErrNotSynced, err)
			return
		}
	}
	if err := s.coord.Propagate(ctx, action, o); err != nil {
		output.Warning("%v", err)
		return
	}
	output.Info("synced %s to remote", o.OrderNumber)
}

// resolveOrder finds an order by id, then exact order number, then
// case-insensitive order number.
func (s *session) resolveOrder(ref string) (models.Order, error) {
	if o, err := s.store.Get(models.NormalizeOrderID(ref)); err == nil {
		return o, nil
	}
	if o, err := s.store.FindByNumber(ref); err == nil {
		return o, nil
	}
	if o, ok := models.FindByNumber(s.store.List(), ref); ok {
		return o, nil
	}
	err := fmt.Errorf("%w: %s", store.ErrNotFound, ref)
	if hints := suggest.Closest(ref, orderNumbers(s.store.List()), 3); len(hints) > 0 {
		err = fmt.Errorf("%w (did you mean %s?)", err, strings.Join(hints, ", "))
	}
	return models.Order{}, err
}

func orderNumbers(orders []models.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.OrderNumber)
	}
	return out
}
