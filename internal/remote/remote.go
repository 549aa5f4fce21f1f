// Package remote issues calls to the spreadsheet script endpoint.
//
// A call is a GET carrying an action and flattened order fields. Two
// transports exist: a direct request that expects a JSON body, and a
// callback bridge where the request names a callback identifier and the
// endpoint answers with a script invoking it, e.g. `ordr_cb_ab12(...)`.
// Every call is bounded by a timeout and settles exactly once.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds a single call
const DefaultTimeout = 10 * time.Second

// Sentinel errors for call failures
var (
	ErrTimeout         = errors.New("request timeout")
	ErrTransport       = errors.New("remote request failed")
	ErrInvalidResponse = errors.New("invalid response from server")
)

// Action is the remote operation named in a request
type Action string

const (
	ActionTest   Action = "test"
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Mode selects which transports a channel uses
type Mode string

const (
	ModeAuto   Mode = "auto"   // direct first, bridge on failure
	ModeDirect Mode = "direct" // direct only
	ModeBridge Mode = "bridge" // callback bridge only
)

// ParseMode validates a transport mode string. Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeDirect, ModeBridge:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid transport %q (valid: auto, direct, bridge)", s)
}

// Response is the structured payload returned by the endpoint
type Response struct {
	Success *bool           `json:"success,omitempty"`
	Status  string          `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// OK reports whether the response carries an explicit success marker.
func (r *Response) OK() bool {
	if r == nil {
		return false
	}
	return (r.Success != nil && *r.Success) || r.Status == "success"
}

// Records decodes Data as an array of records. Absent or null data is
// ErrInvalidResponse; only an explicit [] is an empty list.
func (r *Response) Records() ([]json.RawMessage, error) {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil, fmt.Errorf("%w: no data in response", ErrInvalidResponse)
	}
	var recs []json.RawMessage
	if err := json.Unmarshal(r.Data, &recs); err != nil {
		return nil, fmt.Errorf("%w: data is not an array: %v", ErrInvalidResponse, err)
	}
	return recs, nil
}

// Options configures a Channel
type Options struct {
	Timeout time.Duration
	Mode    Mode
	// HTTPClient is the underlying client; nil uses a default one.
	HTTPClient *http.Client
}

// Channel issues remote calls. Calls are independent and may run
// concurrently; they share the channel's pending-call registry.
type Channel struct {
	client  *resty.Client
	timeout time.Duration
	mode    Mode
	pending *PendingCalls
	newID   func() string
}

// New creates a Channel
func New(opts Options) *Channel {
	var client *resty.Client
	if opts.HTTPClient != nil {
		client = resty.NewWithClient(opts.HTTPClient)
	} else {
		client = resty.New()
	}
	client.SetHeader("User-Agent", "ordr/1.0").SetLogger(restyLogger{})

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeAuto
	}
	return &Channel{
		client:  client,
		timeout: timeout,
		mode:    mode,
		pending: NewPendingCalls(),
		newID:   newCallbackID,
	}
}

// Pending exposes the registry of in-flight bridge calls
func (c *Channel) Pending() *PendingCalls {
	return c.pending
}

// Close releases idle connections held by the underlying client
func (c *Channel) Close() {
	c.client.GetClient().CloseIdleConnections()
}

// Call performs one remote call. The response is returned only when it
// carries a success marker; otherwise the error is one of ErrTimeout,
// ErrTransport or ErrInvalidResponse.
func (c *Channel) Call(ctx context.Context, endpoint string, action Action, params url.Values) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	for k, vs := range params {
		q[k] = append([]string(nil), vs...)
	}
	q.Set("action", string(action))

	var (
		resp *Response
		err  error
	)
	switch c.mode {
	case ModeDirect:
		resp, _, err = c.callDirect(ctx, endpoint, q)
	case ModeBridge:
		resp, err = c.callBridge(ctx, endpoint, q)
	default:
		var fallback bool
		resp, fallback, err = c.callDirect(ctx, endpoint, q)
		if err != nil && fallback {
			slog.Debug("remote: direct request unavailable, using callback bridge", "action", action, "err", err)
			resp, err = c.callBridge(ctx, endpoint, q)
		}
	}
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		if resp.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, resp.Message)
		}
		return nil, ErrInvalidResponse
	}
	return resp, nil
}

// ctxErr maps a finished context onto the call taxonomy
func ctxErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return fmt.Errorf("%w: %w", ErrTransport, ctx.Err())
}

// callDirect issues a plain request and expects a JSON body. fallback is
// true when the failure means the endpoint cannot be reached this way
// (network error, HTTP error, non-JSON body) rather than a bad answer.
func (c *Channel) callDirect(ctx context.Context, endpoint string, q url.Values) (*Response, bool, error) {
	u, err := buildURL(endpoint, q)
	if err != nil {
		return nil, false, err
	}

	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(u)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctxErr(ctx)
		}
		return nil, true, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if res.IsError() {
		return nil, true, fmt.Errorf("%w: HTTP %d", ErrTransport, res.StatusCode())
	}

	var resp Response
	if err := json.Unmarshal(res.Body(), &resp); err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &resp, false, nil
}

// callBridge registers a callback identifier, sends the request with the
// identifier embedded in the URL, and waits for the returned script to
// invoke it. The registration and the carrier are released exactly once.
func (c *Channel) callBridge(ctx context.Context, endpoint string, q url.Values) (*Response, error) {
	id, pc := c.registerCallback()

	carrierCtx, stopCarrier := context.WithCancel(ctx)
	var once sync.Once
	release := func() {
		once.Do(func() {
			c.pending.take(id)
			stopCarrier()
		})
	}
	defer release()

	bq := url.Values{}
	for k, vs := range q {
		bq[k] = vs
	}
	bq.Set("callback", id)
	u, err := buildURL(endpoint, bq)
	if err != nil {
		return nil, err
	}

	go c.carry(carrierCtx, id, u)

	select {
	case r := <-pc.done:
		if r.err != nil {
			return nil, r.err
		}
		var resp Response
		if err := json.Unmarshal(r.payload, &resp); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return &resp, nil
	case <-ctx.Done():
		return nil, ctxErr(ctx)
	}
}

func (c *Channel) registerCallback() (string, *pendingCall) {
	for {
		id := c.newID()
		if pc, ok := c.pending.register(id); ok {
			return id, pc
		}
	}
}

// carry loads the script for a bridge call and evaluates it. It plays the
// part of an injected script element: a load failure rejects the call,
// a loaded script dispatches into the pending-call registry.
func (c *Channel) carry(ctx context.Context, id, u string) {
	res, err := c.client.R().SetContext(ctx).Get(u)
	if err != nil {
		if ctx.Err() == nil {
			c.pending.Reject(id, fmt.Errorf("%w: %w", ErrTransport, err))
		}
		return
	}
	if res.IsError() {
		c.pending.Reject(id, fmt.Errorf("%w: HTTP %d", ErrTransport, res.StatusCode()))
		return
	}

	name, payload, ok := parseScript(res.Body())
	if !ok {
		c.pending.Reject(id, fmt.Errorf("%w: response is not a callback script", ErrInvalidResponse))
		return
	}
	if !c.pending.Resolve(name, payload) {
		// the script named a callback nobody is waiting for; the caller
		// will time out
		slog.Debug("remote: script invoked unknown callback", "callback", name, "want", id)
	}
}

var scriptRe = regexp.MustCompile(`^(?:/\*\*/\s*)?([A-Za-z_$][\w$]*)\s*\(([\s\S]*)\)\s*;?$`)

// parseScript extracts the callback name and argument from a script body
// of the form `name(<json>);`.
func parseScript(body []byte) (string, []byte, bool) {
	m := scriptRe.FindSubmatch(bytes.TrimSpace(body))
	if m == nil {
		return "", nil, false
	}
	return string(m[1]), bytes.TrimSpace(m[2]), true
}

// buildURL appends q to endpoint, keeping any query the endpoint already has.
func buildURL(endpoint string, q url.Values) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: bad endpoint: %v", ErrTransport, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: endpoint must be an absolute URL: %q", ErrTransport, endpoint)
	}
	merged := u.Query()
	for k, vs := range q {
		merged[k] = vs
	}
	u.RawQuery = merged.Encode()
	return u.String(), nil
}

// restyLogger routes resty diagnostics to slog
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	slog.Error("remote: " + fmt.Sprintf(format, v...))
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	slog.Warn("remote: " + fmt.Sprintf(format, v...))
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	slog.Debug("remote: " + fmt.Sprintf(format, v...))
}
