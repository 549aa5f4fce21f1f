package remote

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"sync"
	"time"
)

const callbackPrefix = "ordr_cb_"

// result is the settled outcome of one call
type result struct {
	payload []byte
	err     error
}

// pendingCall is a one-shot resolver. Whichever of resolve or reject runs
// first wins; later attempts are no-ops.
type pendingCall struct {
	once sync.Once
	done chan result
}

func newPendingCall() *pendingCall {
	return &pendingCall{done: make(chan result, 1)}
}

func (pc *pendingCall) settle(r result) bool {
	settled := false
	pc.once.Do(func() {
		pc.done <- r
		settled = true
	})
	return settled
}

// PendingCalls maps callback identifiers to in-flight calls. It is the
// shared namespace the callback bridge dispatches into: a response naming
// an identifier settles that call and removes it.
type PendingCalls struct {
	mu    sync.Mutex
	calls map[string]*pendingCall
}

// NewPendingCalls returns an empty registry
func NewPendingCalls() *PendingCalls {
	return &PendingCalls{calls: make(map[string]*pendingCall)}
}

// register inserts a resolver under id. It reports false if id is taken.
func (p *PendingCalls) register(id string) (*pendingCall, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, taken := p.calls[id]; taken {
		return nil, false
	}
	pc := newPendingCall()
	p.calls[id] = pc
	return pc, true
}

// take removes and returns the resolver for id.
func (p *PendingCalls) take(id string) (*pendingCall, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pc, ok := p.calls[id]
	if ok {
		delete(p.calls, id)
	}
	return pc, ok
}

// Resolve delivers payload to the call registered under id. It reports
// false when no such call is pending (already settled, timed out, or never
// registered).
func (p *PendingCalls) Resolve(id string, payload []byte) bool {
	pc, ok := p.take(id)
	if !ok {
		return false
	}
	return pc.settle(result{payload: payload})
}

// Reject fails the call registered under id.
func (p *PendingCalls) Reject(id string, err error) bool {
	pc, ok := p.take(id)
	if !ok {
		return false
	}
	return pc.settle(result{err: err})
}

// Len returns the number of registered, unsettled calls
func (p *PendingCalls) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// newCallbackID returns a callback identifier that is a valid script
// identifier: a fixed prefix, 8 random bytes, and the current time.
func newCallbackID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand does not fail on supported platforms; the timestamp
		// alone still separates sequential calls
		return callbackPrefix + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return callbackPrefix + hex.EncodeToString(b) + "_" + strconv.FormatInt(time.Now().UnixNano(), 36)
}
