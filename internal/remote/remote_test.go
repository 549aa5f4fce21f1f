package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestChannel(mode Mode, timeout time.Duration) *Channel {
	return New(Options{
		Timeout:    timeout,
		Mode:       mode,
		HTTPClient: &http.Client{Transport: &http.Transport{DisableKeepAlives: true}},
	})
}

// writeScript answers a bridge request by invoking the named callback.
func writeScript(w http.ResponseWriter, callback string, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/javascript")
	fmt.Fprintf(w, "%s(%s);", callback, data)
}

func TestCallDirectSuccess(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"ok"}`))
	}))
	defer srv.Close()

	c := newTestChannel(ModeDirect, time.Second)
	defer c.Close()

	params := url.Values{"orderNumber": {"A1"}, "partyName": {"Bob & Co"}}
	resp, err := c.Call(context.Background(), srv.URL+"/exec", ActionCreate, params)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.Message != "ok" {
		t.Errorf("message: got %q", resp.Message)
	}
	if got.Get("action") != "create" || got.Get("orderNumber") != "A1" || got.Get("partyName") != "Bob & Co" {
		t.Errorf("query: got %v", got)
	}
	if got.Has("callback") {
		t.Error("direct request carried a callback parameter")
	}
}

func TestCallBridgeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cb := r.URL.Query().Get("callback")
		if !strings.HasPrefix(cb, callbackPrefix) {
			http.Error(w, "missing callback", http.StatusBadRequest)
			return
		}
		writeScript(w, cb, map[string]any{
			"success": true,
			"data":    []map[string]string{{"orderNumber": "A1"}},
		})
	}))
	defer srv.Close()

	c := newTestChannel(ModeBridge, time.Second)
	defer c.Close()

	resp, err := c.Call(context.Background(), srv.URL, ActionRead, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	recs, err := resp.Records()
	if err != nil || len(recs) != 1 {
		t.Fatalf("records: %v %v", recs, err)
	}
	if n := c.Pending().Len(); n != 0 {
		t.Errorf("pending callbacks after success: %d", n)
	}
}

func TestCallAutoFallsBackToBridge(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		cb := r.URL.Query().Get("callback")
		if cb == "" {
			// endpoint only speaks scripts; a direct caller gets HTML
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html>sign in</html>"))
			return
		}
		writeScript(w, cb, map[string]string{"status": "success"})
	}))
	defer srv.Close()

	c := newTestChannel(ModeAuto, time.Second)
	defer c.Close()

	if _, err := c.Call(context.Background(), srv.URL, ActionTest, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("requests: got %d, want 2 (direct then bridge)", hits.Load())
	}
}

func TestCallAutoDoesNotFallBackOnRemoteFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"status":"error","message":"sheet missing"}`))
	}))
	defer srv.Close()

	c := newTestChannel(ModeAuto, time.Second)
	defer c.Close()

	_, err := c.Call(context.Background(), srv.URL, ActionRead, nil)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("got %v, want ErrInvalidResponse", err)
	}
	if !strings.Contains(err.Error(), "sheet missing") {
		t.Errorf("remote message dropped: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("requests: got %d, want 1", hits.Load())
	}
}

func TestCallTimeoutLeavesNoCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestChannel(ModeBridge, 100*time.Millisecond)
	defer c.Close()

	start := time.Now()
	_, err := c.Call(context.Background(), srv.URL, ActionTest, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("returned before the timeout: %v", elapsed)
	}
	if n := c.Pending().Len(); n != 0 {
		t.Errorf("pending callbacks after timeout: %d", n)
	}
}

func TestCallDirectTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestChannel(ModeAuto, 100*time.Millisecond)
	defer c.Close()

	_, err := c.Call(context.Background(), srv.URL, ActionTest, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}

func TestCallUnknownCallbackTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeScript(w, "someone_else", map[string]bool{"success": true})
	}))
	defer srv.Close()

	c := newTestChannel(ModeBridge, 100*time.Millisecond)
	defer c.Close()

	_, err := c.Call(context.Background(), srv.URL, ActionTest, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	if n := c.Pending().Len(); n != 0 {
		t.Errorf("pending callbacks: %d", n)
	}
}

func TestCallTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestChannel(ModeBridge, time.Second)
	defer c.Close()

	_, err := c.Call(context.Background(), srv.URL, ActionTest, nil)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("bridge 500: got %v, want ErrTransport", err)
	}
	if n := c.Pending().Len(); n != 0 {
		t.Errorf("pending callbacks after transport error: %d", n)
	}

	// closed server: connection refused
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	d := newTestChannel(ModeDirect, time.Second)
	defer d.Close()
	if _, err := d.Call(context.Background(), deadURL, ActionTest, nil); !errors.Is(err, ErrTransport) {
		t.Fatalf("refused: got %v, want ErrTransport", err)
	}

	if _, err := d.Call(context.Background(), "not a url", ActionTest, nil); !errors.Is(err, ErrTransport) {
		t.Fatalf("bad endpoint: got %v, want ErrTransport", err)
	}
}

func TestCallMissingSuccessMarker(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"success false", `{"success":false}`},
		{"success string", `{"success":"true"}`},
		{"status error", `{"status":"error"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := newTestChannel(ModeDirect, time.Second)
			defer c.Close()

			if _, err := c.Call(context.Background(), srv.URL, ActionTest, nil); !errors.Is(err, ErrInvalidResponse) {
				t.Fatalf("got %v, want ErrInvalidResponse", err)
			}
		})
	}
}

func TestConcurrentCallsAreIndependent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// finish out of order
		time.Sleep(time.Duration(rand.Intn(30)) * time.Millisecond)
		q := r.URL.Query()
		writeScript(w, q.Get("callback"), map[string]any{
			"success": true,
			"data":    []string{q.Get("orderNumber")},
		})
	}))
	defer srv.Close()

	c := newTestChannel(ModeBridge, 2*time.Second)
	defer c.Close()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := fmt.Sprintf("N%d", i)
			resp, err := c.Call(context.Background(), srv.URL, ActionCreate, url.Values{"orderNumber": {want}})
			if err != nil {
				errs <- err
				return
			}
			var data []string
			json.Unmarshal(resp.Data, &data)
			if len(data) != 1 || data[0] != want {
				errs <- fmt.Errorf("call %d got %v", i, data)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if n := c.Pending().Len(); n != 0 {
		t.Errorf("pending callbacks: %d", n)
	}
}

func TestPendingCallsSettleOnce(t *testing.T) {
	p := NewPendingCalls()
	pc, ok := p.register("cb1")
	if !ok {
		t.Fatal("register failed")
	}
	if _, ok := p.register("cb1"); ok {
		t.Fatal("duplicate register succeeded")
	}

	if !p.Resolve("cb1", []byte(`{}`)) {
		t.Fatal("first resolve failed")
	}
	if p.Resolve("cb1", []byte(`{}`)) {
		t.Error("second resolve succeeded")
	}
	if p.Reject("cb1", errors.New("late")) {
		t.Error("reject after resolve succeeded")
	}
	if pc.settle(result{err: errors.New("direct")}) {
		t.Error("settle after resolve succeeded")
	}
	r := <-pc.done
	if r.err != nil || string(r.payload) != `{}` {
		t.Errorf("result: %+v", r)
	}
	if p.Len() != 0 {
		t.Errorf("Len: got %d, want 0", p.Len())
	}
}

func TestCallbackIDs(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := newCallbackID()
		if !scriptRe.MatchString(id + "({})") {
			t.Fatalf("id %q is not a valid callback name", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestParseScript(t *testing.T) {
	tests := []struct {
		body    string
		name    string
		payload string
		ok      bool
	}{
		{`cb_1({"a":1});`, "cb_1", `{"a":1}`, true},
		{"  cb_1 ( {\"a\":\n1} )  ", "cb_1", "{\"a\":\n1}", true},
		{`/**/cb({"status":"success"})`, "cb", `{"status":"success"}`, true},
		{`{"status":"success"}`, "", "", false},
		{`<html></html>`, "", "", false},
	}
	for _, tc := range tests {
		name, payload, ok := parseScript([]byte(tc.body))
		if ok != tc.ok || name != tc.name || string(payload) != tc.payload {
			t.Errorf("parseScript(%q) = %q, %q, %v", tc.body, name, payload, ok)
		}
	}
}

func TestBuildURLKeepsExistingQuery(t *testing.T) {
	u, err := buildURL("https://script.example.com/macros/s/abc/exec?key=1", url.Values{"action": {"read"}})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}
	parsed, _ := url.Parse(u)
	if parsed.Query().Get("key") != "1" || parsed.Query().Get("action") != "read" {
		t.Errorf("query: got %s", parsed.RawQuery)
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"", "auto", "direct", "bridge"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q): %v", s, err)
		}
	}
	if _, err := ParseMode("jsonp"); err == nil {
		t.Error("ParseMode(jsonp) succeeded")
	}
}

func TestResponseRecords(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    int
		wantErr bool
	}{
		{"absent", "", 0, true},
		{"null", "null", 0, true},
		{"empty list", "[]", 0, false},
		{"two records", `[{"orderNumber":"A"},{"orderNumber":"B"}]`, 2, false},
		{"object", `{"orderNumber":"A"}`, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &Response{Status: "success"}
			if tc.data != "" {
				r.Data = json.RawMessage(tc.data)
			}
			recs, err := r.Records()
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidResponse) {
					t.Fatalf("got %v, want ErrInvalidResponse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Records: %v", err)
			}
			if len(recs) != tc.want {
				t.Errorf("records: got %d, want %d", len(recs), tc.want)
			}
		})
	}
}
