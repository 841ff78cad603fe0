package hue_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/homeserver/internal/hue"
)

const testUsername = "user-abc"

const threeLights = `{
  "2": {"state": {"on": false, "bri": 10, "hue": 200, "sat": 30, "effect": "none", "alert": "none", "reachable": true}, "type": "Extended color light", "name": "Hall", "uniqueid": "a-2"},
  "10": {"state": {"on": true, "bri": 254, "hue": 1000, "sat": 254, "effect": "colorloop", "alert": "none", "reachable": true}, "type": "Extended color light", "name": "Desk", "uniqueid": "a-10"},
  "1": {"state": {"on": true, "bri": 100, "hue": 0, "sat": 0, "reachable": false}, "type": "Dimmable light", "name": "Lamp", "uniqueid": "a-1"}
}`

// fakeBridge is a minimal v1 bridge api
type fakeBridge struct {
	server *httptest.Server

	mu          sync.Mutex
	linkPressed bool
	lights      string
	stateBodies map[string][]map[string]any
	stateReply  string

	authCalls  atomic.Int32
	lightCalls atomic.Int32
	stateCalls atomic.Int32
}

func newFakeBridge(t *testing.T, linkPressed bool, lights string) *fakeBridge {
	f := &fakeBridge{linkPressed: linkPressed, lights: lights, stateBodies: map[string][]map[string]any{}}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBridge) address() string {
	return strings.TrimPrefix(f.server.URL, "http://")
}

func (f *fakeBridge) pressLink() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkPressed = true
}

func (f *fakeBridge) setStateReply(reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateReply = reply
}

func (f *fakeBridge) bodiesFor(index string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateBodies[index]
}

func (f *fakeBridge) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// /api, /api/{user}/lights, /api/{user}/lights/{index}/state
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case r.Method == http.MethodPost && len(parts) == 1 && parts[0] == "api":
		f.authCalls.Add(1)
		body := map[string]string{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["devicetype"] == "" {
			fmt.Fprint(w, `[{"error":{"type":5,"address":"/","description":"invalid/missing parameters in body"}}]`)
			return
		}
		if !f.linkPressed {
			fmt.Fprint(w, `[{"error":{"type":101,"address":"","description":"link button not pressed"}}]`)
			return
		}
		fmt.Fprintf(w, `[{"success":{"username":"%s"}}]`, testUsername)

	case r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "lights":
		f.lightCalls.Add(1)
		if parts[1] != testUsername {
			fmt.Fprint(w, `[{"error":{"type":1,"address":"/lights","description":"unauthorized user"}}]`)
			return
		}
		fmt.Fprint(w, f.lights)

	case r.Method == http.MethodPut && len(parts) == 5 && parts[4] == "state":
		f.stateCalls.Add(1)
		body := map[string]any{}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		f.stateBodies[parts[3]] = append(f.stateBodies[parts[3]], body)
		if f.stateReply != "" {
			fmt.Fprint(w, f.stateReply)
			return
		}
		results := []map[string]any{}
		for k, v := range body {
			results = append(results, map[string]any{"success": map[string]any{fmt.Sprintf("/lights/%s/state/%s", parts[3], k): v}})
		}
		_ = json.NewEncoder(w).Encode(results)

	default:
		http.NotFound(w, r)
	}
}

// fakeDiscovery serves the discovery directory
type fakeDiscovery struct {
	server *httptest.Server
	calls  atomic.Int32
}

func newFakeDiscovery(t *testing.T, descriptors ...hue.BridgeDescriptor) *fakeDiscovery {
	f := &fakeDiscovery{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		_ = json.NewEncoder(w).Encode(descriptors)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
}

// safeBuffer lets the logger and the test share a buffer
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func capturingLogger() (*log.Logger, *safeBuffer) {
	buf := &safeBuffer{}
	return log.NewWithOptions(buf, log.Options{Level: log.WarnLevel}), buf
}
