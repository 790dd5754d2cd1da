// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package datasync

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/takbridge/internal/takapi"
)

// fakeTAK is an in-memory Mission API. Calls are counted by "METHOD kind".
type fakeTAK struct {
	mu       sync.Mutex
	groups   []takapi.Group
	missions map[string]*fakeMission
	calls    map[string]int
	tokens   []string // MissionAuthorization values seen, in order
	getFail  int      // status for mission GETs when non-zero
	next     int
}

type fakeMission struct {
	takapi.Mission
	layers      []takapi.MissionLayer
	subscribers []string
}

func newFakeTAK(groups ...takapi.Group) *fakeTAK {
	return &fakeTAK{
		groups:   groups,
		missions: make(map[string]*fakeMission),
		calls:    make(map[string]int),
	}
}

func (f *fakeTAK) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeTAK) mission(name string) *fakeMission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.missions[name]
}

func (f *fakeTAK) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if tok := r.Header.Get("MissionAuthorization"); tok != "" {
		f.tokens = append(f.tokens, strings.TrimPrefix(tok, "Bearer "))
	}

	switch {
	case r.URL.Path == "/Marti/api/groups/all":
		f.calls["GET groups"]++
		writeList(w, f.groups)
		return
	case r.URL.Path == "/Marti/api/groups/active":
		f.calls["PUT groups"]++
		var groups []takapi.Group
		if err := json.NewDecoder(r.Body).Decode(&groups); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.groups = groups
		w.WriteHeader(http.StatusOK)
		return
	}

	rest, ok := strings.CutPrefix(r.URL.EscapedPath(), "/Marti/api/missions/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	escaped, sub, _ := strings.Cut(rest, "/")
	name, _ := url.PathUnescape(escaped)
	m := f.missions[name]
	q := r.URL.Query()

	switch sub {
	case "":
		f.calls[r.Method+" mission"]++
		switch r.Method {
		case http.MethodGet:
			if f.getFail != 0 {
				http.Error(w, "boom", f.getFail)
				return
			}
			if m == nil {
				writeStatus(w, http.StatusNotFound, `{"message":"Mission not found"}`)
				return
			}
			out := m.Mission
			out.Token = ""
			writeList(w, []takapi.Mission{out})
		case http.MethodPut:
			f.next++
			m = &fakeMission{Mission: takapi.Mission{
				Name:        name,
				Description: q.Get("description"),
				CreatorUID:  q.Get("creatorUid"),
				Groups:      q["group"],
				Token:       "token-" + strconv.Itoa(f.next),
			}}
			if role := q.Get("defaultRole"); role != "" {
				m.DefaultRole = &takapi.MissionRole{Type: role}
			}
			f.missions[name] = m
			writeList(w, []takapi.Mission{m.Mission})
		case http.MethodDelete:
			delete(f.missions, name)
			writeList(w, []takapi.Mission{})
		}
	case "subscription":
		f.calls[r.Method+" subscription"]++
		if m == nil {
			http.NotFound(w, r)
			return
		}
		m.subscribers = append(m.subscribers, q.Get("uid"))
		writeStatus(w, http.StatusCreated, `{"version":"3","type":"MissionSubscription","data":{"clientUid":"`+q.Get("uid")+`"}}`)
	case "layers":
		f.calls[r.Method+" layers"]++
		if m == nil {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			writeList(w, m.layers)
		case http.MethodPut:
			layer := takapi.MissionLayer{
				UID:  q.Get("uid"),
				Name: q.Get("name"),
				Type: takapi.MissionLayerType(q.Get("type")),
			}
			m.layers = append(m.layers, layer)
			body, _ := json.Marshal(takapi.Envelope[takapi.MissionLayer]{Version: "3", Type: "MissionLayer", Data: layer})
			writeStatus(w, http.StatusOK, string(body))
		}
	default:
		http.NotFound(w, r)
	}
}

func writeList[T any](w http.ResponseWriter, data []T) {
	if data == nil {
		data = []T{}
	}
	body, _ := json.Marshal(takapi.List[T]{Version: "3", Type: "list", Data: data})
	writeStatus(w, http.StatusOK, string(body))
}

func writeStatus(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// newFakeClient serves f over httptest and returns a token client for it.
func newFakeClient(t *testing.T, f *fakeTAK) *takapi.Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	checkNoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	checkNoError(t, err)
	port, err := strconv.Atoi(portStr)
	checkNoError(t, err)

	c, err := takapi.New(takapi.Endpoint{Scheme: u.Scheme, Host: host, APIPort: port, WebTAKPort: port, StreamPort: port},
		takapi.TokenCredential{Token: "test-token"})
	checkNoError(t, err)
	return c
}

// memStore is an in-memory Store.
type memStore struct {
	mu          sync.Mutex
	tokens      map[int64]string
	layers      map[int64][]Layer
	subscribers map[int64]string
	saveErr     error
}

func newMemStore() *memStore {
	return &memStore{
		tokens:      make(map[int64]string),
		layers:      make(map[int64][]Layer),
		subscribers: make(map[int64]string),
	}
}

func (s *memStore) SaveMissionToken(_ context.Context, dataID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.tokens[dataID] = token
	return nil
}

func (s *memStore) ListLayers(_ context.Context, dataID int64, limit int) ([]Layer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	layers := s.layers[dataID]
	if limit > 0 && len(layers) > limit {
		layers = layers[:limit]
	}
	return append([]Layer(nil), layers...), nil
}

func (s *memStore) SubscriberUID(_ context.Context, connection int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribers[connection], nil
}

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func checkIntEqual(t *testing.T, fieldName string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %d, want %d", fieldName, got, want)
	}
}

func checkStringEqual(t *testing.T, fieldName, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %q, want %q", fieldName, got, want)
	}
}
