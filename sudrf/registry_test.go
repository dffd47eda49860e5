// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package sudrf

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRegistry serves the pages under testdata the way the registry and
// the court sites do.
type fakeRegistry struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*http.Request
	forms    []string
}

func (f *fakeRegistry) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r)
	f.forms = append(f.forms, r.PostForm.Get("court_addr"))
}

// last returns the latest request and its court_addr form value.
func (f *fakeRegistry) last() (*http.Request, string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.requests[len(f.requests)-1], f.forms[len(f.forms)-1]
}

// count returns how many requests hit path.
func (f *fakeRegistry) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0

	for _, r := range f.requests {
		if r.URL.Path == path {
			n++
		}
	}

	return n
}

func newFakeRegistry(t *testing.T, secure bool) *fakeRegistry {
	t.Helper()

	f := &fakeRegistry{}

	page := func(name string) []byte {
		data, err := os.ReadFile("testdata/" + name)
		require.NoError(t, err)

		return []byte(strings.ReplaceAll(string(data), "{{BASE}}", f.URL))
	}

	serve := func(w http.ResponseWriter, name string) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page(name))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/index.php", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.record(r)

		q := r.URL.Query()

		switch {
		case q.Get("act") == "go_ms_search" && r.Method == http.MethodPost:
			serve(w, "ms_search.html")
		case q.Get("act") == "go_ms_search":
			serve(w, "ms_catalog.html")
		case q.Get("act") == "go_search" && r.Method == http.MethodPost:
			serve(w, "fs_search.html")
		case q.Get("act") == "go_search":
			serve(w, "fs_catalog.html")
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/azov1", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		serve(w, "court_site.html")
	})
	mux.HandleFunc("/azov1/modules.php", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		serve(w, "territory.html")
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><a href=\"/news\">Новости</a></body></html>"))
	})

	f.Server = httptest.NewUnstartedServer(mux)
	if secure {
		f.StartTLS()
	} else {
		f.Start()
	}

	t.Cleanup(f.Close)

	return f
}

func (f *fakeRegistry) client() *Client {
	c := NewClient(&ClientOptions{BaseURL: f.URL + "/index.php"})
	if f.TLS != nil {
		c.client = f.Client()
	}

	return c
}
