// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package arena

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "eng@example.com"
	testPassword = "correct-horse"
)

// fakeVendor is an in-process stand-in for the vendor API. Every route other
// than /login and /logout requires the current session token.
type fakeVendor struct {
	server *httptest.Server

	logins   atomic.Int32
	logouts  atomic.Int32
	requests atomic.Int32

	mu        sync.Mutex
	token     string
	loginBody loginRequest
	lastQuery url.Values
	routes    map[string]http.HandlerFunc

	// tokenInHeader makes /login return the token in a header only.
	tokenInHeader bool
	// loginStatus overrides the /login status when non-zero.
	loginStatus int
}

func newFakeVendor(t *testing.T) *fakeVendor {
	t.Helper()

	v := &fakeVendor{routes: map[string]http.HandlerFunc{}}
	v.server = httptest.NewServer(http.HandlerFunc(v.serve))
	t.Cleanup(v.server.Close)
	return v
}

func (v *fakeVendor) handle(path string, h http.HandlerFunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.routes[path] = h
}

func (v *fakeVendor) respond(path string, status int, body string) {
	v.handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (v *fakeVendor) configure(fn func(v *fakeVendor)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v)
}

// expireSession makes the vendor forget the current token.
func (v *fakeVendor) expireSession() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.token = ""
}

func (v *fakeVendor) lastLogin() loginRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loginBody
}

func (v *fakeVendor) query() url.Values {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastQuery
}

func (v *fakeVendor) serve(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		v.serveLogin(w, r)
		return
	case "/logout":
		v.logouts.Add(1)
		w.WriteHeader(http.StatusOK)
		return
	}

	v.requests.Add(1)

	v.mu.Lock()
	token := v.token
	h := v.routes[r.URL.Path]
	v.lastQuery = r.URL.Query()
	v.mu.Unlock()

	if token == "" || r.Header.Get(SessionHeader) != token {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"status":401,"errors":[{"code":3001,"message":"Session is not valid."}]}`)
		return
	}

	if h == nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"status":404,"errors":[{"code":3003,"message":"Resource not found."}]}`)
		return
	}
	h(w, r)
}

func (v *fakeVendor) serveLogin(w http.ResponseWriter, r *http.Request) {
	n := v.logins.Add(1)

	var body loginRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	v.mu.Lock()
	v.loginBody = body
	status := v.loginStatus
	inHeader := v.tokenInHeader
	v.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"status":503,"errors":[{"code":1,"message":"Maintenance window."}]}`)
		return
	}

	if r.Method != http.MethodPost || body.Email != testEmail || body.Password != testPassword {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"status":401,"errors":[{"code":3000,"message":"Email or password is incorrect."}]}`)
		return
	}

	token := fmt.Sprintf("session-%d", n)
	v.mu.Lock()
	v.token = token
	v.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if inHeader {
		w.Header().Set(SessionHeader, token)
		_, _ = io.WriteString(w, `{"workspaceId":898}`)
		return
	}
	_, _ = fmt.Fprintf(w, `{"arenaSessionId":%q,"workspaceId":898,"workspaceName":"Engineering"}`, token)
}

func newTestClient(t *testing.T, v *fakeVendor, password string) *Client {
	t.Helper()

	c, err := New(Config{
		BaseURL:  v.server.URL,
		Email:    testEmail,
		Password: password,
	}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return c
}

func intPtr(n int) *int { return &n }
