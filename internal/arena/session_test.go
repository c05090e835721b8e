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
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	arenaerrors "github.com/tombee/arena-mcp/pkg/errors"
)

func TestNew_NoNetworkIO(t *testing.T) {
	v := newFakeVendor(t)
	c := newTestClient(t, v, testPassword)

	assert.False(t, c.HasSession())
	assert.Zero(t, v.logins.Load())
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{Email: testEmail, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.NotNil(t, c.http)
}

func TestEnsureSession_LoginPayload(t *testing.T) {
	v := newFakeVendor(t)
	c, err := New(Config{
		BaseURL:     v.server.URL + "/",
		Email:       testEmail,
		Password:    testPassword,
		WorkspaceID: 898,
	})
	require.NoError(t, err)

	session, err := c.EnsureSession(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "session-1", session.Token)
	assert.Equal(t, 898, session.WorkspaceID)
	body := v.lastLogin()
	assert.Equal(t, 898, body.WorkspaceID)
	assert.Equal(t, testEmail, body.Email)
	assert.True(t, c.HasSession())
}

func TestEnsureSession_TokenFromHeader(t *testing.T) {
	v := newFakeVendor(t)
	v.configure(func(v *fakeVendor) { v.tokenInHeader = true })
	c := newTestClient(t, v, testPassword)

	session, err := c.EnsureSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-1", session.Token)
}

func TestEnsureSession_Idempotent(t *testing.T) {
	v := newFakeVendor(t)
	v.respond("/settings/items/categories", http.StatusOK, `{"count":0,"results":[]}`)
	c := newTestClient(t, v, testPassword)

	_, err := c.GetCategories(context.Background(), "")
	require.NoError(t, err)
	_, err = c.GetCategories(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, int32(1), v.logins.Load(), "sequential calls must share one login")
	assert.Equal(t, int32(2), v.requests.Load())
}

func TestEnsureSession_BadCredentialsAreSticky(t *testing.T) {
	v := newFakeVendor(t)
	c := newTestClient(t, v, "wrong")

	_, err := c.GetItem(context.Background(), "ITEM1")
	var authErr *arenaerrors.AuthenticationError
	require.True(t, errors.As(err, &authErr), "want AuthenticationError, got %v", err)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Equal(t, "Email or password is incorrect.", authErr.Message)

	_, err = c.GetItemBOM(context.Background(), "ITEM1")
	require.True(t, errors.As(err, &authErr))

	assert.Equal(t, int32(1), v.logins.Load(), "rejected credentials must not be retried")
	assert.Zero(t, v.requests.Load())
}

func TestEnsureSession_MissingCredentials(t *testing.T) {
	v := newFakeVendor(t)
	c := newTestClient(t, v, "")

	_, err := c.EnsureSession(context.Background())
	var authErr *arenaerrors.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Zero(t, v.logins.Load())
}

func TestEnsureSession_LoginOutageIsNotSticky(t *testing.T) {
	v := newFakeVendor(t)
	v.configure(func(v *fakeVendor) { v.loginStatus = http.StatusServiceUnavailable })
	c := newTestClient(t, v, testPassword)

	_, err := c.EnsureSession(context.Background())
	var upErr *arenaerrors.UpstreamError
	require.True(t, errors.As(err, &upErr), "want UpstreamError, got %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, upErr.StatusCode)
	assert.Equal(t, "Maintenance window.", upErr.Message)

	v.configure(func(v *fakeVendor) { v.loginStatus = 0 })
	_, err = c.EnsureSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), v.logins.Load())
}

func TestSessionExpired_NotRecoveredTransparently(t *testing.T) {
	v := newFakeVendor(t)
	v.respond("/items/ITEM1", http.StatusOK, `{"guid":"ITEM1","number":"100-0001"}`)
	c := newTestClient(t, v, testPassword)

	_, err := c.GetItem(context.Background(), "ITEM1")
	require.NoError(t, err)

	v.expireSession()

	_, err = c.GetItem(context.Background(), "ITEM1")
	var expired *arenaerrors.SessionExpiredError
	require.True(t, errors.As(err, &expired), "want SessionExpiredError, got %v", err)
	assert.True(t, expired.IsRetryable())
	assert.Equal(t, int32(1), v.logins.Load(), "no transparent re-login")
	assert.False(t, c.HasSession())

	// The caller's retry establishes a fresh session
	item, err := c.GetItem(context.Background(), "ITEM1")
	require.NoError(t, err)
	assert.Equal(t, "100-0001", *item.Number)
	assert.Equal(t, int32(2), v.logins.Load())
}

func TestConcurrentFirstCalls(t *testing.T) {
	v := newFakeVendor(t)
	v.respond("/settings/items/categories", http.StatusOK, `{"count":0,"results":[]}`)
	c := newTestClient(t, v, testPassword)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.EnsureSession(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	logins := v.logins.Load()
	assert.GreaterOrEqual(t, logins, int32(1))
	assert.LessOrEqual(t, logins, int32(callers))
	assert.True(t, c.HasSession())
}

func TestLogout(t *testing.T) {
	v := newFakeVendor(t)
	c := newTestClient(t, v, testPassword)

	require.NoError(t, c.Logout(context.Background()))
	assert.Zero(t, v.logouts.Load(), "no session means no logout request")

	_, err := c.EnsureSession(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, int32(1), v.logouts.Load())
	assert.False(t, c.HasSession())
}

func TestCancelledContext(t *testing.T) {
	v := newFakeVendor(t)
	v.respond("/items/ITEM1", http.StatusOK, `{"guid":"ITEM1"}`)
	c := newTestClient(t, v, testPassword)

	_, err := c.EnsureSession(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.GetItem(ctx, "ITEM1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
