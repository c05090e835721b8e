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

package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "valid bearer token", header: "Bearer abc123xyz", want: "abc123xyz"},
		{name: "bearer with lowercase", header: "bearer abc123xyz", want: "abc123xyz"},
		{name: "bearer with extra spaces", header: "Bearer    abc123xyz   ", want: "abc123xyz"},
		{name: "missing header", header: "", want: ""},
		{name: "invalid scheme", header: "Basic abc123", want: ""},
		{name: "empty token", header: "Bearer ", want: ""},
		{name: "scheme only", header: "Bearer", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BearerToken(tt.header))
		})
	}
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest("POST", "/mcp", nil)
	assert.Equal(t, "", ExtractToken(req))

	req.Header.Set(HeaderAPIKey, " key-123 ")
	assert.Equal(t, "key-123", ExtractToken(req))

	req.Header.Set("Authorization", "Bearer bearer-456")
	assert.Equal(t, "bearer-456", ExtractToken(req), "bearer wins over X-API-Key")
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", TokenFromContext(ctx))
	assert.Nil(t, IdentityFromContext(ctx))

	ctx = ContextWithToken(ctx, "tok")
	ctx = ContextWithIdentity(ctx, &Identity{Email: "a@example.com"})
	assert.Equal(t, "tok", TokenFromContext(ctx))
	assert.Equal(t, "a@example.com", IdentityFromContext(ctx).Email)
}
