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

package gateway

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tombee/arena-mcp/internal/arena"
	arenaerrors "github.com/tombee/arena-mcp/pkg/errors"
)

func TestValidateArgs(t *testing.T) {
	one := 1
	params := []param{
		{name: "guid", kind: kindString, required: true, description: "Item GUID"},
		{name: "path", kind: kindString},
		{name: "limit", kind: kindInteger, minimum: &one},
	}

	tests := []struct {
		name      string
		raw       map[string]any
		want      toolArgs
		wantField string
	}{
		{
			name: "all present",
			raw:  map[string]any{"guid": "G1", "path": "item", "limit": float64(10)},
			want: toolArgs{"guid": "G1", "path": "item", "limit": 10},
		},
		{
			name: "optional absent",
			raw:  map[string]any{"guid": "G1"},
			want: toolArgs{"guid": "G1"},
		},
		{
			name: "null optional is absent",
			raw:  map[string]any{"guid": "G1", "limit": nil},
			want: toolArgs{"guid": "G1"},
		},
		{
			name: "unknown arguments ignored",
			raw:  map[string]any{"guid": "G1", "verbose": true},
			want: toolArgs{"guid": "G1"},
		},
		{
			name: "json number",
			raw:  map[string]any{"guid": "G1", "limit": json.Number("7")},
			want: toolArgs{"guid": "G1", "limit": 7},
		},
		{
			name: "integral float",
			raw:  map[string]any{"guid": "G1", "limit": 7.0},
			want: toolArgs{"guid": "G1", "limit": 7},
		},
		{name: "missing required", raw: map[string]any{}, wantField: "guid"},
		{name: "null required", raw: map[string]any{"guid": nil}, wantField: "guid"},
		{name: "wrong string type", raw: map[string]any{"guid": true}, wantField: "guid"},
		{name: "wrong optional string type", raw: map[string]any{"guid": "G1", "path": []any{"a"}}, wantField: "path"},
		{name: "fractional integer", raw: map[string]any{"guid": "G1", "limit": 1.5}, wantField: "limit"},
		{name: "below minimum", raw: map[string]any{"guid": "G1", "limit": float64(-3)}, wantField: "limit"},
		{name: "huge negative integer", raw: map[string]any{"guid": "G1", "limit": -1e12}, wantField: "limit"},
		{name: "nan", raw: map[string]any{"guid": "G1", "limit": math.NaN()}, wantField: "limit"},
		{name: "infinity", raw: map[string]any{"guid": "G1", "limit": math.Inf(1)}, wantField: "limit"},
		{
			name: "huge integer saturates",
			raw:  map[string]any{"guid": "G1", "limit": 1e12},
			want: toolArgs{"guid": "G1", "limit": math.MaxInt32},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateArgs(params, tt.raw)
			if tt.wantField != "" {
				var verr *arenaerrors.ValidationError
				require.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)
				assert.Equal(t, tt.wantField, verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateArgs_LimitAboveMaximumIsReduced(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want int
	}{
		{"within range", float64(250), 250},
		{"at maximum", float64(arena.MaxLimit), arena.MaxLimit},
		{"above maximum", float64(1000), arena.MaxLimit},
		{"beyond int32", float64(3e9), arena.MaxLimit},
		{"json number beyond int64", json.Number("1e20"), arena.MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := validateArgs([]param{limitParam}, map[string]any{"limit": tt.raw})
			require.NoError(t, err)
			require.NotNil(t, args.intPtr("limit"))
			assert.Equal(t, tt.want, *args.intPtr("limit"))
		})
	}

	_, err := validateArgs([]param{limitParam}, map[string]any{"limit": float64(0)})
	var verr *arenaerrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "limit", verr.Field)
}

func TestValidateArgs_MissingCarriesSuggestion(t *testing.T) {
	_, err := validateArgs([]param{{name: "guid", kind: kindString, required: true, description: "Item GUID (obtain from search_items)"}}, nil)

	var verr *arenaerrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is required", verr.Message)
	assert.Contains(t, verr.Suggestion, "search_items")
}

func TestToolArgs_Accessors(t *testing.T) {
	a := toolArgs{"guid": "G1", "limit": 5}

	assert.Equal(t, "G1", a.str("guid"))
	assert.Equal(t, "", a.str("missing"))
	require.NotNil(t, a.intPtr("limit"))
	assert.Equal(t, 5, *a.intPtr("limit"))
	assert.Nil(t, a.intPtr("missing"))
}

func TestRateLimiter(t *testing.T) {
	disabled := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, disabled.AllowCall())
	}

	var nilLimiter *RateLimiter
	assert.True(t, nilLimiter.AllowCall())

	limited := NewRateLimiter(0.001, 2)
	assert.True(t, limited.AllowCall())
	assert.True(t, limited.AllowCall())
	assert.False(t, limited.AllowCall())

	zeroBurst := NewRateLimiter(0.001, 0)
	assert.True(t, zeroBurst.AllowCall(), "burst is at least one")
	assert.False(t, zeroBurst.AllowCall())
}
