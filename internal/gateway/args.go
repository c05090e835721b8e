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
	"fmt"
	"math"
	"strings"

	arenaerrors "github.com/tombee/arena-mcp/pkg/errors"
)

// toolArgs holds arguments that passed validation. Strings are string and
// integers are int; absent optional arguments have no entry.
type toolArgs map[string]any

func (a toolArgs) str(name string) string {
	s, _ := a[name].(string)
	return s
}

func (a toolArgs) intPtr(name string) *int {
	n, ok := a[name].(int)
	if !ok {
		return nil
	}
	return &n
}

// validateArgs checks raw tool arguments against the declared params.
// Unknown arguments are ignored. A null argument counts as absent.
func validateArgs(params []param, raw map[string]any) (toolArgs, error) {
	args := make(toolArgs, len(params))

	for _, p := range params {
		v, ok := raw[p.name]
		if !ok || v == nil {
			if p.required {
				return nil, missingArg(p)
			}
			continue
		}

		switch p.kind {
		case kindString:
			s, ok := v.(string)
			if !ok {
				return nil, &arenaerrors.ValidationError{
					Field:   p.name,
					Message: fmt.Sprintf("must be a string, got %s", describeJSONType(v)),
				}
			}
			if p.required && strings.TrimSpace(s) == "" {
				return nil, missingArg(p)
			}
			args[p.name] = s

		case kindInteger:
			n, err := toInt(v)
			if err != nil {
				return nil, &arenaerrors.ValidationError{
					Field:   p.name,
					Message: err.Error(),
				}
			}
			if p.minimum != nil && n < *p.minimum {
				return nil, &arenaerrors.ValidationError{
					Field:   p.name,
					Message: fmt.Sprintf("must be at least %d, got %d", *p.minimum, n),
				}
			}
			if p.clampTo != nil && n > *p.clampTo {
				n = *p.clampTo
			}
			args[p.name] = n
		}
	}

	return args, nil
}

func missingArg(p param) error {
	return &arenaerrors.ValidationError{
		Field:      p.name,
		Message:    "is required",
		Suggestion: p.description,
	}
}

// toInt accepts JSON numbers with no fractional part. Magnitudes beyond
// int32 saturate rather than fail.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return intFromFloat(float64(n))
	case float64:
		return intFromFloat(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return intFromFloat(float64(i))
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("must be an integer, got %q", n.String())
		}
		return intFromFloat(f)
	default:
		return 0, fmt.Errorf("must be an integer, got %s", describeJSONType(v))
	}
}

func intFromFloat(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("must be an integer, got %v", f)
	}
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32, nil
	case f < math.MinInt32:
		return math.MinInt32, nil
	}
	return int(f), nil
}

func describeJSONType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
