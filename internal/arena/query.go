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
	"fmt"
	"net/url"
	"strconv"
	"strings"

	arenaerrors "github.com/tombee/arena-mcp/pkg/errors"
)

// Paging limits accepted by the vendor list endpoints.
const (
	DefaultLimit = 20
	MaxLimit     = 400
)

// Wildcard is the vendor's substring match marker.
const Wildcard = "*"

// WrapWildcard turns a filter into a substring match by surrounding it with
// wildcard markers. Values that already contain a marker are returned
// unchanged, so wrapping is idempotent and callers keep control of explicit
// patterns such as "PCB-*".
func WrapWildcard(value string) string {
	if value == "" || strings.Contains(value, Wildcard) {
		return value
	}
	return Wildcard + value + Wildcard
}

// ShapeLimit applies the paging rules: nil defaults to DefaultLimit, values
// above MaxLimit are clamped, and zero or negative values are rejected.
func ShapeLimit(limit *int) (int, error) {
	if limit == nil {
		return DefaultLimit, nil
	}
	if *limit <= 0 {
		return 0, &arenaerrors.ValidationError{
			Field:      "limit",
			Message:    fmt.Sprintf("must be at least 1, got %d", *limit),
			Suggestion: fmt.Sprintf("omit limit for the default of %d", DefaultLimit),
		}
	}
	if *limit > MaxLimit {
		return MaxLimit, nil
	}
	return *limit, nil
}

// Page selects a window of a list result.
type Page struct {
	// Limit is the page size. Nil means DefaultLimit.
	Limit *int

	// Offset is the zero-based starting position, passed to the vendor unchanged.
	Offset int
}

func (p Page) encode(q url.Values) error {
	limit, err := ShapeLimit(p.Limit)
	if err != nil {
		return err
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(p.Offset))
	return nil
}

// SearchQuery filters an item search. Empty fields are not sent.
type SearchQuery struct {
	Name         string
	Description  string
	Number       string
	CategoryGUID string
	Page
}

// Values builds the vendor query string. Name, description and number are
// wildcard-wrapped; the category GUID is an exact match. When both name and
// number are set they are sent together and the vendor decides how they
// combine.
func (s SearchQuery) Values() (url.Values, error) {
	q := url.Values{}

	if err := s.Page.encode(q); err != nil {
		return nil, err
	}

	if s.Name != "" {
		q.Set("name", WrapWildcard(s.Name))
	}
	if s.Number != "" {
		q.Set("number", WrapWildcard(s.Number))
	}
	if s.Description != "" {
		q.Set("description", WrapWildcard(s.Description))
	}
	if s.CategoryGUID != "" {
		q.Set("category.guid", s.CategoryGUID)
	}

	return q, nil
}

// validateGUID rejects empty or path-breaking identifiers before any I/O.
func validateGUID(guid string) error {
	if strings.TrimSpace(guid) == "" {
		return &arenaerrors.ValidationError{
			Field:      "guid",
			Message:    "is required",
			Suggestion: "use search_items to find the item GUID",
		}
	}
	if strings.ContainsAny(guid, "/?#%") || strings.TrimSpace(guid) != guid {
		return &arenaerrors.ValidationError{
			Field:   "guid",
			Message: fmt.Sprintf("malformed GUID %q", guid),
		}
	}
	return nil
}
