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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolSpecs_Names(t *testing.T) {
	var names []string
	for _, spec := range toolSpecs {
		names = append(names, spec.name)
	}

	assert.Equal(t, []string{
		"search_items",
		"get_item",
		"get_item_bom",
		"get_item_where_used",
		"get_item_revisions",
		"get_item_files",
		"get_item_sourcing",
		"get_categories",
	}, names)
}

func TestToolSpecs_Schemas(t *testing.T) {
	required := map[string][]string{
		"search_items":        nil,
		"get_item":            {"guid"},
		"get_item_bom":        {"guid"},
		"get_item_where_used": {"guid"},
		"get_item_revisions":  {"guid"},
		"get_item_files":      {"guid"},
		"get_item_sourcing":   {"guid"},
		"get_categories":      nil,
	}

	for _, spec := range toolSpecs {
		t.Run(spec.name, func(t *testing.T) {
			tool := spec.tool()

			assert.Equal(t, spec.name, tool.Name)
			assert.NotEmpty(t, tool.Description)
			assert.Equal(t, "object", tool.InputSchema.Type)
			assert.Equal(t, required[spec.name], tool.InputSchema.Required)
			require.NotNil(t, tool.Annotations.ReadOnlyHint)
			assert.True(t, *tool.Annotations.ReadOnlyHint)
			assert.Len(t, tool.InputSchema.Properties, len(spec.params))
			assert.NotNil(t, spec.call)
		})
	}
}

func TestToolSpecs_LimitSchema(t *testing.T) {
	tool := toolSpecs[0].tool()

	limit, ok := tool.InputSchema.Properties["limit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "integer", limit["type"])
	assert.Equal(t, 1, limit["minimum"])
	assert.Equal(t, 20, limit["default"])

	data, err := json.Marshal(tool.InputSchema)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"category_guid"`)
}

func TestToolSpecs_DescriptionsGuideNextSteps(t *testing.T) {
	byName := map[string]toolSpec{}
	for _, spec := range toolSpecs {
		byName[spec.name] = spec
	}

	assert.Contains(t, byName["search_items"].description, "get_item_bom")
	assert.Contains(t, byName["get_categories"].description, "search_items")
	assert.Contains(t, byName["get_item"].params[0].description, "search_items")
}
