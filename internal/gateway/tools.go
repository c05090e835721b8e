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
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tombee/arena-mcp/internal/arena"
)

// Arena is the subset of the session client the tools delegate to.
type Arena interface {
	SearchItems(ctx context.Context, q arena.SearchQuery) ([]arena.ItemSummary, error)
	GetItem(ctx context.Context, guid string) (*arena.Item, error)
	GetItemBOM(ctx context.Context, guid string) ([]arena.BOMLine, error)
	GetItemWhereUsed(ctx context.Context, guid string) ([]arena.WhereUsedLine, error)
	GetItemRevisions(ctx context.Context, guid string) ([]arena.Revision, error)
	GetItemFiles(ctx context.Context, guid string) ([]arena.FileAssociation, error)
	GetItemSourcing(ctx context.Context, guid string, page arena.Page) ([]arena.SourcingRecord, error)
	GetCategories(ctx context.Context, path string) ([]arena.Category, error)
}

type paramKind int

const (
	kindString paramKind = iota
	kindInteger
)

func (k paramKind) jsonType() string {
	if k == kindInteger {
		return "integer"
	}
	return "string"
}

// param declares one tool argument.
type param struct {
	name        string
	kind        paramKind
	required    bool
	description string

	// minimum applies to integer params when non-nil.
	minimum *int
	// clampTo reduces larger integer values; it is not advertised in the schema.
	clampTo *int
	// def is advertised in the schema only; defaults are applied by the client.
	def any
}

// toolSpec declares a tool and the single client operation it delegates to.
type toolSpec struct {
	name        string
	description string
	params      []param
	call        func(ctx context.Context, c Arena, args toolArgs) (any, error)
}

var (
	minLimit = 1
	maxLimit = arena.MaxLimit

	guidParam = func(description string) param {
		return param{name: "guid", kind: kindString, required: true, description: description}
	}

	limitParam = param{
		name:        "limit",
		kind:        kindInteger,
		description: fmt.Sprintf("Max results to return (default %d, max %d; larger values are reduced to %d)", arena.DefaultLimit, arena.MaxLimit, arena.MaxLimit),
		minimum:     &minLimit,
		clampTo:     &maxLimit,
		def:         arena.DefaultLimit,
	}
)

// toolSpecs lists every tool the gateway exposes, in registration order.
var toolSpecs = []toolSpec{
	{
		name: "search_items",
		description: "Search for items in Arena PLM by name, number, or description. " +
			"Wildcards are added automatically for partial matching. " +
			"Returns item GUIDs which can be used with other tools: use get_item for full details, " +
			"get_item_bom to see components of an assembly, or get_item_where_used to find which assemblies contain a part.",
		params: []param{
			{name: "name", kind: kindString, description: "Filter by item name (partial match)"},
			{name: "number", kind: kindString, description: "Filter by item number (partial match)"},
			{name: "description", kind: kindString, description: "Filter by description (partial match)"},
			{name: "category_guid", kind: kindString, description: "Filter by category GUID (use get_categories to find GUIDs)"},
			limitParam,
		},
		call: func(ctx context.Context, c Arena, a toolArgs) (any, error) {
			return c.SearchItems(ctx, arena.SearchQuery{
				Name:         a.str("name"),
				Number:       a.str("number"),
				Description:  a.str("description"),
				CategoryGUID: a.str("category_guid"),
				Page:         arena.Page{Limit: a.intPtr("limit")},
			})
		},
	},
	{
		name: "get_item",
		description: "Get full details for a specific item by its GUID. " +
			"Returns all item attributes including custom attributes, description, owner, and lifecycle phase. " +
			"Use after search_items to get complete information about a specific part.",
		params: []param{guidParam("Item GUID (obtain from search_items)")},
		call: func(ctx context.Context, c Arena, a toolArgs) (any, error) {
			return c.GetItem(ctx, a.str("guid"))
		},
	},
	{
		name: "get_item_bom",
		description: "Get the bill of materials (BOM) for an assembly item. " +
			"Returns all child components with quantities and reference designators. " +
			"If looking for a specific component, search for the assembly first, then get its BOM.",
		params: []param{guidParam("Item GUID of the assembly")},
		call: func(ctx context.Context, c Arena, a toolArgs) (any, error) {
			return c.GetItemBOM(ctx, a.str("guid"))
		},
	},
	{
		name: "get_item_where_used",
		description: "Find all assemblies where a given item is used as a component. " +
			"Essential for impact analysis: shows what products would be affected by a part change.",
		params: []param{guidParam("Item GUID to find usage of")},
		call: func(ctx context.Context, c Arena, a toolArgs) (any, error) {
			return c.GetItemWhereUsed(ctx, a.str("guid"))
		},
	},
	{
		name: "get_item_revisions",
		description: "Get all revisions of an item including working, effective, and superseded revisions. " +
			"Shows revision history with associated change orders.",
		params: []param{guidParam("Item GUID")},
		call: func(ctx context.Context, c Arena, a toolArgs) (any, error) {
			return c.GetItemRevisions(ctx, a.str("guid"))
		},
	},
	{
		name: "get_item_files",
		description: "Get all files associated with an item (drawings, datasheets, CAD files, etc.). " +
			"Use to find documentation or design files for a part.",
		params: []param{guidParam("Item GUID")},
		call: func(ctx context.Context, c Arena, a toolArgs) (any, error) {
			return c.GetItemFiles(ctx, a.str("guid"))
		},
	},
	{
		name: "get_item_sourcing",
		description: "Get supplier and sourcing information for an item including approved manufacturers and vendors. " +
			"Shows approval status and whether sources are active for production or prototype.",
		params: []param{guidParam("Item GUID"), limitParam},
		call: func(ctx context.Context, c Arena, a toolArgs) (any, error) {
			return c.GetItemSourcing(ctx, a.str("guid"), arena.Page{Limit: a.intPtr("limit")})
		},
	},
	{
		name: "get_categories",
		description: "Get available item categories. " +
			"Returns category GUIDs that can be used to filter search_items results. " +
			"Use when you want to narrow searches to specific part types (e.g., only assemblies, only resistors).",
		params: []param{
			{name: "path", kind: kindString, description: `Filter by category path prefix (e.g., 'item\Assembly')`},
		},
		call: func(ctx context.Context, c Arena, a toolArgs) (any, error) {
			return c.GetCategories(ctx, a.str("path"))
		},
	},
}

// tool builds the MCP tool definition for a spec.
func (spec toolSpec) tool() mcp.Tool {
	properties := make(map[string]any, len(spec.params))
	var required []string

	for _, p := range spec.params {
		prop := map[string]any{
			"type":        p.kind.jsonType(),
			"description": p.description,
		}
		if p.minimum != nil {
			prop["minimum"] = *p.minimum
		}
		if p.def != nil {
			prop["default"] = p.def
		}
		properties[p.name] = prop

		if p.required {
			required = append(required, p.name)
		}
	}

	readOnly := true
	openWorld := true
	return mcp.Tool{
		Name:        spec.name,
		Description: spec.description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
		Annotations: mcp.ToolAnnotation{
			ReadOnlyHint:  &readOnly,
			OpenWorldHint: &openWorld,
		},
	}
}
