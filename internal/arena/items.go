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
	"net/url"
)

// SearchItems finds items matching the query. Name, description and number
// are substring matches.
func (c *Client) SearchItems(ctx context.Context, q SearchQuery) ([]ItemSummary, error) {
	values, err := q.Values()
	if err != nil {
		return nil, err
	}

	return getList(ctx, c, request{
		op:       "search_items",
		path:     "/items",
		query:    values,
		resource: "items",
	}, toItemSummary)
}

// GetItem fetches one item with its custom attributes. An unknown GUID
// returns NotFoundError.
func (c *Client) GetItem(ctx context.Context, guid string) (*Item, error) {
	if err := validateGUID(guid); err != nil {
		return nil, err
	}

	var w wireItem
	if err := c.get(ctx, request{
		op:       "get_item",
		path:     itemPath(guid, ""),
		resource: "item",
		id:       guid,
	}, &w); err != nil {
		return nil, err
	}

	return toItem(w), nil
}

// GetItemBOM lists the child lines of an assembly.
func (c *Client) GetItemBOM(ctx context.Context, guid string) ([]BOMLine, error) {
	if err := validateGUID(guid); err != nil {
		return nil, err
	}

	return getList(ctx, c, request{
		op:       "get_item_bom",
		path:     itemPath(guid, "bom"),
		resource: "bom",
		id:       guid,
	}, toBOMLine)
}

// GetItemWhereUsed lists the assemblies that use an item.
func (c *Client) GetItemWhereUsed(ctx context.Context, guid string) ([]WhereUsedLine, error) {
	if err := validateGUID(guid); err != nil {
		return nil, err
	}

	return getList(ctx, c, request{
		op:       "get_item_where_used",
		path:     itemPath(guid, "whereused"),
		resource: "where_used",
		id:       guid,
	}, toWhereUsedLine)
}

// GetItemRevisions lists working, effective and superseded revisions.
func (c *Client) GetItemRevisions(ctx context.Context, guid string) ([]Revision, error) {
	if err := validateGUID(guid); err != nil {
		return nil, err
	}

	return getList(ctx, c, request{
		op:       "get_item_revisions",
		path:     itemPath(guid, "revisions"),
		resource: "revisions",
		id:       guid,
	}, toRevision)
}

// GetItemFiles lists the files associated with an item.
func (c *Client) GetItemFiles(ctx context.Context, guid string) ([]FileAssociation, error) {
	if err := validateGUID(guid); err != nil {
		return nil, err
	}

	return getList(ctx, c, request{
		op:       "get_item_files",
		path:     itemPath(guid, "files"),
		resource: "files",
		id:       guid,
	}, toFileAssociation)
}

// GetItemSourcing lists supplier relationships of an item.
func (c *Client) GetItemSourcing(ctx context.Context, guid string, page Page) ([]SourcingRecord, error) {
	if err := validateGUID(guid); err != nil {
		return nil, err
	}

	query := url.Values{}
	if err := page.encode(query); err != nil {
		return nil, err
	}

	return getList(ctx, c, request{
		op:       "get_item_sourcing",
		path:     itemPath(guid, "sourcing"),
		query:    query,
		resource: "sourcing",
		id:       guid,
	}, toSourcingRecord)
}

// GetCategories lists item categories, optionally filtered by path prefix
// (e.g. `item\Assembly`).
func (c *Client) GetCategories(ctx context.Context, path string) ([]Category, error) {
	var query url.Values
	if path != "" {
		query = url.Values{"path": {path}}
	}

	return getList(ctx, c, request{
		op:       "get_categories",
		path:     "/settings/items/categories",
		query:    query,
		resource: "categories",
	}, toCategory)
}

func itemPath(guid, sub string) string {
	p := "/items/" + url.PathEscape(guid)
	if sub != "" {
		p += "/" + sub
	}
	return p
}
