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

import "encoding/json"

// Normalized records. Field names are the tool payload contract; optional
// values the vendor omitted are omitted here too.

// ItemSummary is one search_items result.
type ItemSummary struct {
	Number         *string `json:"number,omitempty"`
	Name           *string `json:"name,omitempty"`
	Revision       *string `json:"revision,omitempty"`
	LifecyclePhase *string `json:"lifecyclePhase,omitempty"`
	GUID           *string `json:"guid,omitempty"`
	URL            *string `json:"url,omitempty"`
}

// Item is the full record returned by get_item.
type Item struct {
	GUID             *string     `json:"guid,omitempty"`
	Number           *string     `json:"number,omitempty"`
	Name             *string     `json:"name,omitempty"`
	Revision         *string     `json:"revision,omitempty"`
	LifecyclePhase   *string     `json:"lifecyclePhase,omitempty"`
	Category         *string     `json:"category,omitempty"`
	Description      *string     `json:"description,omitempty"`
	Owner            *string     `json:"owner,omitempty"`
	Created          *string     `json:"created,omitempty"`
	Effective        *string     `json:"effective,omitempty"`
	URL              *string     `json:"url,omitempty"`
	CustomAttributes []Attribute `json:"custom_attributes,omitempty"`
}

// Attribute is a workspace-defined item attribute.
type Attribute struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value,omitempty"`
}

// BOMLine is one child row of an assembly.
type BOMLine struct {
	ChildGUID           *string  `json:"child_guid,omitempty"`
	Quantity            *float64 `json:"quantity,omitempty"`
	LineNumber          *int     `json:"line_number,omitempty"`
	ReferenceDesignator *string  `json:"reference_designator,omitempty"`
}

// WhereUsedLine is one parent assembly that uses an item.
type WhereUsedLine struct {
	ParentGUID *string  `json:"parent_guid,omitempty"`
	Quantity   *float64 `json:"quantity,omitempty"`
	LineNumber *int     `json:"line_number,omitempty"`
}

// Revision statuses.
const (
	RevisionWorking    = "Working"
	RevisionEffective  = "Effective"
	RevisionSuperseded = "Superseded"
	RevisionUnknown    = "Unknown"
)

// Revision is one entry in an item's revision history.
type Revision struct {
	Status         *string `json:"status,omitempty"`
	LifecyclePhase *string `json:"lifecyclePhase,omitempty"`
	ChangeOrder    *string `json:"change_order,omitempty"`
}

// FileAssociation is a file attached to an item.
type FileAssociation struct {
	Name      *string `json:"name,omitempty"`
	Format    *string `json:"format,omitempty"`
	Edition   *string `json:"edition,omitempty"`
	IsPrimary *bool   `json:"is_primary,omitempty"`
}

// Approval statuses.
const (
	Approved    = "Approved"
	NotApproved = "Not Approved"
)

// SourcingRecord is one supplier relationship of an item.
type SourcingRecord struct {
	Supplier       *string `json:"supplier,omitempty"`
	ApprovalStatus *string `json:"approval_status,omitempty"`
	IsProduction   *bool   `json:"is_production,omitempty"`
	IsPrototype    *bool   `json:"is_prototype,omitempty"`
}

// Category is a node in the item category tree.
type Category struct {
	Path         *string `json:"path,omitempty"`
	GUID         *string `json:"guid,omitempty"`
	IsAssignable *bool   `json:"is_assignable,omitempty"`
}

func (n *named) name() *string {
	if n == nil {
		return nil
	}
	return n.Name
}

func (r *itemRef) guid() *string {
	if r == nil {
		return nil
	}
	return r.GUID
}

func toItemSummary(w wireItem) ItemSummary {
	s := ItemSummary{
		Number:         w.Number,
		Name:           w.Name,
		Revision:       w.RevisionNumber,
		LifecyclePhase: w.LifecyclePhase.name(),
		GUID:           w.GUID,
	}
	if w.URL != nil {
		s.URL = w.URL.App
	}
	return s
}

func toItem(w wireItem) *Item {
	item := &Item{
		GUID:           w.GUID,
		Number:         w.Number,
		Name:           w.Name,
		Revision:       w.RevisionNumber,
		LifecyclePhase: w.LifecyclePhase.name(),
		Category:       w.Category.name(),
		Description:    w.Description,
		Created:        w.CreationDateTime,
		Effective:      w.EffectiveDateTime,
	}
	if w.Owner != nil {
		item.Owner = w.Owner.FullName
	}
	if w.URL != nil {
		item.URL = w.URL.App
	}

	for _, a := range w.Attributes {
		if a.Name == nil {
			continue
		}
		attr := Attribute{Name: *a.Name}
		if len(a.Value) > 0 && string(a.Value) != "null" {
			attr.Value = a.Value
		}
		item.CustomAttributes = append(item.CustomAttributes, attr)
	}

	return item
}

func toBOMLine(w wireBOMLine) BOMLine {
	return BOMLine{
		ChildGUID:           w.Item.guid(),
		Quantity:            w.Quantity,
		LineNumber:          w.LineNumber,
		ReferenceDesignator: w.RefDes,
	}
}

func toWhereUsedLine(w wireWhereUsed) WhereUsedLine {
	return WhereUsedLine{
		ParentGUID: w.Item.guid(),
		Quantity:   w.Quantity,
		LineNumber: w.LineNumber,
	}
}

// revisionStatus maps the vendor status code: 0 working, 1 effective, 2 superseded.
func revisionStatus(code *int) *string {
	if code == nil {
		return nil
	}

	var s string
	switch *code {
	case 0:
		s = RevisionWorking
	case 1:
		s = RevisionEffective
	case 2:
		s = RevisionSuperseded
	default:
		s = RevisionUnknown
	}
	return &s
}

func toRevision(w wireRevision) Revision {
	r := Revision{
		Status:         revisionStatus(w.Status),
		LifecyclePhase: w.LifecyclePhase.name(),
	}
	if w.Change != nil {
		r.ChangeOrder = w.Change.Number
	}
	return r
}

func toFileAssociation(w wireFileAssociation) FileAssociation {
	f := FileAssociation{IsPrimary: w.Primary}
	if w.File != nil {
		f.Name = w.File.Name
		f.Format = w.File.Format
		f.Edition = w.File.Edition.ptr()
	}
	return f
}

func toSourcingRecord(w wireSourcing) SourcingRecord {
	r := SourcingRecord{
		IsProduction: w.ActiveProduction,
		IsPrototype:  w.ActivePrototype,
	}

	if w.Approved != nil {
		status := NotApproved
		if *w.Approved {
			status = Approved
		}
		r.ApprovalStatus = &status
	}

	// Prefer the vendor (distributor) supplier, then the manufacturer
	for _, ref := range []*supplierRef{w.VendorItem, w.ManufacturerItem} {
		if ref != nil && ref.Supplier != nil && ref.Supplier.Name != nil {
			r.Supplier = ref.Supplier.Name
			break
		}
	}

	return r
}

func toCategory(w wireCategory) Category {
	return Category{
		Path:         w.Path,
		GUID:         w.GUID,
		IsAssignable: w.Assignable,
	}
}
