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
	"bytes"
	"encoding/json"
)

// Wire types mirror the vendor JSON. Every optional field is a pointer so
// that "absent" survives decoding and normalization.

type listResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	WorkspaceID int    `json:"workspaceId,omitempty"`
}

type loginResponse struct {
	ArenaSessionID string `json:"arenaSessionId"`
	WorkspaceID    int    `json:"workspaceId"`
	WorkspaceName  string `json:"workspaceName"`
}

type named struct {
	Name *string `json:"name"`
}

type person struct {
	FullName *string `json:"fullName"`
}

type links struct {
	App *string `json:"app"`
}

type itemRef struct {
	GUID   *string `json:"guid"`
	Number *string `json:"number"`
	Name   *string `json:"name"`
}

type wireItem struct {
	GUID              *string         `json:"guid"`
	Number            *string         `json:"number"`
	Name              *string         `json:"name"`
	RevisionNumber    *string         `json:"revisionNumber"`
	Description       *string         `json:"description"`
	CreationDateTime  *string         `json:"creationDateTime"`
	EffectiveDateTime *string         `json:"effectiveDateTime"`
	LifecyclePhase    *named          `json:"lifecyclePhase"`
	Category          *named          `json:"category"`
	Owner             *person         `json:"owner"`
	URL               *links          `json:"url"`
	Attributes        []wireAttribute `json:"additionalAttributes"`
}

type wireAttribute struct {
	GUID  *string         `json:"guid"`
	Name  *string         `json:"name"`
	Value json.RawMessage `json:"value"`
}

type wireBOMLine struct {
	Item       *itemRef `json:"item"`
	Quantity   *float64 `json:"quantity"`
	LineNumber *int     `json:"lineNumber"`
	RefDes     *string  `json:"refDes"`
}

type wireWhereUsed struct {
	Item       *itemRef `json:"item"`
	Quantity   *float64 `json:"quantity"`
	LineNumber *int     `json:"lineNumber"`
}

type wireRevision struct {
	GUID           *string `json:"guid"`
	Number         *string `json:"number"`
	Status         *int    `json:"status"`
	LifecyclePhase *named  `json:"lifecyclePhase"`
	Change         *struct {
		Number *string `json:"number"`
	} `json:"change"`
}

type wireFileAssociation struct {
	Primary *bool `json:"primary"`
	File    *struct {
		Name    *string     `json:"name"`
		Format  *string     `json:"format"`
		Edition *flexString `json:"edition"`
	} `json:"file"`
}

type supplierRef struct {
	Supplier *named `json:"supplier"`
}

type wireSourcing struct {
	Approved         *bool        `json:"approved"`
	ActiveProduction *bool        `json:"activeProduction"`
	ActivePrototype  *bool        `json:"activePrototype"`
	VendorItem       *supplierRef `json:"vendorItem"`
	ManufacturerItem *supplierRef `json:"manufacturerItem"`
}

type wireCategory struct {
	GUID       *string `json:"guid"`
	Path       *string `json:"path"`
	Assignable *bool   `json:"assignable"`
}

type vendorErrorBody struct {
	Status int `json:"status"`
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// flexString accepts a JSON string or number. File editions arrive as either.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f *flexString) ptr() *string {
	if f == nil {
		return nil
	}
	s := string(*f)
	return &s
}
