// Copyright 2025 Poiesic Systems
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


package storage

import (
	"fmt"

	"github.com/poiesic/skumatch/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalCatalogItem serializes a CatalogItem to bytes.
func MarshalCatalogItem(item *core.CatalogItem) []byte {
	buf := make([]byte, core.CatalogItemMUS.Size(*item))
	core.CatalogItemMUS.Marshal(*item, buf)
	return buf
}

// UnmarshalCatalogItem deserializes a CatalogItem from bytes.
func UnmarshalCatalogItem(data []byte) (*core.CatalogItem, error) {
	item, _, err := core.CatalogItemMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &item, nil
}

// MarshalMapping serializes a HistoricalMapping to bytes.
func MarshalMapping(mapping *core.HistoricalMapping) []byte {
	buf := make([]byte, core.HistoricalMappingMUS.Size(*mapping))
	core.HistoricalMappingMUS.Marshal(*mapping, buf)
	return buf
}

// UnmarshalMapping deserializes a HistoricalMapping from bytes.
func UnmarshalMapping(data []byte) (*core.HistoricalMapping, error) {
	mapping, _, err := core.HistoricalMappingMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &mapping, nil
}

// MarshalQuote serializes a Quote to bytes.
func MarshalQuote(quote *core.Quote) []byte {
	buf := make([]byte, core.QuoteMUS.Size(*quote))
	core.QuoteMUS.Marshal(*quote, buf)
	return buf
}

// UnmarshalQuote deserializes a Quote from bytes.
func UnmarshalQuote(data []byte) (*core.Quote, error) {
	quote, _, err := core.QuoteMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &quote, nil
}
