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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidCatalogItem indicates a CatalogItem failed validation.
	ErrInvalidCatalogItem = errors.New("invalid catalog item")

	// ErrInvalidMapping indicates a HistoricalMapping failed validation.
	ErrInvalidMapping = errors.New("invalid historical mapping")

	// ErrInvalidQuote indicates a Quote failed validation.
	ErrInvalidQuote = errors.New("invalid quote")

	// ErrEmptySKU indicates the SKU field is empty.
	ErrEmptySKU = errors.New("sku cannot be empty")

	// ErrEmptyName indicates the item Name field is empty.
	ErrEmptyName = errors.New("item name cannot be empty")

	// ErrEmptyRequirement indicates the Requirement field is empty.
	ErrEmptyRequirement = errors.New("requirement cannot be empty")

	// ErrInvalidFrequency indicates a non-positive frequency.
	ErrInvalidFrequency = errors.New("frequency must be positive")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrCorruptRecord indicates a serialized record could not be decoded.
	ErrCorruptRecord = errors.New("corrupt record")
)
