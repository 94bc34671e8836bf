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

import (
	"fmt"
	"time"
)

// ValidateCatalogItem validates a CatalogItem according to domain rules.
//
// Validation rules:
//   - SKU must not be empty
//   - Name must not be empty
//
// NOT validated (populated by the ingestion pipeline):
//   - Embedding (can be empty until vectors are generated)
func ValidateCatalogItem(item *CatalogItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidCatalogItem)
	}

	if item.SKU == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCatalogItem, ErrEmptySKU)
	}

	if item.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCatalogItem, ErrEmptyName)
	}

	return nil
}

// ValidateMapping validates a HistoricalMapping.
// The requirement is checked for emptiness only; it is never trimmed.
func ValidateMapping(mapping *HistoricalMapping) error {
	if mapping == nil {
		return fmt.Errorf("%w: mapping is nil", ErrInvalidMapping)
	}

	if mapping.Requirement == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMapping, ErrEmptyRequirement)
	}

	if mapping.SKU == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMapping, ErrEmptySKU)
	}

	if mapping.Frequency <= 0 {
		return fmt.Errorf("%w: %w: %d", ErrInvalidMapping, ErrInvalidFrequency, mapping.Frequency)
	}

	return nil
}

// ValidateQuote validates a Quote.
func ValidateQuote(quote *Quote) error {
	if quote == nil {
		return fmt.Errorf("%w: quote is nil", ErrInvalidQuote)
	}

	if quote.SKU == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuote, ErrEmptySKU)
	}

	if !IsValidTimestamp(quote.QuotedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidQuote, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
