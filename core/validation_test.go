package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateCatalogItem(t *testing.T) {
	tests := []struct {
		name    string
		item    *CatalogItem
		wantErr error
	}{
		{
			name:    "valid item",
			item:    &CatalogItem{SKU: "SKU-A", Name: "Test Tube 10ml"},
			wantErr: nil,
		},
		{
			name:    "valid item without embedding",
			item:    &CatalogItem{SKU: "SKU-A", Name: "Test Tube 10ml", Embedding: nil},
			wantErr: nil,
		},
		{
			name:    "nil item",
			item:    nil,
			wantErr: ErrInvalidCatalogItem,
		},
		{
			name:    "empty sku",
			item:    &CatalogItem{Name: "Test Tube 10ml"},
			wantErr: ErrEmptySKU,
		},
		{
			name:    "empty name",
			item:    &CatalogItem{SKU: "SKU-A"},
			wantErr: ErrEmptyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCatalogItem(tt.item)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCatalogItem() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCatalogItem() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidCatalogItem) {
				t.Errorf("ValidateCatalogItem() error should wrap ErrInvalidCatalogItem, got %v", err)
			}
		})
	}
}

func TestValidateMapping(t *testing.T) {
	tests := []struct {
		name    string
		mapping *HistoricalMapping
		wantErr error
	}{
		{
			name:    "valid mapping",
			mapping: &HistoricalMapping{Requirement: "Test Tube 10ml", SKU: "SKU-A", Frequency: 5},
		},
		{
			name:    "requirement with surrounding whitespace is kept",
			mapping: &HistoricalMapping{Requirement: " Test Tube 10ml ", SKU: "SKU-A", Frequency: 1},
		},
		{
			name:    "nil mapping",
			wantErr: ErrInvalidMapping,
		},
		{
			name:    "empty requirement",
			mapping: &HistoricalMapping{SKU: "SKU-A", Frequency: 1},
			wantErr: ErrEmptyRequirement,
		},
		{
			name:    "empty sku",
			mapping: &HistoricalMapping{Requirement: "Test Tube", Frequency: 1},
			wantErr: ErrEmptySKU,
		},
		{
			name:    "zero frequency",
			mapping: &HistoricalMapping{Requirement: "Test Tube", SKU: "SKU-A"},
			wantErr: ErrInvalidFrequency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMapping(tt.mapping)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateMapping() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateMapping() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateQuote(t *testing.T) {
	if err := ValidateQuote(&Quote{SKU: "SKU-A", QuotedAt: time.Now().Add(-time.Hour)}); err != nil {
		t.Errorf("ValidateQuote() unexpected error = %v", err)
	}
	if err := ValidateQuote(&Quote{QuotedAt: time.Now()}); !errors.Is(err, ErrEmptySKU) {
		t.Errorf("ValidateQuote() error = %v, want %v", err, ErrEmptySKU)
	}
	if err := ValidateQuote(&Quote{SKU: "SKU-A", QuotedAt: time.Now().Add(time.Hour)}); !errors.Is(err, ErrInvalidTimestamp) {
		t.Errorf("ValidateQuote() error = %v, want %v", err, ErrInvalidTimestamp)
	}
}
