package storage

import (
	"testing"
	"time"

	"github.com/poiesic/skumatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("Test Tube 10ml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Empty(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalCatalogItem(t *testing.T) {
	price := 4.25
	item := &core.CatalogItem{
		SKU:       "SKU-A",
		Name:      "Test Tube 10ml",
		Embedding: []float32{0.6, 0.8},
		Price:     &price,
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalCatalogItem(MarshalCatalogItem(item))
	require.NoError(t, err)
	assert.Equal(t, item, decoded)
}

func TestUnmarshalCatalogItem_Garbage(t *testing.T) {
	_, err := UnmarshalCatalogItem([]byte{0xff})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalMapping(t *testing.T) {
	mapping := &core.HistoricalMapping{
		Requirement: " Test Tube 10ml ",
		SKU:         "SKU-A",
		Frequency:   5,
		UpdatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalMapping(MarshalMapping(mapping))
	require.NoError(t, err)
	assert.Equal(t, mapping, decoded)
}

func TestMarshalUnmarshalQuote(t *testing.T) {
	quote := &core.Quote{
		ID:          7,
		SKU:         "SKU-A",
		Requirement: "Test Tube 10ml",
		Customer:    "ACME Labs",
		Quantity:    100,
		Price:       0.42,
		QuotedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalQuote(MarshalQuote(quote))
	require.NoError(t, err)
	assert.Equal(t, quote, decoded)
}
