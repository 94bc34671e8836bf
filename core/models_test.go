package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same ID",
			content: "Test Tube 10ml",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "Borosilicate glass test tube with rim, 10ml, pack of 100, autoclavable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_CaseAndWhitespaceSensitive(t *testing.T) {
	base := IDFromContent("Test Tube 10ml")

	if base == IDFromContent("test tube 10ml") {
		t.Error("IDFromContent() should be case sensitive")
	}
	if base == IDFromContent("Test Tube 10ml ") {
		t.Error("IDFromContent() should be whitespace sensitive")
	}
}

func TestCatalogItemHasEmbedding(t *testing.T) {
	item := &CatalogItem{SKU: "SKU-A", Name: "Test Tube"}
	if item.HasEmbedding() {
		t.Error("item without vector should not report an embedding")
	}

	item.Embedding = []float32{0.1, 0.2}
	if !item.HasEmbedding() {
		t.Error("item with vector should report an embedding")
	}
}
