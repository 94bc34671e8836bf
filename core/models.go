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
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DefaultDimension is the embedding width produced by text-embedding-3-small.
const DefaultDimension = 1536

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// CatalogItem is a sellable catalog entry identified by its SKU.
// Items without an Embedding are invisible to vector search but still
// reachable through historical mappings.
type CatalogItem struct {
	SKU       string
	Name      string    // Text the embedding is derived from
	Embedding []float32 // Populated by the ingestion pipeline
	Price     *float64  // Optional display price
	Image     string    // Optional image reference
	UpdatedAt time.Time
}

// HasEmbedding reports whether the item carries a non-empty embedding.
func (i *CatalogItem) HasEmbedding() bool {
	return len(i.Embedding) > 0
}

// HistoricalMapping counts how often a requirement string resolved to a SKU.
// Requirements are matched exactly, case and whitespace included.
type HistoricalMapping struct {
	Requirement string
	SKU         string
	Frequency   int
	UpdatedAt   time.Time
}

// Quote is one historical quotation line for a SKU.
type Quote struct {
	ID          ID        `json:"id"`
	SKU         string    `json:"sku"`
	Requirement string    `json:"requirement"`
	Customer    string    `json:"customer,omitempty"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	QuotedAt    time.Time `json:"quoted_at"`
}

// VectorMatch is a single nearest-neighbor hit.
// Row is the position of the SKU inside the snapshot that produced the match.
type VectorMatch struct {
	SKU        string
	Similarity float64
	Row        int
}

// CandidateScore is the per-SKU aggregate produced by one ranking call.
// FinalScore is always HistoricalScore + VectorScore.
type CandidateScore struct {
	SKU                 string  `json:"sku"`
	HistoricalScore     float64 `json:"historical_score"`
	VectorScore         float64 `json:"vector_score"`
	HistoricalFrequency int     `json:"historical_frequency"`
	VectorSimilarity    float64 `json:"vector_similarity"`
	FinalScore          float64 `json:"final_score"`
}

// Suggestion is a ranked candidate enriched with catalog metadata.
type Suggestion struct {
	CandidateScore
	ItemName     string   `json:"item_name"`
	Price        *float64 `json:"price,omitempty"`
	Image        string   `json:"image,omitempty"`
	RecentQuotes []*Quote `json:"recent_quotes"`
}

// SnapshotEvent announces that a new vector snapshot is ready to be loaded.
type SnapshotEvent struct {
	Generation uint64    `json:"generation"`
	Items      int       `json:"items"`
	Dimension  int       `json:"dimension"`
	BuiltAt    time.Time `json:"built_at"`
}
