package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/skumatch/core"
	"github.com/poiesic/skumatch/storage/badger"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML document accepted by the import command.
type seedFile struct {
	Items    []seedItem    `yaml:"items"`
	Mappings []seedMapping `yaml:"mappings"`
	Quotes   []seedQuote   `yaml:"quotes"`
}

type seedItem struct {
	SKU   string   `yaml:"sku"`
	Name  string   `yaml:"name"`
	Price *float64 `yaml:"price"`
	Image string   `yaml:"image"`
}

type seedMapping struct {
	Requirement string `yaml:"requirement"`
	SKU         string `yaml:"sku"`
	Frequency   int    `yaml:"frequency"`
}

type seedQuote struct {
	SKU         string    `yaml:"sku"`
	Requirement string    `yaml:"requirement"`
	Customer    string    `yaml:"customer"`
	Quantity    float64   `yaml:"quantity"`
	Price       float64   `yaml:"price"`
	QuotedAt    time.Time `yaml:"quoted_at"`
}

type importCounts struct {
	Items    int
	Mappings int
	Quotes   int
}

func decodeSeed(r io.Reader) (*seedFile, error) {
	var seed seedFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&seed); err != nil {
		if err == io.EOF {
			return &seed, nil
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// importSeed stores the seed contents. Mappings default to a frequency of 1
// and quotes without a timestamp are stamped with now.
func importSeed(ctx context.Context, repos *badger.Repositories, seed *seedFile) (importCounts, error) {
	var counts importCounts
	now := time.Now().UTC()

	if len(seed.Items) > 0 {
		items := make([]*core.CatalogItem, len(seed.Items))
		for i, s := range seed.Items {
			items[i] = &core.CatalogItem{SKU: s.SKU, Name: s.Name, Price: s.Price, Image: s.Image}
		}
		added, err := repos.Catalog.AddItems(ctx, items...)
		if err != nil {
			return counts, fmt.Errorf("failed to import catalog items: %w", err)
		}
		counts.Items = len(added)
	}

	if len(seed.Mappings) > 0 {
		mappings := make([]*core.HistoricalMapping, len(seed.Mappings))
		for i, s := range seed.Mappings {
			frequency := s.Frequency
			if frequency == 0 {
				frequency = 1
			}
			mappings[i] = &core.HistoricalMapping{Requirement: s.Requirement, SKU: s.SKU, Frequency: frequency, UpdatedAt: now}
		}
		if err := repos.History.AddMappings(ctx, mappings...); err != nil {
			return counts, fmt.Errorf("failed to import historical mappings: %w", err)
		}
		counts.Mappings = len(mappings)
	}

	if len(seed.Quotes) > 0 {
		quotes := make([]*core.Quote, len(seed.Quotes))
		for i, s := range seed.Quotes {
			quotedAt := s.QuotedAt
			if quotedAt.IsZero() {
				quotedAt = now
			}
			quotes[i] = &core.Quote{
				SKU:         s.SKU,
				Requirement: s.Requirement,
				Customer:    s.Customer,
				Quantity:    s.Quantity,
				Price:       s.Price,
				QuotedAt:    quotedAt,
			}
		}
		added, err := repos.Quotes.AddQuotes(ctx, quotes...)
		if err != nil {
			return counts, fmt.Errorf("failed to import quotes: %w", err)
		}
		counts.Quotes = len(added)
	}

	return counts, nil
}
