package ingestion

import (
	"context"

	"github.com/poiesic/skumatch/core"
	"github.com/poiesic/skumatch/vectorstore"
)

// batchResult holds per-batch counts, merged into the run totals once the
// batch finishes.
type batchResult struct {
	succeeded int
	failed    int
}

// processBatch embeds one batch with a single client call and writes every
// returned vector through a writer owned by this batch.
func (p *Pipeline) processBatch(ctx context.Context, batch []*core.CatalogItem) batchResult {
	var result batchResult

	texts := make([]string, len(batch))
	for i, item := range batch {
		texts[i] = item.Name
	}
	vectors := p.client.EmbedBatch(ctx, texts, p.batchSize)

	writer, err := p.catalog.OpenWriter(ctx)
	if err != nil {
		p.logger.Error("failed to open embedding writer", "items", len(batch), "err", err)
		result.failed = len(batch)
		return result
	}
	defer func() {
		if err := writer.Close(); err != nil {
			p.logger.Warn("failed to close embedding writer", "err", err)
		}
	}()

	for i, item := range batch {
		vector := vectors[i]
		if vector == nil {
			result.failed++
			continue
		}

		vector = vectorstore.NormalizeVector(vector)
		err := p.retry.Do(ctx, func() error {
			return writer.WriteEmbedding(ctx, item.SKU, vector)
		})
		if err != nil {
			p.logger.Warn("failed to store embedding", "sku", item.SKU, "err", err)
			result.failed++
			continue
		}
		result.succeeded++
	}

	if result.failed > 0 {
		p.logger.Warn("batch finished with failures", "items", len(batch), "failed", result.failed)
	}
	return result
}
