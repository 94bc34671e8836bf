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


package ingestion

import (
	"context"
	"fmt"

	"github.com/poiesic/skumatch/core"
	"github.com/poiesic/skumatch/vectorstore"
)

// Rebuild loads every embedded catalog item into a new snapshot and
// publishes it to the configured store. The cache file and notifier, when
// configured, are updated afterwards; their failures are logged and do not
// undo the publish.
func (p *Pipeline) Rebuild(ctx context.Context) (*vectorstore.Snapshot, error) {
	if p.store == nil {
		return nil, ErrVectorStoreRequired
	}

	snap, err := vectorstore.Load(ctx, vectorstore.NewCatalogSource(p.catalog), p.client.Dimension(), p.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}

	published, err := p.store.Publish(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to publish snapshot: %w", err)
	}
	generation := published.Generation()
	p.logger.Info("snapshot published", "generation", generation, "rows", published.Len(), "skipped", published.Skipped())

	if p.cachePath != "" {
		if err := vectorstore.WriteCache(p.cachePath, published); err != nil {
			p.logger.Error("failed to write snapshot cache", "path", p.cachePath, "err", err)
		}
	}

	if p.notifier != nil {
		event := core.SnapshotEvent{
			Generation: generation,
			Items:      published.Len(),
			Dimension:  published.Dimension(),
			BuiltAt:    published.BuiltAt(),
		}
		if err := p.notifier.SnapshotReady(ctx, event); err != nil {
			p.logger.Error("failed to announce snapshot", "generation", generation, "err", err)
		}
	}

	return published, nil
}
