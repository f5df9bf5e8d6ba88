package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/schoolbos/school_bot/internal/llm"
	"github.com/schoolbos/school_bot/internal/repository"
)

const (
	indexInterval = 15 * time.Minute
	indexBatch    = 50
)

// Indexer is a background task that embeds school documents which do not yet
// have a vector for the configured model, so newly uploaded documents become
// searchable without an explicit reindex command.
type Indexer struct {
	embedder *llm.Embedder
	docs     *repository.DocumentRepository
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewIndexer(embedder *llm.Embedder, docs *repository.DocumentRepository, logger *zap.Logger) *Indexer {
	return &Indexer{
		embedder: embedder,
		docs:     docs,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the indexing loop. The first pass runs immediately.
func (ix *Indexer) Start(ctx context.Context) {
	ix.logger.Info("Starting document indexer")
	go ix.run(ctx)
}

// Stop terminates the indexing loop.
func (ix *Indexer) Stop() {
	ix.logger.Info("Stopping document indexer")
	close(ix.stopChan)
}

func (ix *Indexer) run(ctx context.Context) {
	ix.indexPending(ctx)

	ticker := time.NewTicker(indexInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ix.indexPending(ctx)
		case <-ix.stopChan:
			ix.logger.Info("Document indexer stopped")
			return
		case <-ctx.Done():
			ix.logger.Info("Document indexer cancelled")
			return
		}
	}
}

func (ix *Indexer) indexPending(ctx context.Context) {
	docs, err := ix.docs.ListWithoutEmbedding(ctx, ix.embedder.Model(), indexBatch)
	if err != nil {
		ix.logger.Error("Failed to list documents for indexing", zap.Error(err))
		return
	}
	if len(docs) == 0 {
		return
	}

	ix.logger.Info("Indexing documents", zap.Int("count", len(docs)))

	indexed := 0
	for _, doc := range docs {
		vector, err := ix.embedder.Embed(ctx, doc.Content)
		if err != nil {
			ix.logger.Error("Failed to embed document",
				zap.Int64("document_id", doc.ID),
				zap.Error(err))
			continue
		}

		if err := ix.docs.UpsertEmbedding(ctx, doc.ID, ix.embedder.Model(), vector); err != nil {
			ix.logger.Error("Failed to store document embedding",
				zap.Int64("document_id", doc.ID),
				zap.Error(err))
			continue
		}
		indexed++
	}

	ix.logger.Info("Document indexing pass complete",
		zap.Int("indexed", indexed),
		zap.Int("pending", len(docs)-indexed))
}
