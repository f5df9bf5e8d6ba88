package rag

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/schoolbos/school_bot/internal/llm"
	"github.com/schoolbos/school_bot/internal/model"
	"github.com/schoolbos/school_bot/internal/repository"
)

// Retriever answers "given free text, return the most relevant school
// documents". Internal failures are swallowed to an empty result: the caller
// always gets a usable (possibly empty) document list.
type Retriever struct {
	embedder *llm.Embedder
	docs     *repository.DocumentRepository
	logger   *zap.Logger
}

func NewRetriever(embedder *llm.Embedder, docs *repository.DocumentRepository, logger *zap.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		docs:     docs,
		logger:   logger,
	}
}

// TopDocuments returns up to topK documents nearest to the query.
func (r *Retriever) TopDocuments(ctx context.Context, query string, topK int) []model.Document {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Warn("query embedding failed", zap.Error(err))
		return nil
	}

	docs, err := r.docs.SearchByEmbedding(ctx, vector, r.embedder.Model(), topK)
	if err != nil {
		r.logger.Warn("vector search failed", zap.Error(err))
		return nil
	}

	return docs
}
