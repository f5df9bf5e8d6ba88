package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/schoolbos/school_bot/internal/model"
)

// DocumentRepository stores school documents and their embeddings for the
// retrieval fallback.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// SearchByEmbedding returns the top-k documents nearest to the query vector.
// The <=> operator computes cosine distance, so ascending order gives the
// most similar documents first.
func (r *DocumentRepository) SearchByEmbedding(ctx context.Context, embedding []float32, embedModel string, k int) ([]model.Document, error) {
	if k <= 0 {
		k = 3
	}

	query := `
		SELECT d.id, d.title, d.content, d.doc_type, d.created_at
		FROM school_documents d
		JOIN document_embeddings e ON e.document_id = d.id
		WHERE e.model = $1
		ORDER BY e.embedding <=> $2
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, embedModel, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.DocType, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// ListWithoutEmbedding returns documents that have no vector for the given
// model yet. Used by the background indexer.
func (r *DocumentRepository) ListWithoutEmbedding(ctx context.Context, embedModel string, limit int) ([]model.Document, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT d.id, d.title, d.content, d.doc_type, d.created_at
		FROM school_documents d
		LEFT JOIN document_embeddings e ON e.document_id = d.id AND e.model = $1
		WHERE e.id IS NULL AND LENGTH(d.content) > 0
		ORDER BY d.created_at
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, embedModel, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents without embedding: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.DocType, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// UpsertEmbedding stores or refreshes a document's vector.
func (r *DocumentRepository) UpsertEmbedding(ctx context.Context, documentID int64, embedModel string, embedding []float32) error {
	query := `
		INSERT INTO document_embeddings (document_id, model, embedding, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (document_id, model)
		DO UPDATE SET embedding = EXCLUDED.embedding, updated_at = now()
	`

	_, err := r.pool.Exec(ctx, query, documentID, embedModel, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("upsert document embedding: %w", err)
	}

	return nil
}
