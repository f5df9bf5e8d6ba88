package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schoolbos/school_bot/internal/model"
)

// InquiryRepository persists the records produced by form terminal steps:
// admission inquiries and feedback.
type InquiryRepository struct {
	pool *pgxpool.Pool
}

func NewInquiryRepository(pool *pgxpool.Pool) *InquiryRepository {
	return &InquiryRepository{pool: pool}
}

// CreateAdmission stores an admission inquiry.
func (r *InquiryRepository) CreateAdmission(ctx context.Context, inq *model.AdmissionInquiry) error {
	query := `
		INSERT INTO admission_inquiries (reference, student_name, parent_name, contact_number, class_name, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		inq.Reference,
		inq.StudentName,
		inq.ParentName,
		inq.ContactNumber,
		inq.ClassName,
		inq.Message,
	).Scan(&inq.ID, &inq.CreatedAt)
	if err != nil {
		return fmt.Errorf("create admission inquiry: %w", err)
	}

	return nil
}

// CreateFeedback stores a feedback/complaint record.
func (r *InquiryRepository) CreateFeedback(ctx context.Context, fb *model.Feedback) error {
	query := `
		INSERT INTO feedback (reference, student_id, parent_name, feedback_text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		fb.Reference,
		fb.StudentID,
		fb.ParentName,
		fb.Text,
	).Scan(&fb.ID, &fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}

	return nil
}
