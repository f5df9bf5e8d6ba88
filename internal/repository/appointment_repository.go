package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schoolbos/school_bot/internal/model"
)

type AppointmentRepository struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// Create inserts a pending appointment and fills in its id.
func (r *AppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (student_id, parent_name, contact_number, appointment_with,
		                          teacher_id, reason, preferred_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		appt.StudentID,
		appt.ParentName,
		appt.ContactNumber,
		appt.With,
		appt.TeacherID,
		appt.Reason,
		appt.PreferredTime,
		appt.Status,
	).Scan(&appt.ID, &appt.CreatedAt)
	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

// GetByID returns an appointment, or nil if absent.
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `
		SELECT id, student_id, parent_name, contact_number, appointment_with,
		       teacher_id, reason, preferred_time, status, created_at
		FROM appointments
		WHERE id = $1
	`

	var appt model.Appointment
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&appt.ID,
		&appt.StudentID,
		&appt.ParentName,
		&appt.ContactNumber,
		&appt.With,
		&appt.TeacherID,
		&appt.Reason,
		&appt.PreferredTime,
		&appt.Status,
		&appt.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	return &appt, nil
}

// UpdateStatus records the admin's accept/reject decision.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE appointments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}
