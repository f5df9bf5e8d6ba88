package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schoolbos/school_bot/internal/model"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Get loads a session by address. Returns nil if none exists.
func (r *SessionRepository) Get(ctx context.Context, address string) (*model.Session, error) {
	query := `
		SELECT address, selected_student_id, child_candidates, awaiting_child_selection,
		       current_form, form_step, form_data, language, last_message, updated_at
		FROM chat_sessions
		WHERE address = $1
	`

	var (
		s              model.Session
		candidatesJSON []byte
		formDataJSON   []byte
	)
	err := r.pool.QueryRow(ctx, query, address).Scan(
		&s.Address,
		&s.SelectedStudentID,
		&candidatesJSON,
		&s.AwaitingChildSelection,
		&s.CurrentForm,
		&s.FormStep,
		&formDataJSON,
		&s.Language,
		&s.LastMessage,
		&s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if len(candidatesJSON) > 0 {
		if err := json.Unmarshal(candidatesJSON, &s.ChildCandidates); err != nil {
			return nil, fmt.Errorf("decode child candidates: %w", err)
		}
	}
	if len(formDataJSON) > 0 {
		if err := json.Unmarshal(formDataJSON, &s.FormData); err != nil {
			return nil, fmt.Errorf("decode form data: %w", err)
		}
	}

	return &s, nil
}

// Create inserts a fresh session row for an address.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	candidatesJSON, err := json.Marshal(s.ChildCandidates)
	if err != nil {
		return fmt.Errorf("encode child candidates: %w", err)
	}
	formDataJSON, err := json.Marshal(s.FormData)
	if err != nil {
		return fmt.Errorf("encode form data: %w", err)
	}

	query := `
		INSERT INTO chat_sessions (address, selected_student_id, child_candidates, awaiting_child_selection,
		                           current_form, form_step, form_data, language, last_message, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING updated_at
	`

	err = r.pool.QueryRow(
		ctx, query,
		s.Address,
		s.SelectedStudentID,
		candidatesJSON,
		s.AwaitingChildSelection,
		s.CurrentForm,
		s.FormStep,
		formDataJSON,
		s.Language,
		s.LastMessage,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// sessionColumns maps persistable field names to their column expressions.
// Value functions pull the current value off the session struct.
var sessionColumns = map[string]func(s *model.Session) (any, error){
	"selected_student_id":      func(s *model.Session) (any, error) { return s.SelectedStudentID, nil },
	"child_candidates":         func(s *model.Session) (any, error) { return json.Marshal(s.ChildCandidates) },
	"awaiting_child_selection": func(s *model.Session) (any, error) { return s.AwaitingChildSelection, nil },
	"current_form":             func(s *model.Session) (any, error) { return s.CurrentForm, nil },
	"form_step":                func(s *model.Session) (any, error) { return s.FormStep, nil },
	"form_data":                func(s *model.Session) (any, error) { return json.Marshal(s.FormData) },
	"language":                 func(s *model.Session) (any, error) { return s.Language, nil },
	"last_message":             func(s *model.Session) (any, error) { return s.LastMessage, nil },
}

// Update writes only the named fields (partial-write semantics, so concurrent
// updates to unrelated fields are not clobbered). updated_at is always touched.
func (r *SessionRepository) Update(ctx context.Context, s *model.Session, fields ...string) error {
	if len(fields) == 0 {
		return r.Touch(ctx, s.Address)
	}

	set := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	args = append(args, s.Address)

	for _, field := range fields {
		valueFn, ok := sessionColumns[field]
		if !ok {
			return fmt.Errorf("unknown session field %q", field)
		}
		value, err := valueFn(s)
		if err != nil {
			return fmt.Errorf("encode session field %q: %w", field, err)
		}
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", field, len(args)))
	}
	set = append(set, "updated_at = now()")

	query := "UPDATE chat_sessions SET " + strings.Join(set, ", ") + " WHERE address = $1"

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}

// Touch bumps updated_at without changing any conversational field.
func (r *SessionRepository) Touch(ctx context.Context, address string) error {
	_, err := r.pool.Exec(ctx, `UPDATE chat_sessions SET updated_at = now() WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}
