// Package service holds the stateful orchestration between repositories and
// the dialogue engine.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/schoolbos/school_bot/internal/model"
)

// SessionRepo is the persistence surface the session service needs.
type SessionRepo interface {
	Get(ctx context.Context, address string) (*model.Session, error)
	Create(ctx context.Context, s *model.Session) error
	Update(ctx context.Context, s *model.Session, fields ...string) error
}

// TeacherChecker answers whether an address belongs to a teacher.
type TeacherChecker interface {
	IsTeacher(ctx context.Context, address string) (bool, error)
}

// conversationFields is the standard set persisted at the end of every turn.
// Language is deliberately absent: it is sticky and written only by the
// language-switch handlers, so a turn-end write can never clobber it.
var conversationFields = []string{
	"selected_student_id",
	"child_candidates",
	"awaiting_child_selection",
	"current_form",
	"form_step",
	"form_data",
	"last_message",
}

// SessionService owns session lifecycle: load-or-create, staleness expiry,
// teacher re-derivation, and persistence of turn outcomes.
type SessionService struct {
	sessions SessionRepo
	teachers TeacherChecker
	ttl      time.Duration
	logger   *zap.Logger
}

func NewSessionService(sessions SessionRepo, teachers TeacherChecker, ttl time.Duration, logger *zap.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		teachers: teachers,
		ttl:      ttl,
		logger:   logger,
	}
}

// Acquire loads the session for an address, creating it if missing and
// resetting it if stale. The teacher flag is re-derived on every call and
// never read from storage. The second return value reports first contact.
func (s *SessionService) Acquire(ctx context.Context, address string) (*model.Session, bool, error) {
	sess, err := s.sessions.Get(ctx, address)
	if err != nil {
		return nil, false, fmt.Errorf("load session: %w", err)
	}

	created := false
	if sess == nil {
		sess = &model.Session{Address: address, Language: "en"}
		if err := s.sessions.Create(ctx, sess); err != nil {
			return nil, false, fmt.Errorf("create session: %w", err)
		}
		created = true
		s.logger.Info("Session created", zap.String("address", address))
	} else if time.Since(sess.UpdatedAt) > s.ttl {
		sess.ResetConversation()
		if err := s.sessions.Update(ctx, sess, conversationFields...); err != nil {
			return nil, false, fmt.Errorf("reset stale session: %w", err)
		}
		s.logger.Info("Session expired, conversation reset",
			zap.String("address", address),
			zap.Duration("idle", time.Since(sess.UpdatedAt)))
	}

	isTeacher, err := s.teachers.IsTeacher(ctx, address)
	if err != nil {
		return nil, false, fmt.Errorf("derive teacher flag: %w", err)
	}
	sess.IsTeacher = isTeacher

	return sess, created, nil
}

// Persist writes the named fields, defaulting to the standard conversational
// set when none are given.
func (s *SessionService) Persist(ctx context.Context, sess *model.Session, fields ...string) error {
	if len(fields) == 0 {
		fields = conversationFields
	}
	if err := s.sessions.Update(ctx, sess, fields...); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Reset drops the conversation back to the default state (keeping address and
// language) and persists the result immediately.
func (s *SessionService) Reset(ctx context.Context, sess *model.Session) error {
	sess.ResetConversation()
	if err := s.sessions.Update(ctx, sess, conversationFields...); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	s.logger.Info("Session reset", zap.String("address", sess.Address))
	return nil
}
