package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schoolbos/school_bot/internal/model"
)

type fakeSessionRepo struct {
	stored  *model.Session
	created int
	updates [][]string
	getErr  error
}

func (f *fakeSessionRepo) Get(_ context.Context, _ string) (*model.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.stored, nil
}

func (f *fakeSessionRepo) Create(_ context.Context, s *model.Session) error {
	f.created++
	s.UpdatedAt = time.Now()
	f.stored = s
	return nil
}

func (f *fakeSessionRepo) Update(_ context.Context, _ *model.Session, fields ...string) error {
	f.updates = append(f.updates, fields)
	return nil
}

type fakeTeachers struct {
	isTeacher bool
	err       error
}

func (f *fakeTeachers) IsTeacher(_ context.Context, _ string) (bool, error) {
	return f.isTeacher, f.err
}

func TestAcquire(t *testing.T) {
	const ttl = 2 * time.Minute

	t.Run("creates a session on first contact", func(t *testing.T) {
		repo := &fakeSessionRepo{}
		svc := NewSessionService(repo, &fakeTeachers{}, ttl, zap.NewNop())

		s, created, err := svc.Acquire(context.Background(), "919876543210")
		require.NoError(t, err)

		assert.True(t, created)
		assert.Equal(t, 1, repo.created)
		assert.Equal(t, "en", s.Language)
		assert.Equal(t, "919876543210", s.Address)
	})

	t.Run("returns a fresh session untouched", func(t *testing.T) {
		id := int64(7)
		repo := &fakeSessionRepo{stored: &model.Session{
			Address:           "919876543210",
			SelectedStudentID: &id,
			CurrentForm:       model.FormAdmission,
			FormStep:          3,
			Language:          "hi",
			UpdatedAt:         time.Now().Add(-30 * time.Second),
		}}
		svc := NewSessionService(repo, &fakeTeachers{}, ttl, zap.NewNop())

		s, created, err := svc.Acquire(context.Background(), "919876543210")
		require.NoError(t, err)

		assert.False(t, created)
		assert.Equal(t, model.FormAdmission, s.CurrentForm)
		assert.Equal(t, 3, s.FormStep)
		require.NotNil(t, s.SelectedStudentID)
	})

	t.Run("expires a stale session but keeps address and language", func(t *testing.T) {
		id := int64(7)
		repo := &fakeSessionRepo{stored: &model.Session{
			Address:           "919876543210",
			SelectedStudentID: &id,
			CurrentForm:       model.FormAppointment,
			FormStep:          2,
			Language:          "hi",
			LastMessage:       "appointment",
			UpdatedAt:         time.Now().Add(-3 * time.Minute),
		}}
		svc := NewSessionService(repo, &fakeTeachers{}, ttl, zap.NewNop())

		s, created, err := svc.Acquire(context.Background(), "919876543210")
		require.NoError(t, err)

		assert.False(t, created)
		assert.Nil(t, s.SelectedStudentID)
		assert.Equal(t, model.FormNone, s.CurrentForm)
		assert.Equal(t, 0, s.FormStep)
		assert.Empty(t, s.LastMessage)
		assert.Equal(t, "919876543210", s.Address)
		assert.Equal(t, "hi", s.Language)
		require.NotEmpty(t, repo.updates, "the reset must be persisted")
	})

	t.Run("teacher flag is re-derived every call", func(t *testing.T) {
		repo := &fakeSessionRepo{stored: &model.Session{
			Address:   "917777777777",
			IsTeacher: false,
			UpdatedAt: time.Now(),
		}}
		svc := NewSessionService(repo, &fakeTeachers{isTeacher: true}, ttl, zap.NewNop())

		s, _, err := svc.Acquire(context.Background(), "917777777777")
		require.NoError(t, err)
		assert.True(t, s.IsTeacher)
	})

	t.Run("lookup failures propagate", func(t *testing.T) {
		repo := &fakeSessionRepo{getErr: errors.New("db down")}
		svc := NewSessionService(repo, &fakeTeachers{}, ttl, zap.NewNop())

		_, _, err := svc.Acquire(context.Background(), "919876543210")
		require.Error(t, err)
	})
}

func TestPersistDefaults(t *testing.T) {
	repo := &fakeSessionRepo{stored: &model.Session{Address: "919876543210", UpdatedAt: time.Now()}}
	svc := NewSessionService(repo, &fakeTeachers{}, time.Minute, zap.NewNop())

	require.NoError(t, svc.Persist(context.Background(), repo.stored))

	require.Len(t, repo.updates, 1)
	assert.Equal(t, conversationFields, repo.updates[0])
	assert.NotContains(t, repo.updates[0], "language", "turn-end writes must not clobber the language")
}

func TestReset(t *testing.T) {
	id := int64(7)
	s := &model.Session{
		Address:           "919876543210",
		SelectedStudentID: &id,
		CurrentForm:       model.FormFeedback,
		FormStep:          1,
		Language:          "hi",
	}
	repo := &fakeSessionRepo{stored: s}
	svc := NewSessionService(repo, &fakeTeachers{}, time.Minute, zap.NewNop())

	require.NoError(t, svc.Reset(context.Background(), s))

	assert.Nil(t, s.SelectedStudentID)
	assert.Equal(t, model.FormNone, s.CurrentForm)
	assert.Equal(t, "hi", s.Language)
	require.Len(t, repo.updates, 1)
}
