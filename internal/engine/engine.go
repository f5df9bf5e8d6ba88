// Package engine is the dialogue core: it owns the per-turn pipeline from
// inbound text to outbound reply. Global overrides pre-empt forms, teacher
// mode pre-empts everything, and anything unclassified falls through to
// retrieval-augmented generation.
package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/schoolbos/school_bot/internal/engine/forms"
	"github.com/schoolbos/school_bot/internal/engine/intent"
	"github.com/schoolbos/school_bot/internal/model"
)

// SessionStore is the session lifecycle surface.
type SessionStore interface {
	Acquire(ctx context.Context, address string) (*model.Session, bool, error)
	Persist(ctx context.Context, s *model.Session, fields ...string) error
	Reset(ctx context.Context, s *model.Session) error
}

// Directory resolves addresses to students.
type Directory interface {
	StudentsByContact(ctx context.Context, address string) ([]model.StudentRef, error)
	StudentByID(ctx context.Context, id int64) (*model.StudentRef, error)
}

// SchoolData serves the per-student reads behind the parent menu.
type SchoolData interface {
	Homework(ctx context.Context, studentID int64) ([]model.HomeworkItem, error)
	Attendance(ctx context.Context, studentID int64) (*model.AttendanceSummary, error)
	Fees(ctx context.Context, studentID int64) (*model.FeeStatus, error)
	Exams(ctx context.Context, studentID int64) (*model.ExamSchedule, error)
	Results(ctx context.Context, studentID int64) (*model.ResultSummary, error)
	Notices(ctx context.Context, studentID int64) ([]model.Notice, error)
	LibraryBooks(ctx context.Context, studentID int64) ([]model.LibraryBook, error)
	BusInfo(ctx context.Context, studentID int64) (*model.BusInfo, error)
}

// Generator is the text-generation backend.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Retriever returns documents relevant to a query. It never fails: retrieval
// problems degrade to an empty result.
type Retriever interface {
	TopDocuments(ctx context.Context, query string, topK int) []model.Document
}

// FormRunner runs the multi-step form state machines.
type FormRunner interface {
	Start(ctx context.Context, form model.FormTag, s *model.Session) (string, error)
	Step(ctx context.Context, s *model.Session, text string) (string, error)
}

// Reply is the outcome of one turn. Language tells the transport whether the
// text still needs translation before delivery.
type Reply struct {
	Text     string
	Language string
}

const (
	ragTopK          = 3
	defaultMaxTokens = 200
)

// Engine wires the pipeline together. Turns for the same address are
// serialized; turns for different addresses run concurrently.
type Engine struct {
	store     SessionStore
	directory Directory
	school    SchoolData
	generator Generator
	retriever Retriever
	forms     FormRunner
	resolver  *intent.Resolver
	maxTokens int
	logger    *zap.Logger

	locks sync.Map // address -> *sync.Mutex
}

func New(
	store SessionStore,
	directory Directory,
	school SchoolData,
	generator Generator,
	retriever Retriever,
	formRunner FormRunner,
	resolver *intent.Resolver,
	maxTokens int,
	logger *zap.Logger,
) *Engine {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Engine{
		store:     store,
		directory: directory,
		school:    school,
		generator: generator,
		retriever: retriever,
		forms:     formRunner,
		resolver:  resolver,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

var _ FormRunner = (*forms.Engine)(nil)

func (e *Engine) lock(address string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(address, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// generate runs the backend and degrades to a canned apology on failure, so a
// flaky model never takes a turn down.
func (e *Engine) generate(ctx context.Context, prompt string) string {
	out, err := e.generator.Generate(ctx, prompt, e.maxTokens)
	if err != nil {
		e.logger.Warn("Generation failed", zap.Error(err))
		return replyLLMDifficulty
	}
	return out
}
