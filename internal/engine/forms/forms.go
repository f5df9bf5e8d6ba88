// Package forms implements the multi-step guided-input flows: admission
// inquiry, feedback, appointment booking, and the teacher report. Each form is
// a small state machine keyed by the session's form step; an invalid input
// re-prompts the same step without advancing or mutating progress.
package forms

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/schoolbos/school_bot/internal/model"
)

// Directory provides the people/class lookups the forms need.
type Directory interface {
	StudentByID(ctx context.Context, id int64) (*model.StudentRef, error)
	StudentsByClass(ctx context.Context, classID int64) ([]model.StudentRef, error)
	ListTeachers(ctx context.Context) ([]model.TeacherRef, error)
	TeacherByID(ctx context.Context, id int64) (*model.TeacherRef, error)
	ListClasses(ctx context.Context) ([]model.ClassRef, error)
}

// SchoolData provides the aggregates consumed by the teacher report.
type SchoolData interface {
	PerformanceCounters(ctx context.Context, studentID int64) (*model.PerformanceCounters, error)
	AllGrades(ctx context.Context, studentID int64) ([]model.SubjectResult, error)
}

// Generator is the text-generation backend.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Action is an inline quick-reply attached to an admin notification. The
// payload must carry enough information (e.g. the appointment id) to be
// resolved asynchronously by a later inbound action.
type Action struct {
	Label   string
	Payload string
}

// Notifier delivers templated notifications to the school admin. Delivery is
// best-effort; the forms do not block on confirmation.
type Notifier interface {
	NotifyAdmin(ctx context.Context, template string, variables map[string]string, actions []Action) error
}

// AppointmentWriter persists appointment records.
type AppointmentWriter interface {
	Create(ctx context.Context, appt *model.Appointment) error
}

// InquiryWriter persists admission inquiries and feedback.
type InquiryWriter interface {
	CreateAdmission(ctx context.Context, inq *model.AdmissionInquiry) error
	CreateFeedback(ctx context.Context, fb *model.Feedback) error
}

// Engine runs the form state machines against a session.
type Engine struct {
	directory    Directory
	school       SchoolData
	generator    Generator
	notifier     Notifier
	appointments AppointmentWriter
	inquiries    InquiryWriter
	logger       *zap.Logger
}

func NewEngine(
	directory Directory,
	school SchoolData,
	generator Generator,
	notifier Notifier,
	appointments AppointmentWriter,
	inquiries InquiryWriter,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		directory:    directory,
		school:       school,
		generator:    generator,
		notifier:     notifier,
		appointments: appointments,
		inquiries:    inquiries,
		logger:       logger,
	}
}

// Start activates a form on the session and returns the first prompt.
func (e *Engine) Start(ctx context.Context, form model.FormTag, s *model.Session) (string, error) {
	switch form {
	case model.FormAdmission:
		return e.startAdmission(s), nil
	case model.FormFeedback:
		return e.startFeedback(s), nil
	case model.FormAppointment:
		return e.startAppointment(s), nil
	case model.FormTeacherReport:
		return e.startTeacherReport(ctx, s)
	}
	return "", fmt.Errorf("unknown form %q", form)
}

// Step feeds one inbound message into the active form.
func (e *Engine) Step(ctx context.Context, s *model.Session, text string) (string, error) {
	switch s.CurrentForm {
	case model.FormAdmission:
		return e.stepAdmission(ctx, s, text)
	case model.FormFeedback:
		return e.stepFeedback(ctx, s, text)
	case model.FormAppointment:
		return e.stepAppointment(ctx, s, text)
	case model.FormTeacherReport:
		return e.stepTeacherReport(ctx, s, text)
	}
	return "", fmt.Errorf("step on inactive form (step %d)", s.FormStep)
}

// notifyAdmin logs delivery failures instead of failing the form: the record
// is already persisted, losing the notification must not lose the submission.
func (e *Engine) notifyAdmin(ctx context.Context, template string, variables map[string]string, actions []Action) {
	if err := e.notifier.NotifyAdmin(ctx, template, variables, actions); err != nil {
		e.logger.Error("Failed to notify admin",
			zap.String("template", template),
			zap.Error(err))
	}
}
