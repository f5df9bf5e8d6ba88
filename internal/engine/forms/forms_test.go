package forms

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/schoolbos/school_bot/internal/model"
)

// ---- fakes ----

type fakeDirectory struct {
	students []model.StudentRef
	teachers []model.TeacherRef
	classes  []model.ClassRef
	roster   map[int64][]model.StudentRef
}

func (f *fakeDirectory) StudentByID(_ context.Context, id int64) (*model.StudentRef, error) {
	for _, st := range f.students {
		if st.ID == id {
			return &st, nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) StudentsByClass(_ context.Context, classID int64) ([]model.StudentRef, error) {
	return f.roster[classID], nil
}

func (f *fakeDirectory) ListTeachers(_ context.Context) ([]model.TeacherRef, error) {
	return f.teachers, nil
}

func (f *fakeDirectory) TeacherByID(_ context.Context, id int64) (*model.TeacherRef, error) {
	for _, t := range f.teachers {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) ListClasses(_ context.Context) ([]model.ClassRef, error) {
	return f.classes, nil
}

type fakeSchool struct{}

func (fakeSchool) PerformanceCounters(_ context.Context, _ int64) (*model.PerformanceCounters, error) {
	return &model.PerformanceCounters{
		DaysTotal: 100, DaysPresent: 92, DaysAbsent: 6, DaysLeave: 2,
		BooksIssued: 4, BooksOverdue: 1, HomeworkCount: 12,
	}, nil
}

func (fakeSchool) AllGrades(_ context.Context, _ int64) ([]model.SubjectResult, error) {
	return []model.SubjectResult{
		{Subject: "Maths", Marks: 88, MaxMarks: 100, Grade: "A"},
		{Subject: "English", Marks: 74, MaxMarks: 100, Grade: "B"},
	}, nil
}

type fakeGenerator struct {
	reply string
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type notification struct {
	template  string
	variables map[string]string
	actions   []Action
}

type fakeNotifier struct {
	sent []notification
	err  error
}

func (f *fakeNotifier) NotifyAdmin(_ context.Context, template string, variables map[string]string, actions []Action) error {
	f.sent = append(f.sent, notification{template, variables, actions})
	return f.err
}

type fakeAppointments struct {
	created []*model.Appointment
	err     error
}

func (f *fakeAppointments) Create(_ context.Context, appt *model.Appointment) error {
	if f.err != nil {
		return f.err
	}
	appt.ID = 42
	f.created = append(f.created, appt)
	return nil
}

type fakeInquiries struct {
	admissions []*model.AdmissionInquiry
	feedbacks  []*model.Feedback
	err        error
}

func (f *fakeInquiries) CreateAdmission(_ context.Context, inq *model.AdmissionInquiry) error {
	if f.err != nil {
		return f.err
	}
	inq.ID = 1
	f.admissions = append(f.admissions, inq)
	return nil
}

func (f *fakeInquiries) CreateFeedback(_ context.Context, fb *model.Feedback) error {
	if f.err != nil {
		return f.err
	}
	fb.ID = 1
	f.feedbacks = append(f.feedbacks, fb)
	return nil
}

type fixture struct {
	directory    *fakeDirectory
	generator    *fakeGenerator
	notifier     *fakeNotifier
	appointments *fakeAppointments
	inquiries    *fakeInquiries
	engine       *Engine
}

func newFixture() *fixture {
	f := &fixture{
		directory: &fakeDirectory{
			students: []model.StudentRef{
				{ID: 7, Name: "Asha Verma", ClassName: "5", Section: "A", ParentName: "Sunita Verma", ParentContact: "919876543210"},
			},
			teachers: []model.TeacherRef{
				{ID: 1, Name: "Mr. Sharma", Specialization: "Maths"},
				{ID: 2, Name: "Ms. Iyer", Specialization: "English"},
			},
			classes: []model.ClassRef{
				{ID: 10, Name: "5", Section: "A"},
				{ID: 11, Name: "8", Section: "B"},
			},
			roster: map[int64][]model.StudentRef{
				10: {{ID: 7, Name: "Asha Verma", ClassName: "5", Section: "A"}},
			},
		},
		generator:    &fakeGenerator{reply: "Asha is doing well overall."},
		notifier:     &fakeNotifier{},
		appointments: &fakeAppointments{},
		inquiries:    &fakeInquiries{},
	}
	f.engine = NewEngine(f.directory, fakeSchool{}, f.generator, f.notifier, f.appointments, f.inquiries, zap.NewNop())
	return f
}

func step(t *testing.T, f *fixture, s *model.Session, text string) string {
	t.Helper()
	reply, err := f.engine.Step(context.Background(), s, text)
	require.NoError(t, err)
	return reply
}

// ---- admission ----

func TestAdmissionForm(t *testing.T) {
	t.Run("full walk-through", func(t *testing.T) {
		f := newFixture()
		s := &model.Session{Address: "911234567890"}

		start, err := f.engine.Start(context.Background(), model.FormAdmission, s)
		require.NoError(t, err)
		assert.Contains(t, start, "Step 1 of 5")
		assert.Equal(t, model.FormAdmission, s.CurrentForm)
		assert.Equal(t, 1, s.FormStep)

		step(t, f, s, "Ravi Kumar")
		step(t, f, s, "Anil Kumar")
		step(t, f, s, "9811111111")
		step(t, f, s, "Class 3")
		done := step(t, f, s, "Needs transport from Sector 12")

		require.Len(t, f.inquiries.admissions, 1)
		inq := f.inquiries.admissions[0]
		assert.Equal(t, "Ravi Kumar", inq.StudentName)
		assert.Equal(t, "Anil Kumar", inq.ParentName)
		assert.Equal(t, "9811111111", inq.ContactNumber)
		assert.Equal(t, "Class 3", inq.ClassName)
		assert.NotEmpty(t, inq.Reference)

		assert.Contains(t, done, inq.Reference)
		assert.Equal(t, model.FormNone, s.CurrentForm)
		assert.Equal(t, 0, s.FormStep)

		require.Len(t, f.notifier.sent, 1)
		assert.Equal(t, "form_submitted", f.notifier.sent[0].template)
	})

	t.Run("skip leaves the message empty", func(t *testing.T) {
		f := newFixture()
		s := &model.Session{Address: "911234567890"}
		_, err := f.engine.Start(context.Background(), model.FormAdmission, s)
		require.NoError(t, err)

		step(t, f, s, "Ravi")
		step(t, f, s, "Anil")
		step(t, f, s, "9811111111")
		step(t, f, s, "Class 3")
		step(t, f, s, "skip")

		require.Len(t, f.inquiries.admissions, 1)
		assert.Empty(t, f.inquiries.admissions[0].Message)
	})

	t.Run("blank answer re-prompts the same step", func(t *testing.T) {
		f := newFixture()
		s := &model.Session{Address: "911234567890"}
		_, err := f.engine.Start(context.Background(), model.FormAdmission, s)
		require.NoError(t, err)

		reply := step(t, f, s, "   ")

		assert.Equal(t, 1, s.FormStep)
		assert.Contains(t, reply, "type an answer")
	})

	t.Run("storage failure surfaces as an error", func(t *testing.T) {
		f := newFixture()
		f.inquiries.err = errors.New("insert failed")
		s := &model.Session{Address: "911234567890"}
		_, err := f.engine.Start(context.Background(), model.FormAdmission, s)
		require.NoError(t, err)

		step(t, f, s, "Ravi")
		step(t, f, s, "Anil")
		step(t, f, s, "9811111111")
		step(t, f, s, "Class 3")
		_, err = f.engine.Step(context.Background(), s, "skip")

		require.Error(t, err)
	})
}

// ---- feedback ----

func TestFeedbackForm(t *testing.T) {
	t.Run("guest submission", func(t *testing.T) {
		f := newFixture()
		s := &model.Session{Address: "910000000000"}
		_, err := f.engine.Start(context.Background(), model.FormFeedback, s)
		require.NoError(t, err)

		reply := step(t, f, s, "The gate area needs better lighting")

		require.Len(t, f.inquiries.feedbacks, 1)
		fb := f.inquiries.feedbacks[0]
		assert.Equal(t, "Guest", fb.ParentName)
		assert.Nil(t, fb.StudentID)
		assert.Contains(t, reply, "Thank you")
		assert.Equal(t, model.FormNone, s.CurrentForm)
	})

	t.Run("parent submission carries the parent name", func(t *testing.T) {
		f := newFixture()
		id := int64(7)
		s := &model.Session{Address: "919876543210", SelectedStudentID: &id}
		_, err := f.engine.Start(context.Background(), model.FormFeedback, s)
		require.NoError(t, err)

		step(t, f, s, "More sports periods please")

		require.Len(t, f.inquiries.feedbacks, 1)
		assert.Equal(t, "Sunita Verma", f.inquiries.feedbacks[0].ParentName)
		require.NotNil(t, f.inquiries.feedbacks[0].StudentID)
		assert.Equal(t, int64(7), *f.inquiries.feedbacks[0].StudentID)
	})
}

// ---- appointment ----

func TestAppointmentForm(t *testing.T) {
	t.Run("teacher meeting walk-through", func(t *testing.T) {
		f := newFixture()
		id := int64(7)
		s := &model.Session{Address: "919876543210", SelectedStudentID: &id}

		start, err := f.engine.Start(context.Background(), model.FormAppointment, s)
		require.NoError(t, err)
		assert.Contains(t, start, "1. Principal")

		list := step(t, f, s, "2")
		assert.Contains(t, list, "Mr. Sharma")
		assert.Contains(t, list, "Ms. Iyer")
		assert.Equal(t, stepTeacherPick, s.FormStep)

		reason := step(t, f, s, "1")
		assert.Contains(t, reason, "reason")

		when := step(t, f, s, "Discuss grades")
		assert.Contains(t, when, "prefer")

		done := step(t, f, s, "15 Dec at 11 AM")

		require.Len(t, f.appointments.created, 1)
		appt := f.appointments.created[0]
		assert.Equal(t, "teacher", appt.With)
		require.NotNil(t, appt.TeacherID)
		assert.Equal(t, int64(1), *appt.TeacherID)
		assert.Equal(t, "Discuss grades", appt.Reason)
		assert.Equal(t, "15 Dec at 11 AM", appt.PreferredTime)
		assert.Equal(t, model.AppointmentPending, appt.Status)
		assert.Equal(t, "Sunita Verma", appt.ParentName)

		assert.Contains(t, done, "Mr. Sharma")
		assert.Equal(t, model.FormNone, s.CurrentForm)

		require.Len(t, f.notifier.sent, 1)
		sent := f.notifier.sent[0]
		assert.Equal(t, "ptm_form", sent.template)
		require.Len(t, sent.actions, 2)
		assert.Equal(t, "approve_appt_42", sent.actions[0].Payload)
		assert.Equal(t, "reject_appt_42", sent.actions[1].Payload)
	})

	t.Run("principal path skips the teacher list", func(t *testing.T) {
		f := newFixture()
		id := int64(7)
		s := &model.Session{Address: "919876543210", SelectedStudentID: &id}
		_, err := f.engine.Start(context.Background(), model.FormAppointment, s)
		require.NoError(t, err)

		step(t, f, s, "1")
		assert.Equal(t, 2, s.FormStep)

		step(t, f, s, "Fee structure discussion")
		done := step(t, f, s, "Monday morning")

		require.Len(t, f.appointments.created, 1)
		assert.Equal(t, "principal", f.appointments.created[0].With)
		assert.Nil(t, f.appointments.created[0].TeacherID)
		assert.Contains(t, done, "Principal")
	})

	t.Run("invalid choices re-prompt without advancing", func(t *testing.T) {
		f := newFixture()
		id := int64(7)
		s := &model.Session{Address: "919876543210", SelectedStudentID: &id}
		_, err := f.engine.Start(context.Background(), model.FormAppointment, s)
		require.NoError(t, err)

		reply := step(t, f, s, "7")
		assert.Equal(t, 1, s.FormStep)
		assert.Contains(t, reply, "1 for the Principal")

		step(t, f, s, "2")
		bad := step(t, f, s, "99")
		assert.Equal(t, stepTeacherPick, s.FormStep)
		assert.Contains(t, bad, "Invalid choice")
	})

	t.Run("notification outage does not lose the booking", func(t *testing.T) {
		f := newFixture()
		f.notifier.err = errors.New("send failed")
		id := int64(7)
		s := &model.Session{Address: "919876543210", SelectedStudentID: &id}
		_, err := f.engine.Start(context.Background(), model.FormAppointment, s)
		require.NoError(t, err)

		step(t, f, s, "1")
		step(t, f, s, "Quick chat")
		done := step(t, f, s, "Friday 3 PM")

		require.Len(t, f.appointments.created, 1)
		assert.Contains(t, done, "sent to the school office")
	})
}

// ---- teacher report ----

func TestTeacherReportForm(t *testing.T) {
	t.Run("class then student then report", func(t *testing.T) {
		f := newFixture()
		s := &model.Session{Address: "917777777777", IsTeacher: true}

		start, err := f.engine.Start(context.Background(), model.FormTeacherReport, s)
		require.NoError(t, err)
		assert.Contains(t, start, "1. 5 A")
		assert.Contains(t, start, "2. 8 B")

		roster := step(t, f, s, "1")
		assert.Contains(t, roster, "Asha Verma")
		assert.Equal(t, 2, s.FormStep)

		report := step(t, f, s, "1")

		assert.Contains(t, report, "92/100 days present")
		assert.Contains(t, report, "Maths: 88/100 (A)")
		assert.Contains(t, report, "Asha is doing well overall.")
		assert.Equal(t, model.FormNone, s.CurrentForm)
	})

	t.Run("analysis outage still returns raw figures", func(t *testing.T) {
		f := newFixture()
		f.generator.err = errors.New("model overloaded")
		s := &model.Session{Address: "917777777777", IsTeacher: true}
		_, err := f.engine.Start(context.Background(), model.FormTeacherReport, s)
		require.NoError(t, err)

		step(t, f, s, "1")
		report := step(t, f, s, "1")

		assert.Contains(t, report, "92/100 days present")
		assert.NotContains(t, report, "doing well")
	})

	t.Run("invalid class pick re-prompts", func(t *testing.T) {
		f := newFixture()
		s := &model.Session{Address: "917777777777", IsTeacher: true}
		_, err := f.engine.Start(context.Background(), model.FormTeacherReport, s)
		require.NoError(t, err)

		reply := step(t, f, s, "9")
		assert.Equal(t, 1, s.FormStep)
		assert.Contains(t, reply, "Invalid choice")
	})

	t.Run("roster entry missing from the directory is an error", func(t *testing.T) {
		f := newFixture()
		f.directory.roster[11] = []model.StudentRef{{ID: 99, Name: "Ghost"}}
		s := &model.Session{Address: "917777777777", IsTeacher: true}
		_, err := f.engine.Start(context.Background(), model.FormTeacherReport, s)
		require.NoError(t, err)
		step(t, f, s, "2")

		_, err = f.engine.Step(context.Background(), s, "1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "student 99 not found")
	})

	t.Run("empty roster abandons the form", func(t *testing.T) {
		f := newFixture()
		s := &model.Session{Address: "917777777777", IsTeacher: true}
		_, err := f.engine.Start(context.Background(), model.FormTeacherReport, s)
		require.NoError(t, err)

		reply := step(t, f, s, "2") // class 8 B has no roster entries

		assert.Contains(t, reply, "no students")
		assert.Equal(t, model.FormNone, s.CurrentForm)
	})

	t.Run("no classes never activates the form", func(t *testing.T) {
		f := newFixture()
		f.directory.classes = nil
		s := &model.Session{Address: "917777777777", IsTeacher: true}

		reply, err := f.engine.Start(context.Background(), model.FormTeacherReport, s)
		require.NoError(t, err)

		assert.Contains(t, reply, "No classes")
		assert.Equal(t, model.FormNone, s.CurrentForm)
	})
}

func TestStepOnInactiveForm(t *testing.T) {
	f := newFixture()
	s := &model.Session{Address: "911234567890"}

	_, err := f.engine.Step(context.Background(), s, "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("step %d", 0))
}
