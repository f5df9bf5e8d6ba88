package forms

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/schoolbos/school_bot/internal/model"
)

// stepTeacherPick is a detour step between 1 and 2, used only when the parent
// asks to meet a teacher and must pick one from the presented list.
const stepTeacherPick = 100

func (e *Engine) startAppointment(s *model.Session) string {
	s.CurrentForm = model.FormAppointment
	s.FormStep = 1
	s.FormData = model.FormData{Appointment: &model.AppointmentProgress{}}
	return "Let's book an appointment.\n\n" +
		"Who would you like to meet?\n" +
		"1. Principal\n" +
		"2. Class teacher\n\n" +
		"Reply with 1 or 2."
}

func (e *Engine) stepAppointment(ctx context.Context, s *model.Session, text string) (string, error) {
	answer := strings.TrimSpace(text)
	p := s.FormData.Appointment
	if p == nil {
		p = &model.AppointmentProgress{}
		s.FormData.Appointment = p
	}

	switch s.FormStep {
	case 1:
		switch answer {
		case "1":
			p.With = "principal"
			s.FormStep = 2
			return "What is the reason for the meeting?", nil
		case "2":
			p.With = "teacher"
			return e.presentTeacherList(ctx, s, p)
		default:
			return "Please reply with 1 for the Principal or 2 for a class teacher.", nil
		}

	case stepTeacherPick:
		id, ok := p.TeacherMap[answer]
		if !ok {
			return "Invalid choice. Please reply with one of the listed numbers.", nil
		}
		p.TeacherID = &id
		s.FormStep = 2
		return "What is the reason for the meeting?", nil

	case 2:
		if answer == "" {
			return "Please type the reason for the meeting.", nil
		}
		p.Reason = answer
		s.FormStep = 3
		return "When would you prefer to meet? (e.g. \"15 Dec at 11 AM\")", nil

	case 3:
		if answer == "" {
			return "Please type your preferred date and time.", nil
		}
		p.PreferredTime = answer
		return e.finishAppointment(ctx, s, p)
	}

	return "", fmt.Errorf("appointment form at unknown step %d", s.FormStep)
}

func (e *Engine) presentTeacherList(ctx context.Context, s *model.Session, p *model.AppointmentProgress) (string, error) {
	teachers, err := e.directory.ListTeachers(ctx)
	if err != nil {
		return "", fmt.Errorf("list teachers: %w", err)
	}
	if len(teachers) == 0 {
		p.With = "principal"
		s.FormStep = 2
		return "No class teachers are available right now, so I'll book this with the Principal's office.\n\n" +
			"What is the reason for the meeting?", nil
	}

	p.TeacherMap = make(map[string]int64, len(teachers))
	var b strings.Builder
	b.WriteString("Which teacher would you like to meet?\n")
	for i, t := range teachers {
		key := strconv.Itoa(i + 1)
		p.TeacherMap[key] = t.ID
		b.WriteString(key)
		b.WriteString(". ")
		b.WriteString(t.Name)
		if t.Specialization != "" {
			b.WriteString(" (")
			b.WriteString(t.Specialization)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	b.WriteString("\nReply with the number.")
	s.FormStep = stepTeacherPick
	return b.String(), nil
}

func (e *Engine) finishAppointment(ctx context.Context, s *model.Session, p *model.AppointmentProgress) (string, error) {
	appt := &model.Appointment{
		StudentID:     s.SelectedStudentID,
		ParentName:    "Parent",
		ContactNumber: s.Address,
		With:          p.With,
		TeacherID:     p.TeacherID,
		Reason:        p.Reason,
		PreferredTime: p.PreferredTime,
		Status:        model.AppointmentPending,
	}

	studentName := "-"
	className := "-"
	if s.SelectedStudentID != nil {
		if st, err := e.directory.StudentByID(ctx, *s.SelectedStudentID); err == nil && st != nil {
			appt.ParentName = st.ParentName
			studentName = st.Name
			className = st.ClassName + " " + st.Section
		}
	}

	withLabel := "Principal"
	if p.With == "teacher" && p.TeacherID != nil {
		if t, err := e.directory.TeacherByID(ctx, *p.TeacherID); err == nil && t != nil {
			withLabel = t.Name
		} else {
			withLabel = "Class teacher"
		}
	}

	if err := e.appointments.Create(ctx, appt); err != nil {
		return "", fmt.Errorf("create appointment: %w", err)
	}

	e.notifyAdmin(ctx, "ptm_form", map[string]string{
		"1": appt.ParentName,
		"2": studentName,
		"3": className,
		"4": withLabel,
		"5": p.Reason,
		"6": p.PreferredTime,
	}, []Action{
		{Label: "Accept", Payload: fmt.Sprintf("approve_appt_%d", appt.ID)},
		{Label: "Reject", Payload: fmt.Sprintf("reject_appt_%d", appt.ID)},
	})

	s.ClearForm()
	return fmt.Sprintf(
		"Your appointment request with %s has been sent to the school office.\n"+
			"Preferred time: %s\n\n"+
			"You'll get a confirmation here once it's reviewed. Type *menu* to see more options.",
		withLabel, p.PreferredTime), nil
}
