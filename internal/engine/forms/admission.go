package forms

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/schoolbos/school_bot/internal/model"
)

func (e *Engine) startAdmission(s *model.Session) string {
	s.CurrentForm = model.FormAdmission
	s.FormStep = 1
	s.FormData = model.FormData{Admission: &model.AdmissionProgress{}}
	return "Let's start the admission inquiry.\n\n" +
		"Step 1 of 5: What is the student's full name?"
}

func (e *Engine) stepAdmission(ctx context.Context, s *model.Session, text string) (string, error) {
	answer := strings.TrimSpace(text)
	p := s.FormData.Admission
	if p == nil {
		p = &model.AdmissionProgress{}
		s.FormData.Admission = p
	}

	if answer == "" {
		return "Please type an answer to continue, or *back* to cancel.", nil
	}

	switch s.FormStep {
	case 1:
		p.StudentName = answer
		s.FormStep = 2
		return "Step 2 of 5: What is the parent's or guardian's full name?", nil
	case 2:
		p.ParentName = answer
		s.FormStep = 3
		return "Step 3 of 5: What is the best contact number to reach you?", nil
	case 3:
		p.ContactNumber = answer
		s.FormStep = 4
		return "Step 4 of 5: Which class are you seeking admission to?", nil
	case 4:
		p.ClassName = answer
		s.FormStep = 5
		return "Step 5 of 5: Anything else we should know? Type your message, or *skip*.", nil
	case 5:
		if !strings.EqualFold(answer, "skip") {
			p.Message = answer
		}
		return e.finishAdmission(ctx, s, p)
	}

	return "", fmt.Errorf("admission form at unknown step %d", s.FormStep)
}

func (e *Engine) finishAdmission(ctx context.Context, s *model.Session, p *model.AdmissionProgress) (string, error) {
	inq := &model.AdmissionInquiry{
		Reference:     uuid.NewString(),
		StudentName:   p.StudentName,
		ParentName:    p.ParentName,
		ContactNumber: p.ContactNumber,
		ClassName:     p.ClassName,
		Message:       p.Message,
	}
	if err := e.inquiries.CreateAdmission(ctx, inq); err != nil {
		return "", fmt.Errorf("create admission inquiry: %w", err)
	}

	e.notifyAdmin(ctx, "form_submitted", map[string]string{
		"1": fmt.Sprintf("Admission inquiry %s", inq.Reference),
		"2": fmt.Sprintf("%s (class %s), parent %s, contact %s", p.StudentName, p.ClassName, p.ParentName, p.ContactNumber),
	}, nil)

	s.ClearForm()
	return fmt.Sprintf(
		"Thank you! Your admission inquiry has been submitted.\n"+
			"Reference: %s\n\n"+
			"Our admission office will contact you at %s. Type *menu* to see more options.",
		inq.Reference, p.ContactNumber), nil
}
