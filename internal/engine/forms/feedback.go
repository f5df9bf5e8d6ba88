package forms

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/schoolbos/school_bot/internal/model"
)

func (e *Engine) startFeedback(s *model.Session) string {
	s.CurrentForm = model.FormFeedback
	s.FormStep = 1
	s.FormData = model.FormData{}
	return "We'd love to hear from you. Please type your feedback or complaint in one message."
}

func (e *Engine) stepFeedback(ctx context.Context, s *model.Session, text string) (string, error) {
	answer := strings.TrimSpace(text)
	if answer == "" {
		return "Please type your feedback to continue, or *back* to cancel.", nil
	}

	fb := &model.Feedback{
		Reference:  uuid.NewString(),
		ParentName: "Guest",
		Text:       answer,
	}
	if s.SelectedStudentID != nil {
		fb.StudentID = s.SelectedStudentID
		if st, err := e.directory.StudentByID(ctx, *s.SelectedStudentID); err == nil && st != nil {
			fb.ParentName = st.ParentName
		}
	}

	if err := e.inquiries.CreateFeedback(ctx, fb); err != nil {
		return "", fmt.Errorf("create feedback: %w", err)
	}

	e.notifyAdmin(ctx, "form_submitted", map[string]string{
		"1": fmt.Sprintf("Feedback %s from %s", fb.Reference, fb.ParentName),
		"2": answer,
	}, nil)

	s.ClearForm()
	return "Thank you for your feedback! We've passed it on to the school office. Type *menu* to see more options.", nil
}
