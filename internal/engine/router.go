package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/schoolbos/school_bot/internal/engine/intent"
	"github.com/schoolbos/school_bot/internal/llm"
	"github.com/schoolbos/school_bot/internal/model"
)

// HandleMessage processes one inbound message end to end and always produces
// a reply. Any error inside the turn hard-resets the conversation and
// apologizes, so the session can never get stuck in a broken state.
func (e *Engine) HandleMessage(ctx context.Context, address, text string) Reply {
	mu := e.lock(address)
	mu.Lock()
	defer mu.Unlock()

	reply, lang, err := e.handle(ctx, address, text)
	if err != nil {
		e.logger.Error("Turn failed, resetting conversation",
			zap.String("address", address),
			zap.Error(err))

		if s, _, aerr := e.store.Acquire(ctx, address); aerr == nil {
			if rerr := e.store.Reset(ctx, s); rerr != nil {
				e.logger.Error("Recovery reset failed", zap.String("address", address), zap.Error(rerr))
			}
			lang = s.Language
		}
		return Reply{Text: replyInternalError, Language: lang}
	}

	return Reply{Text: reply, Language: lang}
}

func (e *Engine) handle(ctx context.Context, address, text string) (string, string, error) {
	s, _, err := e.store.Acquire(ctx, address)
	if err != nil {
		return "", "en", err
	}

	// First contact means no prior message in this conversation. A staleness
	// reset clears last_message too, so a user returning after the idle
	// window is greeted with the menu again instead of a cold fallback.
	first := s.LastMessage == ""

	var reply string
	if s.IsTeacher {
		reply, err = e.routeTeacher(ctx, s, text, first)
	} else {
		reply, err = e.route(ctx, s, text, first)
	}
	if err != nil {
		return "", s.Language, err
	}

	s.LastMessage = text
	if err := e.store.Persist(ctx, s); err != nil {
		return "", s.Language, err
	}
	return reply, s.Language, nil
}

// route is the guest/parent pipeline. Order matters: global overrides, then
// language switches, then child selection, then the active form, then
// capability-gated intents, and finally retrieval fallback.
func (e *Engine) route(ctx context.Context, s *model.Session, text string, first bool) (string, error) {
	in := e.resolver.Resolve(text)

	if in != nil {
		switch in.Tag {
		case intent.TagShowMenu:
			if err := e.store.Reset(ctx, s); err != nil {
				return "", err
			}
			e.linkChildren(ctx, s)
			if s.AwaitingChildSelection {
				return e.childMenu(s), nil
			}
			return e.generate(ctx, llm.BuildIntentPrompt(string(intent.TagShowMenu), text, s.Mode())), nil

		case intent.TagBack:
			s.ClearForm()
			return replyBack, nil

		case intent.TagHelp:
			return e.generate(ctx, llm.BuildIntentPrompt(string(intent.TagHelp), text, s.Mode())), nil

		case intent.TagChangeLanguageHi:
			return e.switchLanguage(ctx, s, "hi")
		case intent.TagChangeLanguageEn:
			return e.switchLanguage(ctx, s, "en")
		}
	}

	// Link students to the address before anything mode-dependent runs.
	if s.SelectedStudentID == nil && !s.AwaitingChildSelection && s.CurrentForm == model.FormNone {
		e.linkChildren(ctx, s)
	}

	if first {
		if s.AwaitingChildSelection {
			return "Welcome! " + e.childMenu(s), nil
		}
		return e.generate(ctx, llm.BuildIntentPrompt(string(intent.TagShowMenu), text, s.Mode())), nil
	}

	if s.AwaitingChildSelection {
		return e.pickChild(s, text), nil
	}

	if s.CurrentForm != model.FormNone {
		return e.forms.Step(ctx, s, text)
	}

	if in != nil {
		return e.dispatch(ctx, s, in)
	}

	return e.fallback(ctx, text), nil
}

// routeTeacher is the teacher pipeline. Teacher mode wins over parent state:
// any leftover parent form is dropped rather than resumed.
func (e *Engine) routeTeacher(ctx context.Context, s *model.Session, text string, first bool) (string, error) {
	in := e.resolver.Resolve(text)

	if in != nil {
		switch in.Tag {
		case intent.TagShowMenu:
			if err := e.store.Reset(ctx, s); err != nil {
				return "", err
			}
			return replyTeacherMenu, nil
		case intent.TagBack:
			s.ClearForm()
			return replyBack, nil
		case intent.TagHelp:
			return replyTeacherMenu, nil
		case intent.TagChangeLanguageHi:
			return e.switchLanguage(ctx, s, "hi")
		case intent.TagChangeLanguageEn:
			return e.switchLanguage(ctx, s, "en")
		}
	}

	if first {
		return replyTeacherMenu, nil
	}

	if s.CurrentForm == model.FormTeacherReport {
		return e.forms.Step(ctx, s, text)
	}
	if s.CurrentForm != model.FormNone {
		s.ClearForm()
	}

	if in != nil && in.Tag == intent.TagStudentReport {
		return e.forms.Start(ctx, model.FormTeacherReport, s)
	}

	return e.generate(ctx, llm.BuildIntentPrompt("", text, model.ModeTeacher)), nil
}

// dispatch handles a classified intent for a guest or parent, enforcing the
// intent's declared capability.
func (e *Engine) dispatch(ctx context.Context, s *model.Session, in *intent.Intent) (string, error) {
	capability, ok := e.resolver.Capability(in.Tag)
	if !ok {
		return "", fmt.Errorf("intent %q has no capability", in.Tag)
	}

	switch capability {
	case intent.CapabilityTeacher:
		return replyTeacherOnly, nil

	case intent.CapabilityPublic:
		switch in.Tag {
		case intent.TagAdmissionForm:
			return e.forms.Start(ctx, model.FormAdmission, s)
		case intent.TagFeedbackForm:
			return e.forms.Start(ctx, model.FormFeedback, s)
		}
		return "", fmt.Errorf("unhandled public intent %q", in.Tag)

	case intent.CapabilityParent:
		if s.Mode() == model.ModeGuest {
			return replyGuestDenied, nil
		}
		return e.dispatchParent(ctx, s, in)
	}

	return "", fmt.Errorf("unhandled capability %q for intent %q", capability, in.Tag)
}

func (e *Engine) dispatchParent(ctx context.Context, s *model.Session, in *intent.Intent) (string, error) {
	switch in.Tag {
	case intent.TagAppointmentForm:
		return e.forms.Start(ctx, model.FormAppointment, s)

	case intent.TagSwitchStudent:
		return e.switchStudent(ctx, s), nil

	case intent.TagTimetable:
		// No timetable store yet; answered generically until one lands.
		return e.generate(ctx, llm.BuildIntentPrompt(string(in.Tag), in.Raw, s.Mode())), nil
	}

	studentID := *s.SelectedStudentID
	reply, handled := e.studentData(ctx, in.Tag, studentID)
	if !handled {
		return "", fmt.Errorf("unhandled parent intent %q", in.Tag)
	}
	return reply, nil
}

// fallback is the retrieval-augmented last resort for unclassified text.
func (e *Engine) fallback(ctx context.Context, text string) string {
	docs := e.retriever.TopDocuments(ctx, text, ragTopK)
	if len(docs) == 0 {
		return e.generate(ctx, llm.BuildGenericFallbackPrompt(text))
	}
	return e.generate(ctx, llm.BuildRAGPrompt(text, docs))
}

func (e *Engine) switchLanguage(ctx context.Context, s *model.Session, lang string) (string, error) {
	s.Language = lang
	if err := e.store.Persist(ctx, s, "language"); err != nil {
		return "", err
	}
	if lang == "hi" {
		return replyLangHindi, nil
	}
	return replyLangEnglish, nil
}

// linkChildren matches the address against student records: one match selects
// automatically, several matches queue a numbered pick, none leaves the
// session in guest mode. Lookup failures degrade to guest rather than failing
// the turn.
func (e *Engine) linkChildren(ctx context.Context, s *model.Session) {
	students, err := e.directory.StudentsByContact(ctx, s.Address)
	if err != nil {
		e.logger.Warn("Student lookup failed, continuing as guest",
			zap.String("address", s.Address),
			zap.Error(err))
		return
	}

	switch len(students) {
	case 0:
		return
	case 1:
		id := students[0].ID
		s.SelectedStudentID = &id
	default:
		s.ChildCandidates = make([]model.ChildRef, 0, len(students))
		for _, st := range students {
			s.ChildCandidates = append(s.ChildCandidates, model.ChildRef{
				StudentID: st.ID,
				Name:      st.Name,
				ClassName: st.ClassName,
				Section:   st.Section,
			})
		}
		s.AwaitingChildSelection = true
	}
}

func (e *Engine) childMenu(s *model.Session) string {
	var b strings.Builder
	b.WriteString("This number is linked to more than one student. Who would you like to view?\n")
	for i, c := range s.ChildCandidates {
		fmt.Fprintf(&b, "%d. %s (Class %s %s)\n", i+1, c.Name, c.ClassName, c.Section)
	}
	b.WriteString("\nReply with the number.")
	return b.String()
}

// pickChild resolves a pending numbered choice. Anything that isn't a listed
// number re-prompts without touching state.
func (e *Engine) pickChild(s *model.Session, text string) string {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 || n > len(s.ChildCandidates) {
		return replyInvalidChoice + "\n\n" + e.childMenu(s)
	}

	chosen := s.ChildCandidates[n-1]
	s.SelectedStudentID = &chosen.StudentID
	s.AwaitingChildSelection = false
	return fmt.Sprintf("You're now viewing %s (Class %s %s). Type *menu* to see options.",
		chosen.Name, chosen.ClassName, chosen.Section)
}

func (e *Engine) switchStudent(ctx context.Context, s *model.Session) string {
	if len(s.ChildCandidates) == 0 {
		students, err := e.directory.StudentsByContact(ctx, s.Address)
		if err != nil {
			e.logger.Warn("Student lookup failed", zap.String("address", s.Address), zap.Error(err))
			return replyLLMDifficulty
		}
		for _, st := range students {
			s.ChildCandidates = append(s.ChildCandidates, model.ChildRef{
				StudentID: st.ID,
				Name:      st.Name,
				ClassName: st.ClassName,
				Section:   st.Section,
			})
		}
	}

	if len(s.ChildCandidates) < 2 {
		return replyOnlyChild
	}

	// A pending pick always means no selected student.
	s.SelectedStudentID = nil
	s.AwaitingChildSelection = true
	return e.childMenu(s)
}
