package model

import "time"

// Mode is the dialogue mode, recomputed on every turn and never stored.
type Mode string

const (
	ModeGuest   Mode = "guest"
	ModeParent  Mode = "parent"
	ModeTeacher Mode = "teacher"
)

// FormTag identifies the active multi-step form, if any.
type FormTag string

const (
	FormNone          FormTag = ""
	FormAdmission     FormTag = "admission"
	FormFeedback      FormTag = "feedback"
	FormAppointment   FormTag = "appointment"
	FormTeacherReport FormTag = "teacher_report"
)

// ChildRef is one student linked to an address, shown in the child menu.
type ChildRef struct {
	StudentID int64  `json:"student_id"`
	Name      string `json:"name"`
	ClassName string `json:"class_name"`
	Section   string `json:"section"`
}

// Session is the per-address conversation state. The address is the primary
// key; sessions are reset on staleness or internal error, never deleted.
type Session struct {
	Address                string     `json:"address"`
	IsTeacher              bool       `json:"is_teacher"` // re-derived every turn, never trusted from storage
	SelectedStudentID      *int64     `json:"selected_student_id"`
	ChildCandidates        []ChildRef `json:"child_candidates"`
	AwaitingChildSelection bool       `json:"awaiting_child_selection"`
	CurrentForm            FormTag    `json:"current_form"`
	FormStep               int        `json:"form_step"`
	FormData               FormData   `json:"form_data"`
	Language               string     `json:"language"` // "en" or "hi", sticky
	LastMessage            string     `json:"last_message"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Mode derives the current dialogue mode. Teacher wins over everything.
func (s *Session) Mode() Mode {
	if s.IsTeacher {
		return ModeTeacher
	}
	if s.SelectedStudentID == nil {
		return ModeGuest
	}
	return ModeParent
}

// ClearForm drops the active form together with its accumulated data.
func (s *Session) ClearForm() {
	s.CurrentForm = FormNone
	s.FormStep = 0
	s.FormData = FormData{}
}

// ResetConversation returns the session to the default state, preserving
// address and language.
func (s *Session) ResetConversation() {
	s.SelectedStudentID = nil
	s.ChildCandidates = nil
	s.AwaitingChildSelection = false
	s.LastMessage = ""
	s.ClearForm()
}
