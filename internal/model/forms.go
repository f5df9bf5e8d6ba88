package model

// FormData is a tagged union of per-form progress. Exactly one branch is
// populated, selected by Session.CurrentForm. Serialized as JSONB in the
// session row.
type FormData struct {
	Admission   *AdmissionProgress   `json:"admission,omitempty"`
	Appointment *AppointmentProgress `json:"appointment,omitempty"`
	Report      *ReportProgress      `json:"report,omitempty"`
}

// AdmissionProgress accumulates the five admission inquiry steps.
type AdmissionProgress struct {
	StudentName   string `json:"student_name"`
	ParentName    string `json:"parent_name"`
	ContactNumber string `json:"contact_number"`
	ClassName     string `json:"class_name"`
	Message       string `json:"message"`
}

// AppointmentProgress accumulates the appointment booking steps. TeacherMap
// maps the numbered choice presented at step 100 to a teacher id.
type AppointmentProgress struct {
	With          string           `json:"with"` // "principal" or "teacher"
	TeacherMap    map[string]int64 `json:"teacher_map,omitempty"`
	TeacherID     *int64           `json:"teacher_id,omitempty"`
	Reason        string           `json:"reason"`
	PreferredTime string           `json:"preferred_time"`
}

// ReportProgress tracks the teacher report flow. The numbered maps are built
// fresh each invocation so replies stay valid only for the presented list.
type ReportProgress struct {
	ClassMap   map[string]int64 `json:"class_map,omitempty"`
	ClassID    *int64           `json:"class_id,omitempty"`
	StudentMap map[string]int64 `json:"student_map,omitempty"`
}
