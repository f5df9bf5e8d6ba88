// Package intent maps free text onto symbolic intent tags using layered rule
// matching: global overrides, then exact keyword match, then substring match.
package intent

// Tag is an immutable symbolic intent identifier.
type Tag string

const (
	// Global overrides — pre-empt any state, including active forms.
	TagShowMenu Tag = "show_menu"
	TagBack     Tag = "back"
	TagHelp     Tag = "help"

	// Student data.
	TagHomework   Tag = "homework"
	TagFees       Tag = "fees"
	TagTimetable  Tag = "timetable"
	TagAttendance Tag = "attendance"
	TagExam       Tag = "exam"
	TagResult     Tag = "result"
	TagNotice     Tag = "notice"
	TagLibrary    Tag = "library"
	TagChildInfo  Tag = "child_info"
	TagBusInfo    Tag = "bus_info"

	// Form starters.
	TagAdmissionForm   Tag = "admission_form"
	TagFeedbackForm    Tag = "feedback_form"
	TagAppointmentForm Tag = "appointment_form"

	// Teacher.
	TagStudentReport Tag = "student_report"

	// Session controls.
	TagSwitchStudent    Tag = "switch_student"
	TagChangeLanguageHi Tag = "change_language_hi"
	TagChangeLanguageEn Tag = "change_language_en"
)

// Capability is the single declared visibility of an intent. The router's
// allow/deny decisions are set-membership tests against this declaration;
// there are no separately maintained guest/parent lists to drift apart.
type Capability string

const (
	// CapabilityGlobal intents interrupt any flow for any caller.
	CapabilityGlobal Capability = "global"
	// CapabilityPublic intents are available to guests and parents alike.
	CapabilityPublic Capability = "public"
	// CapabilityParent intents need a selected student and are refused to guests.
	CapabilityParent Capability = "parent"
	// CapabilityTeacher intents exist only in teacher mode.
	CapabilityTeacher Capability = "teacher"
)

// Intent is a resolved classification: the tag plus the raw text it came from.
type Intent struct {
	Tag Tag
	Raw string
	// ForceReset marks the "menu" override, which additionally resets the
	// whole session rather than just the active form.
	ForceReset bool
}
