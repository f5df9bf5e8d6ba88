package intent

import (
	"fmt"
	"strings"
)

// definition binds an intent tag to its keyword synonyms and capability.
// Declaration order is significant: it breaks ties within a precedence level.
type definition struct {
	tag        Tag
	capability Capability
	keywords   []string
}

var definitions = []definition{
	{TagHomework, CapabilityParent, []string{"homework"}},
	{TagFees, CapabilityParent, []string{"fees", "fee"}},
	{TagTimetable, CapabilityParent, []string{"timetable", "time table"}},
	{TagAttendance, CapabilityParent, []string{"attendance", "attend", "present", "absent"}},

	{TagExam, CapabilityParent, []string{"exam", "exams", "test"}},
	{TagResult, CapabilityParent, []string{"result", "marks", "grade"}},

	{TagNotice, CapabilityParent, []string{"notice", "notices", "event"}},
	{TagLibrary, CapabilityParent, []string{"library", "books"}},

	{TagChildInfo, CapabilityParent, []string{"child", "my child", "son", "daughter", "student", "children"}},

	{TagAdmissionForm, CapabilityPublic, []string{"admission", "admission form", "apply"}},
	{TagFeedbackForm, CapabilityPublic, []string{"feedback", "complaint", "complain", "issue", "suggestion"}},
	{TagAppointmentForm, CapabilityParent, []string{"appointment", "meeting", "ptm", "meet"}},

	{TagBusInfo, CapabilityParent, []string{"bus", "transport", "pickup", "drop", "driver"}},

	{TagStudentReport, CapabilityTeacher, []string{"report", "performance", "analysis", "progress"}},

	{TagSwitchStudent, CapabilityParent, []string{"switch", "switch child", "change student", "change child"}},

	{TagChangeLanguageHi, CapabilityPublic, []string{"hindi", "switch to hindi", "change language"}},
	{TagChangeLanguageEn, CapabilityPublic, []string{"english", "eng", "switch to english", "speak english"}},
}

// globalOverrides short-circuit any other state on an exact normalized match.
var globalOverrides = map[string]Intent{
	"menu": {Tag: TagShowMenu, ForceReset: true},
	"back": {Tag: TagBack},
	"help": {Tag: TagHelp},
}

// Resolver classifies inbound text. It is pure: same input, same result.
type Resolver struct {
	defs         []definition
	capabilities map[Tag]Capability
}

// NewResolver builds the resolver and validates the intent table: an intent
// without a declared capability is a configuration error, not a guess.
func NewResolver() (*Resolver, error) {
	capabilities := make(map[Tag]Capability, len(definitions)+len(globalOverrides))

	for _, ov := range globalOverrides {
		capabilities[ov.Tag] = CapabilityGlobal
	}

	for _, def := range definitions {
		if def.capability == "" {
			return nil, fmt.Errorf("intent %q has no declared capability", def.tag)
		}
		if len(def.keywords) == 0 {
			return nil, fmt.Errorf("intent %q has no keywords", def.tag)
		}
		if _, dup := capabilities[def.tag]; dup {
			return nil, fmt.Errorf("intent %q declared twice", def.tag)
		}
		capabilities[def.tag] = def.capability
	}

	return &Resolver{defs: definitions, capabilities: capabilities}, nil
}

// Normalize lower-cases, trims, and strips backslashes (some channels escape
// punctuation on the way in).
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(text, `\`, "")))
}

// Resolve maps text to an intent, or nil when nothing matches.
// Precedence, first match wins: global override, exact keyword, substring.
func (r *Resolver) Resolve(text string) *Intent {
	t := Normalize(text)
	if t == "" {
		return nil
	}

	if ov, ok := globalOverrides[t]; ok {
		ov.Raw = text
		return &ov
	}

	for _, def := range r.defs {
		for _, kw := range def.keywords {
			if t == kw {
				return &Intent{Tag: def.tag, Raw: text}
			}
		}
	}

	for _, def := range r.defs {
		for _, kw := range def.keywords {
			if strings.Contains(t, kw) {
				return &Intent{Tag: def.tag, Raw: text}
			}
		}
	}

	return nil
}

// Capability returns the declared capability for a tag.
func (r *Resolver) Capability(tag Tag) (Capability, bool) {
	c, ok := r.capabilities[tag]
	return c, ok
}
