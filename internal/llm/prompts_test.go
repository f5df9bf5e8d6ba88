package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schoolbos/school_bot/internal/model"
)

func TestBuildIntentPrompt(t *testing.T) {
	t.Run("guest menu differs from parent menu", func(t *testing.T) {
		guest := BuildIntentPrompt("show_menu", "", model.ModeGuest)
		parent := BuildIntentPrompt("show_menu", "", model.ModeParent)

		assert.Contains(t, guest, "Main Menu")
		assert.Contains(t, guest, "Admission Inquiry")
		assert.Contains(t, parent, "Student Menu")
		assert.Contains(t, parent, "Appointment Booking")
		assert.NotEqual(t, guest, parent)
	})

	t.Run("unknown intents echo the user text", func(t *testing.T) {
		p := BuildIntentPrompt("timetable", "what is the timetable", model.ModeParent)
		assert.Contains(t, p, "what is the timetable")
	})
}

func TestBuildRAGPrompt(t *testing.T) {
	t.Run("long documents are truncated to the snippet budget", func(t *testing.T) {
		long := strings.Repeat("a", snippetBudget+100)
		p := BuildRAGPrompt("school timings", []model.Document{
			{Title: "Handbook", Content: long},
		})

		assert.Contains(t, p, strings.Repeat("a", snippetBudget)+"...")
		assert.NotContains(t, p, strings.Repeat("a", snippetBudget+1))
	})

	t.Run("short documents are quoted whole", func(t *testing.T) {
		p := BuildRAGPrompt("fees", []model.Document{
			{Title: "Fee rules", Content: "Fees are due by the 10th."},
		})

		assert.Contains(t, p, "Fee rules: Fees are due by the 10th.")
		assert.Contains(t, p, "QUESTION: fees")
		assert.Contains(t, p, "ONLY this school information")
	})
}

func TestBuildGenericFallbackPrompt(t *testing.T) {
	p := BuildGenericFallbackPrompt("sing me a song")
	assert.Contains(t, p, "sing me a song")
	assert.Contains(t, p, "unrelated to school documents")
}
