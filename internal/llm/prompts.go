package llm

import (
	"fmt"
	"strings"

	"github.com/schoolbos/school_bot/internal/model"
)

// Style is prepended to every prompt so replies stay short and grounded.
const Style = "Reply in under 50 words. Be clear, friendly, and direct. " +
	"Avoid unnecessary details. No personal identities. " +
	"Do not invent information not provided. "

// snippetBudget caps how much of a document is quoted into a RAG prompt.
const snippetBudget = 200

const guestMenuPrompt = Style +
	"Create a concise, clean menu for a guest user. " +
	"Keep the formatting and options EXACTLY as below but make the wording short:\n\n" +
	"Main Menu\n" +
	"1. Admission Inquiry\n" +
	"2. School Fees & Rules\n" +
	"3. Contact Details\n" +
	"4. School Notices & Events\n\n" +
	"You may also ask:\n" +
	"- \"Show admission process\"\n" +
	"- \"What are the school timings?\"\n" +
	"- \"Tell me about school facilities\"\n\n" +
	"End with: 'Type a number or ask anything directly.' " +
	"Do NOT change the structure. Only make wording concise."

const parentMenuPrompt = Style +
	"Create a concise parent menu. " +
	"Keep the formatting and options EXACTLY as written below. " +
	"Shorten wording only, do NOT modify structure:\n\n" +
	"Hello parent! Here's everything you can check about your child:\n\n" +
	"Student Menu\n" +
	"1. Homework\n" +
	"2. Attendance\n" +
	"3. Timetable\n" +
	"4. Fees Status\n" +
	"5. Notices\n" +
	"6. Exam Schedule\n" +
	"7. Results\n" +
	"8. Library Records\n" +
	"9. Bus Information\n\n" +
	"Forms & Services\n" +
	"10. Admission Form (for another child)\n" +
	"11. Appointment Booking (Teacher / Principal)\n" +
	"12. Feedback / Complaint\n\n" +
	"Other Options\n" +
	"- Switch Child\n" +
	"- Change Language (Hindi / English)\n" +
	"- Show Menu\n\n" +
	"Make the introduction short but keep lists EXACTLY the same."

// BuildIntentPrompt returns the prompt for intents answered directly by the
// generation backend (menus, help, and any non-dynamic intent).
func BuildIntentPrompt(intent, userText string, mode model.Mode) string {
	switch intent {
	case "show_menu":
		if mode == model.ModeGuest {
			return guestMenuPrompt
		}
		return parentMenuPrompt

	case "help":
		return Style +
			"User asked for help. Provide a very short explanation that they can " +
			"use the menu or ask about homework, attendance, fees, timetable, results, notices, etc."

	case "back":
		return Style +
			"User wants to go back. Confirm briefly and show the short menu again."
	}

	return Style +
		fmt.Sprintf("User said: '%s'. Provide a very short, helpful school-related response.", userText)
}

// BuildRAGPrompt turns retrieved documents into a context prompt that forbids
// fabrication. Each snippet is truncated to a fixed character budget.
func BuildRAGPrompt(query string, docs []model.Document) string {
	var context strings.Builder
	for _, d := range docs {
		snippet := d.Content
		if len(snippet) > snippetBudget {
			snippet = snippet[:snippetBudget] + "..."
		}
		fmt.Fprintf(&context, "- %s: %s\n", d.Title, snippet)
	}

	return Style +
		"Use ONLY this school information to answer the question. " +
		"Do not hallucinate or add extra details.\n\n" +
		fmt.Sprintf("QUESTION: %s\n\nDOCUMENTS:\n%s", query, context.String())
}

// BuildGenericFallbackPrompt is used when retrieval finds nothing relevant.
func BuildGenericFallbackPrompt(userText string) string {
	return "Reply in under 35 words. " +
		"User asked something unrelated to school documents. " +
		fmt.Sprintf("User said: '%s'. ", userText) +
		"Give a polite helpful suggestion."
}
