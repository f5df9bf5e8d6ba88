package engine

// Canned replies. These are produced locally so they survive backend outages;
// translation to the session language happens at the transport edge.
const (
	replyInternalError = "Something went wrong. I've reset the conversation. Please type *menu* to continue."

	replyLLMDifficulty = "Sorry, I'm having some difficulty answering right now. Please try again in a moment."

	replyBack = "Okay, going back. Type *menu* to see options."

	replyInvalidChoice = "Invalid choice. Please reply with one of the listed numbers."

	replyGuestDenied = "This information is only available to registered parents. " +
		"If your number is registered with the school, please contact the office. Type *menu* to see what you can do."

	replyTeacherOnly = "That option is only available to teachers."

	replyLangHindi   = "अब मैं हिंदी में बात करूंगा।"
	replyLangEnglish = "I will now speak in English."

	replyOnlyChild = "Only one student is linked to this number, so you're already viewing them. Type *menu* to see options."

	replyTeacherMenu = "Teacher Menu\n" +
		"1. Student performance report\n\n" +
		"Type *report* to generate a report for a student in your class."
)
