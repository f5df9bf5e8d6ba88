package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/schoolbos/school_bot/internal/engine/intent"
	"github.com/schoolbos/school_bot/internal/model"
)

const dateLayout = "02 Jan"

// studentData answers the read-only parent intents from school records. A
// failed read produces a canned apology for that topic instead of failing the
// turn: the conversation state is untouched and the user can just retry.
func (e *Engine) studentData(ctx context.Context, tag intent.Tag, studentID int64) (string, bool) {
	var (
		reply string
		err   error
	)

	switch tag {
	case intent.TagHomework:
		var items []model.HomeworkItem
		if items, err = e.school.Homework(ctx, studentID); err == nil {
			reply = formatHomework(items)
		}
	case intent.TagAttendance:
		var summary *model.AttendanceSummary
		if summary, err = e.school.Attendance(ctx, studentID); err == nil {
			reply = formatAttendance(summary)
		}
	case intent.TagFees:
		var fee *model.FeeStatus
		if fee, err = e.school.Fees(ctx, studentID); err == nil {
			reply = formatFees(fee)
		}
	case intent.TagExam:
		var schedule *model.ExamSchedule
		if schedule, err = e.school.Exams(ctx, studentID); err == nil {
			reply = formatExams(schedule)
		}
	case intent.TagResult:
		var summary *model.ResultSummary
		if summary, err = e.school.Results(ctx, studentID); err == nil {
			reply = formatResults(summary)
		}
	case intent.TagNotice:
		var notices []model.Notice
		if notices, err = e.school.Notices(ctx, studentID); err == nil {
			reply = formatNotices(notices)
		}
	case intent.TagLibrary:
		var books []model.LibraryBook
		if books, err = e.school.LibraryBooks(ctx, studentID); err == nil {
			reply = formatLibrary(books)
		}
	case intent.TagBusInfo:
		var bus *model.BusInfo
		if bus, err = e.school.BusInfo(ctx, studentID); err == nil {
			reply = formatBus(bus)
		}
	case intent.TagChildInfo:
		var st *model.StudentRef
		if st, err = e.directory.StudentByID(ctx, studentID); err == nil {
			reply = formatChildInfo(st)
		}
	default:
		return "", false
	}

	if err != nil {
		e.logger.Error("School data read failed",
			zap.String("intent", string(tag)),
			zap.Int64("student_id", studentID),
			zap.Error(err))
		return fmt.Sprintf("I couldn't fetch the %s information right now. Please try again in a moment.",
			topicName(tag)), true
	}
	return reply, true
}

func topicName(tag intent.Tag) string {
	switch tag {
	case intent.TagBusInfo:
		return "bus"
	case intent.TagChildInfo:
		return "student"
	default:
		return strings.ReplaceAll(string(tag), "_", " ")
	}
}

func formatHomework(items []model.HomeworkItem) string {
	if len(items) == 0 {
		return "No pending homework right now. 🎉"
	}
	var b strings.Builder
	b.WriteString("Pending homework:\n")
	for _, h := range items {
		fmt.Fprintf(&b, "- %s: %s (due %s)\n", h.Subject, h.Title, h.DueDate.Format(dateLayout))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatAttendance(s *model.AttendanceSummary) string {
	var b strings.Builder
	if s.Today != nil {
		fmt.Fprintf(&b, "Today: %s\n", s.Today.Status)
	} else {
		b.WriteString("Today's attendance is not marked yet.\n")
	}
	if len(s.Recent) > 0 {
		b.WriteString("\nLast days:\n")
		for _, r := range s.Recent {
			fmt.Fprintf(&b, "- %s: %s\n", r.Date.Format(dateLayout), r.Status)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatFees(f *model.FeeStatus) string {
	if f == nil {
		return "No fee records found for this student."
	}
	return fmt.Sprintf(
		"Fee status: %s\nTotal: ₹%.2f\nPaid: ₹%.2f\nDue: ₹%.2f (by %s)",
		f.Status, f.Total, f.Paid, f.Due, f.DueDate.Format("02 Jan 2006"))
}

func formatExams(s *model.ExamSchedule) string {
	if len(s.Upcoming) == 0 && len(s.Completed) == 0 {
		return "No exams scheduled right now."
	}
	var b strings.Builder
	if len(s.Upcoming) > 0 {
		b.WriteString("Upcoming exams:\n")
		for _, e := range s.Upcoming {
			fmt.Fprintf(&b, "- %s (%s) on %s\n", e.Name, e.Type, e.Date.Format(dateLayout))
		}
	}
	if len(s.Completed) > 0 {
		b.WriteString("\nCompleted:\n")
		for _, e := range s.Completed {
			fmt.Fprintf(&b, "- %s on %s\n", e.Name, e.Date.Format(dateLayout))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatResults(s *model.ResultSummary) string {
	if s == nil {
		return "No results are published yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Results for %s:\n", s.ExamName)
	for _, sub := range s.Subjects {
		fmt.Fprintf(&b, "- %s: %.0f/%.0f (%s)\n", sub.Subject, sub.Marks, sub.MaxMarks, sub.Grade)
	}
	if s.Overall != nil {
		fmt.Fprintf(&b, "\nOverall: %.1f%% (grade %s", s.Overall.Percentage, s.Overall.Grade)
		if s.Overall.Rank > 0 {
			fmt.Fprintf(&b, ", rank %d", s.Overall.Rank)
		}
		b.WriteString(")")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatNotices(notices []model.Notice) string {
	if len(notices) == 0 {
		return "No notices at the moment."
	}
	var b strings.Builder
	b.WriteString("Latest notices:\n")
	for _, n := range notices {
		fmt.Fprintf(&b, "- %s (%s): %s\n", n.Title, n.Date.Format(dateLayout), n.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatLibrary(books []model.LibraryBook) string {
	if len(books) == 0 {
		return "No library books are currently issued."
	}
	var b strings.Builder
	b.WriteString("Issued books:\n")
	for _, book := range books {
		fmt.Fprintf(&b, "- %s by %s, due %s", book.Title, book.Author, book.DueDate.Format(dateLayout))
		if book.Overdue {
			b.WriteString(" (OVERDUE)")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatBus(bus *model.BusInfo) string {
	if bus == nil {
		return "No bus is assigned to this student."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Bus %s\nDriver: %s (%s)\nRoute: %s (%s) → %s (%s)\n",
		bus.Number, bus.DriverName, bus.DriverTel,
		bus.Start, bus.StartTime, bus.End, bus.EndTime)
	if len(bus.Stops) > 0 {
		b.WriteString("\nStops:\n")
		for _, stop := range bus.Stops {
			fmt.Fprintf(&b, "- %s (arr %s, dep %s)\n", stop.Name, stop.Arrival, stop.Departure)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatChildInfo(st *model.StudentRef) string {
	if st == nil {
		return "I couldn't find that student record."
	}
	return fmt.Sprintf(
		"Student: %s\nClass: %s %s\nParent: %s\nRegistered contact: %s",
		st.Name, st.ClassName, st.Section, st.ParentName, st.ParentContact)
}
