package forms

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/schoolbos/school_bot/internal/model"
)

const reportMaxTokens = 400

func (e *Engine) startTeacherReport(ctx context.Context, s *model.Session) (string, error) {
	classes, err := e.directory.ListClasses(ctx)
	if err != nil {
		return "", fmt.Errorf("list classes: %w", err)
	}
	if len(classes) == 0 {
		return "No classes are registered yet, so there's nothing to report on.", nil
	}

	p := &model.ReportProgress{ClassMap: make(map[string]int64, len(classes))}
	var b strings.Builder
	b.WriteString("Which class is the student in?\n")
	for i, c := range classes {
		key := strconv.Itoa(i + 1)
		p.ClassMap[key] = c.ID
		b.WriteString(key)
		b.WriteString(". ")
		b.WriteString(c.Name)
		if c.Section != "" {
			b.WriteString(" ")
			b.WriteString(c.Section)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nReply with the number.")

	s.CurrentForm = model.FormTeacherReport
	s.FormStep = 1
	s.FormData = model.FormData{Report: p}
	return b.String(), nil
}

func (e *Engine) stepTeacherReport(ctx context.Context, s *model.Session, text string) (string, error) {
	answer := strings.TrimSpace(text)
	p := s.FormData.Report
	if p == nil {
		return "", fmt.Errorf("report form without progress at step %d", s.FormStep)
	}

	switch s.FormStep {
	case 1:
		classID, ok := p.ClassMap[answer]
		if !ok {
			return "Invalid choice. Please reply with one of the listed numbers.", nil
		}
		return e.presentRoster(ctx, s, p, classID)

	case 2:
		studentID, ok := p.StudentMap[answer]
		if !ok {
			return "Invalid choice. Please reply with one of the listed numbers.", nil
		}
		return e.composeReport(ctx, s, studentID)
	}

	return "", fmt.Errorf("report form at unknown step %d", s.FormStep)
}

func (e *Engine) presentRoster(ctx context.Context, s *model.Session, p *model.ReportProgress, classID int64) (string, error) {
	students, err := e.directory.StudentsByClass(ctx, classID)
	if err != nil {
		return "", fmt.Errorf("list class roster: %w", err)
	}
	if len(students) == 0 {
		s.ClearForm()
		return "That class has no students on record. Type *report* to start over.", nil
	}

	p.ClassID = &classID
	p.StudentMap = make(map[string]int64, len(students))
	var b strings.Builder
	b.WriteString("Which student?\n")
	for i, st := range students {
		key := strconv.Itoa(i + 1)
		p.StudentMap[key] = st.ID
		b.WriteString(key)
		b.WriteString(". ")
		b.WriteString(st.Name)
		b.WriteString("\n")
	}
	b.WriteString("\nReply with the number.")
	s.FormStep = 2
	return b.String(), nil
}

func (e *Engine) composeReport(ctx context.Context, s *model.Session, studentID int64) (string, error) {
	st, err := e.directory.StudentByID(ctx, studentID)
	if err != nil {
		return "", fmt.Errorf("load student %d: %w", studentID, err)
	}
	if st == nil {
		return "", fmt.Errorf("student %d not found", studentID)
	}
	counters, err := e.school.PerformanceCounters(ctx, studentID)
	if err != nil {
		return "", fmt.Errorf("load performance counters: %w", err)
	}
	grades, err := e.school.AllGrades(ctx, studentID)
	if err != nil {
		return "", fmt.Errorf("load grades: %w", err)
	}

	raw := buildRawReport(st, counters, grades)

	prompt := "Analyze this student performance report and give a short, practical summary " +
		"for the class teacher: strengths, weaknesses, and one or two suggested actions. " +
		"Keep it under 150 words.\n\n" + raw

	s.ClearForm()

	analysis, err := e.generator.Generate(ctx, prompt, reportMaxTokens)
	if err != nil {
		e.logger.Warn("Report analysis unavailable, returning raw figures",
			zap.Int64("student_id", studentID),
			zap.Error(err))
		return raw, nil
	}
	return raw + "\n\n" + analysis, nil
}

func buildRawReport(st *model.StudentRef, c *model.PerformanceCounters, grades []model.SubjectResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Performance report: %s (Class %s %s)\n\n", st.Name, st.ClassName, st.Section)
	fmt.Fprintf(&b, "Attendance: %d/%d days present, %d absent, %d on leave\n",
		c.DaysPresent, c.DaysTotal, c.DaysAbsent, c.DaysLeave)
	fmt.Fprintf(&b, "Library: %d books issued, %d overdue\n", c.BooksIssued, c.BooksOverdue)
	fmt.Fprintf(&b, "Homework assigned this term: %d\n", c.HomeworkCount)

	if len(grades) > 0 {
		b.WriteString("\nGrades:\n")
		for _, g := range grades {
			fmt.Fprintf(&b, "- %s: %.0f/%.0f (%s)\n", g.Subject, g.Marks, g.MaxMarks, g.Grade)
		}
	}
	return b.String()
}
