package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schoolbos/school_bot/internal/model"
)

// SchoolRepository is the read-only domain data adapter: homework, attendance,
// fees, exams, results, notices, library and transport records keyed by
// student.
type SchoolRepository struct {
	pool *pgxpool.Pool
}

func NewSchoolRepository(pool *pgxpool.Pool) *SchoolRepository {
	return &SchoolRepository{pool: pool}
}

// Homework returns pending homework for the student's class.
func (r *SchoolRepository) Homework(ctx context.Context, studentID int64) ([]model.HomeworkItem, error) {
	query := `
		SELECT h.subject, h.title, COALESCE(h.description, ''), h.due_date
		FROM homework h
		JOIN students s ON s.class_id = h.class_id
		WHERE s.id = $1 AND h.due_date >= CURRENT_DATE
		ORDER BY h.due_date
		LIMIT 10
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("homework: %w", err)
	}
	defer rows.Close()

	var items []model.HomeworkItem
	for rows.Next() {
		var h model.HomeworkItem
		if err := rows.Scan(&h.Subject, &h.Title, &h.Description, &h.DueDate); err != nil {
			return nil, fmt.Errorf("scan homework: %w", err)
		}
		items = append(items, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate homework: %w", err)
	}

	return items, nil
}

// Attendance returns today's mark (nil if not yet recorded) and the last week.
func (r *SchoolRepository) Attendance(ctx context.Context, studentID int64) (*model.AttendanceSummary, error) {
	var summary model.AttendanceSummary

	var today model.AttendanceRecord
	err := r.pool.QueryRow(ctx,
		`SELECT date, status FROM attendance WHERE student_id = $1 AND date = CURRENT_DATE`,
		studentID,
	).Scan(&today.Date, &today.Status)
	if err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("attendance today: %w", err)
	}
	if err == nil {
		summary.Today = &today
	}

	rows, err := r.pool.Query(ctx, `
		SELECT date, status
		FROM attendance
		WHERE student_id = $1 AND date < CURRENT_DATE
		ORDER BY date DESC
		LIMIT 7
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("attendance recent: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec model.AttendanceRecord
		if err := rows.Scan(&rec.Date, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		summary.Recent = append(summary.Recent, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}

	return &summary, nil
}

// Fees returns the student's fee position, or nil if none recorded.
func (r *SchoolRepository) Fees(ctx context.Context, studentID int64) (*model.FeeStatus, error) {
	query := `
		SELECT status, total_amount, paid_amount, due_amount, due_date
		FROM fees
		WHERE student_id = $1
		ORDER BY due_date DESC
		LIMIT 1
	`

	var fee model.FeeStatus
	err := r.pool.QueryRow(ctx, query, studentID).Scan(
		&fee.Status, &fee.Total, &fee.Paid, &fee.Due, &fee.DueDate,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("fees: %w", err)
	}
	return &fee, nil
}

// Exams returns upcoming and recently completed exams for the student's class.
func (r *SchoolRepository) Exams(ctx context.Context, studentID int64) (*model.ExamSchedule, error) {
	query := `
		SELECT e.exam_name, e.exam_date, e.exam_type, e.status
		FROM exams e
		JOIN students s ON s.class_id = e.class_id
		WHERE s.id = $1
		ORDER BY e.exam_date DESC
		LIMIT 10
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("exams: %w", err)
	}
	defer rows.Close()

	var schedule model.ExamSchedule
	for rows.Next() {
		var (
			item   model.ExamItem
			status string
		)
		if err := rows.Scan(&item.Name, &item.Date, &item.Type, &status); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		if status == "completed" {
			schedule.Completed = append(schedule.Completed, item)
		} else {
			schedule.Upcoming = append(schedule.Upcoming, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exams: %w", err)
	}

	return &schedule, nil
}

// Results returns subject marks for the latest completed exam plus the report
// card roll-up when one exists. Returns nil when no completed exam has marks.
func (r *SchoolRepository) Results(ctx context.Context, studentID int64) (*model.ResultSummary, error) {
	var (
		examID   int64
		examName string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT e.id, e.exam_name
		FROM exams e
		JOIN grades g ON g.exam_id = e.id
		WHERE g.student_id = $1 AND e.status = 'completed'
		ORDER BY e.exam_date DESC
		LIMIT 1
	`, studentID).Scan(&examID, &examName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest exam: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT subject, marks_obtained, max_marks, grade
		FROM grades
		WHERE student_id = $1 AND exam_id = $2
		ORDER BY subject
	`, studentID, examID)
	if err != nil {
		return nil, fmt.Errorf("grades: %w", err)
	}
	defer rows.Close()

	summary := model.ResultSummary{ExamName: examName}
	for rows.Next() {
		var sr model.SubjectResult
		if err := rows.Scan(&sr.Subject, &sr.Marks, &sr.MaxMarks, &sr.Grade); err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		summary.Subjects = append(summary.Subjects, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grades: %w", err)
	}

	var overall model.OverallResult
	err = r.pool.QueryRow(ctx, `
		SELECT overall_percentage, overall_grade, COALESCE(rank, 0)
		FROM report_cards
		WHERE student_id = $1 AND exam_id = $2
	`, studentID, examID).Scan(&overall.Percentage, &overall.Grade, &overall.Rank)
	if err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("report card: %w", err)
	}
	if err == nil {
		summary.Overall = &overall
	}

	return &summary, nil
}

// Notices returns published notices targeting the student's class or all
// students.
func (r *SchoolRepository) Notices(ctx context.Context, studentID int64) ([]model.Notice, error) {
	query := `
		SELECT n.title, n.description, n.applicable_date
		FROM notices n
		JOIN students s ON s.id = $1
		WHERE n.is_published
		  AND (n.class_id IS NULL OR n.class_id = s.class_id)
		ORDER BY n.applicable_date DESC
		LIMIT 5
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("notices: %w", err)
	}
	defer rows.Close()

	var notices []model.Notice
	for rows.Next() {
		var n model.Notice
		if err := rows.Scan(&n.Title, &n.Description, &n.Date); err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		notices = append(notices, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notices: %w", err)
	}

	return notices, nil
}

// LibraryBooks returns books currently issued (not yet returned).
func (r *SchoolRepository) LibraryBooks(ctx context.Context, studentID int64) ([]model.LibraryBook, error) {
	query := `
		SELECT b.title, b.author, bi.due_date, bi.due_date < CURRENT_DATE
		FROM book_issues bi
		JOIN books b ON b.id = bi.book_id
		WHERE bi.student_id = $1 AND NOT bi.is_returned
		ORDER BY bi.due_date
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("library books: %w", err)
	}
	defer rows.Close()

	var books []model.LibraryBook
	for rows.Next() {
		var b model.LibraryBook
		if err := rows.Scan(&b.Title, &b.Author, &b.DueDate, &b.Overdue); err != nil {
			return nil, fmt.Errorf("scan book issue: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book issues: %w", err)
	}

	return books, nil
}

// BusInfo returns the bus route assigned to the student, or nil when the
// student has no bus.
func (r *SchoolRepository) BusInfo(ctx context.Context, studentID int64) (*model.BusInfo, error) {
	var (
		busID int64
		bus   model.BusInfo
	)
	err := r.pool.QueryRow(ctx, `
		SELECT b.id, b.bus_number, b.driver_name, b.driver_phone,
		       b.route_start, b.start_departure, b.route_end, b.end_arrival
		FROM buses b
		JOIN students s ON s.bus_id = b.id
		WHERE s.id = $1
	`, studentID).Scan(
		&busID, &bus.Number, &bus.DriverName, &bus.DriverTel,
		&bus.Start, &bus.StartTime, &bus.End, &bus.EndTime,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("bus: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT name, arrival_time, departure_time
		FROM bus_stops
		WHERE bus_id = $1
		ORDER BY id
	`, busID)
	if err != nil {
		return nil, fmt.Errorf("bus stops: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stop model.BusStop
		if err := rows.Scan(&stop.Name, &stop.Arrival, &stop.Departure); err != nil {
			return nil, fmt.Errorf("scan bus stop: %w", err)
		}
		bus.Stops = append(bus.Stops, stop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bus stops: %w", err)
	}

	return &bus, nil
}

// PerformanceCounters returns attendance, library and homework-volume
// aggregates for a student.
func (r *SchoolRepository) PerformanceCounters(ctx context.Context, studentID int64) (*model.PerformanceCounters, error) {
	var c model.PerformanceCounters

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'Present'),
		       COUNT(*) FILTER (WHERE status = 'Absent'),
		       COUNT(*) FILTER (WHERE status = 'Leave')
		FROM attendance
		WHERE student_id = $1
	`, studentID).Scan(&c.DaysTotal, &c.DaysPresent, &c.DaysAbsent, &c.DaysLeave)
	if err != nil {
		return nil, fmt.Errorf("attendance counters: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE NOT is_returned AND due_date < CURRENT_DATE)
		FROM book_issues
		WHERE student_id = $1
	`, studentID).Scan(&c.BooksIssued, &c.BooksOverdue)
	if err != nil {
		return nil, fmt.Errorf("library counters: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM homework h
		JOIN students s ON s.class_id = h.class_id
		WHERE s.id = $1 AND h.due_date >= date_trunc('month', CURRENT_DATE)
	`, studentID).Scan(&c.HomeworkCount)
	if err != nil {
		return nil, fmt.Errorf("homework counter: %w", err)
	}

	return &c, nil
}

// AllGrades returns every recorded grade for the student across exams, used
// by the teacher report.
func (r *SchoolRepository) AllGrades(ctx context.Context, studentID int64) ([]model.SubjectResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT subject, marks_obtained, max_marks, grade
		FROM grades
		WHERE student_id = $1
		ORDER BY subject
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("all grades: %w", err)
	}
	defer rows.Close()

	var grades []model.SubjectResult
	for rows.Next() {
		var g model.SubjectResult
		if err := rows.Scan(&g.Subject, &g.Marks, &g.MaxMarks, &g.Grade); err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		grades = append(grades, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grades: %w", err)
	}

	return grades, nil
}
