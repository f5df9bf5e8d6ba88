package model

import "time"

// HomeworkItem is one homework assignment for a class.
type HomeworkItem struct {
	Subject     string    `json:"subject"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
}

// AttendanceRecord is one day's attendance mark.
type AttendanceRecord struct {
	Date   time.Time `json:"date"`
	Status string    `json:"status"` // Present / Absent / Leave
}

// AttendanceSummary holds today's mark plus the recent history.
type AttendanceSummary struct {
	Today  *AttendanceRecord  `json:"today"`
	Recent []AttendanceRecord `json:"recent"`
}

// FeeStatus is the current fee position for a student.
type FeeStatus struct {
	Status  string    `json:"status"`
	Total   float64   `json:"total"`
	Paid    float64   `json:"paid"`
	Due     float64   `json:"due"`
	DueDate time.Time `json:"due_date"`
}

// ExamItem is one scheduled or completed exam.
type ExamItem struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
	Type string    `json:"type"`
}

// ExamSchedule splits exams into upcoming and completed.
type ExamSchedule struct {
	Upcoming  []ExamItem `json:"upcoming"`
	Completed []ExamItem `json:"completed"`
}

// SubjectResult is a single subject's marks in the latest exam.
type SubjectResult struct {
	Subject  string  `json:"subject"`
	Marks    float64 `json:"marks"`
	MaxMarks float64 `json:"max_marks"`
	Grade    string  `json:"grade"`
}

// ResultSummary is the latest exam result with the optional report card roll-up.
type ResultSummary struct {
	ExamName string          `json:"exam_name"`
	Subjects []SubjectResult `json:"subjects"`
	Overall  *OverallResult  `json:"overall,omitempty"`
}

// OverallResult is the report card aggregate for one exam.
type OverallResult struct {
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
	Rank       int     `json:"rank"`
}

// Notice is a published school notice applicable to the student.
type Notice struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// LibraryBook is a book currently issued to the student.
type LibraryBook struct {
	Title   string    `json:"title"`
	Author  string    `json:"author"`
	DueDate time.Time `json:"due_date"`
	Overdue bool      `json:"overdue"`
}

// BusStop is one stop on a bus route.
type BusStop struct {
	Name      string `json:"name"`
	Arrival   string `json:"arrival"`
	Departure string `json:"departure"`
}

// BusInfo describes the bus assigned to a student.
type BusInfo struct {
	Number     string    `json:"number"`
	DriverName string    `json:"driver_name"`
	DriverTel  string    `json:"driver_tel"`
	Start      string    `json:"start"`
	StartTime  string    `json:"start_time"`
	End        string    `json:"end"`
	EndTime    string    `json:"end_time"`
	Stops      []BusStop `json:"stops"`
}

// PerformanceCounters aggregates the numbers that feed a teacher report.
type PerformanceCounters struct {
	DaysTotal     int `json:"days_total"`
	DaysPresent   int `json:"days_present"`
	DaysAbsent    int `json:"days_absent"`
	DaysLeave     int `json:"days_leave"`
	BooksIssued   int `json:"books_issued"`
	BooksOverdue  int `json:"books_overdue"`
	HomeworkCount int `json:"homework_count"`
}
