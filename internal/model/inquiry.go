package model

import "time"

// AdmissionInquiry is created by the admission form's terminal step.
// Reference is a public identifier quoted in the admin notification.
type AdmissionInquiry struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	StudentName   string    `json:"student_name"`
	ParentName    string    `json:"parent_name"`
	ContactNumber string    `json:"contact_number"`
	ClassName     string    `json:"class_name"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

// Feedback is a parent or guest feedback/complaint record.
type Feedback struct {
	ID         int64     `json:"id"`
	Reference  string    `json:"reference"`
	StudentID  *int64    `json:"student_id"`
	ParentName string    `json:"parent_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}
