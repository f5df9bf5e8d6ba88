package model

import "time"

// AppointmentStatus — Pending until an admin resolves the inline action.
type AppointmentStatus string

const (
	AppointmentPending  AppointmentStatus = "pending"
	AppointmentAccepted AppointmentStatus = "accepted"
	AppointmentRejected AppointmentStatus = "rejected"
)

// Appointment is a meeting request created by the appointment form.
type Appointment struct {
	ID            int64             `json:"id"`
	StudentID     *int64            `json:"student_id"`
	ParentName    string            `json:"parent_name"`
	ContactNumber string            `json:"contact_number"`
	With          string            `json:"appointment_with"` // "principal" or "teacher"
	TeacherID     *int64            `json:"teacher_id"`
	Reason        string            `json:"reason"`
	PreferredTime string            `json:"preferred_time"`
	Status        AppointmentStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
}
