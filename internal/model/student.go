package model

// StudentRef identifies a student and the parent contact it is linked to.
type StudentRef struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ClassName     string `json:"class_name"`
	Section       string `json:"section"`
	ParentName    string `json:"parent_name"`
	ParentContact string `json:"parent_contact"`
}

// TeacherRef is a teacher shown in the appointment disambiguation list.
type TeacherRef struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Contact        string `json:"contact"`
}

// ClassRef is a school class presented in the teacher report class list.
type ClassRef struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Section string `json:"section"`
}
