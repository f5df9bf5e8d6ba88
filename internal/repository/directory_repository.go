package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schoolbos/school_bot/internal/model"
)

// DirectoryRepository answers "who is this address" questions: teacher
// lookups, parent-to-student links, class and teacher lists.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

// lastDigits keeps the trailing 10 digits so numbers match regardless of
// country-code prefixes, the same normalization the school records use.
func lastDigits(phone string) string {
	if len(phone) > 10 {
		return phone[len(phone)-10:]
	}
	return phone
}

// IsTeacher reports whether the address belongs to a teacher.
func (r *DirectoryRepository) IsTeacher(ctx context.Context, address string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM teachers WHERE contact LIKE '%' || $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, lastDigits(address)).Scan(&exists); err != nil {
		return false, fmt.Errorf("teacher lookup: %w", err)
	}
	return exists, nil
}

// StudentsByContact returns all students whose parent contact matches the
// address, ordered by id so the child menu numbering is stable.
func (r *DirectoryRepository) StudentsByContact(ctx context.Context, address string) ([]model.StudentRef, error) {
	query := `
		SELECT s.id, s.student_name, c.class_name, s.section, s.parent_name, s.parent_contact
		FROM students s
		JOIN classes c ON c.id = s.class_id
		WHERE s.parent_contact LIKE '%' || $1
		ORDER BY s.id
	`

	rows, err := r.pool.Query(ctx, query, lastDigits(address))
	if err != nil {
		return nil, fmt.Errorf("students by contact: %w", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

// StudentByID returns a student profile, or nil if absent.
func (r *DirectoryRepository) StudentByID(ctx context.Context, id int64) (*model.StudentRef, error) {
	query := `
		SELECT s.id, s.student_name, c.class_name, s.section, s.parent_name, s.parent_contact
		FROM students s
		JOIN classes c ON c.id = s.class_id
		WHERE s.id = $1
	`

	var st model.StudentRef
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&st.ID, &st.Name, &st.ClassName, &st.Section, &st.ParentName, &st.ParentContact,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("student by id: %w", err)
	}
	return &st, nil
}

// StudentsByClass lists a class roster, ordered by name for the numbered menu.
func (r *DirectoryRepository) StudentsByClass(ctx context.Context, classID int64) ([]model.StudentRef, error) {
	query := `
		SELECT s.id, s.student_name, c.class_name, s.section, s.parent_name, s.parent_contact
		FROM students s
		JOIN classes c ON c.id = s.class_id
		WHERE s.class_id = $1
		ORDER BY s.student_name
	`

	rows, err := r.pool.Query(ctx, query, classID)
	if err != nil {
		return nil, fmt.Errorf("students by class: %w", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

// ListTeachers lists all teachers ordered by name for the numbered menu.
func (r *DirectoryRepository) ListTeachers(ctx context.Context) ([]model.TeacherRef, error) {
	query := `
		SELECT id, teacher_name, COALESCE(specialization, ''), contact
		FROM teachers
		ORDER BY teacher_name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	defer rows.Close()

	var teachers []model.TeacherRef
	for rows.Next() {
		var t model.TeacherRef
		if err := rows.Scan(&t.ID, &t.Name, &t.Specialization, &t.Contact); err != nil {
			return nil, fmt.Errorf("scan teacher: %w", err)
		}
		teachers = append(teachers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teachers: %w", err)
	}

	return teachers, nil
}

// TeacherByID returns a teacher, or nil if absent.
func (r *DirectoryRepository) TeacherByID(ctx context.Context, id int64) (*model.TeacherRef, error) {
	query := `SELECT id, teacher_name, COALESCE(specialization, ''), contact FROM teachers WHERE id = $1`

	var t model.TeacherRef
	err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Specialization, &t.Contact)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("teacher by id: %w", err)
	}
	return &t, nil
}

// ListClasses lists classes ordered by name for the teacher report menu.
func (r *DirectoryRepository) ListClasses(ctx context.Context) ([]model.ClassRef, error) {
	query := `SELECT id, class_name, COALESCE(section, '') FROM classes ORDER BY class_name, section`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	var classes []model.ClassRef
	for rows.Next() {
		var c model.ClassRef
		if err := rows.Scan(&c.ID, &c.Name, &c.Section); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classes: %w", err)
	}

	return classes, nil
}

func scanStudents(rows pgx.Rows) ([]model.StudentRef, error) {
	var students []model.StudentRef
	for rows.Next() {
		var st model.StudentRef
		if err := rows.Scan(&st.ID, &st.Name, &st.ClassName, &st.Section, &st.ParentName, &st.ParentContact); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}
