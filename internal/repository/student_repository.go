package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/edupredict-api/internal/models"
	"github.com/noah-isme/edupredict-api/pkg/gamification"
)

const studentDetailColumns = `s.id, s.user_id, s.grade, s.attendance, s.assignment_completion, s.quiz_scores, s.study_hours, s.participation,
s.badges, s.xp, s.level, s.next_level_xp, s.title, s.created_at, s.updated_at, u.name, u.email, u.roll_number, u.gender`

const studentDetailFrom = `FROM students s JOIN users u ON u.id = s.user_id`

// StudentRepository persists student profiles and their subjects.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByUserID loads a profile and its subjects by the owning user's id.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.user_id = $1 LIMIT 1", studentDetailColumns, studentDetailFrom)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by user: %w", err)
	}
	subjects, err := r.subjectsFor(ctx, []string{detail.ID})
	if err != nil {
		return nil, err
	}
	detail.Subjects = subjects[detail.ID]
	if detail.Subjects == nil {
		detail.Subjects = []models.Subject{}
	}
	return &detail, nil
}

// List returns a page of profiles with subjects and the total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	where, args := studentConditions(filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s WHERE 1=1%s ORDER BY u.name ASC LIMIT %d OFFSET %d", studentDetailColumns, studentDetailFrom, where, pageSize, offset)
	var details []models.StudentDetail
	if err := r.db.SelectContext(ctx, &details, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE 1=1%s", studentDetailFrom, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	if err := r.attachSubjects(ctx, details); err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// ListAll returns every profile matching the filter, ignoring pagination.
func (r *StudentRepository) ListAll(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error) {
	where, args := studentConditions(filter)
	query := fmt.Sprintf("SELECT %s %s WHERE 1=1%s ORDER BY u.name ASC", studentDetailColumns, studentDetailFrom, where)
	var details []models.StudentDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	if err := r.attachSubjects(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

// UpdateMetrics writes the whitelisted metric fields.
func (r *StudentRepository) UpdateMetrics(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET grade = :grade, attendance = :attendance, assignment_completion = :assignment_completion,
quiz_scores = :quiz_scores, study_hours = :study_hours, participation = :participation, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student metrics: %w", err)
	}
	return expectAffected(res)
}

// UpdateGamification stores the XP state and badges.
func (r *StudentRepository) UpdateGamification(ctx context.Context, studentID string, state gamification.State, badges models.StringList) error {
	const query = `UPDATE students SET xp = $2, level = $3, next_level_xp = $4, title = $5, badges = $6, updated_at = $7 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, studentID, state.XP, state.Level, state.NextLevelXP, state.Title, badges, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update student gamification: %w", err)
	}
	return expectAffected(res)
}

// ReplaceSubjects swaps the whole subject list in one transaction.
func (r *StudentRepository) ReplaceSubjects(ctx context.Context, studentID string, subjects []models.Subject) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin subjects transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM student_subjects WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("clear subjects: %w", err)
	}
	if err = insertSubjects(ctx, tx, studentID, subjects); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE students SET updated_at = $2 WHERE id = $1`, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("touch student: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit subjects: %w", err)
	}
	return nil
}

func (r *StudentRepository) attachSubjects(ctx context.Context, details []models.StudentDetail) error {
	if len(details) == 0 {
		return nil
	}
	ids := make([]string, len(details))
	for i := range details {
		ids[i] = details[i].ID
	}
	byStudent, err := r.subjectsFor(ctx, ids)
	if err != nil {
		return err
	}
	for i := range details {
		details[i].Subjects = byStudent[details[i].ID]
		if details[i].Subjects == nil {
			details[i].Subjects = []models.Subject{}
		}
	}
	return nil
}

func (r *StudentRepository) subjectsFor(ctx context.Context, studentIDs []string) (map[string][]models.Subject, error) {
	const query = `SELECT id, student_id, name, internal_marks, external_marks, predicted_score, position
FROM student_subjects WHERE student_id = ANY($1) ORDER BY student_id, position`
	var rows []models.Subject
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	out := make(map[string][]models.Subject, len(studentIDs))
	for _, s := range rows {
		out[s.StudentID] = append(out[s.StudentID], s)
	}
	return out, nil
}

func studentConditions(filter models.StudentFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if filter.Grade != "" {
		args = append(args, filter.Grade)
		conditions = append(conditions, fmt.Sprintf("s.grade = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.name) LIKE $%d OR LOWER(COALESCE(u.roll_number, '')) LIKE $%d)", len(args), len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " AND " + strings.Join(conditions, " AND "), args
}

func insertStudent(ctx context.Context, tx *sqlx.Tx, student *models.Student, now time.Time) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.Badges == nil {
		student.Badges = models.StringList{}
	}
	student.CreatedAt, student.UpdatedAt = now, now
	const query = `INSERT INTO students (id, user_id, grade, attendance, assignment_completion, quiz_scores, study_hours, participation,
badges, xp, level, next_level_xp, title, created_at, updated_at)
VALUES (:id, :user_id, :grade, :attendance, :assignment_completion, :quiz_scores, :study_hours, :participation,
:badges, :xp, :level, :next_level_xp, :title, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

func insertSubjects(ctx context.Context, tx *sqlx.Tx, studentID string, subjects []models.Subject) error {
	const query = `INSERT INTO student_subjects (id, student_id, name, internal_marks, external_marks, predicted_score, position)
VALUES (:id, :student_id, :name, :internal_marks, :external_marks, :predicted_score, :position)`
	for i := range subjects {
		if subjects[i].ID == "" {
			subjects[i].ID = uuid.NewString()
		}
		subjects[i].StudentID = studentID
		subjects[i].Position = i
		if _, err := tx.NamedExecContext(ctx, query, subjects[i]); err != nil {
			return fmt.Errorf("insert subject %q: %w", subjects[i].Name, err)
		}
	}
	return nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
