package models

import (
	"time"

	"github.com/noah-isme/edupredict-api/pkg/gamification"
)

// DefaultGrade is assigned to profiles created at registration.
const DefaultGrade = "10th"

// DefaultSubjects seed a new student's subject list with zero marks.
var DefaultSubjects = []string{"Mathematics", "Physics", "Chemistry", "Biology", "English", "Computer Science"}

// Student is the academic profile attached to a user.
type Student struct {
	ID                   string     `db:"id" json:"id"`
	UserID               string     `db:"user_id" json:"userId"`
	Grade                string     `db:"grade" json:"grade"`
	Attendance           float64    `db:"attendance" json:"attendance"`
	AssignmentCompletion float64    `db:"assignment_completion" json:"assignmentCompletion"`
	QuizScores           float64    `db:"quiz_scores" json:"quizScores"`
	StudyHours           float64    `db:"study_hours" json:"studyHours"`
	Participation        float64    `db:"participation" json:"participation"`
	Badges               StringList `db:"badges" json:"badges"`
	gamification.State
	Subjects  []Subject `db:"-" json:"subjects"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewStudent returns the default profile for a freshly registered user.
func NewStudent(userID string) *Student {
	return &Student{
		UserID:     userID,
		Grade:      DefaultGrade,
		Attendance: 100,
		Badges:     StringList{},
		State:      gamification.DefaultState(),
	}
}

// StudentDetail joins the profile with the owning user's identity fields.
type StudentDetail struct {
	Student
	Name       string  `db:"name" json:"name"`
	Email      string  `db:"email" json:"email"`
	RollNumber *string `db:"roll_number" json:"rollNumber,omitempty"`
	Gender     *string `db:"gender" json:"gender,omitempty"`
}

// Subject holds a subject's marks; PredictedScore is derived on write.
type Subject struct {
	ID             string  `db:"id" json:"id"`
	StudentID      string  `db:"student_id" json:"-"`
	Name           string  `db:"name" json:"name"`
	InternalMarks  float64 `db:"internal_marks" json:"internalMarks"`
	ExternalMarks  float64 `db:"external_marks" json:"externalMarks"`
	PredictedScore int     `db:"predicted_score" json:"predictedScore"`
	Position       int     `db:"position" json:"-"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	Grade    string
	Search   string
	Page     int
	PageSize int
}

// MetricsUpdate is the whitelisted set of profile fields a client may change.
type MetricsUpdate struct {
	Grade                *string  `json:"grade" validate:"omitempty,min=1,max=20"`
	Attendance           *float64 `json:"attendance" validate:"omitempty,gte=0,lte=100"`
	AssignmentCompletion *float64 `json:"assignmentCompletion" validate:"omitempty,gte=0,lte=100"`
	QuizScores           *float64 `json:"quizScores" validate:"omitempty,gte=0,lte=100"`
	StudyHours           *float64 `json:"studyHours" validate:"omitempty,gte=0,lte=168"`
	Participation        *float64 `json:"participation" validate:"omitempty,gte=0,lte=100"`
}

// Empty reports whether no whitelisted field is present.
func (u MetricsUpdate) Empty() bool {
	return u.Grade == nil && u.Attendance == nil && u.AssignmentCompletion == nil &&
		u.QuizScores == nil && u.StudyHours == nil && u.Participation == nil
}

// Apply copies the present fields onto s.
func (u MetricsUpdate) Apply(s *Student) {
	if u.Grade != nil {
		s.Grade = *u.Grade
	}
	if u.Attendance != nil {
		s.Attendance = *u.Attendance
	}
	if u.AssignmentCompletion != nil {
		s.AssignmentCompletion = *u.AssignmentCompletion
	}
	if u.QuizScores != nil {
		s.QuizScores = *u.QuizScores
	}
	if u.StudyHours != nil {
		s.StudyHours = *u.StudyHours
	}
	if u.Participation != nil {
		s.Participation = *u.Participation
	}
}

// SubjectInput is one entry of a bulk subject replacement.
type SubjectInput struct {
	Name          string  `json:"name" validate:"required,max=80"`
	InternalMarks float64 `json:"internalMarks" validate:"gte=0,lte=100"`
	ExternalMarks float64 `json:"externalMarks" validate:"gte=0,lte=100"`
}
