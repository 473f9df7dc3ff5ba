package models

import "github.com/noah-isme/edupredict-api/pkg/performance"

// ScoreSource names the inputs a progress score was computed from.
type ScoreSource string

const (
	ScoreSourceSubjects ScoreSource = "subjects"
	ScoreSourceMetrics  ScoreSource = "metrics"
)

// Progress is the derived analytics view of a student.
type Progress struct {
	StudentID         string                   `json:"studentId"`
	Name              string                   `json:"name"`
	RollNumber        *string                  `json:"rollNumber,omitempty"`
	Gender            *string                  `json:"gender,omitempty"`
	OverallScore      int                      `json:"overallScore"`
	PassProbability   int                      `json:"passProbability"`
	RiskLevel         performance.RiskLevel    `json:"riskLevel"`
	SuccessPrediction performance.SuccessLevel `json:"successPrediction"`
	Source            ScoreSource              `json:"source"`
	HasSubjectData    bool                     `json:"hasSubjectData"`
	Subjects          []Subject                `json:"subjects"`
	SubjectAverages   []SubjectAverage         `json:"subjectAverages"`
	Metrics           ProgressMetrics          `json:"metrics"`
	Gamification      GamificationSummary      `json:"gamification"`
	WeeklyStudyHours  float64                  `json:"weeklyStudyHours"`
}

// SubjectAverage is a subject's marks with their rounded mean.
type SubjectAverage struct {
	Name     string  `json:"name"`
	Internal float64 `json:"internal"`
	External float64 `json:"external"`
	Average  int     `json:"average"`
}

// ProgressMetrics are the dashboard tiles.
type ProgressMetrics struct {
	Attendance    MetricTile `json:"attendance"`
	Assignments   MetricTile `json:"assignments"`
	Quizzes       MetricTile `json:"quizzes"`
	Participation MetricTile `json:"participation"`
}

// MetricTile is a single dashboard value.
type MetricTile struct {
	Value float64 `json:"value"`
}

// GamificationSummary is the XP block shown on the dashboard.
type GamificationSummary struct {
	Level         int        `json:"level"`
	XP            int        `json:"xp"`
	NextLevelXP   int        `json:"nextLevelXp"`
	XPToNextLevel int        `json:"xpToNextLevel"`
	Title         string     `json:"title"`
	Badges        StringList `json:"badges"`
}

// CohortEntry is one student's row in cohort listings and reports.
type CohortEntry struct {
	StudentID       string                   `json:"studentId"`
	UserID          string                   `json:"userId"`
	Name            string                   `json:"name"`
	RollNumber      string                   `json:"rollNumber,omitempty"`
	Grade           string                   `json:"grade"`
	OverallScore    int                      `json:"overallScore"`
	PassProbability int                      `json:"passProbability"`
	RiskLevel       performance.RiskLevel    `json:"riskLevel"`
	SuccessLevel    performance.SuccessLevel `json:"successLevel"`
	Source          ScoreSource              `json:"source"`
}

// RiskDistribution counts students per tier under both schemes.
type RiskDistribution struct {
	Total   int                              `json:"total"`
	Risk    map[performance.RiskLevel]int    `json:"risk"`
	Success map[performance.SuccessLevel]int `json:"success"`
	Average float64                          `json:"averageScore"`
}
