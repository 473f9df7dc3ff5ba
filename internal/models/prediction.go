package models

import (
	"github.com/noah-isme/edupredict-api/pkg/gamification"
	"github.com/noah-isme/edupredict-api/pkg/insight"
	"github.com/noah-isme/edupredict-api/pkg/performance"
)

// PredictionInput is the data entered on the prediction form. Marks are out
// of MaxMarks (default 100); study hours are per day out of 24.
type PredictionInput struct {
	Attendance      float64  `json:"attendance" validate:"gte=0,lte=100"`
	InternalMarks   float64  `json:"internalMarks" validate:"gte=0"`
	MaxMarks        *float64 `json:"maxMarks,omitempty" validate:"omitempty,gt=0"`
	AssignmentScore float64  `json:"assignmentScore" validate:"gte=0,lte=100"`
	PreviousGrade   float64  `json:"previousGrade" validate:"gte=0,lte=100"`
	StudyHours      float64  `json:"studyHours" validate:"gte=0,lte=24"`
	QuizScores      *float64 `json:"quizScores,omitempty" validate:"omitempty,gte=0,lte=100"`
	Participation   *float64 `json:"participation,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Prediction pairs the deterministic score with best-effort generated insight.
type Prediction struct {
	performance.ScoreResult
	SuccessLevel performance.SuccessLevel                   `json:"successLevel"`
	Normalized   map[performance.Category]float64           `json:"normalized"`
	Insight      *insight.Result[insight.PredictionInsight] `json:"insight"`
	Degraded     bool                                       `json:"degraded"`
	XPAward      *XPAward                                   `json:"xpAward,omitempty"`
}

// XPAward reports the gamification outcome of an action.
type XPAward struct {
	Amount int                  `json:"amount"`
	State  gamification.State   `json:"state"`
	Events []gamification.Event `json:"events"`
}

// ScoreRequest computes a score for arbitrary normalized or raw inputs.
type ScoreRequest struct {
	Metrics map[performance.Category]performance.MetricInput `json:"metrics" validate:"required,min=1"`
	Weights string                                           `json:"weights" validate:"omitempty,oneof=legacy current prediction"`
	Scheme  performance.RiskScheme                           `json:"scheme" validate:"omitempty,oneof=risk success"`
}

// ScoreResponse is the deterministic result of a ScoreRequest.
type ScoreResponse struct {
	performance.ScoreResult
	Weights        string                           `json:"weights"`
	Scheme         performance.RiskScheme           `json:"scheme"`
	Classification string                           `json:"classification"`
	Normalized     map[performance.Category]float64 `json:"normalized"`
}

// WhatIfRequest describes a hypothetical change to evaluate.
type WhatIfRequest struct {
	Scenario string `json:"scenario" validate:"required,max=500"`
}

// WhatIfResult is the projection for a scenario, structured or raw.
type WhatIfResult struct {
	Scenario string                                `json:"scenario"`
	Analysis insight.Result[insight.WhatIfInsight] `json:"analysis"`
	XPAward  *XPAward                              `json:"xpAward,omitempty"`
}

// StudyAdviceRequest asks for a personalised study plan.
type StudyAdviceRequest struct {
	Subject       string `json:"subject" validate:"required,max=80"`
	CurrentLevel  string `json:"currentLevel" validate:"max=40"`
	LearningStyle string `json:"learningStyle" validate:"max=40"`
	Challenges    string `json:"challenges" validate:"max=500"`
}

// ComicRequest asks for a four-panel progress story.
type ComicRequest struct {
	StudentName  string `json:"studentName" validate:"max=80"`
	Journey      string `json:"journey" validate:"max=500"`
	Achievements string `json:"achievements" validate:"max=500"`
	Challenges   string `json:"challenges" validate:"max=500"`
}

// ComicResult is the generated story, structured or raw.
type ComicResult struct {
	Panels insight.Result[[]insight.ComicPanel] `json:"panels"`
}

// ChatRequest is a single chat turn.
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
	Context string `json:"context" validate:"omitempty,oneof=student staff"`
}

// TextResult wraps free-text model output.
type TextResult struct {
	Text string `json:"text"`
}
