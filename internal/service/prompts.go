package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/edupredict-api/internal/models"
	"github.com/noah-isme/edupredict-api/pkg/llm"
	"github.com/noah-isme/edupredict-api/pkg/performance"
)

const (
	personaPrediction  = "You are an educational analytics AI that helps predict and improve student success. Always respond with valid JSON."
	personaStudyCoach  = "You are a friendly and encouraging study coach who provides practical, actionable study advice."
	personaComic       = "You are a creative comic writer who creates inspiring, relatable student success stories. Respond with valid JSON."
	personaWhatIf      = "You are an educational advisor who analyzes hypothetical scenarios to help students understand the impact of their choices. Respond with valid JSON."
	personaChatStudent = "You are EduPredict AI, a helpful educational assistant. You help students with study tips, motivation, and academic guidance. Be encouraging, practical, and supportive."
	personaChatStaff   = "You are EduPredict AI, an educational analytics assistant. You help educators and administrators understand student performance data and provide actionable insights."
)

func predictionRequest(in models.PredictionInput, result performance.ScoreResult) llm.Request {
	var b strings.Builder
	b.WriteString("Based on the following student data, provide a success prediction analysis:\n\nStudent Data:\n")
	fmt.Fprintf(&b, "- Attendance: %s%%\n", formatMetric(in.Attendance))
	fmt.Fprintf(&b, "- Internal Marks: %s out of %s\n", formatMetric(in.InternalMarks), formatMetric(maxMarksOrDefault(in.MaxMarks)))
	fmt.Fprintf(&b, "- Assignment Score: %s%%\n", formatMetric(in.AssignmentScore))
	fmt.Fprintf(&b, "- Previous Grade: %s%%\n", formatMetric(in.PreviousGrade))
	fmt.Fprintf(&b, "- Study Hours Per Day: %s\n", formatMetric(in.StudyHours))
	if in.QuizScores != nil {
		fmt.Fprintf(&b, "- Quiz Scores Average: %s%%\n", formatMetric(*in.QuizScores))
	}
	if in.Participation != nil {
		fmt.Fprintf(&b, "- Participation Score: %s%%\n", formatMetric(*in.Participation))
	}
	fmt.Fprintf(&b, "- Computed Score: %d (risk level %s, pass probability %d%%)\n", result.FinalScore, result.RiskLevel, result.PassProbability)
	b.WriteString(`
Provide:
1. Success Probability (as a percentage)
2. Key Strengths (2-3 points)
3. Areas for Improvement (2-3 points)
4. Personalized Recommendations (3-4 actionable tips)

Format the response as pure JSON without markdown. Do NOT include any text before or after JSON.
Keys: successProbability, strengths, improvements, recommendations`)
	return llm.Request{System: personaPrediction, Prompt: b.String(), Temperature: 0.7, MaxTokens: 800}
}

func studyAdviceRequest(req models.StudyAdviceRequest) llm.Request {
	prompt := fmt.Sprintf(`Create personalized study advice for a student:

Subject: %s
Current Level: %s
Learning Style: %s
Challenges: %s

Provide:
1. Study Strategy (tailored to their learning style)
2. Resource Recommendations (books, websites, videos)
3. Weekly Study Plan
4. Tips for Overcoming Challenges
5. Motivation Boost (encouragement message)

Make it engaging and actionable.`,
		req.Subject,
		orDefault(req.CurrentLevel, "Intermediate"),
		orDefault(req.LearningStyle, "Visual"),
		orDefault(req.Challenges, "None specified"))
	return llm.Request{System: personaStudyCoach, Prompt: prompt, Temperature: 0.8, MaxTokens: 1000}
}

func comicRequest(req models.ComicRequest) llm.Request {
	prompt := fmt.Sprintf(`Create a 4-panel comic strip narrative for a student's success journey:

Student: %s
Journey: %s
Achievements: %s
Challenges Overcome: %s

Create 4 panels with:
- Panel 1: The Challenge (starting point)
- Panel 2: The Effort (hard work montage)
- Panel 3: The Breakthrough (turning point)
- Panel 4: The Victory (success achieved)

For each panel, provide:
1. Scene description (visual)
2. Dialogue/thought bubble
3. Emotion/mood

Format as pure JSON array without markdown. Do NOT include any text before or after JSON.
Array of objects: panel, scene, dialogue, mood`,
		orDefault(req.StudentName, "Alex"),
		orDefault(req.Journey, "Improving grades over a semester"),
		orDefault(req.Achievements, "Raised GPA from 2.5 to 3.5"),
		orDefault(req.Challenges, "Time management, focus"))
	return llm.Request{System: personaComic, Prompt: prompt, Temperature: 0.9, MaxTokens: 800}
}

func chatRequest(req models.ChatRequest) llm.Request {
	persona := personaChatStaff
	if req.Context == "student" {
		persona = personaChatStudent
	}
	return llm.Request{System: persona, Prompt: req.Message, Temperature: 0.7, MaxTokens: 500}
}

func whatIfRequest(student *models.StudentDetail, scenario string) llm.Request {
	prompt := fmt.Sprintf(`Analyze this "What If" scenario for a student:

Current Student Stats:
- Name: %s
- Attendance: %s%%
- Assignment Completion: %s%%
- Quiz Scores: %s%%
- Study Hours/Week: %s

Scenario: "%s"

Provide:
1. Predicted Impact (how this would affect their grades/success)
2. New Projected Scores (estimate new percentages)
3. Timeline (how long to see results)
4. Action Steps (what specifically they should do)
5. Potential Challenges (what might make this difficult)
6. Encouragement (motivational message)

Format as JSON with keys: impact, projectedScores, timeline, actionSteps, challenges, encouragement`,
		student.Name,
		formatMetric(student.Attendance),
		formatMetric(student.AssignmentCompletion),
		formatMetric(student.QuizScores),
		formatMetric(student.StudyHours),
		scenario)
	return llm.Request{System: personaWhatIf, Prompt: prompt, Temperature: 0.7, MaxTokens: 800}
}

// sanitizeScenario collapses line breaks so the scenario stays on one prompt line.
func sanitizeScenario(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}

func formatMetric(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func maxMarksOrDefault(v *float64) float64 {
	if v == nil {
		return 100
	}
	return *v
}
