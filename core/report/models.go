package report

import "time"

type (
	StudentReport struct {
		StudentID            string    `json:"studentId"`
		ProblemsDetected     []string  `json:"problemsDetected"`
		ImprovementIdeas     []string  `json:"improvementIdeas"`
		WeeklyActionPlan     []string  `json:"weeklyActionPlan"`
		DetailedPlan         string    `json:"detailedPlan"`
		PsychologicalProfile string    `json:"psychologicalProfile"`
		TechnicalDrills      []string  `json:"technicalDrills"`
		ExpectedOutcome      string    `json:"expectedOutcome"`
		GeneratedAt          time.Time `json:"generatedAt"`
	}

	ImprovementIdea struct {
		Category string `json:"category"` // Technical | Discipline | Engagement
		Idea     string `json:"idea"`
	}

	ClassReport struct {
		WeakTopics        []string          `json:"weakTopics"`
		AttendanceInsight string            `json:"attendanceInsight"`
		TeachingAdvice    []string          `json:"teachingAdvice"`
		ImprovementIdeas  []ImprovementIdea `json:"improvementIdeas"`
		Summary           string            `json:"summary"`
		ClassHealthScore  float64           `json:"classHealthScore"`
		GeneratedAt       time.Time         `json:"generatedAt"`
	}

	// ChatMessage is one turn of a chat session. Role is "user" or "model".
	ChatMessage struct {
		Role    string `json:"role" validate:"oneof=user model"`
		Content string `json:"content" validate:"required"`
	}
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// keys the AI must return for each report
var (
	studentReportKeys = []string{
		"problemsDetected", "improvementIdeas", "weeklyActionPlan", "detailedPlan",
		"psychologicalProfile", "technicalDrills", "expectedOutcome",
	}
	classReportKeys = []string{
		"weakTopics", "attendanceInsight", "teachingAdvice", "improvementIdeas", "summary", "classHealthScore",
	}
)
