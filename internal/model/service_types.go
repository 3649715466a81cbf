package model

import "time"

// 本文件定义对外载荷（服务端响应、pkg/client 解码共用的视图结构）

// Progress 冲刺任务进度
type Progress struct {
	CompletedTasks       int     `json:"completedTasks"`
	CompletionPercentage float64 `json:"completionPercentage"`
}

// SprintView 冲刺对外视图
type SprintView struct {
	ID                  string       `json:"id"`
	ObjectiveID         string       `json:"objectiveId"`
	Title               string       `json:"title"`
	Description         string       `json:"description"`
	Status              string       `json:"status"`
	CompletedAt         *time.Time   `json:"completedAt"`
	DayNumber           int          `json:"dayNumber"`
	LengthDays          int          `json:"lengthDays"`
	Difficulty          string       `json:"difficulty"`
	TotalEstimatedHours float64      `json:"totalEstimatedHours"`
	IsReviewSprint      bool         `json:"isReviewSprint"`
	MicroTasks          []MicroTask  `json:"microTasks"`
	Progress            Progress     `json:"progress"`
	Quizzes             []SprintQuiz `json:"quizzes,omitempty"`
}

// ObjectiveLimits 目标上的操作许可
type ObjectiveLimits struct {
	CanGenerateSprint bool   `json:"canGenerateSprint"`
	Reason            string `json:"reason,omitempty"`
}

// ObjectiveView 学习目标对外视图，当前/历史冲刺已由 lifecycle 调和完毕
type ObjectiveView struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Status             ObjectiveStatus `json:"status"`
	Priority           int             `json:"priority"`
	Progress           int             `json:"progress"` // 已完成冲刺数
	TotalSprints       int             `json:"totalSprints"`
	ProgressPercentage float64         `json:"progressPercentage"`
	CompletedDays      int             `json:"completedDays"`
	CurrentDay         int             `json:"currentDay"`
	CurrentSprint      *SprintView     `json:"currentSprint"`
	PastSprints        []SprintView    `json:"pastSprints"`
	SuccessCriteria    []string        `json:"successCriteria"`
	RequiredSkills     []string        `json:"requiredSkills"`
	Limits             ObjectiveLimits `json:"limits"`
}

// GenerationStatus 下一个冲刺能否生成的服务端门禁
type GenerationStatus struct {
	CanGenerate        bool    `json:"canGenerate"`
	ObjectiveCompleted bool    `json:"objectiveCompleted"`
	NextSprintDay      *int    `json:"nextSprintDay,omitempty"`
	CurrentSprintID    *string `json:"currentSprintId"`
	Reason             string  `json:"reason,omitempty"`
}

// SkillUpdate 单个技能的脑适应更新
type SkillUpdate struct {
	Name     string  `json:"name"`
	Delta    float64 `json:"delta"`
	NewLevel float64 `json:"newLevel"`
}

// PerformanceAnalysis 表现分析结论
type PerformanceAnalysis struct {
	RecommendedAction string `json:"recommendedAction"` // speed_up / slow_down / keep_pace
}

// BrainAdaptive 冲刺完成后返回的技能/表现更新
type BrainAdaptive struct {
	SkillsUpdated       []SkillUpdate        `json:"skillsUpdated"`
	PerformanceAnalysis *PerformanceAnalysis `json:"performanceAnalysis,omitempty"`
	Notifications       []string             `json:"notifications"`
}

// CompletionResult 完成冲刺接口的增强响应
type CompletionResult struct {
	SprintID            string        `json:"sprintId"`
	NextSprintGenerated bool          `json:"nextSprintGenerated"`
	NextSprint          *SprintView   `json:"nextSprint,omitempty"`
	BrainAdaptive       BrainAdaptive `json:"brainAdaptive"`
}

// AttemptResult 测验/评估提交结果
type AttemptResult struct {
	AttemptID         string   `json:"attemptId"`
	Score             int      `json:"score"`
	MaxScore          int      `json:"maxScore,omitempty"`
	Passed            bool     `json:"passed"`
	AttemptsRemaining int      `json:"attemptsRemaining"`
	WeakAreas         []string `json:"weakAreas"`
	Recommendations   []string `json:"recommendations"`
}
