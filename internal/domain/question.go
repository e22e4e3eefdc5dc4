package domain

// QuestionRecord is one validated question/answer pair produced by the
// pipeline. Records are values and are never modified after validation.
type QuestionRecord struct {
	ID              int     `json:"id"`
	Question        string  `json:"question"`
	Answer          string  `json:"answer"`
	Difficulty      string  `json:"difficulty"`
	ImportanceScore float64 `json:"importanceScore"`
}

// Bounds of QuestionRecord.ImportanceScore.
const (
	MinImportanceScore = 0
	MaxImportanceScore = 100
)
