// Package presenter turns a session snapshot into the view model the UI
// renders. Present is pure: the same state always yields the same view.
package presenter

import (
	"strconv"
	"strings"

	"github.com/phrazzld/scry-studygen/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Difficulty levels recognized for styling.
const (
	LevelEasy   = "easy"
	LevelMedium = "medium"
	LevelHard   = "hard"
	LevelOther  = "other"
)

// ViewModel is everything the UI needs to draw one session.
type ViewModel struct {
	Status       domain.Status `json:"status"`
	Loading      bool          `json:"loading"`
	Empty        bool          `json:"empty"`
	Items        []ItemView    `json:"items"`
	Selected     *SelectedView `json:"selected,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Seq          uint64        `json:"seq"`
}

// ItemView is one row of the question list. It never carries the answer.
type ItemView struct {
	ID         int           `json:"id"`
	Question   string        `json:"question"`
	Difficulty DifficultyTag `json:"difficulty"`
	Importance string        `json:"importance"`
}

// DifficultyTag is the display label of a difficulty and its style level.
type DifficultyTag struct {
	Label string `json:"label"`
	Level string `json:"level"`
}

// SelectedView is the detail pane. Answer is empty until revealed.
type SelectedView struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Revealed bool   `json:"revealed"`
	Answer   string `json:"answer,omitempty"`
}

// Present renders state.
func Present(state domain.SessionState) ViewModel {
	vm := ViewModel{
		Status:       state.Status,
		Loading:      state.Status == domain.StatusLoading,
		Items:        make([]ItemView, 0, len(state.Items)),
		ErrorMessage: state.ErrorMessage,
		Seq:          state.Seq,
	}

	// cases.Caser keeps state between calls and is not safe to share
	caser := cases.Title(language.English)
	for _, item := range state.Items {
		vm.Items = append(vm.Items, ItemView{
			ID:         item.ID,
			Question:   item.Question,
			Difficulty: difficultyTag(caser, item.Difficulty),
			Importance: ImportanceLabel(item.ImportanceScore),
		})
	}

	if item, ok := state.Selection(); ok {
		selected := &SelectedView{
			ID:       item.ID,
			Question: item.Question,
			Revealed: state.Revealed,
		}
		if state.Revealed {
			selected.Answer = item.Answer
		}
		vm.Selected = selected
	}

	vm.Empty = len(vm.Items) == 0 &&
		state.Status != domain.StatusLoading &&
		state.Status != domain.StatusFailed
	return vm
}

// ImportanceLabel formats a score as a percentage without trailing zeros,
// e.g. 95 -> "95%", 87.5 -> "87.5%".
func ImportanceLabel(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64) + "%"
}

// NewDifficultyTag returns the tag for a raw difficulty label.
func NewDifficultyTag(difficulty string) DifficultyTag {
	return difficultyTag(cases.Title(language.English), difficulty)
}

func difficultyTag(caser cases.Caser, difficulty string) DifficultyTag {
	trimmed := strings.TrimSpace(difficulty)
	level := LevelOther
	switch strings.ToLower(trimmed) {
	case LevelEasy:
		level = LevelEasy
	case LevelMedium:
		level = LevelMedium
	case LevelHard:
		level = LevelHard
	}
	return DifficultyTag{Label: caser.String(trimmed), Level: level}
}
