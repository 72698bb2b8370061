package model

import "time"

// HuntProgress is a participant's live state within one hunt. It is a
// session value, not a table: the request layer loads it from the
// progress store, hands it to the progression service, and saves it
// back. Nothing here survives session expiry.
type HuntProgress struct {
	HuntID             uint           `json:"huntId"`
	CurrentQuestion    int            `json:"currentQuestion"`
	Score              int            `json:"score"`
	CompletedQuestions []string       `json:"completedQuestions"`
	Attempts           map[string]int `json:"attempts"`
	Marks              map[string]int `json:"marks"`
	StartedAt          time.Time      `json:"startedAt"`
}

func NewHuntProgress(huntID uint, startOrder int) *HuntProgress {
	return &HuntProgress{
		HuntID:             huntID,
		CurrentQuestion:    startOrder,
		CompletedQuestions: []string{},
		Attempts:           map[string]int{},
		Marks:              map[string]int{},
		StartedAt:          time.Now(),
	}
}

// EnsureMaps backfills nil collections after a JSON round trip so
// callers can index without nil checks.
func (p *HuntProgress) EnsureMaps() {
	if p.CompletedQuestions == nil {
		p.CompletedQuestions = []string{}
	}
	if p.Attempts == nil {
		p.Attempts = map[string]int{}
	}
	if p.Marks == nil {
		p.Marks = map[string]int{}
	}
}

func (p *HuntProgress) IsCompleted(token string) bool {
	for _, t := range p.CompletedQuestions {
		if t == token {
			return true
		}
	}
	return false
}
