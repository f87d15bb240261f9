package models

import "time"

// MaxPromptLength bounds DailyPrompt.Text, counted in characters.
const MaxPromptLength = 200

// DailyPrompt is the question of the day. ID always equals Date.
type DailyPrompt struct {
	ID        string    `json:"id"`
	Text      string    `json:"prompt"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}
