// Package types contains common types used across the application
package types

import "time"

// Entry represents a ranked leaderboard entry
type Entry struct {
	Rank           int       `json:"rank"`
	PlayerInitials string    `json:"player_initials"`
	Score          int       `json:"score"`
	GameMode       string    `json:"game_mode"`
	ScoreDate      time.Time `json:"score_date"`
	SortKey        string    `json:"sort_key"`
}
