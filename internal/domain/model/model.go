// Package model contains domain models passed between layers.
package model

import "time"

// DefaultGameMode is used when a submission does not name a mode.
const DefaultGameMode = "Default"

// HighScore is one leaderboard row. Rows are immutable once written; the
// SortKey doubles as the row address inside the game-mode partition.
type HighScore struct {
	GameMode       string    `json:"game_mode"`
	PlayerInitials string    `json:"player_initials"`
	Score          int       `json:"score"`
	ScoreDate      time.Time `json:"score_date"`
	SortKey        string    `json:"sort_key"`
}

// PlayerStats is the cumulative per-player statistics record. One record
// per set of initials, mutated on every recorded session.
type PlayerStats struct {
	Initials             string    `json:"initials"`
	TotalGames           int       `json:"total_games"`
	TotalCirclesTapped   int       `json:"total_circles_tapped"`
	TotalPlaytimeSeconds int       `json:"total_playtime_seconds"`
	HighestScore         int       `json:"highest_score"`
	AverageScore         float64   `json:"average_score"`
	ScoreDistribution    string    `json:"score_distribution"`
	PercentileRank       float64   `json:"percentile_rank"`
	FirstPlayed          time.Time `json:"first_played"`
	LastPlayed           time.Time `json:"last_played"`
}

// Session is one finished game session as reported by the client.
type Session struct {
	Initials        string `json:"initials"`
	Score           int    `json:"score"`
	CirclesTapped   int    `json:"circles_tapped"`
	PlaytimeSeconds int    `json:"playtime_seconds"`
}
