// Package simulate drives a running tapcircle instance with generated
// game traffic: sessions posted to the statistics endpoint, scores posted
// to the leaderboard, then reads back the board and player records to
// verify the service end to end.
package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumPlayers int           // Number of distinct players to simulate
	Sessions   int           // Number of game sessions to generate
	GameMode   string        // Game mode to submit scores under
	TopN       int           // Number of top entries to fetch afterwards
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for generated sessions
	Verbose    bool          // Enable verbose logging
}

// Session is one generated game outcome, shaped like the POST
// /stats/record body.
type Session struct {
	SessionID       string `json:"session_id"`
	Initials        string `json:"initials"`
	Score           int    `json:"score"`
	CirclesTapped   int    `json:"circles_tapped"`
	PlaytimeSeconds int    `json:"playtime_seconds"`
}

// scoreSubmission mirrors the POST /scores body.
type scoreSubmission struct {
	PlayerInitials string `json:"player_initials"`
	Score          int    `json:"score"`
	GameMode       string `json:"game_mode"`
}

// boardEntry mirrors one GET /scores response element.
type boardEntry struct {
	Rank           int    `json:"rank"`
	PlayerInitials string `json:"player_initials"`
	Score          int    `json:"score"`
}

// recordResponse mirrors the POST /stats/record response.
type recordResponse struct {
	Duplicate bool `json:"duplicate"`
}

// playerRecord mirrors one GET /stats response element.
type playerRecord struct {
	Initials   string `json:"initials"`
	TotalGames int    `json:"total_games"`
}

// Stats holds counters for one simulation run.
type Stats struct {
	SessionsGenerated  int
	SessionsSubmitted  int
	SessionsSuccessful int
	SessionsDuplicate  int
	SessionsFailed     int
	ScoresSubmitted    int
	ScoresFailed       int
	LeaderboardEntries int
	PlayersSeen        int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
