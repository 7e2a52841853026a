package testutil

import (
	"time"

	domaingames "pickup-games/internal/domain/games"
)

// Reference instants shared by tests: a game created on BaseNow starts at GameStart.
var (
	BaseNow   = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	GameStart = time.Date(2024, 5, 3, 18, 0, 0, 0, time.UTC)
	GameEnd   = time.Date(2024, 5, 3, 20, 0, 0, 0, time.UTC)
)

// SampleCreateInput returns a valid payload for a two-hour game on GameStart's date.
func SampleCreateInput(maxPlayers int) domaingames.CreateInput {
	return domaingames.CreateInput{
		Title:       "Sunday run",
		Sport:       "basketball",
		Description: "full court",
		Location:    "West 4th",
		Date:        GameStart.Format("2006-01-02"),
		StartTime:   GameStart.Format("15:04"),
		EndTime:     GameEnd.Format("15:04"),
		MaxPlayers:  maxPlayers,
		SkillLevel:  "intermediate",
	}
}

// SampleProfile returns a display snapshot named after userID.
func SampleProfile(userID string) domaingames.Profile {
	return domaingames.Profile{Name: "Player " + userID, SkillLevel: "intermediate"}
}
