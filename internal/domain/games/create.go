package games

import (
	"strings"
	"time"

	"pickup-games/internal/apperrors"
	"pickup-games/internal/timeutil"
)

const (
	MinPlayers  = 2
	MinDuration = time.Hour
	MaxDuration = 6 * time.Hour
)

// CreateInput is the payload accepted when a host schedules a game.
type CreateInput struct {
	Title       string `json:"title"`
	Sport       string `json:"sport"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	MaxPlayers  int    `json:"maxPlayers"`
	SkillLevel  string `json:"skillLevel"`
}

// New validates the input and returns an upcoming game hosted by hostID.
// The date and clock fields are interpreted in loc.
func New(id, hostID string, in CreateInput, now time.Time, loc *time.Location) (Game, error) {
	if loc == nil {
		loc = time.UTC
	}
	in = normalizeInput(in)

	if strings.TrimSpace(hostID) == "" {
		return Game{}, apperrors.Validation("hostId", "host is required")
	}
	for _, req := range []struct{ field, value string }{
		{"title", in.Title},
		{"sport", in.Sport},
		{"location", in.Location},
		{"date", in.Date},
		{"startTime", in.StartTime},
		{"endTime", in.EndTime},
	} {
		if req.value == "" {
			return Game{}, apperrors.Validation(req.field, req.field+" is required")
		}
	}
	if in.MaxPlayers < MinPlayers {
		return Game{}, apperrors.Validation("maxPlayers", "maxPlayers must be at least 2")
	}

	day, err := timeutil.ParseDateIn(in.Date, loc)
	if err != nil {
		return Game{}, apperrors.Validation("date", "date must be YYYY-MM-DD")
	}
	tomorrow := timeutil.StartOfDay(now.In(loc)).AddDate(0, 0, 1)
	if day.Before(tomorrow) {
		return Game{}, apperrors.Validation("date", "date must be at least one day ahead")
	}

	startsAt, err := timeutil.Combine(in.Date, in.StartTime, loc)
	if err != nil {
		return Game{}, apperrors.Validation("startTime", "startTime must be HH:MM")
	}
	endsAt, err := timeutil.Combine(in.Date, in.EndTime, loc)
	if err != nil {
		return Game{}, apperrors.Validation("endTime", "endTime must be HH:MM")
	}
	if !startsAt.Before(endsAt) {
		return Game{}, apperrors.Validation("endTime", "endTime must be after startTime")
	}
	if d := endsAt.Sub(startsAt); d < MinDuration || d > MaxDuration {
		return Game{}, apperrors.Validation("endTime", "duration must be between 1 and 6 hours")
	}

	g := Game{
		ID:                id,
		HostID:            hostID,
		Title:             in.Title,
		Sport:             in.Sport,
		Description:       in.Description,
		Location:          in.Location,
		SkillLevel:        in.SkillLevel,
		Date:              in.Date,
		StartTime:         in.StartTime,
		EndTime:           in.EndTime,
		StartsAt:          startsAt.UTC(),
		EndsAt:            endsAt.UTC(),
		Status:            StatusUpcoming,
		MaxPlayers:        in.MaxPlayers,
		CreatedAt:         now.UTC(),
		RegisteredPlayers: []Participant{},
		JoinRequests:      []Request{},
		Attendance:        []AttendanceRecord{},
	}
	g.recomputeSeats()
	return g, nil
}

func normalizeInput(in CreateInput) CreateInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Sport = strings.TrimSpace(in.Sport)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Date = strings.TrimSpace(in.Date)
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndTime = strings.TrimSpace(in.EndTime)
	in.SkillLevel = strings.TrimSpace(in.SkillLevel)
	return in
}
