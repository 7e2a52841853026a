package users

import "time"

// RatingReceived is one peer rating scoped to a single game.
type RatingReceived struct {
	FromUserID string    `json:"fromUserId" bson:"fromUserId"`
	Rating     int       `json:"rating" bson:"rating"`
	Comment    string    `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// Activity is a user's history entry for one game.
type Activity struct {
	GameID          string           `json:"gameId" bson:"gameId"`
	RatingsReceived []RatingReceived `json:"ratingsReceived" bson:"ratingsReceived"`
	// PlayersRated lists the users this user has rated for GameID.
	PlayersRated []string `json:"playersRated" bson:"playersRated"`
}

// User owns its profile, rating summary, and activity history.
type User struct {
	ID         string `json:"id" bson:"_id"`
	Name       string `json:"name" bson:"name"`
	Image      string `json:"image,omitempty" bson:"image,omitempty"`
	SkillLevel string `json:"skillLevel,omitempty" bson:"skillLevel,omitempty"`
	Age        int    `json:"age,omitempty" bson:"age,omitempty"`
	WhatsApp   string `json:"whatsApp,omitempty" bson:"whatsApp,omitempty"`

	AverageRating   float64    `json:"averageRating" bson:"averageRating"`
	TotalRatings    int        `json:"totalRatings" bson:"totalRatings"`
	ActivityHistory []Activity `json:"activityHistory" bson:"activityHistory"`

	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
	Version   int64     `json:"version" bson:"version"`
}

// PublicUser is what other users may see. Contact details, age and rating
// comments stay with the owner.
type PublicUser struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Image         string  `json:"image,omitempty"`
	SkillLevel    string  `json:"skillLevel,omitempty"`
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
	GamesPlayed   int     `json:"gamesPlayed"`
}

// Public projects u for viewers other than u.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Name:          u.Name,
		Image:         u.Image,
		SkillLevel:    u.SkillLevel,
		AverageRating: u.AverageRating,
		TotalRatings:  u.TotalRatings,
		GamesPlayed:   len(u.ActivityHistory),
	}
}

// ProfileUpdate carries the editable display fields.
type ProfileUpdate struct {
	Name       string `json:"name"`
	Image      string `json:"image"`
	SkillLevel string `json:"skillLevel"`
	Age        int    `json:"age"`
	WhatsApp   string `json:"whatsApp"`
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	cp := u
	cp.ActivityHistory = make([]Activity, len(u.ActivityHistory))
	for i, a := range u.ActivityHistory {
		cp.ActivityHistory[i] = Activity{
			GameID:          a.GameID,
			RatingsReceived: append([]RatingReceived(nil), a.RatingsReceived...),
			PlayersRated:    append([]string(nil), a.PlayersRated...),
		}
	}
	return cp
}

// ApplyProfile overwrites the display fields.
func (u *User) ApplyProfile(p ProfileUpdate, now time.Time) {
	u.Name = p.Name
	u.Image = p.Image
	u.SkillLevel = p.SkillLevel
	u.Age = p.Age
	u.WhatsApp = p.WhatsApp
	u.UpdatedAt = now.UTC()
}

// Activity returns the history entry for gameID.
func (u User) Activity(gameID string) (Activity, bool) {
	if idx := u.activityIndex(gameID); idx >= 0 {
		return u.ActivityHistory[idx], true
	}
	return Activity{}, false
}

// RecordParticipation adds an empty history entry for gameID. It reports
// false when the entry already exists.
func (u *User) RecordParticipation(gameID string) bool {
	if u.activityIndex(gameID) >= 0 {
		return false
	}
	u.ensureActivity(gameID)
	return true
}

func (u User) activityIndex(gameID string) int {
	for i, a := range u.ActivityHistory {
		if a.GameID == gameID {
			return i
		}
	}
	return -1
}

// ensureActivity returns the index of gameID's entry, creating it when absent.
func (u *User) ensureActivity(gameID string) int {
	if idx := u.activityIndex(gameID); idx >= 0 {
		return idx
	}
	u.ActivityHistory = append(u.ActivityHistory, Activity{
		GameID:          gameID,
		RatingsReceived: []RatingReceived{},
		PlayersRated:    []string{},
	})
	return len(u.ActivityHistory) - 1
}
