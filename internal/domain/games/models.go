package games

import "time"

// Status is the stored lifecycle state of a game.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Profile is the display snapshot copied from a user when they join a game.
// It is captured once and never refreshed from the live user record.
type Profile struct {
	Name       string `json:"name" bson:"name"`
	Image      string `json:"image,omitempty" bson:"image,omitempty"`
	SkillLevel string `json:"skillLevel,omitempty" bson:"skillLevel,omitempty"`
	Age        int    `json:"age,omitempty" bson:"age,omitempty"`
	WhatsApp   string `json:"whatsApp,omitempty" bson:"whatsApp,omitempty"`
}

// Participant is an accepted player. The host is never a Participant.
type Participant struct {
	UserID   string    `json:"userId" bson:"userId"`
	Profile  Profile   `json:"profile" bson:"profile"`
	JoinedAt time.Time `json:"joinedAt" bson:"joinedAt"`
}

// Request is a pending join request.
type Request struct {
	ID          string    `json:"id" bson:"id"`
	UserID      string    `json:"userId" bson:"userId"`
	Profile     Profile   `json:"profile" bson:"profile"`
	RequestedAt time.Time `json:"requestedAt" bson:"requestedAt"`
}

// AttendanceRecord captures whether a member physically showed up.
type AttendanceRecord struct {
	UserID   string    `json:"userId" bson:"userId"`
	Attended bool      `json:"attended" bson:"attended"`
	MarkedAt time.Time `json:"markedAt" bson:"markedAt"`
}

// Game is the aggregate root for one scheduled pickup session.
type Game struct {
	ID          string `json:"id" bson:"_id"`
	HostID      string `json:"hostId" bson:"hostId"`
	Title       string `json:"title" bson:"title"`
	Sport       string `json:"sport" bson:"sport"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Location    string `json:"location" bson:"location"`
	SkillLevel  string `json:"skillLevel,omitempty" bson:"skillLevel,omitempty"`

	Date      string    `json:"date" bson:"date"`
	StartTime string    `json:"startTime" bson:"startTime"`
	EndTime   string    `json:"endTime" bson:"endTime"`
	StartsAt  time.Time `json:"startsAt" bson:"startsAt"`
	EndsAt    time.Time `json:"endsAt" bson:"endsAt"`

	Status      Status     `json:"status" bson:"status"`
	MaxPlayers  int        `json:"maxPlayers" bson:"maxPlayers"`
	SeatsLeft   int        `json:"seatsLeft" bson:"seatsLeft"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`

	RegisteredPlayers []Participant      `json:"registeredPlayers" bson:"registeredPlayers"`
	JoinRequests      []Request          `json:"joinRequests" bson:"joinRequests"`
	Attendance        []AttendanceRecord `json:"attendance" bson:"attendance"`

	// Version is bumped by the store on every successful write.
	Version int64 `json:"version" bson:"version"`
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (g Game) Clone() Game {
	cp := g
	cp.RegisteredPlayers = append([]Participant(nil), g.RegisteredPlayers...)
	cp.JoinRequests = append([]Request(nil), g.JoinRequests...)
	cp.Attendance = append([]AttendanceRecord(nil), g.Attendance...)
	if g.CompletedAt != nil {
		at := *g.CompletedAt
		cp.CompletedAt = &at
	}
	if g.CancelledAt != nil {
		at := *g.CancelledAt
		cp.CancelledAt = &at
	}
	return cp
}

// IsHost reports whether userID currently holds the host role.
func (g Game) IsHost(userID string) bool {
	return userID != "" && g.HostID == userID
}

// IsMember reports whether userID is the host or a registered player.
func (g Game) IsMember(userID string) bool {
	return g.IsHost(userID) || g.participantIndex(userID) >= 0
}

// Participant returns the registered player with userID.
func (g Game) Participant(userID string) (Participant, bool) {
	if idx := g.participantIndex(userID); idx >= 0 {
		return g.RegisteredPlayers[idx], true
	}
	return Participant{}, false
}

// MemberIDs returns the host followed by every registered player.
func (g Game) MemberIDs() []string {
	ids := make([]string, 0, len(g.RegisteredPlayers)+1)
	ids = append(ids, g.HostID)
	for _, p := range g.RegisteredPlayers {
		ids = append(ids, p.UserID)
	}
	return ids
}

// Attended reports whether userID has a positive attendance record.
func (g Game) Attended(userID string) bool {
	if idx := g.attendanceIndex(userID); idx >= 0 {
		return g.Attendance[idx].Attended
	}
	return false
}

func (g Game) participantIndex(userID string) int {
	for i, p := range g.RegisteredPlayers {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

func (g Game) requestIndexByID(requestID string) int {
	for i, r := range g.JoinRequests {
		if r.ID == requestID {
			return i
		}
	}
	return -1
}

func (g Game) requestIndexByUser(userID string) int {
	for i, r := range g.JoinRequests {
		if r.UserID == userID {
			return i
		}
	}
	return -1
}

func (g Game) attendanceIndex(userID string) int {
	for i, a := range g.Attendance {
		if a.UserID == userID {
			return i
		}
	}
	return -1
}
