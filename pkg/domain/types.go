package domain

import "time"

type AccountTier string

const (
	TierStandard AccountTier = "STANDARD"
	TierPremium  AccountTier = "PREMIUM"
)

type User struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Tier         AccountTier `json:"tier"`
	AvatarURL    string      `json:"avatarUrl,omitempty"`
	PasswordHash string      `json:"-"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// ProfileCard is the swipeable card describing one user. Exactly one
// card exists per user; only the owner may change it.
type ProfileCard struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"userId"`
	FullName              string    `json:"fullName"`
	PhotoURL              string    `json:"photoUrl,omitempty"`
	PhoneticText          string    `json:"phoneticText,omitempty"`
	PronunciationAudioURL string    `json:"pronunciationAudioUrl,omitempty"`
	ShortBio              string    `json:"shortBio,omitempty"`
	Nationality           string    `json:"nationality,omitempty"`
	FunFact               string    `json:"funFact,omitempty"`
	Links                 []string  `json:"links,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

type Group struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	CreatedByUserID string    `json:"createdByUserId"`
	IsPublic        bool      `json:"isPublic"`
	JoinCode        string    `json:"joinCode"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Membership links a user to a group. The (GroupID, UserID) pair is unique.
type Membership struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CardStatus records whether a viewer has learned one card within one group.
// The (ViewerUserID, ProfileCardID, GroupID) triple is unique; reviews update
// the existing row.
type CardStatus struct {
	ID             string    `json:"id"`
	ViewerUserID   string    `json:"viewerUserId"`
	ProfileCardID  string    `json:"profileCardId"`
	GroupID        string    `json:"groupId"`
	IsKnown        bool      `json:"isKnown"`
	LastReviewedAt time.Time `json:"lastReviewedAt"`
}

// Invitation is an append-only record of an emailed group invite.
type Invitation struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	Email     string    `json:"email"`
	InvitedAt time.Time `json:"invitedAt"`
}
