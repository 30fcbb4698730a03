package store

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"

	"knowme/pkg/domain"
)

// GORM models used for persistence. Unique indexes mirror the domain
// invariants: one card per user, one membership per (group, user), one
// status per (viewer, card, group), globally unique join codes.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	Tier         string `gorm:"not null"`
	AvatarURL    string
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null;index"`
	UpdatedAt    time.Time `gorm:"not null"`
}

type ProfileCardModel struct {
	ID                    string `gorm:"primaryKey"`
	UserID                string `gorm:"uniqueIndex;not null"`
	FullName              string `gorm:"not null"`
	PhotoURL              string
	PhoneticText          string
	PronunciationAudioURL string
	ShortBio              string
	Nationality           string
	FunFact               string
	Links                 datatypes.JSON
	CreatedAt             time.Time `gorm:"not null"`
	UpdatedAt             time.Time `gorm:"not null"`
}

type GroupModel struct {
	ID              string `gorm:"primaryKey"`
	Name            string `gorm:"not null;index"`
	Description     string `gorm:"not null"`
	CreatedByUserID string `gorm:"not null;index"`
	IsPublic        bool   `gorm:"not null;index"`
	JoinCode        string `gorm:"not null"`
	// JoinCodeKey is the uppercased join code carrying the case-insensitive
	// uniqueness constraint.
	JoinCodeKey string    `gorm:"uniqueIndex;not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type MembershipModel struct {
	ID        string    `gorm:"primaryKey"`
	GroupID   string    `gorm:"not null;index;uniqueIndex:idx_memberships_group_user"`
	UserID    string    `gorm:"not null;index;uniqueIndex:idx_memberships_group_user"`
	CreatedAt time.Time `gorm:"not null"`
}

type CardStatusModel struct {
	ID             string    `gorm:"primaryKey"`
	ViewerUserID   string    `gorm:"not null;index;uniqueIndex:idx_statuses_viewer_card_group"`
	ProfileCardID  string    `gorm:"not null;index;uniqueIndex:idx_statuses_viewer_card_group"`
	GroupID        string    `gorm:"not null;index;uniqueIndex:idx_statuses_viewer_card_group"`
	IsKnown        bool      `gorm:"not null"`
	LastReviewedAt time.Time `gorm:"not null"`
}

type InvitationModel struct {
	ID        string    `gorm:"primaryKey"`
	GroupID   string    `gorm:"not null;index"`
	Email     string    `gorm:"not null"`
	InvitedAt time.Time `gorm:"not null"`
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        strings.ToLower(u.Email),
		Tier:         string(u.Tier),
		AvatarURL:    u.AvatarURL,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		Tier:         domain.AccountTier(m.Tier),
		AvatarURL:    m.AvatarURL,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func cardToModel(c domain.ProfileCard) ProfileCardModel {
	links, _ := json.Marshal(c.Links)
	return ProfileCardModel{
		ID:                    c.ID,
		UserID:                c.UserID,
		FullName:              c.FullName,
		PhotoURL:              c.PhotoURL,
		PhoneticText:          c.PhoneticText,
		PronunciationAudioURL: c.PronunciationAudioURL,
		ShortBio:              c.ShortBio,
		Nationality:           c.Nationality,
		FunFact:               c.FunFact,
		Links:                 datatypes.JSON(links),
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}

func cardFromModel(m ProfileCardModel) domain.ProfileCard {
	var links []string
	if len(m.Links) > 0 {
		_ = json.Unmarshal(m.Links, &links)
	}
	return domain.ProfileCard{
		ID:                    m.ID,
		UserID:                m.UserID,
		FullName:              m.FullName,
		PhotoURL:              m.PhotoURL,
		PhoneticText:          m.PhoneticText,
		PronunciationAudioURL: m.PronunciationAudioURL,
		ShortBio:              m.ShortBio,
		Nationality:           m.Nationality,
		FunFact:               m.FunFact,
		Links:                 links,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

func groupToModel(g domain.Group) GroupModel {
	return GroupModel{
		ID:              g.ID,
		Name:            g.Name,
		Description:     g.Description,
		CreatedByUserID: g.CreatedByUserID,
		IsPublic:        g.IsPublic,
		JoinCode:        g.JoinCode,
		JoinCodeKey:     strings.ToUpper(g.JoinCode),
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
}

func groupFromModel(m GroupModel) domain.Group {
	return domain.Group{
		ID:              m.ID,
		Name:            m.Name,
		Description:     m.Description,
		CreatedByUserID: m.CreatedByUserID,
		IsPublic:        m.IsPublic,
		JoinCode:        m.JoinCode,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func membershipToModel(mem domain.Membership) MembershipModel {
	return MembershipModel(mem)
}

func membershipFromModel(m MembershipModel) domain.Membership {
	return domain.Membership(m)
}

func statusToModel(s domain.CardStatus) CardStatusModel {
	return CardStatusModel(s)
}

func statusFromModel(m CardStatusModel) domain.CardStatus {
	return domain.CardStatus(m)
}

func invitationToModel(inv domain.Invitation) InvitationModel {
	return InvitationModel(inv)
}

func invitationFromModel(m InvitationModel) domain.Invitation {
	return domain.Invitation(m)
}
