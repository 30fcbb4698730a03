package store

import "knowme/pkg/domain"

// Store defines persistence operations for users, profile cards, groups,
// memberships, card statuses, and invitations. Lookups report absence via
// their bool return; unique-constraint violations surface as ErrDuplicateKey.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)
	UserCount() (int, error)

	// profile cards (one per user)
	SaveProfileCard(domain.ProfileCard) error
	GetProfileCard(id string) (domain.ProfileCard, bool, error)
	GetProfileCardByUserID(userID string) (domain.ProfileCard, bool, error)
	ListProfileCardsByUserIDs(userIDs []string) ([]domain.ProfileCard, error)

	// groups
	SaveGroup(domain.Group) error
	GetGroup(id string) (domain.Group, bool, error)
	GetGroupByJoinCode(code string) (domain.Group, bool, error)
	ListGroupsForUser(userID string) ([]domain.Group, error)
	SearchPublicGroups(query string) ([]domain.Group, error)

	// memberships
	AddMembership(domain.Membership) (bool, error)
	IsMember(groupID, userID string) (bool, error)
	ListMemberships(groupID string) ([]domain.Membership, error)

	// card statuses
	UpsertCardStatus(domain.CardStatus) (domain.CardStatus, error)
	GetCardStatus(viewerID, cardID, groupID string) (domain.CardStatus, bool, error)
	ListCardStatuses(viewerID, groupID string) ([]domain.CardStatus, error)
	CountKnownForViewer(viewerID string) (int, error)
	DeleteCardStatuses(viewerID, groupID string) error

	// invitations
	AddInvitations([]domain.Invitation) error
	ListInvitations(groupID string) ([]domain.Invitation, error)
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
