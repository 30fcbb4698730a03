package store

import (
	"sort"
	"strings"
	"sync"

	"knowme/internal/util"
	"knowme/pkg/domain"
)

// MemoryStore keeps all records in-process. It backs tests and local
// development and enforces the same unique constraints as the SQL store.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]domain.User
	email       map[string]string // lower(email) -> user ID
	cards       map[string]domain.ProfileCard
	cardByUser  map[string]string // user ID -> card ID
	groups      map[string]domain.Group
	memberships map[string]domain.Membership
	statuses    map[string]domain.CardStatus // triple key -> status
	invitations []domain.Invitation
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]domain.User),
		email:       make(map[string]string),
		cards:       make(map[string]domain.ProfileCard),
		cardByUser:  make(map[string]string),
		groups:      make(map[string]domain.Group),
		memberships: make(map[string]domain.Membership),
		statuses:    make(map[string]domain.CardStatus),
	}
}

func statusKey(viewerID, cardID, groupID string) string {
	return viewerID + "|" + cardID + "|" + groupID
}

func membershipKey(groupID, userID string) string {
	return groupID + "|" + userID
}

// SaveUser registers or replaces a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.users[u.ID]; ok {
		delete(m.email, strings.ToLower(old.Email))
	}
	m.users[u.ID] = u
	m.email[strings.ToLower(u.Email)] = u.ID
	return nil
}

// HasUserEmail checks if an email is already registered.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[strings.ToLower(email)]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[strings.ToLower(email)]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListUsers returns all users ordered by creation time.
func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

// UserCount returns the number of users.
func (m *MemoryStore) UserCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

// SaveProfileCard inserts or updates a card. A second card for the same user
// violates the one-card-per-user constraint.
func (m *MemoryStore) SaveProfileCard(c domain.ProfileCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existingID, ok := m.cardByUser[c.UserID]; ok && existingID != c.ID {
		return ErrDuplicateKey
	}
	m.cards[c.ID] = c
	m.cardByUser[c.UserID] = c.ID
	return nil
}

// GetProfileCard returns a card by ID.
func (m *MemoryStore) GetProfileCard(id string) (domain.ProfileCard, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cards[id]
	return c, ok, nil
}

// GetProfileCardByUserID returns the card owned by a user.
func (m *MemoryStore) GetProfileCardByUserID(userID string) (domain.ProfileCard, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.cardByUser[userID]
	if !ok {
		return domain.ProfileCard{}, false, nil
	}
	c, ok := m.cards[id]
	return c, ok, nil
}

// ListProfileCardsByUserIDs returns cards for the given owners, in the order
// the owner IDs are given. Owners without a card are skipped.
func (m *MemoryStore) ListProfileCardsByUserIDs(userIDs []string) ([]domain.ProfileCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ProfileCard, 0, len(userIDs))
	for _, uid := range userIDs {
		if id, ok := m.cardByUser[uid]; ok {
			if c, ok := m.cards[id]; ok {
				res = append(res, c)
			}
		}
	}
	return res, nil
}

// SaveGroup inserts or updates a group. Join codes are unique across all
// groups, compared case-insensitively.
func (m *MemoryStore) SaveGroup(g domain.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	code := strings.ToUpper(g.JoinCode)
	for _, other := range m.groups {
		if other.ID != g.ID && strings.ToUpper(other.JoinCode) == code {
			return ErrDuplicateKey
		}
	}
	m.groups[g.ID] = g
	return nil
}

// GetGroup returns a group by ID.
func (m *MemoryStore) GetGroup(id string) (domain.Group, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[id]
	return g, ok, nil
}

// GetGroupByJoinCode resolves a join code case-insensitively.
func (m *MemoryStore) GetGroupByJoinCode(code string) (domain.Group, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, g := range m.groups {
		if strings.ToUpper(g.JoinCode) == code {
			return g, true, nil
		}
	}
	return domain.Group{}, false, nil
}

// ListGroupsForUser returns groups the user belongs to.
func (m *MemoryStore) ListGroupsForUser(userID string) ([]domain.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Group
	for _, mem := range m.memberships {
		if mem.UserID != userID {
			continue
		}
		if g, ok := m.groups[mem.GroupID]; ok {
			res = append(res, g)
		}
	}
	sortGroups(res)
	return res, nil
}

// SearchPublicGroups returns public groups whose name contains the query.
func (m *MemoryStore) SearchPublicGroups(query string) ([]domain.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	query = strings.ToLower(query)
	var res []domain.Group
	for _, g := range m.groups {
		if g.IsPublic && strings.Contains(strings.ToLower(g.Name), query) {
			res = append(res, g)
		}
	}
	sortGroups(res)
	return res, nil
}

// AddMembership records a user joining a group. A duplicate (group, user)
// pair is reported as false, not an error.
func (m *MemoryStore) AddMembership(mem domain.Membership) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := membershipKey(mem.GroupID, mem.UserID)
	if _, ok := m.memberships[key]; ok {
		return false, nil
	}
	m.memberships[key] = mem
	return true, nil
}

// IsMember reports whether the user belongs to the group.
func (m *MemoryStore) IsMember(groupID, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.memberships[membershipKey(groupID, userID)]
	return ok, nil
}

// ListMemberships returns a group's memberships ordered by join time.
func (m *MemoryStore) ListMemberships(groupID string) ([]domain.Membership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Membership
	for _, mem := range m.memberships {
		if mem.GroupID == groupID {
			res = append(res, mem)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

// UpsertCardStatus writes a status for the (viewer, card, group) triple.
// At most one row exists per triple; the stored row's ID is preserved on
// update so repeated reviews never duplicate.
func (m *MemoryStore) UpsertCardStatus(s domain.CardStatus) (domain.CardStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := statusKey(s.ViewerUserID, s.ProfileCardID, s.GroupID)
	if existing, ok := m.statuses[key]; ok {
		s.ID = existing.ID
	} else if s.ID == "" {
		s.ID = util.NewID()
	}
	m.statuses[key] = s
	return s, nil
}

// GetCardStatus returns the status for a triple, if any.
func (m *MemoryStore) GetCardStatus(viewerID, cardID, groupID string) (domain.CardStatus, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.statuses[statusKey(viewerID, cardID, groupID)]
	return s, ok, nil
}

// ListCardStatuses returns all statuses for a viewer within a group.
func (m *MemoryStore) ListCardStatuses(viewerID, groupID string) ([]domain.CardStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.CardStatus
	for _, s := range m.statuses {
		if s.ViewerUserID == viewerID && s.GroupID == groupID {
			res = append(res, s)
		}
	}
	return res, nil
}

// CountKnownForViewer counts known statuses for a viewer across all groups.
func (m *MemoryStore) CountKnownForViewer(viewerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, s := range m.statuses {
		if s.ViewerUserID == viewerID && s.IsKnown {
			count++
		}
	}
	return count, nil
}

// DeleteCardStatuses removes every status for a (viewer, group) pair.
// Deleting an already-empty pair is a no-op.
func (m *MemoryStore) DeleteCardStatuses(viewerID, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.statuses {
		if s.ViewerUserID == viewerID && s.GroupID == groupID {
			delete(m.statuses, key)
		}
	}
	return nil
}

// AddInvitations appends invitation records.
func (m *MemoryStore) AddInvitations(invs []domain.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invitations = append(m.invitations, invs...)
	return nil
}

// ListInvitations returns invitations for a group in append order.
func (m *MemoryStore) ListInvitations(groupID string) ([]domain.Invitation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Invitation
	for _, inv := range m.invitations {
		if inv.GroupID == groupID {
			res = append(res, inv)
		}
	}
	return res, nil
}

func sortGroups(groups []domain.Group) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].CreatedAt.Equal(groups[j].CreatedAt) {
			return groups[i].ID < groups[j].ID
		}
		return groups[i].CreatedAt.Before(groups[j].CreatedAt)
	})
}
