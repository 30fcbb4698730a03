package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"knowme/internal/deck"
	"knowme/internal/ranking"
	"knowme/internal/store"
	"knowme/internal/util"
	"knowme/pkg/ai"
	"knowme/pkg/auth"
	"knowme/pkg/domain"
	"knowme/pkg/storage"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	SessionTTL    time.Duration
	ShareBaseURL  string

	// Store and Sessions override the config-driven selection (tests).
	Store    store.Store
	Sessions store.SessionStore
	Enhancer ai.BioEnhancer
	Media    storage.ObjectStore
}

// App is the application service wiring the engines, the store, and the
// external collaborators together.
type App struct {
	store        store.Store
	sessions     store.SessionStore
	deck         *deck.Engine
	ranking      *ranking.Engine
	enhancer     ai.BioEnhancer
	media        storage.ObjectStore
	shareBaseURL string
}

// New constructs the application. With no explicit store, a database URL
// selects Postgres and an empty one falls back to the in-memory store.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL != "" {
			gs, err := store.NewGormStore(cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("init postgres store: %w", err)
			}
			dataStore = gs
		} else {
			dataStore = store.NewMemoryStore()
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		switch {
		case cfg.JWTSecret != "":
			sessionStore = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL)
		case cfg.RedisAddr != "":
			sessionStore = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		default:
			return nil, fmt.Errorf("session store required (jwtSecret or redisAddr)")
		}
	}

	deckEngine := deck.NewEngine(dataStore)
	return &App{
		store:        dataStore,
		sessions:     sessionStore,
		deck:         deckEngine,
		ranking:      ranking.NewEngine(dataStore, deckEngine),
		enhancer:     cfg.Enhancer,
		media:        cfg.Media,
		shareBaseURL: strings.TrimRight(cfg.ShareBaseURL, "/"),
	}, nil
}

// Deck exposes the deck engine for session-level consumers.
func (a *App) Deck() *deck.Engine {
	return a.deck
}

// SignUp registers a user, creates their empty profile card, and issues a
// session token.
func (a *App) SignUp(name, email string, tier domain.AccountTier, password string) (domain.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" {
		return domain.User{}, "", errors.New("name and email required")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, "", err
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, "", ErrEmailTaken
	}
	if tier != domain.TierPremium {
		tier = domain.TierStandard
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Name:         name,
		Email:        email,
		Tier:         tier,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	card := domain.ProfileCard{
		ID:        util.NewID(),
		UserID:    user.ID,
		FullName:  name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.SaveProfileCard(card); err != nil {
		return domain.User{}, "", fmt.Errorf("save profile card: %w", err)
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// Login validates credentials and issues a session token.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// Logout removes a session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// ChangePassword verifies the current password and stores a new hash.
func (a *App) ChangePassword(userID, currentPassword, newPassword string) error {
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !auth.CheckPassword(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// GetProfile returns a user's profile card, if one exists.
func (a *App) GetProfile(userID string) (domain.ProfileCard, bool, error) {
	return a.store.GetProfileCardByUserID(userID)
}

// UpdateProfile saves the owner's card. Only the owner may mutate it, and
// the card's identity and ownership never change.
func (a *App) UpdateProfile(ownerID string, card domain.ProfileCard) (domain.ProfileCard, error) {
	existing, ok, err := a.store.GetProfileCardByUserID(ownerID)
	if err != nil {
		return domain.ProfileCard{}, fmt.Errorf("fetch profile card: %w", err)
	}
	if !ok {
		existing = domain.ProfileCard{
			ID:        util.NewID(),
			UserID:    ownerID,
			CreatedAt: time.Now().UTC(),
		}
	}
	card.ID = existing.ID
	card.UserID = ownerID
	card.CreatedAt = existing.CreatedAt
	card.UpdatedAt = time.Now().UTC()
	if strings.TrimSpace(card.FullName) == "" {
		return domain.ProfileCard{}, errors.New("full name required")
	}
	if err := a.store.SaveProfileCard(card); err != nil {
		return domain.ProfileCard{}, fmt.Errorf("save profile card: %w", err)
	}
	return card, nil
}

// EnhanceBio asks the AI collaborator for a better bio and falls back to
// the current text when the service is unavailable or fails.
func (a *App) EnhanceBio(ctx context.Context, userID string) (string, error) {
	card, ok, err := a.store.GetProfileCardByUserID(userID)
	if err != nil {
		return "", fmt.Errorf("fetch profile card: %w", err)
	}
	if !ok {
		return "", ErrForbidden
	}
	if a.enhancer == nil {
		return card.ShortBio, nil
	}
	improved, err := a.enhancer.EnhanceBio(ctx, card.FullName, card.ShortBio, card.FunFact)
	if err != nil {
		slog.Warn("bio enhancement failed, keeping original", "user_id", userID, "err", err)
		return card.ShortBio, nil
	}
	return improved, nil
}

// CreateGroup creates a group and auto-joins the creator. Group creation is
// a premium capability; the engines below this layer never check tier.
func (a *App) CreateGroup(creator domain.User, name, description, joinCode string, isPublic bool) (domain.Group, error) {
	if creator.Tier != domain.TierPremium {
		return domain.Group{}, ErrPremiumRequired
	}
	name = strings.TrimSpace(name)
	joinCode = strings.TrimSpace(joinCode)
	if name == "" || joinCode == "" {
		return domain.Group{}, errors.New("name and join code required")
	}
	now := time.Now().UTC()
	group := domain.Group{
		ID:              util.NewID(),
		Name:            name,
		Description:     strings.TrimSpace(description),
		CreatedByUserID: creator.ID,
		IsPublic:        isPublic,
		JoinCode:        joinCode,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := a.store.SaveGroup(group); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return domain.Group{}, ErrJoinCodeTaken
		}
		return domain.Group{}, fmt.Errorf("save group: %w", err)
	}
	if _, err := a.store.AddMembership(domain.Membership{
		ID:        util.NewID(),
		GroupID:   group.ID,
		UserID:    creator.ID,
		CreatedAt: now,
	}); err != nil {
		return domain.Group{}, fmt.Errorf("join own group: %w", err)
	}
	return group, nil
}

// UpdateGroup lets the creator change name, description, visibility, or
// join code. Updating a missing group is an error, unlike plain lookups.
func (a *App) UpdateGroup(actorID, groupID string, name, description, joinCode *string, isPublic *bool) (domain.Group, error) {
	group, ok, err := a.store.GetGroup(groupID)
	if err != nil {
		return domain.Group{}, fmt.Errorf("fetch group: %w", err)
	}
	if !ok {
		return domain.Group{}, ErrGroupNotFound
	}
	if group.CreatedByUserID != actorID {
		return domain.Group{}, ErrForbidden
	}
	if name != nil && strings.TrimSpace(*name) != "" {
		group.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		group.Description = strings.TrimSpace(*description)
	}
	if joinCode != nil && strings.TrimSpace(*joinCode) != "" {
		group.JoinCode = strings.TrimSpace(*joinCode)
	}
	if isPublic != nil {
		group.IsPublic = *isPublic
	}
	group.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveGroup(group); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return domain.Group{}, ErrJoinCodeTaken
		}
		return domain.Group{}, fmt.Errorf("save group: %w", err)
	}
	return group, nil
}

// GroupsForUser lists the groups the user belongs to.
func (a *App) GroupsForUser(userID string) ([]domain.Group, error) {
	return a.store.ListGroupsForUser(userID)
}

// GroupByID returns a group, requiring the caller to be a member.
func (a *App) GroupByID(actorID, groupID string) (domain.Group, error) {
	group, ok, err := a.store.GetGroup(groupID)
	if err != nil {
		return domain.Group{}, fmt.Errorf("fetch group: %w", err)
	}
	if !ok {
		return domain.Group{}, ErrGroupNotFound
	}
	member, err := a.store.IsMember(groupID, actorID)
	if err != nil {
		return domain.Group{}, fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return domain.Group{}, ErrNotMember
	}
	return group, nil
}

// GroupMembers returns the users belonging to a group, in join order.
func (a *App) GroupMembers(actorID, groupID string) ([]domain.User, error) {
	if _, err := a.GroupByID(actorID, groupID); err != nil {
		return nil, err
	}
	memberships, err := a.store.ListMemberships(groupID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	members := make([]domain.User, 0, len(memberships))
	for _, m := range memberships {
		if u, ok, err := a.store.GetUserByID(m.UserID); err != nil {
			return nil, fmt.Errorf("fetch member: %w", err)
		} else if ok {
			members = append(members, u)
		}
	}
	return members, nil
}

// SearchPublicGroups finds public groups by name. Search is a premium
// capability.
func (a *App) SearchPublicGroups(actor domain.User, query string) ([]domain.Group, error) {
	if actor.Tier != domain.TierPremium {
		return nil, ErrPremiumRequired
	}
	return a.store.SearchPublicGroups(strings.TrimSpace(query))
}

// JoinGroupByCode resolves a join code (case-insensitively) and adds the
// user. Joining a group twice returns false with no new membership row.
func (a *App) JoinGroupByCode(userID, code string) (domain.Group, bool, error) {
	code = ResolveJoinCode(code)
	group, ok, err := a.store.GetGroupByJoinCode(code)
	if err != nil {
		return domain.Group{}, false, fmt.Errorf("find group by code: %w", err)
	}
	if !ok {
		return domain.Group{}, false, ErrGroupNotFound
	}
	joined, err := a.store.AddMembership(domain.Membership{
		ID:        util.NewID(),
		GroupID:   group.ID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Group{}, false, fmt.Errorf("add membership: %w", err)
	}
	return group, joined, nil
}

// ShareLink returns the deep link that funnels back into JoinGroupByCode.
func (a *App) ShareLink(group domain.Group) string {
	if a.shareBaseURL == "" {
		return "?code=" + url.QueryEscape(group.JoinCode)
	}
	return a.shareBaseURL + "/?code=" + url.QueryEscape(group.JoinCode)
}

// InviteMembers appends an invitation per valid email address. Invites are
// a premium capability. Returns the number of invitations recorded.
func (a *App) InviteMembers(actor domain.User, groupID string, emails []string) (int, error) {
	if actor.Tier != domain.TierPremium {
		return 0, ErrPremiumRequired
	}
	if _, err := a.GroupByID(actor.ID, groupID); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	invs := make([]domain.Invitation, 0, len(emails))
	for _, raw := range emails {
		email := strings.TrimSpace(raw)
		if !strings.Contains(email, "@") {
			continue
		}
		invs = append(invs, domain.Invitation{
			ID:        util.NewID(),
			GroupID:   groupID,
			Email:     email,
			InvitedAt: now,
		})
	}
	if len(invs) == 0 {
		return 0, nil
	}
	if err := a.store.AddInvitations(invs); err != nil {
		return 0, fmt.Errorf("save invitations: %w", err)
	}
	return len(invs), nil
}

// ListInvitations returns a group's invitation log for its creator.
func (a *App) ListInvitations(actorID, groupID string) ([]domain.Invitation, error) {
	group, ok, err := a.store.GetGroup(groupID)
	if err != nil {
		return nil, fmt.Errorf("fetch group: %w", err)
	}
	if !ok {
		return nil, ErrGroupNotFound
	}
	if group.CreatedByUserID != actorID {
		return nil, ErrForbidden
	}
	return a.store.ListInvitations(groupID)
}

// DeckForGroup builds the viewer's deck, optionally filtered.
func (a *App) DeckForGroup(viewerID, groupID string, mode deck.FilterMode) ([]deck.Entry, error) {
	if _, err := a.GroupByID(viewerID, groupID); err != nil {
		return nil, err
	}
	entries, err := a.deck.BuildDeck(groupID, viewerID)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		return entries, nil
	}
	return deck.Filter(entries, mode), nil
}

// MarkKnown records a known/unknown decision for a card in a group.
func (a *App) MarkKnown(viewerID, cardID, groupID string, isKnown bool) (domain.CardStatus, error) {
	if _, err := a.GroupByID(viewerID, groupID); err != nil {
		return domain.CardStatus{}, err
	}
	return a.deck.MarkKnown(viewerID, cardID, groupID, isKnown)
}

// ResetKnowledge clears the viewer's statuses for the group.
func (a *App) ResetKnowledge(viewerID, groupID string) error {
	if _, err := a.GroupByID(viewerID, groupID); err != nil {
		return err
	}
	return a.deck.ResetKnowledge(viewerID, groupID)
}

// GroupRanking returns the viewer's standing within a group.
func (a *App) GroupRanking(viewerID, groupID string) (ranking.Standing, error) {
	if _, err := a.GroupByID(viewerID, groupID); err != nil {
		return ranking.Standing{}, err
	}
	return a.ranking.GroupRanking(groupID, viewerID)
}

// GlobalRanking returns the viewer's standing across all users.
func (a *App) GlobalRanking(viewerID string) (ranking.Standing, error) {
	return a.ranking.GlobalRanking(viewerID)
}

// GroupProgress returns the viewer's learned percentage for a group.
func (a *App) GroupProgress(viewerID, groupID string) (int, error) {
	if _, err := a.GroupByID(viewerID, groupID); err != nil {
		return 0, err
	}
	return a.ranking.GroupProgress(groupID, viewerID)
}

// UploadMedia stores a media payload (card photo, pronunciation audio,
// avatar) and returns the object key with a presigned URL for playback.
func (a *App) UploadMedia(ctx context.Context, ownerID, filename, contentType string, r io.Reader, size int64) (string, string, error) {
	if a.media == nil {
		return "", "", errors.New("media storage not configured")
	}
	key := ownerID + "/" + util.NewID() + strings.ToLower(path.Ext(filename))
	if err := a.media.Put(ctx, key, r, size, contentType); err != nil {
		return "", "", fmt.Errorf("store media: %w", err)
	}
	presigned, err := a.media.PresignGet(ctx, key, 24*time.Hour)
	if err != nil {
		return "", "", fmt.Errorf("presign media: %w", err)
	}
	return key, presigned, nil
}

// ResolveJoinCode accepts the string a QR scan or deep link yields: either a
// bare join code or a URL carrying a ?code= query parameter.
func ResolveJoinCode(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "?") {
		if u, err := url.Parse(raw); err == nil {
			if code := u.Query().Get("code"); code != "" {
				return code
			}
		}
	}
	return raw
}
