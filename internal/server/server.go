package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"knowme/internal/app"
	"knowme/internal/deck"
	"knowme/internal/ratelimit"
	"knowme/internal/util"
	"knowme/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                        *app.App
	RedisAddr                  string
	RedisPassword              string
	SignupRateLimitPerMinute   int
	LoginRateLimitPerMinute    int
	PasswordRateLimitPerMinute int
	MaxUploadBytes             int64
	// TrustedProxies lists proxy CIDRs whose forwarded headers are trusted
	// for client IP resolution.
	TrustedProxies []string
}

// Server exposes HTTP endpoints for the backend.
type Server struct {
	app             *app.App
	mux             *http.ServeMux
	maxUploadBytes  int64
	trustedProxies  *util.TrustedProxies
	signupLimiter   *ratelimit.FixedWindowLimiter
	loginLimiter    *ratelimit.FixedWindowLimiter
	passwordLimiter *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured. With no Redis address
// the auth endpoints run unlimited, which is only suitable for tests.
func New(cfg Config) (*Server, error) {
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("parse trusted proxies: %w", err)
	}
	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		maxUploadBytes: normalizeMaxBytes(cfg.MaxUploadBytes),
		trustedProxies: trusted,
	}
	if cfg.RedisAddr != "" {
		signupLimit := cfg.SignupRateLimitPerMinute
		if signupLimit <= 0 {
			signupLimit = 5
		}
		loginLimit := cfg.LoginRateLimitPerMinute
		if loginLimit <= 0 {
			loginLimit = 10
		}
		passwordLimit := cfg.PasswordRateLimitPerMinute
		if passwordLimit <= 0 {
			passwordLimit = 10
		}
		rateWindow := time.Minute
		newLimiter := func(name string, limit int) (*ratelimit.FixedWindowLimiter, error) {
			prefix := "knowme:ratelimit:" + name
			limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, limit, rateWindow)
			if err != nil {
				return nil, fmt.Errorf("init %s limiter: %w", name, err)
			}
			return limiter, nil
		}
		if s.signupLimiter, err = newLimiter("signup", signupLimit); err != nil {
			return nil, err
		}
		if s.loginLimiter, err = newLimiter("login", loginLimit); err != nil {
			return nil, err
		}
		if s.passwordLimiter, err = newLimiter("password", passwordLimit); err != nil {
			return nil, err
		}
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("knowme", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/signup", s.handleSignup)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.Handle("/api/users/me", s.authenticated(s.handleMe))
	s.mux.Handle("/api/users/me/password", s.authenticated(s.handleChangePassword))

	// profile cards
	s.mux.Handle("/api/profile", s.authenticated(s.handleProfile))
	s.mux.Handle("/api/profile/enhance-bio", s.authenticated(s.handleEnhanceBio))

	// groups
	s.mux.Handle("/api/groups", s.authenticated(s.handleGroups))
	s.mux.Handle("/api/groups/search", s.authenticated(s.handleGroupSearch))
	s.mux.Handle("/api/groups/join", s.authenticated(s.handleGroupJoin))
	s.mux.Handle("/api/groups/", s.authenticated(s.handleGroupSubtree))

	// ranking & media
	s.mux.Handle("/api/ranking/global", s.authenticated(s.handleGlobalRanking))
	s.mux.Handle("/api/media", s.authenticated(s.handleMediaUpload))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			s.audit(r, "authorize", "fail")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.User{}, false
	}
	return s.app.UserFromToken(token)
}

// auth handlers
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.signupLimiter, "too many signup attempts") {
		s.audit(r, "signup", "rate_limited")
		return
	}
	var req signupRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.audit(r, "signup", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tier := domain.TierStandard
	if strings.EqualFold(req.Tier, string(domain.TierPremium)) {
		tier = domain.TierPremium
	}
	user, token, err := s.app.SignUp(req.Name, req.Email, tier, req.Password)
	if err != nil {
		s.audit(r, "signup", "fail", "reason", err.Error())
		if errors.Is(err, app.ErrEmailTaken) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.audit(r, "signup", "success", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		s.audit(r, "login", "rate_limited")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.audit(r, "login", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		s.audit(r, "login", "fail", "reason", "invalid_credentials")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	s.audit(r, "login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.app.Logout(token); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.passwordLimiter, "too many password attempts") {
		s.audit(r, "password.change", "rate_limited", "user_id", user.ID)
		return
	}
	var req changePasswordRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "currentPassword and newPassword are required")
		return
	}
	if err := s.app.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		s.audit(r, "password.change", "fail", "user_id", user.ID)
		if errors.Is(err, app.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.audit(r, "password.change", "success", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// profile handlers
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		card, ok, err := s.app.GetProfile(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "profile card not found")
			return
		}
		writeJSON(w, http.StatusOK, card)
	case http.MethodPut, http.MethodPatch:
		var req domain.ProfileCard
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		card, err := s.app.UpdateProfile(user.ID, req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, card)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleEnhanceBio(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	bio, err := s.app.EnhanceBio(r.Context(), user.ID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"shortBio": bio})
}

// group handlers
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		groups, err := s.app.GroupsForUser(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": groups,
			"count": len(groups),
		})
	case http.MethodPost:
		var req createGroupRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		group, err := s.app.CreateGroup(user, req.Name, req.Description, req.JoinCode, req.IsPublic)
		if err != nil {
			s.audit(r, "group.create", "fail", "user_id", user.ID, "reason", err.Error())
			s.writeAppError(w, err)
			return
		}
		s.audit(r, "group.create", "success", "user_id", user.ID, "group_id", group.ID)
		writeJSON(w, http.StatusCreated, groupResponse{Group: group, ShareLink: s.app.ShareLink(group)})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleGroupSearch(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	groups, err := s.app.SearchPublicGroups(user, r.URL.Query().Get("q"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": groups,
		"count": len(groups),
	})
}

func (s *Server) handleGroupJoin(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req joinGroupRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	group, joined, err := s.app.JoinGroupByCode(user.ID, req.Code)
	if err != nil {
		s.audit(r, "group.join", "fail", "user_id", user.ID)
		s.writeAppError(w, err)
		return
	}
	s.audit(r, "group.join", "success", "user_id", user.ID, "group_id", group.ID, "joined", joined)
	writeJSON(w, http.StatusOK, joinGroupResponse{Group: group, Joined: joined})
}

// handleGroupSubtree dispatches /api/groups/{id} and its nested resources.
func (s *Server) handleGroupSubtree(w http.ResponseWriter, r *http.Request, user domain.User) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/groups/")
	groupID, sub, _ := strings.Cut(rest, "/")
	if groupID == "" {
		http.NotFound(w, r)
		return
	}
	switch sub {
	case "":
		s.handleGroupByID(w, r, user, groupID)
	case "members":
		s.handleGroupMembers(w, r, user, groupID)
	case "invitations":
		s.handleGroupInvitations(w, r, user, groupID)
	case "deck":
		s.handleGroupDeck(w, r, user, groupID)
	case "deck/status":
		s.handleDeckStatus(w, r, user, groupID)
	case "deck/reset":
		s.handleDeckReset(w, r, user, groupID)
	case "ranking":
		s.handleGroupRanking(w, r, user, groupID)
	case "progress":
		s.handleGroupProgress(w, r, user, groupID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGroupByID(w http.ResponseWriter, r *http.Request, user domain.User, groupID string) {
	switch r.Method {
	case http.MethodGet:
		group, err := s.app.GroupByID(user.ID, groupID)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, groupResponse{Group: group, ShareLink: s.app.ShareLink(group)})
	case http.MethodPatch:
		var req updateGroupRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		group, err := s.app.UpdateGroup(user.ID, groupID, req.Name, req.Description, req.JoinCode, req.IsPublic)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, groupResponse{Group: group, ShareLink: s.app.ShareLink(group)})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleGroupMembers(w http.ResponseWriter, r *http.Request, user domain.User, groupID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	members, err := s.app.GroupMembers(user.ID, groupID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": members,
		"count": len(members),
	})
}

func (s *Server) handleGroupInvitations(w http.ResponseWriter, r *http.Request, user domain.User, groupID string) {
	switch r.Method {
	case http.MethodGet:
		invs, err := s.app.ListInvitations(user.ID, groupID)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": invs,
			"count": len(invs),
		})
	case http.MethodPost:
		var req inviteRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		sent, err := s.app.InviteMembers(user, groupID, req.Emails)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"invited": sent})
	default:
		methodNotAllowed(w)
	}
}

// deck handlers
func (s *Server) handleGroupDeck(w http.ResponseWriter, r *http.Request, user domain.User, groupID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	mode, ok := parseFilterMode(r.URL.Query().Get("filter"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid filter (want UNKNOWN or KNOWN)")
		return
	}
	entries, err := s.app.DeckForGroup(user.ID, groupID, mode)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": entries,
		"count": len(entries),
	})
}

func (s *Server) handleDeckStatus(w http.ResponseWriter, r *http.Request, user domain.User, groupID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req markKnownRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CardID == "" {
		writeError(w, http.StatusBadRequest, "cardId is required")
		return
	}
	status, err := s.app.MarkKnown(user.ID, req.CardID, groupID, req.IsKnown)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleDeckReset(w http.ResponseWriter, r *http.Request, user domain.User, groupID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.app.ResetKnowledge(user.ID, groupID); err != nil {
		s.writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ranking handlers
func (s *Server) handleGroupRanking(w http.ResponseWriter, r *http.Request, user domain.User, groupID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	standing, err := s.app.GroupRanking(user.ID, groupID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, standing)
}

func (s *Server) handleGroupProgress(w http.ResponseWriter, r *http.Request, user domain.User, groupID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	pct, err := s.app.GroupProgress(user.ID, groupID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"progressPercent": pct})
}

func (s *Server) handleGlobalRanking(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	standing, err := s.app.GlobalRanking(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, standing)
}

// media handlers
func (s *Server) handleMediaUpload(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	if header.Size > s.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	contentType := header.Header.Get("Content-Type")
	key, presigned, err := s.app.UploadMedia(r.Context(), user.ID, header.Filename, contentType, file, header.Size)
	if err != nil {
		s.audit(r, "media.upload", "fail", "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	s.audit(r, "media.upload", "success", "user_id", user.ID, "key", key)
	writeJSON(w, http.StatusCreated, map[string]string{"key": key, "url": presigned})
}

// writeAppError maps application sentinel errors to HTTP statuses.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrGroupNotFound):
		writeError(w, http.StatusNotFound, "group not found")
	case errors.Is(err, app.ErrPremiumRequired):
		writeError(w, http.StatusForbidden, "premium account required")
	case errors.Is(err, app.ErrForbidden), errors.Is(err, app.ErrNotMember):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, app.ErrJoinCodeTaken):
		writeError(w, http.StatusConflict, "join code already in use")
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trustedProxies),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	if limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func parseFilterMode(raw string) (deck.FilterMode, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return "", true
	case string(deck.FilterUnknown):
		return deck.FilterUnknown, true
	case string(deck.FilterKnown):
		return deck.FilterKnown, true
	default:
		return "", false
	}
}

func normalizeMaxBytes(v int64) int64 {
	if v <= 0 {
		return 10 << 20
	}
	return v
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Tier     string `json:"tier"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	JoinCode    string `json:"joinCode"`
	IsPublic    bool   `json:"isPublic"`
}

type updateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	JoinCode    *string `json:"joinCode"`
	IsPublic    *bool   `json:"isPublic"`
}

type groupResponse struct {
	Group     domain.Group `json:"group"`
	ShareLink string       `json:"shareLink"`
}

type joinGroupRequest struct {
	Code string `json:"code"`
}

type joinGroupResponse struct {
	Group  domain.Group `json:"group"`
	Joined bool         `json:"joined"`
}

type inviteRequest struct {
	Emails []string `json:"emails"`
}

type markKnownRequest struct {
	CardID  string `json:"cardId"`
	IsKnown bool   `json:"isKnown"`
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
