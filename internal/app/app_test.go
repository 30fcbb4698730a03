package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"knowme/internal/store"
	"knowme/pkg/domain"
)

const testPassword = "Val1d-Password"

type stubEnhancer struct {
	text string
	err  error
}

func (s stubEnhancer) EnhanceBio(_ context.Context, _, _, _ string) (string, error) {
	return s.text, s.err
}

func newTestApp(t *testing.T, enhancer stubEnhancer) *App {
	t.Helper()
	a, err := New(Config{
		Store:    store.NewMemoryStore(),
		Sessions: store.NewJWTSessionStore("test-secret", time.Hour),
		Enhancer: enhancer,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a
}

func signUp(t *testing.T, a *App, name, email string, tier domain.AccountTier) domain.User {
	t.Helper()
	user, _, err := a.SignUp(name, email, tier, testPassword)
	if err != nil {
		t.Fatalf("sign up %s: %v", email, err)
	}
	return user
}

func createGroup(t *testing.T, a *App, creator domain.User, name, code string, public bool) domain.Group {
	t.Helper()
	group, err := a.CreateGroup(creator, name, "", code, public)
	if err != nil {
		t.Fatalf("create group %s: %v", name, err)
	}
	return group
}

func TestSignUpCreatesEmptyProfileCard(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	user, token, err := a.SignUp("Ada", "ada@example.com", domain.TierStandard, testPassword)
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if token == "" {
		t.Fatalf("sign up must issue a session token")
	}
	card, ok, err := a.GetProfile(user.ID)
	if err != nil || !ok {
		t.Fatalf("GetProfile() = (%v, %v, %v), want a card", card, ok, err)
	}
	if card.FullName != "Ada" || card.ShortBio != "" {
		t.Fatalf("card = %+v, want an empty card carrying the name", card)
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	signUp(t, a, "Ada", "ada@example.com", domain.TierStandard)
	_, _, err := a.SignUp("Imposter", "ADA@example.com", domain.TierStandard, testPassword)
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate signup error = %v, want ErrEmailTaken", err)
	}
}

func TestSignUpRejectsWeakPassword(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	if _, _, err := a.SignUp("Ada", "ada@example.com", domain.TierStandard, "short"); err == nil {
		t.Fatalf("weak password accepted")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	signUp(t, a, "Ada", "ada@example.com", domain.TierStandard)
	if _, _, err := a.Login("ada@example.com", "Wrong-Passw0rd"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := a.Login("nobody@example.com", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestUserFromToken(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	user, token, err := a.SignUp("Ada", "ada@example.com", domain.TierStandard, testPassword)
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	resolved, ok := a.UserFromToken(token)
	if !ok || resolved.ID != user.ID {
		t.Fatalf("UserFromToken() = (%+v, %v), want the signed-up user", resolved, ok)
	}
	if _, ok := a.UserFromToken("garbage"); ok {
		t.Fatalf("garbage token must not resolve")
	}
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	user := signUp(t, a, "Ada", "ada@example.com", domain.TierStandard)
	if err := a.ChangePassword(user.ID, "Wrong-Passw0rd", "New-Passw0rd!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("change with wrong current = %v, want ErrInvalidCredentials", err)
	}
	if err := a.ChangePassword(user.ID, testPassword, "New-Passw0rd!"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, _, err := a.Login("ada@example.com", "New-Passw0rd!"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestUpdateProfileKeepsOwnership(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	user := signUp(t, a, "Ada", "ada@example.com", domain.TierStandard)
	original, _, err := a.GetProfile(user.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	updated, err := a.UpdateProfile(user.ID, domain.ProfileCard{
		ID:       "forged-id",
		UserID:   "someone-else",
		FullName: "Ada Lovelace",
		ShortBio: "Mathematician",
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.ID != original.ID || updated.UserID != user.ID {
		t.Fatalf("updated card = %+v, identity and owner must be preserved", updated)
	}
	if updated.ShortBio != "Mathematician" {
		t.Fatalf("ShortBio = %q, want the new text", updated.ShortBio)
	}
}

func TestEnhanceBioFallsBackOnError(t *testing.T) {
	a := newTestApp(t, stubEnhancer{err: errors.New("model down")})
	user := signUp(t, a, "Ada", "ada@example.com", domain.TierStandard)
	if _, err := a.UpdateProfile(user.ID, domain.ProfileCard{FullName: "Ada", ShortBio: "draft bio"}); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	bio, err := a.EnhanceBio(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("enhance bio: %v", err)
	}
	if bio != "draft bio" {
		t.Fatalf("bio = %q, want fallback to the original draft", bio)
	}
}

func TestEnhanceBioUsesModelText(t *testing.T) {
	a := newTestApp(t, stubEnhancer{text: "A sparkling two-sentence bio."})
	user := signUp(t, a, "Ada", "ada@example.com", domain.TierStandard)
	bio, err := a.EnhanceBio(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("enhance bio: %v", err)
	}
	if bio != "A sparkling two-sentence bio." {
		t.Fatalf("bio = %q, want the model text", bio)
	}
}

func TestCreateGroupRequiresPremium(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	standard := signUp(t, a, "Sam", "sam@example.com", domain.TierStandard)
	if _, err := a.CreateGroup(standard, "Eng", "", "ENG1", false); !errors.Is(err, ErrPremiumRequired) {
		t.Fatalf("standard-tier create = %v, want ErrPremiumRequired", err)
	}
}

func TestCreateGroupAutoJoinsCreator(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	creator := signUp(t, a, "Pat", "pat@example.com", domain.TierPremium)
	group := createGroup(t, a, creator, "Eng", "ENG2026", false)
	groups, err := a.GroupsForUser(creator.ID)
	if err != nil {
		t.Fatalf("groups for user: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != group.ID {
		t.Fatalf("groups = %+v, creator must be a member of the new group", groups)
	}
}

func TestCreateGroupDuplicateJoinCode(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	creator := signUp(t, a, "Pat", "pat@example.com", domain.TierPremium)
	createGroup(t, a, creator, "Eng", "ENG2026", false)
	if _, err := a.CreateGroup(creator, "Other", "", "eng2026", false); !errors.Is(err, ErrJoinCodeTaken) {
		t.Fatalf("duplicate code = %v, want ErrJoinCodeTaken", err)
	}
}

func TestJoinGroupByCodeIgnoresCase(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	creator := signUp(t, a, "Pat", "pat@example.com", domain.TierPremium)
	joiner := signUp(t, a, "Sam", "sam@example.com", domain.TierStandard)
	group := createGroup(t, a, creator, "Eng", "ENG2026", false)

	joinedGroup, joined, err := a.JoinGroupByCode(joiner.ID, "eng2026")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !joined || joinedGroup.ID != group.ID {
		t.Fatalf("join = (%+v, %v), want membership in the group", joinedGroup, joined)
	}
}

func TestJoinGroupTwiceReportsFalse(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	creator := signUp(t, a, "Pat", "pat@example.com", domain.TierPremium)
	joiner := signUp(t, a, "Sam", "sam@example.com", domain.TierStandard)
	createGroup(t, a, creator, "Eng", "ENG2026", false)

	if _, _, err := a.JoinGroupByCode(joiner.ID, "ENG2026"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	_, joined, err := a.JoinGroupByCode(joiner.ID, "ENG2026")
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if joined {
		t.Fatalf("second join = true, duplicate join must report false")
	}
}

func TestJoinGroupByDeepLink(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	creator := signUp(t, a, "Pat", "pat@example.com", domain.TierPremium)
	joiner := signUp(t, a, "Sam", "sam@example.com", domain.TierStandard)
	group := createGroup(t, a, creator, "Eng", "ENG2026", false)

	joinedGroup, joined, err := a.JoinGroupByCode(joiner.ID, "https://knowme.example.com/?code=ENG2026")
	if err != nil {
		t.Fatalf("join via link: %v", err)
	}
	if !joined || joinedGroup.ID != group.ID {
		t.Fatalf("join via link = (%+v, %v), want membership", joinedGroup, joined)
	}
}

func TestJoinUnknownCode(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	joiner := signUp(t, a, "Sam", "sam@example.com", domain.TierStandard)
	if _, _, err := a.JoinGroupByCode(joiner.ID, "NOPE"); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("unknown code = %v, want ErrGroupNotFound", err)
	}
}

func TestUpdateGroupCreatorOnly(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	creator := signUp(t, a, "Pat", "pat@example.com", domain.TierPremium)
	other := signUp(t, a, "Sam", "sam@example.com", domain.TierPremium)
	group := createGroup(t, a, creator, "Eng", "ENG2026", false)

	name := "Engineering"
	if _, err := a.UpdateGroup(other.ID, group.ID, &name, nil, nil, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-creator update = %v, want ErrForbidden", err)
	}
	updated, err := a.UpdateGroup(creator.ID, group.ID, &name, nil, nil, nil)
	if err != nil {
		t.Fatalf("creator update: %v", err)
	}
	if updated.Name != "Engineering" {
		t.Fatalf("Name = %q, want Engineering", updated.Name)
	}
}

func TestUpdateMissingGroup(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	user := signUp(t, a, "Pat", "pat@example.com", domain.TierPremium)
	name := "Whatever"
	if _, err := a.UpdateGroup(user.ID, "missing", &name, nil, nil, nil); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("missing group update = %v, want ErrGroupNotFound", err)
	}
}

func TestGroupByIDRequiresMembership(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	creator := signUp(t, a, "Pat", "pat@example.com", domain.TierPremium)
	outsider := signUp(t, a, "Sam", "sam@example.com", domain.TierStandard)
	group := createGroup(t, a, creator, "Eng", "ENG2026", false)
	if _, err := a.GroupByID(outsider.ID, group.ID); !errors.Is(err, ErrNotMember) {
		t.Fatalf("outsider access = %v, want ErrNotMember", err)
	}
}

func TestSearchPublicGroupsRequiresPremium(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	standard := signUp(t, a, "Sam", "sam@example.com", domain.TierStandard)
	if _, err := a.SearchPublicGroups(standard, "go"); !errors.Is(err, ErrPremiumRequired) {
		t.Fatalf("standard search = %v, want ErrPremiumRequired", err)
	}
}

func TestInviteMembersFiltersInvalidEmails(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	creator := signUp(t, a, "Pat", "pat@example.com", domain.TierPremium)
	group := createGroup(t, a, creator, "Eng", "ENG2026", false)

	sent, err := a.InviteMembers(creator, group.ID, []string{"friend@example.com", "not-an-email", " other@example.com "})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if sent != 2 {
		t.Fatalf("invited = %d, want 2", sent)
	}
	invs, err := a.ListInvitations(creator.ID, group.ID)
	if err != nil {
		t.Fatalf("list invitations: %v", err)
	}
	if len(invs) != 2 {
		t.Fatalf("len(invitations) = %d, want 2", len(invs))
	}
}

func TestListInvitationsCreatorOnly(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	creator := signUp(t, a, "Pat", "pat@example.com", domain.TierPremium)
	member := signUp(t, a, "Sam", "sam@example.com", domain.TierStandard)
	group := createGroup(t, a, creator, "Eng", "ENG2026", false)
	if _, _, err := a.JoinGroupByCode(member.ID, "ENG2026"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := a.ListInvitations(member.ID, group.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("member invitation list = %v, want ErrForbidden", err)
	}
}

func TestDeckFlowThroughApp(t *testing.T) {
	a := newTestApp(t, stubEnhancer{})
	creator := signUp(t, a, "Pat", "pat@example.com", domain.TierPremium)
	member := signUp(t, a, "Sam", "sam@example.com", domain.TierStandard)
	group := createGroup(t, a, creator, "Eng", "ENG2026", false)
	if _, _, err := a.JoinGroupByCode(member.ID, "ENG2026"); err != nil {
		t.Fatalf("join: %v", err)
	}

	entries, err := a.DeckForGroup(creator.ID, group.ID, "")
	if err != nil {
		t.Fatalf("deck: %v", err)
	}
	if len(entries) != 1 || entries[0].Card.UserID != member.ID {
		t.Fatalf("deck = %+v, want only the other member's card", entries)
	}

	status, err := a.MarkKnown(creator.ID, entries[0].Card.ID, group.ID, true)
	if err != nil {
		t.Fatalf("mark known: %v", err)
	}
	if !status.IsKnown || status.LastReviewedAt.IsZero() {
		t.Fatalf("status = %+v, want known with a review time", status)
	}

	pct, err := a.GroupProgress(creator.ID, group.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if pct != 100 {
		t.Fatalf("progress = %d, want 100", pct)
	}

	standing, err := a.GroupRanking(creator.ID, group.ID)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if standing.KnownCount != 1 || standing.TopPercent != 50 {
		t.Fatalf("standing = %+v, want {1 50}", standing)
	}

	if err := a.ResetKnowledge(creator.ID, group.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	pct, err = a.GroupProgress(creator.ID, group.ID)
	if err != nil {
		t.Fatalf("progress after reset: %v", err)
	}
	if pct != 0 {
		t.Fatalf("progress after reset = %d, want 0", pct)
	}
}
