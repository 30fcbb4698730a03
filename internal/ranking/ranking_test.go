package ranking

import (
	"fmt"
	"testing"
	"time"

	"knowme/internal/deck"
	"knowme/internal/store"
	"knowme/pkg/domain"
)

const testGroupID = "group-1"

// seedGroup creates n users (user-1..user-n) with cards, all members of one
// group. knownCounts[i] cards from the rest of the group are marked known
// for user-(i+1).
func seedGroup(t *testing.T, knownCounts []int) (*store.MemoryStore, *Engine) {
	t.Helper()
	st := store.NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := st.SaveGroup(domain.Group{ID: testGroupID, Name: "Team", JoinCode: "TEAM1", CreatedAt: base}); err != nil {
		t.Fatalf("save group: %v", err)
	}
	n := len(knownCounts)
	for i := 1; i <= n; i++ {
		uid := fmt.Sprintf("user-%d", i)
		if err := st.SaveUser(domain.User{ID: uid, Name: uid, Email: uid + "@example.com", CreatedAt: base}); err != nil {
			t.Fatalf("save user: %v", err)
		}
		if err := st.SaveProfileCard(domain.ProfileCard{ID: "card-" + uid, UserID: uid, FullName: uid}); err != nil {
			t.Fatalf("save card: %v", err)
		}
		if _, err := st.AddMembership(domain.Membership{ID: "m-" + uid, GroupID: testGroupID, UserID: uid, CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("add membership: %v", err)
		}
	}
	for i, count := range knownCounts {
		viewer := fmt.Sprintf("user-%d", i+1)
		marked := 0
		for j := 1; j <= n && marked < count; j++ {
			if j == i+1 {
				continue
			}
			cardID := fmt.Sprintf("card-user-%d", j)
			if _, err := st.UpsertCardStatus(domain.CardStatus{
				ViewerUserID:   viewer,
				ProfileCardID:  cardID,
				GroupID:        testGroupID,
				IsKnown:        true,
				LastReviewedAt: base,
			}); err != nil {
				t.Fatalf("upsert status: %v", err)
			}
			marked++
		}
	}
	deckEngine := deck.NewEngine(st)
	return st, NewEngine(st, deckEngine)
}

func TestGroupRankingSingleMemberIsTop100(t *testing.T) {
	_, engine := seedGroup(t, []int{0})
	standing, err := engine.GroupRanking(testGroupID, "user-1")
	if err != nil {
		t.Fatalf("group ranking: %v", err)
	}
	if standing.KnownCount != 0 || standing.TopPercent != 100 {
		t.Fatalf("Standing = %+v, want {0 100}", standing)
	}
}

func TestGroupRankingSecondOfFourIsTop50(t *testing.T) {
	_, engine := seedGroup(t, []int{3, 2, 1, 0})
	standing, err := engine.GroupRanking(testGroupID, "user-2")
	if err != nil {
		t.Fatalf("group ranking: %v", err)
	}
	if standing.KnownCount != 2 {
		t.Fatalf("KnownCount = %d, want 2", standing.KnownCount)
	}
	if standing.TopPercent != 50 {
		t.Fatalf("TopPercent = %d, want 50", standing.TopPercent)
	}
}

func TestGroupRankingLeaderIsTop25(t *testing.T) {
	_, engine := seedGroup(t, []int{3, 2, 1, 0})
	standing, err := engine.GroupRanking(testGroupID, "user-1")
	if err != nil {
		t.Fatalf("group ranking: %v", err)
	}
	if standing.TopPercent != 25 {
		t.Fatalf("TopPercent = %d, want 25", standing.TopPercent)
	}
}

func TestGroupRankingTieBreaksByUserID(t *testing.T) {
	_, engine := seedGroup(t, []int{2, 2, 0})
	first, err := engine.GroupRanking(testGroupID, "user-1")
	if err != nil {
		t.Fatalf("group ranking: %v", err)
	}
	second, err := engine.GroupRanking(testGroupID, "user-2")
	if err != nil {
		t.Fatalf("group ranking: %v", err)
	}
	if first.TopPercent >= second.TopPercent {
		t.Fatalf("tie order: user-1 %d%%, user-2 %d%%, want user-1 ranked ahead", first.TopPercent, second.TopPercent)
	}
}

func TestGroupRankingViewerNotMemberIsZero(t *testing.T) {
	_, engine := seedGroup(t, []int{1, 0})
	standing, err := engine.GroupRanking(testGroupID, "stranger")
	if err != nil {
		t.Fatalf("group ranking: %v", err)
	}
	if standing.KnownCount != 0 || standing.TopPercent != 0 {
		t.Fatalf("Standing = %+v, want zero value for a non-member", standing)
	}
}

func TestGlobalRankingCountsAcrossGroups(t *testing.T) {
	st, engine := seedGroup(t, []int{3, 2, 1, 0})
	// A status in another group still counts globally.
	if err := st.SaveGroup(domain.Group{ID: "group-2", Name: "Other", JoinCode: "OTHER1"}); err != nil {
		t.Fatalf("save group: %v", err)
	}
	if _, err := st.UpsertCardStatus(domain.CardStatus{
		ViewerUserID:  "user-4",
		ProfileCardID: "card-user-1",
		GroupID:       "group-2",
		IsKnown:       true,
	}); err != nil {
		t.Fatalf("upsert status: %v", err)
	}
	standing, err := engine.GlobalRanking("user-4")
	if err != nil {
		t.Fatalf("global ranking: %v", err)
	}
	if standing.KnownCount != 1 {
		t.Fatalf("KnownCount = %d, want 1", standing.KnownCount)
	}
}

func TestGroupProgress(t *testing.T) {
	_, engine := seedGroup(t, []int{3, 0, 0, 0})
	pct, err := engine.GroupProgress(testGroupID, "user-1")
	if err != nil {
		t.Fatalf("group progress: %v", err)
	}
	if pct != 100 {
		t.Fatalf("GroupProgress() = %d, want 100", pct)
	}
}
