package ranking

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"knowme/internal/deck"
	"knowme/internal/store"
)

// Standing is a viewer's percentile position by known-count.
type Standing struct {
	KnownCount int `json:"knownCount"`
	TopPercent int `json:"topPercent"`
}

// Engine computes group and global percentile standings from the same card
// statuses the deck engine writes.
type Engine struct {
	store store.Store
	deck  *deck.Engine
}

// NewEngine constructs a ranking engine.
func NewEngine(s store.Store, d *deck.Engine) *Engine {
	return &Engine{store: s, deck: d}
}

type score struct {
	userID     string
	knownCount int
}

// GroupRanking scores every member's deck-known count for the group, ranks
// the viewer, and reports top percent as ceil(rank / members * 100).
// Equal counts tie-break by user ID ascending, so the order is
// deterministic. A group with no members reports {0, 0}; a single member is
// always top 100%.
func (e *Engine) GroupRanking(groupID, viewerID string) (Standing, error) {
	memberships, err := e.store.ListMemberships(groupID)
	if err != nil {
		return Standing{}, fmt.Errorf("list memberships: %w", err)
	}
	if len(memberships) == 0 {
		return Standing{}, nil
	}

	scores := make([]score, len(memberships))
	var g errgroup.Group
	for i, m := range memberships {
		i, m := i, m
		g.Go(func() error {
			entries, err := e.deck.BuildDeck(groupID, m.UserID)
			if err != nil {
				return fmt.Errorf("build deck for member %s: %w", m.UserID, err)
			}
			scores[i] = score{
				userID:     m.UserID,
				knownCount: len(deck.Filter(entries, deck.FilterKnown)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Standing{}, err
	}
	return standingFor(scores, viewerID, len(memberships)), nil
}

// GlobalRanking scores every system user by known statuses across all
// groups and ranks the viewer against the full user count.
func (e *Engine) GlobalRanking(viewerID string) (Standing, error) {
	users, err := e.store.ListUsers()
	if err != nil {
		return Standing{}, fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return Standing{}, nil
	}

	scores := make([]score, len(users))
	var g errgroup.Group
	for i, u := range users {
		i, u := i, u
		g.Go(func() error {
			count, err := e.store.CountKnownForViewer(u.ID)
			if err != nil {
				return fmt.Errorf("count known for %s: %w", u.ID, err)
			}
			scores[i] = score{userID: u.ID, knownCount: count}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Standing{}, err
	}
	return standingFor(scores, viewerID, len(users)), nil
}

// GroupProgress reports the rounded percentage of the viewer's deck marked
// known.
func (e *Engine) GroupProgress(groupID, viewerID string) (int, error) {
	return e.deck.Progress(groupID, viewerID)
}

func standingFor(scores []score, viewerID string, total int) Standing {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].knownCount != scores[j].knownCount {
			return scores[i].knownCount > scores[j].knownCount
		}
		return scores[i].userID < scores[j].userID
	})
	rank := 0
	known := 0
	for i, s := range scores {
		if s.userID == viewerID {
			rank = i + 1
			known = s.knownCount
			break
		}
	}
	if rank == 0 {
		return Standing{}
	}
	return Standing{
		KnownCount: known,
		TopPercent: int(math.Ceil(float64(rank) / float64(total) * 100)),
	}
}
