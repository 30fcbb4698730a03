package deck

import (
	"fmt"
	"time"

	"knowme/internal/store"
	"knowme/pkg/domain"
)

// FilterMode selects which slice of the deck a viewer is reviewing.
type FilterMode string

const (
	// FilterUnknown shows cards without a status or marked not known.
	FilterUnknown FilterMode = "UNKNOWN"
	// FilterKnown shows cards the viewer has already learned.
	FilterKnown FilterMode = "KNOWN"
)

// Entry pairs a member's profile card with the viewer's status for it.
// Status is nil until the viewer has reviewed the card at least once.
type Entry struct {
	Card   domain.ProfileCard `json:"card"`
	Status *domain.CardStatus `json:"status,omitempty"`
}

// Known reports whether the entry counts as learned.
func (e Entry) Known() bool {
	return e.Status != nil && e.Status.IsKnown
}

// Engine builds decks and applies known/unknown transitions against the store.
type Engine struct {
	store store.Store
}

// NewEngine constructs a deck engine over the given store.
func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// BuildDeck returns every other group member's card paired with the viewer's
// status. The viewer's own card is never included. Order follows membership
// join time, so it is stable across calls within a session.
func (e *Engine) BuildDeck(groupID, viewerID string) ([]Entry, error) {
	memberships, err := e.store.ListMemberships(groupID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	memberIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		if m.UserID == viewerID {
			continue
		}
		memberIDs = append(memberIDs, m.UserID)
	}
	cards, err := e.store.ListProfileCardsByUserIDs(memberIDs)
	if err != nil {
		return nil, fmt.Errorf("list profile cards: %w", err)
	}
	statuses, err := e.store.ListCardStatuses(viewerID, groupID)
	if err != nil {
		return nil, fmt.Errorf("list card statuses: %w", err)
	}
	byCard := make(map[string]domain.CardStatus, len(statuses))
	for _, s := range statuses {
		byCard[s.ProfileCardID] = s
	}
	entries := make([]Entry, 0, len(cards))
	for _, card := range cards {
		entry := Entry{Card: card}
		if s, ok := byCard[card.ID]; ok {
			status := s
			entry.Status = &status
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Filter returns the entries matching the mode. The UNKNOWN and KNOWN slices
// partition the deck: together they cover it, and no entry is in both.
func Filter(entries []Entry, mode FilterMode) []Entry {
	res := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if (mode == FilterKnown) == e.Known() {
			res = append(res, e)
		}
	}
	return res
}

// MarkKnown upserts the viewer's status for a card, stamping the review time.
// Repeated calls for the same (viewer, card, group) update the single
// existing row; the last write wins.
func (e *Engine) MarkKnown(viewerID, cardID, groupID string, isKnown bool) (domain.CardStatus, error) {
	status := domain.CardStatus{
		ViewerUserID:   viewerID,
		ProfileCardID:  cardID,
		GroupID:        groupID,
		IsKnown:        isKnown,
		LastReviewedAt: time.Now().UTC(),
	}
	stored, err := e.store.UpsertCardStatus(status)
	if err != nil {
		return domain.CardStatus{}, fmt.Errorf("upsert card status: %w", err)
	}
	return stored, nil
}

// ResetKnowledge deletes every status the viewer holds in the group,
// returning the deck to all-unknown. Calling it twice is the same as once.
func (e *Engine) ResetKnowledge(viewerID, groupID string) error {
	if err := e.store.DeleteCardStatuses(viewerID, groupID); err != nil {
		return fmt.Errorf("delete card statuses: %w", err)
	}
	return nil
}

// Progress returns the rounded percentage of the viewer's deck marked known.
// An empty deck reports zero.
func (e *Engine) Progress(groupID, viewerID string) (int, error) {
	entries, err := e.BuildDeck(groupID, viewerID)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	known := len(Filter(entries, FilterKnown))
	return int(float64(known)/float64(len(entries))*100 + 0.5), nil
}
