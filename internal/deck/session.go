package deck

// Session is a navigable cursor over one viewer's filtered deck. It applies
// optimistic status updates locally so the visible deck never waits on a
// rebuild, while the engine persists the same change through the store.
type Session struct {
	engine   *Engine
	groupID  string
	viewerID string
	entries  []Entry
	mode     FilterMode
	index    int
}

// OpenSession builds the viewer's deck and positions the cursor at the first
// unknown card.
func (e *Engine) OpenSession(groupID, viewerID string) (*Session, error) {
	entries, err := e.BuildDeck(groupID, viewerID)
	if err != nil {
		return nil, err
	}
	return &Session{
		engine:   e,
		groupID:  groupID,
		viewerID: viewerID,
		entries:  entries,
		mode:     FilterUnknown,
	}, nil
}

// Mode returns the active filter mode.
func (s *Session) Mode() FilterMode {
	return s.mode
}

// Filtered returns the entries visible under the active filter.
func (s *Session) Filtered() []Entry {
	return Filter(s.entries, s.mode)
}

// Counts returns how many cards sit in the unknown and known pools.
func (s *Session) Counts() (unknown, known int) {
	for _, e := range s.entries {
		if e.Known() {
			known++
		} else {
			unknown++
		}
	}
	return unknown, known
}

// Index returns the cursor position, clamped into the filtered deck.
func (s *Session) Index() int {
	return s.clampedIndex(len(s.Filtered()))
}

// Current returns the card under the cursor. An empty filtered deck is a
// valid terminal display state, reported as ok=false.
func (s *Session) Current() (Entry, bool) {
	filtered := s.Filtered()
	if len(filtered) == 0 {
		return Entry{}, false
	}
	return filtered[s.clampedIndex(len(filtered))], true
}

// Advance moves the cursor to the next card, wrapping to the start at the
// end. The deck is cyclic; it never reaches a hard terminal state while
// non-empty.
func (s *Session) Advance() {
	filtered := s.Filtered()
	if len(filtered) == 0 {
		s.index = 0
		return
	}
	s.index = (s.clampedIndex(len(filtered)) + 1) % len(filtered)
}

// SetMode switches the filter and rewinds the cursor.
func (s *Session) SetMode(mode FilterMode) {
	s.mode = mode
	s.index = 0
}

// MarkCurrent records a known/unknown decision for the card under the
// cursor and persists it. In UNKNOWN mode a card marked known leaves the
// filtered view, so the cursor stays put and the next card slides into the
// vacated slot (clamping at the end). In KNOWN mode, and for decisions that
// keep the card in view, the cursor simply advances.
func (s *Session) MarkCurrent(isKnown bool) error {
	current, ok := s.Current()
	if !ok {
		return nil
	}
	stored, err := s.engine.MarkKnown(s.viewerID, current.Card.ID, s.groupID, isKnown)
	if err != nil {
		return err
	}
	for i := range s.entries {
		if s.entries[i].Card.ID == current.Card.ID {
			status := stored
			s.entries[i].Status = &status
			break
		}
	}
	if s.mode == FilterUnknown && isKnown {
		s.index = s.clampedIndex(len(s.Filtered()))
		return nil
	}
	s.Advance()
	return nil
}

// SwipeRight applies a right commit: mark known in UNKNOWN mode, plain
// advance in KNOWN (review) mode.
func (s *Session) SwipeRight() error {
	if s.mode == FilterUnknown {
		return s.MarkCurrent(true)
	}
	s.Advance()
	return nil
}

// SwipeLeft applies a left commit: skip to the next card without touching
// status.
func (s *Session) SwipeLeft() error {
	s.Advance()
	return nil
}

// Reset clears the viewer's knowledge for the group, reloads the deck, and
// returns to UNKNOWN mode at the first card.
func (s *Session) Reset() error {
	if err := s.engine.ResetKnowledge(s.viewerID, s.groupID); err != nil {
		return err
	}
	entries, err := s.engine.BuildDeck(s.groupID, s.viewerID)
	if err != nil {
		return err
	}
	s.entries = entries
	s.mode = FilterUnknown
	s.index = 0
	return nil
}

func (s *Session) clampedIndex(length int) int {
	if length == 0 {
		return 0
	}
	if s.index >= length {
		return length - 1
	}
	if s.index < 0 {
		return 0
	}
	return s.index
}
