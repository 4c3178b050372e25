package game

import (
	"context"
	"time"

	"matchpreview/internal/deck"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Timing for the two scheduled callbacks the session depends on. The host
// schedules them; the session only validates and applies them.
const (
	MismatchDelay = 600 * time.Millisecond
	TickInterval  = time.Second
)

// Status is the session lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusPlaying
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPlaying:
		return "playing"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// fsm state names mirror Status.String values.
const (
	stateIdle      = "idle"
	statePlaying   = "playing"
	stateCompleted = "completed"
)

// TapOutcome tells the host what a tap did, so it knows whether to schedule
// the mismatch-resolution callback.
type TapOutcome int

const (
	TapIgnored TapOutcome = iota
	TapFirstFlip
	TapMatch
	TapMismatch
	TapCompleted
)

// Session owns one match in progress: the deck, flip bookkeeping, counters
// and the mismatch-resolution lock. All methods must be called from the
// host's event loop; the session itself never spawns timers.
//
// Every started game carries an opaque token. Scheduled callbacks echo the
// token they captured, and a callback whose token no longer matches is
// stale (its game was restarted or closed) and is dropped before it can
// touch the current deck.
type Session struct {
	Cards        []deck.Card
	PairCount    int
	Moves        int
	MatchedPairs int
	Elapsed      int // whole seconds since start
	Resolving    bool

	candidates []deck.Candidate
	flipped    []int
	startedAt  time.Time
	token      uuid.UUID
	machine    *fsm.FSM
	now        func() time.Time
	log        *zap.Logger
}

// NewSession prepares an idle session over the candidate pool. No deck is
// built until Start.
func NewSession(candidates []deck.Candidate, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		candidates: candidates,
		now:        time.Now,
		log:        logger,
	}
	s.machine = fsm.NewFSM(
		stateIdle,
		getStatusTransitions(),
		getStatusCallbacks(s),
	)
	return s
}

func getStatusTransitions() []fsm.EventDesc {
	return fsm.Events{
		{Name: "start", Src: []string{stateIdle, statePlaying, stateCompleted}, Dst: statePlaying},
		{Name: "finish", Src: []string{statePlaying}, Dst: stateCompleted},
		{Name: "close", Src: []string{stateIdle, statePlaying, stateCompleted}, Dst: stateIdle},
	}
}

func getStatusCallbacks(s *Session) map[string]fsm.Callback {
	return fsm.Callbacks{
		"enter_playing": func(ctx context.Context, e *fsm.Event) {
			s.log.Debug("session started",
				zap.String("token", s.token.String()),
				zap.Int("pairs", s.PairCount))
		},
		"enter_completed": func(ctx context.Context, e *fsm.Event) {
			s.log.Debug("session completed",
				zap.String("token", s.token.String()),
				zap.Int("moves", s.Moves),
				zap.Int("elapsed", s.Elapsed))
		},
	}
}

// Status maps the machine's current state to the typed enum.
func (s *Session) Status() Status {
	switch s.machine.Current() {
	case statePlaying:
		return StatusPlaying
	case stateCompleted:
		return StatusCompleted
	default:
		return StatusIdle
	}
}

// Token identifies the currently active game. Callbacks scheduled for an
// earlier game carry an older token and are ignored.
func (s *Session) Token() uuid.UUID {
	return s.token
}

// Start builds a fresh deck and begins play. It also serves as restart:
// counters reset, the resolution lock clears, and the token rotates so any
// callback still pending for the previous game goes stale.
func (s *Session) Start() error {
	cards, err := deck.Build(s.candidates)
	if err != nil {
		return err
	}

	s.Cards = cards
	s.PairCount = deck.PairCount(cards)
	s.Moves = 0
	s.MatchedPairs = 0
	s.Elapsed = 0
	s.Resolving = false
	s.flipped = s.flipped[:0]
	s.startedAt = s.now()
	s.token = uuid.New()

	// Restart while already playing is a same-state event; the machine
	// reports it as no transition, which is fine here.
	if err := s.machine.Event(context.Background(), "start"); err != nil {
		if _, ok := err.(fsm.NoTransitionError); !ok {
			return err
		}
	}
	return nil
}

// Close tears the session down: lock cleared, counters zeroed, token
// rotated so pending timers cannot reach the discarded deck.
func (s *Session) Close() {
	s.Cards = nil
	s.PairCount = 0
	s.Moves = 0
	s.MatchedPairs = 0
	s.Elapsed = 0
	s.Resolving = false
	s.flipped = s.flipped[:0]
	s.token = uuid.New()
	_ = s.machine.Event(context.Background(), "close")
	s.log.Debug("session closed")
}

// HandleTap advances the game on one logical tap. Taps are no-ops while a
// mismatch is resolving, while two cards are already up, on a card that is
// already up, and on matched cards.
func (s *Session) HandleTap(id int) TapOutcome {
	if s.Status() != StatusPlaying {
		return TapIgnored
	}
	if s.Resolving || len(s.flipped) >= 2 {
		return TapIgnored
	}
	for _, fid := range s.flipped {
		if fid == id {
			return TapIgnored
		}
	}
	card := s.card(id)
	if card == nil || card.Face == deck.FaceMatched {
		return TapIgnored
	}

	card.Face = deck.FaceFlipped
	s.flipped = append(s.flipped, id)
	if len(s.flipped) == 1 {
		return TapFirstFlip
	}

	// Second flip completes a comparison.
	s.Moves++
	first := s.card(s.flipped[0])

	if first.ImageURL == card.ImageURL {
		first.Face = deck.FaceMatched
		card.Face = deck.FaceMatched
		s.flipped = s.flipped[:0]
		s.MatchedPairs++
		if s.MatchedPairs == s.PairCount {
			_ = s.machine.Event(context.Background(), "finish")
			return TapCompleted
		}
		return TapMatch
	}

	// Hold the lock until the host's delayed resolve lands; flipped keeps
	// both ids so the mismatch stays visible meanwhile.
	s.Resolving = true
	return TapMismatch
}

// ResolveMismatch flips a mismatched pair back down. Called by the host
// after MismatchDelay; a stale token means the game it belonged to is gone
// and the callback is dropped.
func (s *Session) ResolveMismatch(token uuid.UUID) {
	if token != s.token {
		s.log.Debug("dropping stale mismatch resolution", zap.String("token", token.String()))
		return
	}
	if !s.Resolving {
		return
	}

	for _, id := range s.flipped {
		if c := s.card(id); c != nil && c.Face == deck.FaceFlipped {
			c.Face = deck.FaceHidden
		}
	}
	s.flipped = s.flipped[:0]
	s.Resolving = false
}

// HandleTick recomputes elapsed whole seconds while playing. Stale or
// post-completion ticks write nothing.
func (s *Session) HandleTick(token uuid.UUID) {
	if token != s.token {
		s.log.Debug("dropping stale tick", zap.String("token", token.String()))
		return
	}
	if s.Status() != StatusPlaying {
		return
	}
	s.Elapsed = int(s.now().Sub(s.startedAt) / time.Second)
}

// FlippedCount reports how many unmatched cards are currently face up.
func (s *Session) FlippedCount() int {
	return len(s.flipped)
}

// IsFlipped reports whether the card id is in the current flipped set.
func (s *Session) IsFlipped(id int) bool {
	for _, fid := range s.flipped {
		if fid == id {
			return true
		}
	}
	return false
}

// card ids double as deck indices; out-of-range ids return nil.
func (s *Session) card(id int) *deck.Card {
	if id < 0 || id >= len(s.Cards) {
		return nil
	}
	return &s.Cards[id]
}
