package replay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/rallyscope/internal/models"
)

// StatusUpdate is one match's processing state as reported by the server.
type StatusUpdate struct {
	MatchID     uuid.UUID
	Status      models.MatchStatus
	ProcessedAt *time.Time
}

// StatusSource answers batch status queries. Matches unknown to the server
// are simply absent from the reply.
type StatusSource interface {
	Statuses(ctx context.Context, ids []uuid.UUID) ([]StatusUpdate, error)
}

// TerminalFunc runs exactly once per match when the poller first observes a
// terminal status for it. The match is untracked before the callback fires,
// so a slow refresh never causes a second invocation.
type TerminalFunc func(ctx context.Context, id uuid.UUID, status models.MatchStatus)

// Poller watches every tracked non-terminal match with a single shared
// ticker, one batch request per tick regardless of how many matches are in
// flight. Ticks issue no request while nothing non-terminal is tracked, and a
// failed or timed-out request skips the tick rather than tightening the loop.
type Poller struct {
	source     StatusSource
	interval   time.Duration
	timeout    time.Duration
	onTerminal TerminalFunc

	mu      sync.Mutex
	tracked map[uuid.UUID]struct{}
}

func NewPoller(source StatusSource, interval, timeout time.Duration, onTerminal TerminalFunc) *Poller {
	return &Poller{
		source:     source,
		interval:   interval,
		timeout:    timeout,
		onTerminal: onTerminal,
		tracked:    make(map[uuid.UUID]struct{}),
	}
}

// Track starts watching a match. Tracking an id twice is a no-op.
func (p *Poller) Track(id uuid.UUID) {
	p.mu.Lock()
	p.tracked[id] = struct{}{}
	p.mu.Unlock()
}

// Untrack stops watching a match, typically because the user discarded it.
func (p *Poller) Untrack(id uuid.UUID) {
	p.mu.Lock()
	delete(p.tracked, id)
	p.mu.Unlock()
}

// TrackedCount reports how many matches are still being watched.
func (p *Poller) TrackedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tracked)
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll performs one polling round: a single batch status request covering
// every tracked match. Exported so tests and manual refresh paths can drive
// rounds without a ticker.
func (p *Poller) Poll(ctx context.Context) {
	ids := p.snapshot()
	if len(ids) == 0 {
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	updates, err := p.source.Statuses(reqCtx, ids)
	if err != nil {
		slog.Warn("status poll skipped", "matches", len(ids), "error", err)
		return
	}

	seen := make(map[uuid.UUID]bool, len(updates))
	for _, update := range updates {
		seen[update.MatchID] = true
		if !update.Status.Terminal() {
			continue
		}
		if p.untrackIfTracked(update.MatchID) {
			slog.Info("match reached terminal status",
				"match_id", update.MatchID, "status", update.Status)
			if p.onTerminal != nil {
				p.onTerminal(ctx, update.MatchID, update.Status)
			}
		}
	}

	// A match absent from the reply no longer exists server-side; retrying
	// cannot bring it back.
	for _, id := range ids {
		if !seen[id] && p.untrackIfTracked(id) {
			slog.Warn("tracked match no longer exists", "match_id", id)
		}
	}
}

func (p *Poller) snapshot() []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(p.tracked))
	for id := range p.tracked {
		ids = append(ids, id)
	}
	return ids
}

func (p *Poller) untrackIfTracked(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.tracked[id]; !ok {
		return false
	}
	delete(p.tracked, id)
	return true
}
