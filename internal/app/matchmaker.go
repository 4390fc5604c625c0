package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/duetchat/duet/internal/core"
	"github.com/duetchat/duet/internal/domain"
)

// Matchmaker owns the queue and the periodic pairing tick. It also
// remembers each identity's last matchmaking profile so the callEnded
// path can re-enqueue without the client restating its preference.
type Matchmaker struct {
	queue    *Queue
	registry *Registry
	interval time.Duration

	mu       sync.Mutex
	profiles map[string]domain.QueueEntry
}

func NewMatchmaker(queue *Queue, registry *Registry, interval time.Duration) *Matchmaker {
	if interval <= 0 {
		interval = 600 * time.Millisecond
	}
	return &Matchmaker{
		queue:    queue,
		registry: registry,
		interval: interval,
		profiles: make(map[string]domain.QueueEntry),
	}
}

// Run drives the pairing ticker until ctx is done. One goroutine runs
// the loop, so a tick can never overlap the previous one.
func (m *Matchmaker) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	log.Info().Str("module", "app.matchmaker").Dur("interval", m.interval).Msg("matchmaker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.matchmaker").Msg("matchmaker stopped")
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Tick runs one pairing pass: at most one pair per tick, removed from
// the queue atomically by TryMatch. Notification is best-effort — a side
// that disconnected between matching and delivery is simply dropped and
// never aborts the tick.
func (m *Matchmaker) Tick() (domain.Match, bool) {
	a, b, ok := m.queue.TryMatch()
	if !ok {
		return domain.Match{}, false
	}
	match := domain.Match{Room: uuid.NewString(), Initiator: a, Responder: b}
	log.Info().Str("module", "app.matchmaker").
		Str("room", match.Room).
		Str("initiator", a.Identity).
		Str("responder", b.Identity).
		Msg("matched pair")

	m.notify(a.Identity, core.NewCallMatched(match.Room, true))
	m.notify(b.Identity, core.NewCallMatched(match.Room, false))
	return match, true
}

func (m *Matchmaker) notify(identity string, ev core.CallMatched) {
	sess, ok := m.registry.Lookup(identity)
	if !ok {
		log.Warn().Str("module", "app.matchmaker").Str("identity", identity).Msg("matched identity has no live session, dropping delivery")
		return
	}
	if err := sess.Conn.Send(ev); err != nil {
		log.Warn().Err(err).Str("module", "app.matchmaker").Str("identity", identity).Msg("callMatched delivery failed")
	}
}

// Join enqueues the entry and remembers its profile for callEnded. Any
// earlier entry for the same identity is removed first, so an identity
// never holds more than one queue slot; a stale slot would outlive its
// session and still be matchable.
func (m *Matchmaker) Join(e domain.QueueEntry) (male, female, other int) {
	m.mu.Lock()
	m.profiles[e.Identity] = e
	m.mu.Unlock()
	m.queue.Remove(e.Identity)
	m.queue.Enqueue(e)
	return m.queue.Counts()
}

// Leave removes the identity from the queue; the remembered profile
// stays so a later callEnded can still re-enqueue.
func (m *Matchmaker) Leave(identity string) bool {
	return m.queue.Remove(identity)
}

// CallEnded re-enqueues the identity under its remembered profile. This
// is a caller-invoked path, distinct from the pairing algorithm: a
// dropped callMatched delivery never re-enqueues anyone by itself.
func (m *Matchmaker) CallEnded(identity string) (male, female, other int, ok bool) {
	m.mu.Lock()
	e, found := m.profiles[identity]
	m.mu.Unlock()
	if !found {
		return 0, 0, 0, false
	}
	m.queue.Remove(identity)
	m.queue.Enqueue(e)
	male, female, other = m.queue.Counts()
	return male, female, other, true
}

// Forget clears queue membership and the remembered profile. Called on
// disconnect.
func (m *Matchmaker) Forget(identity string) {
	m.queue.Remove(identity)
	m.mu.Lock()
	delete(m.profiles, identity)
	m.mu.Unlock()
}
