package app

import (
	"sync"

	"github.com/duetchat/duet/internal/domain"
)

// Queue holds identities waiting for an anonymous call, partitioned by
// the entry's own gender. Partitions are FIFO and scanned in the fixed
// order male, female, other.
type Queue struct {
	mu         sync.Mutex
	partitions map[domain.Gender][]domain.QueueEntry
}

func NewQueue() *Queue {
	return &Queue{partitions: make(map[domain.Gender][]domain.QueueEntry)}
}

// Enqueue appends the entry to its own gender's partition. Duplicate
// detection is caller discipline: leave before re-joining, or rely on
// disconnect cleanup.
func (q *Queue) Enqueue(e domain.QueueEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.partitions[e.Gender] = append(q.partitions[e.Gender], e)
}

// Remove drops the identity from whichever partition holds it.
func (q *Queue) Remove(identity string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, g := range domain.Genders {
		part := q.partitions[g]
		for i, e := range part {
			if e.Identity == identity {
				q.partitions[g] = append(part[:i], part[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Counts reports the partition sizes in fixed order.
func (q *Queue) Counts() (male, female, other int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.partitions[domain.GenderMale]),
		len(q.partitions[domain.GenderFemale]),
		len(q.partitions[domain.GenderOther])
}

// TryMatch scans for the first compatible pair and removes both entries
// under the same lock acquisition, so no entry can be matched twice.
//
// The compatibility test is evaluated from the candidate's perspective
// only: b must accept a's gender, while a's own preference merely picks
// which partitions are searched and is never re-checked against b. The
// check is deliberately not symmetric; callers and tests rely on this
// exact contract.
func (q *Queue) TryMatch() (a, b domain.QueueEntry, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, ga := range domain.Genders {
		for _, cand := range q.partitions[ga] {
			if cand.Preference == domain.PreferAny {
				for _, gb := range domain.Genders {
					if peer, found := q.pick(gb, cand); found {
						q.removeLocked(cand.Identity)
						q.removeLocked(peer.Identity)
						return cand, peer, true
					}
				}
			} else {
				if peer, found := q.pick(domain.Gender(cand.Preference), cand); found {
					q.removeLocked(cand.Identity)
					q.removeLocked(peer.Identity)
					return cand, peer, true
				}
			}
		}
	}
	return domain.QueueEntry{}, domain.QueueEntry{}, false
}

// pick returns the first entry in partition g, other than a itself,
// whose preference accepts a's gender. Caller holds the lock.
func (q *Queue) pick(g domain.Gender, a domain.QueueEntry) (domain.QueueEntry, bool) {
	for _, e := range q.partitions[g] {
		if e.Identity == a.Identity {
			continue
		}
		if e.Preference.Accepts(a.Gender) {
			return e, true
		}
	}
	return domain.QueueEntry{}, false
}

func (q *Queue) removeLocked(identity string) {
	for _, g := range domain.Genders {
		part := q.partitions[g]
		for i, e := range part {
			if e.Identity == identity {
				q.partitions[g] = append(part[:i], part[i+1:]...)
				return
			}
		}
	}
}
