// Package dedup implements the time-windowed duplicate suppressor
// (component D). Fingerprinting follows the membership-hash pattern in
// the teacher's jsonfilter.go ("filters[fieldname][highwayhash.Sum128(data,
// key)] = x"), swapping the per-field filter set for a single
// time-stamped fingerprint map.
package dedup

import (
	"crypto/rand"
	"strconv"
	"sync"
	"time"

	"github.com/minio/highwayhash"
)

const (
	// DefaultWindow is how long a fingerprint suppresses repeats.
	DefaultWindow = 600 * time.Second
	// DefaultMaxEntries bounds the fingerprint map's size.
	DefaultMaxEntries = 100000
)

type fingerprint [highwayhash.Size128]byte

// Deduplicator suppresses records seen again within Window of their
// first arrival. It is safe for concurrent use.
type Deduplicator struct {
	mtx        sync.Mutex
	seen       map[fingerprint]time.Time
	key        []byte
	window     time.Duration
	maxEntries int
	now        func() time.Time
}

// Option configures a Deduplicator at construction time.
type Option func(*Deduplicator)

// WithWindow overrides the default suppression window.
func WithWindow(d time.Duration) Option {
	return func(dd *Deduplicator) { dd.window = d }
}

// WithMaxEntries overrides the default fingerprint cap.
func WithMaxEntries(n int) Option {
	return func(dd *Deduplicator) { dd.maxEntries = n }
}

// withClock overrides the time source; used by tests to control
// window expiry deterministically.
func withClock(now func() time.Time) Option {
	return func(dd *Deduplicator) { dd.now = now }
}

// New returns a ready-to-use Deduplicator with a fresh random hashing
// key, so fingerprints are not predictable across process restarts.
func New(opts ...Option) *Deduplicator {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		// crypto/rand failing is catastrophic for the whole process;
		// a zero key still produces a stable (if guessable) hash
		// rather than crashing the collector over this alone.
		key = make([]byte, 32)
	}
	dd := &Deduplicator{
		seen:       make(map[fingerprint]time.Time),
		key:        key,
		window:     DefaultWindow,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(dd)
	}
	return dd
}

// Accept reports whether a record with the given source IP, priority,
// and message should be written. First-seen wins: a later duplicate
// within the window does not refresh its expiry.
func (d *Deduplicator) Accept(sourceIP string, priority int, message string) bool {
	fp := d.fingerprint(sourceIP, priority, message)
	now := d.now()

	d.mtx.Lock()
	defer d.mtx.Unlock()

	d.evictExpiredLocked(now)

	if _, dup := d.seen[fp]; dup {
		return false
	}
	d.seen[fp] = now
	if len(d.seen) > d.maxEntries {
		d.evictExpiredLocked(now)
		if len(d.seen) > d.maxEntries {
			d.evictOldestLocked()
		}
	}
	return true
}

func (d *Deduplicator) fingerprint(sourceIP string, priority int, message string) fingerprint {
	data := make([]byte, 0, len(sourceIP)+len(message)+8)
	data = append(data, sourceIP...)
	data = append(data, 0)
	data = strconv.AppendInt(data, int64(priority), 10)
	data = append(data, 0)
	data = append(data, message...)
	return highwayhash.Sum128(data, d.key)
}

func (d *Deduplicator) evictExpiredLocked(now time.Time) {
	for fp, t := range d.seen {
		if now.Sub(t) > d.window {
			delete(d.seen, fp)
		}
	}
}

func (d *Deduplicator) evictOldestLocked() {
	for len(d.seen) > d.maxEntries {
		var oldestFP fingerprint
		var oldestT time.Time
		first := true
		for fp, t := range d.seen {
			if first || t.Before(oldestT) {
				oldestFP, oldestT, first = fp, t, false
			}
		}
		if first {
			return
		}
		delete(d.seen, oldestFP)
	}
}

// Len reports the current number of tracked fingerprints. Exposed for
// tests and diagnostics.
func (d *Deduplicator) Len() int {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return len(d.seen)
}
