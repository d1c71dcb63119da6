package clipboard

import (
	"errors"
	"time"
)

// transferTimeout bounds every wait on another client during a selection
// transfer.
const transferTimeout = 5 * time.Second

const (
	minChunk = 4096
	// changePropertyHeader is the fixed part of a ChangeProperty request.
	changePropertyHeader = 24
)

var (
	errTimeout = errors.New("clipboard transfer timed out")
	errClosed  = errors.New("clipboard connection closed")
)

// chunkLimit returns how many payload bytes fit in one property write for a
// server whose maximum request length is maxRequestLength 4-byte units.
// Payloads above the limit are sent incrementally.
func chunkLimit(maxRequestLength uint16) int {
	n := int(maxRequestLength)*4 - changePropertyHeader
	n -= n % 4
	return max(minChunk, n)
}

// incrTransfer is one incremental send in progress. The requestor deletes
// the property after reading each piece and every deletion is answered with
// the next piece. An empty piece ends the transfer.
type incrTransfer struct {
	data    []byte
	sent    int
	chunk   int
	touched time.Time
}

func newIncrTransfer(data []byte, chunk int, now time.Time) *incrTransfer {
	return &incrTransfer{data: data, chunk: max(chunk, 1), touched: now}
}

// next returns the piece to write after the requestor consumed the previous
// one. done is true together with the terminating empty piece.
func (t *incrTransfer) next(now time.Time) (piece []byte, done bool) {
	t.touched = now
	if t.sent >= len(t.data) {
		return nil, true
	}
	end := min(t.sent+t.chunk, len(t.data))
	piece = t.data[t.sent:end]
	t.sent = end
	return piece, false
}

// transferKey names the requestor window and property a transfer writes to.
type transferKey struct {
	requestor uint32
	property  uint32
}

type transfers map[transferKey]*incrTransfer

// expire drops transfers whose requestor stopped reading and returns them.
func (ts transfers) expire(now time.Time) []transferKey {
	var stale []transferKey
	for k, t := range ts {
		if now.Sub(t.touched) > transferTimeout {
			delete(ts, k)
			stale = append(stale, k)
		}
	}
	return stale
}

// awaitEvent returns the first event from events accepted by match,
// dropping the rest. It fails when events is closed or nothing matches
// within timeout.
func awaitEvent[T any](events <-chan T, timeout time.Duration, match func(T) bool) (T, error) {
	var zero T
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return zero, errClosed
			}
			if match(ev) {
				return ev, nil
			}
		case <-timer.C:
			return zero, errTimeout
		}
	}
}
