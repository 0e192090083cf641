package session

import "github.com/runoshun/taskstream/internal/domain"

// Snapshot is the state of a Controller at one point in time.
// Fields are ordered to minimize memory padding.
type Snapshot struct {
	Prompt     string            // Prompt of the current or last session
	Err        string            // Error detail shown to the user (may be empty on failure)
	Tasks      domain.Collection // Owned by the snapshot; safe to keep
	SessionID  int               // 0 before the first Start
	State      domain.SessionState
	InProgress bool // Loading indicator
	Failed     bool // Session ended with a producer or transport error
}

// Publisher receives snapshots after every state change.
// Publish is called with the Controller's lock held and must not call back
// into the Controller.
type Publisher interface {
	Publish(s Snapshot)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Snapshot)

// Publish calls f(s).
func (f PublisherFunc) Publish(s Snapshot) { f(s) }

// ChannelPublisher hands snapshots to a single consumer through a one-slot
// channel. When the consumer lags, an unread snapshot is replaced by the
// newer one, so Publish never blocks.
type ChannelPublisher struct {
	ch chan Snapshot
}

// NewChannelPublisher creates a ChannelPublisher.
func NewChannelPublisher() *ChannelPublisher {
	return &ChannelPublisher{ch: make(chan Snapshot, 1)}
}

// Publish stores s, dropping any snapshot not yet received.
func (p *ChannelPublisher) Publish(s Snapshot) {
	for {
		select {
		case p.ch <- s:
			return
		default:
		}
		select {
		case <-p.ch:
		default:
		}
	}
}

// C returns the channel snapshots are delivered on.
func (p *ChannelPublisher) C() <-chan Snapshot {
	return p.ch
}

type nopPublisher struct{}

func (nopPublisher) Publish(Snapshot) {}
