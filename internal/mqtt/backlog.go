package mqtt

import "github.com/sirupsen/logrus"

// pending is a serialized message waiting for the broker to come back.
type pending struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog queues telemetry while the broker is unreachable. When full, the
// oldest message is dropped. Not safe for concurrent use; callers
// synchronize.
type backlog struct {
	msgs    []pending
	max     int
	dropped bool // a drop was already logged since the last drain
}

func newBacklog(max int) *backlog {
	return &backlog{max: max}
}

func (b *backlog) push(m pending) {
	if len(b.msgs) == b.max {
		if !b.dropped {
			logrus.Warnf("mqtt: backlog full (%d messages), dropping oldest", b.max)
			b.dropped = true
		}
		copy(b.msgs, b.msgs[1:])
		b.msgs = b.msgs[:b.max-1]
	}
	b.msgs = append(b.msgs, m)
}

// drainAll returns the queued messages oldest first and empties the backlog.
func (b *backlog) drainAll() []pending {
	if len(b.msgs) == 0 {
		return nil
	}
	out := b.msgs
	b.msgs = nil
	b.dropped = false
	return out
}

func (b *backlog) len() int {
	return len(b.msgs)
}
