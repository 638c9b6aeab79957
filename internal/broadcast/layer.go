package broadcast

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/alanbriolat/video-grabber/generic"
	"github.com/alanbriolat/video-grabber/internal/pubsub"
)

const DefaultMemberBufSize = 16

var (
	ErrLayerClosed = errors.New("broadcast layer closed")
)

// Layer routes events to named groups. Sending never waits on slow members: each member has its own buffer, and
// events that don't fit are dropped for that member.
type Layer struct {
	mu     sync.RWMutex
	groups map[string]pubsub.Publisher[Event]
	closed bool
	log    *zap.SugaredLogger
}

func NewLayer() *Layer {
	return &Layer{
		groups: make(map[string]pubsub.Publisher[Event]),
		log:    zap.S().Named("broadcast"),
	}
}

// GroupSend publishes the event to every current member of the group. It only returns false once the Layer is closed.
func (l *Layer) GroupSend(group string, event Event) bool {
	// Held for the whole send, so Close can't close the group underneath it
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return false
	}
	g, ok := l.groups[group]
	if !ok {
		// Nobody has ever joined, nothing to do
		return true
	}
	return g.Send(event)
}

// GroupAdd joins a group, receiving every event sent to it from now on. Closing the receiver leaves the group.
func (l *Layer) GroupAdd(group string, bufSize int) (pubsub.ReceiverCloser[Event], error) {
	return l.groupAdd(group, bufSize, nil)
}

// GroupAddTypes is like GroupAdd, but only events of the listed types are received.
func (l *Layer) GroupAddTypes(group string, bufSize int, types ...string) (pubsub.ReceiverCloser[Event], error) {
	accepted := generic.NewSet(types...)
	return l.groupAdd(group, bufSize, func(e Event) bool {
		return accepted.Contains(e.Type)
	})
}

func (l *Layer) groupAdd(group string, bufSize int, filter func(Event) bool) (pubsub.ReceiverCloser[Event], error) {
	if bufSize <= 0 {
		bufSize = DefaultMemberBufSize
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrLayerClosed
	}
	g, ok := l.groups[group]
	if !ok {
		g = pubsub.NewPublisher[Event]()
		l.groups[group] = g
	}
	member := pubsub.NewChannel[Event](bufSize)
	var sender pubsub.SenderCloser[Event] = pubsub.NewLossySender(member)
	if filter != nil {
		sender = pubsub.NewFilteredSender(sender, filter)
	}
	if err := g.AddSubscriber(sender, true); err != nil {
		return nil, err
	}
	l.log.Debugf("%v: member added (%d members)", group, g.Count())
	return member, nil
}

// Members returns the number of members of the group, including ones that have left but not yet been noticed.
func (l *Layer) Members(group string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if g, ok := l.groups[group]; ok {
		return g.Count()
	}
	return 0
}

// Close ends every group, closing all member receivers.
func (l *Layer) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	groups := l.groups
	l.groups = nil

	var wg sync.WaitGroup
	wg.Add(len(groups))
	for _, g := range groups {
		go func(g pubsub.Publisher[Event]) {
			defer wg.Done()
			g.Close()
		}(g)
	}
	wg.Wait()
}
