package pubsub

// NewLossySender wraps a Channel so that Send never blocks: messages that don't fit in the channel's buffer are
// dropped. Send still reports false once the channel is closed.
func NewLossySender[T any](ch Channel[T]) SenderCloser[T] {
	return &lossySender[T]{Channel: ch}
}

type lossySender[T any] struct {
	Channel[T]
	dropped uint64
}

func (s *lossySender[T]) Send(msg T) bool {
	sent, open := s.Channel.TrySend(msg)
	if open && !sent {
		// Only ever touched from the publisher goroutine
		s.dropped++
	}
	return open
}
