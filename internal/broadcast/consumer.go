package broadcast

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/alanbriolat/video-grabber/internal/pubsub"
)

type HandlerFunc func(ctx context.Context, event Event) error

// Consumer dispatches events to handlers by Event.Type.
type Consumer struct {
	handlers map[string]HandlerFunc
	log      *zap.SugaredLogger
}

func NewConsumer() *Consumer {
	return &Consumer{
		handlers: make(map[string]HandlerFunc),
		log:      zap.S().Named("consumer"),
	}
}

// Handle registers the handler for an event type, replacing any previous one.
func (c *Consumer) Handle(eventType string, h HandlerFunc) *Consumer {
	c.handlers[eventType] = h
	return c
}

// Run consumes events from the receivers until they are all closed, the context is cancelled, or a handler fails.
// The receivers are closed when Run returns.
func (c *Consumer) Run(ctx context.Context, receivers ...pubsub.ReceiverCloser[Event]) error {
	merged := pubsub.NewMerger[Event]()
	defer merged.Close()
	// Each input is finished once everything it delivered has been handed to the merger
	var inputs sync.WaitGroup
	inputs.Add(len(receivers))
	for _, r := range receivers {
		r := r
		if !merged.AddPrimitive(r.Receive(), func() {
			r.Close()
			inputs.Done()
		}) {
			inputs.Done()
		}
	}
	done := make(chan struct{})
	go func() {
		inputs.Wait()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-merged.Receive():
			if err := c.dispatch(ctx, event); err != nil {
				return err
			}
		case <-done:
			// Deliver whatever is still buffered in the merger
			for {
				select {
				case event := <-merged.Receive():
					if err := c.dispatch(ctx, event); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, event Event) error {
	h, ok := c.handlers[event.Type]
	if !ok {
		c.log.Debugf("dropping event of unknown type %q", event.Type)
		return nil
	}
	if err := h(ctx, event); err != nil {
		return fmt.Errorf("%v handler: %w", event.Type, err)
	}
	return nil
}
