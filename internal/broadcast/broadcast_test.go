package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"

	"github.com/alanbriolat/video-grabber"
)

func TestPercentageOfCompletion(t *testing.T) {
	assert := assert_.New(t)
	assert.Equal(100.0, PercentageOfCompletion(100, 0))
	assert.Equal(0.0, PercentageOfCompletion(100, 100))
	assert.Equal(25.0, PercentageOfCompletion(200, 150))
	assert.Equal(0.0, PercentageOfCompletion(0, 0))
	assert.Equal(0.0, PercentageOfCompletion(-1, 10))
}

func receiveOne(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require_.True(t, ok, "receiver closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestGroupSend(t *testing.T) {
	assert := assert_.New(t)
	layer := NewLayer()
	defer layer.Close()

	// Nobody listening yet
	assert.True(layer.GroupSend(ProgressGroup, NewProgressUpdate(1)))

	r1, err := layer.GroupAdd(ProgressGroup, 0)
	assert.NoError(err)
	r2, err := layer.GroupAdd(ProgressGroup, 0)
	assert.NoError(err)
	other, err := layer.GroupAdd("other", 0)
	assert.NoError(err)
	assert.Equal(2, layer.Members(ProgressGroup))

	for _, p := range []float64{10, 20, 30} {
		assert.True(layer.GroupSend(ProgressGroup, NewProgressUpdate(p)))
	}
	for _, r := range []<-chan Event{r1.Receive(), r2.Receive()} {
		assert.Equal(10.0, receiveOne(t, r).PercentageOfCompletion)
		assert.Equal(20.0, receiveOne(t, r).PercentageOfCompletion)
		assert.Equal(30.0, receiveOne(t, r).PercentageOfCompletion)
	}
	select {
	case e := <-other.Receive():
		t.Fatalf("unexpected event in other group: %v", e)
	default:
	}
}

func TestGroupAddTypes(t *testing.T) {
	assert := assert_.New(t)
	layer := NewLayer()
	defer layer.Close()

	r, err := layer.GroupAddTypes(ProgressGroup, 0, ProgressUpdate)
	assert.NoError(err)
	layer.GroupSend(ProgressGroup, Event{Type: "something_else"})
	layer.GroupSend(ProgressGroup, NewProgressUpdate(50))
	e := receiveOne(t, r.Receive())
	assert.Equal(ProgressUpdate, e.Type)
	assert.Equal(50.0, e.PercentageOfCompletion)
}

func TestSlowMemberDoesNotBlock(t *testing.T) {
	assert := assert_.New(t)
	layer := NewLayer()

	slow, err := layer.GroupAdd(ProgressGroup, 1)
	assert.NoError(err)
	sent := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			layer.GroupSend(ProgressGroup, NewProgressUpdate(float64(i)))
		}
		close(sent)
	}()
	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("GroupSend blocked on a full member")
	}
	layer.Close()
	// Some events were dropped, but what did arrive is in order
	last := -1.0
	for e := range slow.Receive() {
		assert.Greater(e.PercentageOfCompletion, last)
		last = e.PercentageOfCompletion
	}
}

func TestClose(t *testing.T) {
	assert := assert_.New(t)
	layer := NewLayer()
	r, err := layer.GroupAdd(ProgressGroup, 0)
	assert.NoError(err)

	layer.Close()
	layer.Close()
	_, ok := <-r.Receive()
	assert.False(ok)
	assert.False(layer.GroupSend(ProgressGroup, NewProgressUpdate(1)))
	_, err = layer.GroupAdd(ProgressGroup, 0)
	assert.ErrorIs(err, ErrLayerClosed)
}

func TestReporter(t *testing.T) {
	assert := assert_.New(t)
	layer := NewLayer()
	defer layer.Close()
	r, err := layer.GroupAdd(ProgressGroup, 0)
	assert.NoError(err)

	reporter := NewReporter(layer, "")
	stream := &video_grabber.Stream{ID: "18", Filesize: 100}
	assert.Equal(0.0, reporter.OnProgress(stream, 100))
	assert.Equal(100.0, reporter.OnProgress(stream, 0))
	reporter.ProgressFunc()(30, 120)

	assert.Equal(NewProgressUpdate(0), receiveOne(t, r.Receive()))
	assert.Equal(NewProgressUpdate(100), receiveOne(t, r.Receive()))
	assert.Equal(NewProgressUpdate(75), receiveOne(t, r.Receive()))
}

func TestConsumer(t *testing.T) {
	assert := assert_.New(t)
	layer := NewLayer()
	progress, err := layer.GroupAdd(ProgressGroup, 0)
	assert.NoError(err)
	other, err := layer.GroupAdd("other", 0)
	assert.NoError(err)

	var seen []float64
	consumer := NewConsumer().Handle(ProgressUpdate, func(ctx context.Context, e Event) error {
		seen = append(seen, e.PercentageOfCompletion)
		return nil
	})
	layer.GroupSend(ProgressGroup, NewProgressUpdate(10))
	layer.GroupSend("other", Event{Type: "unknown"})
	layer.GroupSend(ProgressGroup, NewProgressUpdate(90))

	result := make(chan error, 1)
	go func() { result <- consumer.Run(context.Background(), progress, other) }()
	// Closing the layer closes both receivers, which ends Run once their events are handled
	layer.Close()
	select {
	case err := <-result:
		assert.NoError(err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.Equal([]float64{10, 90}, seen)
}

func TestConsumerHandlerError(t *testing.T) {
	assert := assert_.New(t)
	layer := NewLayer()
	defer layer.Close()
	r, err := layer.GroupAdd(ProgressGroup, 0)
	assert.NoError(err)

	errStop := errors.New("stop")
	consumer := NewConsumer().Handle(ProgressUpdate, func(ctx context.Context, e Event) error {
		return errStop
	})
	layer.GroupSend(ProgressGroup, NewProgressUpdate(1))
	err = consumer.Run(context.Background(), r)
	assert.ErrorIs(err, errStop)
	// Run closed the receiver on the way out
	select {
	case <-r.Closed():
	case <-time.After(time.Second):
		t.Fatal("receiver not closed")
	}
}

func TestConsumerContextCancel(t *testing.T) {
	assert := assert_.New(t)
	layer := NewLayer()
	defer layer.Close()
	r, err := layer.GroupAdd(ProgressGroup, 0)
	assert.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(NewConsumer().Run(ctx, r), context.Canceled)
}
