package sync_

import (
	"errors"
	"sync"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

var _ Mutexer[int] = NewMutexed(123)
var _ Mutexer[int] = NewRWMutexed(123)
var _ RMutexer[int] = NewRWMutexed(123).RMutexer()

func TestMutexed(t *testing.T) {
	assert := assert_.New(t)
	m := NewMutexed(map[string]bool{"a": true})
	errStop := errors.New("stop")

	err := m.Locked(func(v *map[string]bool) error {
		(*v)["b"] = true
		return errStop
	})
	assert.ErrorIs(err, errStop)
	assert.Len(m.Get(), 2)

	old := m.Swap(nil)
	assert.Equal(map[string]bool{"a": true, "b": true}, old)
	assert.Nil(m.Get())
	m.Set(map[string]bool{})
	assert.NotNil(m.Get())
}

func TestRWMutexedReader(t *testing.T) {
	assert := assert_.New(t)
	rw := NewRWMutexed("link")
	r := rw.RMutexer()
	assert.Equal("link", r.Get())

	var seen string
	assert.NoError(rw.RLocked(func(v *string) error {
		seen = *v
		return nil
	}))
	assert.Equal("link", seen)

	rw.Set("")
	assert.Equal("", r.Get())
}

func TestConcurrentWriters(t *testing.T) {
	assert := assert_.New(t)
	rw := NewRWMutexed(make(map[int]int))
	start := make(chan struct{})
	wg := sync.WaitGroup{}

	// 20 writers each bump 20 keys 10 times, while 20 readers count keys
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 200; j++ {
				_ = rw.Locked(func(v *map[int]int) error {
					(*v)[j%20]++
					return nil
				})
			}
		}()
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 200; j++ {
				_ = rw.RLocked(func(v *map[int]int) error {
					_ = len(*v)
					return nil
				})
			}
		}()
	}

	close(start)
	wg.Wait()

	total := 0
	for _, n := range rw.Get() {
		total += n
	}
	assert.Equal(4000, total)
	assert.Len(rw.Get(), 20)
}
