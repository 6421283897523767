package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus(t *testing.T) {
	t.Run("delivers in subscription order", func(t *testing.T) {
		bus := New()
		var got []string
		bus.Subscribe(func(k Kind) { got = append(got, "first:"+string(k)) })
		bus.Subscribe(func(k Kind) { got = append(got, "second:"+string(k)) })

		bus.Publish(Songs, Performances)

		assert.Equal(t, []string{
			"first:songs", "second:songs",
			"first:performances", "second:performances",
		}, got)
	})

	t.Run("repeated kinds are delivered once", func(t *testing.T) {
		bus := New()
		var got []Kind
		bus.Subscribe(func(k Kind) { got = append(got, k) })

		bus.Publish(Singers, Singers, Songs)

		assert.Equal(t, []Kind{Singers, Songs}, got)
	})

	t.Run("unsubscribe", func(t *testing.T) {
		bus := New()
		calls := 0
		unsubscribe := bus.Subscribe(func(Kind) { calls++ })

		bus.Publish(Singers)
		unsubscribe()
		unsubscribe()
		bus.Publish(Singers)

		assert.Equal(t, 1, calls)
		assert.Zero(t, bus.Len())
	})

	t.Run("subscribe during delivery applies next time", func(t *testing.T) {
		bus := New()
		late := 0
		bus.Subscribe(func(Kind) {
			bus.Subscribe(func(Kind) { late++ })
		})

		bus.Publish(Songs)
		assert.Zero(t, late)
		bus.Publish(Songs)
		assert.Equal(t, 1, late)
	})

	t.Run("nil bus publishes nothing", func(t *testing.T) {
		var bus *Bus
		assert.NotPanics(t, func() { bus.Publish(Songs) })
	})

	t.Run("channel drops when full", func(t *testing.T) {
		bus := New()
		ch, unsubscribe := bus.Channel(1)
		defer unsubscribe()

		bus.Publish(Singers, Songs)

		assert.Equal(t, Singers, <-ch)
		assert.Empty(t, ch)
	})
}
