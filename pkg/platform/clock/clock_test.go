package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual_Now(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewManual(start)
	assert.Equal(t, start, c.Now())

	c.Advance(30 * time.Second)
	assert.Equal(t, start.Add(30*time.Second), c.Now())
}

func TestManual_AfterFunc(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fires once deadline is reached", func(t *testing.T) {
		c := NewManual(start)
		fired := 0
		c.AfterFunc(time.Minute, func() { fired++ })

		c.Advance(59 * time.Second)
		assert.Equal(t, 0, fired)

		c.Advance(time.Second)
		assert.Equal(t, 1, fired)

		c.Advance(time.Hour)
		assert.Equal(t, 1, fired, "timers fire once")
	})

	t.Run("fires in deadline order", func(t *testing.T) {
		c := NewManual(start)
		var order []string
		c.AfterFunc(2*time.Second, func() { order = append(order, "second") })
		c.AfterFunc(time.Second, func() { order = append(order, "first") })

		c.Advance(5 * time.Second)
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("stopped timer never fires", func(t *testing.T) {
		c := NewManual(start)
		fired := false
		timer := c.AfterFunc(time.Second, func() { fired = true })

		assert.True(t, timer.Stop())
		assert.False(t, timer.Stop())
		c.Advance(time.Minute)
		assert.False(t, fired)
	})

	t.Run("callback may reschedule", func(t *testing.T) {
		c := NewManual(start)
		fired := 0
		var reschedule func()
		reschedule = func() {
			fired++
			if fired < 3 {
				c.AfterFunc(time.Second, reschedule)
			}
		}
		c.AfterFunc(time.Second, reschedule)

		for range 5 {
			c.Advance(time.Second)
		}
		assert.Equal(t, 3, fired)
	})
}
