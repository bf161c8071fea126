package broadcaster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeAndPublish(t *testing.T) {
	b := New[string]()
	defer b.Close()

	sub := b.Subscribe(nil)
	require.NotNil(t, sub)
	assert.NotEmpty(t, sub.ID)

	b.Publish("Applying: Disable Cortana")

	select {
	case v := <-sub.C:
		assert.Equal(t, "Applying: Disable Cortana", v)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected value not received")
	}
}

func TestFilter(t *testing.T) {
	b := New[int]()
	defer b.Close()

	even := b.Subscribe(func(v int) bool { return v%2 == 0 })
	b.Publish(1)
	b.Publish(2)

	assert.Equal(t, 2, <-even.C)
	select {
	case v := <-even.C:
		t.Fatalf("unexpected value %d", v)
	default:
	}
}

func TestFullChannelDrops(t *testing.T) {
	b := NewBuffered[int](2)
	defer b.Close()

	sub := b.Subscribe(nil)
	for i := range 5 {
		b.Publish(i)
	}
	assert.Len(t, sub.C, 2)
	assert.Equal(t, 0, <-sub.C)
	assert.Equal(t, 1, <-sub.C)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New[int]()
	defer b.Close()

	sub := b.Subscribe(nil)
	assert.Equal(t, 1, b.Len())

	b.Unsubscribe(sub.ID)
	_, open := <-sub.C
	assert.False(t, open)
	assert.Zero(t, b.Len())

	b.Unsubscribe("missing")
}

func TestClose(t *testing.T) {
	b := New[int]()
	sub := b.Subscribe(nil)

	b.Close()
	b.Close()

	_, open := <-sub.C
	assert.False(t, open)
	assert.Nil(t, b.Subscribe(nil))
	b.Publish(1)
}
