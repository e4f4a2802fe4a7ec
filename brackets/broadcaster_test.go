package brackets

import (
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterPublishReachesRoomOnly(t *testing.T) {
	br := NewBroadcaster()
	b, err := Generate("t1", []string{"a", "b"}, models.BracketSingle)
	require.NoError(t, err)

	var got []*models.Bracket
	var other int
	br.Subscribe("t1", func(snapshot *models.Bracket) { got = append(got, snapshot) })
	br.Subscribe("t2", func(*models.Bracket) { other++ })

	br.Publish("t1", b)
	br.Publish("t1", b)

	assert.Len(t, got, 2)
	assert.Same(t, b, got[0])
	assert.Zero(t, other)
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	br := NewBroadcaster()
	b, err := Generate("t1", []string{"a", "b"}, models.BracketSingle)
	require.NoError(t, err)

	var count int
	unsubscribe := br.Subscribe("t1", func(*models.Bracket) { count++ })

	br.Publish("t1", b)
	unsubscribe()
	br.Publish("t1", b)

	assert.Equal(t, 1, count)

	// Unsubscribing twice is harmless.
	unsubscribe()
}

func TestBroadcasterIsolatesPanickingSubscriber(t *testing.T) {
	br := NewBroadcaster()
	b, err := Generate("t1", []string{"a", "b"}, models.BracketSingle)
	require.NoError(t, err)

	var delivered int
	br.Subscribe("t1", func(*models.Bracket) { panic("subscriber bug") })
	br.Subscribe("t1", func(*models.Bracket) { delivered++ })

	assert.NotPanics(t, func() { br.Publish("t1", b) })
	assert.Equal(t, 1, delivered)
}

func TestBroadcasterPublishToEmptyRoom(t *testing.T) {
	br := NewBroadcaster()
	assert.NotPanics(t, func() { br.Publish("nobody", nil) })
}
