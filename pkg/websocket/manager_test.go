package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"social-graph/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRelationshipAdded_DeliversToTarget(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))
	target := &Client{UserID: 2, Send: make(chan []byte, 1)}
	m.AddClient(2, target)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.RelationshipAdded(&model.Relationship{ID: 7, UserID: 1, RelatedUserID: 2, RelationshipType: model.RelationshipFriend, CreatedAt: created})

	select {
	case raw := <-target.Send:
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		assert.Equal(t, EventFriendAdded, ev.Type)
		assert.Equal(t, uint(7), ev.RelationshipID)
		assert.Equal(t, uint(1), ev.From)
		assert.Equal(t, uint(2), ev.To)
		assert.Equal(t, created.Unix(), ev.Timestamp)
	default:
		t.Fatal("event not delivered")
	}
}

func TestSendToUser_Offline(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))
	assert.False(t, m.SendToUser(42, []byte("x")))
	assert.False(t, m.IsOnline(42))
}

func TestSendToUser_FullQueueDoesNotBlock(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))
	c := &Client{UserID: 1, Send: make(chan []byte, 1)}
	m.AddClient(1, c)

	assert.True(t, m.SendToUser(1, []byte("a")))
	assert.False(t, m.SendToUser(1, []byte("b")))
}

func TestAddClient_ReplacesOldConnection(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))
	old := &Client{UserID: 1, Send: make(chan []byte, 1)}
	fresh := &Client{UserID: 1, Send: make(chan []byte, 1)}
	m.AddClient(1, old)
	m.AddClient(1, fresh)

	_, open := <-old.Send
	assert.False(t, open)

	// 旧连接退出时不影响新连接
	m.RemoveClient(1, old)
	assert.True(t, m.IsOnline(1))

	m.RemoveClient(1, fresh)
	assert.False(t, m.IsOnline(1))
}
