package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) WebSocketMessage {
	t.Helper()
	select {
	case raw := <-c.Send:
		var msg WebSocketMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return WebSocketMessage{}
}

func TestHubRoutesNotifications(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	actor := &Client{Hub: hub, Send: make(chan []byte, 8), UserID: "2"}
	other := &Client{Hub: hub, Send: make(chan []byte, 8), UserID: "1"}
	hub.Register(actor)
	hub.Register(other)

	hub.Notify(ctx, Notification{Level: LevelSuccess, Message: "Task added successfully", TaskID: "7", UserID: "2"})

	msg := receive(t, actor)
	assert.Equal(t, "notification", msg.Type)
	data := msg.Data.(map[string]any)
	assert.Equal(t, "Task added successfully", data["message"])

	msg = receive(t, other)
	assert.Equal(t, "tasks_changed", msg.Type)

	hub.Notify(ctx, Notification{Level: LevelInfo, Message: "Incomplete tasks rolled over to today"})
	assert.Equal(t, "notification", receive(t, actor).Type)
	assert.Equal(t, "notification", receive(t, other).Type)

	hub.Unregister(other)
	_, open := <-other.Send
	assert.False(t, open)

	cancel()
	_, open = <-actor.Send
	assert.False(t, open)
	hub.Unregister(actor)
}
