package sse

import (
  "testing"
  "time"

  "github.com/google/uuid"

  "github.com/yungbote/reelforge-backend/internal/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("test")
  if err != nil {
    t.Fatalf("logger.New: %v", err)
  }
  t.Cleanup(log.Sync)
  return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
  t.Helper()
  select {
  case msg := <-ch:
    return msg
  case <-time.After(timeout):
    t.Fatalf("timed out waiting for SSE message")
  }
  return SSEMessage{}
}

func TestSSEHubDeliversInOrderAndSurvivesReconnect(t *testing.T) {
  hub := NewSSEHub(mustTestLogger(t))
  userID := uuid.New()
  channel := UserChannel(userID)

  clientA := hub.NewSSEClient(userID)
  hub.AddChannel(clientA, channel)

  hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventVideoGenerationProgress, Data: map[string]any{"progress": 5}})
  hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventVideoGenerationDone, Data: map[string]any{"progress": 100}})

  if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventVideoGenerationProgress {
    t.Fatalf("first event: %s", got.Event)
  }
  if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventVideoGenerationDone {
    t.Fatalf("second event: %s", got.Event)
  }

  hub.CloseClient(clientA)
  select {
  case _, ok := <-clientA.Outbound:
    if ok {
      t.Fatalf("outbound should be closed after disconnect")
    }
  case <-time.After(500 * time.Millisecond):
    t.Fatalf("timed out waiting for channel close")
  }

  clientB := hub.NewSSEClient(userID)
  hub.AddChannel(clientB, channel)
  hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventUserCoinsChanged, Data: map[string]any{"delta": -50}})
  if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventUserCoinsChanged {
    t.Fatalf("reconnect event: %s", got.Event)
  }
}

func TestSSEHubScopesBroadcastsToChannel(t *testing.T) {
  hub := NewSSEHub(mustTestLogger(t))

  alice := hub.NewSSEClient(uuid.New())
  hub.AddChannel(alice, UserChannel(alice.UserID))
  bob := hub.NewSSEClient(uuid.New())
  hub.AddChannel(bob, UserChannel(bob.UserID))

  hub.Broadcast(SSEMessage{Channel: UserChannel(alice.UserID), Event: SSEEventVideoGenerationProgress})

  if got := recvMessage(t, alice.Outbound, time.Second); got.Event != SSEEventVideoGenerationProgress {
    t.Fatalf("alice event: %s", got.Event)
  }
  select {
  case msg := <-bob.Outbound:
    t.Fatalf("bob must not receive alice's message: %+v", msg)
  default:
  }
}

func TestSSEHubDropsWhenOutboundFull(t *testing.T) {
  hub := NewSSEHub(mustTestLogger(t))
  userID := uuid.New()
  channel := UserChannel(userID)
  client := hub.NewSSEClient(userID)
  hub.AddChannel(client, channel)

  // Buffer is 10; the extras must be dropped, not block the broadcaster.
  done := make(chan struct{})
  go func() {
    defer close(done)
    for i := 0; i < 15; i++ {
      hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventVideoGenerationProgress, Data: map[string]any{"seq": i}})
    }
  }()
  select {
  case <-done:
  case <-time.After(time.Second):
    t.Fatalf("broadcast blocked on a full client buffer")
  }
  if got := len(client.Outbound); got != 10 {
    t.Fatalf("buffered messages: want=10 got=%d", got)
  }
}
