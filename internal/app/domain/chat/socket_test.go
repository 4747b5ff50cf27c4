package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
)

const waitFor = 3 * time.Second

// fakeSocket plays the backend chat socket: it records every frame the client sends and
// hands each accepted connection to the test.
type fakeSocket struct {
	srv    *httptest.Server
	frames chan gjson.Result
	conns  chan *websocket.Conn
	tokens chan string
	reject atomic.Bool
}

func newFakeSocket(t *testing.T) *fakeSocket {
	t.Helper()
	fs := &fakeSocket{
		frames: make(chan gjson.Result, 64),
		conns:  make(chan *websocket.Conn, 8),
		tokens: make(chan string, 8),
	}
	up := websocket.Upgrader{}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fs.reject.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		fs.tokens <- r.URL.Query().Get("token")
		fs.conns <- conn
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			fs.frames <- gjson.ParseBytes(data)
		}
	}))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeSocket) URL() string {
	return "ws" + strings.TrimPrefix(fs.srv.URL, "http")
}

func (fs *fakeSocket) nextConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-fs.conns:
		return c
	case <-time.After(waitFor):
		t.Fatal("no socket connection")
		return nil
	}
}

func (fs *fakeSocket) nextFrame(t *testing.T) gjson.Result {
	t.Helper()
	select {
	case f := <-fs.frames:
		return f
	case <-time.After(waitFor):
		t.Fatal("no frame received")
		return gjson.Result{}
	}
}

func (fs *fakeSocket) noFrame(t *testing.T) {
	t.Helper()
	select {
	case f := <-fs.frames:
		t.Fatalf("unexpected frame %s", f.Raw)
	case <-time.After(100 * time.Millisecond):
	}
}

func push(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(waitFor):
		t.Fatal("no event delivered")
		return nil
	}
}

func fastClient(fs *fakeSocket, maxElapsed time.Duration) *SocketClient {
	return NewSocketClient(SocketOptions{
		URL:        fs.URL(),
		Token:      "tok-1",
		MaxElapsed: maxElapsed,
		NewBackOff: func() backoff.BackOff { return backoff.NewConstantBackOff(10 * time.Millisecond) },
		Logger:     zap.NewNop(),
	})
}

var staff = models.Session{Token: "tok-1", ID: 7, Name: "Ana", Role: models.RoleAdmin}

func TestSocketJoinIsRefcounted(t *testing.T) {
	fs := newFakeSocket(t)
	client := fastClient(fs, time.Second)
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { _ = client.Close() })
	fs.nextConn(t)
	assert.Equal(t, "tok-1", <-fs.tokens)

	require.NoError(t, client.Join("c1", staff))
	f := fs.nextFrame(t)
	assert.Equal(t, EventJoinRoom, f.Get("event").String())
	assert.Equal(t, "c1", f.Get("data.chatId").String())
	assert.Equal(t, int64(7), f.Get("data.userId").Int())

	// a second tab on the same room does not join again
	require.NoError(t, client.Join("c1", staff))
	fs.noFrame(t)

	require.NoError(t, client.Leave("c1", staff))
	fs.noFrame(t)
	require.NoError(t, client.Leave("c1", staff))
	assert.Equal(t, EventLeaveRoom, fs.nextFrame(t).Get("event").String())
}

func TestSocketDeliversOnlyJoinedRoom(t *testing.T) {
	fs := newFakeSocket(t)
	client := fastClient(fs, time.Second)
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { _ = client.Close() })
	conn := fs.nextConn(t)

	events, unsubscribe := client.Subscribe("c1")
	push(t, conn, `{"event":"newMessage","data":{"chatId":"c2","id":"x","message":"other room"}}`)
	push(t, conn, `{"event":"typing","data":{"chatId":"c1","userId":3,"userName":"Rui"}}`)
	push(t, conn, `{"event":"newMessage","data":{"chatId":"c1","id":"m1","senderId":3,"message":"hi"}}`)

	typing, ok := nextEvent(t, events).(TypingEvent)
	require.True(t, ok)
	assert.Equal(t, "Rui", typing.UserName)

	msg, ok := nextEvent(t, events).(NewMessageEvent)
	require.True(t, ok)
	assert.Equal(t, "m1", msg.Message.ID)
	assert.Equal(t, "hi", msg.Message.Message)

	unsubscribe()
	unsubscribe()
	_, open := <-events
	assert.False(t, open)
}

func TestSocketReconnectRejoinsRooms(t *testing.T) {
	fs := newFakeSocket(t)
	client := fastClient(fs, 2*time.Second)
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { _ = client.Close() })
	first := fs.nextConn(t)

	events, unsubscribe := client.Subscribe("c1")
	defer unsubscribe()
	require.NoError(t, client.Join("c1", staff))
	assert.Equal(t, EventJoinRoom, fs.nextFrame(t).Get("event").String())

	require.NoError(t, first.Close())

	down, ok := nextEvent(t, events).(ConnectionEvent)
	require.True(t, ok)
	assert.False(t, down.Up)
	assert.False(t, down.Lost)

	second := fs.nextConn(t)
	rejoin := fs.nextFrame(t)
	assert.Equal(t, EventJoinRoom, rejoin.Get("event").String())
	assert.Equal(t, "c1", rejoin.Get("data.chatId").String())

	up, ok := nextEvent(t, events).(ConnectionEvent)
	require.True(t, ok)
	assert.True(t, up.Up)
	assert.True(t, client.Connected())

	push(t, second, `{"event":"newMessage","data":{"chatId":"c1","id":"m2","message":"back"}}`)
	msg, ok := nextEvent(t, events).(NewMessageEvent)
	require.True(t, ok)
	assert.Equal(t, "m2", msg.Message.ID)
}

func TestSocketGivesUpAfterMaxElapsed(t *testing.T) {
	fs := newFakeSocket(t)
	client := fastClient(fs, 200*time.Millisecond)
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { _ = client.Close() })
	conn := fs.nextConn(t)

	events, unsubscribe := client.Subscribe("c1")
	defer unsubscribe()

	fs.reject.Store(true)
	require.NoError(t, conn.Close())

	down := nextEvent(t, events).(ConnectionEvent)
	assert.False(t, down.Up)
	lost := nextEvent(t, events).(ConnectionEvent)
	assert.True(t, lost.Lost)
	assert.False(t, client.Connected())
}

func TestSocketDialUnauthorized(t *testing.T) {
	fs := newFakeSocket(t)
	fs.reject.Store(true)
	client := fastClient(fs, time.Second)

	err := client.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestSocketEmitWhileDisconnected(t *testing.T) {
	fs := newFakeSocket(t)
	client := fastClient(fs, time.Second)

	assert.ErrorIs(t, client.Typing("c1", staff, true), ErrNotConnected)
	// joins are kept for the next connection
	assert.NoError(t, client.Join("c1", staff))
}

func TestSocketCloseEndsSubscriptions(t *testing.T) {
	fs := newFakeSocket(t)
	client := fastClient(fs, time.Second)
	require.NoError(t, client.Connect(context.Background()))
	fs.nextConn(t)

	events, _ := client.Subscribe("c1")
	require.NoError(t, client.Close())
	_, open := <-events
	assert.False(t, open)
	assert.False(t, client.Connected())

	late, _ := client.Subscribe("c1")
	_, open = <-late
	assert.False(t, open)
}
