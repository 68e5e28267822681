package e2e_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/wordduel/internal/api"
	"github.com/mcoot/wordduel/internal/factory"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/protocol"
	"github.com/mcoot/wordduel/internal/testutil"
)

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	url  string
	app  *factory.App
	done chan error
	stop context.CancelFunc
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// a single secret word keeps the match deterministic
	wordsFile := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(wordsFile, []byte("crane\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())

	app, err := factory.New(ctx, factory.Config{
		WordsFile: wordsFile,
		Logger:    testutil.NopLogger(),
	})
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := api.NewServer(app.Router("", ""), api.DefaultServerConfig(), testutil.NopLogger())

	ts := &testServer{
		url:  "http://" + listener.Addr().String(),
		app:  app,
		done: make(chan error, 1),
		stop: cancel,
	}
	go func() {
		ts.done <- server.Serve(ctx, listener)
	}()

	t.Cleanup(func() {
		_ = app.Close()
		ts.shutdown(t)
	})
	return ts
}

func (ts *testServer) shutdown(t *testing.T) {
	t.Helper()
	ts.stop()
	select {
	case err := <-ts.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Error("server did not shut down")
	}
}

func (ts *testServer) rooms(t *testing.T) []model.RoomSummary {
	t.Helper()
	resp, err := http.Get(ts.url + "/api/v1/rooms")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rooms []model.RoomSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	return rooms
}

// wsClient is a websocket player driven by the test
type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func (ts *testServer) dial(t *testing.T) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.url, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	c := &wsClient{t: t, conn: conn}
	t.Cleanup(func() { _ = conn.Close() })

	// every connection is greeted with the room list
	c.expect(model.EventRoomListUpdate)
	return c
}

func (c *wsClient) send(ev protocol.Event) {
	c.t.Helper()
	frame, err := protocol.EncodeEvent(ev)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, frame))
}

func (c *wsClient) sendRaw(frame string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// expect reads frames until one named event arrives and returns its data
func (c *wsClient) expect(event model.EventType) json.RawMessage {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, raw, err := c.conn.ReadMessage()
		require.NoError(c.t, err, "waiting for %s", event)

		var env protocol.Envelope
		require.NoError(c.t, json.Unmarshal(raw, &env))
		if env.Event == string(event) {
			return env.Data
		}
	}
}

func decode[T any](t *testing.T, data json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

// setupRoom has alice create a room that bob joins
func setupRoom(t *testing.T, ts *testServer) (alice, bob *wsClient, roomID model.RoomID) {
	t.Helper()
	alice = ts.dial(t)
	bob = ts.dial(t)

	alice.send(protocol.Identify{Identity: "alice"})
	alice.expect(model.EventIdentified)
	alice.send(protocol.CreateRoom{Name: "Duel"})
	room := decode[model.RoomPayload](t, alice.expect(model.EventRoomCreated))
	require.Equal(t, model.PlayerID("alice"), room.Creator)

	bob.send(protocol.JoinRoom{RoomID: room.ID, Identity: model.PlayerIDPtr("bob")})
	joined := decode[model.RoomJoinedPayload](t, bob.expect(model.EventRoomJoined))
	assert.Len(t, joined.Room.Players, 2)
	assert.Nil(t, joined.GameState)

	playerJoined := decode[model.PlayerJoinedPayload](t, alice.expect(model.EventPlayerJoined))
	assert.Equal(t, model.PlayerID("bob"), playerJoined.ID)

	return alice, bob, room.ID
}

func TestHealth(t *testing.T) {
	ts := startTestServer(t)

	resp, err := http.Get(ts.url + "/api/v1/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFullMatch(t *testing.T) {
	ts := startTestServer(t)
	alice, bob, roomID := setupRoom(t, ts)

	rooms := ts.rooms(t)
	require.Len(t, rooms, 1)
	assert.Equal(t, roomID, rooms[0].ID)
	assert.Equal(t, 2, rooms[0].PlayerCount)

	// only the creator may start
	bob.send(protocol.StartGame{RoomID: roomID})
	msg := decode[string](t, bob.expect(model.EventStartGameError))
	assert.Equal(t, "Only the room creator can start the game.", msg)

	alice.send(protocol.StartGame{RoomID: roomID})
	alice.expect(model.EventGameStarted)
	bob.expect(model.EventGameStarted)

	// drafts are mirrored to the whole room
	bob.send(protocol.UpdateCurrentGuess{RoomID: roomID, CurrentGuess: "sla", Row: 0})
	draft := decode[model.CurrentGuessPayload](t, alice.expect(model.EventUpdateCurrentGuess))
	assert.Equal(t, "SLA", draft.CurrentGuess)
	bob.expect(model.EventUpdateCurrentGuess)

	bob.send(protocol.MakeGuess{RoomID: roomID, Guess: "slate", Row: 0})
	rec := decode[model.GuessRecord](t, alice.expect(model.EventGuessResult))
	assert.Equal(t, model.PlayerID("bob"), rec.PlayerID)
	assert.Equal(t, "SLATE", rec.Guess)
	assert.Equal(t, []model.LetterResult{
		model.LetterWrong, model.LetterWrong, model.LetterCorrect, model.LetterWrong, model.LetterCorrect,
	}, rec.Result)
	bob.expect(model.EventGuessResult)

	// replaying a used row is refused
	bob.send(protocol.MakeGuess{RoomID: roomID, Guess: "crane", Row: 0})
	bob.expect(model.EventGuessError)

	alice.send(protocol.MakeGuess{RoomID: roomID, Guess: "CRANE", Row: 0})
	over := decode[model.GameOverPayload](t, bob.expect(model.EventGameOver))
	assert.Equal(t, "CRANE", over.Word)
	require.NotNil(t, over.Winner)
	assert.Equal(t, model.PlayerID("alice"), *over.Winner)
	alice.expect(model.EventGameOver)

	// the room is reusable after the round
	alice.send(protocol.StartGame{RoomID: roomID})
	bob.expect(model.EventGameStarted)
}

func TestReconnectDuringRound(t *testing.T) {
	ts := startTestServer(t)
	alice, bob, roomID := setupRoom(t, ts)

	alice.send(protocol.StartGame{RoomID: roomID})
	bob.expect(model.EventGameStarted)

	alice.send(protocol.MakeGuess{RoomID: roomID, Guess: "TRAIN", Row: 0})
	bob.expect(model.EventGuessResult)

	require.NoError(t, alice.conn.Close())
	gone := decode[model.PlayerID](t, bob.expect(model.EventPlayerDisconnected))
	assert.Equal(t, model.PlayerID("alice"), gone)

	// the seat is held for the round grace period
	assert.Equal(t, 1, ts.rooms(t)[0].PlayerCount)

	back := ts.dial(t)
	back.send(protocol.Identify{Identity: "alice"})
	back.expect(model.EventIdentified)
	back.send(protocol.ReconnectToGame{RoomID: roomID, PlayerID: "alice"})

	reconnected := decode[model.ReconnectedPayload](t, back.expect(model.EventReconnected))
	assert.Equal(t, roomID, reconnected.RoomID)

	state := decode[model.GameStatePayload](t, back.expect(model.EventGameStateUpdate))
	require.NotNil(t, state.GameState)
	assert.Equal(t, 1, state.GameState.AttemptCount("alice"))
	require.NotEmpty(t, state.BoardContent["alice"])
	assert.Equal(t, "TRAIN", state.BoardContent["alice"][0].Guess)

	returned := decode[model.PlayerReconnectedPayload](t, bob.expect(model.EventPlayerReconnected))
	assert.Equal(t, model.PlayerID("alice"), returned.PlayerID)

	// the returning connection plays on from its next row
	back.send(protocol.MakeGuess{RoomID: roomID, Guess: "CRANE", Row: 1})
	over := decode[model.GameOverPayload](t, bob.expect(model.EventGameOver))
	require.NotNil(t, over.Winner)
	assert.Equal(t, model.PlayerID("alice"), *over.Winner)
}

func TestKickAndFullRoom(t *testing.T) {
	ts := startTestServer(t)
	alice, bob, roomID := setupRoom(t, ts)

	carol := ts.dial(t)
	carol.send(protocol.JoinRoom{RoomID: roomID, Identity: model.PlayerIDPtr("carol")})
	assert.Equal(t, "Room is full.", decode[string](t, carol.expect(model.EventJoinError)))

	alice.send(protocol.KickPlayer{RoomID: roomID, PlayerID: "bob"})
	assert.Equal(t, model.PlayerID("bob"), decode[model.PlayerID](t, alice.expect(model.EventPlayerKicked)))
	bob.expect(model.EventKickedFromRoom)

	carol.send(protocol.JoinRoom{RoomID: roomID, Identity: model.PlayerIDPtr("carol")})
	joined := decode[model.RoomJoinedPayload](t, carol.expect(model.EventRoomJoined))
	assert.Len(t, joined.Room.Players, 2)
}

func TestMalformedFramesAreIgnored(t *testing.T) {
	ts := startTestServer(t)
	c := ts.dial(t)

	c.sendRaw(`not json`)
	c.sendRaw(`{"event":"launchMissiles","data":{}}`)
	c.sendRaw(`{"event":"makeGuess","data":"oops"}`)

	c.send(protocol.Identify{Identity: "dave"})
	c.expect(model.EventIdentified)
}
