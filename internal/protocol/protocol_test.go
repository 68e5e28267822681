package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/wordduel/internal/model"
)

func TestDecode(t *testing.T) {
	bob := model.PlayerID("bob")
	tests := []struct {
		name string
		raw  string
		want Event
	}{
		{"identify", `{"event":"identify","data":"alice"}`, Identify{Identity: "alice"}},
		{"createRoom", `{"event":"createRoom","data":"Duel"}`, CreateRoom{Name: "Duel"}},
		{"joinRoom with identity", `{"event":"joinRoom","data":{"roomId":"r1","identity":"bob"}}`, JoinRoom{RoomID: "r1", Identity: &bob}},
		{"joinRoom null identity", `{"event":"joinRoom","data":{"roomId":"r1","identity":null}}`, JoinRoom{RoomID: "r1"}},
		{"startGame", `{"event":"startGame","data":"r1"}`, StartGame{RoomID: "r1"}},
		{"makeGuess", `{"event":"makeGuess","data":{"roomId":"r1","guess":"APPLE","row":2}}`, MakeGuess{RoomID: "r1", Guess: "APPLE", Row: 2}},
		{"updateCurrentGuess", `{"event":"updateCurrentGuess","data":{"roomId":"r1","currentGuess":"AP","row":0}}`, UpdateCurrentGuess{RoomID: "r1", CurrentGuess: "AP"}},
		{"kickPlayer", `{"event":"kickPlayer","data":{"roomId":"r1","playerId":"bob"}}`, KickPlayer{RoomID: "r1", PlayerID: "bob"}},
		{"requestGameState", `{"event":"requestGameState","data":"r1"}`, RequestGameState{RoomID: "r1"}},
		{"reconnectToGame", `{"event":"reconnectToGame","data":{"roomId":"r1","playerId":"bob"}}`, ReconnectToGame{RoomID: "r1", PlayerID: "bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `hello`, ErrMalformedEnvelope},
		{"unknown event", `{"event":"dance","data":1}`, ErrUnknownEvent},
		{"missing data", `{"event":"startGame"}`, ErrMalformedPayload},
		{"wrong payload type", `{"event":"makeGuess","data":"APPLE"}`, ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncodeEventRoundTrips(t *testing.T) {
	events := []Event{
		Identify{Identity: "alice"},
		CreateRoom{Name: "Duel"},
		JoinRoom{RoomID: "r1"},
		StartGame{RoomID: "r1"},
		MakeGuess{RoomID: "r1", Guess: "APPLE", Row: 1},
		KickPlayer{RoomID: "r1", PlayerID: "bob"},
		RequestGameState{RoomID: "r1"},
		ReconnectToGame{RoomID: "r1", PlayerID: "bob"},
	}

	for _, ev := range events {
		raw, err := EncodeEvent(ev)
		require.NoError(t, err)
		got, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, ev, got)
	}
}

func TestEncode(t *testing.T) {
	raw, err := Encode(model.EventGameOver, model.GameOverPayload{Word: "APPLE"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"gameOver","data":{"word":"APPLE","winner":null}}`, string(raw))

	raw, err = Encode(model.EventKickedFromRoom, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"kickedFromRoom"}`, string(raw))
}

func TestGameStatePayloadShape(t *testing.T) {
	board := model.NewBoard("r1")
	board.SetRow("alice", 1, model.BoardCell{Guess: "AP"})
	payload := model.GameStatePayload{
		GameState:    model.NewGameRound("APPLE"),
		BoardContent: board.Rows,
	}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"gameState": {"word": "APPLE", "guesses": []},
		"boardContent": {"alice": [null, {"guess": "AP", "result": null}]}
	}`, string(raw))
}
