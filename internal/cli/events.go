package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mcoot/wordduel/internal/model"
)

// StreamEvent is one server frame as printed in JSON output mode
type StreamEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// PrintEvent outputs a server frame
func (o *Output) PrintEvent(ev StreamEvent) {
	if o.format == "json" {
		data, _ := json.Marshal(ev)
		fmt.Fprintln(o.w, string(data))
		return
	}
	timestamp := ev.Time.Format("15:04:05")
	fmt.Fprintf(o.w, "[%s] %s\n", timestamp, describeEvent(ev.Event, ev.Data))
}

// describeEvent renders a frame as a single human readable line. Frames that
// cannot be decoded fall back to their raw payload.
func describeEvent(event string, data json.RawMessage) string {
	text, err := describe(model.EventType(event), data)
	if err != nil {
		raw := strings.ReplaceAll(string(data), "\n", " ")
		if len(raw) > 100 {
			raw = raw[:100] + "..."
		}
		return fmt.Sprintf("%s: %s", event, raw)
	}
	return text
}

func describe(event model.EventType, data json.RawMessage) (string, error) {
	switch event {
	case model.EventIdentified:
		return "Identified", nil
	case model.EventAssignedPlayerID:
		var id model.PlayerID
		if err := json.Unmarshal(data, &id); err != nil {
			return "", err
		}
		return fmt.Sprintf("Assigned identity %s", id), nil
	case model.EventRoomListUpdate:
		var rooms []model.RoomSummary
		if err := json.Unmarshal(data, &rooms); err != nil {
			return "", err
		}
		if len(rooms) == 0 {
			return "No open rooms", nil
		}
		parts := make([]string, 0, len(rooms))
		for _, r := range rooms {
			parts = append(parts, fmt.Sprintf("%s (%s) %d/%d", r.Name, r.ID, r.PlayerCount, model.MaxPlayers))
		}
		return "Rooms: " + strings.Join(parts, "; "), nil
	case model.EventRoomCreated:
		var room model.RoomPayload
		if err := json.Unmarshal(data, &room); err != nil {
			return "", err
		}
		return fmt.Sprintf("Created room %s (%s)", room.Name, room.ID), nil
	case model.EventRoomJoined:
		var p model.RoomJoinedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return "", err
		}
		return fmt.Sprintf("Joined room %s (%s): %s%s", p.Room.Name, p.Room.ID,
			formatPlayers(p.Room.Players, p.Room.Creator), roundSuffix(p.GameState)), nil
	case model.EventRoomStateUpdate:
		var p model.RoomStatePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return "", err
		}
		return fmt.Sprintf("Room %s: %s%s", p.Room.Name,
			formatPlayers(p.Room.Players, p.Room.Creator), roundSuffix(p.GameState)), nil
	case model.EventOwnershipTransferred:
		var room model.RoomPayload
		if err := json.Unmarshal(data, &room); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s now owns the room", room.Creator), nil
	case model.EventPlayerJoined:
		var p model.PlayerJoinedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (%s) joined", p.Name, p.ID), nil
	case model.EventPlayerReconnected:
		var p model.PlayerReconnectedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (%s) reconnected", p.Name, p.PlayerID), nil
	case model.EventReconnected:
		var p model.ReconnectedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return "", err
		}
		return fmt.Sprintf("Reconnected to room %s as %s", p.RoomID, p.PlayerID), nil
	case model.EventPlayerDisconnected, model.EventPlayerLeft, model.EventPlayerKicked:
		var id model.PlayerID
		if err := json.Unmarshal(data, &id); err != nil {
			return "", err
		}
		verb := map[model.EventType]string{
			model.EventPlayerDisconnected: "disconnected",
			model.EventPlayerLeft:         "left",
			model.EventPlayerKicked:       "was kicked",
		}[event]
		return fmt.Sprintf("%s %s", id, verb), nil
	case model.EventKickedFromRoom:
		return "You were kicked from the room", nil
	case model.EventGameStarted:
		return "Round started, good luck", nil
	case model.EventGuessResult:
		var rec model.GuessRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s row %d: %s %s", rec.PlayerID, rec.Row+1, rec.Guess, formatResult(rec.Result)), nil
	case model.EventUpdateCurrentGuess:
		var p model.CurrentGuessPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is typing %q on row %d", p.PlayerID, p.CurrentGuess, p.Row+1), nil
	case model.EventGameOver:
		var p model.GameOverPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return "", err
		}
		if p.Winner == nil {
			return fmt.Sprintf("Game over: %s, no winner", p.Word), nil
		}
		return fmt.Sprintf("Game over: the word was %s, %s wins", p.Word, *p.Winner), nil
	case model.EventGameStateUpdate:
		var p model.GameStatePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return "", err
		}
		return describeBoards(p), nil
	case model.EventGameReset, model.EventInvalidLobby, model.EventJoinError,
		model.EventStartGameError, model.EventKickPlayerError, model.EventGuessError:
		var msg string
		if err := json.Unmarshal(data, &msg); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s: %s", event, msg), nil
	default:
		return "", fmt.Errorf("unknown event %q", event)
	}
}

func roundSuffix(game *model.GameRound) string {
	if game == nil {
		return ""
	}
	return " [round in progress]"
}

func describeBoards(p model.GameStatePayload) string {
	if p.GameState == nil {
		return "No round in progress"
	}
	ids := make([]string, 0, len(p.BoardContent))
	for id := range p.BoardContent {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("Boards:")
	for _, id := range ids {
		fmt.Fprintf(&b, "\n  %s:", id)
		for row, cell := range p.BoardContent[model.PlayerID(id)] {
			if cell == nil {
				continue
			}
			if cell.IsDraft() {
				fmt.Fprintf(&b, "\n    %d %s (typing)", row+1, cell.Guess)
			} else {
				fmt.Fprintf(&b, "\n    %d %s %s", row+1, cell.Guess, formatResult(cell.Result))
			}
		}
	}
	return b.String()
}
