package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/protocol"
)

const playHelp = `Commands:
  start         start the round (room creator only)
  guess WORD    submit a five letter guess
  type TEXT     share an unsubmitted draft with the room
  kick ID       remove a player (room creator only)
  state         request a full board snapshot
  quit          leave`

func newPlayCmd() *cobra.Command {
	var roomID string
	var createName string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a match over a websocket connection",
		Long: `Connect to the server, create or join a room and play interactively.

` + playHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			if roomID == "" && createName == "" {
				return errors.New("one of --room or --create is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			session, err := Dial(ctx, cfg.WebSocketURL(), model.PlayerID(cfg.Identity), out)
			if err != nil {
				return err
			}
			defer session.Close()

			session.OnIdentity = func(id model.PlayerID) {
				if err := cfg.SaveIdentity(id); err != nil {
					out.PrintError(fmt.Errorf("save identity: %w", err))
				}
			}

			if createName != "" {
				err = session.Send(protocol.CreateRoom{Name: createName})
			} else {
				err = session.Join(model.RoomID(roomID))
			}
			if err != nil {
				return err
			}

			return session.Run(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&roomID, "room", "", "Room ID to join")
	cmd.Flags().StringVar(&createName, "create", "", "Create a new room with this name")

	return cmd
}

// Session is one interactive websocket connection to the server
type Session struct {
	conn *websocket.Conn
	out  *Output

	// OnIdentity is called when the server assigns this client an identity
	OnIdentity func(model.PlayerID)

	mu       sync.Mutex
	identity model.PlayerID
	roomID   model.RoomID
	nextRow  int
}

// Dial opens a websocket to url and identifies as identity, if set
func Dial(ctx context.Context, url string, identity model.PlayerID, out *Output) (*Session, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	s := &Session{conn: conn, out: out, identity: identity}
	if identity != "" {
		if err := s.Send(protocol.Identify{Identity: identity}); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return s, nil
}

// Send writes one event to the server. Only one goroutine may send at a time.
func (s *Session) Send(ev protocol.Event) error {
	frame, err := protocol.EncodeEvent(ev)
	if err != nil {
		return err
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

// Join asks to join roomID with the session's identity
func (s *Session) Join(roomID model.RoomID) error {
	s.mu.Lock()
	var identity *model.PlayerID
	if s.identity != "" {
		identity = model.PlayerIDPtr(s.identity)
	}
	s.mu.Unlock()
	return s.Send(protocol.JoinRoom{RoomID: roomID, Identity: identity})
}

// Close closes the connection
func (s *Session) Close() {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = s.conn.Close()
}

// Run prints server events and sends commands read from in until the
// connection drops, ctx is cancelled or the user quits
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	readErr := make(chan error, 1)
	go func() {
		readErr <- s.readLoop()
	}()

	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if strings.TrimSpace(line) == "quit" {
				return nil
			}
			ev, err := s.parse(line)
			if err != nil {
				s.out.PrintError(err)
				continue
			}
			if err := s.Send(ev); err != nil {
				return err
			}
		}
	}
}

func (s *Session) parse(line string) (protocol.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roomID == "" {
		return nil, errors.New("not in a room yet")
	}
	return ParseCommand(line, s.roomID, s.nextRow)
}

func (s *Session) readLoop() error {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return err
		}
		var env protocol.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.out.PrintError(fmt.Errorf("bad frame: %w", err))
			continue
		}
		s.track(model.EventType(env.Event), env.Data)
		s.out.PrintEvent(StreamEvent{Time: time.Now(), Event: env.Event, Data: env.Data})
	}
}

// track follows the room and row this client is playing
func (s *Session) track(event model.EventType, data json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event {
	case model.EventAssignedPlayerID:
		var id model.PlayerID
		if json.Unmarshal(data, &id) == nil {
			s.identity = id
			if s.OnIdentity != nil {
				s.OnIdentity(id)
			}
		}
	case model.EventRoomCreated:
		var room model.RoomPayload
		if json.Unmarshal(data, &room) == nil {
			s.roomID = room.ID
		}
	case model.EventRoomJoined:
		var p model.RoomJoinedPayload
		if json.Unmarshal(data, &p) == nil {
			s.roomID = p.Room.ID
			s.nextRow = attemptsBy(p.GameState, s.identity)
		}
	case model.EventReconnected:
		var p model.ReconnectedPayload
		if json.Unmarshal(data, &p) == nil {
			s.roomID = p.RoomID
		}
	case model.EventGameStarted, model.EventGameReset:
		s.nextRow = 0
	case model.EventGuessResult:
		var rec model.GuessRecord
		if json.Unmarshal(data, &rec) == nil && rec.PlayerID == s.identity {
			s.nextRow = rec.Row + 1
		}
	case model.EventGameStateUpdate:
		var p model.GameStatePayload
		if json.Unmarshal(data, &p) == nil {
			s.nextRow = attemptsBy(p.GameState, s.identity)
		}
	case model.EventKickedFromRoom:
		s.roomID = ""
	}
}

func attemptsBy(game *model.GameRound, id model.PlayerID) int {
	if game == nil {
		return 0
	}
	return game.AttemptCount(id)
}

// ParseCommand turns one line of user input into an event for roomID. row is
// the player's next unused row.
func ParseCommand(line string, roomID model.RoomID, row int) (protocol.Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.New("empty command")
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch strings.ToLower(fields[0]) {
	case "start":
		return protocol.StartGame{RoomID: roomID}, nil
	case "guess":
		if arg == "" {
			return nil, errors.New("usage: guess WORD")
		}
		return protocol.MakeGuess{RoomID: roomID, Guess: strings.ToUpper(arg), Row: row}, nil
	case "type":
		return protocol.UpdateCurrentGuess{RoomID: roomID, CurrentGuess: strings.ToUpper(arg), Row: row}, nil
	case "kick":
		if arg == "" {
			return nil, errors.New("usage: kick PLAYER_ID")
		}
		return protocol.KickPlayer{RoomID: roomID, PlayerID: model.PlayerID(arg)}, nil
	case "state":
		return protocol.RequestGameState{RoomID: roomID}, nil
	case "help":
		return nil, errors.New(playHelp)
	default:
		return nil, fmt.Errorf("unknown command %q (try help)", fields[0])
	}
}
