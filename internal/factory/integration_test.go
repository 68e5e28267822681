package factory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/protocol"
	redisstorage "github.com/mcoot/wordduel/internal/storage/redis"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

// Test: rooms created through the controller show up over HTTP
func (s *IntegrationSuite) TestRoomVisibleThroughAPI() {
	s.app.MockRandom.QueueUUID("room-0001")
	s.app.Controller.Handle(s.ctx, "conn-1", protocol.Identify{Identity: "alice"})
	s.app.Controller.Handle(s.ctx, "conn-1", protocol.CreateRoom{Name: "Duel"})

	router := s.app.Router("", "https://duel.example")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/rooms", nil))
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`[{"id":"room-0001","name":"Duel","playerCount":1}]`, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/room-0001/qr.png", nil))
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("image/png", rr.Header().Get("Content-Type"))
}

// Test: a complete round driven through the controller with mocked time
func (s *IntegrationSuite) TestRoundAndTimedRemoval() {
	s.Require().NoError(s.app.LoadTestWords("crane"))
	s.app.MockRandom.QueueUUID("room-0001")
	c := s.app.Controller

	c.Handle(s.ctx, "conn-1", protocol.Identify{Identity: "alice"})
	c.Handle(s.ctx, "conn-1", protocol.CreateRoom{Name: "Duel"})
	c.Handle(s.ctx, "conn-2", protocol.JoinRoom{RoomID: "room-0001", Identity: model.PlayerIDPtr("bob")})
	c.Handle(s.ctx, "conn-1", protocol.StartGame{RoomID: "room-0001"})

	r, err := s.app.Rooms.GetRoom(s.ctx, "room-0001")
	s.Require().NoError(err)
	s.Require().NotNil(r.Game)
	s.Equal("CRANE", r.Game.Word)

	c.Handle(s.ctx, "conn-2", protocol.MakeGuess{RoomID: "room-0001", Guess: "crate", Row: 0})
	c.Disconnect(s.ctx, "conn-1")

	s.app.MockClock.Advance(30 * time.Second)

	r, err = s.app.Rooms.GetRoom(s.ctx, "room-0001")
	s.Require().NoError(err)
	s.Nil(r.Game)
	s.Equal(model.PlayerID("bob"), r.Creator)
	s.Len(r.Players, 1)
}

func TestNewWithWordsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("# secrets\nbrick\nstone\nno\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	app, err := New(context.Background(), Config{WordsFile: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Close()

	if got := app.Words.Count(); got != 2 {
		t.Errorf("word count = %d, want 2", got)
	}

	rr := httptest.NewRecorder()
	app.Router("", "").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["status"] != "ok" {
		t.Errorf("health = %q", rr.Body.String())
	}
}

func TestNewWithRedisClearsStaleRooms(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.Set("wordduel:room:stale", `{"id":"stale","name":"Old","players":[]}`)
	_, _ = mr.SetAdd("wordduel:idx:rooms", "stale")

	cfg := redisstorage.DefaultConfig()
	cfg.URL = "redis://" + mr.Addr()

	app, err := New(context.Background(), Config{StorageType: StorageTypeRedis, RedisConfig: &cfg})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Close()

	rooms, err := app.Rooms.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(rooms) != 0 {
		t.Errorf("expected no rooms after startup, got %d", len(rooms))
	}
	if mr.Exists("wordduel:room:stale") {
		t.Error("stale room key survived startup")
	}
}

func TestNewInvalidStorage(t *testing.T) {
	if _, err := New(context.Background(), Config{StorageType: "postgres"}); err == nil {
		t.Error("expected error for unknown storage type")
	}
	if _, err := New(context.Background(), Config{StorageType: StorageTypeRedis}); err == nil {
		t.Error("expected error for redis without config")
	}
}
