package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mcoot/wordduel/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	if w == nil {
		w = os.Stdout
	}
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case RoomList:
		o.printRoomList(v)
	case model.RoomSummary:
		o.printRoomSummary(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// RoomList is the open room listing
type RoomList []model.RoomSummary

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}

func (o *Output) printRoomList(rooms RoomList) {
	if len(rooms) == 0 {
		fmt.Fprintln(o.w, "No open rooms")
		return
	}
	fmt.Fprintf(o.w, "Rooms (%d):\n", len(rooms))
	for _, r := range rooms {
		fmt.Fprintf(o.w, "  - %s (%s) %d/%d\n", r.Name, r.ID, r.PlayerCount, model.MaxPlayers)
	}
}

func (o *Output) printRoomSummary(r model.RoomSummary) {
	fmt.Fprintf(o.w, "Room: %s\n", r.Name)
	fmt.Fprintf(o.w, "ID: %s\n", r.ID)
	fmt.Fprintf(o.w, "Players: %d/%d\n", r.PlayerCount, model.MaxPlayers)
}

func formatPlayers(players []model.Player, creator model.PlayerID) string {
	names := make([]string, 0, len(players))
	for _, p := range players {
		name := fmt.Sprintf("%s (%s)", p.DisplayName, p.ID)
		if p.ID == creator {
			name += " [creator]"
		}
		if !p.Connected {
			name += " [away]"
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

// formatResult renders a guess verdict as one glyph per letter
func formatResult(result []model.LetterResult) string {
	var b strings.Builder
	for _, r := range result {
		switch r {
		case model.LetterCorrect:
			b.WriteByte('G')
		case model.LetterMisplaced:
			b.WriteByte('Y')
		default:
			b.WriteByte('.')
		}
	}
	return b.String()
}
