package response

import (
	"github.com/mcoot/wordduel/internal/model"
)

// Health is the body of the health endpoint
type Health struct {
	Status string `json:"status"`
}

// RoomSummary is one entry of the room listing
type RoomSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
}

// RoomSummaryFromModel converts model.RoomSummary
func RoomSummaryFromModel(s model.RoomSummary) RoomSummary {
	return RoomSummary{
		ID:          string(s.ID),
		Name:        s.Name,
		PlayerCount: s.PlayerCount,
	}
}

// RoomSummariesFromModel converts a listing, never returning nil
func RoomSummariesFromModel(list []model.RoomSummary) []RoomSummary {
	out := make([]RoomSummary, len(list))
	for i, s := range list {
		out[i] = RoomSummaryFromModel(s)
	}
	return out
}
