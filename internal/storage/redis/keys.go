package redis

import (
	"fmt"

	"github.com/mcoot/wordduel/internal/model"
)

// Key prefix for all server data
const keyPrefix = "wordduel"

// roomKey returns the Redis key for a Room
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// boardKey returns the Redis key for a room's Board
func boardKey(roomID model.RoomID) string {
	return fmt.Sprintf("%s:board:%s", keyPrefix, roomID)
}

// roomsIndexKey returns the Redis key for the SET of live room ids
func roomsIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}

// dictionaryKey returns the Redis key for the word list set
func dictionaryKey() string {
	return fmt.Sprintf("%s:dictionary", keyPrefix)
}

// scanPatterns lists the key patterns dropped by Reset
func scanPatterns() []string {
	return []string{
		fmt.Sprintf("%s:room:*", keyPrefix),
		fmt.Sprintf("%s:board:*", keyPrefix),
	}
}
