package model

const (
	// WordLength is the number of letters in every secret word and guess
	WordLength = 5

	// MaxAttempts is the number of guesses each player gets per round
	MaxAttempts = 6
)

// LetterResult is the per-position verdict for a guess
type LetterResult string

const (
	LetterCorrect   LetterResult = "correct"   // right letter, right position
	LetterMisplaced LetterResult = "misplaced" // letter is in the word elsewhere
	LetterWrong     LetterResult = "wrong"     // letter not available in the word
)

// GuessRecord is one committed attempt. Row is the guesser's own attempt
// count at submission time.
type GuessRecord struct {
	PlayerID PlayerID       `json:"playerId"`
	Guess    string         `json:"guess"`
	Result   []LetterResult `json:"result"`
	Row      int            `json:"row"`
}

// GameRound is the state of one active round in a room
type GameRound struct {
	Word    string        `json:"word"`
	Guesses []GuessRecord `json:"guesses"` // append-only, submission order
}

// NewGameRound starts a round with an empty guess log
func NewGameRound(word string) *GameRound {
	return &GameRound{
		Word:    word,
		Guesses: []GuessRecord{},
	}
}

// AttemptCount returns how many guesses the player has submitted this round
func (g *GameRound) AttemptCount(id PlayerID) int {
	count := 0
	for _, rec := range g.Guesses {
		if rec.PlayerID == id {
			count++
		}
	}
	return count
}

// Clone returns a deep copy of the round
func (g *GameRound) Clone() *GameRound {
	out := &GameRound{
		Word:    g.Word,
		Guesses: make([]GuessRecord, len(g.Guesses)),
	}
	for i, rec := range g.Guesses {
		rec.Result = append([]LetterResult(nil), rec.Result...)
		out.Guesses[i] = rec
	}
	return out
}

// BoardCell is one rendered row of a player's grid. Result is nil while the
// row holds an unsubmitted draft.
type BoardCell struct {
	Guess  string         `json:"guess"`
	Result []LetterResult `json:"result"`
}

// IsDraft reports whether the cell has not been submitted yet
func (c *BoardCell) IsDraft() bool {
	return c.Result == nil
}

// Board is the per-room render cache of every player's grid. Rows are indexed
// by attempt number; unset rows are nil.
type Board struct {
	RoomID RoomID                    `json:"roomId"`
	Rows   map[PlayerID][]*BoardCell `json:"rows"`
}

// NewBoard creates an empty board for a room
func NewBoard(roomID RoomID) *Board {
	return &Board{
		RoomID: roomID,
		Rows:   make(map[PlayerID][]*BoardCell),
	}
}

// SetRow places a cell at the given row, growing the player's grid as needed
func (b *Board) SetRow(id PlayerID, row int, cell BoardCell) {
	rows := b.Rows[id]
	for len(rows) <= row {
		rows = append(rows, nil)
	}
	rows[row] = &cell
	b.Rows[id] = rows
}

// Row returns the cell at the given row, or nil if unset
func (b *Board) Row(id PlayerID, row int) *BoardCell {
	rows := b.Rows[id]
	if row < 0 || row >= len(rows) {
		return nil
	}
	return rows[row]
}

// Clone returns a deep copy of the board
func (b *Board) Clone() *Board {
	out := NewBoard(b.RoomID)
	for id, rows := range b.Rows {
		cp := make([]*BoardCell, len(rows))
		for i, cell := range rows {
			if cell == nil {
				continue
			}
			c := *cell
			if cell.Result != nil {
				c.Result = append([]LetterResult(nil), cell.Result...)
			}
			cp[i] = &c
		}
		out.Rows[id] = cp
	}
	return out
}
