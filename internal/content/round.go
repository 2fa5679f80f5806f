// internal/content/round.go
package content

import (
	"encoding/json"
	"fmt"
)

// RoundType tags which shape a Round has on the wire.
type RoundType string

const (
	DefaultRoundType RoundType = "DefaultRound"
	FinalRoundType   RoundType = "FinalRound"
)

// MaxCellsPerRound is the width of the clues-shown bitmap.
const MaxCellsPerRound = 64

// Clue is a single board cell.
type Clue struct {
	Cost          int    `json:"cost"`
	Clue          string `json:"clue"`
	Response      string `json:"response"`
	IsDailyDouble bool   `json:"is_daily_double"`
	Media         string `json:"media,omitempty"`
}

// Category is one board column.
type Category struct {
	Category string `json:"category"`
	Clues    []Clue `json:"clues"`
}

// Round is either a DefaultRound (categories of clues) or a FinalRound (one clue, everyone wagers).
// The unused half of the struct is left zero.
type Round struct {
	Type            RoundType `json:"round_type"`
	Name            string    `json:"name"`
	DefaultMaxWager int       `json:"default_max_wager"`

	// DefaultRound
	Categories []Category `json:"categories,omitempty"`

	// FinalRound
	Category string `json:"category,omitempty"`
	Clue     string `json:"clue,omitempty"`
	Response string `json:"response,omitempty"`
}

// BareCategory is a category with only the clue costs.
type BareCategory struct {
	Category  string `json:"category"`
	ClueCosts []int  `json:"clue_costs"`
}

// BareRound is the redacted round shown on the board: names and costs, no clue text or answers.
type BareRound struct {
	Type            RoundType      `json:"round_type"`
	Name            string         `json:"name"`
	DefaultMaxWager int            `json:"default_max_wager"`
	Categories      []BareCategory `json:"categories,omitempty"`
	Category        string         `json:"category,omitempty"`
}

// IsFinal reports whether this is the final (wager-everything) round.
func (r *Round) IsFinal() bool {
	return r.Type == FinalRoundType
}

// CategoryNames returns the category headers in board order.
func (r *Round) CategoryNames() []string {
	if r.IsFinal() {
		return []string{r.Category}
	}
	names := make([]string, len(r.Categories))
	for i, c := range r.Categories {
		names[i] = c.Category
	}
	return names
}

// ClueAt returns the clue in category col at position row.
// The addressable shape is whatever the loaded round contains.
func (r *Round) ClueAt(row, col int) (*Clue, bool) {
	if r.IsFinal() || col < 0 || col >= len(r.Categories) {
		return nil, false
	}
	clues := r.Categories[col].Clues
	if row < 0 || row >= len(clues) {
		return nil, false
	}
	return &clues[row], true
}

// CellIndex returns the bit position of (row, col) in the clues-shown bitmap, or -1 when out of range.
func (r *Round) CellIndex(row, col int) int {
	if _, ok := r.ClueAt(row, col); !ok {
		return -1
	}
	idx := 0
	for i := 0; i < col; i++ {
		idx += len(r.Categories[i].Clues)
	}
	return idx + row
}

// Cells counts every clue on the board.
func (r *Round) Cells() int {
	n := 0
	for _, c := range r.Categories {
		n += len(c.Clues)
	}
	return n
}

// Bare builds the board projection of the round.
func (r *Round) Bare() BareRound {
	bare := BareRound{
		Type:            r.Type,
		Name:            r.Name,
		DefaultMaxWager: r.DefaultMaxWager,
	}
	if r.IsFinal() {
		bare.Category = r.Category
		return bare
	}
	bare.Categories = make([]BareCategory, len(r.Categories))
	for i, c := range r.Categories {
		costs := make([]int, len(c.Clues))
		for j, clue := range c.Clues {
			costs[j] = clue.Cost
		}
		bare.Categories[i] = BareCategory{Category: c.Category, ClueCosts: costs}
	}
	return bare
}

// Validate checks the structural contract the game relies on.
func (r *Round) Validate() error {
	switch r.Type {
	case DefaultRoundType:
		if len(r.Categories) == 0 {
			return fmt.Errorf("round %q: %w", r.Name, ErrEmptyRound)
		}
		if r.Cells() > MaxCellsPerRound {
			return fmt.Errorf("round %q has %d clues (max %d): %w", r.Name, r.Cells(), MaxCellsPerRound, ErrRoundTooLarge)
		}
	case FinalRoundType:
	default:
		return fmt.Errorf("round %q: %w: %q", r.Name, ErrUnknownRoundType, r.Type)
	}
	return nil
}

// Definition is one playable game: an ordered list of rounds.
type Definition struct {
	Rounds []Round `json:"rounds"`
}

// Validate checks every round.
func (d *Definition) Validate() error {
	if len(d.Rounds) == 0 {
		return ErrNoRounds
	}
	for i := range d.Rounds {
		if err := d.Rounds[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Parse decodes and validates a game definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode game definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}
