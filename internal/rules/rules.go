// Package rules decides whether a proposed move is legal and whether it
// ends the game. The engine is the single authority for both: callers
// commit exactly what the engine returns and never merge client claims
// with their own judgement.
package rules

import "context"

// Candidate is a proposed move against a known position. Position is the
// authoritative pre-move position; ClaimedPosition and ClaimedNotation
// carry what the mover's client computed, which the engine is free to
// accept, correct, or reject.
type Candidate struct {
	Color           string
	From            string
	To              string
	Promotion       string
	Position        string
	ClaimedPosition string
	ClaimedNotation string
}

// Result is the engine's verdict. When Accepted is false, Reason explains
// the rejection and the remaining fields are meaningless. Terminal marks
// the move as game-ending with Outcome describing how.
type Result struct {
	Accepted          bool
	ResultingPosition string
	Notation          string
	Terminal          bool
	Outcome           string
	Reason            string
}

// Engine evaluates move candidates.
type Engine interface {
	Evaluate(ctx context.Context, candidate Candidate) (Result, error)
}
