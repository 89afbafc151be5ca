package rules

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/Shopify/go-lua"
)

//go:embed evaluate.lua
var defaultScript string

// LuaEngine runs move evaluation through a Lua script that defines a
// global evaluate(move) function. The move arrives as a table with the
// candidate's fields; the script returns a table mirroring Result.
//
// A single Lua state backs the engine, so evaluations serialize behind a
// mutex. That is acceptable here: turn authority already serializes
// moves per session, and scripts are short.
type LuaEngine struct {
	mu    sync.Mutex
	state *lua.State
}

// NewLuaEngine compiles script and verifies it defines evaluate. An
// empty script selects the built-in evaluation.
func NewLuaEngine(script string) (*LuaEngine, error) {
	if script == "" {
		script = defaultScript
	}
	state := lua.NewState()
	lua.OpenLibraries(state)
	if err := lua.DoString(state, script); err != nil {
		return nil, fmt.Errorf("load rules script: %w", err)
	}
	state.Global("evaluate")
	defined := state.TypeOf(-1) == lua.TypeFunction
	state.Pop(1)
	if !defined {
		return nil, fmt.Errorf("rules script must define evaluate")
	}
	return &LuaEngine{state: state}, nil
}

// Default returns an engine running the built-in evaluation script.
func Default() *LuaEngine {
	engine, err := NewLuaEngine("")
	if err != nil {
		panic(fmt.Sprintf("built-in rules script failed to load: %v", err))
	}
	return engine
}

// Evaluate runs the script's evaluate function for the candidate.
func (e *LuaEngine) Evaluate(ctx context.Context, candidate Candidate) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	state := e.state
	state.Global("evaluate")
	state.NewTable()
	pushField(state, "color", candidate.Color)
	pushField(state, "from", candidate.From)
	pushField(state, "to", candidate.To)
	pushField(state, "promotion", candidate.Promotion)
	pushField(state, "position", candidate.Position)
	pushField(state, "claimed_position", candidate.ClaimedPosition)
	pushField(state, "claimed_notation", candidate.ClaimedNotation)

	if err := state.ProtectedCall(1, 1, 0); err != nil {
		return Result{}, fmt.Errorf("evaluate move: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeTable {
		state.Pop(1)
		return Result{}, fmt.Errorf("evaluate must return a table")
	}

	result := Result{
		Accepted:          fieldBool(state, "accepted"),
		ResultingPosition: fieldString(state, "position"),
		Notation:          fieldString(state, "notation"),
		Terminal:          fieldBool(state, "terminal"),
		Outcome:           fieldString(state, "outcome"),
		Reason:            fieldString(state, "reason"),
	}
	state.Pop(1)
	return result, nil
}

func pushField(state *lua.State, name, value string) {
	state.PushString(value)
	state.SetField(-2, name)
}

func fieldString(state *lua.State, name string) string {
	state.Field(-1, name)
	value, _ := state.ToString(-1)
	state.Pop(1)
	return value
}

func fieldBool(state *lua.State, name string) bool {
	state.Field(-1, name)
	value := state.ToBoolean(-1)
	state.Pop(1)
	return value
}
