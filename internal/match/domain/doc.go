// Package domain holds the pure session, seat, and move-log model for a
// two-seat board game match.
//
// All state transitions are expressed as methods on value copies; persistence,
// rules evaluation, and propagation live in other packages. The invariants
// enforced here are the correctness core: one occupant per seat, a fixed
// seat-to-color map, a gapless move sequence, and a turn flag that flips
// exactly once per committed move.
package domain
