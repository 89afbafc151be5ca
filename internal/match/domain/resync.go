package domain

// LocalView is an observer's locally held working state: the position it
// renders and the turn indicator it derived from optimistic local moves.
type LocalView struct {
	Position string
	Turn     Color
	Seq      uint64
	Version  uint64
}

// Reconcile applies the resync protocol to a local view against an
// authoritative snapshot.
//
// Snapshots older than what the observer has already seen are ignored, which
// keeps the observer's view monotonic when deliveries arrive out of order.
// For a current-or-newer snapshot, any mismatch between the local turn
// indicator or position and the authoritative ones discards the local view
// wholesale; positions are never merged. Reconcile is idempotent and safe to
// call on every inbound snapshot.
func Reconcile(local LocalView, snapshot Snapshot) (LocalView, bool) {
	if snapshot.Version < local.Version {
		return local, false
	}

	if local.Turn == snapshot.CurrentTurn &&
		local.Position == snapshot.CurrentPosition &&
		local.Seq == snapshot.Seq &&
		local.Version == snapshot.Version {
		return local, false
	}

	return LocalView{
		Position: snapshot.CurrentPosition,
		Turn:     snapshot.CurrentTurn,
		Seq:      snapshot.Seq,
		Version:  snapshot.Version,
	}, true
}
