package domain

import "time"

// MovePayload is the application-level move artifact. The core never
// interprets it; the rules engine does.
type MovePayload struct {
	From      string
	To        string
	Promotion string
}

// MoveRecord is one committed entry of a session's move log. Records are
// immutable once committed; sequence numbers start at 1 and are gapless per
// session, and PositionAfter of record n is the input position validated for
// record n+1.
type MoveRecord struct {
	SessionID     string
	Seq           uint64
	Color         Color
	Payload       MovePayload
	Notation      string
	PositionAfter string
	CommittedAt   time.Time
}
