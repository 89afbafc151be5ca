// Package sqlite provides the durable SessionStore backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/midgame-live/midgame/internal/match/domain"
	"github.com/midgame-live/midgame/internal/match/storage"
	"github.com/midgame-live/midgame/internal/match/storage/sqlite/migrations"
	"github.com/midgame-live/midgame/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for sessions and move logs.
type Store struct {
	sqlDB *sql.DB
}

// Open opens and migrates a match SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// dsn builds the connection string. modernc.org/sqlite applies pragmas
// through repeated _pragma=name(value) parameters; the mattn-style
// _journal_mode keys are silently ignored by this driver.
func dsn(path string) string {
	return filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(ON)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"
}

// Close releases the underlying SQLite connection.
//
// Close is intentionally nil-safe so callers can defer it in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func toNullMillis(value time.Time) sql.NullInt64 {
	if value.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(value), Valid: true}
}

func fromNullMillis(value sql.NullInt64) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	return fromMillis(value.Int64)
}

// CreateSession persists a new session at version 1.
func (s *Store) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	if s == nil || s.sqlDB == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(session.ID) == "" {
		return domain.Session{}, fmt.Errorf("session id is required")
	}

	session.Version = 1
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO sessions (
    id, host_color, lifecycle, current_turn, initial_fen, current_fen,
    description, last_seq, version, outcome,
    white_token, white_joined_at, white_last_seen,
    black_token, black_joined_at, black_last_seen,
    created_at, updated_at, ended_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		string(session.HostColor),
		string(session.Lifecycle),
		string(session.CurrentTurn),
		session.InitialPosition,
		session.CurrentPosition,
		session.Description,
		int64(session.LastSeq),
		int64(session.Version),
		session.Outcome,
		session.White.OccupantToken,
		toNullMillis(session.White.JoinedAt),
		toNullMillis(session.White.LastSeen),
		session.Black.OccupantToken,
		toNullMillis(session.Black.JoinedAt),
		toNullMillis(session.Black.LastSeen),
		toMillis(session.CreatedAt),
		toMillis(session.UpdatedAt),
		endedAtMillis(session.EndedAt),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return domain.Session{}, storage.ErrAlreadyExists
		}
		return domain.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

// GetSession loads a session by id.
func (s *Store) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	if s == nil || s.sqlDB == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, host_color, lifecycle, current_turn, initial_fen, current_fen,
       description, last_seq, version, outcome,
       white_token, white_joined_at, white_last_seen,
       black_token, black_joined_at, black_last_seen,
       created_at, updated_at, ended_at
FROM sessions WHERE id = ?`, sessionID)

	return scanSession(row)
}

// UpdateSession replaces the session's mutable fields when the stored version
// still matches session.Version.
func (s *Store) UpdateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	if s == nil || s.sqlDB == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}

	result, err := s.casExec(ctx, s.sqlDB, session)
	if err != nil {
		return domain.Session{}, err
	}
	if !result {
		return domain.Session{}, s.casFailure(ctx, session.ID)
	}
	session.Version++
	return session, nil
}

// CommitMove applies the session update and appends the move record in one
// transaction. The sequence check in the moves primary key backs up the
// version CAS: a duplicate (session_id, seq) can never be inserted.
func (s *Store) CommitMove(ctx context.Context, session domain.Session, record domain.MoveRecord) (domain.Session, error) {
	if s == nil || s.sqlDB == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Session{}, fmt.Errorf("begin commit transaction: %w", err)
	}

	updated, err := s.casExec(ctx, tx, session)
	if err != nil {
		_ = tx.Rollback()
		return domain.Session{}, err
	}
	if !updated {
		_ = tx.Rollback()
		return domain.Session{}, s.casFailure(ctx, session.ID)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO moves (session_id, seq, color, from_square, to_square, promotion, san, fen_after, committed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.SessionID,
		int64(record.Seq),
		string(record.Color),
		record.Payload.From,
		record.Payload.To,
		record.Payload.Promotion,
		record.Notation,
		record.PositionAfter,
		toMillis(record.CommittedAt),
	); err != nil {
		_ = tx.Rollback()
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return domain.Session{}, storage.ErrVersionConflict
		}
		return domain.Session{}, fmt.Errorf("insert move: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Session{}, fmt.Errorf("commit move transaction: %w", err)
	}
	session.Version++
	return session, nil
}

// ListMoves returns the session's move log in sequence order.
func (s *Store) ListMoves(ctx context.Context, sessionID string) ([]domain.MoveRecord, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT session_id, seq, color, from_square, to_square, promotion, san, fen_after, committed_at
FROM moves WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	defer rows.Close()

	var records []domain.MoveRecord
	for rows.Next() {
		var record domain.MoveRecord
		var seq, committedAt int64
		var color string
		if err := rows.Scan(
			&record.SessionID,
			&seq,
			&color,
			&record.Payload.From,
			&record.Payload.To,
			&record.Payload.Promotion,
			&record.Notation,
			&record.PositionAfter,
			&committedAt,
		); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		record.Seq = uint64(seq)
		record.Color = domain.Color(color)
		record.CommittedAt = fromMillis(committedAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read moves: %w", err)
	}
	return records, nil
}

// execer covers *sql.DB and *sql.Tx for the CAS update.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// casExec runs the version-guarded update and reports whether a row changed.
func (s *Store) casExec(ctx context.Context, db execer, session domain.Session) (bool, error) {
	result, err := db.ExecContext(ctx, `
UPDATE sessions SET
    lifecycle = ?, current_turn = ?, current_fen = ?,
    last_seq = ?, version = version + 1, outcome = ?,
    white_token = ?, white_joined_at = ?, white_last_seen = ?,
    black_token = ?, black_joined_at = ?, black_last_seen = ?,
    updated_at = ?, ended_at = ?
WHERE id = ? AND version = ?`,
		string(session.Lifecycle),
		string(session.CurrentTurn),
		session.CurrentPosition,
		int64(session.LastSeq),
		session.Outcome,
		session.White.OccupantToken,
		toNullMillis(session.White.JoinedAt),
		toNullMillis(session.White.LastSeen),
		session.Black.OccupantToken,
		toNullMillis(session.Black.JoinedAt),
		toNullMillis(session.Black.LastSeen),
		toMillis(session.UpdatedAt),
		endedAtMillis(session.EndedAt),
		session.ID,
		int64(session.Version),
	)
	if err != nil {
		return false, fmt.Errorf("update session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update session rows: %w", err)
	}
	return affected == 1, nil
}

// casFailure distinguishes a lost race from a missing session.
func (s *Store) casFailure(ctx context.Context, sessionID string) error {
	var found int
	err := s.sqlDB.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE id = ?", sessionID).Scan(&found)
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	return storage.ErrVersionConflict
}

func endedAtMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.Session, error) {
	var session domain.Session
	var hostColor, lifecycle, currentTurn string
	var lastSeq, version, createdAt, updatedAt int64
	var whiteJoined, whiteSeen, blackJoined, blackSeen, endedAt sql.NullInt64

	err := row.Scan(
		&session.ID,
		&hostColor,
		&lifecycle,
		&currentTurn,
		&session.InitialPosition,
		&session.CurrentPosition,
		&session.Description,
		&lastSeq,
		&version,
		&session.Outcome,
		&session.White.OccupantToken,
		&whiteJoined,
		&whiteSeen,
		&session.Black.OccupantToken,
		&blackJoined,
		&blackSeen,
		&createdAt,
		&updatedAt,
		&endedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Session{}, storage.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("scan session: %w", err)
	}

	session.HostColor = domain.Color(hostColor)
	session.Lifecycle = domain.Lifecycle(lifecycle)
	session.CurrentTurn = domain.Color(currentTurn)
	session.LastSeq = uint64(lastSeq)
	session.Version = uint64(version)
	session.White.JoinedAt = fromNullMillis(whiteJoined)
	session.White.LastSeen = fromNullMillis(whiteSeen)
	session.Black.JoinedAt = fromNullMillis(blackJoined)
	session.Black.LastSeen = fromNullMillis(blackSeen)
	session.CreatedAt = fromMillis(createdAt)
	session.UpdatedAt = fromMillis(updatedAt)
	if endedAt.Valid {
		ended := fromMillis(endedAt.Int64)
		session.EndedAt = &ended
	}
	return session, nil
}
