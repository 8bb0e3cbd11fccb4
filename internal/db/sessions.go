package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/internx-match/internal/types"
	"go.uber.org/zap"
)

// startAttempts bounds the insert-or-fetch loop. A retry is only needed when
// the conflicting session completes between the insert and the fetch.
const startAttempts = 3

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*types.InterviewSession, error) {
	var (
		s            types.InterviewSession
		status       string
		skillScores  []byte
		transcript   []byte
		strengths    []string
		improvements []string
	)
	err := row.Scan(&s.ID, &s.CandidateID, &s.InterviewType, &status, &s.StartedAt, &s.CompletedAt,
		&s.OverallScore, &skillScores, &strengths, &improvements,
		&s.Title, &s.Category, &s.Subcategory, &s.Difficulty, &transcript)
	if err != nil {
		return nil, err
	}
	s.Status = types.SessionStatus(status)
	s.Strengths = strengths
	s.Improvements = improvements
	if len(skillScores) > 0 {
		if err := json.Unmarshal(skillScores, &s.SkillScores); err != nil {
			return nil, fmt.Errorf("failed to decode skill scores: %w", err)
		}
	}
	s.Transcript = types.EmptyTranscript()
	if len(transcript) > 0 {
		if err := json.Unmarshal(transcript, &s.Transcript); err != nil {
			return nil, fmt.Errorf("failed to decode transcript: %w", err)
		}
	}
	return &s, nil
}

// insertSessionSQL builds the INSERT for a fresh in_progress session with
// the optional columns the schema supports. onConflict is appended verbatim.
func (db *DB) insertSessionSQL(onConflict string) string {
	cols := append([]string{"id", "candidate_id", "interview_type", "status", "started_at"}, db.caps.insertColumns()...)
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO interview_sessions (%s) VALUES (%s) %s RETURNING %s",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), onConflict, db.caps.sessionColumns())
}

func (db *DB) insertSessionArgs(id, candidateID uuid.UUID, meta types.SessionMetadata, startedAt time.Time) ([]any, error) {
	args := []any{id, candidateID, meta.InterviewType, string(types.SessionInProgress), startedAt}
	if db.caps.Title {
		args = append(args, nullable(meta.Title))
	}
	if db.caps.Category {
		args = append(args, nullable(meta.Category))
	}
	if db.caps.Subcategory {
		args = append(args, nullable(meta.Subcategory))
	}
	if db.caps.Difficulty {
		args = append(args, nullable(meta.Difficulty))
	}
	if db.caps.Transcript {
		raw, err := json.Marshal(types.EmptyTranscript())
		if err != nil {
			return nil, fmt.Errorf("failed to encode transcript: %w", err)
		}
		args = append(args, raw)
	}
	return args, nil
}

// StartSession inserts an in_progress session or returns the existing one.
// The partial unique index makes the insert a no-op when a session is
// already active, in which case the active row is fetched.
func (db *DB) StartSession(ctx context.Context, candidateID uuid.UUID, meta types.SessionMetadata, startedAt time.Time) (*types.InterviewSession, bool, error) {
	query := db.insertSessionSQL(`ON CONFLICT (candidate_id, interview_type) WHERE status = 'in_progress' DO NOTHING`)

	for attempt := 0; attempt < startAttempts; attempt++ {
		args, err := db.insertSessionArgs(uuid.New(), candidateID, meta, startedAt)
		if err != nil {
			return nil, false, err
		}
		session, err := scanSession(db.pool.QueryRow(ctx, query, args...))
		if err == nil {
			return session, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, types.NewStoreError("insert session", err)
		}

		active, err := db.activeSession(ctx, candidateID, meta.InterviewType)
		if err != nil {
			return nil, false, err
		}
		if active != nil {
			return active, false, nil
		}
		db.logger.Debug("active session vanished between insert and fetch, retrying",
			zap.String("candidate_id", candidateID.String()),
			zap.Int("attempt", attempt+1))
	}
	return nil, false, types.NewStoreError("start session", errors.New("active session kept changing"))
}

func (db *DB) activeSession(ctx context.Context, candidateID uuid.UUID, interviewType string) (*types.InterviewSession, error) {
	session, err := scanSession(db.pool.QueryRow(ctx,
		`SELECT `+db.caps.sessionColumns()+` FROM interview_sessions
		 WHERE candidate_id = $1 AND interview_type = $2 AND status = 'in_progress'`,
		candidateID, interviewType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewStoreError("get active session", err)
	}
	return session, nil
}

// GetSession retrieves a session by ID
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*types.InterviewSession, error) {
	session, err := scanSession(db.pool.QueryRow(ctx,
		`SELECT `+db.caps.sessionColumns()+` FROM interview_sessions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewStoreError("get session", err)
	}
	return session, nil
}

// RestartSession deletes the session, any other active session of the same
// type, and their responses, then inserts a fresh session, in one transaction.
func (db *DB) RestartSession(ctx context.Context, old *types.InterviewSession, startedAt time.Time) (*types.InterviewSession, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, types.NewStoreError("begin restart", err)
	}
	defer db.rollback(ctx, tx)

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM interview_sessions WHERE id = $1 FOR UPDATE`, old.ID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: session %s", types.ErrNotFound, old.ID)
		}
		return nil, types.NewStoreError("lock session", err)
	}

	const doomed = `SELECT id FROM interview_sessions
		WHERE id = $1 OR (candidate_id = $2 AND interview_type = $3 AND status = 'in_progress')`
	if _, err := tx.Exec(ctx, `DELETE FROM interview_responses WHERE session_id IN (`+doomed+`)`,
		old.ID, old.CandidateID, old.InterviewType); err != nil {
		return nil, types.NewStoreError("delete responses", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM interview_sessions WHERE id IN (`+doomed+`)`,
		old.ID, old.CandidateID, old.InterviewType); err != nil {
		return nil, types.NewStoreError("delete session", err)
	}

	args, err := db.insertSessionArgs(uuid.New(), old.CandidateID, types.MetadataOf(old), startedAt)
	if err != nil {
		return nil, err
	}
	fresh, err := scanSession(tx.QueryRow(ctx, db.insertSessionSQL(""), args...))
	if err != nil {
		return nil, types.NewStoreError("insert session", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, types.NewStoreError("commit restart", err)
	}
	return fresh, nil
}

// CompleteSession writes scores, responses and the profile update in one
// transaction, guarded by status = 'in_progress'.
func (db *DB) CompleteSession(ctx context.Context, c types.Completion) (*types.InterviewSession, error) {
	skillScores, err := json.Marshal(c.SkillScores)
	if err != nil {
		return nil, fmt.Errorf("failed to encode skill scores: %w", err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, types.NewStoreError("begin completion", err)
	}
	defer db.rollback(ctx, tx)

	set := `status = 'completed', completed_at = $2, overall_score = $3, skill_scores = $4, strengths = $5, improvements = $6`
	args := []any{c.SessionID, c.CompletedAt, c.OverallScore, skillScores, nonNil(c.Strengths), nonNil(c.Improvements)}
	if db.caps.Transcript {
		transcript, err := json.Marshal(c.Transcript)
		if err != nil {
			return nil, fmt.Errorf("failed to encode transcript: %w", err)
		}
		set += `, transcript = $7`
		args = append(args, transcript)
	}

	session, err := scanSession(tx.QueryRow(ctx,
		`UPDATE interview_sessions SET `+set+`
		 WHERE id = $1 AND status = 'in_progress'
		 RETURNING `+db.caps.sessionColumns(), args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: session %s is not in progress", types.ErrInvalidState, c.SessionID)
		}
		return nil, types.NewStoreError("complete session", err)
	}

	batch := &pgx.Batch{}
	for _, r := range c.Responses {
		batch.Queue(
			`INSERT INTO interview_responses (id, session_id, question_text, response_text, category, score, analysis, asked_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.ID, c.SessionID, r.QuestionText, r.ResponseText, r.Category, r.Score, r.Analysis, r.AskedAt)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, types.NewStoreError("insert responses", err)
		}
	}

	if err := applyProfileUpdate(ctx, tx, c.CandidateID, c.Profile, c.CompletedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, types.NewStoreError("commit completion", err)
	}
	return session, nil
}

// RescoreSession rewrites the scores of a completed session and its
// responses, then refreshes the candidate profile, in one transaction.
func (db *DB) RescoreSession(ctx context.Context, r types.Rescore) (*types.InterviewSession, error) {
	skillScores, err := json.Marshal(r.SkillScores)
	if err != nil {
		return nil, fmt.Errorf("failed to encode skill scores: %w", err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, types.NewStoreError("begin rescore", err)
	}
	defer db.rollback(ctx, tx)

	session, err := scanSession(tx.QueryRow(ctx,
		`UPDATE interview_sessions
		 SET overall_score = $2, skill_scores = $3, strengths = $4, improvements = $5
		 WHERE id = $1 AND status = 'completed'
		 RETURNING `+db.caps.sessionColumns(),
		r.SessionID, r.OverallScore, skillScores, nonNil(r.Strengths), nonNil(r.Improvements)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: session %s is not completed", types.ErrInvalidState, r.SessionID)
		}
		return nil, types.NewStoreError("rescore session", err)
	}

	batch := &pgx.Batch{}
	for _, resp := range r.Responses {
		batch.Queue(
			`UPDATE interview_responses SET score = $3, analysis = $4 WHERE id = $1 AND session_id = $2`,
			resp.ID, r.SessionID, resp.Score, resp.Analysis)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, types.NewStoreError("update responses", err)
		}
	}

	if err := applyProfileUpdate(ctx, tx, r.CandidateID, r.Profile, r.CompletedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, types.NewStoreError("commit rescore", err)
	}
	return session, nil
}

// ListSessions retrieves the candidate's sessions, newest first. An empty
// interviewType lists every type.
func (db *DB) ListSessions(ctx context.Context, candidateID uuid.UUID, interviewType string) ([]types.InterviewSession, error) {
	query := `SELECT ` + db.caps.sessionColumns() + ` FROM interview_sessions WHERE candidate_id = $1`
	args := []any{candidateID}
	if interviewType != "" {
		query += ` AND interview_type = $2`
		args = append(args, interviewType)
	}
	query += ` ORDER BY started_at DESC, id`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, types.NewStoreError("list sessions", err)
	}
	defer rows.Close()

	var sessions []types.InterviewSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, types.NewStoreError("scan session", err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStoreError("list sessions", err)
	}
	return sessions, nil
}

// LatestSession retrieves the most recently started session of any type.
func (db *DB) LatestSession(ctx context.Context, candidateID uuid.UUID) (*types.InterviewSession, error) {
	session, err := scanSession(db.pool.QueryRow(ctx,
		`SELECT `+db.caps.sessionColumns()+` FROM interview_sessions
		 WHERE candidate_id = $1 ORDER BY started_at DESC LIMIT 1`, candidateID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewStoreError("latest session", err)
	}
	return session, nil
}

// ListResponses retrieves a session's responses in the order they were asked.
func (db *DB) ListResponses(ctx context.Context, sessionID uuid.UUID) ([]types.InterviewResponse, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, question_text, response_text, category, score, analysis, asked_at
		 FROM interview_responses WHERE session_id = $1 ORDER BY asked_at, id`, sessionID)
	if err != nil {
		return nil, types.NewStoreError("list responses", err)
	}
	defer rows.Close()

	var out []types.InterviewResponse
	for rows.Next() {
		var r types.InterviewResponse
		if err := rows.Scan(&r.ID, &r.SessionID, &r.QuestionText, &r.ResponseText, &r.Category, &r.Score, &r.Analysis, &r.AskedAt); err != nil {
			return nil, types.NewStoreError("scan response", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStoreError("list responses", err)
	}
	return out, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
