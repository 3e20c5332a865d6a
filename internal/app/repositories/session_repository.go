package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/speexify/speexify/internal/app/models"
	"github.com/speexify/speexify/internal/pkg/apperrors"
)

const sessionColumns = `s.id, s.title, s.start_at, s.end_at, s.meeting_url, s.notes,
	s.user_id, s.teacher_id, s.created_at, s.updated_at`

// SessionRepository handles scheduled session persistence
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row pgx.Row) (*models.Session, error) {
	s := &models.Session{}
	err := row.Scan(
		&s.ID, &s.Title, &s.StartAt, &s.EndAt, &s.MeetingURL, &s.Notes,
		&s.UserID, &s.TeacherID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error scanning session: %w", err)
	}
	return s, nil
}

// Create inserts a session and fills in its generated fields.
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO sessions (title, start_at, end_at, meeting_url, notes, user_id, teacher_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		s.Title, s.StartAt, s.EndAt, s.MeetingURL, s.Notes, s.UserID, s.TeacherID).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	return scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions s WHERE s.id = $1`, id))
}

// SessionPatch is a partial session update. The Clear flags distinguish
// "set to NULL" from "leave unchanged" for nullable columns.
type SessionPatch struct {
	Title        *string
	StartAt      *time.Time
	EndAt        *time.Time
	ClearEnd     bool
	MeetingURL   *string
	Notes        *string
	UserID       *int64
	TeacherID    *int64
	ClearTeacher bool
}

// Update applies a partial update to a session.
func (r *SessionRepository) Update(ctx context.Context, id int64, patch SessionPatch) error {
	query := squirrel.Update("sessions").
		Set("updated_at", squirrel.Expr("now()")).
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	if patch.Title != nil {
		query = query.Set("title", *patch.Title)
	}
	if patch.StartAt != nil {
		query = query.Set("start_at", *patch.StartAt)
	}
	if patch.ClearEnd {
		query = query.Set("end_at", nil)
	} else if patch.EndAt != nil {
		query = query.Set("end_at", *patch.EndAt)
	}
	if patch.MeetingURL != nil {
		query = query.Set("meeting_url", nullIfEmpty(*patch.MeetingURL))
	}
	if patch.Notes != nil {
		query = query.Set("notes", nullIfEmpty(*patch.Notes))
	}
	if patch.UserID != nil {
		query = query.Set("user_id", *patch.UserID)
	}
	if patch.ClearTeacher {
		query = query.Set("teacher_id", nil)
	} else if patch.TeacherID != nil {
		query = query.Set("teacher_id", *patch.TeacherID)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

// Delete removes a session by ID
func (r *SessionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

// ListByLearner returns a learner's sessions ordered by start time.
func (r *SessionRepository) ListByLearner(ctx context.Context, userID int64) ([]*models.Session, error) {
	return r.list(ctx,
		`SELECT `+sessionColumns+` FROM sessions s WHERE s.user_id = $1 ORDER BY s.start_at ASC`,
		userID)
}

// ListByTeacher returns a teacher's assigned sessions ordered by start time.
func (r *SessionRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]*models.Session, error) {
	return r.list(ctx,
		`SELECT `+sessionColumns+` FROM sessions s WHERE s.teacher_id = $1 ORDER BY s.start_at ASC`,
		teacherID)
}

// ListAll returns every session ordered by start time.
func (r *SessionRepository) ListAll(ctx context.Context) ([]*models.Session, error) {
	return r.list(ctx,
		`SELECT `+sessionColumns+` FROM sessions s ORDER BY s.start_at ASC`)
}

// ListAssigned returns teacher-assigned sessions inside an optional window,
// optionally narrowed to a single teacher. Used by the workload report.
func (r *SessionRepository) ListAssigned(ctx context.Context, teacherID *int64, from, to *time.Time) ([]*models.Session, error) {
	query := squirrel.Select(sessionColumns).
		From("sessions s").
		Where("s.teacher_id IS NOT NULL").
		OrderBy("s.start_at ASC").
		PlaceholderFormat(squirrel.Dollar)
	if teacherID != nil {
		query = query.Where("s.teacher_id = ?", *teacherID)
	}
	if from != nil {
		query = query.Where("s.start_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("s.start_at <= ?", *to)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.list(ctx, sql, args...)
}

func (r *SessionRepository) list(ctx context.Context, sql string, args ...any) ([]*models.Session, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SessionFilter narrows the admin session search.
type SessionFilter struct {
	Query     string
	LearnerID *int64
	TeacherID *int64
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Search returns sessions with learner and teacher identity joined in,
// plus the total match count for pagination.
func (r *SessionRepository) Search(ctx context.Context, filter SessionFilter) ([]*models.SessionDetail, int64, error) {
	base := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	where := squirrel.And{}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"s.title": pattern},
			squirrel.ILike{"l.email": pattern},
			squirrel.ILike{"l.name": pattern},
			squirrel.ILike{"t.email": pattern},
			squirrel.ILike{"t.name": pattern},
		})
	}
	if filter.LearnerID != nil {
		where = append(where, squirrel.Eq{"s.user_id": *filter.LearnerID})
	}
	if filter.TeacherID != nil {
		where = append(where, squirrel.Eq{"s.teacher_id": *filter.TeacherID})
	}
	if filter.From != nil {
		where = append(where, squirrel.GtOrEq{"s.start_at": *filter.From})
	}
	if filter.To != nil {
		where = append(where, squirrel.LtOrEq{"s.start_at": *filter.To})
	}

	const joins = `sessions s
		JOIN users l ON l.id = s.user_id
		LEFT JOIN users t ON t.id = s.teacher_id`

	countQuery := base.Select("COUNT(*)").From(joins)
	if len(where) > 0 {
		countQuery = countQuery.Where(where)
	}
	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting sessions: %w", err)
	}

	query := base.Select(sessionColumns+`, l.email, l.name, t.email, t.name`).
		From(joins).
		OrderBy("s.start_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))
	if len(where) > 0 {
		query = query.Where(where)
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error searching sessions: %w", err)
	}
	defer rows.Close()

	var details []*models.SessionDetail
	for rows.Next() {
		d := &models.SessionDetail{}
		err := rows.Scan(
			&d.ID, &d.Title, &d.StartAt, &d.EndAt, &d.MeetingURL, &d.Notes,
			&d.UserID, &d.TeacherID, &d.CreatedAt, &d.UpdatedAt,
			&d.LearnerEmail, &d.LearnerName, &d.TeacherEmail, &d.TeacherName)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning session detail: %w", err)
		}
		details = append(details, d)
	}
	return details, total, rows.Err()
}

// FirstUpcoming returns a learner's next session starting at or after now,
// or nil when there is none.
func (r *SessionRepository) FirstUpcoming(ctx context.Context, userID int64, now time.Time) (*models.Session, error) {
	s, err := scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions s
		WHERE s.user_id = $1 AND s.start_at >= $2
		ORDER BY s.start_at ASC LIMIT 1`, userID, now))
	if errors.Is(err, apperrors.ErrSessionNotFound) {
		return nil, nil
	}
	return s, err
}

// CountUpcoming counts a learner's sessions starting at or after now.
func (r *SessionRepository) CountUpcoming(ctx context.Context, userID int64, now time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM sessions WHERE user_id = $1 AND start_at >= $2`,
		userID, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting sessions: %w", err)
	}
	return n, nil
}

// CountCompleted counts a learner's sessions already over. Open-ended
// sessions count once their start has passed.
func (r *SessionRepository) CountCompleted(ctx context.Context, userID int64, now time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM sessions
		WHERE user_id = $1 AND (end_at < $2 OR (end_at IS NULL AND start_at < $2))`,
		userID, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting sessions: %w", err)
	}
	return n, nil
}
