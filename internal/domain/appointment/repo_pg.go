package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medmeet/medmeet/internal/platform/db"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	constraintOnePending    = "appointment_requests_one_pending"
	constraintOnePerRequest = "appointment_responses_one_per_request"
)

// translatePgError turns constraint violations into the repository
// sentinels and leaves every other error wrapped as is.
func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRecordNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraintOnePending:
			return ErrPendingExists
		case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraintOnePerRequest:
			return ErrResponseExists
		case pgErr.Code == pgForeignKeyViolation:
			return ErrRecordNotFound
		}
	}
	return err
}

// =========== Request Repository ===========

type requestRepoPG struct{ pool *pgxpool.Pool }

func NewRequestRepoPG(pool *pgxpool.Pool) RequestRepository { return &requestRepoPG{pool: pool} }

func (r *requestRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const requestCols = `id, sender_id, receiver_id, sender_name, doctor_name, specialty, status, created_at, updated_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.SenderName, &req.DoctorName,
		&req.Specialty, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, translatePgError(err)
	}
	return &req, nil
}

func (r *requestRepoPG) Create(ctx context.Context, req *Request) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = req.CreatedAt
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment_requests (id, sender_id, receiver_id, sender_name, doctor_name,
			specialty, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		req.ID, req.SenderID, req.ReceiverID, req.SenderName, req.DoctorName,
		req.Specialty, req.Status, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert request: %w", translatePgError(err))
	}
	return nil
}

func (r *requestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	return scanRequest(r.conn(ctx).QueryRow(ctx, `SELECT `+requestCols+` FROM appointment_requests WHERE id = $1`, id))
}

func (r *requestRepoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Request, error) {
	return scanRequest(r.conn(ctx).QueryRow(ctx, `SELECT `+requestCols+` FROM appointment_requests WHERE id = $1 FOR UPDATE`, id))
}

func (r *requestRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to RequestStatus, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment_requests SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`,
		id, from, to, at)
	if err != nil {
		return fmt.Errorf("update request status: %w", translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *requestRepoPG) List(ctx context.Context, f RequestFilter) ([]*Request, error) {
	query := `SELECT ` + requestCols + ` FROM appointment_requests WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.SenderID != "" {
		query += fmt.Sprintf(` AND sender_id = $%d`, idx)
		args = append(args, f.SenderID)
		idx++
	}
	if f.ReceiverID != "" {
		query += fmt.Sprintf(` AND receiver_id = $%d`, idx)
		args = append(args, f.ReceiverID)
		idx++
	}
	if f.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, f.Status)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	items := []*Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		items = append(items, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return items, nil
}

// =========== Response Repository ===========

type responseRepoPG struct{ pool *pgxpool.Pool }

func NewResponseRepoPG(pool *pgxpool.Pool) ResponseRepository { return &responseRepoPG{pool: pool} }

func (r *responseRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const responseCols = `id, sender_id, receiver_id, request_id, doctor_name, patient_name,
	scheduled_date, scheduled_time, status, created_at`

func scanResponse(row pgx.Row) (*Response, error) {
	var resp Response
	var date time.Time
	err := row.Scan(&resp.ID, &resp.SenderID, &resp.ReceiverID, &resp.RequestID, &resp.DoctorName,
		&resp.PatientName, &date, &resp.ScheduledTime, &resp.Status, &resp.CreatedAt)
	if err != nil {
		return nil, translatePgError(err)
	}
	resp.ScheduledDate = NewDate(date)
	return &resp, nil
}

func (r *responseRepoPG) Create(ctx context.Context, resp *Response) error {
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now().UTC()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment_responses (id, sender_id, receiver_id, request_id, doctor_name,
			patient_name, scheduled_date, scheduled_time, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		resp.ID, resp.SenderID, resp.ReceiverID, resp.RequestID, resp.DoctorName,
		resp.PatientName, resp.ScheduledDate.Time, resp.ScheduledTime, resp.Status, resp.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert response: %w", translatePgError(err))
	}
	return nil
}

func (r *responseRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Response, error) {
	return scanResponse(r.conn(ctx).QueryRow(ctx, `SELECT `+responseCols+` FROM appointment_responses WHERE id = $1`, id))
}

func (r *responseRepoPG) List(ctx context.Context, f ResponseFilter) ([]*Response, error) {
	query := `SELECT ` + responseCols + ` FROM appointment_responses WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.SenderID != "" {
		query += fmt.Sprintf(` AND sender_id = $%d`, idx)
		args = append(args, f.SenderID)
		idx++
	}
	if f.ReceiverID != "" {
		query += fmt.Sprintf(` AND receiver_id = $%d`, idx)
		args = append(args, f.ReceiverID)
		idx++
	}
	if f.RequestID != uuid.Nil {
		query += fmt.Sprintf(` AND request_id = $%d`, idx)
		args = append(args, f.RequestID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	items := []*Response{}
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		items = append(items, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	return items, nil
}
