package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Store-level outcomes that repositories report instead of driver errors.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrPendingExists  = errors.New("a pending request already exists for this sender and receiver")
	ErrResponseExists = errors.New("a response already exists for this request")
	ErrStaleStatus    = errors.New("request is no longer in the expected status")
)

// RequestFilter selects requests; empty fields match everything.
type RequestFilter struct {
	SenderID   string
	ReceiverID string
	Status     RequestStatus
}

// ResponseFilter selects responses; empty fields match everything.
type ResponseFilter struct {
	SenderID   string
	ReceiverID string
	RequestID  uuid.UUID
}

type RequestRepository interface {
	// Create inserts r, assigning ID when unset. It must fail with
	// ErrPendingExists when a pending request for the same sender and
	// receiver already exists, atomically with the insert.
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	// GetByIDForUpdate loads r and locks it until the surrounding
	// transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Request, error)
	// UpdateStatus moves the request from one status to another and fails
	// with ErrStaleStatus when it is not currently in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to RequestStatus, at time.Time) error
	// List returns matching requests ordered by creation time.
	List(ctx context.Context, f RequestFilter) ([]*Request, error)
}

type ResponseRepository interface {
	// Create inserts r, assigning ID when unset. It must fail with
	// ErrResponseExists when r.RequestID already has a response.
	Create(ctx context.Context, r *Response) error
	GetByID(ctx context.Context, id uuid.UUID) (*Response, error)
	// List returns matching responses ordered by creation time.
	List(ctx context.Context, f ResponseFilter) ([]*Response, error)
}

// Transactor runs fn so that every repository write made through the ctx it
// receives commits or rolls back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
