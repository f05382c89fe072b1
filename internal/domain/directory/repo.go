package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medmeet/medmeet/pkg/pagination"
)

var (
	ErrDoctorNotFound = errors.New("doctor not found")
	ErrInvalidDoctor  = errors.New("doctor name and specialty are required")
)

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	// List returns one page of doctors ordered by name and the total number
	// of matches.
	List(ctx context.Context, f Filter, page pagination.Params) ([]*Doctor, int, error)
}
