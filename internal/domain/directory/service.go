package directory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medmeet/medmeet/pkg/pagination"
)

const defaultTimeout = 5 * time.Second

// Service serves the read-only doctor directory. It supplies the doctorId,
// doctorName and specialty a patient needs to open an appointment request.
type Service struct {
	doctors DoctorRepository
	timeout time.Duration
}

func NewService(doctors DoctorRepository, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{doctors: doctors, timeout: timeout}
}

func (s *Service) ListDoctors(ctx context.Context, f Filter, page pagination.Params) ([]*Doctor, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	f.Specialty = strings.TrimSpace(f.Specialty)
	return s.doctors.List(ctx, f, page)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.doctors.GetByID(ctx, id)
}

// AddDoctor stores a directory entry. Name and specialty are required.
func (s *Service) AddDoctor(ctx context.Context, d *Doctor) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Specialty = strings.TrimSpace(d.Specialty)
	if d.Name == "" || d.Specialty == "" {
		return ErrInvalidDoctor
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.doctors.Create(ctx, d)
}
