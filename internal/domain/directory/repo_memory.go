package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medmeet/medmeet/pkg/pagination"
)

type memDoctorRepo struct {
	mu      sync.RWMutex
	doctors map[uuid.UUID]Doctor
}

func NewMemoryRepo() DoctorRepository {
	return &memDoctorRepo{doctors: make(map[uuid.UUID]Doctor)}
}

func (r *memDoctorRepo) Create(ctx context.Context, d *Doctor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if _, exists := r.doctors[d.ID]; !exists {
		r.doctors[d.ID] = *d
	}
	return nil
}

func (r *memDoctorRepo) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return &d, nil
}

func (r *memDoctorRepo) List(ctx context.Context, f Filter, page pagination.Params) ([]*Doctor, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	matches := make([]Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		if f.Specialty != "" && !strings.EqualFold(d.Specialty, f.Specialty) {
			continue
		}
		matches = append(matches, d)
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Name != matches[j].Name {
			return matches[i].Name < matches[j].Name
		}
		return matches[i].ID.String() < matches[j].ID.String()
	})

	start, end := page.Bounds(len(matches))
	items := make([]*Doctor, 0, end-start)
	for i := start; i < end; i++ {
		d := matches[i]
		items = append(items, &d)
	}
	return items, len(matches), nil
}
