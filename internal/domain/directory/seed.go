package directory

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

var (
	firstNames  = []string{"Aarav", "Meera", "James", "Sofia", "Kenji", "Amara", "Lucas", "Priya", "Omar", "Elena"}
	lastNames   = []string{"Sharma", "Okafor", "Nguyen", "Rossi", "Tanaka", "Patel", "Schmidt", "Haddad", "Moreno", "Kim"}
	specialties = []string{"Cardiology", "Dermatology", "Neurology", "Orthopedics", "Pediatrics", "Psychiatry", "General Medicine"}
	hospitals   = []string{"City General Hospital", "St. Mary's Medical Center", "Lakeside Clinic", "Riverside Health"}
	degrees     = []string{"MBBS", "MD", "MBBS, MD", "MBBS, MS", "DO"}
)

// Generator produces reproducible directory entries for demos and local
// development. The same seed always yields the same doctors, ids included.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *Generator) id() uuid.UUID {
	var b [16]byte
	g.rng.Read(b[:])
	id, _ := uuid.FromBytes(b[:])
	// RFC 4122 version 4 layout.
	id[6] = (id[6] & 0x0f) | 0x40
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}

func (g *Generator) Doctor() *Doctor {
	return &Doctor{
		ID:         g.id(),
		Name:       fmt.Sprintf("Dr. %s %s", g.pick(firstNames), g.pick(lastNames)),
		Specialty:  g.pick(specialties),
		Experience: fmt.Sprintf("%d years", 2+g.rng.Intn(30)),
		Hospital:   g.pick(hospitals),
		Education:  g.pick(degrees),
	}
}

// Seed inserts count generated doctors through repo. Existing ids are left
// untouched, so seeding twice with the same seed is a no-op.
func Seed(ctx context.Context, repo DoctorRepository, seed int64, count int) ([]*Doctor, error) {
	g := NewGenerator(seed)
	out := make([]*Doctor, 0, count)
	for i := 0; i < count; i++ {
		d := g.Doctor()
		if err := repo.Create(ctx, d); err != nil {
			return out, fmt.Errorf("seed doctor %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}
