package directory

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is a public directory entry. Credentials live with the identity
// provider and never appear here.
type Doctor struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Specialty  string    `json:"specialty"`
	Experience string    `json:"experience"`
	Hospital   string    `json:"hospital"`
	Education  string    `json:"education"`
	Image      string    `json:"image"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Filter narrows a directory listing. Specialty matches case-insensitively.
type Filter struct {
	Specialty string
}
