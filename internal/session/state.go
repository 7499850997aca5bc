package session

import (
	"sync"
	"time"

	"pharmacy-dashboard/internal/models"
)

// State is everything one browser session holds between interactions. Hold
// the embedded mutex while reading or replacing fields.
type State struct {
	sync.Mutex

	ID        string
	CreatedAt time.Time

	FileName string
	LoadedAt time.Time
	Table    *models.SalesTable
	// Products is computed once per upload and seeds Selection.
	Products  []string
	Selection []string
}

func (s *State) HasData() bool {
	return s.Table != nil
}
