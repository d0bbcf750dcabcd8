package section

import (
	"context"
	"time"
)

// Section is an organizational unit whose members are paired together.
type Section struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Repository defines read access to sections.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Section, error)
	ListAll(ctx context.Context) ([]*Section, error)
}
