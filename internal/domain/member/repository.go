package member

import "context"

// Repository defines read access to the member directory and the bracket catalog.
type Repository interface {
	ListBySection(ctx context.Context, sectionID int64) ([]*Member, error)
	ListBrackets(ctx context.Context) ([]*AgeBracket, error)
}
