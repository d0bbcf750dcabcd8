package member

import (
	"database/sql"
	"time"
)

// Member is a section member as seen by the pairing engine. Read-only here.
type Member struct {
	ID              int64
	SectionID       int64
	FirstName       string
	LastName        sql.NullString
	BirthDate       sql.NullTime
	BracketOverride sql.NullString // explicit age-bracket code, see BracketCode
	Gender          string         // free text, see NormalizeGender
	CreatedAt       time.Time
}

// DisplayName returns "First Last", or just the first name.
func (m *Member) DisplayName() string {
	if m.LastName.Valid && m.LastName.String != "" {
		return m.FirstName + " " + m.LastName.String
	}
	return m.FirstName
}

// AgeBracket is an entry of the externally managed bracket catalog (tranche).
type AgeBracket struct {
	ID     int64
	Name   string
	Order  int
	MinAge int
	MaxAge sql.NullInt32 // NULL means unbounded
}

// Contains reports whether age falls inside [MinAge, MaxAge].
func (b *AgeBracket) Contains(age int) bool {
	if age < b.MinAge {
		return false
	}
	return !b.MaxAge.Valid || age <= int(b.MaxAge.Int32)
}
