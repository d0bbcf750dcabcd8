package member

import (
	"sort"
	"strings"
	"time"
)

// BracketCode is an explicit age-bracket override carried by a member.
// It resolves to the catalog bracket whose name is exactly the code.
type BracketCode string

const (
	BracketS1 BracketCode = "S1"
	BracketS2 BracketCode = "S2"
	BracketS3 BracketCode = "S3"
	BracketS4 BracketCode = "S4"
)

var validBracketCodes = map[BracketCode]struct{}{
	BracketS1: {},
	BracketS2: {},
	BracketS3: {},
	BracketS4: {},
}

// ParseBracketCode returns the override code for raw, or false when raw is not
// one of the known codes.
func ParseBracketCode(raw string) (BracketCode, bool) {
	code := BracketCode(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := validBracketCodes[code]
	return code, ok
}

// BracketResolver maps members to a bracket of the catalog.
type BracketResolver struct {
	ordered []*AgeBracket
	byName  map[string]*AgeBracket
}

// NewBracketResolver sorts the catalog by order then name. The input slice is not modified.
func NewBracketResolver(brackets []*AgeBracket) *BracketResolver {
	ordered := make([]*AgeBracket, len(brackets))
	copy(ordered, brackets)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Order != ordered[j].Order {
			return ordered[i].Order < ordered[j].Order
		}
		return ordered[i].Name < ordered[j].Name
	})

	byName := make(map[string]*AgeBracket, len(ordered))
	for _, b := range ordered {
		if _, exists := byName[b.Name]; !exists {
			byName[b.Name] = b
		}
	}
	return &BracketResolver{ordered: ordered, byName: byName}
}

// Brackets returns the catalog in resolution order.
func (r *BracketResolver) Brackets() []*AgeBracket {
	return r.ordered
}

// Resolve returns the bracket id of m as of now. The second value is false when
// the member is ineligible: unknown override bracket, no birth date, or an age
// no bracket covers.
func (r *BracketResolver) Resolve(m *Member, now time.Time) (int64, bool) {
	if m.BracketOverride.Valid {
		if code, ok := ParseBracketCode(m.BracketOverride.String); ok {
			b, found := r.byName[string(code)]
			if !found {
				return 0, false
			}
			return b.ID, true
		}
	}

	if !m.BirthDate.Valid {
		return 0, false
	}

	age := AgeAt(m.BirthDate.Time, now)
	for _, b := range r.ordered {
		if b.Contains(age) {
			return b.ID, true
		}
	}
	return 0, false
}

// AgeAt returns the age in whole years at now. The birthday counts on the day itself.
func AgeAt(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}
