package member

import "strings"

const (
	GenderMale   = "M"
	GenderFemale = "F"
)

var genderSynonyms = map[string]string{
	"m":        GenderMale,
	"male":     GenderMale,
	"homme":    GenderMale,
	"masculin": GenderMale,
	"f":        GenderFemale,
	"female":   GenderFemale,
	"femme":    GenderFemale,
	"feminin":  GenderFemale,
	"féminin":  GenderFemale,
	"feminine": GenderFemale,
	"féminine": GenderFemale,
}

// NormalizeGender canonicalizes a free-text gender. Known synonyms map to
// GenderMale or GenderFemale; any other non-empty value is returned upper-cased
// and forms its own bucket. Empty input yields false.
func NormalizeGender(raw string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return "", false
	}
	if g, ok := genderSynonyms[v]; ok {
		return g, true
	}
	return strings.ToUpper(v), true
}
