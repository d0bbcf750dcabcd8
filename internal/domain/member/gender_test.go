package member

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeGender(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"M", GenderMale, true},
		{" male ", GenderMale, true},
		{"Homme", GenderMale, true},
		{"masculin", GenderMale, true},
		{"f", GenderFemale, true},
		{"FEMALE", GenderFemale, true},
		{"femme", GenderFemale, true},
		{"feminin", GenderFemale, true},
		{"Féminin", GenderFemale, true},
		{"non-binaire", "NON-BINAIRE", true},
		{"", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeGender(tt.raw)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestMember_DisplayName(t *testing.T) {
	m := &Member{FirstName: "Lina"}
	require.Equal(t, "Lina", m.DisplayName())

	m.LastName.String, m.LastName.Valid = "Roux", true
	require.Equal(t, "Lina Roux", m.DisplayName())
}
