package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGlobalRole(t *testing.T) {
	cases := []struct {
		raw  string
		want GlobalRole
	}{
		{"ADMIN", GlobalAdmin},
		{"admin", GlobalAdmin},
		{"  Moe ", GlobalMOE},
		{"mandataire", GlobalMandataire},
		{"STANDARD", GlobalStandard},
		{"", GlobalStandard},
		{"   ", GlobalStandard},
		{"superuser", GlobalUnknown},
		{"MOE2", GlobalUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseGlobalRole(tc.raw), "raw=%q", tc.raw)
	}
}

func TestParseMarcheRole(t *testing.T) {
	cases := []struct {
		raw  string
		want MarcheRole
	}{
		{"MOE", MarcheMOE},
		{"moe", MarcheMOE},
		{"Mandataire", MarcheMandataire},
		{"", MarcheNone},
		{"visiteur", MarcheUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseMarcheRole(tc.raw), "raw=%q", tc.raw)
	}
}

func TestGlobalRoleValid(t *testing.T) {
	assert.True(t, GlobalAdmin.Valid())
	assert.True(t, GlobalStandard.Valid())
	assert.False(t, GlobalUnknown.Valid())
	assert.False(t, GlobalRole("anything").Valid())
}
