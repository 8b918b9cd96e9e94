package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want NormalizedKey
	}{
		{"MDMA", "mdma"},
		{"mdma", "mdma"},
		{"  MDMA  ", "mdma"},
		{"Lysergic  Acid Diethylamide", "lysergic acid diethylamide"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeKey(tt.in), "NormalizeKey(%q)", tt.in)
	}
}

func TestResolvedSubstanceUnresolved(t *testing.T) {
	assert.True(t, ResolvedSubstance{}.Unresolved())
	assert.True(t, ResolvedSubstance{ResolvedName: "   "}.Unresolved())
	assert.False(t, ResolvedSubstance{ResolvedName: "MDMA"}.Unresolved())
}

func TestParseAccessStatus(t *testing.T) {
	assert.Equal(t, StatusBanned, ParseAccessStatus("Banned"))
	assert.Equal(t, StatusBanned, ParseAccessStatus("illegal"))
	assert.Equal(t, StatusApprovedMedicalUse, ParseAccessStatus("approved_medical_use"))
	assert.Equal(t, StatusLimitedAccessTrials, ParseAccessStatus("LimitedAccessTrials"))
	assert.Equal(t, StatusUnknown, ParseAccessStatus("decriminalized-ish"))
	assert.Equal(t, StatusUnknown, ParseAccessStatus(""))
}

func TestPredictRequest(t *testing.T) {
	t.Run("prefers prompt over substance alias", func(t *testing.T) {
		r := PredictRequest{Prompt: " molly ", Substance: "other"}
		r.Normalize()
		assert.Equal(t, "molly", r.Query())
	})

	t.Run("falls back to substance alias", func(t *testing.T) {
		r := PredictRequest{Substance: "molly"}
		r.Normalize()
		assert.Equal(t, "molly", r.Query())
		assert.NoError(t, r.Validate())
	})

	t.Run("empty query fails validation", func(t *testing.T) {
		r := PredictRequest{Prompt: "   "}
		r.Normalize()
		assert.Error(t, r.Validate())
	})
}

func TestRefreshRequest(t *testing.T) {
	t.Run("drops blank entries", func(t *testing.T) {
		r := RefreshRequest{Substances: []string{" mdma ", "", "  "}}
		r.Normalize()
		assert.Equal(t, []string{"mdma"}, r.Substances)
		assert.NoError(t, r.Validate())
	})

	t.Run("empty list fails validation", func(t *testing.T) {
		r := RefreshRequest{Substances: []string{"  "}}
		r.Normalize()
		assert.Error(t, r.Validate())
	})

	t.Run("nil list fails validation", func(t *testing.T) {
		r := RefreshRequest{}
		r.Normalize()
		assert.Error(t, r.Validate())
	})
}
