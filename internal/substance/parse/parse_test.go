package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type payload struct {
	ResolvedName string `json:"resolvedName"`
}

func TestDecode(t *testing.T) {
	fallback := payload{ResolvedName: "fallback"}

	t.Run("valid input decodes", func(t *testing.T) {
		res := Decode(`{"resolvedName":"MDMA"}`, fallback)
		assert.False(t, res.Fallback)
		assert.Equal(t, "MDMA", res.Value.ResolvedName)
	})

	t.Run("empty object is valid, not fallback", func(t *testing.T) {
		res := Decode(`{}`, fallback)
		assert.False(t, res.Fallback)
		assert.Equal(t, payload{}, res.Value)
	})

	t.Run("garbage substitutes fallback", func(t *testing.T) {
		res := Decode(`not json`, fallback)
		assert.True(t, res.Fallback)
		assert.Equal(t, fallback, res.Value)
	})

	t.Run("empty string substitutes fallback", func(t *testing.T) {
		res := Decode("", fallback)
		assert.True(t, res.Fallback)
		assert.Equal(t, fallback, res.Value)
	})

	t.Run("mismatched shape substitutes fallback", func(t *testing.T) {
		res := Decode(`["a","b"]`, fallback)
		assert.True(t, res.Fallback)
		assert.Equal(t, fallback, res.Value)
	})

	t.Run("fenced JSON decodes", func(t *testing.T) {
		res := Decode("```json\n{\"resolvedName\":\"MDMA\"}\n```", fallback)
		assert.False(t, res.Fallback)
		assert.Equal(t, "MDMA", res.Value.ResolvedName)
	})

	t.Run("fence without language tag decodes", func(t *testing.T) {
		res := Decode("```\n{\"resolvedName\":\"LSD\"}\n```", fallback)
		assert.False(t, res.Fallback)
		assert.Equal(t, "LSD", res.Value.ResolvedName)
	})

	t.Run("map fallback for map target", func(t *testing.T) {
		res := Decode[map[string]string]("nope", map[string]string{})
		assert.True(t, res.Fallback)
		assert.Empty(t, res.Value)
	})
}
