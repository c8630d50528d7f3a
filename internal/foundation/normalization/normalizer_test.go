package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mode string

const (
	modeDev  mode = "development"
	modeProd mode = "production"
)

func newModeNormalizer() *Normalizer[mode] {
	return NewNormalizer(map[string]mode{
		"development": modeDev,
		"dev":         modeDev,
		"Production":  modeProd,
	}, modeDev)
}

func TestNormalize(t *testing.T) {
	n := newModeNormalizer()
	tests := []struct {
		in   string
		want mode
	}{
		{"dev", modeDev},
		{"  PRODUCTION ", modeProd},
		{"production", modeProd},
		{"staging", modeDev},
		{"", modeDev},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, n.Normalize(tt.in), "input %q", tt.in)
	}
}

func TestParse(t *testing.T) {
	n := newModeNormalizer()

	got, err := n.Parse("Dev")
	require.NoError(t, err)
	assert.Equal(t, modeDev, got)

	got, err = n.Parse("  ")
	require.NoError(t, err)
	assert.Equal(t, modeDev, got)

	_, err = n.Parse("staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dev, development, production")
}

func TestKeysIsACopy(t *testing.T) {
	n := newModeNormalizer()
	keys := n.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"dev", "development", "production"}, n.Keys())
}
