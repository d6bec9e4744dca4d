package hibp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	cases := []struct {
		password string
		want     string
	}{
		{"password", "5BAA61E4C9B93F3F0682250B6CF8331B7EE68FD8"},
		{"", "DA39A3EE5E6B4B0D3255BFEF95601890AFD80709"},
	}

	for _, tc := range cases {
		got := Hash(tc.password)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.want[:5], Prefix(got))
		assert.Equal(t, tc.want[5:], Suffix(got))
		assert.Len(t, Suffix(got), HashLength-PrefixLength)
	}
}

func TestValidPrefix(t *testing.T) {
	assert.True(t, ValidPrefix("21BD1"))
	assert.True(t, ValidPrefix("00000"))
	assert.False(t, ValidPrefix("21bd1"), "lowercase prefixes are rejected")
	assert.False(t, ValidPrefix("21BD"))
	assert.False(t, ValidPrefix("21BD12"))
	assert.False(t, ValidPrefix("21BG1"))
}

func TestValidHash(t *testing.T) {
	assert.True(t, ValidHash("5baa61e4c9b93f3f0682250b6cf8331b7ee68fd8"))
	assert.True(t, ValidHash(Hash("hunter2")))
	assert.False(t, ValidHash("5BAA61E4C9B93F3F0682250B6CF8331B7EE68FD"))
	assert.False(t, ValidHash("not a hash"))
}
