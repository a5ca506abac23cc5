package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextSuffix(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  int
	}{
		{"empty", nil, 1},
		{"mixed", []string{"foo1", "foo7", "bar"}, 8},
		{"no digits", []string{"bar", "baz"}, 1},
		{"gaps are not filled", []string{"loc_wa1", "loc_wa3"}, 4},
		{"multi digit", []string{"loc_wa9", "loc_wa12"}, 13},
		{"digits inside", []string{"a1b"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextSuffix(tt.names))
		})
	}
}

func TestNextInstanceName(t *testing.T) {
	assert.Equal(t, "loc_wa1", NextInstanceName("loc_wa", nil))
	assert.Equal(t, "loc_wa3", NextInstanceName("loc_wa", []string{"loc_wa2", "Main"}))
}

func TestResolveTenant(t *testing.T) {
	tn := ResolveTenant(" q1 ", "cfg", "")
	assert.True(t, tn.Resolved())
	assert.Equal(t, "q1", tn.LocationID)
	assert.Equal(t, "q1_wa", tn.NamePrefix)

	tn = ResolveTenant("", "cfg", "wa-{location}-")
	assert.Equal(t, "cfg", tn.LocationID)
	assert.Equal(t, "wa-cfg-", tn.NamePrefix)

	tn = ResolveTenant("  ", "", "{location}_wa")
	assert.False(t, tn.Resolved())
	assert.Equal(t, Tenant{}, tn)
}
