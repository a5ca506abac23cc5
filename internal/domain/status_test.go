package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"OPEN", StatusConnected},
		{"open", StatusConnected},
		{"Connected", StatusConnected},
		{"connected", StatusConnected},
		{" connected ", StatusConnected},
		{"closed", StatusDisconnected},
		{"CLOSED", StatusDisconnected},
		{"Disconnected", StatusDisconnected},
		{"", StatusPending},
		{"unknown", StatusPending},
		{"connecting", StatusPending},
		{"qrcode", StatusPending},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeStatus(tt.raw), "raw=%q", tt.raw)
	}
}

func TestStatusActions(t *testing.T) {
	assert.True(t, StatusConnected.CanDisconnect())
	assert.False(t, StatusConnected.CanConnect())

	for _, s := range []Status{StatusPending, StatusDisconnected} {
		assert.False(t, s.CanDisconnect(), s)
		assert.True(t, s.CanConnect(), s)
	}
}

func TestInstanceConfig_Normalize(t *testing.T) {
	cfg := InstanceConfig{Alias: "  Ventas ", UserID: "u1", IsMainDevice: true}.Normalize()
	assert.Equal(t, "Ventas", cfg.Alias)
	assert.Empty(t, cfg.UserID, "main device never carries a user")

	cfg = InstanceConfig{Alias: "Soporte", UserID: " u2 "}.Normalize()
	assert.Equal(t, "u2", cfg.UserID)
}

func TestWhatsAppInstance_StatusAndConfig(t *testing.T) {
	inst := WhatsAppInstance{
		InstanceName:     "loc_wa1",
		ConnectionStatus: "Open",
		Alias:            "Main",
		IsMainDevice:     true,
		FacebookAds:      true,
	}
	assert.Equal(t, StatusConnected, inst.Status())
	assert.Equal(t, InstanceConfig{Alias: "Main", IsMainDevice: true, FacebookAds: true}, inst.Config())
}
