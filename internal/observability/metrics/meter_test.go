package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstruments_DisabledMeterIsUsable(t *testing.T) {
	ctx := context.Background()
	m, err := New(ctx, Config{Enabled: false}, "sispat")
	require.NoError(t, err)

	inst, err := NewInstruments(m)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		inst.RecordPermissionCheck(ctx, "bens:read", true)
		inst.RecordGuardDecision(ctx, "loading")
		inst.RecordRoleUpdate(ctx, "viewer")
	})
}

func TestInstruments_NilReceiver(t *testing.T) {
	var inst *Instruments
	assert.NotPanics(t, func() {
		inst.RecordPermissionCheck(context.Background(), "bens:read", false)
		inst.RecordGuardDecision(context.Background(), "unauthenticated")
		inst.RecordRoleUpdate(context.Background(), "admin")
	})
}
