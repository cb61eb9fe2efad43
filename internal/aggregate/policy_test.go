package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"evalgo.org/dockboard/internal/format"
)

func TestPolicyOptions(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		requested format.Fidelity
		want      Options
	}{
		{"stats off default", Policy{}, "", Options{Fidelity: format.Fast}},
		{"stats off full downgraded", Policy{}, format.Full, Options{Fidelity: format.Fast}},
		{"fast initial load", Policy{EnableStats: true, FastInitialLoad: true}, "", Options{Fidelity: format.Fast}},
		{"fast initial load upgraded", Policy{EnableStats: true, FastInitialLoad: true}, format.Full, Options{Fidelity: format.Full}},
		{"full by default", Policy{EnableStats: true}, "", Options{Fidelity: format.Full}},
		{"deferred stats", Policy{EnableStats: true, SkipInitialStats: true}, "", Options{Fidelity: format.Full, DeferStats: true}},
		{"explicit fast", Policy{EnableStats: true, SkipInitialStats: true}, format.Fast, Options{Fidelity: format.Fast}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Options(tt.requested))
		})
	}
}
