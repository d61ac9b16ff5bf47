package main

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/go-sod/glove/internal/collector"
)

type stubManager struct {
	state collector.State
}

func (m *stubManager) Run(context.Context) error { return nil }

func (m *stubManager) State() collector.State { return m.state }

func (m *stubManager) Stats() collector.Stats {
	return collector.Stats{Session: uuid.Nil, State: m.state.String(), Ticks: 7, Collected: 3}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		state   collector.State
		serving bool
	}{
		{state: collector.StateStarting, serving: false},
		{state: collector.StateRunning, serving: true},
		{state: collector.StateStopping, serving: false},
		{state: collector.StateStopped, serving: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.state.String(), func(t *testing.T) {
			serving, detail := readiness(&stubManager{state: tc.state})()
			assert.Equal(t, tc.serving, serving)
			assert.Equal(t, collector.Stats{State: tc.state.String(), Ticks: 7, Collected: 3}, detail)
		})
	}
}
