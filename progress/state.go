// Package progress consumes the backend's indexing progress feed.
package progress

import (
	"encoding/json"
	"fmt"
	"math"
)

// Status is the backend's indexing phase. Any value other than the constants
// below is an in-progress phase (e.g. "scanning").
type Status string

const (
	StatusIdle     Status = "idle"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// State is the latest progress snapshot received from the backend.
type State struct {
	Status     Status `json:"status"`
	Message    string `json:"message"`
	Percentage int    `json:"percentage"`
}

// Idle is the state held before any message arrives.
func Idle() State {
	return State{Status: StatusIdle}
}

// InProgress reports whether the message and percentage should be displayed as
// a running operation.
func (s State) InProgress() bool {
	return s.Status != StatusIdle && s.Status != StatusComplete
}

// Complete reports whether the last operation finished.
func (s State) Complete() bool {
	return s.Status == StatusComplete
}

type wireState struct {
	Status     *Status  `json:"status"`
	Message    string   `json:"message"`
	Percentage *float64 `json:"percentage"`
}

// DecodeState parses one progress event. The percentage is rounded and clamped
// to [0, 100]; a missing status is treated as idle.
func DecodeState(data []byte) (State, error) {
	var wire wireState
	if err := json.Unmarshal(data, &wire); err != nil {
		return State{}, fmt.Errorf("failed to decode progress event: %w", err)
	}

	state := State{Status: StatusIdle, Message: wire.Message}
	if wire.Status != nil && *wire.Status != "" {
		state.Status = *wire.Status
	}
	if wire.Percentage != nil {
		state.Percentage = clampPercentage(*wire.Percentage)
	}
	return state, nil
}

func clampPercentage(p float64) int {
	if math.IsNaN(p) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, p))))
}
