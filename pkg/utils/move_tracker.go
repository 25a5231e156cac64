package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// MoveEvent is one committed switch written as a JSON line
type MoveEvent struct {
	MoveNumber int      `json:"move"`
	Round      int      `json:"round"`
	Step       int      `json:"step"`
	Algorithm  string   `json:"algorithm"`
	Node       int      `json:"node"`
	FromGroup  int      `json:"from_group"`
	ToGroup    int      `json:"to_group"`
	Score      *float64 `json:"score"` // null when the step scored negative infinity
	Timestamp  int64    `json:"timestamp"`
}

// MoveTracker appends MoveEvents to a JSON-lines sink. A nil tracker
// ignores every call.
type MoveTracker struct {
	closer    io.Closer
	encoder   *json.Encoder
	algorithm string
	moves     int
}

// NewMoveTracker creates (or truncates) filename and tracks moves into it
func NewMoveTracker(filename, algorithm string) (*MoveTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create move tracking file %s: %w", filename, err)
	}

	mt := NewMoveTrackerWriter(file, algorithm)
	mt.closer = file
	return mt, nil
}

// NewMoveTrackerWriter tracks moves into an existing writer
func NewMoveTrackerWriter(out io.Writer, algorithm string) *MoveTracker {
	return &MoveTracker{
		encoder:   json.NewEncoder(out),
		algorithm: algorithm,
	}
}

// LogMove records one committed switch
func (mt *MoveTracker) LogMove(round, step, node, fromGroup, toGroup int, score float64) error {
	if mt == nil {
		return nil
	}

	mt.moves++
	event := MoveEvent{
		MoveNumber: mt.moves,
		Round:      round,
		Step:       step,
		Algorithm:  mt.algorithm,
		Node:       node,
		FromGroup:  fromGroup,
		ToGroup:    toGroup,
		Timestamp:  time.Now().Unix(),
	}
	if !math.IsInf(score, 0) && !math.IsNaN(score) {
		event.Score = &score
	}

	if err := mt.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode move: %w", err)
	}
	return nil
}

// Moves returns the number of moves logged so far
func (mt *MoveTracker) Moves() int {
	if mt == nil {
		return 0
	}
	return mt.moves
}

// Close flushes and closes the underlying file, if the tracker owns one
func (mt *MoveTracker) Close() error {
	if mt == nil || mt.closer == nil {
		return nil
	}
	if f, ok := mt.closer.(*os.File); ok {
		if err := f.Sync(); err != nil {
			f.Close()
			return err
		}
	}
	return mt.closer.Close()
}
