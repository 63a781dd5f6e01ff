package sink

import (
	"context"

	"github.com/WanderingAstronomer/Vociferous-sub003/internal/transcribe"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/websocket"
)

// Broadcaster publishes a message to connected websocket clients
type Broadcaster interface {
	Broadcast(message *websocket.Message)
}

// Broadcast forwards segments and the final transcript to websocket
// subscribers as they are produced.
type Broadcast struct {
	hub   Broadcaster
	runID string
}

// NewBroadcast creates a broadcast sink for one run
func NewBroadcast(hub Broadcaster, runID string) *Broadcast {
	return &Broadcast{hub: hub, runID: runID}
}

// HandleSegment publishes a segment event
func (b *Broadcast) HandleSegment(ctx context.Context, segment transcribe.Segment) error {
	b.hub.Broadcast(&websocket.Message{
		Type: "segment",
		Data: map[string]interface{}{
			"run_id":     b.runID,
			"text":       segment.Text,
			"start":      segment.Start,
			"end":        segment.End,
			"language":   segment.Language,
			"confidence": segment.Confidence,
		},
	})
	return nil
}

// Complete publishes the final transcript event
func (b *Broadcast) Complete(ctx context.Context, result transcribe.Result) error {
	b.hub.Broadcast(&websocket.Message{
		Type: "transcript",
		Data: map[string]interface{}{
			"run_id":   b.runID,
			"text":     result.Text,
			"engine":   result.Engine,
			"model":    result.Model,
			"duration": result.Duration,
			"segments": len(result.Segments),
			"warnings": result.Warnings,
		},
	})
	return nil
}
