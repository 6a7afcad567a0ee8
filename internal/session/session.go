// Package session orchestrates the analysis of one recording: every channel
// runs through the detection engine independently, so one bad channel never
// aborts its siblings.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/emg"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/ingest"
)

// ChannelResult carries either the analytics or the channel-scoped error for
// one channel of a session.
type ChannelResult struct {
	ChannelName string                `json:"channel_name"`
	Analytics   *emg.ChannelAnalytics `json:"analytics,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// Result is the outcome of analysing one recording.
type Result struct {
	SessionID  string          `json:"session_id"`
	SourceFile string          `json:"source_file"`
	AnalysedAt time.Time       `json:"analysed_at"`
	Channels   []ChannelResult `json:"channels"`
}

// Analyse runs the engine over every channel of a recording concurrently.
// Channels are independent pure computations, so one goroutine per channel
// needs no coordination beyond the final join. Cancellation is cooperative:
// a cancelled context stops further channels from starting but does not
// interrupt a channel already in flight.
func Analyse(ctx context.Context, sourceFile string, rec *ingest.Recording, cfg emg.Config) *Result {
	result := &Result{
		SessionID:  uuid.New().String(),
		SourceFile: sourceFile,
		AnalysedAt: time.Now().UTC(),
		Channels:   make([]ChannelResult, len(rec.Channels)),
	}

	var wg sync.WaitGroup
	for i, input := range rec.Channels {
		if err := ctx.Err(); err != nil {
			result.Channels[i] = ChannelResult{ChannelName: input.Name, Error: err.Error()}
			continue
		}
		wg.Add(1)
		go func(i int, input emg.ChannelInput) {
			defer wg.Done()
			analytics, err := emg.Analyze(input, cfg)
			if err != nil {
				log.Printf("channel %s analysis failed: %v", input.Name, err)
				result.Channels[i] = ChannelResult{ChannelName: input.Name, Error: err.Error()}
				return
			}
			result.Channels[i] = ChannelResult{ChannelName: input.Name, Analytics: analytics}
		}(i, input)
	}
	wg.Wait()
	return result
}

// FailedChannels returns the names of channels whose analysis failed.
func (r *Result) FailedChannels() []string {
	var failed []string
	for _, c := range r.Channels {
		if c.Error != "" {
			failed = append(failed, c.ChannelName)
		}
	}
	return failed
}
