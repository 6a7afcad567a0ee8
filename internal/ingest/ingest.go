// Package ingest reads exported EMG recordings into engine inputs. The
// capture tooling exports one CSV per session (one column per channel, with
// optional pre-filtered "<name> activated" companion columns) and an optional
// JSON sidecar carrying the sampling rate and per-channel MVC calibration.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/emg"
)

// DefaultSampleRateHz applies when no sidecar specifies a rate. Matches the
// capture hardware's default EMG rate.
const DefaultSampleRateHz = 1000.0

const activatedSuffix = " activated"
const rawSuffix = " raw"

// Metadata is the JSON sidecar exported next to a recording CSV.
type Metadata struct {
	SampleRateHz float64            `json:"sampling_rate_hz"`
	MVCValues    map[string]float64 `json:"mvc_values"`
}

// Recording is a parsed session file: one ChannelInput per raw channel, all
// on a shared time base.
type Recording struct {
	SampleRateHz float64
	Channels     []emg.ChannelInput
}

// ReadFile parses a recording CSV from disk, with sidecar metadata when a
// "<file>.meta.json" exists alongside it.
func ReadFile(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()

	meta := Metadata{SampleRateHz: DefaultSampleRateHz}
	if raw, err := os.ReadFile(path + ".meta.json"); err == nil {
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("failed to parse metadata sidecar: %w", err)
		}
		if meta.SampleRateHz <= 0 {
			meta.SampleRateHz = DefaultSampleRateHz
		}
	}

	return Read(f, meta)
}

// Read parses a recording CSV. The header row names the channels; a column
// named "<name> activated" is treated as the pre-filtered companion of the
// channel "<name>" (or "<name> raw"). Column order is preserved for channel
// ordering.
func Read(r io.Reader, meta Metadata) (*Recording, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("recording has no columns")
	}

	columns := make([][]float64, len(header))
	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, want %d", row, len(record), len(header))
		}
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", row, header[i], err)
			}
			columns[i] = append(columns[i], v)
		}
		row++
	}

	rate := meta.SampleRateHz
	if rate <= 0 {
		rate = DefaultSampleRateHz
	}

	// Pair activated columns with their raw channel, keeping raw column
	// order for the output.
	activated := make(map[string][]float64)
	type rawColumn struct {
		name    string
		samples []float64
	}
	var raws []rawColumn
	for i, name := range header {
		trimmed := strings.TrimSpace(name)
		lower := strings.ToLower(trimmed)
		if strings.HasSuffix(lower, activatedSuffix) {
			base := strings.TrimSpace(trimmed[:len(trimmed)-len(activatedSuffix)])
			activated[base] = columns[i]
			continue
		}
		base := trimmed
		if strings.HasSuffix(lower, rawSuffix) {
			base = strings.TrimSpace(trimmed[:len(trimmed)-len(rawSuffix)])
		}
		raws = append(raws, rawColumn{name: base, samples: columns[i]})
	}

	if len(raws) == 0 {
		return nil, fmt.Errorf("recording has no raw channels")
	}

	rec := &Recording{SampleRateHz: rate}
	for _, rc := range raws {
		input := emg.ChannelInput{
			Name: rc.name,
			Raw:  emg.Waveform{Samples: rc.samples, SampleRateHz: rate},
		}
		if act, ok := activated[rc.name]; ok {
			input.Activated = &emg.Waveform{Samples: act, SampleRateHz: rate}
		}
		if mvc, ok := meta.MVCValues[rc.name]; ok {
			input.MVCValue = mvc
		}
		rec.Channels = append(rec.Channels, input)
	}
	return rec, nil
}
