// Command analyze runs the contraction detection engine over one exported
// recording and prints the session result as JSON. With -db it also persists
// the session so the report server can serve it later.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/db"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/emg"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/ingest"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/session"
)

var (
	dbFile   = flag.String("db", "", "Persist the session to this database file")
	modeFlag = flag.String("mode", string(emg.ModeAuto), "Detection mode (envelope, hybrid, auto)")
	rateFlag = flag.Float64("rate", 0, "Override sampling rate in Hz (default: sidecar or 1000)")
	mvcFlag  = flag.String("mvc", "", "Per-channel MVC overrides, e.g. 'CH1=100,CH2=85'")
	pretty   = flag.Bool("pretty", false, "Indent JSON output")
)

// parseMVCList parses 'name=value' pairs from the -mvc flag.
func parseMVCList(s string) (map[string]float64, error) {
	if s == "" {
		return nil, nil
	}
	out := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("invalid mvc pair '%s', want name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid mvc value '%s': %w", value, err)
		}
		out[strings.TrimSpace(name)] = v
	}
	return out, nil
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] recording.csv\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := emg.DefaultConfig()
	cfg.DetectionMode = emg.DetectionMode(*modeFlag)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid detection config: %v", err)
	}

	rec, err := ingest.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read recording: %v", err)
	}

	if *rateFlag > 0 {
		rec.SampleRateHz = *rateFlag
		for i := range rec.Channels {
			rec.Channels[i].Raw.SampleRateHz = *rateFlag
			if rec.Channels[i].Activated != nil {
				rec.Channels[i].Activated.SampleRateHz = *rateFlag
			}
		}
	}

	mvc, err := parseMVCList(*mvcFlag)
	if err != nil {
		log.Fatalf("failed to parse -mvc: %v", err)
	}
	for i := range rec.Channels {
		if v, ok := mvc[rec.Channels[i].Name]; ok {
			rec.Channels[i].MVCValue = v
		}
	}

	result := session.Analyse(context.Background(), path, rec, cfg)
	for _, ch := range result.Channels {
		if ch.Error != "" {
			log.Printf("channel %s failed: %s", ch.ChannelName, ch.Error)
		}
	}

	if *dbFile != "" {
		database, err := db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer database.Close()
		if err := database.SaveSession(result); err != nil {
			log.Fatalf("failed to persist session: %v", err)
		}
		log.Printf("saved session %s to %s", result.SessionID, *dbFile)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		log.Fatalf("failed to encode result: %v", err)
	}
}
