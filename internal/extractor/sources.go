package extractor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/quillback/autoscout/internal/model"
)

// Well-known telemetry file names inside the sources directory.
const (
	interactionLogFile  = "interactions.jsonl"
	commandLogFile      = "commands.jsonl"
	editLogFile         = "edits.jsonl"
	coordinationLogFile = "coordination.jsonl"
)

// minRepetitions is the observation floor below which a behavior is noise,
// not a pattern.
const minRepetitions = 2

// observationConfidence maps an observation count to a 0-1 confidence.
func observationConfidence(count int) float64 {
	c := float64(count) / 10
	if c > 1 {
		c = 1
	}
	return c
}

// readJSONL streams a JSONL file, invoking fn per decoded line. Malformed
// lines are counted and skipped. A missing file is an error the analyzer
// treats as an empty source.
func readJSONL[T any](ctx context.Context, path string, fn func(T)) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	malformed := 0
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record T
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			malformed++
			continue
		}
		fn(record)
	}
	if malformed > 0 {
		slog.Debug("Skipped malformed telemetry lines",
			"file", filepath.Base(path),
			"count", malformed)
	}
	return scanner.Err()
}

// interactionRecord is one line of interactions.jsonl.
type interactionRecord struct {
	Timestamp   time.Time `json:"ts"`
	Action      string    `json:"action"`
	Detail      string    `json:"detail"`
	Outcome     string    `json:"outcome"`
	DurationMin float64   `json:"duration_min"`
}

// InteractionSource derives repetitive-action and recurring-error patterns
// from the interaction log.
type InteractionSource struct {
	path string
}

// NewInteractionSource creates a source over dir/interactions.jsonl.
func NewInteractionSource(dir string) *InteractionSource {
	return &InteractionSource{path: filepath.Join(dir, interactionLogFile)}
}

// Name identifies the source in logs.
func (s *InteractionSource) Name() string { return "interactions" }

// Read scans the interaction log for the window.
func (s *InteractionSource) Read(ctx context.Context, since time.Time) ([]model.BehavioralPattern, error) {
	type group struct {
		first, last time.Time
		count       int
		minutes     float64
	}
	actions := make(map[string]*group)
	failures := make(map[string]*group)

	err := readJSONL(ctx, s.path, func(r interactionRecord) {
		if r.Timestamp.Before(since) {
			return
		}
		observe := func(m map[string]*group, key string) {
			g, ok := m[key]
			if !ok {
				g = &group{first: r.Timestamp, last: r.Timestamp}
				m[key] = g
			}
			g.count++
			g.minutes += r.DurationMin
			if r.Timestamp.Before(g.first) {
				g.first = r.Timestamp
			}
			if r.Timestamp.After(g.last) {
				g.last = r.Timestamp
			}
		}
		if r.Action != "" {
			observe(actions, r.Action)
		}
		if r.Outcome == "error" && r.Detail != "" {
			observe(failures, r.Detail)
		}
	})
	if err != nil {
		return nil, err
	}

	var patterns []model.BehavioralPattern
	for action, g := range actions {
		if g.count < minRepetitions {
			continue
		}
		patterns = append(patterns, model.BehavioralPattern{
			Category:    model.PatternRepetitive,
			Description: "repeated action: " + action,
			Frequency:   g.count,
			TimeCostMin: g.minutes,
			Confidence:  observationConfidence(g.count),
			FirstSeen:   g.first,
			LastSeen:    g.last,
			Context:     []string{"source:interactions"},
		})
	}
	for detail, g := range failures {
		if g.count < minRepetitions {
			continue
		}
		patterns = append(patterns, model.BehavioralPattern{
			Category:    model.PatternError,
			Description: "recurring failure: " + detail,
			Frequency:   g.count,
			TimeCostMin: g.minutes,
			Confidence:  observationConfidence(g.count),
			FirstSeen:   g.first,
			LastSeen:    g.last,
			Context:     []string{"source:interactions"},
		})
	}
	sortPatterns(patterns)
	return patterns, nil
}

// commandRecord is one line of commands.jsonl.
type commandRecord struct {
	Timestamp   time.Time `json:"ts"`
	Command     string    `json:"command"`
	DurationMin float64   `json:"duration_min"`
}

// CommandSource derives repetitive-command and manual-search patterns from
// the shell command log.
type CommandSource struct {
	path string
}

// NewCommandSource creates a source over dir/commands.jsonl.
func NewCommandSource(dir string) *CommandSource {
	return &CommandSource{path: filepath.Join(dir, commandLogFile)}
}

// Name identifies the source in logs.
func (s *CommandSource) Name() string { return "commands" }

// searchTools are commands that indicate manual searching.
var searchTools = map[string]bool{
	"grep": true,
	"rg":   true,
	"find": true,
	"ag":   true,
	"fzf":  true,
}

// Read scans the command log for the window.
func (s *CommandSource) Read(ctx context.Context, since time.Time) ([]model.BehavioralPattern, error) {
	type group struct {
		first, last time.Time
		count       int
		minutes     float64
		search      bool
	}
	commands := make(map[string]*group)

	err := readJSONL(ctx, s.path, func(r commandRecord) {
		if r.Timestamp.Before(since) || r.Command == "" {
			return
		}
		key, search := normalizeCommand(r.Command)
		g, ok := commands[key]
		if !ok {
			g = &group{first: r.Timestamp, last: r.Timestamp, search: search}
			commands[key] = g
		}
		g.count++
		g.minutes += r.DurationMin
		if r.Timestamp.Before(g.first) {
			g.first = r.Timestamp
		}
		if r.Timestamp.After(g.last) {
			g.last = r.Timestamp
		}
	})
	if err != nil {
		return nil, err
	}

	var patterns []model.BehavioralPattern
	for cmd, g := range commands {
		if g.count < minRepetitions {
			continue
		}
		category := model.PatternRepetitive
		description := "command: " + cmd
		if g.search {
			category = model.PatternSearch
			description = "manual search: " + cmd
		}
		patterns = append(patterns, model.BehavioralPattern{
			Category:    category,
			Description: description,
			Frequency:   g.count,
			TimeCostMin: g.minutes,
			Confidence:  observationConfidence(g.count),
			FirstSeen:   g.first,
			LastSeen:    g.last,
			Context:     []string{"source:commands"},
		})
	}
	sortPatterns(patterns)
	return patterns, nil
}

// normalizeCommand reduces a command line to its first two tokens so that
// invocations differing only in arguments group together.
func normalizeCommand(command string) (key string, search bool) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", false
	}
	search = searchTools[fields[0]]
	if len(fields) == 1 || search {
		return fields[0], search
	}
	return fields[0] + " " + fields[1], false
}

// editRecord is one line of edits.jsonl.
type editRecord struct {
	Timestamp time.Time `json:"ts"`
	File      string    `json:"file"`
	ChurnMin  float64   `json:"churn_min"`
}

// EditSource derives workflow patterns from files edited over and over in
// the window.
type EditSource struct {
	path string
}

// NewEditSource creates a source over dir/edits.jsonl.
func NewEditSource(dir string) *EditSource {
	return &EditSource{path: filepath.Join(dir, editLogFile)}
}

// Name identifies the source in logs.
func (s *EditSource) Name() string { return "edits" }

// Read scans the edit log for the window.
func (s *EditSource) Read(ctx context.Context, since time.Time) ([]model.BehavioralPattern, error) {
	type group struct {
		first, last time.Time
		count       int
		minutes     float64
	}
	files := make(map[string]*group)

	err := readJSONL(ctx, s.path, func(r editRecord) {
		if r.Timestamp.Before(since) || r.File == "" {
			return
		}
		g, ok := files[r.File]
		if !ok {
			g = &group{first: r.Timestamp, last: r.Timestamp}
			files[r.File] = g
		}
		g.count++
		g.minutes += r.ChurnMin
		if r.Timestamp.Before(g.first) {
			g.first = r.Timestamp
		}
		if r.Timestamp.After(g.last) {
			g.last = r.Timestamp
		}
	})
	if err != nil {
		return nil, err
	}

	var patterns []model.BehavioralPattern
	for file, g := range files {
		if g.count < 3 {
			continue
		}
		patterns = append(patterns, model.BehavioralPattern{
			Category:    model.PatternWorkflow,
			Description: "frequent edits: " + file,
			Frequency:   g.count,
			TimeCostMin: g.minutes,
			Confidence:  observationConfidence(g.count),
			FirstSeen:   g.first,
			LastSeen:    g.last,
			Context:     []string{"source:edits"},
		})
	}
	sortPatterns(patterns)
	return patterns, nil
}

// coordinationRecord is one line of coordination.jsonl.
type coordinationRecord struct {
	Timestamp time.Time `json:"ts"`
	Event     string    `json:"event"`
	WaitMin   float64   `json:"wait_min"`
}

// CoordinationSource derives bottleneck patterns from wait events in the
// coordination log.
type CoordinationSource struct {
	path string
}

// NewCoordinationSource creates a source over dir/coordination.jsonl.
func NewCoordinationSource(dir string) *CoordinationSource {
	return &CoordinationSource{path: filepath.Join(dir, coordinationLogFile)}
}

// Name identifies the source in logs.
func (s *CoordinationSource) Name() string { return "coordination" }

// Read scans the coordination log for the window.
func (s *CoordinationSource) Read(ctx context.Context, since time.Time) ([]model.BehavioralPattern, error) {
	type group struct {
		first, last time.Time
		count       int
		minutes     float64
	}
	events := make(map[string]*group)

	err := readJSONL(ctx, s.path, func(r coordinationRecord) {
		if r.Timestamp.Before(since) || r.Event == "" {
			return
		}
		g, ok := events[r.Event]
		if !ok {
			g = &group{first: r.Timestamp, last: r.Timestamp}
			events[r.Event] = g
		}
		g.count++
		g.minutes += r.WaitMin
		if r.Timestamp.Before(g.first) {
			g.first = r.Timestamp
		}
		if r.Timestamp.After(g.last) {
			g.last = r.Timestamp
		}
	})
	if err != nil {
		return nil, err
	}

	var patterns []model.BehavioralPattern
	for event, g := range events {
		if g.count < minRepetitions {
			continue
		}
		patterns = append(patterns, model.BehavioralPattern{
			Category:    model.PatternBottleneck,
			Description: "waiting on " + event,
			Frequency:   g.count,
			TimeCostMin: g.minutes,
			Confidence:  observationConfidence(g.count),
			FirstSeen:   g.first,
			LastSeen:    g.last,
			Context:     []string{"source:coordination"},
		})
	}
	sortPatterns(patterns)
	return patterns, nil
}

// sortPatterns orders per-source output deterministically.
func sortPatterns(patterns []model.BehavioralPattern) {
	sort.Slice(patterns, func(i, j int) bool {
		return patterns[i].MergeKey() < patterns[j].MergeKey()
	})
}
