package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/bhsim/internal/config"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var frameHeader = []string{
	"frame", "time", "energy", "drift", "px", "py",
	"nodes", "depth", "overflowed", "dropped", "reflections", "duration_ms",
}

// Store keeps one directory per recorded run under baseDir. Recordings are
// diagnostics only; they are never loaded back as simulation state.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Bodies    int                `json:"bodies"`
	Frames    int                `json:"frames"`
	Config    *config.Config     `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
}

// FrameRecord is one row of frames.csv. Energy, Drift, PX and PY are NaN
// for frames where energy was not sampled.
type FrameRecord struct {
	Frame       uint64
	Time        float64
	Energy      float64
	Drift       float64
	PX, PY      float64
	Nodes       int
	Depth       int
	Overflowed  int
	Dropped     int
	Reflections int
	Duration    time.Duration
}

// Save writes meta and frames into a new run directory and returns its id.
func (s *Store) Save(meta RunMetadata, frames []FrameRecord) (string, error) {
	name := meta.Preset
	if name == "" {
		name = "run"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixMilli())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Frames = len(frames)

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, framesFile), frames); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFrames(path string, frames []FrameRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(frameHeader); err != nil {
		return err
	}

	for _, r := range frames {
		row := []string{
			strconv.FormatUint(r.Frame, 10),
			formatFloat(r.Time),
			formatFloat(r.Energy),
			formatFloat(r.Drift),
			formatFloat(r.PX),
			formatFloat(r.PY),
			strconv.Itoa(r.Nodes),
			strconv.Itoa(r.Depth),
			strconv.Itoa(r.Overflowed),
			strconv.Itoa(r.Dropped),
			strconv.Itoa(r.Reflections),
			formatFloat(float64(r.Duration) / float64(time.Millisecond)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: run %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]FrameRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(frameHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: run %s: %w", runID, err)
	}

	if len(records) < 2 {
		return []FrameRecord{}, nil
	}

	frames := make([]FrameRecord, 0, len(records)-1)
	for i, rec := range records[1:] {
		fr, err := parseFrame(rec)
		if err != nil {
			return nil, fmt.Errorf("storage: run %s: row %d: %w", runID, i+1, err)
		}
		frames = append(frames, fr)
	}

	return frames, nil
}

func parseFrame(rec []string) (FrameRecord, error) {
	var fr FrameRecord
	var err error

	if fr.Frame, err = strconv.ParseUint(rec[0], 10, 64); err != nil {
		return fr, err
	}

	floats := []*float64{&fr.Time, &fr.Energy, &fr.Drift, &fr.PX, &fr.PY}
	for i, dst := range floats {
		if *dst, err = parseFloat(rec[1+i]); err != nil {
			return fr, err
		}
	}

	ints := []*int{&fr.Nodes, &fr.Depth, &fr.Overflowed, &fr.Dropped, &fr.Reflections}
	for i, dst := range ints {
		if *dst, err = strconv.Atoi(rec[6+i]); err != nil {
			return fr, err
		}
	}

	ms, err := parseFloat(rec[11])
	if err != nil {
		return fr, err
	}
	if !math.IsNaN(ms) {
		fr.Duration = time.Duration(ms * float64(time.Millisecond))
	}
	return fr, nil
}
