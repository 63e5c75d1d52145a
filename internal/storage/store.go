package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/quadtask/internal/experiment"
)

var ErrNoEpisode = errors.New("storage: episode not found")

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
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       uint64             `json:"seed"`
	Action     float64            `json:"action"`
	Episodes   int                `json:"episodes"`
	Runtime    float64            `json:"runtime"`
	Target     [3]float64         `json:"target"`
	Integrator string             `json:"integrator"`
	Summary    experiment.Summary `json:"summary"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Step is one row of an episode file.
type Step struct {
	Index       int
	Time        float64
	Observation []float64
	Reward      float64
	Done        bool
	Position    [3]float64
}

func episodeFile(idx int) string {
	return fmt.Sprintf("episode_%03d.csv", idx)
}

// Save writes metadata.json and one CSV per episode, returning the run id.
// Metrics in the metadata are averaged across episodes.
func (s *Store) Save(meta RunMetadata, episodes []*experiment.Episode) (string, error) {
	now := time.Now()
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("hover_%d", now.UnixNano())
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = now
	}
	meta.Episodes = len(episodes)
	meta.Summary = experiment.Summarize(episodes)
	meta.Metrics = averageMetrics(episodes)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	for _, ep := range episodes {
		if err := writeEpisode(filepath.Join(runDir, episodeFile(ep.Index)), ep); err != nil {
			return "", fmt.Errorf("episode %d: %w", ep.Index, err)
		}
	}

	return meta.ID, nil
}

func averageMetrics(episodes []*experiment.Episode) map[string]float64 {
	out := make(map[string]float64)
	if len(episodes) == 0 {
		return out
	}
	for _, ep := range episodes {
		for name, v := range ep.Metrics {
			out[name] += v
		}
	}
	for name := range out {
		out[name] /= float64(len(episodes))
	}
	return out
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

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func writeEpisode(path string, ep *experiment.Episode) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	obsLen := len(ep.Initial)
	header := []string{"step", "time"}
	for i := 0; i < obsLen; i++ {
		header = append(header, fmt.Sprintf("obs%d", i))
	}
	header = append(header, "reward", "done", "x", "y", "z")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, tr := range ep.Transitions {
		row := []string{strconv.Itoa(tr.Index), formatFloat(tr.Time)}
		for i := 0; i < obsLen; i++ {
			v := 0.0
			if i < len(tr.Observation) {
				v = tr.Observation[i]
			}
			row = append(row, formatFloat(v))
		}
		row = append(row, formatFloat(tr.Reward), strconv.FormatBool(tr.Done))
		for i := 0; i < 3; i++ {
			v := 0.0
			if i < len(tr.Pose) {
				v = tr.Pose[i]
			}
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadEpisode reads back the steps of one episode of a run.
func (s *Store) LoadEpisode(runID string, idx int) ([]Step, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, episodeFile(idx)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%d", ErrNoEpisode, runID, idx)
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Step{}, nil
	}

	// step, time, obs..., reward, done, x, y, z
	obsLen := len(records[0]) - 7
	if obsLen < 0 {
		return nil, fmt.Errorf("storage: malformed header in %s", episodeFile(idx))
	}

	steps := make([]Step, 0, len(records)-1)
	for _, rec := range records[1:] {
		var st Step
		if st.Index, err = strconv.Atoi(rec[0]); err != nil {
			return nil, err
		}
		if st.Time, err = strconv.ParseFloat(rec[1], 64); err != nil {
			return nil, err
		}
		st.Observation = make([]float64, obsLen)
		for i := 0; i < obsLen; i++ {
			if st.Observation[i], err = strconv.ParseFloat(rec[2+i], 64); err != nil {
				return nil, err
			}
		}
		tail := rec[2+obsLen:]
		if st.Reward, err = strconv.ParseFloat(tail[0], 64); err != nil {
			return nil, err
		}
		if st.Done, err = strconv.ParseBool(tail[1]); err != nil {
			return nil, err
		}
		for i := 0; i < 3; i++ {
			if st.Position[i], err = strconv.ParseFloat(tail[2+i], 64); err != nil {
				return nil, err
			}
		}
		steps = append(steps, st)
	}

	return steps, nil
}
