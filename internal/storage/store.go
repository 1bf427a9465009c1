package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/ringsim/internal/config"
	"github.com/san-kum/ringsim/internal/kernel"
)

const (
	metadataFile = "metadata.json"
	spinsFile    = "spins.csv"
	scenarioFile = "scenario.yaml"
)

var ErrRunNotFound = errors.New("storage: run not found")

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
	now     func() time.Time
	newID   func() string
}

func New(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		now:     time.Now,
		newID:   func() string { return uuid.NewString()[:8] },
	}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Scenario    string             `json:"scenario"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	Integrator  string             `json:"integrator"`
	Rings       []string           `json:"rings"`
	Baseline    float64            `json:"baseline"`
	FinalEnergy float64            `json:"final_energy"`
	Entropy     float64            `json:"entropy"`
	Conserved   bool               `json:"conserved"`
	Metrics     map[string]float64 `json:"metrics"`
}

// SpinRecord is one row of spins.csv.
type SpinRecord struct {
	Step            int                `json:"step"`
	Time            float64            `json:"time"`
	Energy          float64            `json:"energy"`
	Drift           float64            `json:"drift"`
	Correction      float64            `json:"correction"`
	EntropyProduced float64            `json:"entropy_produced"`
	Entropy         float64            `json:"entropy"`
	Conserved       bool               `json:"conserved"`
	Rings           map[string]float64 `json:"rings"`
}

// Record is the full content of a stored run.
type Record struct {
	Metadata RunMetadata  `json:"metadata"`
	Spins    []SpinRecord `json:"spins"`
}

// Save writes metadata, the per-spin table and a copy of the scenario. It
// returns the new run id.
// A failed save removes the partial run directory.
func (s *Store) Save(sc *config.Scenario, spins []kernel.SpinResult, metrics map[string]float64) (id string, err error) {
	runID := fmt.Sprintf("%s_%s", runName(sc.Name), s.newID())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(runDir)
		}
	}()

	ringIDs := make([]string, len(sc.Rings))
	for i, rc := range sc.Rings {
		ringIDs[i] = rc.ID
	}

	meta := RunMetadata{
		ID:         runID,
		Scenario:   sc.Name,
		Timestamp:  s.now(),
		Dt:         sc.Dt,
		Steps:      len(spins),
		Integrator: sc.Integrator,
		Rings:      ringIDs,
		Conserved:  true,
		Metrics:    metrics,
	}
	for _, sp := range spins {
		meta.Conserved = meta.Conserved && sp.Conserved
	}
	if n := len(spins); n > 0 {
		last := spins[n-1].State
		meta.Baseline = last.Baseline
		meta.FinalEnergy = last.TotalEnergy
		meta.Entropy = last.Entropy.Irreversible
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, scenarioFile), sc); err != nil {
		return "", err
	}
	if err := writeSpins(filepath.Join(runDir, spinsFile), ringIDs, spins); err != nil {
		return "", err
	}
	return runID, nil
}

// runName maps a scenario name onto a single safe path element.
func runName(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
	if strings.Trim(clean, ".") == "" {
		return "run"
	}
	return clean
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

var spinColumns = []string{"step", "time", "energy", "drift", "correction", "entropy_produced", "entropy", "conserved"}

func writeSpins(path string, ringIDs []string, spins []kernel.SpinResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{}, spinColumns...)
	for _, id := range ringIDs {
		header = append(header, "e:"+id)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	ff := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, sp := range spins {
		row := []string{
			strconv.Itoa(sp.Step),
			ff(sp.Time),
			ff(sp.EnergyAfter),
			ff(sp.EnergyDrift),
			ff(sp.Correction),
			ff(sp.EntropyProduced),
			ff(sp.State.Entropy.Irreversible),
			strconv.FormatBool(sp.Conserved),
		}
		for _, id := range ringIDs {
			rs, _ := sp.State.Ring(id)
			row = append(row, ff(rs.Energy.Total))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
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
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadScenario returns the scenario the run was made from.
func (s *Store) LoadScenario(runID string) (*config.Scenario, error) {
	sc, err := config.Load(filepath.Join(s.baseDir, runID, scenarioFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return sc, err
}

func (s *Store) LoadSpins(runID string) ([]SpinRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, spinsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []SpinRecord{}, nil
	}

	header := records[0]
	if len(header) < len(spinColumns) {
		return nil, fmt.Errorf("run %s: spins header has %d columns", runID, len(header))
	}

	spins := make([]SpinRecord, 0, len(records)-1)
	for i, rec := range records[1:] {
		sp, err := parseSpin(header, rec)
		if err != nil {
			return nil, fmt.Errorf("run %s: row %d: %w", runID, i+1, err)
		}
		spins = append(spins, sp)
	}
	return spins, nil
}

func parseSpin(header, rec []string) (SpinRecord, error) {
	var sp SpinRecord
	var err error
	if sp.Step, err = strconv.Atoi(rec[0]); err != nil {
		return sp, err
	}
	floats := []*float64{&sp.Time, &sp.Energy, &sp.Drift, &sp.Correction, &sp.EntropyProduced, &sp.Entropy}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(rec[i+1], 64); err != nil {
			return sp, err
		}
	}
	if sp.Conserved, err = strconv.ParseBool(rec[7]); err != nil {
		return sp, err
	}

	sp.Rings = make(map[string]float64, len(header)-len(spinColumns))
	for j := len(spinColumns); j < len(header) && j < len(rec); j++ {
		v, err := strconv.ParseFloat(rec[j], 64)
		if err != nil {
			return sp, err
		}
		sp.Rings[strings.TrimPrefix(header[j], "e:")] = v
	}
	return sp, nil
}

// ExportJSON writes the run's metadata and spins as one JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	spins, err := s.LoadSpins(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Record{Metadata: *meta, Spins: spins})
}
