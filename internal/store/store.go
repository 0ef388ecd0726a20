// Package store persists runs on disk: one directory per run holding
// metadata.json and frames.csv.
package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/san-kum/grabsim/internal/config"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/sim"
)

var (
	ErrNotFound  = errors.New("store: run not found")
	ErrBadFrames = errors.New("store: malformed frames file")
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var frameHeader = []string{
	"time",
	"x", "y", "z",
	"qw", "qx", "qy", "qz",
	"vx", "vy", "vz",
	"wx", "wy", "wz",
	"hand_x", "hand_y", "hand_z",
	"target_x", "target_y", "target_z",
	"held", "energy",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type ReleaseInfo struct {
	Time            float64    `json:"time"`
	Velocity        [3]float64 `json:"velocity"`
	AngularVelocity [3]float64 `json:"angular_velocity"`
}

type EventRecord struct {
	Time       float64 `json:"time"`
	Kind       string  `json:"kind"`
	Interactor string  `json:"interactor,omitempty"`
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Scenario    string             `json:"scenario"`
	Timestamp   time.Time          `json:"timestamp"`
	Fingerprint string             `json:"fingerprint"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	FixedDt     float64            `json:"fixed_dt"`
	Movement    string             `json:"movement"`
	Integrator  string             `json:"integrator"`
	Frames      int                `json:"frames"`
	Release     *ReleaseInfo       `json:"release,omitempty"`
	Events      []EventRecord      `json:"events"`
	Metrics     map[string]float64 `json:"metrics"`
	Config      *config.Config     `json:"config"`
}

// NewMetadata describes result as produced by cfg. The ID is left for Save.
func NewMetadata(cfg *config.Config, result *sim.Result) (*RunMetadata, error) {
	fp, err := cfg.Fingerprint()
	if err != nil {
		return nil, err
	}

	meta := &RunMetadata{
		Scenario:    cfg.Scenario,
		Timestamp:   time.Now(),
		Fingerprint: fp,
		Seed:        cfg.Options.Seed,
		Dt:          cfg.Sim.Dt,
		FixedDt:     cfg.Sim.FixedDt,
		Movement:    cfg.Grab.MovementType.String(),
		Integrator:  cfg.Body.Integrator,
		Frames:      len(result.Samples),
		Events:      make([]EventRecord, 0, len(result.Events)),
		Metrics:     result.Metrics,
		Config:      cfg,
	}
	if r := result.Release; r != nil {
		meta.Release = &ReleaseInfo{Time: r.Time, Velocity: r.Velocity, AngularVelocity: r.AngularVelocity}
	}
	for _, ev := range result.Events {
		meta.Events = append(meta.Events, NewEventRecord(ev))
	}
	return meta, nil
}

func NewEventRecord(ev grab.Event) EventRecord {
	rec := EventRecord{Time: ev.Time, Kind: ev.Kind.String()}
	if ev.Interactor != nil {
		rec.Interactor = string(ev.Interactor.ID())
	}
	return rec
}

// Save writes a new run and returns its ID.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	meta, err := NewMetadata(cfg, result)
	if err != nil {
		return "", err
	}
	meta.ID = fmt.Sprintf("%s_%s", cfg.Scenario, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, framesFile), result.Samples); err != nil {
		return "", err
	}
	return meta.ID, nil
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

func writeFrames(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(frameHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		if err := w.Write(frameRow(smp)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func frameRow(smp sim.Sample) []string {
	held := 0.0
	if smp.Held {
		held = 1
	}
	vals := []float64{
		smp.Time,
		smp.Position[0], smp.Position[1], smp.Position[2],
		smp.Rotation.W, smp.Rotation.V[0], smp.Rotation.V[1], smp.Rotation.V[2],
		smp.Velocity[0], smp.Velocity[1], smp.Velocity[2],
		smp.AngularVelocity[0], smp.AngularVelocity[1], smp.AngularVelocity[2],
		smp.Hand[0], smp.Hand[1], smp.Hand[2],
		smp.Target[0], smp.Target[1], smp.Target[2],
		held, smp.KineticEnergy,
	}
	row := make([]string, len(vals))
	for i, v := range vals {
		row[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return row
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadFrames reads back the samples written by Save.
func (s *Store) LoadFrames(runID string) ([]sim.Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(frameHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFrames, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrBadFrames)
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for line, record := range records[1:] {
		v := make([]float64, len(record))
		for j, field := range record {
			v[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrBadFrames, line+2, err)
			}
		}
		samples = append(samples, sim.Sample{
			Time:            v[0],
			Position:        mgl64.Vec3{v[1], v[2], v[3]},
			Rotation:        mgl64.Quat{W: v[4], V: mgl64.Vec3{v[5], v[6], v[7]}},
			Velocity:        mgl64.Vec3{v[8], v[9], v[10]},
			AngularVelocity: mgl64.Vec3{v[11], v[12], v[13]},
			Hand:            mgl64.Vec3{v[14], v[15], v[16]},
			Target:          mgl64.Vec3{v[17], v[18], v[19]},
			Held:            v[20] != 0,
			KineticEnergy:   v[21],
		})
	}
	return samples, nil
}
