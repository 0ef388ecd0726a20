package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/grabsim/internal/sim"
)

type FrameData struct {
	Time            float64    `json:"t"`
	Position        [3]float64 `json:"position"`
	Rotation        [4]float64 `json:"rotation"`
	Velocity        [3]float64 `json:"velocity"`
	AngularVelocity [3]float64 `json:"angular_velocity"`
	Hand            [3]float64 `json:"hand"`
	Target          [3]float64 `json:"target"`
	Held            bool       `json:"held"`
	KineticEnergy   float64    `json:"kinetic_energy"`
}

type ExportData struct {
	Run    *RunMetadata `json:"run"`
	Frames []FrameData  `json:"frames"`
}

func NewFrameData(s sim.Sample) FrameData {
	return FrameData{
		Time:            s.Time,
		Position:        s.Position,
		Rotation:        [4]float64{s.Rotation.W, s.Rotation.V[0], s.Rotation.V[1], s.Rotation.V[2]},
		Velocity:        s.Velocity,
		AngularVelocity: s.AngularVelocity,
		Hand:            s.Hand,
		Target:          s.Target,
		Held:            s.Held,
		KineticEnergy:   s.KineticEnergy,
	}
}

// WriteJSON encodes the run and its frames as one indented document.
func WriteJSON(w io.Writer, meta *RunMetadata, samples []sim.Sample) error {
	data := ExportData{Run: meta, Frames: make([]FrameData, len(samples))}
	for i, s := range samples {
		data.Frames[i] = NewFrameData(s)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportJSON writes to path, or to stdout when path is empty or "-".
func ExportJSON(path string, meta *RunMetadata, samples []sim.Sample) error {
	if path == "" || path == "-" {
		return WriteJSON(os.Stdout, meta, samples)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJSON(f, meta, samples)
}
