package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-sim-monitor/internal/core/model"
)

// SnapshotGenerator writes simulation snapshot files for tests
type SnapshotGenerator struct {
	baseDir string
	next    int
}

func NewSnapshotGenerator(baseDir string) *SnapshotGenerator {
	return &SnapshotGenerator{baseDir: baseDir}
}

// Dir returns the directory files are written to
func (g *SnapshotGenerator) Dir() string {
	return g.baseDir
}

// Simulation returns a record created at t with a generated id
func (g *SnapshotGenerator) Simulation(created time.Time, status string) model.Simulation {
	g.next++
	return model.Simulation{
		UUID:    fmt.Sprintf("sim-%04d", g.next),
		Status:  status,
		Created: model.NewTimestamp(created),
		Updated: model.NewTimestamp(created.Add(time.Minute)),
	}
}

// Hourly returns counts[i] done simulations in the hour start+i, spread over
// the hour so none lands on a bucket edge
func (g *SnapshotGenerator) Hourly(start time.Time, counts ...int) []model.Simulation {
	var out []model.Simulation
	for i, n := range counts {
		hour := start.Add(time.Duration(i) * time.Hour)
		for j := 0; j < n; j++ {
			offset := time.Duration(j+1) * time.Hour / time.Duration(n+1)
			out = append(out, g.Simulation(hour.Add(offset), model.StatusDone))
		}
	}
	return out
}

// WriteJSONL writes one simulation per line and returns the file path
func (g *SnapshotGenerator) WriteJSONL(name string, sims []model.Simulation) (string, error) {
	var data []byte
	for _, sim := range sims {
		line, err := sonic.Marshal(sim)
		if err != nil {
			return "", err
		}
		data = append(data, line...)
		data = append(data, '\n')
	}
	return g.write(name, data)
}

// WriteJSON writes the simulations as one JSON array and returns the file path
func (g *SnapshotGenerator) WriteJSON(name string, sims []model.Simulation) (string, error) {
	data, err := sonic.Marshal(sims)
	if err != nil {
		return "", err
	}
	return g.write(name, data)
}

func (g *SnapshotGenerator) write(name string, data []byte) (string, error) {
	path := filepath.Join(g.baseDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
