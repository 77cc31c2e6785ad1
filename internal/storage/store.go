package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/beamsim/internal/track"
)

// Store persists tracking runs under a base directory: one
// subdirectory per run with metadata.json and records.csv.
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
	Lattice   string             `json:"lattice"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Turns     int                `json:"turns"`
	Particles int                `json:"particles"`
	Metrics   map[string]float64 `json:"metrics"`
}

var recordHeader = []string{
	"turn", "alive", "mean_x", "rms_x", "mean_y", "rms_y", "mean_zeta", "mean_delta",
}

func (s *Store) Save(lattice string, turns, particles int, seed int64, result *track.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", lattice, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Lattice:   lattice,
		Timestamp: time.Now(),
		Seed:      seed,
		Turns:     turns,
		Particles: particles,
		Metrics:   result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "records.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(recordHeader); err != nil {
		return "", err
	}

	for _, rec := range result.Records {
		row := []string{
			strconv.Itoa(rec.Turn),
			strconv.Itoa(rec.Alive),
			formatFloat(rec.MeanX),
			formatFloat(rec.RMSX),
			formatFloat(rec.MeanY),
			formatFloat(rec.RMSY),
			formatFloat(rec.MeanZeta),
			formatFloat(rec.MeanDelta),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'e', 9, 64)
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

func (s *Store) LoadRecords(runID string) ([]track.TurnRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "records.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	records := make([]track.TurnRecord, 0, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) < len(recordHeader) {
			continue
		}

		turn, err := strconv.Atoi(row[0])
		if err != nil {
			continue
		}
		alive, err := strconv.Atoi(row[1])
		if err != nil {
			continue
		}

		vals := make([]float64, 6)
		ok := true
		for j := range vals {
			v, err := strconv.ParseFloat(row[j+2], 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}

		records = append(records, track.TurnRecord{
			Turn:      turn,
			Alive:     alive,
			MeanX:     vals[0],
			RMSX:      vals[1],
			MeanY:     vals[2],
			RMSY:      vals[3],
			MeanZeta:  vals[4],
			MeanDelta: vals[5],
		})
	}

	return records, nil
}
