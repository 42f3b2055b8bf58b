package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Metadata mirrors the project's metadata.json: a small status record
// other tooling reads to know whether the project currently builds and
// how far the last run got.
type Metadata struct {
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	RomPath       string    `json:"rom_path,omitempty"`
	CurrentStep   int       `json:"current_step,omitempty"`
	TotalSteps    int       `json:"total_steps,omitempty"`
	BuildAttempts int       `json:"build_attempts,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const (
	StatusScaffolded  = "scaffolded"
	StatusCompiled    = "compiled"
	StatusBuildFailed = "build_failed"
)

func metadataPath(projectDir string) string {
	return filepath.Join(projectDir, "metadata.json")
}

func loadMetadata(projectDir string) (*Metadata, error) {
	data, err := os.ReadFile(metadataPath(projectDir))
	if err != nil {
		if os.IsNotExist(err) {
			return &Metadata{Name: filepath.Base(projectDir)}, nil
		}
		return nil, fmt.Errorf("reading project metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing project metadata: %w", err)
	}
	return &m, nil
}

func saveMetadata(projectDir string, m *Metadata) error {
	m.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling project metadata: %w", err)
	}
	if err := os.WriteFile(metadataPath(projectDir), data, 0644); err != nil {
		return fmt.Errorf("writing project metadata: %w", err)
	}
	return nil
}

// setProjectStatus updates metadata.json. An empty buildErr clears the
// recorded error. A compiled status records the built ROM; rolling back
// to scaffolded clears it since the binary no longer matches the sources.
func setProjectStatus(projectDir, status, buildErr string) error {
	m, err := loadMetadata(projectDir)
	if err != nil {
		return err
	}
	m.Status = status
	m.Error = buildErr
	switch status {
	case StatusScaffolded:
		m.RomPath = ""
	case StatusCompiled:
		m.RomPath = findROM(projectDir)
	}
	return saveMetadata(projectDir, m)
}

// setRunProgress records how far a run got, for status tooling.
func setRunProgress(projectDir string, currentStep, totalSteps, buildAttempts int) error {
	m, err := loadMetadata(projectDir)
	if err != nil {
		return err
	}
	m.CurrentStep = currentStep
	m.TotalSteps = totalSteps
	m.BuildAttempts += buildAttempts
	return saveMetadata(projectDir, m)
}

// RecordBuildResult updates metadata.json after a standalone build.
func RecordBuildResult(projectDir string, success bool, output string) error {
	m, err := loadMetadata(projectDir)
	if err != nil {
		return err
	}
	m.BuildAttempts++
	if success {
		m.Status = StatusCompiled
		m.Error = ""
		m.RomPath = findROM(projectDir)
	} else {
		m.Status = StatusBuildFailed
		m.Error = output
	}
	return saveMetadata(projectDir, m)
}

// findROM locates the built image under build/. Empty when no image
// exists.
func findROM(projectDir string) string {
	for _, pattern := range []string{"build/*.gb", "build/*.gbc"} {
		matches, err := filepath.Glob(filepath.Join(projectDir, filepath.FromSlash(pattern)))
		if err == nil && len(matches) > 0 {
			rel, err := filepath.Rel(projectDir, matches[0])
			if err != nil {
				return matches[0]
			}
			return filepath.ToSlash(rel)
		}
	}
	return ""
}
