package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veriplan/veriplan/internal/model"
)

// LoadSchedule reads a drafted schedule from a YAML or JSON file,
// chosen by extension.
func LoadSchedule(path string) (*model.Schedule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}

	var schedule model.Schedule
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &schedule); err != nil {
			return nil, fmt.Errorf("parse yaml schedule: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(raw, &schedule); err != nil {
			return nil, fmt.Errorf("parse json schedule: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported schedule format: %s", filepath.Ext(path))
	}

	if len(schedule.Tasks) == 0 {
		return nil, fmt.Errorf("schedule %s has no tasks", path)
	}
	return &schedule, nil
}
