package roster

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MiMics0/medical-farm-bot/internal/model"
)

// LoadState reads the roster state from a JSON file. Returns an empty state
// if the file doesn't exist.
func LoadState(filePath string) (*model.RosterState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewRosterState(), nil
		}
		return nil, err
	}
	state := model.NewRosterState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	return state, nil
}

// SaveState writes the roster state to a JSON file. The write goes to a
// temp file first and is renamed into place so a crash mid-write never
// leaves a truncated state file.
func SaveState(filePath string, state *model.RosterState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
