package snapshot

import (
	"fmt"
	"os"

	"poolScope/internal/model"
)

// LoadFile reads and parses a snapshot document from disk.
func LoadFile(path string) (*model.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Parse(data)
}
