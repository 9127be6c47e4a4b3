package storage

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLSink writes a run as a single YAML document.
type YAMLSink struct {
	path string
	w    io.Writer
}

type yamlRun struct {
	RunID    string          `yaml:"run_id"`
	Outcomes []OutcomeRecord `yaml:"outcomes"`
}

func (s *YAMLSink) PutRun(records []OutcomeRecord) error {
	doc := yamlRun{Outcomes: records}
	if len(records) > 0 {
		doc.RunID = records[0].RunID
	}

	w := s.w
	if s.path != "" {
		if err := ensureDir(s.path); err != nil {
			return err
		}
		file, err := os.Create(s.path)
		if err != nil {
			return fmt.Errorf("open output file: %w", err)
		}
		defer file.Close()
		w = file
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush yaml: %w", err)
	}
	return nil
}
