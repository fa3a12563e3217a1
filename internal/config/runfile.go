package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/reqtrace/internal/core"
	"github.com/JonMunkholm/reqtrace/internal/schema"
)

// RunFile is a parsed run description: which documents to normalize and
// how the builtin schema is adjusted for this run.
type RunFile struct {
	Version   string
	Overrides []schema.Override
	Inputs    []core.Input
}

type rawRunFile struct {
	Version string     `yaml:"version"`
	Schema  rawSchema  `yaml:"schema"`
	Inputs  []rawInput `yaml:"inputs"`
}

type rawSchema struct {
	File      string    `yaml:"file"`
	Documents yaml.Node `yaml:"documents"`
}

type rawInput struct {
	Path            string   `yaml:"path"`
	DocName         string   `yaml:"doc_name"`
	DocType         string   `yaml:"doc_type"`
	Level           string   `yaml:"level"`
	SheetName       string   `yaml:"sheet_name"`
	SkipObjectTypes []string `yaml:"skip_object_types"`
	Notes           string   `yaml:"notes"`
}

// LoadRunFile reads the run file at path. Relative input and schema paths
// resolve against the run file's directory.
func LoadRunFile(path string, logger *slog.Logger) (*RunFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run file: %w", err)
	}
	defer f.Close()

	return DecodeRunFile(f, filepath.Dir(path), logger)
}

// DecodeRunFile parses a run file. Entries without a path or doc_type are
// dropped with a warning.
func DecodeRunFile(r io.Reader, baseDir string, logger *slog.Logger) (*RunFile, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var raw rawRunFile
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode run file: %w", err)
	}

	rf := &RunFile{Version: raw.Version}

	if raw.Schema.File != "" {
		doc, err := loadSchemaFile(resolve(baseDir, raw.Schema.File))
		if err != nil {
			return nil, err
		}
		rf.Overrides = append(rf.Overrides, doc.Overrides...)
		if rf.Version == "" {
			rf.Version = doc.Version
		}
	}

	inline, err := schema.DecodeOverrides(&raw.Schema.Documents)
	if err != nil {
		return nil, err
	}
	rf.Overrides = append(rf.Overrides, inline...)

	for i, in := range raw.Inputs {
		path := strings.TrimSpace(in.Path)
		docType := strings.TrimSpace(in.DocType)
		if path == "" || docType == "" {
			logger.Warn("dropping run file input without path or doc_type",
				"index", i,
				"path", path,
				"doc_type", docType,
			)
			continue
		}
		rf.Inputs = append(rf.Inputs, core.Input{
			Path:            resolve(baseDir, path),
			DocName:         strings.TrimSpace(in.DocName),
			DocType:         docType,
			Level:           strings.TrimSpace(in.Level),
			SheetName:       strings.TrimSpace(in.SheetName),
			SkipObjectTypes: in.SkipObjectTypes,
			Notes:           in.Notes,
		})
	}

	return rf, nil
}

// Registry builds the run's registry from base plus the run file overrides.
func (rf *RunFile) Registry(base *schema.Registry) (*schema.Registry, error) {
	if len(rf.Overrides) == 0 && rf.Version == "" {
		return base, nil
	}
	return base.WithOverrides(rf.Version, rf.Overrides)
}

func loadSchemaFile(path string) (schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return schema.Document{}, fmt.Errorf("open schema file: %w", err)
	}
	defer f.Close()
	return schema.DecodeDocument(f)
}

func resolve(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
