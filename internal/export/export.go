// Package export renders vault contents to portable formats and reads the
// jsonl format back for import.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tenex-chat/inkwell/internal/errors"
	"github.com/tenex-chat/inkwell/internal/record"
)

// SchemaVersion is stamped into jsonl headers. Bump when the line format
// changes incompatibly.
const SchemaVersion = "1.0"

// Archive is a portable snapshot of every collection.
type Archive struct {
	ExportedAt int64                 `json:"exported_at"`
	Drafts     record.DraftMap       `json:"drafts,omitempty"`
	Named      record.NamedDraftList `json:"named_drafts,omitempty"`
	Prompts    record.PromptList     `json:"pinned_prompts,omitempty"`
	Snapshots  record.SnapshotMap    `json:"publish_snapshots,omitempty"`
}

// Count returns the total number of records across all families.
func (a Archive) Count() int {
	return len(a.Drafts) + len(a.Named) + len(a.Prompts) + len(a.Snapshots)
}

// sortedScopes returns the draft scope keys in stable order.
func (a Archive) sortedScopes() []string {
	keys := make([]string, 0, len(a.Drafts))
	for k := range a.Drafts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedSnapshotIDs returns the publish ids in stable order.
func (a Archive) sortedSnapshotIDs() []string {
	ids := make([]string, 0, len(a.Snapshots))
	for id := range a.Snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Exporter renders an archive to one output format.
type Exporter interface {
	Write(w io.Writer, a Archive) error
	Extension() string
}

// New returns the exporter for a format name: json, yaml, jsonl, or
// markdown (md).
func New(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return jsonExporter{}, nil
	case "yaml", "yml":
		return yamlExporter{}, nil
	case "jsonl":
		return jsonlExporter{}, nil
	case "markdown", "md":
		return markdownExporter{}, nil
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown export format %q (expected json, yaml, jsonl, or markdown)", format))
	}
}

type jsonExporter struct{}

func (jsonExporter) Extension() string { return ".json" }

func (jsonExporter) Write(w io.Writer, a Archive) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

type yamlExporter struct{}

func (yamlExporter) Extension() string { return ".yaml" }

func (yamlExporter) Write(w io.Writer, a Archive) error {
	// Round-trip through JSON so the yaml keys match the json tags.
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	return enc.Close()
}
