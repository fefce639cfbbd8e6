package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tenex-chat/inkwell/internal/record"
)

// Record families used in jsonl lines.
const (
	FamilyDraft    = "draft"
	FamilyNamed    = "named_draft"
	FamilyPrompt   = "pinned_prompt"
	FamilySnapshot = "publish_snapshot"
)

// Line is one jsonl line. The first line of a file is a header carrying
// InkwellExport and the schema version; every following line carries one
// record tagged with its family. Draft lines also carry their scope key.
type Line struct {
	InkwellExport bool   `json:"_inkwell_export,omitempty"`
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	Family string          `json:"family,omitempty"`
	Scope  string          `json:"scope,omitempty"`
	Record json.RawMessage `json:"record,omitempty"`
}

type jsonlExporter struct{}

func (jsonlExporter) Extension() string { return ".jsonl" }

func (jsonlExporter) Write(w io.Writer, a Archive) error {
	write := func(line Line) error {
		data, err := json.Marshal(line)
		if err != nil {
			return fmt.Errorf("failed to encode export line: %w", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
		return nil
	}
	writeRecord := func(family, scope string, rec any) error {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode %s record: %w", family, err)
		}
		return write(Line{Family: family, Scope: scope, Record: raw})
	}

	header := Line{InkwellExport: true, SchemaVersion: SchemaVersion, ExportedAt: a.ExportedAt}
	if err := write(header); err != nil {
		return err
	}

	for _, scope := range a.sortedScopes() {
		if err := writeRecord(FamilyDraft, scope, a.Drafts[scope]); err != nil {
			return err
		}
	}
	for _, nd := range a.Named {
		if err := writeRecord(FamilyNamed, "", nd); err != nil {
			return err
		}
	}
	for _, prompt := range a.Prompts {
		if err := writeRecord(FamilyPrompt, "", prompt); err != nil {
			return err
		}
	}
	for _, id := range a.sortedSnapshotIDs() {
		if err := writeRecord(FamilySnapshot, "", a.Snapshots[id]); err != nil {
			return err
		}
	}
	return nil
}

// LineError describes one jsonl line that could not be imported.
type LineError struct {
	Line    int    `json:"line"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseJSONL reads a jsonl export back into an archive. Bad lines are
// collected as errors rather than aborting, so a partially damaged file
// still yields its intact records.
func ParseJSONL(r io.Reader) (Archive, []LineError) {
	a := Archive{
		Drafts:    record.DraftMap{},
		Snapshots: record.SnapshotMap{},
	}
	var lineErrors []LineError

	scanner := bufio.NewScanner(r)
	// Draft bodies are freeform text, allow long lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var line Line
		if err := json.Unmarshal(raw, &line); err != nil {
			lineErrors = append(lineErrors, LineError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		// Skip header line
		if line.InkwellExport {
			continue
		}

		switch line.Family {
		case FamilyDraft:
			var d record.Draft
			if err := json.Unmarshal(line.Record, &d); err != nil {
				lineErrors = append(lineErrors, invalidRecord(lineNum, err))
				continue
			}
			scope := line.Scope
			if scope == "" {
				scope = d.Scope().Key()
			}
			a.Drafts[scope] = d
		case FamilyNamed:
			var nd record.NamedDraft
			if err := json.Unmarshal(line.Record, &nd); err != nil {
				lineErrors = append(lineErrors, invalidRecord(lineNum, err))
				continue
			}
			if nd.ID == "" {
				lineErrors = append(lineErrors, missingID(lineNum))
				continue
			}
			a.Named = append(a.Named, nd)
		case FamilyPrompt:
			var prompt record.PinnedPrompt
			if err := json.Unmarshal(line.Record, &prompt); err != nil {
				lineErrors = append(lineErrors, invalidRecord(lineNum, err))
				continue
			}
			if prompt.ID == "" {
				lineErrors = append(lineErrors, missingID(lineNum))
				continue
			}
			a.Prompts = append(a.Prompts, prompt)
		case FamilySnapshot:
			var snap record.PublishSnapshot
			if err := json.Unmarshal(line.Record, &snap); err != nil {
				lineErrors = append(lineErrors, invalidRecord(lineNum, err))
				continue
			}
			if snap.PublishID == "" {
				lineErrors = append(lineErrors, missingID(lineNum))
				continue
			}
			a.Snapshots[snap.PublishID] = snap
		default:
			lineErrors = append(lineErrors, LineError{
				Line:    lineNum,
				Code:    "UNKNOWN_FAMILY",
				Message: fmt.Sprintf("unknown record family %q", line.Family),
			})
		}
	}

	if err := scanner.Err(); err != nil {
		lineErrors = append(lineErrors, LineError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return a, lineErrors
}

func invalidRecord(line int, err error) LineError {
	return LineError{Line: line, Code: "INVALID_RECORD", Message: fmt.Sprintf("record does not decode: %v", err)}
}

func missingID(line int) LineError {
	return LineError{Line: line, Code: "INVALID_RECORD", Message: "missing id field"}
}
