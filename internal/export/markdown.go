package export

import (
	"fmt"
	"io"
	"strings"
	"time"
)

type markdownExporter struct{}

func (markdownExporter) Extension() string { return ".md" }

// Write renders a human-readable document, one section per family. Record
// bodies go into fenced blocks so markdown inside a draft cannot break the
// document structure.
func (markdownExporter) Write(w io.Writer, a Archive) error {
	var b strings.Builder

	b.WriteString("# Inkwell export\n\n")
	fmt.Fprintf(&b, "Exported: %s\n", time.Unix(a.ExportedAt, 0).UTC().Format(time.RFC3339))

	if len(a.Drafts) > 0 {
		b.WriteString("\n## Drafts\n")
		for _, scope := range a.sortedScopes() {
			d := a.Drafts[scope]
			fmt.Fprintf(&b, "\n### %s\n\n", scope)
			fmt.Fprintf(&b, "- Project: %s\n", d.ProjectID)
			if d.ConversationID != "" {
				fmt.Fprintf(&b, "- Conversation: %s\n", d.ConversationID)
			}
			if d.AgentPubkey != "" {
				fmt.Fprintf(&b, "- Agent: %s\n", d.AgentPubkey)
			}
			fmt.Fprintf(&b, "- Last edited: %s\n", stamp(d.LastEdited))
			writeBody(&b, d.Content)
		}
	}

	if len(a.Named) > 0 {
		b.WriteString("\n## Saved drafts\n")
		for _, nd := range a.Named {
			fmt.Fprintf(&b, "\n### %s\n\n", nd.Name)
			fmt.Fprintf(&b, "- ID: %s\n", nd.ID)
			fmt.Fprintf(&b, "- Project: %s\n", nd.ProjectID)
			fmt.Fprintf(&b, "- Last modified: %s\n", stamp(nd.LastModified))
			writeBody(&b, nd.Text)
		}
	}

	if len(a.Prompts) > 0 {
		b.WriteString("\n## Pinned prompts\n")
		for _, p := range a.Prompts {
			fmt.Fprintf(&b, "\n### %s\n\n", p.Title)
			fmt.Fprintf(&b, "- ID: %s\n", p.ID)
			if p.LastUsedAt != 0 {
				fmt.Fprintf(&b, "- Last used: %s\n", stamp(p.LastUsedAt))
			}
			writeBody(&b, p.Text)
		}
	}

	if len(a.Snapshots) > 0 {
		b.WriteString("\n## Publish snapshots\n")
		for _, id := range a.sortedSnapshotIDs() {
			snap := a.Snapshots[id]
			fmt.Fprintf(&b, "\n### %s\n\n", id)
			if snap.ConversationID != "" {
				fmt.Fprintf(&b, "- Conversation: %s\n", snap.ConversationID)
			}
			fmt.Fprintf(&b, "- Sent: %s\n", stamp(snap.SentAt))
			if snap.IsConfirmed() {
				fmt.Fprintf(&b, "- Published: %s (event %s)\n", stamp(snap.PublishedAt), snap.PublishedEventID)
			} else {
				b.WriteString("- Published: pending\n")
			}
			writeBody(&b, snap.Content)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeBody(b *strings.Builder, text string) {
	if text == "" {
		return
	}
	fence := "```"
	// Grow the fence until it cannot collide with the body.
	for strings.Contains(text, fence) {
		fence += "`"
	}
	fmt.Fprintf(b, "\n%s\n%s\n%s\n", fence, text, fence)
}

func stamp(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}
