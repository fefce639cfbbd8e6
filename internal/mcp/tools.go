package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool definitions. Scope-addressed tools take project_id plus an optional
// conversation_id; leaving conversation_id empty addresses the project's
// new-conversation draft.

var draftGetToolDef = mcp.NewTool("draft_get",
	mcp.WithDescription("Get the message draft for a scope, creating an empty one if none exists. Scope is project_id plus optional conversation_id."),
	mcp.WithString("project_id", mcp.Required(), mcp.Description("Project the draft belongs to")),
	mcp.WithString("conversation_id", mcp.Description("Conversation being replied to; omit for the project's new-conversation draft")),
)

var draftPutToolDef = mcp.NewTool("draft_put",
	mcp.WithDescription("Update fields of a scope's draft. Omitted fields keep their current value. The draft is created if absent."),
	mcp.WithString("project_id", mcp.Required(), mcp.Description("Project the draft belongs to")),
	mcp.WithString("conversation_id", mcp.Description("Conversation being replied to; omit for the new-conversation draft")),
	mcp.WithString("content", mcp.Description("Draft body text")),
	mcp.WithString("title", mcp.Description("Optional title")),
	mcp.WithString("agent_pubkey", mcp.Description("Pubkey of the agent selected for this draft")),
	mcp.WithString("ref_conversation_id", mcp.Description("Conversation referenced by the draft")),
	mcp.WithString("ref_report_id", mcp.Description("Report referenced by the draft")),
	mcp.WithArray("action_ids", mcp.Description("Pending action ids; pass an empty array to clear"),
		mcp.Items(map[string]any{"type": "string"})),
)

var draftClearToolDef = mcp.NewTool("draft_clear",
	mcp.WithDescription("Clear a draft's content after a send. The agent selection and action set survive for the next message."),
	mcp.WithString("project_id", mcp.Required(), mcp.Description("Project the draft belongs to")),
	mcp.WithString("conversation_id", mcp.Description("Conversation being replied to; omit for the new-conversation draft")),
)

var draftDeleteToolDef = mcp.NewTool("draft_delete",
	mcp.WithDescription("Delete a scope's draft entirely."),
	mcp.WithString("project_id", mcp.Required(), mcp.Description("Project the draft belongs to")),
	mcp.WithString("conversation_id", mcp.Description("Conversation being replied to; omit for the new-conversation draft")),
)

var draftListToolDef = mcp.NewTool("draft_list",
	mcp.WithDescription("List a project's drafts, most recently edited first. Each entry carries a preview of its content."),
	mcp.WithString("project_id", mcp.Required(), mcp.Description("Project to list")),
)

var draftSweepToolDef = mcp.NewTool("draft_sweep",
	mcp.WithDescription("Remove content-less drafts older than the age limit. Drafts with content are never removed."),
	mcp.WithNumber("max_age_hours", mcp.Description("Age limit in hours; defaults to the configured draft_max_age_hours")),
)

var savedCreateToolDef = mcp.NewTool("saved_create",
	mcp.WithDescription("Save text as a named draft. The name derives from the first line of the text."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Text to save")),
	mcp.WithString("project_id", mcp.Required(), mcp.Description("Project the saved draft belongs to")),
)

var savedListToolDef = mcp.NewTool("saved_list",
	mcp.WithDescription("List a project's saved drafts, most recently modified first."),
	mcp.WithString("project_id", mcp.Required(), mcp.Description("Project to list")),
)

var savedUpdateToolDef = mcp.NewTool("saved_update",
	mcp.WithDescription("Replace a saved draft's text. Its name is re-derived from the new first line."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Saved draft id")),
	mcp.WithString("text", mcp.Required(), mcp.Description("Replacement text")),
)

var savedDeleteToolDef = mcp.NewTool("saved_delete",
	mcp.WithDescription("Delete a saved draft by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Saved draft id")),
)

var promptPinToolDef = mcp.NewTool("prompt_pin",
	mcp.WithDescription("Pin a reusable prompt. Title and text are both required."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Prompt title")),
	mcp.WithString("text", mcp.Required(), mcp.Description("Prompt body")),
)

var promptListToolDef = mcp.NewTool("prompt_list",
	mcp.WithDescription("List pinned prompts in display order: most recently used first, then most recently modified."),
)

var promptUseToolDef = mcp.NewTool("prompt_use",
	mcp.WithDescription("Mark a pinned prompt as used now, moving it to the front of the list."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Prompt id")),
)

var promptDeleteToolDef = mcp.NewTool("prompt_delete",
	mcp.WithDescription("Delete a pinned prompt by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Prompt id")),
)

var publishBeginToolDef = mcp.NewTool("publish_begin",
	mcp.WithDescription("Snapshot a draft's content for publishing and clear the draft. The snapshot guards against losing the text if the publish fails."),
	mcp.WithString("project_id", mcp.Required(), mcp.Description("Project the draft belongs to")),
	mcp.WithString("conversation_id", mcp.Description("Conversation being replied to; omit for the new-conversation draft")),
)

var publishConfirmToolDef = mcp.NewTool("publish_confirm",
	mcp.WithDescription("Confirm that a publish succeeded, recording the resulting event id."),
	mcp.WithString("publish_id", mcp.Required(), mcp.Description("Snapshot id returned by publish_begin")),
	mcp.WithString("event_id", mcp.Required(), mcp.Description("Id of the published event")),
)

var publishListToolDef = mcp.NewTool("publish_list",
	mcp.WithDescription("List publish snapshots. By default only pending ones, oldest first."),
	mcp.WithBoolean("include_confirmed", mcp.Description("Also include confirmed snapshots")),
)

var publishCleanupToolDef = mcp.NewTool("publish_cleanup",
	mcp.WithDescription("Remove confirmed snapshots past the recovery grace period. Pending snapshots are never removed."),
	mcp.WithNumber("grace_hours", mcp.Description("Grace period in hours; defaults to the configured snapshot_grace_hours")),
)

var vaultStatusToolDef = mcp.NewTool("vault_status",
	mcp.WithDescription("Report the state of every collection: record counts, load failures, and pending saves."),
)

var vaultFlushToolDef = mcp.NewTool("vault_flush",
	mcp.WithDescription("Write every collection to disk immediately instead of waiting for the debounce window."),
)
