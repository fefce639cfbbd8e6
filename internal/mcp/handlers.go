package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tenex-chat/inkwell/internal/config"
	"github.com/tenex-chat/inkwell/internal/content"
	"github.com/tenex-chat/inkwell/internal/errors"
	"github.com/tenex-chat/inkwell/internal/record"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	vault *content.Vault
	cfg   config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(vault *content.Vault, cfg config.Config) *Handlers {
	return &Handlers{vault: vault, cfg: cfg}
}

// Request types for each tool

// ScopeRequest addresses one draft scope.
type ScopeRequest struct {
	ProjectID      string `json:"project_id"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// DraftPutRequest represents the arguments for draft_put. Omitted fields
// keep their current value.
type DraftPutRequest struct {
	ProjectID         string    `json:"project_id"`
	ConversationID    string    `json:"conversation_id,omitempty"`
	Content           *string   `json:"content,omitempty"`
	Title             *string   `json:"title,omitempty"`
	AgentPubkey       *string   `json:"agent_pubkey,omitempty"`
	RefConversationID *string   `json:"ref_conversation_id,omitempty"`
	RefReportID       *string   `json:"ref_report_id,omitempty"`
	ActionIDs         *[]string `json:"action_ids,omitempty"`
}

// DraftListRequest represents the arguments for draft_list.
type DraftListRequest struct {
	ProjectID string `json:"project_id"`
}

// DraftSweepRequest represents the arguments for draft_sweep.
type DraftSweepRequest struct {
	MaxAgeHours *int `json:"max_age_hours,omitempty"`
}

// SavedCreateRequest represents the arguments for saved_create.
type SavedCreateRequest struct {
	Text      string `json:"text"`
	ProjectID string `json:"project_id"`
}

// SavedUpdateRequest represents the arguments for saved_update.
type SavedUpdateRequest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// IDRequest addresses one record by id.
type IDRequest struct {
	ID string `json:"id"`
}

// PromptPinRequest represents the arguments for prompt_pin.
type PromptPinRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// PublishConfirmRequest represents the arguments for publish_confirm.
type PublishConfirmRequest struct {
	PublishID string `json:"publish_id"`
	EventID   string `json:"event_id"`
}

// PublishListRequest represents the arguments for publish_list.
type PublishListRequest struct {
	IncludeConfirmed bool `json:"include_confirmed,omitempty"`
}

// PublishCleanupRequest represents the arguments for publish_cleanup.
type PublishCleanupRequest struct {
	GraceHours *int `json:"grace_hours,omitempty"`
}

// scopeFor validates scope arguments and builds the scope key.
func scopeFor(projectID, conversationID string) (record.DraftScope, error) {
	if strings.TrimSpace(projectID) == "" {
		return record.DraftScope{}, errors.NewInvalidRequest("project_id is required")
	}
	if conversationID == "" {
		return record.NewConversationScope(projectID), nil
	}
	return record.ReplyScope(projectID, conversationID), nil
}

func hoursToDuration(hours int) time.Duration {
	return time.Duration(hours) * time.Hour
}

// draftView is the wire shape of a draft in list responses: the record plus
// its scope key and a short preview.
type draftView struct {
	Scope   string `json:"scope"`
	Preview string `json:"preview"`
	record.Draft
}

// Handler implementations

// HandleDraftGet handles the draft_get tool call.
func (h *Handlers) HandleDraftGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ScopeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	scope, err := scopeFor(input.ProjectID, input.ConversationID)
	if err != nil {
		return errorResult(err), nil
	}

	draft, err := h.vault.Drafts.GetOrCreate(ctx, scope)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(draft)
}

// HandleDraftPut handles the draft_put tool call.
func (h *Handlers) HandleDraftPut(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DraftPutRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	scope, err := scopeFor(input.ProjectID, input.ConversationID)
	if err != nil {
		return errorResult(err), nil
	}

	upd := content.DraftUpdate{
		Content:           input.Content,
		Title:             input.Title,
		AgentPubkey:       input.AgentPubkey,
		RefConversationID: input.RefConversationID,
		RefReportID:       input.RefReportID,
	}
	if input.ActionIDs != nil {
		ids := *input.ActionIDs
		if ids == nil {
			ids = []string{}
		}
		upd.ActionIDs = ids
	}

	draft, err := h.vault.Drafts.Put(ctx, scope, upd)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(draft)
}

// HandleDraftClear handles the draft_clear tool call.
func (h *Handlers) HandleDraftClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ScopeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	scope, err := scopeFor(input.ProjectID, input.ConversationID)
	if err != nil {
		return errorResult(err), nil
	}

	if err := h.vault.Drafts.ClearContent(ctx, scope); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"scope": scope.Key(), "cleared": true})
}

// HandleDraftDelete handles the draft_delete tool call.
func (h *Handlers) HandleDraftDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ScopeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	scope, err := scopeFor(input.ProjectID, input.ConversationID)
	if err != nil {
		return errorResult(err), nil
	}

	if err := h.vault.Drafts.Delete(ctx, scope); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"scope": scope.Key(), "deleted": true})
}

// HandleDraftList handles the draft_list tool call.
func (h *Handlers) HandleDraftList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DraftListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.ProjectID) == "" {
		return errorResult(errors.NewInvalidRequest("project_id is required")), nil
	}

	drafts, err := h.vault.Drafts.ForProject(ctx, input.ProjectID)
	if err != nil {
		return errorResult(err), nil
	}

	views := make([]draftView, len(drafts))
	for i, d := range drafts {
		views[i] = draftView{
			Scope:   d.Scope().Key(),
			Preview: record.Preview(d.Content),
			Draft:   d,
		}
	}
	return successResult(map[string]any{"drafts": views, "count": len(views)})
}

// HandleDraftSweep handles the draft_sweep tool call.
func (h *Handlers) HandleDraftSweep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DraftSweepRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	maxAge := h.cfg.DraftMaxAge()
	if input.MaxAgeHours != nil {
		if *input.MaxAgeHours <= 0 {
			return errorResult(errors.NewInvalidRequest("max_age_hours must be positive")), nil
		}
		maxAge = hoursToDuration(*input.MaxAgeHours)
	}

	removed, err := h.vault.Drafts.SweepOrphans(ctx, maxAge)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"removed": removed})
}

// HandleSavedCreate handles the saved_create tool call.
func (h *Handlers) HandleSavedCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SavedCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.ProjectID) == "" {
		return errorResult(errors.NewInvalidRequest("project_id is required")), nil
	}

	nd, err := h.vault.Named.Create(ctx, input.Text, input.ProjectID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(nd)
}

// HandleSavedList handles the saved_list tool call.
func (h *Handlers) HandleSavedList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DraftListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.ProjectID) == "" {
		return errorResult(errors.NewInvalidRequest("project_id is required")), nil
	}

	list, err := h.vault.Named.ForProject(ctx, input.ProjectID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"named_drafts": list, "count": len(list)})
}

// HandleSavedUpdate handles the saved_update tool call.
func (h *Handlers) HandleSavedUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SavedUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	nd, err := h.vault.Named.UpdateText(ctx, input.ID, input.Text)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(nd)
}

// HandleSavedDelete handles the saved_delete tool call.
func (h *Handlers) HandleSavedDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	if err := h.vault.Named.Delete(ctx, input.ID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"id": input.ID, "deleted": true})
}

// HandlePromptPin handles the prompt_pin tool call.
func (h *Handlers) HandlePromptPin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PromptPinRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	prompt, err := h.vault.Prompts.Pin(ctx, input.Title, input.Text)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(prompt)
}

// HandlePromptList handles the prompt_list tool call.
func (h *Handlers) HandlePromptList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompts, err := h.vault.Prompts.List(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"prompts": prompts, "count": len(prompts)})
}

// HandlePromptUse handles the prompt_use tool call.
func (h *Handlers) HandlePromptUse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	prompt, err := h.vault.Prompts.MarkUsed(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(prompt)
}

// HandlePromptDelete handles the prompt_delete tool call.
func (h *Handlers) HandlePromptDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	if err := h.vault.Prompts.Delete(ctx, input.ID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"id": input.ID, "deleted": true})
}

// HandlePublishBegin handles the publish_begin tool call.
func (h *Handlers) HandlePublishBegin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ScopeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	scope, err := scopeFor(input.ProjectID, input.ConversationID)
	if err != nil {
		return errorResult(err), nil
	}

	snap, err := h.vault.BeginPublish(ctx, scope)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(snap)
}

// HandlePublishConfirm handles the publish_confirm tool call.
func (h *Handlers) HandlePublishConfirm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PublishConfirmRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.PublishID == "" {
		return errorResult(errors.NewInvalidRequest("publish_id is required")), nil
	}
	if input.EventID == "" {
		return errorResult(errors.NewInvalidRequest("event_id is required")), nil
	}

	snap, err := h.vault.Snapshots.Confirm(ctx, input.PublishID, input.EventID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(snap)
}

// HandlePublishList handles the publish_list tool call.
func (h *Handlers) HandlePublishList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PublishListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.IncludeConfirmed {
		all, err := h.vault.Snapshots.All(ctx)
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(map[string]any{"snapshots": all, "count": len(all)})
	}

	pending, err := h.vault.Snapshots.Pending(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"snapshots": pending, "count": len(pending)})
}

// HandlePublishCleanup handles the publish_cleanup tool call.
func (h *Handlers) HandlePublishCleanup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PublishCleanupRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	grace := h.cfg.SnapshotGrace()
	if input.GraceHours != nil {
		if *input.GraceHours < 0 {
			return errorResult(errors.NewInvalidRequest("grace_hours must not be negative")), nil
		}
		grace = hoursToDuration(*input.GraceHours)
	}

	removed, err := h.vault.Snapshots.CleanupConfirmed(ctx, grace)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"removed": removed})
}

// HandleVaultStatus handles the vault_status tool call.
func (h *Handlers) HandleVaultStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.vault.Status(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(status)
}

// HandleVaultFlush handles the vault_flush tool call.
func (h *Handlers) HandleVaultFlush(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.vault.SaveAllNow(ctx); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"flushed": true})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if inkErr, ok := err.(*errors.InkError); ok {
		errorObj := map[string]any{
			"code":    inkErr.Code,
			"message": inkErr.Message,
			"status":  inkErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths
		if inkErr.Code != errors.ErrInternal && inkErr.Details != nil {
			errorObj["details"] = inkErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
