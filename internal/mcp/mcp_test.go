package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tenex-chat/inkwell/internal/config"
	"github.com/tenex-chat/inkwell/internal/content"
	"github.com/tenex-chat/inkwell/internal/errors"
	"github.com/tenex-chat/inkwell/internal/logging"
)

// testSetup creates an opened vault on a temporary directory for testing.
func testSetup(t *testing.T) (*content.Vault, config.Config, func()) {
	t.Helper()

	cfg := *config.DefaultConfig()
	cfg.DebounceMs = 20
	cfg.SweepIntervalMinutes = -1 // no background sweeper in tests

	vault := content.New(t.TempDir(), cfg, logging.Nop())
	if err := vault.Open(context.Background()); err != nil {
		t.Fatalf("failed to open vault: %v", err)
	}

	cleanup := func() {
		vault.Close()
	}

	return vault, cfg, cleanup
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// TestHandleDraftGet tests the draft_get handler.
func TestHandleDraftGet(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name:      "get creates new-conversation draft",
			args:      map[string]any{"project_id": "p1"},
			wantError: false,
		},
		{
			name:      "get creates reply draft",
			args:      map[string]any{"project_id": "p1", "conversation_id": "c1"},
			wantError: false,
		},
		{
			name:      "missing project_id",
			args:      map[string]any{"conversation_id": "c1"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "whitespace project_id",
			args:      map[string]any{"project_id": "   "},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := makeRequest(tt.args)
			result, err := h.HandleDraftGet(ctx, req)

			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else {
				if result.IsError {
					t.Errorf("expected success, got error: %v", extractErrorMessage(result))
				}
			}
		})
	}
}

// TestHandleDraftGet_ReturnsExistingDraft tests that a second get sees the
// content stored by a put.
func TestHandleDraftGet_ReturnsExistingDraft(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	putReq := makeRequest(map[string]any{
		"project_id": "p1",
		"content":    "half-written reply",
	})
	if _, err := h.HandleDraftPut(ctx, putReq); err != nil {
		t.Fatalf("setup put failed: %v", err)
	}

	getReq := makeRequest(map[string]any{"project_id": "p1"})
	result, err := h.HandleDraftGet(ctx, getReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	output := parseOutput(t, result)
	if output["content"] != "half-written reply" {
		t.Errorf("content = %v, want %q", output["content"], "half-written reply")
	}
	if output["project_id"] != "p1" {
		t.Errorf("project_id = %v, want p1", output["project_id"])
	}
	if output["is_new_conversation"] != true {
		t.Errorf("is_new_conversation = %v, want true", output["is_new_conversation"])
	}
}

// TestHandleDraftPut tests the draft_put handler.
func TestHandleDraftPut(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "put content",
			args: map[string]any{
				"project_id": "p1",
				"content":    "Hello",
			},
			wantError: false,
		},
		{
			name: "put all fields",
			args: map[string]any{
				"project_id":          "p1",
				"conversation_id":     "c1",
				"content":             "Reply body",
				"agent_pubkey":        "npub1agent",
				"ref_conversation_id": "conv-ref",
				"ref_report_id":       "report-ref",
				"action_ids":          []any{"a2", "a1", "a2"},
			},
			wantError: false,
		},
		{
			name: "missing project_id",
			args: map[string]any{
				"content": "orphaned",
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := makeRequest(tt.args)
			result, err := h.HandleDraftPut(ctx, req)

			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else {
				if result.IsError {
					t.Errorf("expected success, got error: %v", extractErrorMessage(result))
				}
			}
		})
	}
}

// TestHandleDraftPut_PartialUpdate tests that omitted fields keep their
// values and action_ids are normalized.
func TestHandleDraftPut_PartialUpdate(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	// Seed content, agent, and actions
	seedReq := makeRequest(map[string]any{
		"project_id":   "p1",
		"content":      "keep me",
		"agent_pubkey": "npub1agent",
		"action_ids":   []any{"b", "a", "b"},
	})
	result, err := h.HandleDraftPut(ctx, seedReq)
	if err != nil {
		t.Fatalf("setup put failed: %v", err)
	}
	output := parseOutput(t, result)
	ids, _ := output["action_ids"].([]any)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("action_ids = %v, want [a b]", output["action_ids"])
	}

	// Update only the title; everything else must survive
	titleReq := makeRequest(map[string]any{
		"project_id": "p1",
		"title":      "Custom title",
	})
	result, err = h.HandleDraftPut(ctx, titleReq)
	if err != nil {
		t.Fatalf("title put failed: %v", err)
	}
	output = parseOutput(t, result)
	if output["content"] != "keep me" {
		t.Errorf("content = %v, want %q", output["content"], "keep me")
	}
	if output["agent_pubkey"] != "npub1agent" {
		t.Errorf("agent_pubkey = %v, want npub1agent", output["agent_pubkey"])
	}
	if output["title"] != "Custom title" {
		t.Errorf("title = %v, want %q", output["title"], "Custom title")
	}

	// An explicit empty list clears the action set
	clearReq := makeRequest(map[string]any{
		"project_id": "p1",
		"action_ids": []any{},
	})
	result, err = h.HandleDraftPut(ctx, clearReq)
	if err != nil {
		t.Fatalf("clear put failed: %v", err)
	}
	output = parseOutput(t, result)
	if ids, ok := output["action_ids"].([]any); ok && len(ids) > 0 {
		t.Errorf("action_ids = %v, want empty", output["action_ids"])
	}
}

// TestHandleDraftClear tests the draft_clear handler.
func TestHandleDraftClear(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	seedReq := makeRequest(map[string]any{
		"project_id":   "p1",
		"content":      "about to send",
		"agent_pubkey": "npub1agent",
		"action_ids":   []any{"a1"},
	})
	if _, err := h.HandleDraftPut(ctx, seedReq); err != nil {
		t.Fatalf("setup put failed: %v", err)
	}

	clearReq := makeRequest(map[string]any{"project_id": "p1"})
	result, err := h.HandleDraftClear(ctx, clearReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if output["cleared"] != true {
		t.Errorf("cleared = %v, want true", output["cleared"])
	}
	if output["scope"] != "new-p1" {
		t.Errorf("scope = %v, want new-p1", output["scope"])
	}

	// Content gone, agent selection and actions survive for the next message
	getReq := makeRequest(map[string]any{"project_id": "p1"})
	result, err = h.HandleDraftGet(ctx, getReq)
	if err != nil {
		t.Fatalf("get after clear failed: %v", err)
	}
	output = parseOutput(t, result)
	if output["content"] != "" {
		t.Errorf("content = %v, want empty after clear", output["content"])
	}
	if output["agent_pubkey"] != "npub1agent" {
		t.Errorf("agent_pubkey = %v, want npub1agent after clear", output["agent_pubkey"])
	}
	ids, _ := output["action_ids"].([]any)
	if len(ids) != 1 || ids[0] != "a1" {
		t.Errorf("action_ids = %v, want [a1] after clear", output["action_ids"])
	}
}

// TestHandleDraftDelete tests the draft_delete handler.
func TestHandleDraftDelete(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	seedReq := makeRequest(map[string]any{
		"project_id": "p1",
		"content":    "ephemeral",
	})
	if _, err := h.HandleDraftPut(ctx, seedReq); err != nil {
		t.Fatalf("setup put failed: %v", err)
	}

	deleteReq := makeRequest(map[string]any{"project_id": "p1"})
	result, err := h.HandleDraftDelete(ctx, deleteReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if output["deleted"] != true {
		t.Errorf("deleted = %v, want true", output["deleted"])
	}

	listReq := makeRequest(map[string]any{"project_id": "p1"})
	result, err = h.HandleDraftList(ctx, listReq)
	if err != nil {
		t.Fatalf("list after delete failed: %v", err)
	}
	output = parseOutput(t, result)
	if count, _ := output["count"].(float64); count != 0 {
		t.Errorf("count = %v, want 0 after delete", output["count"])
	}

	// Deleting an absent scope is a no-op, not an error
	result, err = h.HandleDraftDelete(ctx, deleteReq)
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if result.IsError {
		t.Errorf("expected success for absent scope, got: %v", extractErrorMessage(result))
	}
}

// TestHandleDraftList tests the draft_list handler.
func TestHandleDraftList(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	seeds := []map[string]any{
		{"project_id": "p1", "content": "first line\nsecond line"},
		{"project_id": "p1", "conversation_id": "c1", "content": "a reply"},
		{"project_id": "p2", "content": "other project"},
	}
	for _, args := range seeds {
		if _, err := h.HandleDraftPut(ctx, makeRequest(args)); err != nil {
			t.Fatalf("setup put failed: %v", err)
		}
	}

	listReq := makeRequest(map[string]any{"project_id": "p1"})
	result, err := h.HandleDraftList(ctx, listReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)

	if count, _ := output["count"].(float64); count != 2 {
		t.Errorf("count = %v, want 2", output["count"])
	}

	drafts, _ := output["drafts"].([]any)
	if len(drafts) != 2 {
		t.Fatalf("got %d drafts, want 2", len(drafts))
	}

	scopes := make(map[string]map[string]any, len(drafts))
	for _, d := range drafts {
		view := d.(map[string]any)
		scope, _ := view["scope"].(string)
		scopes[scope] = view
	}
	if _, ok := scopes["new-p1"]; !ok {
		t.Error("missing scope new-p1")
	}
	if _, ok := scopes["reply-p1-c1"]; !ok {
		t.Error("missing scope reply-p1-c1")
	}

	// Previews are single-line
	if view, ok := scopes["new-p1"]; ok {
		if preview, _ := view["preview"].(string); preview != "first line second line" {
			t.Errorf("preview = %q, want %q", preview, "first line second line")
		}
	}

	// Missing project_id is rejected
	badReq := makeRequest(map[string]any{})
	result, err = h.HandleDraftList(ctx, badReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error for missing project_id")
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

// TestHandleDraftSweep tests the draft_sweep handler.
func TestHandleDraftSweep(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	// One fresh empty draft; nothing is old enough to sweep
	if _, err := h.HandleDraftGet(ctx, makeRequest(map[string]any{"project_id": "p1"})); err != nil {
		t.Fatalf("setup get failed: %v", err)
	}

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name:      "default age",
			args:      map[string]any{},
			wantError: false,
		},
		{
			name:      "explicit age",
			args:      map[string]any{"max_age_hours": 1},
			wantError: false,
		},
		{
			name:      "zero age rejected",
			args:      map[string]any{"max_age_hours": 0},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "negative age rejected",
			args:      map[string]any{"max_age_hours": -3},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := makeRequest(tt.args)
			result, err := h.HandleDraftSweep(ctx, req)

			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
				return
			}

			output := parseOutput(t, result)
			if removed, _ := output["removed"].(float64); removed != 0 {
				t.Errorf("removed = %v, want 0 for fresh drafts", output["removed"])
			}
		})
	}
}

// TestHandleSavedCreate tests the saved_create handler.
func TestHandleSavedCreate(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantName  string
		wantError bool
		errorCode string
	}{
		{
			name: "name derives from first line",
			args: map[string]any{
				"text":       "Meeting notes\nDiscussed the rollout plan.",
				"project_id": "p1",
			},
			wantName: "Meeting notes",
		},
		{
			name: "empty text falls back to Untitled",
			args: map[string]any{
				"text":       "",
				"project_id": "p1",
			},
			wantName: "Untitled",
		},
		{
			name: "long first line truncates",
			args: map[string]any{
				"text":       strings.Repeat("x", 80),
				"project_id": "p1",
			},
			wantName: strings.Repeat("x", 50) + "...",
		},
		{
			name:      "missing project_id",
			args:      map[string]any{"text": "no home"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := makeRequest(tt.args)
			result, err := h.HandleSavedCreate(ctx, req)

			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
				return
			}

			output := parseOutput(t, result)
			if output["name"] != tt.wantName {
				t.Errorf("name = %v, want %q", output["name"], tt.wantName)
			}
			if id, _ := output["id"].(string); id == "" {
				t.Error("id should be assigned")
			}
		})
	}
}

// TestHandleSavedUpdate tests the saved_update handler.
func TestHandleSavedUpdate(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	createReq := makeRequest(map[string]any{
		"text":       "Original\nbody",
		"project_id": "p1",
	})
	result, err := h.HandleSavedCreate(ctx, createReq)
	if err != nil {
		t.Fatalf("setup create failed: %v", err)
	}
	created := parseOutput(t, result)
	id := created["id"].(string)

	// Update re-derives the name
	updateReq := makeRequest(map[string]any{
		"id":   id,
		"text": "Rewritten\nbody",
	})
	result, err = h.HandleSavedUpdate(ctx, updateReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if output["name"] != "Rewritten" {
		t.Errorf("name = %v, want Rewritten", output["name"])
	}
	if output["text"] != "Rewritten\nbody" {
		t.Errorf("text = %v, want rewritten body", output["text"])
	}

	// Unknown id
	unknownReq := makeRequest(map[string]any{
		"id":   "no-such-id",
		"text": "whatever",
	})
	result, err = h.HandleSavedUpdate(ctx, unknownReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error for unknown id")
	}
	assertErrorCode(t, result, "NOT_FOUND")

	// Missing id
	badReq := makeRequest(map[string]any{"text": "no id"})
	result, err = h.HandleSavedUpdate(ctx, badReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

// TestHandleSavedDelete tests the saved_delete handler.
func TestHandleSavedDelete(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	createReq := makeRequest(map[string]any{
		"text":       "Disposable",
		"project_id": "p1",
	})
	result, err := h.HandleSavedCreate(ctx, createReq)
	if err != nil {
		t.Fatalf("setup create failed: %v", err)
	}
	id := parseOutput(t, result)["id"].(string)

	deleteReq := makeRequest(map[string]any{"id": id})
	result, err = h.HandleSavedDelete(ctx, deleteReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if output["deleted"] != true {
		t.Errorf("deleted = %v, want true", output["deleted"])
	}

	listReq := makeRequest(map[string]any{"project_id": "p1"})
	result, err = h.HandleSavedList(ctx, listReq)
	if err != nil {
		t.Fatalf("list after delete failed: %v", err)
	}
	output = parseOutput(t, result)
	if count, _ := output["count"].(float64); count != 0 {
		t.Errorf("count = %v, want 0 after delete", output["count"])
	}

	// Absent id is a no-op
	result, err = h.HandleSavedDelete(ctx, deleteReq)
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if result.IsError {
		t.Errorf("expected success for absent id, got: %v", extractErrorMessage(result))
	}
}

// TestHandleSavedList tests the saved_list handler.
func TestHandleSavedList(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	for _, args := range []map[string]any{
		{"text": "one", "project_id": "p1"},
		{"text": "two", "project_id": "p1"},
		{"text": "elsewhere", "project_id": "p2"},
	} {
		if _, err := h.HandleSavedCreate(ctx, makeRequest(args)); err != nil {
			t.Fatalf("setup create failed: %v", err)
		}
	}

	listReq := makeRequest(map[string]any{"project_id": "p1"})
	result, err := h.HandleSavedList(ctx, listReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if count, _ := output["count"].(float64); count != 2 {
		t.Errorf("count = %v, want 2", output["count"])
	}

	badReq := makeRequest(map[string]any{})
	result, err = h.HandleSavedList(ctx, badReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

// TestHandlePromptPin tests the prompt_pin handler.
func TestHandlePromptPin(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "pin valid prompt",
			args: map[string]any{
				"title": "Review checklist",
				"text":  "Check error paths and tests.",
			},
			wantError: false,
		},
		{
			name: "title and text are trimmed",
			args: map[string]any{
				"title": "  Padded  ",
				"text":  "  body  ",
			},
			wantError: false,
		},
		{
			name:      "empty title",
			args:      map[string]any{"title": "", "text": "body"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "whitespace text",
			args:      map[string]any{"title": "t", "text": "   "},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := makeRequest(tt.args)
			result, err := h.HandlePromptPin(ctx, req)

			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
				return
			}

			if result.IsError {
				t.Errorf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}
}

// TestHandlePromptPin_TrimsFields tests that pinned values come back trimmed.
func TestHandlePromptPin_TrimsFields(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	req := makeRequest(map[string]any{
		"title": "  Spaced title  ",
		"text":  "  spaced text  ",
	})
	result, err := h.HandlePromptPin(ctx, req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if output["title"] != "Spaced title" {
		t.Errorf("title = %v, want trimmed", output["title"])
	}
	if output["text"] != "spaced text" {
		t.Errorf("text = %v, want trimmed", output["text"])
	}
}

// TestHandlePromptUse tests the prompt_use handler.
func TestHandlePromptUse(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"alpha", "beta"} {
		req := makeRequest(map[string]any{"title": title, "text": "body"})
		result, err := h.HandlePromptPin(ctx, req)
		if err != nil {
			t.Fatalf("setup pin failed: %v", err)
		}
		ids = append(ids, parseOutput(t, result)["id"].(string))
	}

	useReq := makeRequest(map[string]any{"id": ids[1]})
	result, err := h.HandlePromptUse(ctx, useReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if used, _ := output["last_used_at"].(float64); used == 0 {
		t.Error("last_used_at should be stamped")
	}

	// The used prompt moves to the front of the list
	result, err = h.HandlePromptList(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	output = parseOutput(t, result)
	prompts, _ := output["prompts"].([]any)
	if len(prompts) != 2 {
		t.Fatalf("got %d prompts, want 2", len(prompts))
	}
	first := prompts[0].(map[string]any)
	if first["id"] != ids[1] {
		t.Errorf("first prompt = %v, want the used one %s", first["id"], ids[1])
	}

	// Unknown id
	result, err = h.HandlePromptUse(ctx, makeRequest(map[string]any{"id": "nope"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "NOT_FOUND")
}

// TestHandlePromptDelete tests the prompt_delete handler.
func TestHandlePromptDelete(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	pinReq := makeRequest(map[string]any{"title": "gone soon", "text": "body"})
	result, err := h.HandlePromptPin(ctx, pinReq)
	if err != nil {
		t.Fatalf("setup pin failed: %v", err)
	}
	id := parseOutput(t, result)["id"].(string)

	deleteReq := makeRequest(map[string]any{"id": id})
	result, err = h.HandlePromptDelete(ctx, deleteReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if parseOutput(t, result)["deleted"] != true {
		t.Error("deleted should be true")
	}

	result, err = h.HandlePromptList(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if count, _ := parseOutput(t, result)["count"].(float64); count != 0 {
		t.Errorf("count = %v, want 0 after delete", count)
	}

	// Absent id is a no-op
	result, err = h.HandlePromptDelete(ctx, deleteReq)
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if result.IsError {
		t.Errorf("expected success for absent id, got: %v", extractErrorMessage(result))
	}
}

// TestHandlePublishBegin tests the publish_begin handler.
func TestHandlePublishBegin(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	// No draft at all
	beginReq := makeRequest(map[string]any{"project_id": "p1", "conversation_id": "c1"})
	result, err := h.HandlePublishBegin(ctx, beginReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error for scope without content")
	}
	assertErrorCode(t, result, "INVALID_REQUEST")

	// Seed a reply draft with content and agent selection
	putReq := makeRequest(map[string]any{
		"project_id":      "p1",
		"conversation_id": "c1",
		"content":         "ship it",
		"agent_pubkey":    "npub1agent",
	})
	if _, err := h.HandleDraftPut(ctx, putReq); err != nil {
		t.Fatalf("setup put failed: %v", err)
	}

	result, err = h.HandlePublishBegin(ctx, beginReq)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	snap := parseOutput(t, result)

	publishID, _ := snap["publish_id"].(string)
	if !strings.HasPrefix(publishID, "pub-") {
		t.Errorf("publish_id = %q, want pub- prefix", publishID)
	}
	if snap["content"] != "ship it" {
		t.Errorf("content = %v, want %q", snap["content"], "ship it")
	}
	if snap["conversation_id"] != "c1" {
		t.Errorf("conversation_id = %v, want c1", snap["conversation_id"])
	}
	if sentAt, _ := snap["sent_at"].(float64); sentAt == 0 {
		t.Error("sent_at should be stamped")
	}

	// The draft is cleared but keeps its agent selection
	getReq := makeRequest(map[string]any{"project_id": "p1", "conversation_id": "c1"})
	result, err = h.HandleDraftGet(ctx, getReq)
	if err != nil {
		t.Fatalf("get after begin failed: %v", err)
	}
	draft := parseOutput(t, result)
	if draft["content"] != "" {
		t.Errorf("content = %v, want empty after publish", draft["content"])
	}
	if draft["agent_pubkey"] != "npub1agent" {
		t.Errorf("agent_pubkey = %v, want npub1agent after publish", draft["agent_pubkey"])
	}
}

// TestHandlePublishConfirm tests the publish_confirm handler.
func TestHandlePublishConfirm(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		errorCode string
	}{
		{
			name:      "missing publish_id",
			args:      map[string]any{"event_id": "ev-1"},
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "missing event_id",
			args:      map[string]any{"publish_id": "pub-x"},
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "unknown publish_id",
			args:      map[string]any{"publish_id": "pub-x", "event_id": "ev-1"},
			errorCode: "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandlePublishConfirm(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if !result.IsError {
				t.Fatal("expected error result")
			}
			assertErrorCode(t, result, tt.errorCode)
		})
	}
}

// TestHandlePublishConfirm_Flow tests a full begin/confirm/list cycle.
func TestHandlePublishConfirm_Flow(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	putReq := makeRequest(map[string]any{
		"project_id":      "p1",
		"conversation_id": "c1",
		"content":         "over the wire",
	})
	if _, err := h.HandleDraftPut(ctx, putReq); err != nil {
		t.Fatalf("setup put failed: %v", err)
	}

	beginReq := makeRequest(map[string]any{"project_id": "p1", "conversation_id": "c1"})
	result, err := h.HandlePublishBegin(ctx, beginReq)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	publishID := parseOutput(t, result)["publish_id"].(string)

	// Pending until confirmed
	result, err = h.HandlePublishList(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if count, _ := parseOutput(t, result)["count"].(float64); count != 1 {
		t.Errorf("pending count = %v, want 1", count)
	}

	confirmReq := makeRequest(map[string]any{"publish_id": publishID, "event_id": "ev-1"})
	result, err = h.HandlePublishConfirm(ctx, confirmReq)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	confirmed := parseOutput(t, result)
	if confirmed["published_event_id"] != "ev-1" {
		t.Errorf("published_event_id = %v, want ev-1", confirmed["published_event_id"])
	}
	if at, _ := confirmed["published_at"].(float64); at == 0 {
		t.Error("published_at should be stamped")
	}

	// Confirmed snapshots drop out of the default list
	result, err = h.HandlePublishList(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if count, _ := parseOutput(t, result)["count"].(float64); count != 0 {
		t.Errorf("pending count = %v, want 0 after confirm", count)
	}

	result, err = h.HandlePublishList(ctx, makeRequest(map[string]any{"include_confirmed": true}))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if count, _ := parseOutput(t, result)["count"].(float64); count != 1 {
		t.Errorf("full count = %v, want 1", count)
	}
}

// TestHandlePublishCleanup tests the publish_cleanup handler.
func TestHandlePublishCleanup(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	// Negative grace is rejected
	result, err := h.HandlePublishCleanup(ctx, makeRequest(map[string]any{"grace_hours": -1}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error for negative grace")
	}
	assertErrorCode(t, result, "INVALID_REQUEST")

	// Default grace removes nothing fresh
	result, err = h.HandlePublishCleanup(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if removed, _ := parseOutput(t, result)["removed"].(float64); removed != 0 {
		t.Errorf("removed = %v, want 0", removed)
	}
}

// TestHandleVaultStatus tests the vault_status handler.
func TestHandleVaultStatus(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	result, err := h.HandleVaultStatus(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)

	if output["base_dir"] != vault.BaseDir() {
		t.Errorf("base_dir = %v, want %s", output["base_dir"], vault.BaseDir())
	}

	collections, _ := output["collections"].([]any)
	if len(collections) != 4 {
		t.Fatalf("got %d collections, want 4", len(collections))
	}
	for _, c := range collections {
		entry := c.(map[string]any)
		if entry["state"] != "ready" {
			t.Errorf("collection %v state = %v, want ready", entry["file"], entry["state"])
		}
	}
}

// TestHandleVaultFlush tests the vault_flush handler.
func TestHandleVaultFlush(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	putReq := makeRequest(map[string]any{"project_id": "p1", "content": "persist me"})
	if _, err := h.HandleDraftPut(ctx, putReq); err != nil {
		t.Fatalf("setup put failed: %v", err)
	}

	result, err := h.HandleVaultFlush(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if parseOutput(t, result)["flushed"] != true {
		t.Error("flushed should be true")
	}

	if _, err := os.Stat(filepath.Join(vault.BaseDir(), content.DraftsFile)); err != nil {
		t.Errorf("drafts file should exist after flush: %v", err)
	}
}

// TestErrorResultDetails tests that non-internal errors expose their details.
func TestErrorResultDetails(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(vault, cfg)
	ctx := context.Background()

	req := makeRequest(map[string]any{"id": "missing-id", "text": "x"})
	r, err := h.HandleSavedUpdate(ctx, req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !r.IsError {
		t.Fatal("expected error result")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj := payload["error"].(map[string]any)

	if errObj["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

func TestServerRegistration(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	s := NewServer(vault, cfg, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"draft_get",
		"draft_put",
		"draft_clear",
		"draft_delete",
		"draft_list",
		"draft_sweep",
		"saved_create",
		"saved_list",
		"saved_update",
		"saved_delete",
		"prompt_pin",
		"prompt_list",
		"prompt_use",
		"prompt_delete",
		"publish_begin",
		"publish_confirm",
		"publish_list",
		"publish_cleanup",
		"vault_status",
		"vault_flush",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}

	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = []string{"draft_sweep", "publish_cleanup", "vault_flush"}
	s := NewServer(vault, cfg, "test")
	tools := s.ListTools()

	// Should have 17 tools (20 - 3 disabled)
	if len(tools) != 17 {
		t.Errorf("registered tool count = %d, want 17", len(tools))
	}

	// Disabled tools should not be registered
	for _, name := range []string{"draft_sweep", "publish_cleanup", "vault_flush"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}

	// Core tools should still be registered
	for _, name := range []string{"draft_get", "draft_put", "publish_begin", "vault_status"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("core tool %q should be registered", name)
		}
	}
}

func TestServerRegistration_WithDisabledFamilies(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledFamilies = []string{"draft"}
	s := NewServer(vault, cfg, "test")
	tools := s.ListTools()

	// Should have 14 tools (20 - 6 draft tools)
	if len(tools) != 14 {
		t.Errorf("registered tool count = %d, want 14", len(tools))
	}

	for name := range tools {
		if strings.HasPrefix(name, "draft_") {
			t.Errorf("draft tool %q should not be registered", name)
		}
	}

	for _, name := range []string{"saved_create", "prompt_pin", "publish_begin", "vault_status"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %q should be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	vault, cfg, cleanup := testSetup(t)
	defer cleanup()

	// Disable all tools
	cfg.DisabledTools = AllToolNames()
	s := NewServer(vault, cfg, "test")
	tools := s.ListTools()

	if len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{
			name:    "all valid",
			input:   []string{"draft_sweep", "publish_cleanup"},
			wantLen: 0,
		},
		{
			name:    "one unknown",
			input:   []string{"draft_sweep", "fake_tool"},
			wantLen: 1,
		},
		{
			name:    "all unknown",
			input:   []string{"foo", "bar", "baz"},
			wantLen: 3,
		},
		{
			name:    "empty list",
			input:   []string{},
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestValidateDisabledFamilies(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{
			name:    "all valid",
			input:   []string{"draft", "vault"},
			wantLen: 0,
		},
		{
			name:    "one unknown",
			input:   []string{"draft", "capsule"},
			wantLen: 1,
		},
		{
			name:    "empty list",
			input:   []string{},
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledFamilies(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledFamilies() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestFamilyForTool(t *testing.T) {
	tests := []struct {
		tool string
		want string
	}{
		{"draft_put", "draft"},
		{"saved_create", "saved"},
		{"publish_cleanup", "publish"},
		{"vault_status", "vault"},
		{"nounderscore", ""},
	}

	for _, tt := range tests {
		if got := FamilyForTool(tt.tool); got != tt.want {
			t.Errorf("FamilyForTool(%q) = %q, want %q", tt.tool, got, tt.want)
		}
	}
}

func TestExpandFamiliesToTools(t *testing.T) {
	tests := []struct {
		name     string
		families []string
		wantLen  int
	}{
		{"draft family", []string{"draft"}, 6},
		{"vault family", []string{"vault"}, 2},
		{"two families", []string{"saved", "prompt"}, 8},
		{"unknown family", []string{"capsule"}, 0},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tools := ExpandFamiliesToTools(tt.families)
			if len(tools) != tt.wantLen {
				t.Errorf("ExpandFamiliesToTools(%v) returned %d tools, want %d", tt.families, len(tools), tt.wantLen)
			}
		})
	}
}

// Helper functions

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	code, ok := errorObj["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}

	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
