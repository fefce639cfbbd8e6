package web

import (
	"context"
	"net/http"
	"sort"

	"github.com/tenex-chat/inkwell/internal/content"
	"github.com/tenex-chat/inkwell/internal/corelink"
	"github.com/tenex-chat/inkwell/internal/errors"
	"github.com/tenex-chat/inkwell/internal/record"
)

// Handlers contains HTTP route handlers for the read-only viewer.
type Handlers struct {
	vault    *content.Vault
	resolver corelink.Resolver
	renderer *Renderer
}

// HandleDrafts handles GET /drafts: list message drafts, optionally
// filtered to one project.
func (h *Handlers) HandleDrafts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project := r.URL.Query().Get("project")

	var drafts []record.Draft
	var err error
	if project != "" {
		drafts, err = h.vault.Drafts.ForProject(ctx, project)
	} else {
		var all record.DraftMap
		all, err = h.vault.Drafts.All(ctx)
		for _, d := range all {
			drafts = append(drafts, d)
		}
		sort.Slice(drafts, func(i, j int) bool {
			if drafts[i].LastEdited != drafts[j].LastEdited {
				return drafts[i].LastEdited > drafts[j].LastEdited
			}
			return drafts[i].Scope().Key() < drafts[j].Scope().Key()
		})
	}
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	rows := make([]DraftRow, len(drafts))
	for i, d := range drafts {
		rows[i] = DraftRow{
			Scope:        d.Scope().Key(),
			Preview:      record.Preview(d.Content),
			ProjectID:    d.ProjectID,
			Conversation: h.conversationLabel(ctx, d.ConversationID),
			Agent:        h.agentLabel(ctx, d.AgentPubkey),
			LastEdited:   d.LastEdited,
			IsNew:        d.IsNewConversation,
			HasContent:   d.HasContent(),
		}
	}

	h.renderer.renderPage(w, r, "drafts", DraftsPageData{
		PageData: PageData{
			Title:   "Drafts",
			Version: h.renderer.version,
			Nav:     "drafts",
		},
		Rows:    rows,
		Project: project,
	})
}

// HandleDraftDetail handles GET /drafts/{scope}: view one draft.
func (h *Handlers) HandleDraftDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope := r.PathValue("scope")
	if scope == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("draft scope is required"))
		return
	}

	all, err := h.vault.Drafts.All(ctx)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	draft, ok := all[scope]
	if !ok {
		h.renderer.renderError(w, r, errors.NewNotFound(scope))
		return
	}

	h.renderer.renderPage(w, r, "draft_detail", DraftDetailPageData{
		PageData: PageData{
			Title:   scope,
			Version: h.renderer.version,
			Nav:     "drafts",
		},
		Draft:        draft,
		Scope:        scope,
		RenderedHTML: renderMarkdown(draft.Content),
		Agent:        h.agentLabel(ctx, draft.AgentPubkey),
		Conversation: h.conversationLabel(ctx, draft.ConversationID),
	})
}

// HandleSaved handles GET /saved: list named drafts, optionally filtered
// to one project.
func (h *Handlers) HandleSaved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project := r.URL.Query().Get("project")

	var items record.NamedDraftList
	var err error
	if project != "" {
		items, err = h.vault.Named.ForProject(ctx, project)
	} else {
		items, err = h.vault.Named.All(ctx)
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].LastModified > items[j].LastModified
		})
	}
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "saved", SavedPageData{
		PageData: PageData{
			Title:   "Saved drafts",
			Version: h.renderer.version,
			Nav:     "saved",
		},
		Items:   items,
		Project: project,
	})
}

// HandleSavedDetail handles GET /saved/{id}: view one named draft.
func (h *Handlers) HandleSavedDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("saved draft ID is required"))
		return
	}

	item, err := h.vault.Named.Get(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "saved_detail", SavedDetailPageData{
		PageData: PageData{
			Title:   item.Name,
			Version: h.renderer.version,
			Nav:     "saved",
		},
		Item:         item,
		RenderedHTML: renderMarkdown(item.Text),
	})
}

// HandlePrompts handles GET /prompts: list pinned prompts in display order.
func (h *Handlers) HandlePrompts(w http.ResponseWriter, r *http.Request) {
	items, err := h.vault.Prompts.List(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "prompts", PromptsPageData{
		PageData: PageData{
			Title:   "Pinned prompts",
			Version: h.renderer.version,
			Nav:     "prompts",
		},
		Items: items,
	})
}

// HandlePublishes handles GET /publishes: list publish snapshots, pending
// only unless include_confirmed is set.
func (h *Handlers) HandlePublishes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	includeConfirmed := parseBoolParam(r, "include_confirmed")

	var snaps []record.PublishSnapshot
	var err error
	if includeConfirmed {
		var all record.SnapshotMap
		all, err = h.vault.Snapshots.All(ctx)
		for _, s := range all {
			snaps = append(snaps, s)
		}
		sort.Slice(snaps, func(i, j int) bool {
			if snaps[i].SentAt != snaps[j].SentAt {
				return snaps[i].SentAt < snaps[j].SentAt
			}
			return snaps[i].PublishID < snaps[j].PublishID
		})
	} else {
		snaps, err = h.vault.Snapshots.Pending(ctx)
	}
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	rows := make([]SnapshotRow, len(snaps))
	for i, s := range snaps {
		rows[i] = SnapshotRow{
			PublishSnapshot: s,
			Conversation:    h.conversationLabel(ctx, s.ConversationID),
			Preview:         record.Preview(s.Content),
		}
	}

	h.renderer.renderPage(w, r, "publishes", PublishesPageData{
		PageData: PageData{
			Title:   "Publish snapshots",
			Version: h.renderer.version,
			Nav:     "publishes",
		},
		Rows:             rows,
		IncludeConfirmed: includeConfirmed,
	})
}

// HandleStatus handles GET /status: vault health as JSON.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.vault.Status(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, status)
}

// agentLabel resolves an agent pubkey to a display name, falling back to a
// truncated pubkey.
func (h *Handlers) agentLabel(ctx context.Context, pubkey string) string {
	if pubkey == "" {
		return ""
	}
	if name, ok := h.resolver.DisplayName(ctx, pubkey); ok {
		return name
	}
	return shortID(pubkey)
}

// conversationLabel resolves a conversation id to its title, falling back to
// a truncated id.
func (h *Handlers) conversationLabel(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	if title, ok := h.resolver.ConversationTitle(ctx, id); ok {
		return title
	}
	return shortID(id)
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
