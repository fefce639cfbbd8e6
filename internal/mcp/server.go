package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tenex-chat/inkwell/internal/config"
	"github.com/tenex-chat/inkwell/internal/content"
)

// KnownFamilies lists all valid record family prefixes.
var KnownFamilies = []string{"draft", "saved", "prompt", "publish", "vault"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"draft_get": {
		def:     draftGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftGet },
	},
	"draft_put": {
		def:     draftPutToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftPut },
	},
	"draft_clear": {
		def:     draftClearToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftClear },
	},
	"draft_delete": {
		def:     draftDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftDelete },
	},
	"draft_list": {
		def:     draftListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftList },
	},
	"draft_sweep": {
		def:     draftSweepToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDraftSweep },
	},
	"saved_create": {
		def:     savedCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSavedCreate },
	},
	"saved_list": {
		def:     savedListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSavedList },
	},
	"saved_update": {
		def:     savedUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSavedUpdate },
	},
	"saved_delete": {
		def:     savedDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSavedDelete },
	},
	"prompt_pin": {
		def:     promptPinToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptPin },
	},
	"prompt_list": {
		def:     promptListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptList },
	},
	"prompt_use": {
		def:     promptUseToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptUse },
	},
	"prompt_delete": {
		def:     promptDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePromptDelete },
	},
	"publish_begin": {
		def:     publishBeginToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePublishBegin },
	},
	"publish_confirm": {
		def:     publishConfirmToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePublishConfirm },
	},
	"publish_list": {
		def:     publishListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePublishList },
	},
	"publish_cleanup": {
		def:     publishCleanupToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePublishCleanup },
	},
	"vault_status": {
		def:     vaultStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleVaultStatus },
	},
	"vault_flush": {
		def:     vaultFlushToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleVaultFlush },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledFamilies returns a list of unknown family names from the given list.
func ValidateDisabledFamilies(names []string) []string {
	known := make(map[string]bool, len(KnownFamilies))
	for _, f := range KnownFamilies {
		known[f] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// FamilyForTool extracts the family name from a tool name.
// Tool names follow the pattern "family_action" (e.g., "draft_put" → "draft").
func FamilyForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandFamiliesToTools returns all tool names belonging to the given families.
func ExpandFamiliesToTools(families []string) []string {
	if len(families) == 0 {
		return nil
	}

	familySet := make(map[string]bool, len(families))
	for _, f := range families {
		familySet[f] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if familySet[FamilyForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with inkwell tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledFamilies
// are excluded from registration.
func NewServer(vault *content.Vault, cfg config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"inkwell",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(vault, cfg)

	// Build set of disabled tools: first expand families, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandFamiliesToTools(cfg.DisabledFamilies) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	// Register tools (skip disabled)
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(vault *content.Vault, cfg config.Config, version string) error {
	s := NewServer(vault, cfg, version)
	return server.ServeStdio(s)
}
