package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tenex-chat/inkwell/internal/config"
	"github.com/tenex-chat/inkwell/internal/content"
	"github.com/tenex-chat/inkwell/internal/corelink"
	"github.com/tenex-chat/inkwell/internal/errors"
	"github.com/tenex-chat/inkwell/internal/export"
	"github.com/tenex-chat/inkwell/internal/logging"
	"github.com/tenex-chat/inkwell/internal/record"
	"github.com/tenex-chat/inkwell/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(vault *content.Vault, cfg *config.Config, baseDir string, log logging.Logger) *cli.App {
	app := &cli.App{
		Name:    "inkwell",
		Usage:   "Local draft vault",
		Version: Version,
		Commands: []*cli.Command{
			draftCmd(vault, cfg),
			savedCmd(vault),
			promptCmd(vault),
			publishCmd(vault, cfg),
			vaultCmd(vault),
			exportCmd(vault, baseDir),
			importCmd(vault),
			webCmd(vault, cfg, log),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// scopeFromFlags validates the scope flags and builds the draft scope.
func scopeFromFlags(c *cli.Context) (record.DraftScope, error) {
	projectID := c.String("project")
	if strings.TrimSpace(projectID) == "" {
		return record.DraftScope{}, errors.NewInvalidRequest("project is required")
	}
	if conversationID := c.String("conversation"); conversationID != "" {
		return record.ReplyScope(projectID, conversationID), nil
	}
	return record.NewConversationScope(projectID), nil
}

// draftListItem is one row of draft list output: the record plus its scope
// key and a short preview.
type draftListItem struct {
	Scope   string `json:"scope"`
	Preview string `json:"preview"`
	record.Draft
}

// draftCmd creates the draft command group.
func draftCmd(vault *content.Vault, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "draft",
		Usage: "Work with per-conversation message drafts",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Get the draft for a scope, creating an empty one if absent",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project id"},
					&cli.StringFlag{Name: "conversation", Aliases: []string{"c"}, Usage: "Conversation id (omit for the new-conversation draft)"},
				},
				Action: func(c *cli.Context) error {
					scope, err := scopeFromFlags(c)
					if err != nil {
						return outputError(err)
					}
					draft, err := vault.Drafts.GetOrCreate(c.Context, scope)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(draft)
				},
			},
			{
				Name:  "put",
				Usage: "Update the draft for a scope (reads content from stdin when piped)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project id"},
					&cli.StringFlag{Name: "conversation", Aliases: []string{"c"}, Usage: "Conversation id"},
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Draft title"},
					&cli.StringFlag{Name: "agent", Aliases: []string{"a"}, Usage: "Selected agent pubkey"},
					&cli.StringFlag{Name: "ref-conversation", Usage: "Referenced conversation id"},
					&cli.StringFlag{Name: "ref-report", Usage: "Referenced report id"},
					&cli.StringFlag{Name: "actions", Usage: "Comma-separated action ids (empty clears)"},
				},
				Action: func(c *cli.Context) error {
					scope, err := scopeFromFlags(c)
					if err != nil {
						return outputError(err)
					}

					var upd content.DraftUpdate
					if stdinHasData() {
						text, err := readStdin()
						if err != nil {
							return outputError(errors.NewInternal(err))
						}
						if text != "" {
							upd.Content = &text
						}
					}
					if c.IsSet("title") {
						title := c.String("title")
						upd.Title = &title
					}
					if c.IsSet("agent") {
						agent := c.String("agent")
						upd.AgentPubkey = &agent
					}
					if c.IsSet("ref-conversation") {
						ref := c.String("ref-conversation")
						upd.RefConversationID = &ref
					}
					if c.IsSet("ref-report") {
						ref := c.String("ref-report")
						upd.RefReportID = &ref
					}
					if c.IsSet("actions") {
						ids := parseCSV(c.String("actions"))
						if ids == nil {
							ids = []string{}
						}
						upd.ActionIDs = ids
					}

					draft, err := vault.Drafts.Put(c.Context, scope, upd)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(draft)
				},
			},
			{
				Name:  "clear",
				Usage: "Clear a draft's content after a send, keeping agent and actions",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project id"},
					&cli.StringFlag{Name: "conversation", Aliases: []string{"c"}, Usage: "Conversation id"},
				},
				Action: func(c *cli.Context) error {
					scope, err := scopeFromFlags(c)
					if err != nil {
						return outputError(err)
					}
					if err := vault.Drafts.ClearContent(c.Context, scope); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"scope": scope.Key(), "cleared": true})
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a draft record entirely",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project id"},
					&cli.StringFlag{Name: "conversation", Aliases: []string{"c"}, Usage: "Conversation id"},
				},
				Action: func(c *cli.Context) error {
					scope, err := scopeFromFlags(c)
					if err != nil {
						return outputError(err)
					}
					if err := vault.Drafts.Delete(c.Context, scope); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"scope": scope.Key(), "deleted": true})
				},
			},
			{
				Name:  "list",
				Usage: "List drafts for a project",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project id"},
				},
				Action: func(c *cli.Context) error {
					projectID := c.String("project")
					if strings.TrimSpace(projectID) == "" {
						return outputError(errors.NewInvalidRequest("project is required"))
					}
					drafts, err := vault.Drafts.ForProject(c.Context, projectID)
					if err != nil {
						return outputError(err)
					}
					views := make([]draftListItem, len(drafts))
					for i, d := range drafts {
						views[i] = draftListItem{
							Scope:   d.Scope().Key(),
							Preview: record.Preview(d.Content),
							Draft:   d,
						}
					}
					return outputJSON(map[string]any{"drafts": views, "count": len(views)})
				},
			},
			{
				Name:  "sweep",
				Usage: "Remove content-less drafts older than the age threshold",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "max-age-hours", Usage: "Age threshold in hours (default: configured value)"},
				},
				Action: func(c *cli.Context) error {
					maxAge := cfg.DraftMaxAge()
					if c.IsSet("max-age-hours") {
						hours := c.Int("max-age-hours")
						if hours <= 0 {
							return outputError(errors.NewInvalidRequest("max-age-hours must be positive"))
						}
						maxAge = time.Duration(hours) * time.Hour
					}
					removed, err := vault.Drafts.SweepOrphans(c.Context, maxAge)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"removed": removed})
				},
			},
		},
	}
}

// savedCmd creates the saved command group.
func savedCmd(vault *content.Vault) *cli.Command {
	return &cli.Command{
		Name:  "saved",
		Usage: "Work with named saved drafts",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Save a new named draft (reads text from stdin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project id"},
				},
				Action: func(c *cli.Context) error {
					projectID := c.String("project")
					if strings.TrimSpace(projectID) == "" {
						return outputError(errors.NewInvalidRequest("project is required"))
					}
					if !stdinHasData() {
						return outputError(errors.NewInvalidRequest("text must be piped via stdin"))
					}
					text, err := readStdin()
					if err != nil {
						return outputError(errors.NewInternal(err))
					}
					nd, err := vault.Named.Create(c.Context, text, projectID)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(nd)
				},
			},
			{
				Name:  "list",
				Usage: "List saved drafts, optionally filtered by project",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project id (omit for all projects)"},
				},
				Action: func(c *cli.Context) error {
					var (
						list record.NamedDraftList
						err  error
					)
					if projectID := c.String("project"); projectID != "" {
						list, err = vault.Named.ForProject(c.Context, projectID)
					} else {
						list, err = vault.Named.All(c.Context)
					}
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"named_drafts": list, "count": len(list)})
				},
			},
			{
				Name:      "update",
				Usage:     "Replace a saved draft's text (reads text from stdin)",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return outputError(errors.NewInvalidRequest("id is required"))
					}
					if !stdinHasData() {
						return outputError(errors.NewInvalidRequest("text must be piped via stdin"))
					}
					text, err := readStdin()
					if err != nil {
						return outputError(errors.NewInternal(err))
					}
					nd, err := vault.Named.UpdateText(c.Context, id, text)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(nd)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a saved draft",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return outputError(errors.NewInvalidRequest("id is required"))
					}
					if err := vault.Named.Delete(c.Context, id); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"id": id, "deleted": true})
				},
			},
		},
	}
}

// promptCmd creates the prompt command group.
func promptCmd(vault *content.Vault) *cli.Command {
	return &cli.Command{
		Name:  "prompt",
		Usage: "Work with pinned prompts",
		Subcommands: []*cli.Command{
			{
				Name:  "pin",
				Usage: "Pin a new prompt (reads text from stdin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Prompt title"},
				},
				Action: func(c *cli.Context) error {
					if !stdinHasData() {
						return outputError(errors.NewInvalidRequest("text must be piped via stdin"))
					}
					text, err := readStdin()
					if err != nil {
						return outputError(errors.NewInternal(err))
					}
					prompt, err := vault.Prompts.Pin(c.Context, c.String("title"), text)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(prompt)
				},
			},
			{
				Name:  "list",
				Usage: "List pinned prompts, most recently used first",
				Action: func(c *cli.Context) error {
					prompts, err := vault.Prompts.List(c.Context)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"prompts": prompts, "count": len(prompts)})
				},
			},
			{
				Name:      "use",
				Usage:     "Mark a prompt as used, moving it to the front of the list",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return outputError(errors.NewInvalidRequest("id is required"))
					}
					prompt, err := vault.Prompts.MarkUsed(c.Context, id)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(prompt)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a pinned prompt",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return outputError(errors.NewInvalidRequest("id is required"))
					}
					if err := vault.Prompts.Delete(c.Context, id); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"id": id, "deleted": true})
				},
			},
		},
	}
}

// publishCmd creates the publish command group.
func publishCmd(vault *content.Vault, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Work with publish snapshots",
		Subcommands: []*cli.Command{
			{
				Name:  "begin",
				Usage: "Snapshot a draft's content for sending and clear the draft",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project id"},
					&cli.StringFlag{Name: "conversation", Aliases: []string{"c"}, Usage: "Conversation id"},
				},
				Action: func(c *cli.Context) error {
					scope, err := scopeFromFlags(c)
					if err != nil {
						return outputError(err)
					}
					snap, err := vault.BeginPublish(c.Context, scope)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(snap)
				},
			},
			{
				Name:      "confirm",
				Usage:     "Confirm a publish with the event id it landed as",
				ArgsUsage: "<publish-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "event", Aliases: []string{"e"}, Usage: "Published event id"},
				},
				Action: func(c *cli.Context) error {
					publishID := c.Args().First()
					if publishID == "" {
						return outputError(errors.NewInvalidRequest("publish id is required"))
					}
					eventID := c.String("event")
					if eventID == "" {
						return outputError(errors.NewInvalidRequest("event is required"))
					}
					snap, err := vault.Snapshots.Confirm(c.Context, publishID, eventID)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(snap)
				},
			},
			{
				Name:  "list",
				Usage: "List publish snapshots (pending only by default)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "include-confirmed", Usage: "Include confirmed snapshots"},
				},
				Action: func(c *cli.Context) error {
					if c.Bool("include-confirmed") {
						all, err := vault.Snapshots.All(c.Context)
						if err != nil {
							return outputError(err)
						}
						return outputJSON(map[string]any{"snapshots": all, "count": len(all)})
					}
					pending, err := vault.Snapshots.Pending(c.Context)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"snapshots": pending, "count": len(pending)})
				},
			},
			{
				Name:  "cleanup",
				Usage: "Remove confirmed snapshots older than the grace period",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "grace-hours", Usage: "Grace period in hours (default: configured value)"},
				},
				Action: func(c *cli.Context) error {
					grace := cfg.SnapshotGrace()
					if c.IsSet("grace-hours") {
						hours := c.Int("grace-hours")
						if hours < 0 {
							return outputError(errors.NewInvalidRequest("grace-hours must not be negative"))
						}
						grace = time.Duration(hours) * time.Hour
					}
					removed, err := vault.Snapshots.CleanupConfirmed(c.Context, grace)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"removed": removed})
				},
			},
		},
	}
}

// vaultCmd creates the vault command group.
func vaultCmd(vault *content.Vault) *cli.Command {
	return &cli.Command{
		Name:  "vault",
		Usage: "Inspect and control the vault",
		Subcommands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Report the health of every collection",
				Action: func(c *cli.Context) error {
					status, err := vault.Status(c.Context)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(status)
				},
			},
			{
				Name:  "flush",
				Usage: "Write all pending changes to disk now",
				Action: func(c *cli.Context) error {
					if err := vault.SaveAllNow(c.Context); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"flushed": true})
				},
			},
		},
	}
}

// exportCmd creates the export command.
func exportCmd(vault *content.Vault, baseDir string) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all records to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "jsonl", Usage: "Export format: json|yaml|jsonl|markdown"},
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: <data dir>/exports/inkwell-<timestamp>)"},
		},
		Action: func(c *cli.Context) error {
			exporter, err := export.New(c.String("format"))
			if err != nil {
				return outputError(err)
			}
			archive, err := vault.BuildArchive(c.Context)
			if err != nil {
				return outputError(err)
			}
			path := c.String("path")
			if path == "" {
				path = export.DefaultPath(baseDir, exporter, time.Now())
			}
			if err := export.WriteFile(path, exporter, archive); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"path": path, "count": archive.Count()})
		},
	}
}

// importCmd creates the import command.
func importCmd(vault *content.Vault) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import records from a jsonl export, skipping ones that already exist",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
		},
		Action: func(c *cli.Context) error {
			archive, lineErrs, err := export.ReadJSONLFile(c.String("path"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			counts, err := vault.ImportArchive(c.Context, archive)
			if err != nil {
				return outputError(err)
			}

			if lineErrs == nil {
				lineErrs = []export.LineError{}
			}
			return outputJSON(map[string]any{
				"imported":    counts.Total(),
				"skipped":     archive.Count() - counts.Total(),
				"by_family":   counts,
				"line_errors": lineErrs,
			})
		},
	}
}

// webCmd creates the web command.
func webCmd(vault *content.Vault, cfg *config.Config, log logging.Logger) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the read-only web viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 8787, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			var resolver corelink.Resolver = corelink.Static{}
			if cfg.CoreDBPath != "" {
				db, err := corelink.Open(cfg.CoreDBPath, log)
				if err != nil {
					log.Warn("core database unavailable, names will not resolve", logging.Error(err))
				} else {
					defer db.Close()
					resolver = db
				}
			}

			srv := web.NewServer(vault, resolver, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if inkErr, ok := err.(*errors.InkError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", inkErr.Code, inkErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseCSV splits a comma-separated string into a slice of trimmed values.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
