package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tenex-chat/inkwell/internal/config"
	"github.com/tenex-chat/inkwell/internal/content"
	"github.com/tenex-chat/inkwell/internal/logging"
	"github.com/tenex-chat/inkwell/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"draft": true, "saved": true, "prompt": true, "publish": true,
	"vault": true, "export": true, "import": true, "web": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _       _                  _ _
  (_)_ __ | | ____      _____| | |
  | | '_ \| |/ /\ \ /\ / / _ \ | |
  | | | | |   <  \ V  V /  __/ | |
  |_|_| |_|_|\_\  \_/\_/ \___|_|_|

  Local draft vault

  Usage: inkwell <command> [options]
         inkwell --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before touching the vault
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, "", nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	baseDir, err := config.BaseDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine data directory: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogPretty)
	defer log.Sync()

	for _, name := range mcp.ValidateDisabledTools(cfg.DisabledTools) {
		log.Warn("unknown tool in disabled_tools", logging.String("tool", name))
	}
	for _, name := range mcp.ValidateDisabledFamilies(cfg.DisabledFamilies) {
		log.Warn("unknown family in disabled_families", logging.String("family", name))
	}

	vault := content.New(baseDir, *cfg, log)
	if err := vault.Open(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open vault: %v\n", err)
		os.Exit(1)
	}
	defer vault.Close()

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(vault, cfg, baseDir, log)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'inkwell --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(vault, *cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
