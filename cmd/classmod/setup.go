package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
)

// serverName is the key the MCP server is registered under.
const serverName = appName

// projectMCPFile is where CLI agents keep project scoped servers.
const projectMCPFile = ".mcp.json"

var errSkipped = errors.New("skipped")

// agent describes one MCP client. Agents with a binary are configured
// through `<binary> mcp add`; the others get an entry merged into a JSON
// config file, found either below a project marker directory or at
// configPath.
type agent struct {
	name       string
	binary     string
	marker     string
	configPath func() (string, error)
	serversKey string
	extra      map[string]any
}

var agents = []agent{
	{name: "Claude Code", binary: "claude", serversKey: "mcpServers"},
	{name: "OpenAI Codex", binary: "codex", serversKey: "mcpServers"},
	{name: "VS Code Copilot", marker: ".vscode", serversKey: "servers", extra: map[string]any{"type": "stdio"}},
	{name: "Cursor", marker: ".cursor", serversKey: "mcpServers"},
	{name: "Claude Desktop", configPath: claudeDesktopConfig, serversKey: "mcpServers"},
}

// foundAgent is an agent present on this machine.
type foundAgent struct {
	agent
	// config is the JSON file holding the server entry.
	config     string
	configured bool
}

type setupOptions struct {
	auto bool
	// serveArgs are the arguments the agent starts the server with.
	serveArgs []string
}

// Replaceable for testing.
var (
	lookPathFunc = exec.LookPath
	statFunc     = os.Stat
	runAgentFunc = func(binary string, args []string, w io.Writer) error {
		cmd := exec.Command(binary, args...)
		cmd.Stdout = w
		cmd.Stderr = w
		return cmd.Run()
	}
)

func claudeDesktopConfig() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "Claude", "claude_desktop_config.json"), nil
}

// locate reports whether the agent is present and which file holds its
// server entry.
func (a agent) locate() (string, bool) {
	switch {
	case a.binary != "":
		_, err := lookPathFunc(a.binary)
		return projectMCPFile, err == nil
	case a.marker != "":
		_, err := statFunc(a.marker)
		return filepath.Join(a.marker, "mcp.json"), err == nil
	case a.configPath != nil:
		path, err := a.configPath()
		if err != nil {
			return "", false
		}
		_, err = statFunc(filepath.Dir(path))
		return path, err == nil
	}
	return "", false
}

func detectAgents() []foundAgent {
	var found []foundAgent
	for _, a := range agents {
		config, ok := a.locate()
		if !ok {
			continue
		}
		data, _ := os.ReadFile(config)
		_, servers, err := decodeConfig(data, a.serversKey)
		found = append(found, foundAgent{
			agent:      a,
			config:     config,
			configured: err == nil && servers[serverName] != nil,
		})
	}
	return found
}

// decodeConfig parses an agent config document and returns it together with
// its servers object. Empty input yields an empty document.
func decodeConfig(data []byte, key string) (map[string]any, map[string]any, error) {
	doc := make(map[string]any)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	servers, ok := doc[key].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	return doc, servers, nil
}

// mergeServerEntry adds the classmod server to an agent config document.
// It returns nil, nil when the entry is already there.
func mergeServerEntry(existing []byte, key string, args []string, extra map[string]any) ([]byte, error) {
	doc, servers, err := decodeConfig(existing, key)
	if err != nil {
		return nil, err
	}
	if servers[serverName] != nil {
		return nil, nil
	}

	entry := map[string]any{"command": appName, "args": args}
	for k, v := range extra {
		entry[k] = v
	}
	servers[serverName] = entry
	doc[key] = servers

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func writeServerEntry(path, key string, args []string, extra map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	merged, err := mergeServerEntry(existing, key, args, extra)
	if err != nil || merged == nil {
		return err
	}
	return os.WriteFile(path, merged, 0o644)
}

// prompter reads every answer of a setup session from one scanner, so
// input buffered for later questions is kept.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// confirm asks a Y/n question. An empty answer or EOF means yes.
func (p prompter) confirm(question string) bool {
	fmt.Fprintf(p.out, "%s ", question)
	if !p.in.Scan() {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(p.in.Text())) {
	case "", "y", "yes":
		return true
	}
	return false
}

// scope asks where a CLI agent should register the server and returns
// "project", "user" or "" to skip.
func (p prompter) scope(name string) string {
	fmt.Fprintf(p.out, "%s: register %s for [1] this project, [2] your user, [3] skip? ", name, serverName)
	if !p.in.Scan() {
		return "project"
	}
	switch strings.TrimSpace(p.in.Text()) {
	case "", "1":
		return "project"
	case "2":
		return "user"
	}
	return ""
}

func runSetup(ctx context.Context, cmd *cli.Command) error {
	opts := setupOptions{auto: cmd.Bool("auto"), serveArgs: []string{"serve"}}
	if cfg := cmd.Root().String("config"); cfg != "" {
		abs, err := filepath.Abs(cfg)
		if err != nil {
			return err
		}
		opts.serveArgs = []string{"--config", abs, "serve"}
	}

	configured := executeSetup(cmd.Root().Reader, cmd.Root().Writer, opts)
	envFromContext(ctx).log.Debug("Setup finished", "configured", configured)
	return nil
}

// executeSetup registers the server with every detected agent that does not
// have it yet and returns how many were configured.
func executeSetup(r io.Reader, w io.Writer, opts setupOptions) int {
	found := detectAgents()
	if len(found) == 0 {
		fmt.Fprintln(w, "No supported MCP clients found.")
		return 0
	}

	fmt.Fprintln(w, "MCP clients:")
	for _, a := range found {
		status := "not configured"
		if a.configured {
			status = "already configured"
		}
		fmt.Fprintf(w, "  %-16s %s\n", a.name, status)
	}

	p := prompter{in: bufio.NewScanner(r), out: w}
	if !opts.auto && !p.confirm("Register classmod with these clients? [Y/n]") {
		return 0
	}

	configured := 0
	for _, a := range found {
		if a.configured {
			continue
		}
		where, err := configureAgent(p, a, opts)
		switch {
		case errors.Is(err, errSkipped):
			fmt.Fprintf(w, "%s: skipped\n", a.name)
		case err != nil:
			fmt.Fprintf(w, "%s: failed: %v\n", a.name, err)
		default:
			configured++
			fmt.Fprintf(w, "%s: configured (%s)\n", a.name, where)
		}
	}
	return configured
}

// configureAgent registers the server with one agent and returns where it
// was written.
func configureAgent(p prompter, a foundAgent, opts setupOptions) (string, error) {
	if a.binary != "" {
		scope := "project"
		if !opts.auto {
			if scope = p.scope(a.name); scope == "" {
				return "", errSkipped
			}
		}
		args := append([]string{"mcp", "add", "--scope", scope, serverName, "--", appName}, opts.serveArgs...)
		if err := runAgentFunc(a.binary, args, p.out); err != nil {
			return "", fmt.Errorf("%s mcp add: %w", a.binary, err)
		}
		return "scope: " + scope, nil
	}

	if !opts.auto && !p.confirm(fmt.Sprintf("%s: add to %s? [Y/n]", a.name, a.config)) {
		return "", errSkipped
	}
	if err := writeServerEntry(a.config, a.serversKey, opts.serveArgs, a.extra); err != nil {
		return "", err
	}
	return a.config, nil
}
