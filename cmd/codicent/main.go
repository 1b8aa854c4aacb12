package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/izaxon/codicent-cli/internal/auth"
	"github.com/izaxon/codicent-cli/internal/codicent"
	"github.com/izaxon/codicent-cli/internal/config"
	"github.com/izaxon/codicent-cli/internal/mcp"
	"github.com/izaxon/codicent-cli/internal/tui"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// defaultClientID is the client ID of the codicent OAuth app. It is
// non-confidential (no secret required) so it is safe to distribute with the
// binary. Users can override it by setting codicent.client_id in
// ~/.config/codicent/config.toml.
const defaultClientID = "codicent-vscode"

const defaultServiceURL = "https://codicent.com"

func main() {
	versionFlag := flag.Bool("version", false, "print version and exit")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *versionFlag {
		fmt.Println("codicent", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	configPath := config.DefaultConfigPath()
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var cmdErr error
	switch args[0] {
	case "login":
		cmdErr = loginCmd(ctx, &cfg, configPath, args[1:])
	case "send":
		cmdErr = sendCmd(ctx, &cfg, configPath, args[1:])
	case "status":
		cmdErr = statusCmd(cfg, configPath)
	case "mcp":
		cmdErr = mcpCmd(cfg)
	case "logout":
		cmdErr = logoutCmd(&cfg, configPath)
	default:
		usage()
		os.Exit(2)
	}
	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", cmdErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: codicent [-v] <command>

commands:
  login    authenticate with Codicent via the device flow
  send     post a message (from arguments or stdin)
  status   show authentication state and project
  mcp      print the assistant tool endpoint configuration
  logout   forget stored credentials
`)
}

// loginCmd runs the Device Authorization Flow interactively.
// All prompts are written to stderr so stdout remains clean for piping.
// It blocks until the user completes authorization, cancels, or an error occurs.
func loginCmd(ctx context.Context, cfg *config.Config, configPath string, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	project := fs.String("project", "", "project hint passed to the authorization endpoint")
	fs.Parse(args)

	clientID := cfg.Codicent.ClientID
	if clientID == "" {
		clientID = defaultClientID
	}
	hint := *project
	if hint == "" {
		hint = cfg.Codicent.Project
	}

	flow := auth.NewDeviceFlow(clientID, cfg.Codicent.URL)
	authz, err := flow.RequestCode(ctx, hint)
	if err != nil {
		return fmt.Errorf("requesting device code: %w", err)
	}

	accepted, err := tui.RunApprove(authz)
	if err != nil {
		return fmt.Errorf("showing approval prompt: %w", err)
	}
	if !accepted {
		fmt.Fprintln(os.Stderr, "Authentication cancelled.")
		return nil
	}

	fmt.Fprintln(os.Stderr, "Waiting for authorization...")
	result, err := flow.Run(ctx, authz)
	if err != nil {
		if errors.Is(err, auth.ErrAuthorizationExpired) {
			return fmt.Errorf("authorization expired or was denied: run `codicent login` again")
		}
		return err
	}

	tm := auth.NewTokenManager(cfg, configPath, cfg.Codicent.URL)
	if saveErr := tm.Store(result); saveErr != nil {
		fmt.Fprintf(os.Stderr, "warning: could not save token to config: %v (you will need to re-authenticate next run)\n", saveErr)
		return nil
	}
	if cfg.Codicent.Project != "" {
		fmt.Fprintf(os.Stderr, "Authenticated for project %s. Token saved to %s\n", cfg.Codicent.Project, configPath)
	} else {
		fmt.Fprintf(os.Stderr, "Authenticated. Token saved to %s\n", configPath)
	}
	return nil
}

// sendCmd posts a message built from the remaining arguments, or from stdin
// when no arguments are given (so editors can pipe a selection straight in).
// The stored project tags the message; a 401 triggers one silent refresh.
func sendCmd(ctx context.Context, cfg *config.Config, configPath string, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	tag := fs.String("tag", "", "extra tag for the message")
	fs.Parse(args)

	if cfg.Codicent.AccessToken == "" {
		return fmt.Errorf("not authenticated: run `codicent login` first")
	}

	content := strings.Join(fs.Args(), " ")
	if content == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		content = strings.TrimSpace(string(data))
	}
	if content == "" {
		return fmt.Errorf("nothing to send")
	}

	var tags []string
	if cfg.Codicent.Project != "" {
		tags = append(tags, cfg.Codicent.Project)
	}
	if *tag != "" {
		tags = append(tags, *tag)
	}

	client := codicent.NewClient(cfg.Codicent.AccessToken, cfg.Codicent.URL)
	tm := auth.NewTokenManager(cfg, configPath, cfg.Codicent.URL)
	poster := codicent.NewRefreshingPoster(client, tm.Refresh, client.SetToken)

	msg, err := poster.PostMessage(ctx, content, tags)
	if err != nil {
		var authErr *codicent.AuthExpiredError
		if errors.As(err, &authErr) {
			return fmt.Errorf("%v: run `codicent login`", err)
		}
		return err
	}
	fmt.Println(msg.ID)
	return nil
}

func statusCmd(cfg config.Config, configPath string) error {
	fmt.Printf("config: %s\n", configPath)
	if cfg.Codicent.AccessToken == "" {
		fmt.Println("authenticated: no")
		return nil
	}
	fmt.Println("authenticated: yes")
	project := cfg.Codicent.Project
	if project == "" {
		project, _ = auth.ProjectIdentifier(cfg.Codicent.AccessToken)
	}
	if project != "" {
		fmt.Printf("project: %s\n", project)
	}
	return nil
}

func mcpCmd(cfg config.Config) error {
	baseURL := cfg.Codicent.URL
	if baseURL == "" {
		baseURL = defaultServiceURL
	}
	out, err := mcp.Render(baseURL, cfg.Codicent.AccessToken)
	if err != nil {
		return fmt.Errorf("rendering assistant config: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func logoutCmd(cfg *config.Config, configPath string) error {
	cfg.Codicent.AccessToken = ""
	cfg.Codicent.RefreshToken = ""
	if err := config.Save(configPath, *cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Logged out.")
	return nil
}
