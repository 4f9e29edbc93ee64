package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/target/mmk-ui-client/config"
	"github.com/target/mmk-ui-client/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	// Command output goes to stdout; keep logs on stderr.
	logger = bootstrap.ConfigureLogger(os.Stderr, cfg.Observability.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		In:     os.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
	}
	runErr := cmd.run(cmdCtx, os.Args[2:])
	stop()
	if runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Sign in and persist the credential",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Sign out and remove the persisted credential",
			run:         runLogout,
		},
		"status": {
			name:        "status",
			description: "Show the current session",
			run:         runStatus,
		},
		"clear-credential": {
			name:        "clear-credential",
			description: "Remove the persisted credential without calling the backend",
			run:         runClearCredential,
		},
		"routes": {
			name:        "routes",
			description: "List the route table and guard requirements",
			run:         runRoutes,
		},
		"navigate": {
			name:        "navigate",
			description: "Evaluate the navigation guard for a path",
			run:         runNavigate,
		},
		"health": {
			name:        "health",
			description: "Show today's health metrics and schedule",
			run:         runHealth,
		},
		"schedule-history": {
			name:        "schedule-history",
			description: "List past schedule items one page at a time",
			run:         runScheduleHistory,
		},
		"complete": {
			name:        "complete",
			description: "Mark a schedule item as completed",
			run:         runComplete,
		},
		"upload": {
			name:        "upload",
			description: "Upload a file as multipart form data",
			run:         runUpload,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: console-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := cmds[name]
		if err := writef(w, "  %-24s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

func confirmAction(cmdCtx *commandContext, prompt string, yes bool) error {
	if yes {
		return nil
	}
	if err := write(cmdCtx.Out, prompt+" [y/N]: "); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	reader := bufio.NewReader(cmdCtx.In)
	resp, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errors.New("aborted by user")
}

func write(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
