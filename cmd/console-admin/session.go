package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	domainauth "github.com/target/mmk-ui-client/internal/domain/auth"
	apperrors "github.com/target/mmk-ui-client/internal/errors"
)

type loginOptions struct {
	Username      string
	Password      string
	PasswordStdin bool
	Captcha       string
}

type clearCredentialOptions struct {
	Yes bool
}

func parseLoginFlags(cmdCtx *commandContext, args []string) (loginOptions, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Err)

	var opts loginOptions
	fs.StringVar(&opts.Username, "username", "", "Account username (required)")
	fs.StringVar(&opts.Password, "password", "", "Account password")
	fs.BoolVar(&opts.PasswordStdin, "password-stdin", false, "Read the password from stdin")
	fs.StringVar(&opts.Captcha, "captcha", "", "Optional captcha answer")

	if err := fs.Parse(args); err != nil {
		return loginOptions{}, err
	}

	opts.Username = strings.TrimSpace(opts.Username)
	if opts.Username == "" {
		return loginOptions{}, errors.New("--username is required")
	}
	if opts.PasswordStdin {
		if opts.Password != "" {
			return loginOptions{}, errors.New("--password and --password-stdin are mutually exclusive")
		}
		line, err := bufio.NewReader(cmdCtx.In).ReadString('\n')
		if err != nil && line == "" {
			return loginOptions{}, fmt.Errorf("read password from stdin: %w", err)
		}
		opts.Password = strings.TrimRight(line, "\r\n")
	}
	if opts.Password == "" {
		return loginOptions{}, errors.New("a password is required (--password or --password-stdin)")
	}
	return opts, nil
}

func runLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseLoginFlags(cmdCtx, args)
	if err != nil {
		return err
	}

	return withRuntime(cmdCtx, func(rt *runtime) error {
		profile, err := rt.Auth.Login(cmdCtx.Ctx, domainauth.LoginRequest{
			Username: opts.Username,
			Password: opts.Password,
			Captcha:  opts.Captcha,
		})
		if err != nil {
			if apiErr, ok := apperrors.As(err); ok {
				return fmt.Errorf("login rejected: %s", apiErr.Message)
			}
			return err
		}
		return writef(cmdCtx.Out, "Signed in as %s\n", profile.DisplayName())
	})
}

func runLogout(cmdCtx *commandContext, _ []string) error {
	return withRuntime(cmdCtx, func(rt *runtime) error {
		wasAuthenticated := rt.Sessions.IsAuthenticated()
		if err := rt.Auth.Logout(cmdCtx.Ctx); err != nil {
			return err
		}
		if !wasAuthenticated {
			return writeln(cmdCtx.Out, "No session to sign out of")
		}
		return writeln(cmdCtx.Out, "Signed out")
	})
}

func runStatus(cmdCtx *commandContext, _ []string) error {
	return withRuntime(cmdCtx, func(rt *runtime) error {
		st := rt.Auth.Status()
		tw := tabwriter.NewWriter(cmdCtx.Out, 0, 0, 2, ' ', 0)
		rows := [][2]string{
			{"Authenticated", fmt.Sprintf("%t", st.Authenticated)},
			{"User", st.DisplayName},
			{"Credential", rt.Sessions.Credential().Redacted()},
			{"Storage", rt.storage.Backend},
			{"API", cmdCtx.Config.API.BaseURL},
		}
		for _, row := range rows {
			if err := writef(tw, "%s:\t%s\n", row[0], row[1]); err != nil {
				return fmt.Errorf("print status: %w", err)
			}
		}
		return tw.Flush()
	})
}

func runClearCredential(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("clear-credential", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Err)
	var opts clearCredentialOptions
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := confirmAction(cmdCtx, "Remove the persisted credential?", opts.Yes); err != nil {
		return err
	}

	return withRuntime(cmdCtx, func(rt *runtime) error {
		if err := rt.Sessions.ClearCredential(cmdCtx.Ctx); err != nil {
			return err
		}
		cmdCtx.Logger.Info("persisted credential removed", "backend", rt.storage.Backend)
		return writeln(cmdCtx.Out, "Credential removed")
	})
}
