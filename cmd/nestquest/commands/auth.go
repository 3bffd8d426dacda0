package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/nestquest/nestquest-cli/internal/api"
	"github.com/nestquest/nestquest-cli/internal/app"
	"github.com/nestquest/nestquest-cli/internal/googleauth"
	"github.com/nestquest/nestquest-cli/internal/observability"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in and store the session credentials",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "email",
				Usage: "account email (prompted if omitted)",
			},
			&cli.BoolFlag{
				Name:  "google",
				Usage: "sign in with Google instead of a password",
			},
		},
		Action: loginAction,
	}
}

func loginAction(ctx context.Context, cmd *cli.Command) error {
	application, cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	if !cfg.Auth.Writable() {
		return errors.New("configured credential storage is read-only; interactive login needs file or keyring storage")
	}

	var auth *api.AuthResponse
	if cmd.Bool("google") {
		auth, err = googleLogin(ctx, application, cfg)
	} else {
		auth, err = passwordLogin(ctx, application, cmd.String("email"))
	}
	if err != nil {
		return err
	}

	if err := application.Session().SetTokens(ctx, auth.Tokens.Access, auth.Tokens.Refresh); err != nil {
		return err
	}

	fmt.Printf("Logged in as %s (%s)\n", auth.User.Name, auth.User.Email)
	return nil
}

// passwordLogin prompts for missing credentials and authenticates at the
// backend. The password never echoes.
func passwordLogin(ctx context.Context, application *app.App, email string) (*api.AuthResponse, error) {
	if email == "" {
		fmt.Print("Email: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("reading email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return nil, errors.New("email is required")
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return application.Client().Login(ctx, email, string(password))
}

// googleLogin runs the browser OAuth flow and exchanges the Google token at
// the backend.
func googleLogin(ctx context.Context, application *app.App, cfg *app.Config) (*api.AuthResponse, error) {
	googleToken, err := googleauth.SignIn(ctx, googleauth.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		ListenAddr:   cfg.Google.RedirectAddr,
		Notify: func(authURL string) {
			fmt.Println("Open this URL in your browser to sign in:")
			fmt.Println()
			fmt.Println("  " + authURL)
			fmt.Println()
		},
	})
	if err != nil {
		return nil, err
	}

	return application.Client().GoogleLogin(ctx, googleToken)
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create an account and sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "account email", Required: true},
			&cli.StringFlag{Name: "name", Usage: "display name", Required: true},
			&cli.StringFlag{Name: "phone", Usage: "phone number"},
		},
		Action: registerAction,
	}
}

func registerAction(ctx context.Context, cmd *cli.Command) error {
	application, cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	if !cfg.Auth.Writable() {
		return errors.New("configured credential storage is read-only; registration needs file or keyring storage")
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	auth, err := application.Client().Register(ctx, api.RegisterRequest{
		Email:    cmd.String("email"),
		Name:     cmd.String("name"),
		Password: string(password),
		Phone:    cmd.String("phone"),
	})
	if err != nil {
		return err
	}

	if err := application.Session().SetTokens(ctx, auth.Tokens.Access, auth.Tokens.Refresh); err != nil {
		return err
	}

	fmt.Printf("Registered and logged in as %s (%s)\n", auth.User.Name, auth.User.Email)
	return nil
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "end the session and remove stored credentials",
		Action: logoutAction,
	}
}

func logoutAction(ctx context.Context, cmd *cli.Command) error {
	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	sess := application.Session()

	// Best effort: invalidate the refresh token server-side, but clear the
	// local session regardless.
	if refresh, ok := sess.RefreshToken(); ok {
		if err := application.Client().Logout(ctx, refresh); err != nil {
			slog.WarnContext(ctx, "server-side logout failed", "error", err)
		}
	}

	if err := sess.Clear(ctx); err != nil {
		return err
	}

	fmt.Println("Logged out")
	return nil
}

func passwordResetCommand() *cli.Command {
	return &cli.Command{
		Name:      "password-reset",
		Usage:     "request a password reset email",
		ArgsUsage: "<email>",
		Action:    passwordResetAction,
	}
}

func passwordResetAction(ctx context.Context, cmd *cli.Command) error {
	email := cmd.Args().First()
	if email == "" {
		return errors.New("email is required")
	}

	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	if err := application.Client().RequestPasswordReset(ctx, email); err != nil {
		return err
	}

	fmt.Printf("If an account exists for %s, a reset link is on its way\n", email)
	return nil
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "update the signed-in user's profile",
		Commands: []*cli.Command{
			{
				Name:  "update",
				Usage: "change profile fields; unset flags keep their current value",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "display name"},
					&cli.StringFlag{Name: "phone", Usage: "phone number"},
					&cli.StringFlag{Name: "bio", Usage: "short bio"},
					&cli.StringFlag{Name: "gender", Usage: "gender"},
					&cli.StringFlag{Name: "birth-date", Usage: "birth date, YYYY-MM-DD"},
				},
				Action: profileUpdateAction,
			},
		},
	}
}

func profileUpdateAction(ctx context.Context, cmd *cli.Command) error {
	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	user, err := application.Client().UpdateProfile(ctx, api.UpdateProfileRequest{
		Name:      cmd.String("name"),
		Phone:     cmd.String("phone"),
		Bio:       cmd.String("bio"),
		Gender:    cmd.String("gender"),
		BirthDate: cmd.String("birth-date"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Profile updated: %s <%s>\n", user.Name, user.Email)
	return nil
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "show the signed-in user and account overview",
		Action: whoamiAction,
	}
}

func whoamiAction(ctx context.Context, cmd *cli.Command) error {
	application, _, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	dashboard, err := application.Client().Dashboard(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s <%s>\n", dashboard.User.Name, dashboard.User.Email)
	fmt.Printf("  listings: %d  saved: %d  meetings: %d  unread notifications: %d\n",
		dashboard.PropertyCount, dashboard.SavedCount, dashboard.MeetingCount, dashboard.UnreadNotices)
	return nil
}
