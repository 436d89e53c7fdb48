package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"medibook/internal/application/settings"
	"medibook/internal/config"
)

// newRootCmd builds the command tree around a.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "settings",
		Short: "Manage your Medibook doctor account",
		Long: `settings changes the login email or password of a Medibook doctor account,
deletes the account and switches the terminal between dark and light output.

Sign in first with 'settings login'. The session is kept in the local data directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	defaults := config.DefaultConfig()
	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", config.DefaultPath(), "Config file path")
	flags.StringVar(&a.apiURL, "api-url", defaults.APIURL, "Account API base URL")
	flags.StringVar(&a.dataDir, "data-dir", defaults.DataDir, "Directory for the session and preferences")
	flags.StringVar(&a.timeout, "timeout", defaults.Timeout, "Request timeout")
	flags.StringVar(&a.appearance, "appearance", defaults.PlatformAppearance, "Platform appearance when none is saved: auto, dark or light")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log diagnostics to stderr")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newProfileCmd(a),
		newActivityCmd(a),
		newEmailCmd(a),
		newPasswordCmd(a),
		newDeleteCmd(a),
		newThemeCmd(a),
	)
	return root
}

// outcome converts a controller error for cobra. Errors the presenter has
// shown are marked so main does not print them twice.
func outcome(err error) error {
	if err == nil || errors.Is(err, settings.ErrBusy) || errors.Is(err, settings.ErrNoPendingConfirmation) {
		return err
	}
	return reported(err)
}

func newLoginCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				var err error
				if email, err = a.readLine("Email"); err != nil {
					return err
				}
			}
			password, err := a.readSecret("Password")
			if err != nil {
				return err
			}
			if err := settings.SignIn(withContext(cmd), a.client, a.store, email, password); err != nil {
				return err
			}
			a.ui.line("Signed in as " + email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.SignOut(a.store); err != nil {
				return err
			}
			a.ui.line("Signed out")
			return nil
		},
	}
}

// loadProfile fills the email draft. Errors mean the session is missing or the API is down.
func (a *app) loadProfile(cmd *cobra.Command) error {
	err := a.ctrl.LoadProfile(withContext(cmd))
	if errors.Is(err, settings.ErrNoSession) {
		return fmt.Errorf("%w: run 'settings login' first", err)
	}
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	return nil
}

func newProfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in doctor's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadProfile(cmd); err != nil {
				return err
			}
			a.ui.profile(a.ctrl.Snapshot().Profile)
			return nil
		},
	}
}

func newActivityCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent sign-ins and account changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := settings.SessionToken(a.store)
			if errors.Is(err, settings.ErrNoSession) {
				return fmt.Errorf("%w: run 'settings login' first", err)
			}
			if err != nil {
				return err
			}
			events, err := a.client.Activity(withContext(cmd), tok, limit)
			if err != nil {
				return err
			}
			a.ui.activity(events)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func newEmailCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "email NEW_EMAIL",
		Short: "Change the login email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadProfile(cmd); err != nil {
				return err
			}
			current := a.ctrl.Snapshot().Email
			a.ctrl.SetEmail(args[0])
			password, err := a.readSecret("Password")
			if err != nil {
				return err
			}
			a.ctrl.SetEmailPassword(password)
			if err := a.ctrl.RequestEmailChange(); err != nil {
				return outcome(err)
			}

			ok := yes
			if !ok {
				if ok, err = a.confirm(fmt.Sprintf("Change login email from %s to %s?", current, args[0])); err != nil {
					a.ctrl.CancelEmailChange()
					return err
				}
			}
			if !ok {
				a.ctrl.CancelEmailChange()
				a.ui.line("Email unchanged")
				return nil
			}
			return outcome(a.ctrl.ConfirmEmailChange(withContext(cmd)))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := []struct {
				label string
				set   func(string)
			}{
				{"Current password", a.ctrl.SetCurrentPassword},
				{"New password", a.ctrl.SetNewPassword},
				{"Confirm new password", a.ctrl.SetConfirmPassword},
			}
			for _, step := range steps {
				v, err := a.readSecret(step.label)
				if err != nil {
					return err
				}
				step.set(v)
			}
			return outcome(a.ctrl.ChangePassword(withContext(cmd)))
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var understood, yes bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the account permanently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			consent := understood
			if !consent {
				var err error
				if consent, err = a.confirm("I understand that deleting my account cannot be undone"); err != nil {
					return err
				}
			}
			a.ctrl.SetDeleteConfirmed(consent)
			password, err := a.readSecret("Password")
			if err != nil {
				return err
			}
			a.ctrl.SetDeletePassword(password)
			if err := a.ctrl.RequestAccountDeletion(); err != nil {
				return outcome(err)
			}

			ok := yes
			if !ok {
				if ok, err = a.confirm("Delete this account and all its data?"); err != nil {
					a.ctrl.CancelAccountDeletion()
					return err
				}
			}
			if !ok {
				a.ctrl.CancelAccountDeletion()
				a.ui.line("Account kept")
				return nil
			}
			return outcome(a.ctrl.ConfirmAccountDeletion(withContext(cmd)))
		},
	}
	cmd.Flags().BoolVar(&understood, "understood", false, "Acknowledge that deletion cannot be undone")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the final confirmation prompt")
	return cmd
}

func newThemeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show the current appearance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.ui.line("Appearance: " + string(a.ctrl.Snapshot().Appearance))
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between dark and light and remember the choice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := a.ctrl.ToggleAppearance()
			a.ui.line("Appearance: " + string(mode))
			return nil
		},
	})
	return cmd
}
