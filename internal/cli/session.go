package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mcoot/leaderboard/internal/api/response"
	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/validation"
)

var errInvalidForm = errors.New("form has invalid fields")

func newWelcomeCmd(a *app) *cobra.Command {
	var auto bool

	cmd := &cobra.Command{
		Use:   "welcome",
		Short: "Show the welcome screen and restore the cached session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			ctrl.Initialize(cmd.Context(), auto)
			if auto {
				ctrl.ResumeAfterScreenClose(cmd.Context(), model.ScreenWelcome)
			}

			if a.output.IsJSON() {
				a.output.Print(whoami(ctrl.Current()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&auto, "auto", false, "Continue past the welcome screen")

	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var (
		name, nickname, email, password string
		acceptTerms, newsletter         bool
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("pass") {
				var err error
				if password, err = a.promptPassword("Password"); err != nil {
					return err
				}
			}

			form := validation.NewRegistrationForm()
			form.Input(validation.FieldName, name)
			form.Input(validation.FieldNickname, nickname)
			form.Input(validation.FieldEmail, email)
			form.Blur(validation.FieldEmail)
			form.Input(validation.FieldPassword, password)
			if acceptTerms {
				form.ToggleTerms()
			}
			if newsletter {
				form.ToggleNewsletter()
			}
			if err := a.checkForm(form); err != nil {
				return err
			}

			ctrl, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			record, err := ctrl.Register(cmd.Context(), form.Registration())
			if err != nil {
				return err
			}

			if a.output.IsJSON() {
				a.output.Print(response.RecordFromModel(record))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "How should we address you")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Your name on the leaderboard")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "pass", "", "Password (prompted when omitted)")
	cmd.Flags().BoolVar(&acceptTerms, "accept-terms", false, "Accept the privacy policy and terms of use")
	cmd.Flags().BoolVar(&newsletter, "newsletter", false, "Join the newsletter")

	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("pass") {
				var err error
				if password, err = a.promptPassword("Password"); err != nil {
					return err
				}
			}

			form := validation.NewLoginForm()
			form.Input(validation.FieldEmail, email)
			form.Input(validation.FieldPassword, password)
			if err := a.checkForm(form); err != nil {
				return err
			}

			ctrl, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			loginEmail, loginPassword := form.Credentials()
			record, err := ctrl.Login(cmd.Context(), loginEmail, loginPassword)
			if err != nil {
				return err
			}

			if a.output.IsJSON() {
				a.output.Print(response.RecordFromModel(record))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "pass", "", "Password (prompted when omitted)")

	return cmd
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in player",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			a.output.Print(whoami(ctrl.Restore(cmd.Context())))
			return nil
		},
	}
}

// checkForm evaluates form and reports every warning in the catalogue's words
func (a *app) checkForm(form *validation.Form) error {
	result := form.Check()
	if result.Valid {
		return nil
	}

	catalogue, err := a.catalogue()
	if err != nil {
		return err
	}

	formErr := &FormError{Warnings: make(map[string][]string)}
	for _, state := range result.States {
		if len(state.Warnings) == 0 {
			continue
		}
		field := string(state.Field)
		formErr.fields = append(formErr.fields, field)
		for _, w := range state.Warnings {
			formErr.Warnings[field] = append(formErr.Warnings[field], catalogue.WarningMessage(state.Field, w))
		}
	}

	if !a.output.IsJSON() {
		a.output.printWarnings(formErr)
	}
	return formErr
}

func whoami(record *model.PlayerRecord) WhoamiResult {
	if record == nil {
		return WhoamiResult{}
	}
	r := response.RecordFromModel(record)
	return WhoamiResult{Active: true, Player: &r}
}
