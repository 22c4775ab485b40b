package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/leaderboard/internal/api/response"
	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/session"
)

func newScoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "score <points>",
		Short: "Submit a score; only improvements are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid score %q: %w", args[0], err)
			}

			ctrl, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if ctrl.Restore(cmd.Context()) == nil {
				return fmt.Errorf("%w: register or log in first", session.ErrNoSession)
			}

			accepted, err := ctrl.SubmitScore(cmd.Context(), points)
			if err != nil {
				return err
			}

			a.output.Print(ScoreResult{Accepted: accepted, Score: ctrl.Current().Score})
			return nil
		},
	}
}

func newBoardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Show the ranked leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			ctrl.Restore(cmd.Context())

			entries, err := ctrl.RequestLeaderboard(cmd.Context())
			if err != nil {
				return err
			}

			if a.output.IsJSON() {
				a.output.Print(response.LeaderboardFromModel(model.CompetitionID(a.cfg.Competition), entries))
			}
			return nil
		},
	}
}

func newTermsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "terms",
		Short: "Show the terms of use link",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			ctrl.RequestTerms(cmd.Context())
			return nil
		},
	}
}

func newPrivacyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "privacy",
		Short: "Show the privacy policy link",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			ctrl.RequestPrivacyPolicy(cmd.Context())
			return nil
		},
	}
}
