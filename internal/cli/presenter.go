package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"

	"github.com/mcoot/leaderboard/internal/model"
	"github.com/mcoot/leaderboard/internal/session"
	"github.com/mcoot/leaderboard/internal/texts"
)

// terminalPresenter draws the controller's screens as plain terminal text
type terminalPresenter struct {
	out    io.Writer
	errOut io.Writer
	texts  *texts.Catalogue

	title     *color.Color
	hint      *color.Color
	highlight *color.Color
	failure   *color.Color
}

var _ session.Presenter = (*terminalPresenter)(nil)

func newTerminalPresenter(out, errOut io.Writer, catalogue *texts.Catalogue) *terminalPresenter {
	return &terminalPresenter{
		out:       out,
		errOut:    errOut,
		texts:     catalogue,
		title:     color.New(color.Bold),
		hint:      color.New(color.FgCyan),
		highlight: color.New(color.FgGreen, color.Bold),
		failure:   color.New(color.FgRed),
	}
}

func (p *terminalPresenter) RenderWelcome() {
	p.title.Fprintln(p.out, p.texts.Welcome.Title)
	fmt.Fprintln(p.out, p.texts.Welcome.Text)
}

func (p *terminalPresenter) EnableWelcome() {
	p.hint.Fprintf(p.out, "[%s]\n", p.texts.Welcome.Close)
}

func (p *terminalPresenter) RenderRegister() {
	p.title.Fprintln(p.out, p.texts.Register.Title)
	p.hint.Fprintln(p.out, "leaderboard register --name --nickname --email --accept-terms")
	fmt.Fprintf(p.out, "%s leaderboard login --email\n", p.texts.Register.Account)
}

func (p *terminalPresenter) RenderLogin() {
	p.title.Fprintln(p.out, p.texts.Login.Login)
	fmt.Fprintln(p.out, p.texts.Login.Subheader)
}

func (p *terminalPresenter) RenderLeaderboard(entries []model.LeaderboardEntry, _ string) {
	p.title.Fprintln(p.out, p.texts.Leaderboard.Title)
	fmt.Fprintln(p.out, p.texts.Leaderboard.Subtitle)
	for _, e := range entries {
		line := fmt.Sprintf("%3dº  %-20s %d", e.Rank, e.Record.Nickname, e.Record.Score)
		if e.IsCurrentUser {
			p.highlight.Fprintln(p.out, line)
			continue
		}
		fmt.Fprintln(p.out, line)
	}
}

func (p *terminalPresenter) ShowError(_ model.FormContext, message string) {
	p.failure.Fprintln(p.errOut, message)
}

// Dismiss is a no-op: printed screens scroll away on their own
func (p *terminalPresenter) Dismiss(model.ScreenID) {}

// onEvent reacts to controller notifications
func (a *app) onEvent(event model.Event) {
	switch event.Type {
	case model.EventTermsRequested:
		a.output.Print(LinkResult{Kind: "terms", URL: a.cfg.TermsURL})
	case model.EventPrivacyPolicyRequested:
		a.output.Print(LinkResult{Kind: "privacy", URL: a.cfg.PrivacyURL})
	case model.EventSessionReady:
		if payload, ok := event.Payload.(model.SessionReadyPayload); ok && !a.output.IsJSON() {
			a.output.PrintMessage(fmt.Sprintf("Signed in as %s (%s)", payload.Record.Nickname, payload.Record.Email))
		}
	case model.EventExperienceStarted:
		a.logger.Debug("experience started", slog.String("player_id", string(event.PlayerID)))
		if !a.output.IsJSON() {
			a.output.PrintMessage("Ready to play!")
		}
	}
}
