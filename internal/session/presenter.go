package session

import "github.com/mcoot/leaderboard/internal/model"

// Presenter renders screens on behalf of the controller. Implementations own
// the rendering surface; the controller never touches it directly.
type Presenter interface {
	RenderWelcome()
	// EnableWelcome makes the welcome screen's entry point interactive
	EnableWelcome()
	RenderRegister()
	RenderLogin()
	RenderLeaderboard(entries []model.LeaderboardEntry, currentEmail string)
	ShowError(ctx model.FormContext, message string)
	Dismiss(screen model.ScreenID)
}

// NopPresenter ignores every rendering request, for headless embedding
type NopPresenter struct{}

var _ Presenter = NopPresenter{}

func (NopPresenter) RenderWelcome()                                     {}
func (NopPresenter) EnableWelcome()                                     {}
func (NopPresenter) RenderRegister()                                    {}
func (NopPresenter) RenderLogin()                                       {}
func (NopPresenter) RenderLeaderboard([]model.LeaderboardEntry, string) {}
func (NopPresenter) ShowError(model.FormContext, string)                {}
func (NopPresenter) Dismiss(model.ScreenID)                             {}
