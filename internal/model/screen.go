package model

// ScreenID identifies a screen the presentation layer can show
type ScreenID string

const (
	ScreenWelcome     ScreenID = "welcome"
	ScreenRegister    ScreenID = "register"
	ScreenLogin       ScreenID = "login"
	ScreenLeaderboard ScreenID = "leaderboard"
)

// FormContext identifies which user action an error belongs to
type FormContext string

const (
	ContextLogin       FormContext = "login"
	ContextRegister    FormContext = "register"
	ContextScore       FormContext = "score"
	ContextLeaderboard FormContext = "leaderboard"
)
