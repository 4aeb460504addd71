package model

// Шаги диалога бронирования в Telegram.
const (
	DialogStepName         = "name"
	DialogStepEmail        = "email"
	DialogStepParticipants = "participants"
)

// DialogState незавершенный диалог бронирования в одном чате.
type DialogState struct {
	ChatID       int64  `json:"chatId"`
	ExperienceID int    `json:"experienceId"`
	Step         string `json:"step"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
}
