package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type WelcomeMailData struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type StatusChangedMailData struct {
	Name           string `json:"name"`
	ResumeTitle    string `json:"resumeTitle"`
	PreviousStatus string `json:"previousStatus"`
	NewStatus      string `json:"newStatus"`
	Reason         string `json:"reason"`
}
