package handlers

import (
	"log/slog"

	"project-tracker/internal/auth"
	"project-tracker/internal/notify"
	"project-tracker/internal/service"
)

// Handler holds the services behind the JSON API.
type Handler struct {
	projects    *service.ProjectService
	technicians *service.TechnicianService
	clients     *service.ClientService
	reminders   *notify.Reminder
	authn       *auth.Authenticator
	tokens      *auth.TokenManager
	log         *slog.Logger
	dev         bool
}

type Deps struct {
	Projects      *service.ProjectService
	Technicians   *service.TechnicianService
	Clients       *service.ClientService
	Reminders     *notify.Reminder
	Authenticator *auth.Authenticator
	Tokens        *auth.TokenManager
	Logger        *slog.Logger
	Development   bool
}

func New(d Deps) *Handler {
	return &Handler{
		projects:    d.Projects,
		technicians: d.Technicians,
		clients:     d.Clients,
		reminders:   d.Reminders,
		authn:       d.Authenticator,
		tokens:      d.Tokens,
		log:         d.Logger,
		dev:         d.Development,
	}
}
