package router

import (
	"github.com/opsboard/operator-auth/internal/application"
	"github.com/opsboard/operator-auth/internal/container"
	pginfra "github.com/opsboard/operator-auth/internal/infrastructure/postgres"
	handlers "github.com/opsboard/operator-auth/internal/interface/http"
	"github.com/opsboard/operator-auth/internal/router/modules"
)

// InitModules wires the auth module from the container singletons.
// Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()

	repo := pginfra.NewOperatorRepository(container.GetPGPool())
	auditRepo := pginfra.NewAuditRepository(container.GetPGPool())

	sessions := application.NewSessionAuthority(container.GetRedis(), container.GetJWT(), cfg.SessionTTL)
	verifier := application.NewCredentialVerifier(repo, container.GetLogger())
	tokens := &application.TokenAuthority{
		Repo:        repo,
		Gateway:     container.GetMailGateway(),
		Logger:      container.GetLogger(),
		InviteURL:   cfg.InviteURL,
		ResetURL:    cfg.ResetPasswordURL,
		ResetWindow: cfg.ResetWindow,
	}
	if pub := container.GetRabbitPub(); pub != nil {
		tokens.Queue = pub
	}

	svc := application.NewService(verifier, sessions, tokens, repo, container.GetLogger())
	audit := application.NewAuditRecorder(auditRepo, container.GetES(), cfg.ESAuditIndex, container.GetLogger())

	handler := handlers.NewAuthHandler(
		svc,
		audit,
		container.GetLogger(),
		cfg.CookieDomain,
		cfg.CookieSecure,
		cfg.SessionTTL,
	)

	r.Add(modules.NewAuthModule(handler, sessions))
}
