package handler

import (
	"inkwell/internal/app/collab"
	"inkwell/internal/configs"
)

// AppDeps bundles the dependencies the HTTP layer needs.
type AppDeps struct {
	Hub      *collab.Hub
	Verifier *collab.CredentialVerifier
	Config   *configs.AppConfig
}
