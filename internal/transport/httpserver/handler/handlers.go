package handler

import (
	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/internal/transport/httpserver/handler/common"
	"cras-cadastro/internal/transport/httpserver/handler/families"
	"cras-cadastro/internal/transport/httpserver/handler/sessions"
	"cras-cadastro/pkg/logger"
)

type Handlers struct {
	Common   *common.Handlers
	Families *families.Handlers
	Sessions *sessions.Handlers
}

func New(service *familydomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Common:   common.New(log),
		Families: families.New(service, log),
		Sessions: sessions.New(service, log),
	}
}
