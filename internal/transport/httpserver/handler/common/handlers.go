package common

import (
	"cras-cadastro/pkg/logger"
)

type Handlers struct {
	log logger.Logger
}

func New(log logger.Logger) *Handlers {
	return &Handlers{
		log: log,
	}
}
