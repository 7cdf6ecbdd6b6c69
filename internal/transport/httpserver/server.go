package httpserver

import (
	"net/http"
	"time"

	"cras-cadastro/internal/config"
)

func New(cfg config.Config, handler http.Handler) *http.Server {
	return NewOnPort(cfg.HTTPPort, handler)
}

func NewOnPort(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
