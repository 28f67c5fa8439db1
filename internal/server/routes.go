package server

import (
	"net/http"
)

func SetupRoutes(statusService *StatusService) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", statusService.GetHealth)
	mux.HandleFunc("/config", statusService.GetConfig)

	return mux
}
