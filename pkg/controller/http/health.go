package http

import (
	"net/http"

	"github.com/m-mizutani/carrot/pkg/domain/types"
)

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, &healthResponse{
		Status:  "healthy",
		Service: "carrot",
		Version: types.Version,
	})
}
