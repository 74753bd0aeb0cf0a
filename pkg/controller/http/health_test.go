package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	controller "github.com/m-mizutani/carrot/pkg/controller/http"
)

func TestHealthEndpoint(t *testing.T) {
	server, err := controller.NewServer(
		context.Background(),
		&mockWebhookUseCase{},
		controller.WithAddr("localhost:0"),
		controller.WithGitLabToken("test-token"),
	)
	gt.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	gt.Number(t, w.Code).Equal(http.StatusOK)

	var status map[string]string
	gt.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	gt.Value(t, status["status"]).Equal("healthy")
	gt.Value(t, status["service"]).Equal("carrot")
	gt.Value(t, status["version"] == "").Equal(false)
}
