package server

import (
	"net/http"

	"appforge/internal/server/middleware"
)

func NewMux(h *Handler) http.Handler {
	mux := http.NewServeMux()

	// Conversation
	mux.HandleFunc("POST /api/sessions", h.handleStartSession)
	mux.HandleFunc("POST /api/sessions/{id}/messages", h.handleSendMessage)
	mux.HandleFunc("GET /api/sessions/{id}", h.handleGetContext)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.handleCloseSession)

	// Generation
	mux.HandleFunc("POST /api/sessions/{id}/generate", h.handleGenerate)
	mux.HandleFunc("GET /api/builds/{id}/file", h.handleGetBuildFile)

	// ML lifecycle
	mux.HandleFunc("POST /api/ml/usecases", h.handleCreateUseCase)
	mux.HandleFunc("GET /api/ml/usecases", h.handleListUseCases)
	mux.HandleFunc("GET /api/ml/usecases/{id}", h.handleGetUseCase)
	mux.HandleFunc("POST /api/ml/usecases/{id}/train", h.handleTrainModel)
	mux.HandleFunc("POST /api/ml/usecases/{id}/archive", h.handleArchiveUseCase)
	mux.HandleFunc("GET /api/ml/usecases/{id}/models", h.handleListModels)
	mux.HandleFunc("POST /api/ml/models/{id}/deploy", h.handleDeployModel)

	// Event stream
	mux.HandleFunc("GET /ws/sessions/{id}", h.handleSessionWS)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return middleware.CORS(mux)
}
