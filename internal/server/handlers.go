package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"appforge/internal/codegen"
	"appforge/internal/conversation"
	"appforge/internal/mlops"
	"appforge/internal/spec"
	"appforge/internal/synth"
	"appforge/internal/treestore"
)

// Handler owns the HTTP surface: conversation endpoints, app generation,
// and the ML lifecycle.
type Handler struct {
	conversations *conversation.Manager
	generator     *codegen.Engine
	ml            *mlops.Service
	trees         treestore.Store

	// genCache memoizes generated trees by spec id and version. Safe
	// because generation is deterministic apart from the README stamp.
	genCache *lru.Cache[string, codegen.FileTree]
}

func NewHandler(conv *conversation.Manager, engine *codegen.Engine, ml *mlops.Service, trees treestore.Store) *Handler {
	cache, err := lru.New[string, codegen.FileTree](256)
	if err != nil {
		cache = nil
	}
	return &Handler{
		conversations: conv,
		generator:     engine,
		ml:            ml,
		trees:         trees,
		genCache:      cache,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	// Body is optional; an anonymous session is fine.
	_ = json.NewDecoder(r.Body).Decode(&req)

	id := h.conversations.StartSession(strings.TrimSpace(req.UserID))
	ctx, err := h.conversations.Context(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": id,
		"messages":   ctx.Messages,
	})
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.conversations.SendMessage(r.Context(), sessionID, req.Message)
	if errors.Is(err, conversation.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) handleGetContext(w http.ResponseWriter, r *http.Request) {
	ctx, err := h.conversations.Context(r.PathValue("id"))
	if errors.Is(err, conversation.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ctx)
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if !h.conversations.CloseSession(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerate compiles the session's current specification into a full
// application tree and persists it under a build id.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	current, err := h.conversations.CurrentSpec(sessionID)
	if errors.Is(err, conversation.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if current == nil {
		writeError(w, http.StatusConflict, "no active specification to generate from")
		return
	}

	if res := spec.Validate(current); !res.Valid() {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "specification does not validate",
			"violations": res.Violations,
		})
		return
	}

	buildID := current.ID + "-v" + current.Version
	tree, ok := h.cachedTree(buildID)
	if !ok {
		tree, err = h.generator.Generate(current)
		if err != nil {
			var genErr *codegen.GenerationError
			if errors.As(err, &genErr) {
				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"error":    "generation failed",
					"artifact": genErr.Artifact,
					"detail":   genErr.Err.Error(),
				})
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if h.genCache != nil {
			h.genCache.Add(buildID, tree)
		}
	}

	if h.trees != nil {
		if err := h.trees.WriteTree(r.Context(), buildID, tree); err != nil {
			writeError(w, http.StatusInternalServerError, "persist build: "+err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"build_id": buildID,
		"version":  current.Version,
		"files":    tree.Paths(),
	})
}

func (h *Handler) cachedTree(buildID string) (codegen.FileTree, bool) {
	if h.genCache == nil {
		return nil, false
	}
	return h.genCache.Get(buildID)
}

func (h *Handler) handleGetBuildFile(w http.ResponseWriter, r *http.Request) {
	buildID := r.PathValue("id")
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if h.trees == nil {
		writeError(w, http.StatusNotFound, "build storage is not configured")
		return
	}
	if r.URL.Query().Get("presign") == "true" {
		if signer, ok := h.trees.(treestore.URLSigner); ok {
			url, err := signer.GetURL(r.Context(), buildID, path)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"url": url})
			return
		}
		// Local storage has no links to hand out; fall through and stream.
	}
	data, err := h.trees.ReadFile(r.Context(), buildID, path)
	if errors.Is(err, treestore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(data)
}

func (h *Handler) handleCreateUseCase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppID string `json:"app_id"`
		synth.UseCaseRequest
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	uc, err := h.ml.CreateUseCase(req.AppID, req.UseCaseRequest)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, uc)
}

func (h *Handler) handleListUseCases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ml.ListUseCases(strings.TrimSpace(r.URL.Query().Get("app_id"))))
}

func (h *Handler) handleGetUseCase(w http.ResponseWriter, r *http.Request) {
	uc, err := h.ml.GetUseCase(r.PathValue("id"))
	if errors.Is(err, mlops.ErrUseCaseNotFound) {
		writeError(w, http.StatusNotFound, "use case not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, uc)
}

func (h *Handler) handleTrainModel(w http.ResponseWriter, r *http.Request) {
	model, err := h.ml.TrainModel(r.PathValue("id"))
	if err != nil {
		writeMLError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

func (h *Handler) handleDeployModel(w http.ResponseWriter, r *http.Request) {
	model, err := h.ml.DeployModel(r.PathValue("id"))
	if err != nil {
		writeMLError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

func (h *Handler) handleArchiveUseCase(w http.ResponseWriter, r *http.Request) {
	uc, err := h.ml.ArchiveUseCase(r.PathValue("id"))
	if err != nil {
		writeMLError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uc)
}

func (h *Handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ml.ListModels(r.PathValue("id")))
}

func writeMLError(w http.ResponseWriter, err error) {
	var trErr *mlops.TransitionError
	switch {
	case errors.Is(err, mlops.ErrUseCaseNotFound), errors.Is(err, mlops.ErrModelNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &trErr):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
