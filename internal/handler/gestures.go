package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mindmap/internal/domain"
	"mindmap/internal/engine"
	"mindmap/internal/interaction"
	"mindmap/internal/prompt"
	"mindmap/internal/viewport"
)

// GestureHandler relays renderer input to the engine
type GestureHandler struct {
	eng      *engine.Engine
	validate *validator.Validate
	logger   *zap.Logger
}

// NewGestureHandler creates a new gesture handler
func NewGestureHandler(eng *engine.Engine, validate *validator.Validate, logger *zap.Logger) *GestureHandler {
	return &GestureHandler{eng: eng, validate: validate, logger: logger}
}

// ViewportRequest reports a resize, a pan/zoom, or both
type ViewportRequest struct {
	Size      *viewport.Size    `json:"size,omitempty"`
	Transform *domain.Transform `json:"transform,omitempty"`
}

// FitRequest zooms to show every node
type FitRequest struct {
	Padding float64 `json:"padding" validate:"gte=0"`
}

// Activate handles a click or right click
func (h *GestureHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.pointer(w, r, h.eng.Controller().Activate)
}

// DragStart handles the start of a node drag
func (h *GestureHandler) DragStart(w http.ResponseWriter, r *http.Request) {
	h.pointer(w, r, h.eng.Controller().DragStart)
}

// DragMove handles pointer movement during a drag
func (h *GestureHandler) DragMove(w http.ResponseWriter, r *http.Request) {
	h.pointer(w, r, h.eng.Controller().DragMove)
}

// DragEnd handles the end of a drag
func (h *GestureHandler) DragEnd(w http.ResponseWriter, r *http.Request) {
	h.pointer(w, r, h.eng.Controller().DragEnd)
}

// pointer decodes a pointer event and hands it to fn. Effects arrive on the
// event stream, so the request is only acknowledged.
func (h *GestureHandler) pointer(w http.ResponseWriter, r *http.Request, fn func(context.Context, interaction.Pointer)) {
	var p interaction.Pointer
	if err := decode(r, h.validate, &p); err != nil {
		writeError(w, h.logger, "Invalid pointer event", err)
		return
	}
	fn(r.Context(), p)
	w.WriteHeader(http.StatusAccepted)
}

// UpdateViewport applies a resize and/or a transform from the renderer
func (h *GestureHandler) UpdateViewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, h.logger, "Invalid viewport", err)
		return
	}
	if req.Size != nil {
		h.eng.Resize(*req.Size)
	}
	if req.Transform != nil {
		h.eng.SetTransform(*req.Transform)
	}
	writeJSON(w, h.logger, h.eng.Frame().Transform, http.StatusOK)
}

// FitViewport animates the viewport to show the whole map
func (h *GestureHandler) FitViewport(w http.ResponseWriter, r *http.Request) {
	req := FitRequest{Padding: 40}
	if r.ContentLength != 0 {
		if err := decode(r, h.validate, &req); err != nil {
			writeError(w, h.logger, "Invalid fit request", err)
			return
		}
	}
	if !h.eng.Fit(req.Padding) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ListPrompts returns the open rename and delete questions
func (h *GestureHandler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, h.eng.Prompts().Pending(), http.StatusOK)
}

// AnswerPrompt resolves an open question
func (h *GestureHandler) AnswerPrompt(w http.ResponseWriter, r *http.Request) {
	var a prompt.Answer
	if err := decode(r, h.validate, &a); err != nil {
		writeError(w, h.logger, "Invalid answer", err)
		return
	}
	if err := h.eng.Prompts().Answer(chi.URLParam(r, "id"), a); err != nil {
		writeError(w, h.logger, "Failed to answer prompt", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
