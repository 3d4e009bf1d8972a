package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mindmap/internal/codec"
	"mindmap/internal/domain"
	"mindmap/internal/engine"
)

// maxImportBytes bounds an uploaded snapshot
const maxImportBytes = 16 << 20

// GraphHandler handles graph API requests
type GraphHandler struct {
	eng      *engine.Engine
	validate *validator.Validate
	logger   *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(eng *engine.Engine, validate *validator.Validate, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{eng: eng, validate: validate, logger: logger}
}

// CreateNodeRequest adds a free node. A missing position lets the layout
// place it.
type CreateNodeRequest struct {
	Name     string        `json:"name" validate:"required"`
	Position *domain.Point `json:"position,omitempty"`
}

// CreateChildRequest adds a node linked to the parent in the path
type CreateChildRequest struct {
	Name string `json:"name" validate:"required"`
}

// ChildResponse is the created child and its link
type ChildResponse struct {
	Node domain.Node `json:"node"`
	Link domain.Link `json:"link"`
}

// RenameNodeRequest renames the node in the path
type RenameNodeRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateLinkRequest links two existing nodes
type CreateLinkRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// GetGraph returns the current nodes, links and viewport transform
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, h.eng.Frame(), http.StatusOK)
}

// CreateNode creates a new node
func (h *GraphHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, h.logger, "Invalid request body", err)
		return
	}

	node, err := h.eng.Store().AddNode(req.Name, req.Position)
	if err != nil {
		writeError(w, h.logger, "Failed to create node", err)
		return
	}
	writeJSON(w, h.logger, node, http.StatusCreated)
}

// CreateChild creates a node linked to an existing one
func (h *GraphHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var req CreateChildRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, h.logger, "Invalid request body", err)
		return
	}

	node, link, err := h.eng.Store().AddLinkedNode(chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeError(w, h.logger, "Failed to create child", err)
		return
	}
	writeJSON(w, h.logger, ChildResponse{Node: node, Link: link}, http.StatusCreated)
}

// RenameNode renames an existing node
func (h *GraphHandler) RenameNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req RenameNodeRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, h.logger, "Invalid request body", err)
		return
	}

	if err := h.eng.Store().RenameNode(id, req.Name); err != nil {
		writeError(w, h.logger, "Failed to rename node", err)
		return
	}

	node, _ := h.eng.Store().Node(id)
	writeJSON(w, h.logger, node, http.StatusOK)
}

// DeleteNode removes a node and its links. Deleting a missing node succeeds.
func (h *GraphHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	h.eng.Store().RemoveNode(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// CreateLink links two existing nodes
func (h *GraphHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, h.logger, "Invalid request body", err)
		return
	}

	link, err := h.eng.Store().AddLink(req.Source, req.Target)
	if err != nil {
		writeError(w, h.logger, "Failed to create link", err)
		return
	}
	writeJSON(w, h.logger, link, http.StatusCreated)
}

// ClearGraph resets the map to a lone root. The in-memory reset happens
// even when storage fails.
func (h *GraphHandler) ClearGraph(w http.ResponseWriter, r *http.Request) {
	if err := h.eng.Clear(r.Context()); err != nil {
		writeError(w, h.logger, "Failed to clear stored map", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export writes the map in the format named in the path
func (h *GraphHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	c, err := codec.Lookup(format)
	if err != nil {
		writeError(w, h.logger, "Unsupported format", err)
		return
	}

	w.Header().Set("Content-Type", contentType(c.Format()))
	w.Header().Set("Content-Disposition", "attachment; filename=mindmap."+format)
	if err := c.Export(h.eng.Store().Snapshot(), w); err != nil {
		// Can't write error response as we already set headers
		h.logger.Warn("failed to export", zap.String("format", format), zap.Error(err))
	}
}

// Import replaces the map with an uploaded snapshot
func (h *GraphHandler) Import(w http.ResponseWriter, r *http.Request) {
	c, err := codec.Lookup(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, h.logger, "Unsupported format", err)
		return
	}

	snap, err := c.Parse(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, h.logger, "Failed to parse snapshot", err)
		return
	}
	h.importSnapshot(w, r, snap)
}

// ImportDemo replaces the map with the bundled demo dataset
func (h *GraphHandler) ImportDemo(w http.ResponseWriter, r *http.Request) {
	snap, err := codec.Demo()
	if err != nil {
		writeError(w, h.logger, "Failed to load demo", err)
		return
	}
	h.importSnapshot(w, r, snap)
}

func (h *GraphHandler) importSnapshot(w http.ResponseWriter, r *http.Request, snap domain.Snapshot) {
	if err := h.eng.Import(r.Context(), snap); err != nil {
		writeError(w, h.logger, "Failed to save imported map", err)
		return
	}
	writeJSON(w, h.logger, h.eng.Frame(), http.StatusOK)
}

func contentType(format string) string {
	switch format {
	case "json":
		return "application/json"
	case "toml":
		return "application/toml"
	default:
		return "application/x-yaml"
	}
}
