package waiter

import (
	"net/http"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/bistroclub/bistro/internal/help"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the waiter desk over HTTP for the portal UI.
type Handler struct {
	desk   *Desk
	logger aqm.Logger
	config *aqm.Config
	tlm    *telemetry.HTTP
}

func NewHandler(desk *Desk, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		desk:   desk,
		logger: logger,
		config: config,
		tlm:    telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/requests", func(r chi.Router) {
		r.Get("/", h.ListRequests)
		r.Get("/selected", h.SelectedRequest)
		r.Post("/{id}/select", h.SelectRequest)
		r.Post("/{id}/resolve", h.ResolveRequest)
	})
	r.Get("/connection", h.ConnectionStatus)
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListRequests")
	defer finish()

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"requests":  h.desk.Requests(),
		"connected": h.desk.ConnectionStatus() == help.Connected,
	}, nil)
}

func (h *Handler) SelectedRequest(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SelectedRequest")
	defer finish()

	req, ok := h.desk.Selected()
	if !ok {
		aqm.RespondError(w, http.StatusNotFound, "No help request selected")
		return
	}
	aqm.Respond(w, http.StatusOK, req, nil)
}

func (h *Handler) SelectRequest(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SelectRequest")
	defer finish()

	req, ok := h.desk.Select(chi.URLParam(r, "id"))
	if !ok {
		aqm.RespondError(w, http.StatusNotFound, "Help request is no longer active")
		return
	}
	aqm.Respond(w, http.StatusOK, req, nil)
}

func (h *Handler) ResolveRequest(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ResolveRequest")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if err := h.desk.Resolve(ctx, id); err != nil {
		log.Errorf("cannot resolve help request %s: %v", id, err)
		aqm.RespondError(w, http.StatusBadGateway, "Failed to resolve request: "+err.Error())
		return
	}

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"requests": h.desk.Requests(),
	}, nil)
}

func (h *Handler) ConnectionStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ConnectionStatus")
	defer finish()

	status := h.desk.ConnectionStatus()
	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"status":    status.String(),
		"connected": status == help.Connected,
	}, nil)
}
