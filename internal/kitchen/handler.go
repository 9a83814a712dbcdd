package kitchen

import (
	"encoding/json"
	"net/http"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
)

const MaxBodyBytes = 1 << 20

// Handler exposes the kitchen board over HTTP for the portal UI.
type Handler struct {
	board  *Board
	logger aqm.Logger
	config *aqm.Config
	tlm    *telemetry.HTTP
}

func NewHandler(board *Board, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		board:  board,
		logger: logger,
		config: config,
		tlm:    telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/selected", h.SelectedOrder)
		r.Post("/{id}/select", h.SelectOrder)
		r.Post("/{id}/advance", h.AdvanceOrder)
		r.Post("/{id}/revert", h.RevertOrder)
	})
	r.Put("/filter", h.SetFilter)
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"orders": h.board.Orders(),
		"filter": h.board.Filter(),
	}, nil)
}

func (h *Handler) SelectedOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SelectedOrder")
	defer finish()

	order, ok := h.board.Selected()
	if !ok {
		aqm.RespondError(w, http.StatusNotFound, "No order selected")
		return
	}
	aqm.Respond(w, http.StatusOK, order, nil)
}

func (h *Handler) SelectOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SelectOrder")
	defer finish()

	h.board.Select(chi.URLParam(r, "id"))
	order, ok := h.board.Selected()
	if !ok {
		aqm.RespondError(w, http.StatusNotFound, "Order not on the board")
		return
	}
	aqm.Respond(w, http.StatusOK, order, nil)
}

func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AdvanceOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if err := h.board.Advance(ctx, id); err != nil {
		log.Errorf("cannot advance order %s: %v", id, err)
		aqm.RespondError(w, http.StatusBadGateway, "Failed to update order status. Please try again.")
		return
	}

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"orders": h.board.Orders(),
	}, nil)
}

func (h *Handler) RevertOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RevertOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if err := h.board.Revert(ctx, id); err != nil {
		log.Errorf("cannot revert order %s: %v", id, err)
		aqm.RespondError(w, http.StatusBadGateway, "Failed to update order status. Please try again.")
		return
	}

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"orders": h.board.Orders(),
	}, nil)
}

func (h *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetFilter")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	var req struct {
		Filter string `json:"filter"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid filter payload")
		return
	}

	if err := h.board.SetFilter(ctx, req.Filter); err != nil {
		log.Errorf("cannot apply filter %q: %v", req.Filter, err)
		aqm.RespondError(w, http.StatusBadRequest, "Unknown status filter")
		return
	}

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"orders": h.board.Orders(),
		"filter": h.board.Filter(),
	}, nil)
}
