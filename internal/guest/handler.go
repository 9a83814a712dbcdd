package guest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/bistroclub/bistro/internal/cart"
	"github.com/bistroclub/bistro/internal/help"
	"github.com/bistroclub/bistro/internal/menu"
	"github.com/bistroclub/bistro/internal/orders"
	"github.com/bistroclub/bistro/internal/table"
	"github.com/go-chi/chi/v5"
)

const MaxBodyBytes = 1 << 20

// Submitter is the slice of the order client the handler uses for checkout.
type Submitter interface {
	Submit(ctx context.Context, lines []cart.Line, tableID string) (*orders.Order, error)
}

// HelpSender is the outbound slice of the help channel.
type HelpSender interface {
	SendHelpRequest(ctx context.Context, tableNumber, message string) error
	Status() help.Status
}

// Handler is the guest-facing HTTP surface: menu browsing, cart operations,
// table selection, checkout and help requests.
type Handler struct {
	catalog   *menu.Catalog
	cart      *cart.Engine
	tables    *table.Context
	submitter Submitter
	helpdesk  HelpSender
	logger    aqm.Logger
	config    *aqm.Config
	tlm       *telemetry.HTTP

	// Guards against double submission: no idempotency key is attached to
	// orders, so only one checkout may be in flight at a time.
	submitting atomic.Bool
}

func NewHandler(catalog *menu.Catalog, engine *cart.Engine, tables *table.Context, submitter Submitter, helpdesk HelpSender, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		catalog:   catalog,
		cart:      engine,
		tables:    tables,
		submitter: submitter,
		helpdesk:  helpdesk,
		logger:    logger,
		config:    config,
		tlm:       telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/menu", func(r chi.Router) {
		r.Get("/", h.ListMenu)
		r.Get("/categories", h.ListCategories)
		r.Get("/modifications", h.ListModifications)
	})
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddToCart)
		r.Patch("/items/{cartId}", h.UpdateQuantity)
		r.Delete("/items/{cartId}", h.RemoveFromCart)
	})
	r.Route("/table", func(r chi.Router) {
		r.Get("/", h.GetTable)
		r.Put("/{id}", h.SetTable)
		r.Delete("/", h.ClearTable)
	})
	r.Post("/checkout", h.Checkout)
	r.Post("/help", h.RequestHelp)
	r.Get("/help/connection", h.HelpConnection)
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListMenu")
	defer finish()

	category := r.URL.Query().Get("category")
	query := r.URL.Query().Get("q")

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"items": h.catalog.Filter(category, query),
	}, nil)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListCategories")
	defer finish()

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"categories": h.catalog.Categories(),
	}, nil)
}

func (h *Handler) ListModifications(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListModifications")
	defer finish()

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"modifications": h.catalog.Modifications(),
	}, nil)
}

func (h *Handler) cartPayload() map[string]interface{} {
	return map[string]interface{}{
		"lines":       h.cart.Lines(),
		"total_price": h.cart.TotalPrice(),
		"total_items": h.cart.TotalItems(),
	}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetCart")
	defer finish()

	aqm.Respond(w, http.StatusOK, h.cartPayload(), nil)
}

// AddToCartRequest configures one item selection from the product modal.
type AddToCartRequest struct {
	ItemID          int    `json:"id"`
	Quantity        int    `json:"quantity"`
	ModificationIDs []int  `json:"modification_ids"`
	Instructions    string `json:"instructions"`
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddToCart")
	defer finish()

	var req AddToCartRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid cart payload")
		return
	}

	item, err := h.catalog.Find(req.ItemID)
	if err != nil {
		aqm.RespondError(w, http.StatusNotFound, "Menu item not found")
		return
	}

	mods := make([]menu.Modification, 0, len(req.ModificationIDs))
	for _, id := range req.ModificationIDs {
		mod, err := h.catalog.FindModification(id)
		if err != nil {
			aqm.RespondError(w, http.StatusBadRequest, "Unknown modification")
			return
		}
		mods = append(mods, mod)
	}

	h.cart.Add(cart.NewLine(item, req.Quantity, mods, req.Instructions))
	aqm.Respond(w, http.StatusOK, h.cartPayload(), nil)
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateQuantity")
	defer finish()

	cartID, err := strconv.ParseInt(chi.URLParam(r, "cartId"), 10, 64)
	if err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid cart line ID")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid quantity payload")
		return
	}

	h.cart.UpdateQuantity(cartID, req.Quantity)
	aqm.Respond(w, http.StatusOK, h.cartPayload(), nil)
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveFromCart")
	defer finish()

	cartID, err := strconv.ParseInt(chi.URLParam(r, "cartId"), 10, 64)
	if err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid cart line ID")
		return
	}

	h.cart.Remove(cartID)
	aqm.Respond(w, http.StatusOK, h.cartPayload(), nil)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearCart")
	defer finish()

	h.cart.Clear()
	aqm.Respond(w, http.StatusOK, h.cartPayload(), nil)
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetTable")
	defer finish()

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"table_id":  h.tables.ID(),
		"has_table": h.tables.Has(),
	}, nil)
}

func (h *Handler) SetTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetTable")
	defer finish()

	id := chi.URLParam(r, "id")
	if id == "" {
		aqm.RespondError(w, http.StatusBadRequest, "Missing table ID")
		return
	}

	h.tables.Set(id)
	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"table_id": h.tables.ID(),
	}, nil)
}

func (h *Handler) ClearTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearTable")
	defer finish()

	h.tables.Clear()
	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"table_id": "",
	}, nil)
}

// Checkout submits the cart as an order. Exactly one submission may be in
// flight; the cart is cleared only after the backend confirms the order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Checkout")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	if !h.submitting.CompareAndSwap(false, true) {
		aqm.RespondError(w, http.StatusConflict, "Order submission already in progress")
		return
	}
	defer h.submitting.Store(false)

	lines := h.cart.Lines()
	if len(lines) == 0 {
		aqm.RespondError(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	order, err := h.submitter.Submit(ctx, lines, h.tables.ID())
	if err != nil {
		log.Errorf("order submission failed: %v", err)
		var subErr *orders.SubmissionError
		if errors.As(err, &subErr) && subErr.StatusCode != 0 {
			aqm.RespondError(w, http.StatusBadGateway, subErr.Error())
			return
		}
		aqm.RespondError(w, http.StatusBadGateway, "Order could not be placed. Please try again.")
		return
	}

	h.cart.Clear()
	aqm.Respond(w, http.StatusCreated, map[string]interface{}{
		"order": order,
	}, nil)
}

func (h *Handler) RequestHelp(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RequestHelp")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	var req struct {
		Message string `json:"message"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid help payload")
		return
	}

	if !h.tables.Has() {
		aqm.RespondError(w, http.StatusBadRequest, "No table selected")
		return
	}

	if err := h.helpdesk.SendHelpRequest(ctx, h.tables.ID(), req.Message); err != nil {
		log.Errorf("help request failed: %v", err)
		aqm.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}

	aqm.Respond(w, http.StatusAccepted, map[string]interface{}{
		"status": "requested",
	}, nil)
}

// HelpConnection reports the help channel state so the UI can disable the
// help button while the hub is unreachable.
func (h *Handler) HelpConnection(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.HelpConnection")
	defer finish()

	status := h.helpdesk.Status()
	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"status":    status.String(),
		"connected": status == help.Connected,
	}, nil)
}
