package admin

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gamemarket/internal/currency"
	"github.com/sudo-init-do/gamemarket/internal/security"
	"github.com/sudo-init-do/gamemarket/internal/store"
)

type ListingSecurityView struct {
	Listing          security.Listing      `json:"listing"`
	StatusNote       security.StatusNote   `json:"status_note"`
	SellerCanEdit    bool                  `json:"seller_can_edit"`
	Purchasable      bool                  `json:"purchasable"`
	AvailableActions []security.ActionKind `json:"available_actions"`
}

type OrderPaymentView struct {
	Order            security.Order      `json:"order"`
	ReleaseNote      security.StatusNote `json:"release_note"`
	Amount           string              `json:"amount"`
	AmountSettlement string              `json:"amount_settlement"`
	Logs             []security.Log      `json:"logs"`
}

// GET /admin/listings/:id/security?order_id=
func (h *Handler) ListingSecurity(c echo.Context) error {
	ctx := c.Request().Context()
	listing, err := h.Store.GetListing(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return h.serverError(c, "could not fetch listing", err)
	}

	var order *security.Order
	if id := c.QueryParam("order_id"); id != "" {
		if order, err = h.Store.GetOrder(ctx, id); err != nil {
			return h.serverError(c, "could not fetch order", err)
		}
	}

	actions := security.AvailableActions(listing, order)
	if actions == nil {
		actions = []security.ActionKind{}
	}
	return c.JSON(http.StatusOK, ListingSecurityView{
		Listing:          listing,
		StatusNote:       listing.Status.Describe(),
		SellerCanEdit:    listing.SellerCanEdit(),
		Purchasable:      listing.Purchasable(),
		AvailableActions: actions,
	})
}

// GET /admin/orders/:id/payment
func (h *Handler) OrderPayment(c echo.Context) error {
	ctx := c.Request().Context()
	order, err := h.Store.GetOrder(ctx, c.Param("id"))
	if err != nil {
		return h.serverError(c, "could not fetch order", err)
	}
	if order == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}

	view := OrderPaymentView{Order: *order, ReleaseNote: order.ReleaseStatus.Describe()}
	if s, err := currency.Format(order.EscrowAmount, order.Currency); err == nil {
		view.Amount = s
	}
	if converted, err := currency.Convert(order.EscrowAmount, order.Currency); err == nil {
		view.AmountSettlement, _ = currency.Format(converted, currency.Settlement)
	}

	view.Logs, err = h.Store.ListLogs(ctx, store.LogFilter{OrderID: order.ID, Limit: 20})
	if err != nil {
		return h.serverError(c, "could not fetch security logs", err)
	}
	if view.Logs == nil {
		view.Logs = []security.Log{}
	}
	return c.JSON(http.StatusOK, view)
}
