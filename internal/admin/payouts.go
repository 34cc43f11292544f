package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/gamemarket/internal/currency"
	"github.com/sudo-init-do/gamemarket/internal/payout"
	"github.com/sudo-init-do/gamemarket/internal/security"
	"github.com/sudo-init-do/gamemarket/internal/store"
)

var (
	ErrPaymentNotReleased = errors.New("order payment has not been released")
	ErrOrderTermsFixed    = errors.New("amount, currency and reference come from the order")
)

// PayoutRequest sends money to a seller. With an order id the amount,
// currency and reference are those of the released escrow and cannot be overridden.
type PayoutRequest struct {
	OrderID           string           `json:"order_id"`
	Reference         string           `json:"reference"`
	Amount            *decimal.Decimal `json:"amount"`
	Currency          string           `json:"currency"`
	RecipientName     string           `json:"recipient_name"`
	RecipientDocument string           `json:"recipient_document"`
	PixKey            string           `json:"pix_key"`
	Description       string           `json:"description"`
}

// POST /admin/payouts
//
// The transfer row is reserved as pending before the provider is called, so
// a reference (an order id for escrow payouts) can be paid out only once.
// A failed attempt frees the reference.
func (h *Handler) CreatePayout(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body PayoutRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()

	req := payout.Request{
		Reference:         strings.TrimSpace(body.Reference),
		Currency:          currency.Settlement,
		RecipientName:     body.RecipientName,
		RecipientDocument: body.RecipientDocument,
		PixKey:            body.PixKey,
		Description:       body.Description,
	}
	if orderID := strings.TrimSpace(body.OrderID); orderID != "" {
		order, err := h.Store.GetOrder(ctx, orderID)
		if err != nil {
			return h.serverError(c, "could not fetch order", err)
		}
		if order == nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		if order.ReleaseStatus != security.ReleaseReleased {
			return c.JSON(http.StatusConflict, echo.Map{"error": ErrPaymentNotReleased.Error()})
		}
		if body.Amount != nil || body.Currency != "" || (req.Reference != "" && req.Reference != order.ID) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": ErrOrderTermsFixed.Error()})
		}
		req.Amount, req.Currency, req.Reference = order.EscrowAmount, order.Currency, order.ID
	} else {
		if body.Amount != nil {
			req.Amount = *body.Amount
		}
		if body.Currency != "" {
			code, err := currency.Parse(body.Currency)
			if err != nil {
				return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
			}
			req.Currency = code
		}
		if req.Reference == "" {
			req.Reference = uuid.NewString()
		}
	}

	quote, err := h.Payouts.Quote(req)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	transfer := store.Transfer{
		ID:                uuid.NewString(),
		Reference:         quote.Reference,
		Provider:          h.Payouts.ProviderName(),
		Status:            payout.StatusPending,
		OriginalAmount:    quote.Amount,
		OriginalCurrency:  quote.Currency,
		ConvertedAmount:   quote.Converted,
		ExchangeRate:      quote.Rate,
		RecipientName:     quote.RecipientName,
		RecipientDocument: quote.RecipientDocument,
		PixKey:            quote.PixKey,
		RequestedBy:       actor.ID,
		CreatedAt:         time.Now().UTC(),
	}
	if err := h.Store.SaveTransfer(ctx, transfer); err != nil {
		if errors.Is(err, store.ErrDuplicateTransfer) {
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "reference": transfer.Reference})
		}
		return h.serverError(c, "could not reserve payout", err)
	}

	receipt, err := h.Payouts.Send(ctx, quote)
	if err != nil {
		h.Metrics.ObserveTransfer(transfer.Provider, "error")
		transfer.Status, transfer.Message = payout.StatusFailed, "provider error"
		if uerr := h.Store.UpdateTransfer(ctx, transfer); uerr != nil {
			h.logTransferIssue(ctx, "payout failure not recorded", transfer, uerr)
		}
		return h.serverError(c, "payout provider error", err)
	}
	h.Metrics.ObserveTransfer(receipt.Provider, string(receipt.Status))

	transfer.TransactionID = receipt.TransactionID
	transfer.Status = receipt.Status
	transfer.Message = receipt.Message
	if err := h.Store.UpdateTransfer(ctx, transfer); err != nil {
		// the provider already accepted the transfer; surface its id so it can be reconciled
		h.logTransferIssue(ctx, "payout transfer not recorded", transfer, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":          "transfer sent but not recorded",
			"transaction_id": receipt.TransactionID,
		})
	}

	if h.Notifier != nil {
		if err := h.Notifier.NotifyPayout(ctx, transfer); err != nil {
			h.Metrics.ObserveAlertFailure("alert:payout_transfer")
		}
	}

	status := http.StatusCreated
	if receipt.Status == payout.StatusFailed {
		status = http.StatusBadGateway
	}
	return c.JSON(status, transfer)
}

func (h *Handler) logTransferIssue(ctx context.Context, msg string, t store.Transfer, err error) {
	if h.Logger == nil {
		return
	}
	h.Logger.ErrorContext(ctx, msg,
		"event", "payout_record_failed",
		"module", "admin",
		"transfer_id", t.ID,
		"reference", t.Reference,
		"transaction_id", t.TransactionID,
		"error", err.Error(),
	)
}

// GET /admin/payouts?limit=
func (h *Handler) ListPayouts(c echo.Context) error {
	limit := store.DefaultLogLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}
	transfers, err := h.Store.ListTransfers(c.Request().Context(), limit)
	if err != nil {
		return h.serverError(c, "could not fetch payouts", err)
	}
	if transfers == nil {
		transfers = []store.Transfer{}
	}
	return c.JSON(http.StatusOK, echo.Map{"payouts": transfers})
}
