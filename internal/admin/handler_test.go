package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/gamemarket/internal/auth"
	"github.com/sudo-init-do/gamemarket/internal/logging"
	"github.com/sudo-init-do/gamemarket/internal/metrics"
	mware "github.com/sudo-init-do/gamemarket/internal/middleware"
	"github.com/sudo-init-do/gamemarket/internal/payout"
	"github.com/sudo-init-do/gamemarket/internal/security"
	"github.com/sudo-init-do/gamemarket/internal/store"
)

type testServer struct {
	e        *echo.Echo
	store    *memStore
	tokens   *auth.Tokens
	notifier *recordingNotifier
	provider *payout.MockProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	m := newMemStore()
	tokens := auth.NewTokens("test-secret", time.Hour)
	notifier := &recordingNotifier{}
	provider := payout.NewMockProvider()
	collectors := metrics.New()

	h := &Handler{
		Service:  newTestService(m, WithNotifier(notifier), WithMetrics(collectors)),
		Store:    m,
		Payouts:  payout.NewService(provider),
		Notifier: notifier,
		Metrics:  collectors,
		Logger:   logging.Discard(),
	}
	for _, a := range []auth.Actor{master, staff} {
		m.users[a.ID] = store.UserSummary{ID: a.ID, Username: a.Username, Role: a.Role, IsActive: true}
	}

	e := echo.New()
	h.Register(e.Group("/admin", mware.JWTMiddleware(tokens, m), mware.AdminGuard))
	return &testServer{e: e, store: m, tokens: tokens, notifier: notifier, provider: provider}
}

func (s *testServer) do(t *testing.T, actor auth.Actor, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := s.tokens.Issue(actor)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestApplyAction_HTTP(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	seedListing(s.store, "l-1", security.ListingInTransferSecurity, 1)
	seedOrder(s.store, "o-1", "l-1", security.OrderPaid, security.ReleaseHeld)

	t.Run("staff without master role", func(t *testing.T) {
		rec := s.do(t, staff, http.MethodPost, "/admin/security/actions",
			`{"listing_id":"l-1","action":"block","reason":"fraud report received"}`)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("release with warning", func(t *testing.T) {
		rec := s.do(t, master, http.MethodPost, "/admin/security/actions",
			`{"listing_id":"l-1","order_id":"o-1","action":"release_payment","reason":"buyer confirmed in chat"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		out := decode[Outcome](t, rec)
		require.Equal(t, security.WarnTransferNotConfirmed, out.Warning)
		require.Equal(t, security.ReleaseReleased, out.Order.ReleaseStatus)
		require.Equal(t, master.ID, out.Log.PerformedBy)
		require.Len(t, s.notifier.security, 1)
	})

	t.Run("repeat release conflicts", func(t *testing.T) {
		rec := s.do(t, master, http.MethodPost, "/admin/security/actions",
			`{"listing_id":"l-1","order_id":"o-1","action":"release_payment","reason":"buyer confirmed in chat"}`)
		require.Equal(t, http.StatusConflict, rec.Code)
		body := decode[map[string]string](t, rec)
		require.Equal(t, security.ErrAlreadyReleased.Error(), body["error"])
		require.Equal(t, string(security.RejectPrecondition), body["kind"])
	})

	t.Run("short reason", func(t *testing.T) {
		rec := s.do(t, master, http.MethodPost, "/admin/security/actions",
			`{"listing_id":"l-1","action":"block","reason":"bad"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown order", func(t *testing.T) {
		rec := s.do(t, master, http.MethodPost, "/admin/security/actions",
			`{"listing_id":"l-1","order_id":"o-404","action":"refund_payment","reason":"buyer asked for refund"}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown listing", func(t *testing.T) {
		rec := s.do(t, master, http.MethodPost, "/admin/security/actions",
			`{"listing_id":"ghost","action":"block","reason":"fraud report received"}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		s.store.mu.Lock()
		s.store.failRead = errDatabaseDown
		s.store.mu.Unlock()
		defer func() {
			s.store.mu.Lock()
			s.store.failRead = nil
			s.store.mu.Unlock()
		}()

		rec := s.do(t, master, http.MethodPost, "/admin/security/actions",
			`{"listing_id":"l-1","action":"block","reason":"fraud report received"}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Contains(t, rec.Body.String(), "operation failed")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := s.do(t, master, http.MethodPost, "/admin/security/actions", `{"listing_id":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReadEndpoints(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	seedListing(s.store, "l-1", security.ListingActive, 1)
	seedOrder(s.store, "o-1", "l-1", security.OrderPaid, security.ReleaseHeld)

	rec := s.do(t, master, http.MethodPost, "/admin/security/actions",
		`{"listing_id":"l-1","action":"lock_for_transfer","reason":"buyer paid, starting"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("listing security view", func(t *testing.T) {
		rec := s.do(t, staff, http.MethodGet, "/admin/listings/l-1/security?order_id=o-1", "")
		require.Equal(t, http.StatusOK, rec.Code)

		view := decode[ListingSecurityView](t, rec)
		require.Equal(t, security.ListingInTransferSecurity, view.Listing.Status)
		require.False(t, view.SellerCanEdit)
		require.False(t, view.Purchasable)
		require.Equal(t, []security.ActionKind{
			security.ActionConfirmTransfer,
			security.ActionBlock,
			security.ActionReleasePayment,
			security.ActionRefundPayment,
		}, view.AvailableActions)

		require.Equal(t, http.StatusNotFound, s.do(t, staff, http.MethodGet, "/admin/listings/nope/security", "").Code)
	})

	t.Run("order payment view", func(t *testing.T) {
		rec := s.do(t, staff, http.MethodGet, "/admin/orders/o-1/payment", "")
		require.Equal(t, http.StatusOK, rec.Code)

		view := decode[OrderPaymentView](t, rec)
		require.Equal(t, "$ 30.00", view.Amount)
		require.Equal(t, "R$ 156.00", view.AmountSettlement)
		require.Equal(t, security.ReleaseHeld.Describe(), view.ReleaseNote)
		require.Empty(t, view.Logs)

		require.Equal(t, http.StatusNotFound, s.do(t, staff, http.MethodGet, "/admin/orders/nope/payment", "").Code)
	})

	t.Run("logs", func(t *testing.T) {
		rec := s.do(t, staff, http.MethodGet, "/admin/security/logs?listing_id=l-1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string][]security.Log](t, rec)
		require.Len(t, body["logs"], 1)
		require.Equal(t, security.AuditAccountMarkedInTransfer, body["logs"][0].ActionType)

		rec = s.do(t, staff, http.MethodGet, "/admin/security/logs?action_type=account_unblocked", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, decode[map[string][]security.Log](t, rec)["logs"])

		require.Equal(t, http.StatusBadRequest, s.do(t, staff, http.MethodGet, "/admin/security/logs?action_type=deleted", "").Code)
		require.Equal(t, http.StatusBadRequest, s.do(t, staff, http.MethodGet, "/admin/security/logs?limit=-1", "").Code)
	})

	t.Run("stats", func(t *testing.T) {
		rec := s.do(t, staff, http.MethodGet, "/admin/stats", "")
		require.Equal(t, http.StatusOK, rec.Code)
		stats := decode[store.Stats](t, rec)
		require.Equal(t, 1, stats.Listings[security.ListingInTransferSecurity])
		require.Equal(t, 1, stats.Orders[security.ReleaseHeld])
		require.Equal(t, 1, stats.SecurityLogs)
	})
}

func TestUsers_HTTP(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.store.users["u-1"] = store.UserSummary{ID: "u-1", Username: "seller", Role: auth.RoleSeller, IsActive: true}

	t.Run("staff cannot change account status", func(t *testing.T) {
		require.Equal(t, http.StatusForbidden, s.do(t, staff, http.MethodPost, "/admin/users/"+master.ID+"/suspend", "").Code)
		require.Equal(t, http.StatusForbidden, s.do(t, staff, http.MethodPost, "/admin/users/u-1/suspend", "").Code)
		require.True(t, s.store.users[master.ID].IsActive)
		require.True(t, s.store.users["u-1"].IsActive)
	})

	t.Run("master suspends and activates", func(t *testing.T) {
		rec := s.do(t, master, http.MethodPost, "/admin/users/u-1/suspend", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.False(t, s.store.users["u-1"].IsActive)

		rec = s.do(t, master, http.MethodPost, "/admin/users/u-1/activate", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, s.store.users["u-1"].IsActive)

		require.Equal(t, http.StatusNotFound, s.do(t, master, http.MethodPost, "/admin/users/u-9/suspend", "").Code)
		require.Equal(t, http.StatusBadRequest, s.do(t, master, http.MethodPost, "/admin/users/"+master.ID+"/suspend", "").Code)
	})

	t.Run("list", func(t *testing.T) {
		rec := s.do(t, staff, http.MethodGet, "/admin/users", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, decode[map[string][]store.UserSummary](t, rec)["users"], 3)
	})
}

func TestStaleTokens_HTTP(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	seedListing(s.store, "l-1", security.ListingActive, 1)
	block := `{"listing_id":"l-1","action":"block","reason":"fraud report received"}`

	t.Run("demoted master loses security actions", func(t *testing.T) {
		s.store.setRole(master.ID, auth.RoleAdmin)
		defer s.store.setRole(master.ID, auth.RoleAdminMaster)

		rec := s.do(t, master, http.MethodPost, "/admin/security/actions", block)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, security.ListingActive, s.store.listings["l-1"].Status)
	})

	t.Run("suspended master is refused", func(t *testing.T) {
		require.NoError(t, s.store.SetUserActive(context.Background(), master.ID, false))
		defer func() { require.NoError(t, s.store.SetUserActive(context.Background(), master.ID, true)) }()

		rec := s.do(t, master, http.MethodPost, "/admin/security/actions", block)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Zero(t, s.store.logCount())
	})

	t.Run("deleted account is unauthenticated", func(t *testing.T) {
		ghost := auth.Actor{ID: "gone", Username: "gone", Role: auth.RoleAdminMaster}
		rec := s.do(t, ghost, http.MethodPost, "/admin/security/actions", block)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("reinstated master acts", func(t *testing.T) {
		rec := s.do(t, master, http.MethodPost, "/admin/security/actions", block)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func TestPayouts_HTTP(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	seedListing(s.store, "l-1", security.ListingTransferredConfirmed, 1)
	seedOrder(s.store, "o-held", "l-1", security.OrderPaid, security.ReleaseHeld)
	released := seedOrder(s.store, "o-paid", "l-1", security.OrderCompleted, security.ReleaseReleased)
	recipient := `"recipient_name":"Seller One","recipient_document":"123.456.789-00","pix_key":"seller@pix"`

	t.Run("requires master", func(t *testing.T) {
		rec := s.do(t, staff, http.MethodPost, "/admin/payouts", `{"order_id":"o-paid",`+recipient+`}`)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("order must be released", func(t *testing.T) {
		rec := s.do(t, master, http.MethodPost, "/admin/payouts", `{"order_id":"o-held",`+recipient+`}`)
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("order escrow is converted and recorded", func(t *testing.T) {
		rec := s.do(t, master, http.MethodPost, "/admin/payouts", `{"order_id":"o-paid",`+recipient+`}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		tr := decode[store.Transfer](t, rec)
		require.Equal(t, released.ID, tr.Reference)
		require.Equal(t, "mock", tr.Provider)
		require.Equal(t, payout.StatusCompleted, tr.Status)
		require.Equal(t, "156.00", tr.ConvertedAmount.StringFixed(2))
		require.Equal(t, master.ID, tr.RequestedBy)
		require.Len(t, s.notifier.transfers, 1)
	})

	t.Run("released escrow is paid out once", func(t *testing.T) {
		rec := s.do(t, master, http.MethodPost, "/admin/payouts", `{"order_id":"o-paid",`+recipient+`}`)
		require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
		require.Len(t, s.store.transfersFor(released.ID), 1)
		require.Len(t, s.notifier.transfers, 1)
	})

	t.Run("order terms cannot be overridden", func(t *testing.T) {
		for _, body := range []string{
			`{"order_id":"o-paid","amount":"999999",` + recipient + `}`,
			`{"order_id":"o-paid","currency":"BRL",` + recipient + `}`,
			`{"order_id":"o-paid","reference":"other-ref",` + recipient + `}`,
		} {
			rec := s.do(t, master, http.MethodPost, "/admin/payouts", body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
		}
		require.Len(t, s.store.transfersFor(released.ID), 1)
	})

	t.Run("failed attempt frees the reference", func(t *testing.T) {
		s.provider.Fail = true
		rec := s.do(t, master, http.MethodPost, "/admin/payouts", `{"amount":"10","reference":"manual-1",`+recipient+`}`)
		require.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
		require.Equal(t, payout.StatusFailed, decode[store.Transfer](t, rec).Status)

		s.provider.Fail = false
		rec = s.do(t, master, http.MethodPost, "/admin/payouts", `{"amount":"10","reference":"manual-1",`+recipient+`}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.Len(t, s.store.transfersFor("manual-1"), 2)
	})

	t.Run("validation", func(t *testing.T) {
		rec := s.do(t, master, http.MethodPost, "/admin/payouts", `{"amount":"10","currency":"BTC",`+recipient+`}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		rec = s.do(t, master, http.MethodPost, "/admin/payouts", `{"amount":"0",`+recipient+`}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		rec = s.do(t, master, http.MethodPost, "/admin/payouts", `{"amount":"10","pix_key":"x"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("list", func(t *testing.T) {
		rec := s.do(t, staff, http.MethodGet, "/admin/payouts", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, decode[map[string][]store.Transfer](t, rec)["payouts"], 3)
	})
}
