package httpx

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	kafkax "github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/kafka"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/orders"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/referral"
)

type OrderService interface {
	UpdateStatus(ctx context.Context, orderID int64, target orders.Status) (orders.StatusUpdate, error)
	Cancel(ctx context.Context, req orders.CancelRequest) (orders.Cancellation, error)
	OrderStatus(ctx context.Context, orderID int64, v orders.Viewer) (orders.StatusSnapshot, error)
	ReviewCancellation(ctx context.Context, cancelLogID int64, st orders.CancelStatus) (orders.CancelLog, error)
	ListCancellations(ctx context.Context, f orders.CancelFilter) ([]orders.CancelLog, error)
	ReferralBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	WithdrawReferral(ctx context.Context, userID int64, amount decimal.Decimal) (referral.Withdrawal, error)
}

const cancelsPageSize = 20

type OrdersHandler struct {
	Service OrderService
	Auth    *Authenticator
	Log     *zap.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.Middleware)

		r.Post("/orders/cancel/{id}", h.cancelOrder)
		r.Get("/orders/{id}/status", h.orderStatus)
		r.Get("/referrals/balance", h.referralBalance)
		r.Post("/referrals/withdraw", h.withdrawReferral)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Post("/orders/update-status/{id}", h.updateStatus)
			r.Get("/cancels", h.listCancels)
			r.Post("/cancels/{id}/status", h.reviewCancel)
		})
	})
}

func (h *OrdersHandler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// fail answers an error either as JSON or as flash + redirect, and logs
// server-side failures with their detail.
func (h *OrdersHandler) fail(w http.ResponseWriter, r *http.Request, rc RequestContext, err error, fallback, redirectTo string) {
	ae := classify(err, fallback)
	if ae.Code >= http.StatusInternalServerError {
		h.logger().Error(fallback,
			zap.String("path", r.URL.Path),
			zap.String("request_id", rc.RequestID),
			zap.Int64("user_id", rc.Identity.UserID),
			zap.Error(err))
	}
	if rc.AJAX || redirectTo == "" {
		writeError(w, ae)
		return
	}
	redirectWithFlash(w, r, redirectTo, "error", ae.Message)
}

func (h *OrdersHandler) reqCtx(r *http.Request, rc RequestContext, d time.Duration) (context.Context, context.CancelFunc) {
	ctx := kafkax.WithTraceID(r.Context(), rc.RequestID)
	return context.WithTimeout(ctx, d)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	const back = "/admin/orders"
	rc, err := newRequestContext(r)
	if err != nil {
		h.fail(w, r, rc, err, "Error updating order status", back)
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, rc, err, "Error updating order status", back)
		return
	}
	status := orders.Status(rc.Field("status"))

	ctx, cancel := h.reqCtx(r, rc, 10*time.Second)
	defer cancel()

	res, err := h.Service.UpdateStatus(ctx, orderID, status)
	if err != nil {
		h.fail(w, r, rc, err, "Error updating order status", back)
		return
	}

	const msg = "Order status updated successfully"
	if rc.AJAX {
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg, Data: map[string]any{
			"order_id":         res.Order.ID,
			"previous_status":  res.Previous,
			"status":           res.Order.Status,
			"referral_settled": res.ReferralSettled,
		}})
		return
	}
	redirectWithFlash(w, r, back, "success", msg)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	const back = "/orders"
	rc, err := newRequestContext(r)
	if err != nil {
		h.fail(w, r, rc, err, "Error cancelling order", back)
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, rc, err, "Error cancelling order", back)
		return
	}

	ctx, cancel := h.reqCtx(r, rc, 10*time.Second)
	defer cancel()

	res, err := h.Service.Cancel(ctx, orders.CancelRequest{
		OrderID: orderID,
		BuyerID: rc.Identity.UserID,
		Reason:  rc.Field("reason"),
	})
	if err != nil {
		h.fail(w, r, rc, err, "Error cancelling order", back)
		return
	}

	const msg = "Order cancellation request submitted successfully"
	if rc.AJAX {
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg, Data: map[string]any{
			"order_id":      res.Order.ID,
			"status":        res.Order.Status,
			"cancel_log_id": res.CancelLog.ID,
		}})
		return
	}
	redirectWithFlash(w, r, back, "success", msg)
}

func (h *OrdersHandler) orderStatus(w http.ResponseWriter, r *http.Request) {
	rc, _ := newRequestContext(r)
	orderID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, rc, err, "Error loading order", "")
		return
	}

	ctx, cancel := h.reqCtx(r, rc, 3*time.Second)
	defer cancel()

	snap, err := h.Service.OrderStatus(ctx, orderID, orders.Viewer{UserID: rc.Identity.UserID, Admin: rc.Identity.IsAdmin()})
	if err != nil {
		h.fail(w, r, rc, err, "Error loading order", "")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: snap})
}

func (h *OrdersHandler) listCancels(w http.ResponseWriter, r *http.Request) {
	rc, _ := newRequestContext(r)
	page, _ := strconv.Atoi(rc.Field("page"))
	if page < 1 {
		page = 1
	}
	f := orders.CancelFilter{
		Status: orders.CancelStatus(rc.Field("status")),
		Limit:  cancelsPageSize,
		Offset: (page - 1) * cancelsPageSize,
	}

	ctx, cancel := h.reqCtx(r, rc, 5*time.Second)
	defer cancel()

	logs, err := h.Service.ListCancellations(ctx, f)
	if err != nil {
		h.fail(w, r, rc, err, "Error loading cancellations", "")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]any{
		"page":    page,
		"cancels": logs,
	}})
}

func (h *OrdersHandler) reviewCancel(w http.ResponseWriter, r *http.Request) {
	const back = "/admin/cancels"
	rc, err := newRequestContext(r)
	if err != nil {
		h.fail(w, r, rc, err, "Error updating cancellation", back)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, rc, err, "Error updating cancellation", back)
		return
	}

	ctx, cancel := h.reqCtx(r, rc, 5*time.Second)
	defer cancel()

	c, err := h.Service.ReviewCancellation(ctx, id, orders.CancelStatus(rc.Field("status")))
	if err != nil {
		h.fail(w, r, rc, err, "Error updating cancellation", back)
		return
	}

	const msg = "Cancellation status updated"
	if rc.AJAX {
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg, Data: c})
		return
	}
	redirectWithFlash(w, r, back, "success", msg)
}

func (h *OrdersHandler) referralBalance(w http.ResponseWriter, r *http.Request) {
	rc, _ := newRequestContext(r)
	ctx, cancel := h.reqCtx(r, rc, 3*time.Second)
	defer cancel()

	bal, err := h.Service.ReferralBalance(ctx, rc.Identity.UserID)
	if err != nil {
		h.fail(w, r, rc, err, "Error loading referral balance", "")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]string{
		"available_balance": bal.StringFixed(2),
	}})
}

func (h *OrdersHandler) withdrawReferral(w http.ResponseWriter, r *http.Request) {
	const back = "/referrals"
	rc, err := newRequestContext(r)
	if err != nil {
		h.fail(w, r, rc, err, "Error processing withdrawal", back)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(rc.Field("amount")))
	if err != nil {
		h.fail(w, r, rc, newAppError(http.StatusBadRequest, "Invalid withdrawal amount", err), "", back)
		return
	}

	ctx, cancel := h.reqCtx(r, rc, 5*time.Second)
	defer cancel()

	wd, err := h.Service.WithdrawReferral(ctx, rc.Identity.UserID, amount)
	if err != nil {
		h.fail(w, r, rc, err, "Error processing withdrawal", back)
		return
	}

	const msg = "Withdrawal request submitted successfully"
	if rc.AJAX {
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg, Data: map[string]any{
			"withdrawal_id":     wd.ID,
			"amount":            wd.Amount.StringFixed(2),
			"status":            wd.Status,
			"available_balance": wd.Balance.StringFixed(2),
		}})
		return
	}
	redirectWithFlash(w, r, back, "success", msg)
}
