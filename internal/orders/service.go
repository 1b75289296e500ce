package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/referral"
)

const defaultPageSize = 20

// Service runs the order lifecycle operations. Store and Referrals are
// required; Events, Cache and Log may be nil.
type Service struct {
	Store     Store
	Referrals ReferralService
	Events    EventPublisher
	Cache     StatusCache
	Log       *zap.Logger

	now func() time.Time
}

type StatusUpdate struct {
	Order           Order
	Previous        Status
	ReferralSettled bool
}

type CancelRequest struct {
	OrderID int64
	BuyerID int64
	Reason  string
}

type Cancellation struct {
	Order     Order
	CancelLog CancelLog
	Restocked []RestockedItem
}

// Viewer is who asks for an order's status.
type Viewer struct {
	UserID int64
	Admin  bool
}

type StatusSnapshot struct {
	OrderID   int64     `json:"order_id"`
	BuyerID   int64     `json:"buyer_id"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateStatus sets an order's status on behalf of an admin. Moving into
// delivered settles the referral commission and moving into cancelled
// reverses it, in the same transaction as the status write.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, target Status) (StatusUpdate, error) {
	if !IsAdminSettable(target) {
		return StatusUpdate{}, fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}
	log := s.logger().With(zap.Int64("order_id", orderID), zap.String("target", string(target)))

	var res StatusUpdate
	err := s.Store.InTx(ctx, func(tx Tx) error {
		o, err := tx.Orders().FindForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		res.Previous = o.Status

		upd := OrderUpdate{Status: target, DeliveredAt: o.DeliveredAt}
		if target == StatusDelivered && o.DeliveredAt == nil {
			t := s.clock()
			upd.DeliveredAt = &t
		}
		// written even when unchanged; side effects below only fire on change
		if err := tx.Orders().Update(ctx, orderID, upd); err != nil {
			return fmt.Errorf("write status: %w", err)
		}

		switch {
		case target == StatusDelivered && o.Status != StatusDelivered:
			res.ReferralSettled, err = s.Referrals.ProcessReferralEarning(ctx, tx.Referrals(), orderID)
			if err != nil {
				return fmt.Errorf("process referral earning: %w", err)
			}
		case target == StatusCancelled && o.Status != StatusCancelled:
			res.ReferralSettled, err = s.Referrals.CancelReferralEarning(ctx, tx.Referrals(), orderID)
			if err != nil {
				return fmt.Errorf("cancel referral earning: %w", err)
			}
		}

		res.Order, err = tx.Orders().Find(ctx, orderID)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) {
			log.Error("order status update rolled back", zap.Error(err))
		}
		return StatusUpdate{}, err
	}

	s.invalidate(ctx, orderID)
	log.Info("order status updated",
		zap.String("from", string(res.Previous)),
		zap.Bool("referral_settled", res.ReferralSettled))

	if res.Previous != target {
		s.publish(ctx, TopicStatusChanged, EventOrderStatusChanged, orderID, StatusChangedPayload{
			OrderID:        orderID,
			Invoice:        res.Order.Invoice,
			SellerID:       res.Order.SellerID,
			From:           res.Previous,
			To:             target,
			ReferralSettle: res.ReferralSettled,
		})
	}
	return res, nil
}

// Cancel is the buyer-initiated cancellation: it files a cancel log, puts
// every line item back in stock and marks the order cancelled, all or
// nothing. It does not touch referral earnings.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) (Cancellation, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return Cancellation{}, ErrReasonRequired
	}
	log := s.logger().With(zap.Int64("order_id", req.OrderID), zap.Int64("buyer_id", req.BuyerID))

	var (
		res  Cancellation
		from Status
	)
	err := s.Store.InTx(ctx, func(tx Tx) error {
		o, err := tx.Orders().FindForUpdate(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if o.BuyerID != req.BuyerID {
			return ErrForbidden
		}
		if !CanCancel(o.Status) {
			return fmt.Errorf("%w: status is %s", ErrNotCancellable, o.Status)
		}
		from = o.Status

		items, err := tx.Orders().Items(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		sellerID, err := ResolveSellerID(ctx, o, items, tx.Products().Find)
		if err != nil {
			return fmt.Errorf("resolve seller: %w", err)
		}

		res.CancelLog = CancelLog{
			OrderID:  o.ID,
			SellerID: sellerID,
			Reason:   reason,
			Status:   CancelProcessing,
		}
		if res.CancelLog.ID, err = tx.CancelLogs().Create(ctx, res.CancelLog); err != nil {
			return fmt.Errorf("create cancel log: %w", err)
		}

		for _, it := range items {
			err := tx.Products().UpdateStock(ctx, it.ProductID, it.Quantity)
			if errors.Is(err, ErrProductNotFound) {
				log.Warn("restock skipped: product no longer exists", zap.Int64("product_id", it.ProductID))
				continue
			}
			if err != nil {
				return fmt.Errorf("restock product %d: %w", it.ProductID, err)
			}
			res.Restocked = append(res.Restocked, RestockedItem{ProductID: it.ProductID, Qty: it.Quantity})
		}

		if err := tx.Orders().Update(ctx, o.ID, OrderUpdate{Status: StatusCancelled, DeliveredAt: o.DeliveredAt}); err != nil {
			return fmt.Errorf("write status: %w", err)
		}
		res.Order, err = tx.Orders().Find(ctx, o.ID)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrForbidden), errors.Is(err, ErrNotCancellable):
			log.Info("cancellation rejected", zap.Error(err))
		default:
			log.Error("cancellation rolled back", zap.Error(err))
		}
		return Cancellation{}, err
	}

	s.invalidate(ctx, req.OrderID)
	log.Info("order cancelled by buyer",
		zap.Int64("cancel_log_id", res.CancelLog.ID),
		zap.Int("restocked", len(res.Restocked)))

	s.publish(ctx, TopicOrderCancelled, EventOrderCancelled, req.OrderID, OrderCancelledPayload{
		OrderID:     res.Order.ID,
		Invoice:     res.Order.Invoice,
		BuyerID:     res.Order.BuyerID,
		SellerID:    res.CancelLog.SellerID,
		CancelLogID: res.CancelLog.ID,
		Reason:      reason,
		From:        from,
		Total:       res.Order.Total,
		Restocked:   res.Restocked,
	})
	return res, nil
}

// OrderStatus answers from the cache when it can. Only the buyer or an
// admin may see it.
func (s *Service) OrderStatus(ctx context.Context, orderID int64, v Viewer) (StatusSnapshot, error) {
	snap, ok := StatusSnapshot{}, false
	if s.Cache != nil {
		snap, ok = s.Cache.Get(ctx, orderID)
	}
	if !ok {
		o, err := s.Store.Read().Orders().Find(ctx, orderID)
		if err != nil {
			return StatusSnapshot{}, err
		}
		snap = StatusSnapshot{OrderID: o.ID, BuyerID: o.BuyerID, Status: o.Status, UpdatedAt: o.UpdatedAt}
		if s.Cache != nil {
			s.Cache.Set(ctx, snap)
		}
	}
	if !v.Admin && snap.BuyerID != v.UserID {
		return StatusSnapshot{}, ErrForbidden
	}
	return snap, nil
}

// ReviewCancellation moves a cancel log along once the refund is settled.
func (s *Service) ReviewCancellation(ctx context.Context, cancelLogID int64, st CancelStatus) (CancelLog, error) {
	if !st.Valid() {
		return CancelLog{}, fmt.Errorf("%w: %q", ErrInvalidCancelStatus, st)
	}

	var c CancelLog
	err := s.Store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.CancelLogs().Find(ctx, cancelLogID); err != nil {
			return err
		}
		if err := tx.CancelLogs().UpdateStatus(ctx, cancelLogID, st); err != nil {
			return fmt.Errorf("update cancel log: %w", err)
		}
		var err error
		c, err = tx.CancelLogs().Find(ctx, cancelLogID)
		return err
	})
	if err != nil {
		return CancelLog{}, err
	}

	s.logger().Info("cancellation reviewed",
		zap.Int64("cancel_log_id", c.ID),
		zap.Int64("order_id", c.OrderID),
		zap.String("status", string(st)))
	s.publish(ctx, TopicCancellationReviewed, EventCancellationReviewed, c.OrderID, CancellationReviewedPayload{
		CancelLogID: c.ID,
		OrderID:     c.OrderID,
		SellerID:    c.SellerID,
		Status:      c.Status,
	})
	return c, nil
}

func (s *Service) ListCancellations(ctx context.Context, f CancelFilter) ([]CancelLog, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCancelStatus, f.Status)
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.Store.Read().CancelLogs().List(ctx, f)
}

// ReferralBalance is the user's referral ledger sum: approved credits less
// paid withdrawals.
func (s *Service) ReferralBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.Store.Read().Referrals().AvailableBalance(ctx, userID)
}

// WithdrawReferral books a withdrawal of amount from the user's referral
// balance. The balance check and the debit share one transaction.
func (s *Service) WithdrawReferral(ctx context.Context, userID int64, amount decimal.Decimal) (referral.Withdrawal, error) {
	var w referral.Withdrawal
	err := s.Store.InTx(ctx, func(tx Tx) error {
		var err error
		w, err = s.Referrals.Withdraw(ctx, tx.Referrals(), userID, amount)
		return err
	})
	if err != nil {
		return referral.Withdrawal{}, err
	}
	return w, nil
}

func (s *Service) invalidate(ctx context.Context, orderID int64) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, orderID)
	}
}

func (s *Service) publish(ctx context.Context, topic, eventType string, orderID int64, payload any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, topic, eventType, orderID, payload); err != nil {
		s.logger().Warn("publish event failed",
			zap.String("event_type", eventType),
			zap.Int64("order_id", orderID),
			zap.Error(err))
	}
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}
