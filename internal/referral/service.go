package referral

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const orderDelivered = "delivered"

type Service struct {
	log *zap.Logger
}

func NewService(log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{log: log}
}

// ProcessReferralEarning credits the buyer's referrer for a delivered order.
// It returns false without error when the order does not qualify or was
// already settled, so repeating it never double-credits.
func (s *Service) ProcessReferralEarning(ctx context.Context, st Store, orderID int64) (bool, error) {
	log := s.log.With(zap.Int64("order_id", orderID))

	o, err := st.OrderReferral(ctx, orderID)
	if errors.Is(err, ErrOrderNotFound) {
		log.Info("referral skipped: order not found")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load order referral: %w", err)
	}
	if o.OrderStatus != orderDelivered {
		log.Info("referral skipped: order not delivered", zap.String("status", o.OrderStatus))
		return false, nil
	}
	if o.ReferrerID == nil {
		log.Debug("referral skipped: buyer has no referrer", zap.Int64("buyer_id", o.BuyerID))
		return false, nil
	}

	existing, err := st.FindByOrder(ctx, orderID)
	switch {
	case errors.Is(err, ErrNotFound):
		return s.createApproved(ctx, st, o)
	case err != nil:
		return false, fmt.Errorf("find earning: %w", err)
	}

	switch existing.Status {
	case StatusPending:
		if err := st.UpdateStatus(ctx, existing.ID, StatusApproved); err != nil {
			return false, fmt.Errorf("approve earning %d: %w", existing.ID, err)
		}
		if err := st.AdjustBalance(ctx, existing.UserID, existing.Amount); err != nil {
			return false, fmt.Errorf("credit referrer %d: %w", existing.UserID, err)
		}
		log.Info("pending referral earning approved",
			zap.Int64("earning_id", existing.ID), zap.String("amount", existing.Amount.StringFixed(2)))
		return true, nil
	default:
		log.Info("referral already settled", zap.Int64("earning_id", existing.ID), zap.String("status", string(existing.Status)))
		return false, nil
	}
}

func (s *Service) createApproved(ctx context.Context, st Store, o OrderReferral) (bool, error) {
	lines, err := st.CommissionLines(ctx, o.OrderID)
	if err != nil {
		return false, fmt.Errorf("load commission lines: %w", err)
	}
	rate, ok, err := st.DefaultCommissionRate(ctx)
	if err != nil {
		return false, fmt.Errorf("load commission rate: %w", err)
	}
	if !ok {
		rate = DefaultRate
	}

	amount := Commission(lines, rate)
	if !amount.IsPositive() {
		s.log.Info("referral skipped: zero commission", zap.Int64("order_id", o.OrderID))
		return false, nil
	}

	id, err := st.Create(ctx, Earning{
		UserID:  *o.ReferrerID,
		OrderID: o.OrderID,
		Amount:  amount,
		Status:  StatusApproved,
	})
	if err != nil {
		return false, fmt.Errorf("create earning: %w", err)
	}
	if err := st.AdjustBalance(ctx, *o.ReferrerID, amount); err != nil {
		return false, fmt.Errorf("credit referrer %d: %w", *o.ReferrerID, err)
	}

	s.log.Info("referral earning created",
		zap.Int64("order_id", o.OrderID),
		zap.Int64("earning_id", id),
		zap.Int64("referrer_id", *o.ReferrerID),
		zap.String("amount", amount.StringFixed(2)))
	return true, nil
}

// CancelReferralEarning marks the order's earning cancelled and takes back an
// already credited amount. The row is kept for history.
func (s *Service) CancelReferralEarning(ctx context.Context, st Store, orderID int64) (bool, error) {
	e, err := st.FindByOrder(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find earning: %w", err)
	}
	if e.Status == StatusCancelled {
		return false, nil
	}

	if err := st.UpdateStatus(ctx, e.ID, StatusCancelled); err != nil {
		return false, fmt.Errorf("cancel earning %d: %w", e.ID, err)
	}
	if e.Status == StatusApproved && e.Amount.IsPositive() {
		if err := st.AdjustBalance(ctx, e.UserID, e.Amount.Neg()); err != nil {
			return false, fmt.Errorf("debit referrer %d: %w", e.UserID, err)
		}
	}

	s.log.Info("referral earning cancelled",
		zap.Int64("order_id", orderID),
		zap.Int64("earning_id", e.ID),
		zap.String("was", string(e.Status)))
	return true, nil
}

func (s *Service) AvailableBalance(ctx context.Context, st Store, userID int64) (decimal.Decimal, error) {
	return st.AvailableBalance(ctx, userID)
}

// Withdraw books a pending withdrawal and debits the ledger by the same
// amount. st must be bound to a transaction; any error means the caller
// rolls back.
func (s *Service) Withdraw(ctx context.Context, st Store, userID int64, amount decimal.Decimal) (Withdrawal, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return Withdrawal{}, ErrInvalidAmount
	}
	if err := st.LockUser(ctx, userID); err != nil {
		return Withdrawal{}, err
	}

	available, err := st.AvailableBalance(ctx, userID)
	if err != nil {
		return Withdrawal{}, fmt.Errorf("load balance: %w", err)
	}
	if available.LessThan(amount) {
		return Withdrawal{}, fmt.Errorf("%w: available %s, requested %s",
			ErrInsufficientBalance, available.StringFixed(2), amount.StringFixed(2))
	}

	w := Withdrawal{UserID: userID, Amount: amount, Status: WithdrawalPending}
	if w.ID, err = st.CreateWithdrawal(ctx, w); err != nil {
		return Withdrawal{}, fmt.Errorf("create withdrawal: %w", err)
	}
	if w.EarningID, err = st.Create(ctx, Earning{UserID: userID, Amount: amount.Neg(), Status: StatusPaid}); err != nil {
		return Withdrawal{}, fmt.Errorf("create withdrawal earning: %w", err)
	}
	if err := st.AdjustBalance(ctx, userID, amount.Neg()); err != nil {
		return Withdrawal{}, fmt.Errorf("debit user %d: %w", userID, err)
	}
	w.Balance = available.Sub(amount)

	s.log.Info("referral withdrawal requested",
		zap.Int64("user_id", userID),
		zap.Int64("withdrawal_id", w.ID),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("balance", w.Balance.StringFixed(2)))
	return w, nil
}
