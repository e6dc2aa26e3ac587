package till

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"lntill/pkg/push"
	"lntill/pkg/task"
)

// SettledPayment is what the wallet backend's watcher enqueues for every
// settled payment. Amounts are millisatoshis.
type SettledPayment struct {
	Amount     int64           `json:"amount"`
	Fee        int64           `json:"fee"`
	CheckingID string          `json:"checking_id"`
	Extra      json.RawMessage `json:"extra"`
}

type paymentExtra struct {
	Tag           string `json:"tag"`
	TillID        string `json:"tillId"`
	LnurlWithdraw bool   `json:"lnurlwithdraw"`
}

type settlementNotice struct {
	Name       string `json:"name"`
	Amount     int64  `json:"amount"`
	Fee        int64  `json:"fee"`
	CheckingID string `json:"checking_id"`
}

func registerListener(mux *asynq.ServeMux, s *Service) {
	mux.HandleFunc(task.PaymentSettled, s.HandlePaymentSettled)
}

// HandlePaymentSettled reconciles one settled payment against its till.
// Withdraw settlements decrease the running total, everything else increases
// it. Returning nil acknowledges the delivery; only storage failures are
// worth a redelivery.
func (s *Service) HandlePaymentSettled(ctx context.Context, t *asynq.Task) error {
	var payment SettledPayment
	if err := json.Unmarshal(t.Payload(), &payment); err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	var extra paymentExtra
	if len(payment.Extra) > 0 {
		if err := json.Unmarshal(payment.Extra, &extra); err != nil {
			return fmt.Errorf("invalid payment extra: %v: %w", err, asynq.SkipRetry)
		}
	}

	if extra.Tag != paymentTag {
		return nil
	}

	zapLog := zap.L().With(
		zap.String("task_type", t.Type()),
		zap.String("checking_id", payment.CheckingID),
		zap.String("till_id", extra.TillID),
	)

	// Redeliveries happen; the settlements table makes them no-ops.
	seen, err := s.settlements.FindOne(ctx, &Settlement{CheckingID: payment.CheckingID})
	if err != nil {
		return err
	}
	if seen != nil {
		zapLog.Debug("settlement already applied")
		return nil
	}

	record, err := s.tills.FindOne(ctx, &Till{ID: extra.TillID})
	if err != nil {
		return err
	}
	if record == nil {
		zapLog.Warn("settlement for unknown till, dropping")
		return nil
	}

	delta := payment.Amount
	if extra.LnurlWithdraw {
		delta = -delta
	}

	if err := s.applySettlement(ctx, record.ID, delta, payment); err != nil {
		return err
	}

	notice, _ := json.Marshal(settlementNotice{
		Name:       record.Name,
		Amount:     payment.Amount,
		Fee:        payment.Fee,
		CheckingID: payment.CheckingID,
	})
	if err := s.pub.Publish(ctx, push.TillTopic(record.ID), notice); err != nil {
		// The balance is already durable; losing a notification is fine.
		zapLog.Warn("failed to publish settlement notice", zap.Error(err))
	}

	zapLog.Info("settlement applied", zap.Int64("delta_msat", delta))
	return nil
}

// applySettlement records the checking id and moves the total in one
// transaction, with the balance change as a single-statement relative
// update rather than read-modify-write.
func (s *Service) applySettlement(ctx context.Context, tillID string, deltaMsat int64, payment SettledPayment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&Settlement{
			CheckingID: payment.CheckingID,
			TillID:     tillID,
			Amount:     payment.Amount,
			Extra:      datatypes.JSON(payment.Extra),
		}).Error; err != nil {
			return err
		}
		return tx.Model(&Till{}).
			Where("id = ?", tillID).
			Update("total", gorm.Expr("total + ?", deltaMsat)).Error
	})
}
