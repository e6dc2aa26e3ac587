// Command settle enqueues a settled-payment delivery by hand. Useful for
// poking the listener on a development setup without a wallet backend.
package main

import (
	"encoding/json"
	"flag"
	"log"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"lntill/pkg/config"
	"lntill/pkg/logger"
	"lntill/pkg/task"
)

func main() {
	tillID := flag.String("till", "", "till id the payment belongs to")
	amount := flag.Int64("amount", 0, "amount in millisatoshis")
	fee := flag.Int64("fee", 0, "fee in millisatoshis")
	checkingID := flag.String("checking-id", "", "payment checking id")
	withdraw := flag.Bool("withdraw", false, "mark as a withdraw settlement")
	flag.Parse()

	if *tillID == "" || *checkingID == "" || *amount == 0 {
		log.Fatal("till, checking-id and amount are required")
	}

	app := fx.New(
		config.Module,
		logger.Module,
		task.Client,
		fx.Invoke(func(log *zap.Logger, enq task.Enqueuer) error {
			payload, err := json.Marshal(map[string]any{
				"amount":      *amount,
				"fee":         *fee,
				"checking_id": *checkingID,
				"extra": map[string]any{
					"tag":           "lntill",
					"tillId":        *tillID,
					"lnurlwithdraw": *withdraw,
				},
			})
			if err != nil {
				return err
			}

			info, err := enq.Enqueue(
				asynq.NewTask(task.PaymentSettled, payload),
				asynq.Queue(task.QueueSettlements),
			)
			if err != nil {
				return err
			}

			log.Info("settlement enqueued", zap.String("task_id", info.ID))
			return nil
		}),
		fx.NopLogger,
	)

	if err := app.Err(); err != nil {
		log.Fatalf("enqueue failed: %v", err)
	}
}
