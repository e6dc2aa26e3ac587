package till

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"lntill/pkg/push"
	"lntill/pkg/task"
)

func settledTask(t *testing.T, amount, fee int64, checkingID string, extra map[string]any) *asynq.Task {
	t.Helper()

	rawExtra, err := json.Marshal(extra)
	require.NoError(t, err)
	payload, err := json.Marshal(SettledPayment{
		Amount:     amount,
		Fee:        fee,
		CheckingID: checkingID,
		Extra:      rawExtra,
	})
	require.NoError(t, err)

	return asynq.NewTask(task.PaymentSettled, payload)
}

func TestSettlementDeposit(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "Coffee"})
	require.NoError(t, err)

	tk := settledTask(t, 5000, 10, "chk-1", map[string]any{
		"tag":    "lntill",
		"tillId": created.ID,
	})
	require.NoError(t, svc.HandlePaymentSettled(ctx, tk))

	out, err := svc.GetTill(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5000), out.Total)

	require.Equal(t, []string{push.TillTopic(created.ID)}, pub.topics)

	var notice settlementNotice
	require.NoError(t, json.Unmarshal(pub.payloads[0], &notice))
	require.Equal(t, "Coffee", notice.Name)
	require.Equal(t, int64(5000), notice.Amount)
	require.Equal(t, int64(10), notice.Fee)
	require.Equal(t, "chk-1", notice.CheckingID)
}

func TestSettlementWithdraw(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "Coffee"})
	require.NoError(t, err)

	deposit := settledTask(t, 10000, 0, "chk-in", map[string]any{
		"tag":    "lntill",
		"tillId": created.ID,
	})
	require.NoError(t, svc.HandlePaymentSettled(ctx, deposit))

	withdraw := settledTask(t, 4000, 0, "chk-out", map[string]any{
		"tag":           "lntill",
		"tillId":        created.ID,
		"lnurlwithdraw": true,
	})
	require.NoError(t, svc.HandlePaymentSettled(ctx, withdraw))

	out, err := svc.GetTill(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(6000), out.Total)
}

func TestSettlementAppliedOnce(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "Coffee"})
	require.NoError(t, err)

	tk := settledTask(t, 5000, 0, "chk-dup", map[string]any{
		"tag":    "lntill",
		"tillId": created.ID,
	})

	// the queue redelivers, the balance must not double
	require.NoError(t, svc.HandlePaymentSettled(ctx, tk))
	require.NoError(t, svc.HandlePaymentSettled(ctx, tk))

	out, err := svc.GetTill(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5000), out.Total)
	require.Len(t, pub.topics, 1)
}

func TestSettlementIgnoresForeignTag(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "Coffee"})
	require.NoError(t, err)

	tk := settledTask(t, 5000, 0, "chk-foreign", map[string]any{
		"tag":    "somethingelse",
		"tillId": created.ID,
	})
	require.NoError(t, svc.HandlePaymentSettled(ctx, tk))

	out, err := svc.GetTill(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), out.Total)
	require.Empty(t, pub.topics)
}

func TestSettlementUnknownTillDropped(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	tk := settledTask(t, 5000, 0, "chk-ghost", map[string]any{
		"tag":    "lntill",
		"tillId": "no-such-till",
	})
	require.NoError(t, svc.HandlePaymentSettled(ctx, tk))
	require.Empty(t, pub.topics)
}

func TestSettlementBadPayloadSkipsRetry(t *testing.T) {
	svc, _, _ := newTestService(t)

	tk := asynq.NewTask(task.PaymentSettled, []byte("not json"))
	err := svc.HandlePaymentSettled(context.Background(), tk)
	require.Error(t, err)
	require.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestSettlementSurvivesPublishFailure(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()
	pub.err = errors.New("redis down")

	created, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "Coffee"})
	require.NoError(t, err)

	tk := settledTask(t, 5000, 0, "chk-pub", map[string]any{
		"tag":    "lntill",
		"tillId": created.ID,
	})
	require.NoError(t, svc.HandlePaymentSettled(ctx, tk))

	out, err := svc.GetTill(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5000), out.Total)
}
