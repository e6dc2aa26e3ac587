package till

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"lntill/pkg/errutil"
	"lntill/pkg/lnclient"
)

func requireStatus(t *testing.T, err error, status errutil.CoreStatus) {
	t.Helper()
	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, status, be.Code)
}

func TestCreateTill(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	out, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{
		Name:           "Coffee cart",
		PayAmount:      100,
		WithdrawAmount: 50,
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.ID)
	require.Equal(t, "wallet-1", out.WalletID)
	require.Equal(t, int64(100), out.PayAmount)
	require.Equal(t, int64(50), out.WithdrawAmount)
	require.Equal(t, int64(1), out.Ticker)
	require.Equal(t, int64(0), out.Total)
	require.True(t, len(out.LnurlPay) > 6)
	require.True(t, len(out.LnurlWithdraw) > 6)
	require.Equal(t, "LNURL1", out.LnurlPay[:6])
	require.Equal(t, "LNURL1", out.LnurlWithdraw[:6])
}

func TestGetTillNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetTill(context.Background(), "missing")
	requireStatus(t, err, errutil.StatusNotFound)
}

func TestListTillsFiltersByWallet(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "one"})
	require.NoError(t, err)
	_, err = svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "two"})
	require.NoError(t, err)
	_, err = svc.CreateTill(ctx, "wallet-2", CreateTillData{Name: "other"})
	require.NoError(t, err)

	out, err := svc.ListTills(ctx, "wallet-1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, till := range out {
		require.Equal(t, "wallet-1", till.WalletID)
	}
}

func TestUpdateTillOwnership(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "before", PayAmount: 10})
	require.NoError(t, err)

	_, err = svc.UpdateTill(ctx, caller("wallet-2"), created.ID, CreateTillData{Name: "hijack"})
	requireStatus(t, err, errutil.StatusForbidden)

	out, err := svc.UpdateTill(ctx, caller("wallet-1"), created.ID, CreateTillData{
		Name:           "after",
		PayAmount:      20,
		WithdrawAmount: 5,
	})
	require.NoError(t, err)
	require.Equal(t, "after", out.Name)
	require.Equal(t, int64(20), out.PayAmount)
	require.Equal(t, int64(5), out.WithdrawAmount)
	require.Equal(t, created.Ticker, out.Ticker)
}

func TestDeleteTill(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "temp"})
	require.NoError(t, err)

	err = svc.DeleteTill(ctx, caller("wallet-2"), created.ID)
	requireStatus(t, err, errutil.StatusForbidden)

	require.NoError(t, svc.DeleteTill(ctx, caller("wallet-1"), created.ID))

	_, err = svc.GetTill(ctx, created.ID)
	requireStatus(t, err, errutil.StatusNotFound)
}

func TestCreatePaymentInvoice(t *testing.T) {
	svc, engine, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "Shop", PayAmount: 100})
	require.NoError(t, err)

	invoice, err := svc.CreatePaymentInvoice(ctx, created.ID, 250, "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, invoice.PaymentRequest)

	require.Len(t, engine.createCalls, 1)
	call := engine.createCalls[0]
	require.Equal(t, "wallet-1", call.WalletID)
	require.Equal(t, int64(250), call.AmountSat)
	require.Equal(t, "Alice to Shop", call.Memo)
	require.Equal(t, "lntill", call.Extra["tag"])
	require.Equal(t, created.ID, call.Extra["tillId"])
}

func TestCreatePaymentInvoiceRejectsZeroAmount(t *testing.T) {
	svc, engine, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "Shop"})
	require.NoError(t, err)

	_, err = svc.CreatePaymentInvoice(ctx, created.ID, 0, "")
	requireStatus(t, err, errutil.StatusBadRequest)
	require.Empty(t, engine.createCalls)
}

func TestCreatePaymentInvoiceHidesEngineError(t *testing.T) {
	svc, engine, _ := newTestService(t)
	ctx := context.Background()

	engine.createFn = func(context.Context, string, int64, string, map[string]any) (lnclient.Invoice, error) {
		return lnclient.Invoice{}, errors.New("connection refused to 10.0.0.5:5000")
	}

	created, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "Shop"})
	require.NoError(t, err)

	_, err = svc.CreatePaymentInvoice(ctx, created.ID, 10, "")
	requireStatus(t, err, errutil.StatusInternal)
	// the backend address must not leak to callers
	require.NotContains(t, err.Error(), "10.0.0.5")
}

func TestDebtLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	inviter, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "inviter"})
	require.NoError(t, err)

	_, err = svc.CreateDebt(ctx, caller("wallet-2"), CreateDebtData{InviterID: inviter.ID, Outstanding: 500})
	requireStatus(t, err, errutil.StatusForbidden)

	debt, err := svc.CreateDebt(ctx, caller("wallet-1"), CreateDebtData{
		InviterID:   inviter.ID,
		Outstanding: 500,
		Currency:    "sat",
	})
	require.NoError(t, err)
	require.Equal(t, inviter.ID, debt.InviterID)
	require.Equal(t, "wallet-1", debt.InviterWallet)

	updated, err := svc.UpdateDebt(ctx, caller("wallet-1"), debt.ID, CreateDebtData{
		InviterID:   inviter.ID,
		Paid:        200,
		Outstanding: 300,
		Currency:    "sat",
	})
	require.NoError(t, err)
	require.Equal(t, int64(200), updated.Paid)
	require.Equal(t, int64(300), updated.Outstanding)

	_, err = svc.UpdateDebt(ctx, caller("wallet-2"), debt.ID, CreateDebtData{InviterID: inviter.ID})
	requireStatus(t, err, errutil.StatusForbidden)

	list, err := svc.ListDebts(ctx, caller("wallet-1"))
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestTransactionLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	from, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "from"})
	require.NoError(t, err)
	to, err := svc.CreateTill(ctx, "wallet-2", CreateTillData{Name: "to"})
	require.NoError(t, err)

	_, err = svc.CreateTransaction(ctx, caller("wallet-2"), CreateTransactionData{
		FromTillID: from.ID,
		ToTillID:   to.ID,
		Amount:     100,
	})
	requireStatus(t, err, errutil.StatusForbidden)

	_, err = svc.CreateTransaction(ctx, caller("wallet-1"), CreateTransactionData{
		FromTillID: from.ID,
		ToTillID:   "missing",
		Amount:     100,
	})
	requireStatus(t, err, errutil.StatusNotFound)

	tx, err := svc.CreateTransaction(ctx, caller("wallet-1"), CreateTransactionData{
		FromTillID: from.ID,
		ToTillID:   to.ID,
		Amount:     100,
		Currency:   "sat",
	})
	require.NoError(t, err)

	got, err := svc.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, tx.ID, got.ID)

	forFrom, err := svc.ListTransactions(ctx, from.ID)
	require.NoError(t, err)
	require.Len(t, forFrom, 1)

	forTo, err := svc.ListTransactions(ctx, to.ID)
	require.NoError(t, err)
	require.Len(t, forTo, 1)

	forOther, err := svc.ListTransactions(ctx, "unrelated")
	require.NoError(t, err)
	require.Empty(t, forOther)
}

func TestConsumeTicker(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTill(ctx, "wallet-1", CreateTillData{Name: "till"})
	require.NoError(t, err)

	ok, err := svc.consumeTicker(ctx, created.ID, 1)
	require.NoError(t, err)
	require.True(t, ok)

	// same ticker again, someone beat us to it
	ok, err = svc.consumeTicker(ctx, created.ID, 1)
	require.NoError(t, err)
	require.False(t, ok)

	out, err := svc.GetTill(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), out.Ticker)
}
