package till

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lntill/pkg/config"
	"lntill/pkg/errutil"
	"lntill/pkg/lnclient"
	"lntill/pkg/lnurl"
	"lntill/pkg/push"
	"lntill/pkg/repository"
	"lntill/pkg/util"
	"lntill/services/wallet"
)

// paymentTag marks invoices created by this service so the settlement
// listener can tell its payments apart from everything else on the backend.
const paymentTag = "lntill"

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	cfg    *config.Config
	engine lnclient.InvoiceEngine
	pub    push.Publisher
	sub    push.Subscriber

	tills        repository.Repository[Till]
	debts        repository.Repository[Debt]
	transactions repository.Repository[Transaction]
	settlements  repository.Repository[Settlement]
}

type Params struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
	Engine lnclient.InvoiceEngine
	Pub    push.Publisher
	Sub    push.Subscriber `optional:"true"`
}

func NewService(p Params) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		cfg:    p.Config,
		engine: p.Engine,
		pub:    p.Pub,
		sub:    p.Sub,

		tills:        repository.ProvideStore[Till](p.DB),
		debts:        repository.ProvideStore[Debt](p.DB),
		transactions: repository.ProvideStore[Transaction](p.DB),
		settlements:  repository.ProvideStore[Settlement](p.DB),
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Till{}, &Debt{}, &Transaction{}, &Settlement{})
}

// ======================================================
// Till CRUD
// ======================================================

func (s *Service) CreateTill(ctx context.Context, walletID string, data CreateTillData) (*TillResponse, error) {
	t := &Till{
		ID:             util.ShortHash(),
		WalletID:       walletID,
		Name:           data.Name,
		PayAmount:      data.PayAmount,
		WithdrawAmount: data.WithdrawAmount,
		Ticker:         1,
	}
	if err := s.tills.Create(ctx, t); err != nil {
		return nil, err
	}
	return s.respond(t), nil
}

func (s *Service) GetTill(ctx context.Context, tillID string) (*TillResponse, error) {
	t, err := s.tills.FindOne(ctx, &Till{ID: tillID})
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errutil.NotFound("till does not exist")
	}
	return s.respond(t), nil
}

func (s *Service) ListTills(ctx context.Context, walletID string) ([]*TillResponse, error) {
	rows, err := s.tills.Find(ctx, &Till{WalletID: walletID})
	if err != nil {
		return nil, err
	}
	out := make([]*TillResponse, 0, len(rows))
	for _, t := range rows {
		out = append(out, s.respond(t))
	}
	return out, nil
}

// UpdateTill only touches the configurable fields. Total and ticker move
// through the settlement listener and the withdraw callback respectively.
func (s *Service) UpdateTill(ctx context.Context, caller *wallet.Wallet, tillID string, data CreateTillData) (*TillResponse, error) {
	t, err := s.tills.FindOne(ctx, &Till{ID: tillID})
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errutil.NotFound("till does not exist")
	}
	if t.WalletID != caller.ID {
		return nil, errutil.Forbidden("not your till")
	}

	if err := s.tills.Update(ctx, tillID, map[string]any{
		"name":            data.Name,
		"pay_amount":      data.PayAmount,
		"withdraw_amount": data.WithdrawAmount,
	}); err != nil {
		return nil, err
	}
	return s.GetTill(ctx, tillID)
}

func (s *Service) DeleteTill(ctx context.Context, caller *wallet.Wallet, tillID string) error {
	t, err := s.tills.FindOne(ctx, &Till{ID: tillID})
	if err != nil {
		return err
	}
	if t == nil {
		return errutil.NotFound("till does not exist")
	}
	if t.WalletID != caller.ID {
		return errutil.Forbidden("not your till")
	}
	return s.tills.Delete(ctx, tillID)
}

// CreatePaymentInvoice asks the wallet backend for a tagged invoice so the
// settlement listener can reconcile it once paid.
func (s *Service) CreatePaymentInvoice(ctx context.Context, tillID string, amountSat int64, memo string) (lnclient.Invoice, error) {
	t, err := s.tills.FindOne(ctx, &Till{ID: tillID})
	if err != nil {
		return lnclient.Invoice{}, err
	}
	if t == nil {
		return lnclient.Invoice{}, errutil.NotFound("till does not exist")
	}
	if amountSat < 1 {
		return lnclient.Invoice{}, errutil.BadRequest("amount must be at least 1 sat")
	}

	if memo != "" {
		memo = memo + " to " + t.Name
	} else {
		memo = t.Name
	}

	invoice, err := s.engine.CreateInvoice(ctx, t.WalletID, amountSat, memo, map[string]any{
		"tag":    paymentTag,
		"tillId": t.ID,
		"amount": amountSat,
	})
	if err != nil {
		zap.L().Error("invoice creation failed", zap.String("till_id", tillID), zap.Error(err))
		return lnclient.Invoice{}, errutil.Internal("could not create invoice")
	}
	return invoice, nil
}

// consumeTicker advances the ticker only if it still holds the value the
// withdraw token was derived from. A false return means someone else already
// redeemed this capability; the caller must not pay.
func (s *Service) consumeTicker(ctx context.Context, tillID string, ticker int64) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&Till{}).
		Where("id = ? AND ticker = ?", tillID, ticker).
		Update("ticker", gorm.Expr("ticker + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ======================================================
// Debt CRUD
// ======================================================

func (s *Service) CreateDebt(ctx context.Context, caller *wallet.Wallet, data CreateDebtData) (*Debt, error) {
	inviter, err := s.tills.FindOne(ctx, &Till{ID: data.InviterID})
	if err != nil {
		return nil, err
	}
	if inviter == nil {
		return nil, errutil.NotFound("inviter till does not exist")
	}
	if inviter.WalletID != caller.ID {
		return nil, errutil.Forbidden("not your till")
	}

	d := &Debt{
		ID:            s.node.Generate().String(),
		InviterID:     inviter.ID,
		InviterWallet: inviter.WalletID,
		Paid:          data.Paid,
		Outstanding:   data.Outstanding,
		Currency:      data.Currency,
	}
	if err := s.debts.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) GetDebt(ctx context.Context, debtID string) (*Debt, error) {
	d, err := s.debts.FindOne(ctx, &Debt{ID: debtID})
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errutil.NotFound("debt does not exist")
	}
	return d, nil
}

func (s *Service) ListDebts(ctx context.Context, caller *wallet.Wallet) ([]*Debt, error) {
	return s.debts.Find(ctx, &Debt{InviterWallet: caller.ID})
}

func (s *Service) UpdateDebt(ctx context.Context, caller *wallet.Wallet, debtID string, data CreateDebtData) (*Debt, error) {
	d, err := s.debts.FindOne(ctx, &Debt{ID: debtID})
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errutil.NotFound("debt does not exist")
	}
	if d.InviterWallet != caller.ID {
		return nil, errutil.Forbidden("not your debt")
	}

	if err := s.debts.Update(ctx, debtID, map[string]any{
		"paid":        data.Paid,
		"outstanding": data.Outstanding,
		"currency":    data.Currency,
	}); err != nil {
		return nil, err
	}
	return s.GetDebt(ctx, debtID)
}

// ======================================================
// Transaction ledger (append-only)
// ======================================================

func (s *Service) CreateTransaction(ctx context.Context, caller *wallet.Wallet, data CreateTransactionData) (*Transaction, error) {
	from, err := s.tills.FindOne(ctx, &Till{ID: data.FromTillID})
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, errutil.NotFound("from till does not exist")
	}
	if from.WalletID != caller.ID {
		return nil, errutil.Forbidden("not your till")
	}
	to, err := s.tills.FindOne(ctx, &Till{ID: data.ToTillID})
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, errutil.NotFound("to till does not exist")
	}

	tx := &Transaction{
		ID:         s.node.Generate().String(),
		FromTillID: data.FromTillID,
		ToTillID:   data.ToTillID,
		Amount:     data.Amount,
		Currency:   data.Currency,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *Service) GetTransaction(ctx context.Context, txID string) (*Transaction, error) {
	tx, err := s.transactions.FindOne(ctx, &Transaction{ID: txID})
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, errutil.NotFound("transaction does not exist")
	}
	return tx, nil
}

func (s *Service) ListTransactions(ctx context.Context, tillID string) ([]*Transaction, error) {
	var rows []*Transaction
	q := s.db.WithContext(ctx).Model(&Transaction{}).Order("created_at DESC")
	if tillID != "" {
		q = q.Where("from_till_id = ? OR to_till_id = ?", tillID, tillID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ======================================================
// Helpers
// ======================================================

func (s *Service) baseURL() string {
	return strings.TrimRight(s.cfg.PublicURL, "/")
}

func (s *Service) payURL(tillID string) string {
	return s.baseURL() + "/till/api/v1/lnurl/pay/" + tillID
}

func (s *Service) payCallbackURL(tillID string) string {
	return s.baseURL() + "/till/api/v1/lnurl/paycb/" + tillID
}

func (s *Service) withdrawURL(tillID, token string) string {
	return s.baseURL() + "/till/api/v1/lnurl/withdraw/" + tillID + "/" + token
}

func (s *Service) withdrawCallbackURL(tillID string) string {
	return s.baseURL() + "/till/api/v1/lnurl/withdrawcb/" + tillID
}

// respond decorates a till with its encoded LNURL links. Encoding only fails
// on malformed input, so failures degrade to empty links and a log line.
func (s *Service) respond(t *Till) *TillResponse {
	resp := &TillResponse{Till: *t}

	pay, err := lnurl.Encode(s.payURL(t.ID))
	if err != nil {
		zap.L().Warn("failed to encode lnurlpay link", zap.String("till_id", t.ID), zap.Error(err))
	}
	resp.LnurlPay = pay

	token := WithdrawToken(s.cfg.WithdrawSecret, t.ID, t.Ticker)
	withdraw, err := lnurl.Encode(s.withdrawURL(t.ID, token))
	if err != nil {
		zap.L().Warn("failed to encode lnurlwithdraw link", zap.String("till_id", t.ID), zap.Error(err))
	}
	resp.LnurlWithdraw = withdraw

	return resp
}
