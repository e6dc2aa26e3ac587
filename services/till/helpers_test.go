package till

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lntill/pkg/config"
	"lntill/pkg/lnclient"
	"lntill/services/testutil"
	"lntill/services/wallet"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-withdraw-secret"

type engineMock struct {
	mu sync.Mutex

	createFn func(ctx context.Context, walletID string, amountSat int64, memo string, extra map[string]any) (lnclient.Invoice, error)
	payFn    func(ctx context.Context, walletID string, bolt11 string, maxMsat int64, extra map[string]any) error

	createCalls []createCall
	payCalls    []payCall
}

type createCall struct {
	WalletID  string
	AmountSat int64
	Memo      string
	Extra     map[string]any
}

type payCall struct {
	WalletID string
	Bolt11   string
	MaxMsat  int64
	Extra    map[string]any
}

func (m *engineMock) CreateInvoice(ctx context.Context, walletID string, amountSat int64, memo string, extra map[string]any) (lnclient.Invoice, error) {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, createCall{walletID, amountSat, memo, extra})
	m.mu.Unlock()

	if m.createFn != nil {
		return m.createFn(ctx, walletID, amountSat, memo, extra)
	}
	return lnclient.Invoice{PaymentHash: "hash", PaymentRequest: "lnbc10n1fake"}, nil
}

func (m *engineMock) PayInvoice(ctx context.Context, walletID string, bolt11 string, maxMsat int64, extra map[string]any) error {
	m.mu.Lock()
	m.payCalls = append(m.payCalls, payCall{walletID, bolt11, maxMsat, extra})
	m.mu.Unlock()

	if m.payFn != nil {
		return m.payFn(ctx, walletID, bolt11, maxMsat, extra)
	}
	return nil
}

type pubMock struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	err      error
}

func (m *pubMock) Publish(_ context.Context, topic string, payload []byte) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics = append(m.topics, topic)
	m.payloads = append(m.payloads, payload)
	return nil
}

func newTestService(t *testing.T) (*Service, *engineMock, *pubMock) {
	t.Helper()

	db := testutil.NewTestDB(t, &Till{}, &Debt{}, &Transaction{}, &Settlement{})

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	cfg := &config.Config{
		PublicURL:      "http://localhost:8080",
		SiteTitle:      "LNTill",
		WithdrawSecret: testSecret,
	}

	engine := &engineMock{}
	pub := &pubMock{}

	svc := NewService(Params{
		DB:     db,
		Node:   node,
		Config: cfg,
		Engine: engine,
		Pub:    pub,
	})
	return svc, engine, pub
}

func caller(walletID string) *wallet.Wallet {
	return &wallet.Wallet{ID: walletID, Name: "test wallet"}
}
