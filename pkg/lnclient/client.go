// Package lnclient talks to the wallet backend that creates and pays
// Lightning invoices for us.
package lnclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"lntill/pkg/config"
)

// Invoice is the wallet backend's answer to a create request.
type Invoice struct {
	PaymentHash    string `json:"payment_hash"`
	PaymentRequest string `json:"payment_request"`
}

// InvoiceEngine is the collaborator contract. Amounts are in satoshis on
// create and millisatoshis on the pay cap, matching the backend's API.
type InvoiceEngine interface {
	CreateInvoice(ctx context.Context, walletID string, amountSat int64, memo string, extra map[string]any) (Invoice, error)
	PayInvoice(ctx context.Context, walletID string, bolt11 string, maxMsat int64, extra map[string]any) error
}

var Module = fx.Module("lnclient",
	fx.Provide(NewHTTPEngine),
)

type httpEngine struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPEngine(cfg *config.Config) InvoiceEngine {
	timeout := cfg.Lightning.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &httpEngine{
		endpoint: cfg.Lightning.Endpoint,
		apiKey:   cfg.Lightning.ApiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type createInvoiceRequest struct {
	Out      bool           `json:"out"`
	Amount   int64          `json:"amount"`
	Memo     string         `json:"memo,omitempty"`
	WalletID string         `json:"wallet_id,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

type payInvoiceRequest struct {
	Out      bool           `json:"out"`
	Bolt11   string         `json:"bolt11"`
	WalletID string         `json:"wallet_id,omitempty"`
	MaxMsat  int64          `json:"max_msat,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

func (e *httpEngine) CreateInvoice(ctx context.Context, walletID string, amountSat int64, memo string, extra map[string]any) (Invoice, error) {
	var invoice Invoice
	err := e.post(ctx, "/api/v1/payments", createInvoiceRequest{
		Out:      false,
		Amount:   amountSat,
		Memo:     memo,
		WalletID: walletID,
		Extra:    extra,
	}, &invoice)
	if err != nil {
		return Invoice{}, err
	}
	return invoice, nil
}

func (e *httpEngine) PayInvoice(ctx context.Context, walletID string, bolt11 string, maxMsat int64, extra map[string]any) error {
	return e.post(ctx, "/api/v1/payments", payInvoiceRequest{
		Out:      true,
		Bolt11:   bolt11,
		WalletID: walletID,
		MaxMsat:  maxMsat,
		Extra:    extra,
	}, nil)
}

func (e *httpEngine) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("wallet backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		zap.L().Error("wallet backend rejected request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return fmt.Errorf("wallet backend returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
