package wallet

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lntill/pkg/errutil"
	"lntill/pkg/repository"
	"lntill/pkg/util"
)

var Module = fx.Module("wallet.service",
	fx.Provide(NewService),
	fx.Invoke(migrate, ensureDefaultWallet),
)

type Service struct {
	db      *gorm.DB
	wallets repository.Repository[Wallet]
}

type Params struct {
	fx.In
	DB *gorm.DB
}

func NewService(p Params) *Service {
	return &Service{
		db:      p.DB,
		wallets: repository.ProvideStore[Wallet](p.DB),
	}
}

// Resolve maps an API key to the wallet that owns it. Admin key wins when a
// key happens to match both columns.
func (s *Service) Resolve(ctx context.Context, key string) (*Wallet, KeyType, error) {
	if key == "" {
		return nil, 0, errutil.Unauthorized("missing api key")
	}

	w, err := s.wallets.FindOne(ctx, &Wallet{AdminKey: key})
	if err != nil {
		return nil, 0, err
	}
	if w != nil {
		return w, KeyAdmin, nil
	}

	w, err = s.wallets.FindOne(ctx, &Wallet{InvoiceKey: key})
	if err != nil {
		return nil, 0, err
	}
	if w != nil {
		return w, KeyInvoice, nil
	}

	return nil, 0, errutil.Unauthorized("invalid api key")
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Wallet{})
}

// ensureDefaultWallet provisions a first wallet on an empty database so the
// service is usable right after install. Keys are logged once.
func ensureDefaultWallet(s *Service) error {
	ctx := context.Background()

	count, err := s.wallets.Count(ctx, &Wallet{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	w := &Wallet{
		ID:         util.ShortHash(),
		Name:       "default",
		AdminKey:   util.ApiKey(),
		InvoiceKey: util.ApiKey(),
	}
	if err := s.wallets.Create(ctx, w); err != nil {
		return err
	}

	zap.L().Info("provisioned default wallet",
		zap.String("wallet_id", w.ID),
		zap.String("admin_key", w.AdminKey),
		zap.String("invoice_key", w.InvoiceKey),
	)
	return nil
}
