package wallet

import (
	"github.com/gin-gonic/gin"

	"lntill/pkg/errutil"
)

const (
	headerApiKey = "X-Api-Key"

	ctxWallet  = "auth.wallet"
	ctxKeyType = "auth.key_type"
)

// RequireKey accepts either of the wallet's keys and attaches the resolved
// identity to the request context.
func (s *Service) RequireKey() gin.HandlerFunc {
	return s.require(KeyInvoice)
}

// RequireAdminKey only accepts the admin key.
func (s *Service) RequireAdminKey() gin.HandlerFunc {
	return s.require(KeyAdmin)
}

func (s *Service) require(min KeyType) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, kt, err := s.Resolve(c.Request.Context(), c.GetHeader(headerApiKey))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if kt < min {
			_ = c.Error(errutil.Forbidden("admin key required"))
			c.Abort()
			return
		}

		c.Set(ctxWallet, w)
		c.Set(ctxKeyType, kt)
		c.Next()
	}
}

// FromContext returns the wallet the auth middleware resolved.
func FromContext(c *gin.Context) *Wallet {
	if v, ok := c.Get(ctxWallet); ok {
		if w, ok := v.(*Wallet); ok {
			return w
		}
	}
	return nil
}
