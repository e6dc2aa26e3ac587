package till

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LNURL endpoints answer protocol-level soft errors with HTTP 200, per the
// LUD conventions. Wallets parse the body, not the status code.
func lnurlError(reason string) gin.H {
	return gin.H{"status": "ERROR", "reason": reason}
}

// LnurlPay implements the LUD-06 descriptor. min == max == the configured
// pay amount, in millisatoshis.
func (s *Service) LnurlPay(c *gin.Context) {
	t, err := s.tills.FindOne(c.Request.Context(), &Till{ID: c.Param("till_id")})
	if err != nil {
		zap.L().Error("lnurl pay lookup failed", zap.Error(err))
		c.JSON(http.StatusOK, lnurlError("temporary failure"))
		return
	}
	if t == nil {
		c.JSON(http.StatusOK, lnurlError("No till found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tag":         "payRequest",
		"callback":    s.payCallbackURL(t.ID),
		"minSendable": t.PayAmount * 1000,
		"maxSendable": t.PayAmount * 1000,
		"metadata":    payMetadata(t.Name),
	})
}

// LnurlPayCallback creates the invoice the wallet will pay. The requested
// amount must sit inside the advertised bounds; the original service skipped
// this check entirely.
func (s *Service) LnurlPayCallback(c *gin.Context) {
	ctx := c.Request.Context()

	t, err := s.tills.FindOne(ctx, &Till{ID: c.Param("till_id")})
	if err != nil {
		zap.L().Error("lnurl paycb lookup failed", zap.Error(err))
		c.JSON(http.StatusOK, lnurlError("temporary failure"))
		return
	}
	if t == nil {
		c.JSON(http.StatusOK, lnurlError("No till found"))
		return
	}

	amountMsat, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, lnurlError("amount must be an integer in millisatoshis"))
		return
	}
	if amountMsat < t.PayAmount*1000 || amountMsat > t.PayAmount*1000 {
		c.JSON(http.StatusOK, lnurlError("amount out of bounds"))
		return
	}

	invoice, err := s.engine.CreateInvoice(ctx, t.WalletID, amountMsat/1000, t.Name, map[string]any{
		"tag":    paymentTag,
		"tillId": t.ID,
		"amount": amountMsat,
	})
	if err != nil {
		zap.L().Error("lnurl paycb invoice creation failed", zap.String("till_id", t.ID), zap.Error(err))
		c.JSON(http.StatusOK, lnurlError("could not create invoice"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pr":     invoice.PaymentRequest,
		"routes": []any{},
		"successAction": gin.H{
			"tag":     "message",
			"message": "Paid " + t.Name,
		},
	})
}

// LnurlWithdraw implements the LUD-03 descriptor behind the one-time token.
// The token embeds the current ticker, so any prior redemption (which bumps
// the ticker) makes the presented token stale.
func (s *Service) LnurlWithdraw(c *gin.Context) {
	t, err := s.tills.FindOne(c.Request.Context(), &Till{ID: c.Param("till_id")})
	if err != nil {
		zap.L().Error("lnurl withdraw lookup failed", zap.Error(err))
		c.JSON(http.StatusOK, lnurlError("temporary failure"))
		return
	}
	if t == nil {
		c.JSON(http.StatusOK, lnurlError("No till found"))
		return
	}

	k1 := WithdrawToken(s.cfg.WithdrawSecret, t.ID, t.Ticker)
	if k1 != c.Param("k1") {
		c.JSON(http.StatusOK, lnurlError("withdraw already used"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tag":                "withdrawRequest",
		"callback":           s.withdrawCallbackURL(t.ID),
		"k1":                 k1,
		"defaultDescription": t.Name,
		"minWithdrawable":    t.WithdrawAmount * 1000,
		"maxWithdrawable":    t.WithdrawAmount * 1000,
	})
}

// LnurlWithdrawCallback redeems the capability. The ticker is consumed with
// a conditional update before any payment goes out, so two racing callbacks
// with the same k1 produce at most one payment.
func (s *Service) LnurlWithdrawCallback(c *gin.Context) {
	ctx := c.Request.Context()

	pr := c.Query("pr")
	k1 := c.Query("k1")
	if pr == "" || k1 == "" {
		c.JSON(http.StatusOK, lnurlError("pr and k1 are required"))
		return
	}

	t, err := s.tills.FindOne(ctx, &Till{ID: c.Param("till_id")})
	if err != nil {
		zap.L().Error("lnurl withdrawcb lookup failed", zap.Error(err))
		c.JSON(http.StatusOK, lnurlError("temporary failure"))
		return
	}
	if t == nil {
		c.JSON(http.StatusOK, lnurlError("No till found"))
		return
	}

	if WithdrawToken(s.cfg.WithdrawSecret, t.ID, t.Ticker) != k1 {
		c.JSON(http.StatusOK, lnurlError("wrong k1 check provided"))
		return
	}

	consumed, err := s.consumeTicker(ctx, t.ID, t.Ticker)
	if err != nil {
		zap.L().Error("ticker consume failed", zap.String("till_id", t.ID), zap.Error(err))
		c.JSON(http.StatusOK, lnurlError("temporary failure"))
		return
	}
	if !consumed {
		c.JSON(http.StatusOK, lnurlError("withdraw already used"))
		return
	}

	err = s.engine.PayInvoice(ctx, t.WalletID, pr, t.WithdrawAmount*1000, map[string]any{
		"tag":           paymentTag,
		"tillId":        t.ID,
		"lnurlwithdraw": true,
	})
	if err != nil {
		// The capability is spent either way; paying again with the same k1
		// must stay impossible.
		zap.L().Error("withdraw payment failed", zap.String("till_id", t.ID), zap.Error(err))
		c.JSON(http.StatusOK, lnurlError("payment failed"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func payMetadata(name string) string {
	return fmt.Sprintf(`[["text/plain", "%s"]]`, name)
}
