package till

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lntill/pkg/errutil"
	"lntill/services/wallet"
)

// RegisterRoutes mounts the whole surface: key-gated CRUD, the public LNURL
// responders, the websocket bridge, and the shareable pages.
func RegisterRoutes(router *gin.Engine, s *Service, auth *wallet.Service) {
	router.LoadHTMLGlob("templates/*.html")

	grp := router.Group("/till")

	grp.GET("/", s.IndexPage)
	grp.GET("/manifest/:till_id", s.Webmanifest)
	grp.GET("/:till_id", s.SharePage)

	api := grp.Group("/api/v1")

	api.GET("/tills", auth.RequireKey(), s.apiListTills)
	api.GET("/tills/:till_id", auth.RequireKey(), s.apiGetTill)
	api.POST("/tills", auth.RequireAdminKey(), s.apiCreateTill)
	api.PUT("/tills/:till_id", auth.RequireKey(), s.apiUpdateTill)
	api.DELETE("/tills/:till_id", auth.RequireAdminKey(), s.apiDeleteTill)
	api.POST("/tills/payment/:till_id", s.apiCreatePayment)

	api.POST("/debts", auth.RequireAdminKey(), s.apiCreateDebt)
	api.GET("/debts", auth.RequireKey(), s.apiListDebts)
	api.GET("/debts/:debt_id", auth.RequireKey(), s.apiGetDebt)
	api.PUT("/debts/:debt_id", auth.RequireAdminKey(), s.apiUpdateDebt)

	api.POST("/transactions", auth.RequireAdminKey(), s.apiCreateTransaction)
	api.GET("/transactions", auth.RequireKey(), s.apiListTransactions)
	api.GET("/transactions/:tx_id", auth.RequireKey(), s.apiGetTransaction)

	api.GET("/lnurl/pay/:till_id", s.LnurlPay)
	api.GET("/lnurl/paycb/:till_id", s.LnurlPayCallback)
	api.GET("/lnurl/withdraw/:till_id/:k1", s.LnurlWithdraw)
	api.GET("/lnurl/withdrawcb/:till_id", s.LnurlWithdrawCallback)

	api.GET("/ws/:till_id", s.Websocket)
}

func (s *Service) apiListTills(c *gin.Context) {
	out, err := s.ListTills(c.Request.Context(), wallet.FromContext(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Service) apiGetTill(c *gin.Context) {
	out, err := s.GetTill(c.Request.Context(), c.Param("till_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Service) apiCreateTill(c *gin.Context) {
	var data CreateTillData
	if err := c.ShouldBindJSON(&data); err != nil {
		_ = c.Error(errutil.ValidationFailed("invalid till payload", errutil.WithErr(err)))
		return
	}

	out, err := s.CreateTill(c.Request.Context(), wallet.FromContext(c).ID, data)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Service) apiUpdateTill(c *gin.Context) {
	var data CreateTillData
	if err := c.ShouldBindJSON(&data); err != nil {
		_ = c.Error(errutil.ValidationFailed("invalid till payload", errutil.WithErr(err)))
		return
	}

	out, err := s.UpdateTill(c.Request.Context(), wallet.FromContext(c), c.Param("till_id"), data)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Service) apiDeleteTill(c *gin.Context) {
	if err := s.DeleteTill(c.Request.Context(), wallet.FromContext(c), c.Param("till_id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Service) apiCreatePayment(c *gin.Context) {
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil {
		_ = c.Error(errutil.BadRequest("amount must be an integer in satoshis"))
		return
	}

	invoice, err := s.CreatePaymentInvoice(c.Request.Context(), c.Param("till_id"), amount, c.Query("memo"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"payment_hash":    invoice.PaymentHash,
		"payment_request": invoice.PaymentRequest,
	})
}

func (s *Service) apiCreateDebt(c *gin.Context) {
	var data CreateDebtData
	if err := c.ShouldBindJSON(&data); err != nil {
		_ = c.Error(errutil.ValidationFailed("invalid debt payload", errutil.WithErr(err)))
		return
	}

	out, err := s.CreateDebt(c.Request.Context(), wallet.FromContext(c), data)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Service) apiListDebts(c *gin.Context) {
	out, err := s.ListDebts(c.Request.Context(), wallet.FromContext(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Service) apiGetDebt(c *gin.Context) {
	out, err := s.GetDebt(c.Request.Context(), c.Param("debt_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Service) apiUpdateDebt(c *gin.Context) {
	var data CreateDebtData
	if err := c.ShouldBindJSON(&data); err != nil {
		_ = c.Error(errutil.ValidationFailed("invalid debt payload", errutil.WithErr(err)))
		return
	}

	out, err := s.UpdateDebt(c.Request.Context(), wallet.FromContext(c), c.Param("debt_id"), data)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Service) apiCreateTransaction(c *gin.Context) {
	var data CreateTransactionData
	if err := c.ShouldBindJSON(&data); err != nil {
		_ = c.Error(errutil.ValidationFailed("invalid transaction payload", errutil.WithErr(err)))
		return
	}

	out, err := s.CreateTransaction(c.Request.Context(), wallet.FromContext(c), data)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Service) apiListTransactions(c *gin.Context) {
	out, err := s.ListTransactions(c.Request.Context(), c.Query("till_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Service) apiGetTransaction(c *gin.Context) {
	out, err := s.GetTransaction(c.Request.Context(), c.Param("tx_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}
