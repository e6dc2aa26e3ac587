package till

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lntill/pkg/errutil"
)

// IndexPage is the backend admin page.
func (s *Service) IndexPage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title": s.cfg.SiteTitle,
	})
}

// SharePage is the public page for one till, carrying the LNURL-pay payload
// and the websocket hookup for live settlement updates.
func (s *Service) SharePage(c *gin.Context) {
	tillID := c.Param("till_id")

	t, err := s.GetTill(c.Request.Context(), tillID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.HTML(http.StatusOK, "till.html", gin.H{
		"title":        s.cfg.SiteTitle,
		"till_id":      tillID,
		"name":         t.Name,
		"lnurlpay":     t.LnurlPay,
		"web_manifest": "/till/manifest/" + tillID + ".webmanifest",
		"ws_path":      "/till/api/v1/ws/" + tillID,
	})
}

// Webmanifest serves the PWA manifest for a till's share page.
func (s *Service) Webmanifest(c *gin.Context) {
	tillID := strings.TrimSuffix(c.Param("till_id"), ".webmanifest")

	t, err := s.tills.FindOne(c.Request.Context(), &Till{ID: tillID})
	if err != nil {
		_ = c.Error(err)
		return
	}
	if t == nil {
		_ = c.Error(errutil.NotFound("till does not exist"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"short_name":       s.cfg.SiteTitle,
		"name":             t.Name + " - " + s.cfg.SiteTitle,
		"start_url":        "/till/" + tillID,
		"scope":            "/till/" + tillID,
		"display":          "standalone",
		"background_color": "#1F2234",
		"theme_color":      "#1F2234",
		"description":      "Merchant till for " + t.Name,
		"shortcuts": []gin.H{
			{
				"name":        t.Name + " - " + s.cfg.SiteTitle,
				"short_name":  t.Name,
				"description": t.Name + " - " + s.cfg.SiteTitle,
				"url":         "/till/" + tillID,
			},
		},
	})
}
