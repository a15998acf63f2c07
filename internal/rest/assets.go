package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type AssetHandler struct {
	script []byte
}

func NewAssetHandler(script []byte) *AssetHandler {
	return &AssetHandler{script: script}
}

// GET /ape.js
func (h *AssetHandler) Script(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return c.Blob(http.StatusOK, MIMEJavaScript, h.script)
}

// GET /healthz
func (h *AssetHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
