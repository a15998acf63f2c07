package rest

import (
	"encoding/json"
	"net/http"

	"apeBeacon/domain"
	"apeBeacon/pkg/logger"

	"github.com/labstack/echo/v4"
)

const MIMEJavaScript = "application/javascript; charset=utf-8"

// EncodeJSONP renders env as "<callback>(<json>)".
func EncodeJSONP(callback string, env domain.Envelope) ([]byte, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}

	body := make([]byte, 0, len(callback)+len(payload)+2)
	body = append(body, callback...)
	body = append(body, '(')
	body = append(body, payload...)
	body = append(body, ')')

	return body, nil
}

// RenderJSONP writes the envelope with a 200 transport status whatever the
// semantic status inside it, so a script tag always executes the callback.
func RenderJSONP(c echo.Context, callback string, env domain.Envelope) error {
	body, err := EncodeJSONP(callback, env)
	if err != nil {
		logger.Error("Failed to encode jsonp payload", "error", err)
		body, _ = EncodeJSONP(callback, domain.ErrorEnvelope(err))
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(http.StatusOK, MIMEJavaScript, body)
}
