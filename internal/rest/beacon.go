package rest

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"apeBeacon/business/beacon"
	"apeBeacon/domain"
	"apeBeacon/pkg/metrics"

	"github.com/labstack/echo/v4"
)

type BeaconService interface {
	Process(ctx context.Context, req domain.BeaconRequest) (domain.BeaconResult, error)
}

// RequestNormalizer turns raw query params and headers into a BeaconRequest.
type RequestNormalizer interface {
	Normalize(params url.Values, header http.Header) domain.BeaconRequest
}

type BeaconHandler struct {
	beaconService BeaconService
	normalizer    RequestNormalizer
	timeout       time.Duration
}

func NewBeaconHandler(beaconService BeaconService, normalizer RequestNormalizer, timeout time.Duration) *BeaconHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &BeaconHandler{
		beaconService: beaconService,
		normalizer:    normalizer,
		timeout:       timeout,
	}
}

// GET /beacon.js
func (h *BeaconHandler) Beacon(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.BeaconLatency.Observe(time.Since(start).Seconds())
	}()

	// the callback is resolved from this request only, before anything can fail
	req := h.normalizer.Normalize(c.QueryParams(), c.Request().Header)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()
	ctx = beacon.WithTraceID(ctx, c.Response().Header().Get(echo.HeaderXRequestID))

	res, err := h.beaconService.Process(ctx, req)
	if err != nil {
		return RenderJSONP(c, req.Callback, domain.ErrorEnvelope(err))
	}

	return RenderJSONP(c, req.Callback, domain.SuccessEnvelope(req, res))
}
