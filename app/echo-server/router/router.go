package router

import (
	"net/http"

	"apeBeacon/internal/middleware"
	"apeBeacon/internal/rest"
	"apeBeacon/pkg/logger"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupBeaconRoutes(e *echo.Echo, handler *rest.BeaconHandler, assets *rest.AssetHandler) {
	e.GET("/beacon.js", handler.Beacon)
	e.GET("/ape.js", assets.Script)
}

func SetupOpsRoutes(e *echo.Echo, assets *rest.AssetHandler) {
	e.GET("/healthz", assets.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func SetupAdminRoutes(api *echo.Group, handler *rest.AdminHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	admin := api.Group("/admin")

	admin.POST("/login", handler.Login)

	customers := admin.Group("/customers", authRequired, adminOnly)
	customers.POST("", handler.CreateCustomer)
	customers.GET("/:id", handler.GetCustomer)
	customers.POST("/:id/sites", handler.AddSite)
	customers.POST("/:id/content", handler.AddContent)
}

type Handlers struct {
	Beacon    *rest.BeaconHandler
	Assets    *rest.AssetHandler
	Admin     *rest.AdminHandler
	Callbacks middleware.CallbackResolver
	JWTSecret string
}

// NewEcho builds the server with its global middleware and every route.
func NewEcho(h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler(h.Callbacks)

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURIPath:   true,
		LogMethod:    true,
		LogRequestID: true,
		LogLatency:   true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			logger.Debug("Request served",
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"request_id", v.RequestID,
				"latency", v.Latency,
			)
			return nil
		},
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Setup routes
	SetupBeaconRoutes(e, h.Beacon, h.Assets)
	SetupOpsRoutes(e, h.Assets)

	api := e.Group("/api/v1")
	SetupAdminRoutes(api, h.Admin, middleware.AuthMiddleware(h.JWTSecret), middleware.AdminOnly())

	return e
}
