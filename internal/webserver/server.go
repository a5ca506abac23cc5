// Package webserver hosts the admin api: an echo instance with the json
// serializer, request validation, logging and the /api route group that
// handlers register on.
package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/connectleads/wamanager/internal/app"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// AppContextKey is the echo context key holding the app.AppContext.
const AppContextKey = "appctx"

var server *AdminServer

type AdminServer struct {
	root   *echo.Echo
	api    *echo.Group
	appCtx app.AppContext
}

// Init creates the admin server and makes it the target of the Api* route
// helpers.
func Init(appCtx app.AppContext) *AdminServer {
	server = NewAdminServer(appCtx)
	return server
}

func NewAdminServer(appCtx app.AppContext) *AdminServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = &JSONSerializer{}
	e.Validator = NewValidator()
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			zap.L().Debug("webserver: request", fields...)
			return nil
		},
	}))

	s := &AdminServer{root: e, appCtx: appCtx}
	s.api = e.Group("/api", s.withAppContext)
	return s
}

func (s *AdminServer) withAppContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(AppContextKey, s.appCtx)
		return next(c)
	}
}

// Echo exposes the underlying echo instance.
func (s *AdminServer) Echo() *echo.Echo {
	return s.root
}

// Start listens on the configured address until Shutdown.
func (s *AdminServer) Start() error {
	cfg := s.appCtx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.L().Info("webserver: admin api listening", zap.String("addr", addr))
	s.root.Server.ReadHeaderTimeout = 10 * time.Second
	if err := s.root.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *AdminServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.GET(path, h, m...)
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.POST(path, h, m...)
}

func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.PUT(path, h, m...)
}

func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.api.DELETE(path, h, m...)
}

// errorHandler renders echo errors (unknown route, bad method) in the api
// envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := err.Error()
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		msg = fmt.Sprint(he.Message)
	}
	_ = c.JSON(status, map[string]interface{}{
		"success": false,
		"code":    http.StatusText(status),
		"message": msg,
	})
}
