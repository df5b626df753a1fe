package handler

import (
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/alen-hh/arxiv-query-proxy/logger"
)

// NewLocalServer exposes h over plain HTTP at path for local development.
// Requests are converted to API Gateway proxy events so the same code path
// runs locally and on Lambda.
func NewLocalServer(h *Handler, path string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLoggerMiddleware(h.logger))

	e.Any(path, h.serveEcho)

	return e
}

func (h *Handler) serveEcho(c echo.Context) error {
	resp, err := h.Handle(c.Request().Context(), toProxyRequest(c))
	if err != nil {
		return err
	}

	for k, v := range resp.Headers {
		c.Response().Header().Set(k, v)
	}
	return c.Blob(resp.StatusCode, resp.Headers["Content-Type"], []byte(resp.Body))
}

func toProxyRequest(c echo.Context) events.APIGatewayProxyRequest {
	req := c.Request()

	event := events.APIGatewayProxyRequest{
		HTTPMethod:                      req.Method,
		Path:                            req.URL.Path,
		Headers:                         make(map[string]string, len(req.Header)),
		MultiValueHeaders:               make(map[string][]string, len(req.Header)),
		QueryStringParameters:           make(map[string]string),
		MultiValueQueryStringParameters: make(map[string][]string),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  c.Response().Header().Get(echo.HeaderXRequestID),
			HTTPMethod: req.Method,
			Path:       req.URL.Path,
		},
	}

	for k, values := range req.Header {
		event.MultiValueHeaders[k] = values
		if len(values) > 0 {
			event.Headers[k] = values[0]
		}
	}

	for k, values := range c.QueryParams() {
		event.MultiValueQueryStringParameters[k] = values
		if len(values) > 0 {
			event.QueryStringParameters[k] = values[0]
		}
	}

	return event
}

// requestLoggerMiddleware logs one line per HTTP request
func requestLoggerMiddleware(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			log.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
				InfoWithDuration("http request", time.Since(start), map[string]interface{}{
					"method":      req.Method,
					"path":        req.URL.Path,
					"status_code": c.Response().Status,
					"remote_ip":   c.RealIP(),
				})
			return nil
		}
	}
}
