package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// CORSAllowHeaders are the request headers the browser client sends.
var CORSAllowHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// CORS answers pre-flight requests for every route with an empty body and
// allows any origin. The session token travels in a header, never a cookie.
func CORS() echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: CORSAllowHeaders,
	})
}
