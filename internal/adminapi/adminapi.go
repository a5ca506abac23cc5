// Package adminapi translates operator intents from the browser into
// lifecycle manager calls.
package adminapi

import (
	"net/http"

	"github.com/connectleads/wamanager/internal/app"
	"github.com/connectleads/wamanager/internal/errs"
	"github.com/connectleads/wamanager/internal/webserver"
	"github.com/labstack/echo/v4"
)

// Init registers every admin route on the current webserver.
func Init() {
	registerInstanceRoutes()
	registerModalRoutes()
	registerCardRoutes()
	registerSessionRoutes()
}

// GetAppContext returns the application bound to the request.
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, response{Success: true, Data: data})
}

// accepted answers a request whose work continues in the background.
func accepted(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusAccepted, response{Success: true, Data: data})
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, response{Success: false, Code: code, Message: message, Details: details})
}

// failErr renders a workflow error with the status of its code.
func failErr(c echo.Context, err error) error {
	code := errs.CodeOf(err)
	return fail(c, errs.HTTPStatus(code), string(code), errs.MessageOf(err), err.Error())
}

// session returns the tenant session named by ?locationId=.
func session(c echo.Context) (*app.Session, error) {
	return GetAppContext(c).Sessions().Get(c.Request().Context(), c.QueryParam("locationId"))
}
