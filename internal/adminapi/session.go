package adminapi

import (
	"net/http"

	"github.com/connectleads/wamanager/internal/errs"
	"github.com/connectleads/wamanager/internal/webserver"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

var errNoDetail = errs.New(errs.CodeInvalidState, "detail", "no instance detail is open")

func registerSessionRoutes() {
	webserver.ApiGET("/notifications", Notifications)
	webserver.ApiDELETE("/session", CloseSession)
	webserver.ApiGET("/oplogs", OperationLogs)
}

func Notifications(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, s.Drain())
}

// CloseSession tears the tenant session down. Requests still in flight for
// it have their results discarded.
func CloseSession(c echo.Context) error {
	sessions := GetAppContext(c).Sessions()
	tenant := sessions.Resolve(c.QueryParam("locationId"))
	if !tenant.Resolved() {
		return failErr(c, errs.With(errs.ErrTenantUnresolved, "session"))
	}
	return ok(c, map[string]interface{}{"closed": sessions.Close(tenant.LocationID)})
}

func OperationLogs(c echo.Context) error {
	audit := GetAppContext(c).Audit()
	if audit == nil {
		return fail(c, http.StatusServiceUnavailable, "OPLOG_DISABLED", "the operation log is not enabled", nil)
	}
	limit := cast.ToInt(c.QueryParam("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := audit.Recent(c.Request().Context(), c.QueryParam("locationId"), limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, string(errs.CodeInternal), "query operation log failed", err.Error())
	}
	return ok(c, rows)
}
