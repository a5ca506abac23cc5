package adminapi

import (
	"context"

	"github.com/connectleads/wamanager/internal/lifecycle"
	"github.com/connectleads/wamanager/internal/webserver"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type qrResult struct {
	QR     interface{}          `json:"qr"`
	Detail lifecycle.DetailView `json:"detail"`
}

func registerCardRoutes() {
	webserver.ApiPOST("/instances/:name/delete", RequestDelete)
	webserver.ApiPOST("/delete/confirm", ConfirmDelete)
	webserver.ApiDELETE("/delete", CancelDelete)
	webserver.ApiPOST("/instances/:name/turn-off", TurnOff)
	webserver.ApiPOST("/instances/:name/detail", OpenDetail)
	webserver.ApiGET("/detail", GetDetail)
	webserver.ApiPOST("/detail/qr", RefreshQR)
	webserver.ApiPOST("/detail/leave", LeaveDetail)
}

func async(c echo.Context) bool {
	return c.QueryParam("async") == "1"
}

func RequestDelete(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	view, err := s.Manager.RequestDelete(c.Param("name"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, view)
}

func ConfirmDelete(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	if !async(c) {
		name, err := s.Manager.ConfirmDelete(c.Request().Context())
		if err != nil {
			return failErr(c, err)
		}
		return ok(c, map[string]interface{}{"instance_name": name, "deleted": true})
	}

	name, err := s.Manager.BeginDelete()
	if err != nil {
		return failErr(c, err)
	}
	m := s.Manager
	err = GetAppContext(c).Dispatcher().Go(func() {
		if err := m.FinishDelete(context.Background(), name); err != nil {
			zap.L().Warn("adminapi: background delete failed", zap.String("instance", name), zap.Error(err))
		}
	})
	if err != nil {
		// the pool refused the task, run it inline so the delete state is not left pending
		if err := m.FinishDelete(c.Request().Context(), name); err != nil {
			return failErr(c, err)
		}
		return ok(c, map[string]interface{}{"instance_name": name, "deleted": true})
	}
	return accepted(c, map[string]interface{}{"instance_name": name, "started": true})
}

func CancelDelete(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	if err := s.Manager.CancelDelete(); err != nil {
		return failErr(c, err)
	}
	return ok(c, s.Manager.PendingDelete())
}

func TurnOff(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	name := c.Param("name")
	if !async(c) {
		if err := s.Manager.TurnOff(c.Request().Context(), name); err != nil {
			return failErr(c, err)
		}
		return ok(c, map[string]interface{}{"instance_name": name, "turned_off": true})
	}

	if err := s.Manager.BeginTurnOff(name); err != nil {
		return failErr(c, err)
	}
	m := s.Manager
	err = GetAppContext(c).Dispatcher().Go(func() {
		if err := m.FinishTurnOff(context.Background(), name); err != nil {
			zap.L().Warn("adminapi: background turn-off failed", zap.String("instance", name), zap.Error(err))
		}
	})
	if err != nil {
		if err := m.FinishTurnOff(c.Request().Context(), name); err != nil {
			return failErr(c, err)
		}
		return ok(c, map[string]interface{}{"instance_name": name, "turned_off": true})
	}
	return accepted(c, map[string]interface{}{"instance_name": name, "started": true})
}

func OpenDetail(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	d, err := s.Manager.OpenDetail(c.Request().Context(), c.Param("name"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, d.View())
}

func GetDetail(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	d := s.Manager.Detail()
	if d == nil {
		return ok(c, lifecycle.DetailView{})
	}
	return ok(c, d.View())
}

func RefreshQR(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	d := s.Manager.Detail()
	if d == nil {
		return failErr(c, errNoDetail)
	}
	qr, err := d.RefreshQR(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, qrResult{QR: qr, Detail: d.View()})
}

func LeaveDetail(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	d := s.Manager.Detail()
	if d == nil {
		return failErr(c, errNoDetail)
	}
	live, err := d.Leave(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, map[string]interface{}{"instance_name": d.InstanceName(), "live_data": live})
}
