package adminapi

import (
	"net/http"

	"github.com/connectleads/wamanager/internal/lifecycle"
	"github.com/connectleads/wamanager/internal/webserver"
	"github.com/labstack/echo/v4"
)

func registerModalRoutes() {
	webserver.ApiPOST("/modal/create", OpenCreateModal)
	webserver.ApiPOST("/modal/edit/:name", OpenEditModal)
	webserver.ApiGET("/modal", GetModal)
	webserver.ApiPOST("/modal/submit", SubmitModal)
	webserver.ApiDELETE("/modal", CloseModal)
}

func OpenCreateModal(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	view, err := s.Manager.OpenCreate(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, view)
}

func OpenEditModal(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	view, err := s.Manager.OpenEdit(c.Request().Context(), c.Param("name"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, view)
}

func GetModal(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, s.Manager.Modal())
}

func SubmitModal(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	var form lifecycle.Form
	if err := c.Bind(&form); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAYLOAD", "the form could not be read", err.Error())
	}
	if err := c.Validate(&form); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PAYLOAD", "the form is invalid", err.Error())
	}
	res, err := s.Manager.Submit(c.Request().Context(), form)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, res)
}

func CloseModal(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	s.Manager.CloseModal()
	return ok(c, s.Manager.Modal())
}
