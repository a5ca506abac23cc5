package webserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/connectleads/wamanager/config"
	"github.com/connectleads/wamanager/internal/app"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type payload struct {
	Name string `json:"name" validate:"required,max=8"`
}

func TestAdminServer(t *testing.T) {
	a := app.NewApplication(config.Default())
	s := Init(a)

	ApiPOST("/echo", func(c echo.Context) error {
		assert.Same(t, a, c.Get(AppContextKey))
		var p payload
		if err := c.Bind(&p); err != nil {
			return err
		}
		if err := c.Validate(&p); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, p)
	})

	send := func(method, target, body string) (int, gjson.Result) {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		s.Echo().ServeHTTP(rec, req)
		return rec.Code, gjson.Parse(rec.Body.String())
	}

	code, body := send(http.MethodPost, "/api/echo", `{"name":"ana"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ana", body.Get("name").String())

	code, body = send(http.MethodPost, "/api/echo", `{"name":"far too long"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, body.Get("success").Bool())

	code, _ = send(http.MethodPost, "/api/echo", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = send(http.MethodGet, "/api/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Not Found", body.Get("code").String())
}
