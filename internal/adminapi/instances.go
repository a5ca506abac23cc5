package adminapi

import (
	"github.com/connectleads/wamanager/internal/domain"
	"github.com/connectleads/wamanager/internal/lifecycle"
	"github.com/connectleads/wamanager/internal/webserver"
	"github.com/labstack/echo/v4"
)

// instanceCard is one instance as the grid renders it.
type instanceCard struct {
	domain.WhatsAppInstance
	Status        domain.Status `json:"status"`
	CanDisconnect bool          `json:"can_disconnect"`
	CanConnect    bool          `json:"can_connect"`
	TurningOff    bool          `json:"turning_off"`
}

type instanceList struct {
	Instances     []instanceCard `json:"instances"`
	Count         int            `json:"count"`
	Max           int            `json:"max"`
	HasMainDevice bool           `json:"has_main_device"`
}

func registerInstanceRoutes() {
	webserver.ApiGET("/instances", ListInstances)
	webserver.ApiPOST("/instances/refresh", RefreshInstances)
}

func ListInstances(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	var items []domain.WhatsAppInstance
	if c.QueryParam("refresh") == "1" {
		items, err = s.Manager.Refresh(c.Request().Context())
	} else {
		items, err = s.Manager.Instances(c.Request().Context())
	}
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, cardsOf(s.Manager, items))
}

func RefreshInstances(c echo.Context) error {
	s, err := session(c)
	if err != nil {
		return failErr(c, err)
	}
	items, err := s.Manager.Refresh(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, cardsOf(s.Manager, items))
}

func cardsOf(m *lifecycle.Manager, items []domain.WhatsAppInstance) instanceList {
	list := instanceList{
		Instances:     make([]instanceCard, 0, len(items)),
		Count:         len(items),
		Max:           domain.MaxInstances,
		HasMainDevice: m.Registry().HasMainDevice(),
	}
	for _, item := range items {
		st := item.Status()
		list.Instances = append(list.Instances, instanceCard{
			WhatsAppInstance: item,
			Status:           st,
			CanDisconnect:    st.CanDisconnect(),
			CanConnect:       st.CanConnect(),
			TurningOff:       m.TurningOff(item.InstanceName),
		})
	}
	return list
}
