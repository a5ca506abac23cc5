package instancesvc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/connectleads/wamanager/internal/domain"
	"github.com/connectleads/wamanager/internal/errs"
	"github.com/guonaihong/gout"
	"github.com/guonaihong/gout/dataflow"
	"go.uber.org/zap"
)

// HTTPClient implements Service against the webhook api of the instance
// service. Timeouts are those of the underlying http.Client.
type HTTPClient struct {
	baseURL string
	cli     *gout.Client
}

var _ Service = (*HTTPClient)(nil)

// NewHTTPClient creates a client for baseURL, e.g.
// "https://api.connectleads.pro/webhook/whatsapp". A zero timeout leaves the
// transport without a deadline. Every call builds its own request flow, so
// the client is safe for concurrent use.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	hc := &http.Client{Timeout: timeout}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		cli:     gout.NewWithOpt(gout.WithClient(hc)),
	}
}

func (c *HTTPClient) url(path string) string {
	return c.baseURL + path
}

// do runs one request and returns the raw body. Transport errors, non-2xx
// answers and explicit rejections all come back as RemoteCallFailed.
func (c *HTTPClient) do(ctx context.Context, op, locationID, msg string, df *dataflow.DataFlow) ([]byte, error) {
	var (
		body []byte
		code int
	)
	start := time.Now()
	err := df.WithContext(ctx).BindBody(&body).Code(&code).Do()
	if err != nil {
		zap.L().Warn("instancesvc: request failed",
			zap.String("op", op),
			zap.String("location_id", locationID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, errs.Wrap(errs.CodeRemoteCallFailed, op, err, msg)
	}
	if code < 200 || code > 299 {
		zap.L().Warn("instancesvc: unexpected status",
			zap.String("op", op),
			zap.String("location_id", locationID),
			zap.Int("status", code),
		)
		return nil, errs.Wrap(errs.CodeRemoteCallFailed, op, fmt.Errorf("http status %d", code), msg)
	}
	if reason, bad := rejected(body); bad {
		zap.L().Warn("instancesvc: rejected",
			zap.String("op", op),
			zap.String("location_id", locationID),
			zap.String("reason", reason),
		)
		return nil, errs.Wrap(errs.CodeRemoteCallFailed, op, fmt.Errorf("%s", reason), msg)
	}
	zap.L().Debug("instancesvc: request ok",
		zap.String("op", op),
		zap.String("location_id", locationID),
		zap.Duration("elapsed", time.Since(start)),
	)
	return body, nil
}

func (c *HTTPClient) ListInstances(ctx context.Context, locationID string) ([]domain.WhatsAppInstance, error) {
	const op, msg = "list instances", "failed to load WhatsApp instances"
	body, err := c.do(ctx, op, locationID, msg,
		c.cli.GET(c.url("/ver-instancias")).SetQuery(gout.H{"locationId": locationID}))
	if err != nil {
		return nil, err
	}
	items, err := decodeInstances(body)
	if err != nil {
		return nil, errs.Wrap(errs.CodeRemoteCallFailed, op, err, msg)
	}
	return items, nil
}

func (c *HTTPClient) GetUsers(ctx context.Context, locationID string) ([]domain.User, error) {
	body, err := c.do(ctx, "get users", locationID, "failed to load the user list",
		c.cli.GET(c.url("/get-users")).SetQuery(gout.H{"locationId": locationID}))
	if err != nil {
		return nil, err
	}
	return decodeUsers(body), nil
}

func (c *HTTPClient) GetInstanceConfig(ctx context.Context, locationID, instanceID string) (*domain.WhatsAppInstance, error) {
	const op, msg = "get instance config", "failed to load the instance configuration"
	body, err := c.do(ctx, op, locationID, msg,
		c.cli.GET(c.url("/ver-instancia")).SetQuery(gout.H{"locationId": locationID, "instanceId": instanceID}))
	if err != nil {
		return nil, err
	}
	inst, ok, err := decodeRecord(body)
	if err != nil {
		return nil, errs.Wrap(errs.CodeRemoteCallFailed, op, err, msg)
	}
	if !ok {
		return nil, errs.Wrap(errs.CodeRemoteCallFailed, op, fmt.Errorf("instance %s has no configuration", instanceID), msg)
	}
	return inst, nil
}

func (c *HTTPClient) CreateInstance(ctx context.Context, locationID string, req CreateRequest) (*domain.WhatsAppInstance, error) {
	const op, msg = "create instance", "failed to create the WhatsApp instance"
	payload := gout.H{
		"locationId":   locationID,
		"instanceName": req.InstanceName,
		"alias":        req.Config.Alias,
		"isMainDevice": req.Config.IsMainDevice,
		"facebookAds":  req.Config.FacebookAds,
	}
	if req.Config.UserID != "" {
		payload["userId"] = req.Config.UserID
	}
	if req.NewUser != nil && !req.NewUser.IsZero() {
		payload["user_name"] = req.NewUser.Name
		payload["user_email"] = req.NewUser.Email
		payload["user_phone"] = req.NewUser.Phone
	}
	body, err := c.do(ctx, op, locationID, msg, c.cli.POST(c.url("/create-instance")).SetJSON(payload))
	if err != nil {
		return nil, err
	}
	inst, _, err := decodeRecord(body)
	if err != nil {
		// the instance exists; only the echo could not be read
		zap.L().Warn("instancesvc: create response not decodable", zap.String("location_id", locationID), zap.Error(err))
		return nil, nil
	}
	return inst, nil
}

func (c *HTTPClient) EditInstance(ctx context.Context, locationID, instanceName string, cfg domain.InstanceConfig) (*domain.WhatsAppInstance, error) {
	const op, msg = "edit instance", "failed to update the instance configuration"
	payload := gout.H{
		"locationId":   locationID,
		"instanceName": instanceName,
		"alias":        cfg.Alias,
		"isMainDevice": cfg.IsMainDevice,
		"facebookAds":  cfg.FacebookAds,
		"userId":       cfg.UserID,
	}
	body, err := c.do(ctx, op, locationID, msg, c.cli.PUT(c.url("/edit-instance")).SetJSON(payload))
	if err != nil {
		return nil, err
	}
	inst, _, err := decodeRecord(body)
	if err != nil {
		zap.L().Warn("instancesvc: edit response not decodable", zap.String("location_id", locationID), zap.Error(err))
		return nil, nil
	}
	return inst, nil
}

func (c *HTTPClient) DeleteInstance(ctx context.Context, locationID, instanceName string) error {
	_, err := c.do(ctx, "delete instance", locationID, "failed to delete the instance",
		c.cli.DELETE(c.url("/delete-instance")).SetJSON(gout.H{"locationId": locationID, "instanceName": instanceName}))
	return err
}

func (c *HTTPClient) TurnOff(ctx context.Context, locationID, instanceName string) error {
	_, err := c.do(ctx, "turn off", locationID, "failed to disconnect the instance",
		c.cli.POST(c.url("/turn-off")).SetJSON(gout.H{"locationId": locationID, "instanceName": instanceName}))
	return err
}

func (c *HTTPClient) GetQR(ctx context.Context, locationID, instanceName string) (domain.QRCode, error) {
	const op = "get qr"
	body, err := c.do(ctx, op, locationID, "failed to fetch the QR code",
		c.cli.POST(c.url("/get-qr")).SetJSON(gout.H{"locationId": locationID, "instanceName": instanceName}))
	if err != nil {
		return domain.QRCode{}, errs.Wrap(errs.CodePartialDataUnavailable, op, err, "QR code unavailable")
	}
	return decodeQR(body), nil
}

func (c *HTTPClient) GetLiveData(ctx context.Context, locationID, instanceName string) (domain.LiveData, error) {
	const op = "get live data"
	body, err := c.do(ctx, op, locationID, "failed to fetch instance data",
		c.cli.POST(c.url("/get-instance-data")).SetJSON(gout.H{"locationId": locationID, "instanceName": instanceName}))
	if err != nil {
		return domain.LiveData{}, errs.Wrap(errs.CodePartialDataUnavailable, op, err, "instance data unavailable")
	}
	return decodeLiveData(body), nil
}
