package instancesvc

import (
	"context"

	"github.com/connectleads/wamanager/internal/domain"
)

// CreateRequest is the payload of a create-instance call.
type CreateRequest struct {
	InstanceName string
	Config       domain.InstanceConfig
	// NewUser is set when the operator registers the user together with the instance.
	NewUser *domain.NewUser
}

// Service is the tenant-scoped remote instance service. Every call carries the
// locationId; none of them retries.
type Service interface {
	// ListInstances returns the tenant's instances in service order.
	ListInstances(ctx context.Context, locationID string) ([]domain.WhatsAppInstance, error)

	// GetUsers returns the tenant's users.
	GetUsers(ctx context.Context, locationID string) ([]domain.User, error)

	// GetInstanceConfig returns the full record of one instance by its opaque id.
	GetInstanceConfig(ctx context.Context, locationID, instanceID string) (*domain.WhatsAppInstance, error)

	// CreateInstance creates an instance. The returned record may be nil when
	// the service only acknowledges.
	CreateInstance(ctx context.Context, locationID string, req CreateRequest) (*domain.WhatsAppInstance, error)

	// EditInstance updates the configuration of the named instance.
	EditInstance(ctx context.Context, locationID, instanceName string, cfg domain.InstanceConfig) (*domain.WhatsAppInstance, error)

	// DeleteInstance removes the named instance.
	DeleteInstance(ctx context.Context, locationID, instanceName string) error

	// TurnOff disconnects the named instance.
	TurnOff(ctx context.Context, locationID, instanceName string) error

	// GetQR fetches the pairing challenge. On failure it returns an empty QR
	// and an error matching errs.ErrPartialDataUnavailable.
	GetQR(ctx context.Context, locationID, instanceName string) (domain.QRCode, error)

	// GetLiveData fetches name/number/photo of the connected number. On
	// failure it returns empty data and an error matching errs.ErrPartialDataUnavailable.
	GetLiveData(ctx context.Context, locationID, instanceName string) (domain.LiveData, error)
}
