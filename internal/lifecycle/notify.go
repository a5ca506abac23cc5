package lifecycle

import (
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

const topicNotification = "lifecycle:notification"

// Level of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is an operator-facing event. The UI decides how to show it.
type Notification struct {
	ID           string    `json:"id"`
	LocationID   string    `json:"location_id"`
	Action       string    `json:"action"`
	InstanceName string    `json:"instance_name,omitempty"`
	Level        Level     `json:"level"`
	Code         string    `json:"code,omitempty"`
	Message      string    `json:"message"`
	Time         time.Time `json:"time"`
}

// Notifier fans notifications out to subscribers. Handlers run synchronously
// on the publishing goroutine.
type Notifier struct {
	bus  EventBus.Bus
	node *snowflake.Node
}

// NewNotifier creates a notifier that takes its ids from node. Notifiers of
// one process should share a node so ids stay unique.
func NewNotifier(node *snowflake.Node) *Notifier {
	return &Notifier{bus: EventBus.New(), node: node}
}

// Subscribe registers fn for every notification.
func (n *Notifier) Subscribe(fn func(Notification)) error {
	return n.bus.Subscribe(topicNotification, fn)
}

// Publish stamps id and time on note and delivers it.
func (n *Notifier) Publish(note Notification) Notification {
	note.ID = n.node.Generate().String()
	if note.Time.IsZero() {
		note.Time = time.Now()
	}
	n.bus.Publish(topicNotification, note)
	return note
}

func logNotification(note Notification) {
	fields := []zap.Field{
		zap.String("location_id", note.LocationID),
		zap.String("action", note.Action),
		zap.String("instance_name", note.InstanceName),
		zap.String("code", note.Code),
	}
	switch note.Level {
	case LevelError:
		zap.L().Error("lifecycle: "+note.Message, fields...)
	case LevelWarning:
		zap.L().Warn("lifecycle: "+note.Message, fields...)
	default:
		zap.L().Info("lifecycle: "+note.Message, fields...)
	}
}
