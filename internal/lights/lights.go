package lights

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	sse "github.com/r3labs/sse/v2"
	"github.com/wheelibin/homeserver/internal/constants"
	"github.com/wheelibin/homeserver/internal/models"
	"github.com/wheelibin/homeserver/internal/module"
)

type lightSource interface {
	Lights(ctx context.Context) ([]models.Light, error)
	Light(ctx context.Context, id string) (models.Light, error)
	UpdateLight(ctx context.Context, id string, update models.LightUpdate) (models.Light, error)
	BridgeInfos(ctx context.Context) ([]models.BridgeInfo, error)
	RelinkBridge(ctx context.Context, id string) (models.BridgeInfo, error)
}

type updateJournal interface {
	Record(rec models.LightUpdateRecord) (int64, error)
	History(lightID string, limit int) ([]models.LightUpdateRecord, error)
}

type eventStream interface {
	CreateStream(id string) *sse.Stream
	Publish(id string, event *sse.Event)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// Module serves the lights of every discovered bridge.
type Module struct {
	logger       *log.Logger
	lights       lightSource
	journal      updateJournal
	events       eventStream
	bulkInterval time.Duration
}

// New builds the module from the shared environment.
func New(env *module.Env) (module.Module, error) {
	var (
		journal updateJournal
		events  eventStream
	)
	// keep typed nils out of the interfaces
	if env.History != nil {
		journal = env.History
	}
	if env.Events != nil {
		events = env.Events
	}
	return NewModule(env.Logger, env.Hue, journal, events, env.Config.Lights.BulkInterval), nil
}

// NewModule creates the module. journal and events are optional.
func NewModule(logger *log.Logger, lights lightSource, journal updateJournal, events eventStream, bulkInterval time.Duration) *Module {
	if bulkInterval <= 0 {
		bulkInterval = constants.DefaultBulkUpdateInterval
	}
	if events != nil {
		events.CreateStream(constants.EventStreamLights)
	}
	return &Module{
		logger:       logger.With("module", "lights"),
		lights:       lights,
		journal:      journal,
		events:       events,
		bulkInterval: bulkInterval,
	}
}

func (m *Module) Routes() []module.Route {
	return []module.Route{
		{Method: http.MethodGet, Pattern: "/lights", Handler: m.getLights},
		{Method: http.MethodPut, Pattern: "/lights", Handler: m.putLights},
		{Method: http.MethodGet, Pattern: "/light/:id", Handler: m.getLight},
		{Method: http.MethodPut, Pattern: "/light/:id", Handler: m.putLight},
		{Method: http.MethodGet, Pattern: "/light/:id/history", Handler: m.getHistory},
		{Method: http.MethodGet, Pattern: "/bridges", Handler: m.getBridges},
		{Method: http.MethodPost, Pattern: "/bridge/:id/link", Handler: m.linkBridge},
		{Method: http.MethodGet, Pattern: "/events", Handler: m.streamEvents},
	}
}
