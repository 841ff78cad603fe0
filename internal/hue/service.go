package hue

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
	"github.com/wheelibin/homeserver/internal/concurrency"
	"github.com/wheelibin/homeserver/internal/constants"
	"github.com/wheelibin/homeserver/internal/models"
)

type credentialStore interface {
	GetInto(key string, dst any) (bool, error)
	Set(key string, value any) error
}

type ServiceConfig struct {
	DiscoveryURL string
	DeviceType   string
	Timeout      time.Duration
}

// Service finds the bridges on the local network, authenticates with them and
// caches their lights. Discovery runs once per process: the cache is a snapshot
// taken at start up and is not refreshed, apart from changes made through
// UpdateLight and RelinkBridge.
type Service struct {
	logger      *log.Logger
	client      *resty.Client
	cfg         ServiceConfig
	credentials credentialStore
	credMu      sync.Mutex

	once sync.Once
	// closed when the initialisation pipeline has settled
	done chan struct{}

	mu      sync.RWMutex
	bridges []*Bridge
}

// NewService creates the service. credentials may be nil, in which case every
// start up has to go through the link button again.
func NewService(logger *log.Logger, cfg ServiceConfig, credentials credentialStore) *Service {
	if cfg.DiscoveryURL == "" {
		cfg.DiscoveryURL = constants.DefaultHueDiscoveryURL
	}
	if cfg.DeviceType == "" {
		cfg.DeviceType = constants.DefaultHueDeviceType
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultHueTimeout
	}

	return &Service{
		logger:      logger,
		client:      NewHTTPClient(cfg.Timeout),
		cfg:         cfg,
		credentials: credentials,
		done:        make(chan struct{}),
		bridges:     []*Bridge{},
	}
}

// Initialize starts the discovery pipeline in the background. Only the first call
// has any effect.
func (s *Service) Initialize(ctx context.Context) {
	s.once.Do(func() {
		go func() {
			defer close(s.done)
			s.run(ctx)
		}()
	})
}

// Wait blocks until the pipeline has settled, starting it if nobody has yet.
func (s *Service) Wait(ctx context.Context) error {
	s.Initialize(context.Background())

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) run(ctx context.Context) {
	s.logger.Debug("Hue.Initialize")

	descriptors, err := s.DiscoverBridges(ctx)
	if err != nil {
		s.logger.Error("Unable to initialise hue", "err", err)
		return
	}
	if len(descriptors) == 0 {
		s.logger.Info("No hue bridges found")
		return
	}

	known := s.loadCredentials()

	bridges := lo.Map(descriptors, func(d BridgeDescriptor, _ int) *Bridge {
		bridge := NewBridge(s.logger, s.client, bridgeAddress(d), d.ID)
		if username, ok := known[d.ID]; ok {
			bridge.SetUsername(username)
		}
		return bridge
	})

	s.mu.Lock()
	s.bridges = bridges
	s.mu.Unlock()

	// one bad bridge must not hold up the others
	errs := concurrency.Each(bridges, func(bridge *Bridge) error {
		return bridge.Initialize(ctx, s.cfg.DeviceType)
	})
	for i, err := range errs {
		bridge := bridges[i]
		if err != nil {
			s.logger.Error("Unable to initialise bridge", "bridge", bridge.ID(), "address", bridge.Address(), "err", err)
			continue
		}
		if !bridge.Authenticated() {
			s.logger.Warn("Bridge is not authenticated, press its link button and relink it", "bridge", bridge.ID(), "address", bridge.Address())
		}
	}

	s.saveCredentials()

	lightCount := lo.SumBy(bridges, func(b *Bridge) int { return b.LightCount() })
	s.logger.Info("Hue initialised", "bridges", len(bridges), "lights", lightCount)
}

// DiscoverBridges asks the discovery directory for the bridges on the local network.
func (s *Service) DiscoverBridges(ctx context.Context) ([]BridgeDescriptor, error) {
	op := fmt.Sprintf("%s %s", http.MethodGet, s.cfg.DiscoveryURL)

	body, err := execute(s.client.R().SetContext(ctx), http.MethodGet, s.cfg.DiscoveryURL)
	if err != nil {
		return nil, err
	}

	descriptors := []BridgeDescriptor{}
	if err := json.Unmarshal(body, &descriptors); err != nil {
		return nil, &ProtocolError{Op: op, Msg: fmt.Sprintf("malformed discovery response: %v", err)}
	}

	return lo.Filter(descriptors, func(d BridgeDescriptor, _ int) bool {
		if d.InternalIPAddress == "" || d.ID == "" {
			s.logger.Warn("Ignoring incomplete bridge descriptor", "id", d.ID, "address", d.InternalIPAddress)
			return false
		}
		return true
	}), nil
}

func bridgeAddress(d BridgeDescriptor) string {
	if d.Port == 0 || d.Port == 80 || d.Port == 443 {
		return d.InternalIPAddress
	}
	return net.JoinHostPort(d.InternalIPAddress, strconv.Itoa(d.Port))
}

func (s *Service) loadCredentials() map[string]string {
	known := map[string]string{}
	if s.credentials == nil {
		return known
	}
	if _, err := s.credentials.GetInto(constants.StorageKeyHueCredentials, &known); err != nil {
		s.logger.Error("Unable to read stored bridge credentials", "err", err)
		return map[string]string{}
	}
	return known
}

// saveCredentials stores the usernames of the authenticated bridges if they changed.
func (s *Service) saveCredentials() {
	if s.credentials == nil {
		return
	}
	s.credMu.Lock()
	defer s.credMu.Unlock()

	known := s.loadCredentials()
	changed := false
	for _, bridge := range s.snapshot() {
		username := bridge.Username()
		switch {
		case username != "" && known[bridge.ID()] != username:
			known[bridge.ID()] = username
			changed = true
		case username == "" && known[bridge.ID()] != "":
			delete(known, bridge.ID())
			changed = true
		}
	}
	if !changed {
		return
	}

	if err := s.credentials.Set(constants.StorageKeyHueCredentials, known); err != nil {
		s.logger.Error("Unable to store bridge credentials", "err", err)
	}
}

func (s *Service) snapshot() []*Bridge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Bridge{}, s.bridges...)
}

// Bridges returns the discovered bridges once initialisation has settled.
func (s *Service) Bridges(ctx context.Context) ([]*Bridge, error) {
	if err := s.Wait(ctx); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

func (s *Service) BridgeInfos(ctx context.Context) ([]models.BridgeInfo, error) {
	bridges, err := s.Bridges(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(bridges, func(b *Bridge, _ int) models.BridgeInfo { return b.Info() }), nil
}

// Lights returns every cached light, in bridge discovery order then bridge order.
func (s *Service) Lights(ctx context.Context) ([]models.Light, error) {
	bridges, err := s.Bridges(ctx)
	if err != nil {
		return nil, err
	}
	return lo.FlatMap(bridges, func(b *Bridge, _ int) []models.Light { return b.Lights() }), nil
}

func (s *Service) Light(ctx context.Context, id string) (models.Light, error) {
	_, light, err := s.find(ctx, id)
	return light, err
}

func (s *Service) find(ctx context.Context, id string) (*Bridge, models.Light, error) {
	bridges, err := s.Bridges(ctx)
	if err != nil {
		return nil, models.Light{}, err
	}
	for _, bridge := range bridges {
		light, found := lo.Find(bridge.Lights(), func(l models.Light) bool { return l.ID == id })
		if found {
			return bridge, light, nil
		}
	}
	return nil, models.Light{}, fmt.Errorf("%w: %s", ErrLightNotFound, id)
}

// UpdateLight applies update to the light with the given id through its bridge.
func (s *Service) UpdateLight(ctx context.Context, id string, update models.LightUpdate) (models.Light, error) {
	bridge, light, err := s.find(ctx, id)
	if err != nil {
		return models.Light{}, err
	}

	updated, err := bridge.SetLightState(ctx, light.Index, update)
	if err != nil {
		return models.Light{}, fmt.Errorf("error updating light (%s): %w", id, err)
	}
	return updated, nil
}

// RelinkBridge runs the authentication and light enumeration again for one
// bridge, typically after its link button has been pressed.
func (s *Service) RelinkBridge(ctx context.Context, id string) (models.BridgeInfo, error) {
	bridges, err := s.Bridges(ctx)
	if err != nil {
		return models.BridgeInfo{}, err
	}

	bridge, found := lo.Find(bridges, func(b *Bridge) bool { return b.ID() == id })
	if !found {
		return models.BridgeInfo{}, fmt.Errorf("%w: %s", ErrBridgeNotFound, id)
	}

	if err := bridge.Initialize(ctx, s.cfg.DeviceType); err != nil {
		return bridge.Info(), fmt.Errorf("error relinking bridge (%s): %w", id, err)
	}
	s.saveCredentials()

	return bridge.Info(), nil
}

// CachedLightCount counts the cached lights without waiting for initialisation.
func (s *Service) CachedLightCount() int {
	return lo.SumBy(s.snapshot(), func(b *Bridge) int { return b.LightCount() })
}
