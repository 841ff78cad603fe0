package hue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
	"github.com/wheelibin/homeserver/internal/constants"
	"github.com/wheelibin/homeserver/internal/models"
)

// Bridge talks to a single physical Hue bridge: it registers this server with
// the bridge, enumerates the bridge's lights and sends light state changes.
type Bridge struct {
	logger  *log.Logger
	client  *resty.Client
	address string
	id      string

	mu          sync.RWMutex
	username    string
	linkPending bool
	lights      []models.Light
}

func NewBridge(logger *log.Logger, client *resty.Client, address string, id string) *Bridge {
	return &Bridge{
		logger:  logger.With("bridge", id),
		client:  client,
		address: address,
		id:      id,
		lights:  []models.Light{},
	}
}

func (b *Bridge) Address() string { return b.address }

func (b *Bridge) ID() string { return b.id }

// Username returns the credential issued by the bridge, empty until authenticated.
func (b *Bridge) Username() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.username
}

// SetUsername seeds a credential issued in an earlier session.
func (b *Bridge) SetUsername(username string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.username = username
}

func (b *Bridge) Authenticated() bool {
	return b.Username() != ""
}

// LinkPending reports whether the bridge last asked for its link button to be pressed.
func (b *Bridge) LinkPending() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.linkPending
}

func (b *Bridge) LightCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lights)
}

// Lights returns a copy of the cached lights.
func (b *Bridge) Lights() []models.Light {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Light{}, b.lights...)
}

func (b *Bridge) Info() models.BridgeInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return models.BridgeInfo{
		ID:            b.id,
		Address:       b.address,
		Authenticated: b.username != "",
		LinkPending:   b.linkPending,
		LightCount:    len(b.lights),
	}
}

func (b *Bridge) apiURL() string {
	return fmt.Sprintf("http://%s/api", b.address)
}

func (b *Bridge) lightsURL(username string) string {
	return fmt.Sprintf("http://%s/api/%s/lights", b.address, username)
}

// Initialize authenticates with the bridge (unless a credential is already known)
// and, once authenticated, reads the bridge's lights. A known credential the bridge
// rejects is dropped and the bridge is registered again. A bridge still waiting for
// its link button is not an error: Initialize returns nil and the lights stay empty.
func (b *Bridge) Initialize(ctx context.Context, deviceType string) error {
	if b.Authenticated() {
		if err := b.DiscoverLights(ctx); err != nil {
			return err
		}
		if b.Authenticated() {
			return nil
		}
	}

	ok, err := b.Authenticate(ctx, deviceType)
	if err != nil {
		return err
	}
	if !ok {
		// happens when the link button still has to be pressed
		return nil
	}

	return b.DiscoverLights(ctx)
}

// Authenticate registers deviceType with the bridge. It returns false, without an
// error, when the bridge's link button has not been pressed.
func (b *Bridge) Authenticate(ctx context.Context, deviceType string) (bool, error) {
	url := b.apiURL()
	op := fmt.Sprintf("%s %s", http.MethodPost, url)

	body, err := execute(b.client.R().SetContext(ctx).SetBody(registerRequest{DeviceType: deviceType}), http.MethodPost, url)
	if err != nil {
		return false, err
	}

	results, err := parseResults(op, body)
	if err != nil {
		return false, err
	}
	result := results[0]

	if result.Error != nil {
		if result.Error.Type == constants.HueErrorLinkButtonNotPressed {
			b.logger.Warn("Bridge is waiting for its link button to be pressed", "address", b.address, "description", result.Error.Description)
			b.mu.Lock()
			b.linkPending = true
			b.mu.Unlock()
			return false, nil
		}
		return false, &ProtocolError{Op: op, Msg: describe([]*apiError{result.Error})}
	}

	success := registerSuccess{}
	if err := json.Unmarshal(result.Success, &success); err != nil || success.Username == "" {
		return false, &ProtocolError{Op: op, Msg: "no username in response"}
	}

	b.mu.Lock()
	b.username = success.Username
	b.linkPending = false
	b.mu.Unlock()

	b.logger.Info("Authenticated with bridge", "address", b.address)
	return true, nil
}

// DiscoverLights reads the bridge's lights and replaces the cached list. If the
// bridge no longer accepts the credential the cache is left untouched.
func (b *Bridge) DiscoverLights(ctx context.Context) error {
	username := b.Username()
	if username == "" {
		return ErrNotAuthenticated
	}

	url := b.lightsURL(username)
	op := fmt.Sprintf("%s %s", http.MethodGet, url)

	body, err := execute(b.client.R().SetContext(ctx), http.MethodGet, url)
	if err != nil {
		return err
	}

	// errors come back as a list, lights as an object
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		results, err := parseResults(op, trimmed)
		if err != nil {
			return err
		}
		errs := resultErrors(results)
		if len(errs) == 0 {
			return &ProtocolError{Op: op, Msg: "unexpected list response"}
		}

		switch errs[0].Type {
		case constants.HueErrorUnauthorizedUser, constants.HueErrorLinkButtonNotPressed:
			b.logger.Warn("Bridge rejected the stored credential", "address", b.address, "description", errs[0].Description)
			b.mu.Lock()
			// the credential is no good, the next Initialize registers again
			b.username = ""
			b.linkPending = errs[0].Type == constants.HueErrorLinkButtonNotPressed
			b.mu.Unlock()
			return nil
		default:
			return &ProtocolError{Op: op, Msg: describe(errs)}
		}
	}

	resp := LightsResponse{}
	if err := json.Unmarshal(body, &resp); err != nil {
		return &ProtocolError{Op: op, Msg: fmt.Sprintf("malformed lights response: %v", err)}
	}

	lights := lo.Map(sortedIndexes(resp), func(index string, _ int) models.Light {
		hl := resp[index]
		return models.Light{
			ID:       hl.UniqueID,
			Index:    index,
			BridgeID: b.id,
			Name:     hl.Name,
			Type:     hl.Type,
			Power:    hl.State.On,
			Color: models.Color{
				Brightness: hl.State.Bri,
				Hue:        hl.State.Hue,
				Saturation: hl.State.Sat,
			},
			Effect:    lo.Ternary(hl.State.Effect == "", constants.EffectNone, hl.State.Effect),
			Alert:     lo.Ternary(hl.State.Alert == "", constants.AlertNone, hl.State.Alert),
			Reachable: hl.State.Reachable,
		}
	})

	b.mu.Lock()
	b.lights = lights
	b.linkPending = false
	b.mu.Unlock()

	b.logger.Debug("Read lights from bridge", "total", len(lights))
	return nil
}

// SetLightState sends every field of update to the light at index in a single call
// and patches the cached snapshot once the bridge has accepted it.
func (b *Bridge) SetLightState(ctx context.Context, index string, update models.LightUpdate) (models.Light, error) {
	username := b.Username()
	if username == "" {
		return models.Light{}, ErrNotAuthenticated
	}

	url := fmt.Sprintf("%s/%s/state", b.lightsURL(username), index)
	op := fmt.Sprintf("%s %s", http.MethodPut, url)

	body, err := execute(b.client.R().SetContext(ctx).SetBody(stateBody(update)), http.MethodPut, url)
	if err != nil {
		return models.Light{}, err
	}

	results, err := parseResults(op, body)
	if err != nil {
		return models.Light{}, err
	}
	if errs := resultErrors(results); len(errs) > 0 {
		// the bridge applies what it can, keep the cache in step with that
		b.patch(index, acceptedFields(update, results))
		return models.Light{}, &ProtocolError{Op: op, Msg: describe(errs)}
	}

	light, found := b.patch(index, update)
	if !found {
		return models.Light{}, ErrLightNotFound
	}
	return light, nil
}

func (b *Bridge) patch(index string, update models.LightUpdate) (models.Light, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.lights {
		if l.Index == index {
			b.lights[i] = update.Apply(l)
			return b.lights[i], true
		}
	}
	return models.Light{}, false
}

// acceptedFields keeps the fields of update the bridge reported as set. Success
// items look like {"/lights/1/state/bri": 200}.
func acceptedFields(update models.LightUpdate, results []apiResult) models.LightUpdate {
	accepted := map[string]bool{}
	for _, r := range results {
		if len(r.Success) == 0 {
			continue
		}
		items := map[string]json.RawMessage{}
		if err := json.Unmarshal(r.Success, &items); err != nil {
			continue
		}
		for key := range items {
			accepted[key[strings.LastIndex(key, "/")+1:]] = true
		}
	}

	applied := models.LightUpdate{}
	if accepted["on"] {
		applied.Power = update.Power
	}
	if update.Color != nil {
		color := models.ColorUpdate{}
		if accepted["bri"] {
			color.Brightness = update.Color.Brightness
		}
		if accepted["hue"] {
			color.Hue = update.Color.Hue
		}
		if accepted["sat"] {
			color.Saturation = update.Color.Saturation
		}
		if !color.IsEmpty() {
			applied.Color = &color
		}
	}
	if accepted["effect"] {
		applied.Effect = update.Effect
	}
	if accepted["alert"] {
		applied.Alert = update.Alert
	}
	return applied
}

func stateBody(update models.LightUpdate) map[string]any {
	body := map[string]any{}
	if update.Power != nil {
		body["on"] = *update.Power
	}
	if update.Color != nil {
		if update.Color.Brightness != nil {
			body["bri"] = *update.Color.Brightness
		}
		if update.Color.Hue != nil {
			body["hue"] = *update.Color.Hue
		}
		if update.Color.Saturation != nil {
			body["sat"] = *update.Color.Saturation
		}
	}
	if update.Effect != nil {
		body["effect"] = *update.Effect
	}
	if update.Alert != nil {
		body["alert"] = *update.Alert
	}
	return body
}

// light indexes are numeric strings, order them numerically
func sortedIndexes(resp LightsResponse) []string {
	indexes := lo.Keys(resp)
	sort.Slice(indexes, func(i, j int) bool {
		a, errA := strconv.Atoi(indexes[i])
		c, errC := strconv.Atoi(indexes[j])
		if errA == nil && errC == nil {
			return a < c
		}
		return indexes[i] < indexes[j]
	})
	return indexes
}
