package lights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	sse "github.com/r3labs/sse/v2"
	"github.com/wheelibin/homeserver/internal/concurrency"
	"github.com/wheelibin/homeserver/internal/constants"
	"github.com/wheelibin/homeserver/internal/hue"
	"github.com/wheelibin/homeserver/internal/models"
	"github.com/wheelibin/homeserver/internal/module"
)

func (m *Module) getLights(w http.ResponseWriter, r *http.Request, params []string) error {
	lights, err := m.lights.Lights(r.Context())
	if err != nil {
		return err
	}
	return module.WriteJSON(w, http.StatusOK, lights)
}

func (m *Module) getLight(w http.ResponseWriter, r *http.Request, params []string) error {
	light, err := m.lights.Light(r.Context(), params[0])
	if err != nil {
		return notFound(err, params[0])
	}
	return module.WriteJSON(w, http.StatusOK, light)
}

func (m *Module) putLight(w http.ResponseWriter, r *http.Request, params []string) error {
	update, err := decodeUpdate(r)
	if err != nil {
		return err
	}

	light, err := m.apply(r.Context(), params[0], update)
	if err != nil {
		return err
	}
	return module.WriteJSON(w, http.StatusOK, light)
}

// putLights sends the same update to every light, one bridge call at a time.
func (m *Module) putLights(w http.ResponseWriter, r *http.Request, params []string) error {
	update, err := decodeUpdate(r)
	if err != nil {
		return err
	}

	lights, err := m.lights.Lights(r.Context())
	if err != nil {
		return err
	}

	updated := make([]models.Light, 0, len(lights))
	err = concurrency.Throttled(lights, m.bulkInterval, func(l models.Light) error {
		light, err := m.apply(r.Context(), l.ID, update)
		if err != nil {
			return err
		}
		updated = append(updated, light)
		return nil
	})
	if err != nil {
		m.logger.Error("Bulk light update stopped", "updated", len(updated), "total", len(lights), "err", err)
		return err
	}

	return module.WriteJSON(w, http.StatusOK, updated)
}

func (m *Module) getHistory(w http.ResponseWriter, r *http.Request, params []string) error {
	id := params[0]

	limit := constants.LightHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > constants.LightHistoryLimit {
			return &module.ValidationError{Field: "limit", Msg: fmt.Sprintf("must be a number from 1 to %d", constants.LightHistoryLimit)}
		}
		limit = n
	}

	if _, err := m.lights.Light(r.Context(), id); err != nil {
		return notFound(err, id)
	}

	if m.journal == nil {
		return module.WriteJSON(w, http.StatusOK, []models.LightUpdateRecord{})
	}
	history, err := m.journal.History(id, limit)
	if err != nil {
		return err
	}
	return module.WriteJSON(w, http.StatusOK, history)
}

func (m *Module) getBridges(w http.ResponseWriter, r *http.Request, params []string) error {
	bridges, err := m.lights.BridgeInfos(r.Context())
	if err != nil {
		return err
	}
	return module.WriteJSON(w, http.StatusOK, bridges)
}

// linkBridge retries authentication with a bridge, after its link button was pressed.
func (m *Module) linkBridge(w http.ResponseWriter, r *http.Request, params []string) error {
	info, err := m.lights.RelinkBridge(r.Context(), params[0])
	if err != nil {
		if errors.Is(err, hue.ErrBridgeNotFound) {
			return &module.NotFoundError{Kind: "bridge", ID: params[0]}
		}
		return err
	}

	if info.Authenticated {
		m.publish(constants.EventTypeBridgeLinked, info)
	}
	return module.WriteJSON(w, http.StatusOK, info)
}

func (m *Module) streamEvents(w http.ResponseWriter, r *http.Request, params []string) error {
	if m.events == nil {
		return &module.NotFoundError{Kind: "event stream", ID: constants.EventStreamLights}
	}

	// the sse server picks the stream from the query string
	req := r.Clone(r.Context())
	q := req.URL.Query()
	q.Set("stream", constants.EventStreamLights)
	req.URL.RawQuery = q.Encode()

	m.events.ServeHTTP(w, req)
	return nil
}

// apply sends update to one light, journals the attempt and announces the result.
func (m *Module) apply(ctx context.Context, id string, update models.LightUpdate) (models.Light, error) {
	light, err := m.lights.UpdateLight(ctx, id, update)
	if errors.Is(err, hue.ErrLightNotFound) {
		return models.Light{}, &module.NotFoundError{Kind: "light", ID: id}
	}

	m.record(id, light.BridgeID, update, err)
	if err != nil {
		return models.Light{}, err
	}

	m.logger.Info("Light updated", "light", light.Name, "id", id)
	m.publish(constants.EventTypeLightUpdated, light)
	return light, nil
}

func (m *Module) record(id string, bridgeID string, update models.LightUpdate, updateErr error) {
	if m.journal == nil {
		return
	}
	rec := models.LightUpdateRecord{LightID: id, BridgeID: bridgeID, Update: update, AppliedAt: time.Now()}
	if updateErr != nil {
		rec.Error = updateErr.Error()
	}
	if _, err := m.journal.Record(rec); err != nil {
		m.logger.Error("Unable to record light update", "id", id, "err", err)
	}
}

type event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (m *Module) publish(eventType string, data any) {
	if m.events == nil {
		return
	}
	body, err := json.Marshal(event{Type: eventType, Data: data})
	if err != nil {
		m.logger.Error("Unable to encode event", "type", eventType, "err", err)
		return
	}
	m.events.Publish(constants.EventStreamLights, &sse.Event{Event: []byte(eventType), Data: body})
}

func decodeUpdate(r *http.Request) (models.LightUpdate, error) {
	update := models.LightUpdate{}
	if err := module.DecodeJSON(r, &update); err != nil {
		return models.LightUpdate{}, err
	}
	if err := validateUpdate(update); err != nil {
		return models.LightUpdate{}, err
	}
	return update, nil
}

func notFound(err error, id string) error {
	if errors.Is(err, hue.ErrLightNotFound) {
		return &module.NotFoundError{Kind: "light", ID: id}
	}
	return err
}
