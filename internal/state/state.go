package state

import (
	"net/http"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/wheelibin/homeserver/internal/constants"
	"github.com/wheelibin/homeserver/internal/module"
)

type store interface {
	Get(key string) (any, bool)
	Set(key string, value any) error
	Remove(key string) error
	Keys() []string
}

// Module exposes the key/value store. Keys used by the server itself are hidden.
type Module struct {
	logger *log.Logger
	store  store
}

type entry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func New(env *module.Env) (module.Module, error) {
	return NewModule(env.Logger, env.Store), nil
}

func NewModule(logger *log.Logger, store store) *Module {
	return &Module{logger: logger.With("module", "state"), store: store}
}

func (m *Module) Routes() []module.Route {
	return []module.Route{
		{Method: http.MethodGet, Pattern: "/state", Handler: m.listKeys},
		{Method: http.MethodGet, Pattern: "/state/:key", Handler: m.get},
		{Method: http.MethodPut, Pattern: "/state/:key", Handler: m.put},
		{Method: http.MethodDelete, Pattern: "/state/:key", Handler: m.remove},
	}
}

func reserved(key string) bool {
	return strings.HasPrefix(key, constants.ReservedStoragePrefix)
}

func (m *Module) listKeys(w http.ResponseWriter, r *http.Request, params []string) error {
	keys := lo.Filter(m.store.Keys(), func(k string, _ int) bool { return !reserved(k) })
	sort.Strings(keys)
	return module.WriteJSON(w, http.StatusOK, keys)
}

func (m *Module) get(w http.ResponseWriter, r *http.Request, params []string) error {
	key := params[0]
	if reserved(key) {
		return &module.NotFoundError{Kind: "key", ID: key}
	}

	value, ok := m.store.Get(key)
	if !ok {
		return &module.NotFoundError{Kind: "key", ID: key}
	}
	return module.WriteJSON(w, http.StatusOK, entry{Key: key, Value: value})
}

func (m *Module) put(w http.ResponseWriter, r *http.Request, params []string) error {
	key := params[0]
	if reserved(key) {
		return &module.ValidationError{Field: "key", Msg: key + " is reserved"}
	}

	var value any
	if err := module.DecodeJSON(r, &value); err != nil {
		return err
	}

	if err := m.store.Set(key, value); err != nil {
		return err
	}
	m.logger.Debug("Stored value", "key", key)

	stored, _ := m.store.Get(key)
	return module.WriteJSON(w, http.StatusOK, entry{Key: key, Value: stored})
}

func (m *Module) remove(w http.ResponseWriter, r *http.Request, params []string) error {
	key := params[0]
	if reserved(key) {
		return &module.ValidationError{Field: "key", Msg: key + " is reserved"}
	}

	if err := m.store.Remove(key); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
