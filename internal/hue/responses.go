package hue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// entry returned by the discovery directory
type BridgeDescriptor struct {
	ID                string `json:"id"`
	InternalIPAddress string `json:"internalipaddress"`
	Port              int    `json:"port,omitempty"`
}

type apiError struct {
	Type        int    `json:"type"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

// bridges answer writes with a list of success/error items
type apiResult struct {
	Success json.RawMessage `json:"success,omitempty"`
	Error   *apiError       `json:"error,omitempty"`
}

type registerSuccess struct {
	Username string `json:"username"`
}

type registerRequest struct {
	DeviceType string `json:"devicetype"`
}

type hueLightState struct {
	On        bool   `json:"on"`
	Bri       int    `json:"bri"`
	Hue       int    `json:"hue"`
	Sat       int    `json:"sat"`
	Effect    string `json:"effect"`
	Alert     string `json:"alert"`
	Reachable bool   `json:"reachable"`
}

type hueLight struct {
	State    hueLightState `json:"state"`
	Type     string        `json:"type"`
	Name     string        `json:"name"`
	UniqueID string        `json:"uniqueid"`
}

type LightsResponse map[string]hueLight

func parseResults(op string, body []byte) ([]apiResult, error) {
	results := []apiResult{}
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, &ProtocolError{Op: op, Msg: fmt.Sprintf("malformed response: %v", err)}
	}
	if len(results) == 0 {
		return nil, &ProtocolError{Op: op, Msg: "empty response"}
	}
	return results, nil
}

func resultErrors(results []apiResult) []*apiError {
	return lo.FilterMap(results, func(r apiResult, _ int) (*apiError, bool) {
		return r.Error, r.Error != nil
	})
}

func describe(errs []*apiError) string {
	return strings.Join(lo.Map(errs, func(e *apiError, _ int) string {
		return fmt.Sprintf("%s (type %d)", e.Description, e.Type)
	}), "; ")
}
