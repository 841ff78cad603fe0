package models

import "time"

type Color struct {
	Brightness int `json:"brightness"`
	Hue        int `json:"hue"`
	Saturation int `json:"saturation"`
}

// Light is a read-only snapshot of a light owned by a bridge. Changes go through
// the bridge, never through the snapshot.
type Light struct {
	ID string `json:"id"`
	// position of the light in the bridge's light list, used to address updates
	Index    string `json:"index"`
	BridgeID string `json:"bridgeId"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Power    bool   `json:"power"`
	Color    Color  `json:"color"`
	Effect   string `json:"effect"`
	Alert    string `json:"alert"`
	// whether the bridge could reach the light at enumeration time
	Reachable bool `json:"reachable"`
}

type ColorUpdate struct {
	Brightness *int `json:"brightness,omitempty"`
	Hue        *int `json:"hue,omitempty"`
	Saturation *int `json:"saturation,omitempty"`
}

func (c *ColorUpdate) IsEmpty() bool {
	return c == nil || (c.Brightness == nil && c.Hue == nil && c.Saturation == nil)
}

// LightUpdate is a partial change to a light. Nil fields are left alone.
type LightUpdate struct {
	Power  *bool        `json:"power,omitempty"`
	Color  *ColorUpdate `json:"color,omitempty"`
	Effect *string      `json:"effect,omitempty"`
	Alert  *string      `json:"alert,omitempty"`
}

func (u LightUpdate) IsEmpty() bool {
	return u.Power == nil && u.Color.IsEmpty() && u.Effect == nil && u.Alert == nil
}

// Apply returns l with the fields of u applied.
func (u LightUpdate) Apply(l Light) Light {
	if u.Power != nil {
		l.Power = *u.Power
	}
	if u.Color != nil {
		if u.Color.Brightness != nil {
			l.Color.Brightness = *u.Color.Brightness
		}
		if u.Color.Hue != nil {
			l.Color.Hue = *u.Color.Hue
		}
		if u.Color.Saturation != nil {
			l.Color.Saturation = *u.Color.Saturation
		}
	}
	if u.Effect != nil {
		l.Effect = *u.Effect
	}
	if u.Alert != nil {
		l.Alert = *u.Alert
	}
	return l
}

type BridgeInfo struct {
	ID            string `json:"id"`
	Address       string `json:"address"`
	Authenticated bool   `json:"authenticated"`
	// the bridge is waiting for its link button to be pressed
	LinkPending bool `json:"linkPending"`
	LightCount  int  `json:"lightCount"`
}

// LightUpdateRecord is one entry of the light update journal
type LightUpdateRecord struct {
	ID        int64       `json:"id"`
	LightID   string      `json:"lightId"`
	BridgeID  string      `json:"bridgeId"`
	Update    LightUpdate `json:"update"`
	Error     string      `json:"error,omitempty"`
	AppliedAt time.Time   `json:"appliedAt"`
}

// SunTimes are the local sunrise and sunset for a date. Both are nil when the
// sun does not rise or set that day.
type SunTimes struct {
	Date     string     `json:"date"`
	Location string     `json:"location"`
	Sunrise  *time.Time `json:"sunrise"`
	Sunset   *time.Time `json:"sunset"`
	DayHours float64    `json:"dayHours"`
	// set when a configured min/max moved the calculated time
	Clamped bool `json:"clamped,omitempty"`
}
