package lights

import (
	"fmt"

	"github.com/wheelibin/homeserver/internal/constants"
	"github.com/wheelibin/homeserver/internal/models"
	"github.com/wheelibin/homeserver/internal/module"
)

// validateUpdate checks an update before anything is sent to a bridge.
func validateUpdate(u models.LightUpdate) error {
	if u.IsEmpty() {
		return &module.ValidationError{Msg: "at least one of power, color, effect or alert is required"}
	}

	if u.Color != nil {
		if err := inRange("color.brightness", u.Color.Brightness, constants.MinBrightness, constants.MaxBrightness); err != nil {
			return err
		}
		if err := inRange("color.hue", u.Color.Hue, 0, constants.MaxHue); err != nil {
			return err
		}
		if err := inRange("color.saturation", u.Color.Saturation, 0, constants.MaxSaturation); err != nil {
			return err
		}
	}

	if u.Effect != nil && *u.Effect != constants.EffectNone && *u.Effect != constants.EffectColorLoop {
		return &module.ValidationError{Field: "effect", Msg: fmt.Sprintf("%q is not one of %s, %s", *u.Effect, constants.EffectNone, constants.EffectColorLoop)}
	}
	if u.Alert != nil && *u.Alert != constants.AlertNone && *u.Alert != constants.AlertSelect {
		return &module.ValidationError{Field: "alert", Msg: fmt.Sprintf("%q is not one of %s, %s", *u.Alert, constants.AlertNone, constants.AlertSelect)}
	}

	return nil
}

func inRange(field string, v *int, min int, max int) error {
	if v != nil && (*v < min || *v > max) {
		return &module.ValidationError{Field: field, Msg: fmt.Sprintf("%d is outside %d-%d", *v, min, max)}
	}
	return nil
}
