package constants

import "time"

// hue bridge (v1 api) error types
const HueErrorUnauthorizedUser = 1
const HueErrorLinkButtonNotPressed = 101

const DefaultHueDiscoveryURL = "https://discovery.meethue.com/"
const DefaultHueDeviceType = "homeserver#server"
const DefaultHueTimeout = 10 * time.Second

// key/value store keys
const StorageKeyHueCredentials = "hue.credentials"

// light effects and alerts
const EffectNone = "none"
const EffectColorLoop = "colorloop"
const AlertNone = "none"
const AlertSelect = "select"

// valid ranges for light colour values
const MinBrightness = 1
const MaxBrightness = 254
const MaxHue = 65535
const MaxSaturation = 254

// server-sent events
const EventStreamLights = "lights"
const EventTypeLightUpdated = "light.updated"
const EventTypeBridgeLinked = "bridge.linked"

const LightHistoryLimit = 50

const DefaultBulkUpdateInterval = 100 * time.Millisecond

// date format used by the sun routes
const DateFormat = "2006-01-02"

// key/value store keys under this prefix belong to the server itself
const ReservedStoragePrefix = "hue."
