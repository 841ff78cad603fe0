package hue_test

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wheelibin/homeserver/internal/hue"
	"github.com/wheelibin/homeserver/internal/models"
)

func newBridge(f *fakeBridge) *hue.Bridge {
	return hue.NewBridge(quietLogger(), hue.NewHTTPClient(defaultTimeout), f.address(), "bridge-a")
}

func Test_Authenticate(t *testing.T) {

	t.Run("should store the issued username", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, true, threeLights)
		bridge := newBridge(fb)

		ok, err := bridge.Authenticate(context.Background(), "homeserver#test")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, testUsername, bridge.Username())
		assert.True(t, bridge.Authenticated())
		assert.False(t, bridge.LinkPending())
	})

	t.Run("link button not pressed: should return false without an error", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, false, threeLights)
		bridge := newBridge(fb)

		ok, err := bridge.Authenticate(context.Background(), "homeserver#test")

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, bridge.Username())
		assert.True(t, bridge.LinkPending())
	})

	t.Run("other bridge error: should return a protocol error", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, true, threeLights)
		bridge := newBridge(fb)

		ok, err := bridge.Authenticate(context.Background(), "")

		var protocolErr *hue.ProtocolError
		require.ErrorAs(t, err, &protocolErr)
		assert.False(t, ok)
		assert.Contains(t, protocolErr.Msg, "type 5")
	})

	t.Run("unreachable bridge: should return a transport error", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, true, threeLights)
		bridge := newBridge(fb)
		fb.server.Close()

		_, err := bridge.Authenticate(context.Background(), "homeserver#test")

		var transportErr *hue.TransportError
		assert.ErrorAs(t, err, &transportErr)
	})
}

func Test_DiscoverLights(t *testing.T) {

	t.Run("should replace the cached lights ordered by index", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, true, threeLights)
		bridge := newBridge(fb)
		bridge.SetUsername(testUsername)

		err := bridge.DiscoverLights(context.Background())

		require.NoError(t, err)
		lights := bridge.Lights()
		assert.Equal(t, []string{"1", "2", "10"}, lo.Map(lights, func(l models.Light, _ int) string { return l.Index }))
		assert.Equal(t, 3, bridge.LightCount())

		desk := lights[2]
		assert.Equal(t, "a-10", desk.ID)
		assert.Equal(t, "bridge-a", desk.BridgeID)
		assert.Equal(t, "Desk", desk.Name)
		assert.True(t, desk.Power)
		assert.Equal(t, models.Color{Brightness: 254, Hue: 1000, Saturation: 254}, desk.Color)
		assert.Equal(t, "colorloop", desk.Effect)

		// missing effect/alert default to none
		assert.Equal(t, "none", lights[0].Effect)
		assert.Equal(t, "none", lights[0].Alert)
	})

	t.Run("should not merge with the previous list", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, true, threeLights)
		bridge := newBridge(fb)
		bridge.SetUsername(testUsername)
		require.NoError(t, bridge.DiscoverLights(context.Background()))

		fb.mu.Lock()
		fb.lights = `{"7": {"state": {"on": true}, "name": "Only", "uniqueid": "a-7"}}`
		fb.mu.Unlock()
		require.NoError(t, bridge.DiscoverLights(context.Background()))

		lights := bridge.Lights()
		require.Len(t, lights, 1)
		assert.Equal(t, "a-7", lights[0].ID)
	})

	t.Run("rejected credential: should keep the cached lights and forget the username", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, true, threeLights)
		bridge := newBridge(fb)
		bridge.SetUsername(testUsername)
		require.NoError(t, bridge.DiscoverLights(context.Background()))

		bridge.SetUsername("revoked")
		err := bridge.DiscoverLights(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 3, bridge.LightCount())
		assert.False(t, bridge.Authenticated())
	})

	t.Run("not authenticated: should not call the bridge", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, true, threeLights)
		bridge := newBridge(fb)

		err := bridge.DiscoverLights(context.Background())

		assert.ErrorIs(t, err, hue.ErrNotAuthenticated)
		assert.Equal(t, int32(0), fb.lightCalls.Load())
	})

	t.Run("malformed response: should return a protocol error", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, true, `{"1": "nope"`)
		bridge := newBridge(fb)
		bridge.SetUsername(testUsername)

		err := bridge.DiscoverLights(context.Background())

		var protocolErr *hue.ProtocolError
		assert.ErrorAs(t, err, &protocolErr)
		assert.Empty(t, bridge.Lights())
	})
}

func Test_BridgeInitialize(t *testing.T) {

	t.Run("should authenticate then read the lights", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, true, threeLights)
		bridge := newBridge(fb)

		err := bridge.Initialize(context.Background(), "homeserver#test")

		require.NoError(t, err)
		assert.Equal(t, int32(1), fb.authCalls.Load())
		assert.Equal(t, int32(1), fb.lightCalls.Load())
		assert.Equal(t, 3, bridge.LightCount())
	})

	t.Run("link button not pressed: should not read the lights", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, false, threeLights)
		bridge := newBridge(fb)

		err := bridge.Initialize(context.Background(), "homeserver#test")

		require.NoError(t, err)
		assert.Equal(t, int32(1), fb.authCalls.Load())
		assert.Equal(t, int32(0), fb.lightCalls.Load())
		assert.Empty(t, bridge.Lights())
	})

	t.Run("known username: should skip authentication", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, false, threeLights)
		bridge := newBridge(fb)
		bridge.SetUsername(testUsername)

		err := bridge.Initialize(context.Background(), "homeserver#test")

		require.NoError(t, err)
		assert.Equal(t, int32(0), fb.authCalls.Load())
		assert.Equal(t, 3, bridge.LightCount())
	})

	t.Run("rejected username: should register again and read the lights", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, true, threeLights)
		bridge := newBridge(fb)
		bridge.SetUsername("revoked")

		err := bridge.Initialize(context.Background(), "homeserver#test")

		require.NoError(t, err)
		assert.Equal(t, int32(1), fb.authCalls.Load())
		assert.Equal(t, testUsername, bridge.Username())
		assert.Equal(t, 3, bridge.LightCount())
	})

	t.Run("rejected username and link button not pressed: should report link pending", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, false, threeLights)
		bridge := newBridge(fb)
		bridge.SetUsername("revoked")

		err := bridge.Initialize(context.Background(), "homeserver#test")

		require.NoError(t, err)
		assert.Equal(t, int32(1), fb.authCalls.Load())
		info := bridge.Info()
		assert.False(t, info.Authenticated)
		assert.True(t, info.LinkPending)
		assert.Empty(t, bridge.Lights())
	})
}

func Test_SetLightState(t *testing.T) {

	ready := func(t *testing.T) (*fakeBridge, *hue.Bridge) {
		fb := newFakeBridge(t, true, threeLights)
		bridge := newBridge(fb)
		require.NoError(t, bridge.Initialize(context.Background(), "homeserver#test"))
		return fb, bridge
	}

	t.Run("should send all fields in one call addressed by index", func(t *testing.T) {
		t.Parallel()
		fb, bridge := ready(t)

		updated, err := bridge.SetLightState(context.Background(), "2", models.LightUpdate{
			Power:  lo.ToPtr(true),
			Color:  &models.ColorUpdate{Brightness: lo.ToPtr(128), Saturation: lo.ToPtr(12)},
			Effect: lo.ToPtr("colorloop"),
			Alert:  lo.ToPtr("select"),
		})

		require.NoError(t, err)
		assert.Equal(t, int32(1), fb.stateCalls.Load())
		assert.Equal(t, []map[string]any{{
			"on":     true,
			"bri":    float64(128),
			"sat":    float64(12),
			"effect": "colorloop",
			"alert":  "select",
		}}, fb.bodiesFor("2"))

		// the cached snapshot reflects the change, untouched fields are kept
		assert.Equal(t, "a-2", updated.ID)
		assert.True(t, updated.Power)
		assert.Equal(t, models.Color{Brightness: 128, Hue: 200, Saturation: 12}, updated.Color)
		cached, _ := lo.Find(bridge.Lights(), func(l models.Light) bool { return l.Index == "2" })
		assert.Equal(t, updated, cached)
	})

	t.Run("bridge reports an error: should return a protocol error and keep the cache", func(t *testing.T) {
		t.Parallel()
		fb, bridge := ready(t)
		fb.setStateReply(`[{"error":{"type":201,"address":"/lights/2/state/bri","description":"parameter, bri, is not modifiable. Device is set to off."}}]`)

		_, err := bridge.SetLightState(context.Background(), "2", models.LightUpdate{Color: &models.ColorUpdate{Brightness: lo.ToPtr(50)}})

		var protocolErr *hue.ProtocolError
		require.ErrorAs(t, err, &protocolErr)
		assert.Contains(t, protocolErr.Msg, "not modifiable")
		cached, _ := lo.Find(bridge.Lights(), func(l models.Light) bool { return l.Index == "2" })
		assert.Equal(t, 10, cached.Color.Brightness)
	})

	t.Run("partly applied: should return a protocol error and cache the accepted fields", func(t *testing.T) {
		t.Parallel()
		fb, bridge := ready(t)
		fb.setStateReply(`[
  {"success":{"/lights/1/state/alert":"select"}},
  {"success":{"/lights/1/state/bri":200}},
  {"error":{"type":6,"address":"/lights/1/state/hue","description":"parameter, hue, not available"}}
]`)

		_, err := bridge.SetLightState(context.Background(), "1", models.LightUpdate{
			Color: &models.ColorUpdate{Brightness: lo.ToPtr(200), Hue: lo.ToPtr(5000)},
			Alert: lo.ToPtr("select"),
		})

		var protocolErr *hue.ProtocolError
		require.ErrorAs(t, err, &protocolErr)
		assert.Contains(t, protocolErr.Msg, "not available")
		cached, _ := lo.Find(bridge.Lights(), func(l models.Light) bool { return l.Index == "1" })
		assert.Equal(t, "select", cached.Alert)
		assert.Equal(t, models.Color{Brightness: 200, Hue: 0, Saturation: 0}, cached.Color)
	})

	t.Run("not authenticated: should not call the bridge", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBridge(t, true, threeLights)
		bridge := newBridge(fb)

		_, err := bridge.SetLightState(context.Background(), "1", models.LightUpdate{Power: lo.ToPtr(false)})

		assert.ErrorIs(t, err, hue.ErrNotAuthenticated)
		assert.Equal(t, int32(0), fb.stateCalls.Load())
	})
}
