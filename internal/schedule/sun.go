package schedule

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nathan-osman/go-sunrise"
	"github.com/wheelibin/homeserver/internal/config"
	"github.com/wheelibin/homeserver/internal/constants"
	"github.com/wheelibin/homeserver/internal/models"
	"github.com/wheelibin/homeserver/internal/module"
)

// Module serves the local sunrise and sunset for the configured geo location.
type Module struct {
	logger      *log.Logger
	geoLocation string
	lat         float64
	lng         float64
	clamps      config.SunConfig
	loc         *time.Location
	now         func() time.Time
}

func New(env *module.Env) (module.Module, error) {
	return NewModule(env.Logger, env.Config.GeoLocation, env.Config.Sun, time.Local, time.Now)
}

func NewModule(logger *log.Logger, geoLocation string, clamps config.SunConfig, loc *time.Location, now func() time.Time) (*Module, error) {
	lat, lng, err := config.ParseGeoLocation(geoLocation)
	if err != nil {
		return nil, err
	}

	// reject bad clamps up front rather than on every request
	for _, c := range []string{clamps.SunriseMin, clamps.SunriseMax, clamps.SunsetMin, clamps.SunsetMax} {
		if c == "" {
			continue
		}
		if _, err := TimeFromConfigTimeString(c, now()); err != nil {
			return nil, err
		}
	}

	return &Module{
		logger:      logger.With("module", "sun"),
		geoLocation: geoLocation,
		lat:         lat,
		lng:         lng,
		clamps:      clamps,
		loc:         loc,
		now:         now,
	}, nil
}

func (m *Module) Routes() []module.Route {
	return []module.Route{
		{Method: http.MethodGet, Pattern: "/sun", Handler: m.getToday},
		{Method: http.MethodGet, Pattern: "/sun/:date", Handler: m.getDate},
	}
}

func (m *Module) getToday(w http.ResponseWriter, r *http.Request, params []string) error {
	return module.WriteJSON(w, http.StatusOK, m.SunTimes(m.now().In(m.loc)))
}

func (m *Module) getDate(w http.ResponseWriter, r *http.Request, params []string) error {
	date, err := time.ParseInLocation(constants.DateFormat, params[0], m.loc)
	if err != nil {
		return &module.ValidationError{Field: "date", Msg: fmt.Sprintf("%q is not a %s date", params[0], constants.DateFormat)}
	}
	return module.WriteJSON(w, http.StatusOK, m.SunTimes(date))
}

// SunTimes calculates sunrise and sunset on the day of date, applying any
// configured min/max.
func (m *Module) SunTimes(date time.Time) models.SunTimes {
	date = date.In(m.loc)
	times := models.SunTimes{Date: date.Format(constants.DateFormat), Location: m.geoLocation}

	rise, set := sunrise.SunriseSunset(
		m.lat, m.lng,
		date.Year(), date.Month(), date.Day(),
	)
	if rise.IsZero() || set.IsZero() {
		// polar day or night
		m.logger.Debug("The sun does not rise and set", "date", times.Date)
		return times
	}
	rise = rise.In(m.loc)
	set = set.In(m.loc)

	clampedRise := clamp(rise, m.clamps.SunriseMin, m.clamps.SunriseMax, date)
	clampedSet := clamp(set, m.clamps.SunsetMin, m.clamps.SunsetMax, date)
	times.Clamped = !clampedRise.Equal(rise) || !clampedSet.Equal(set)

	m.logger.Debug("Calculated local sunrise and sunset",
		"sunrise", clampedRise.Format("15:04"),
		"sunset", clampedSet.Format("15:04"),
	)

	times.Sunrise = &clampedRise
	times.Sunset = &clampedSet
	times.DayHours = math.Round(clampedSet.Sub(clampedRise).Hours()*100) / 100
	return times
}

func clamp(t time.Time, min string, max string, baseDate time.Time) time.Time {
	if min != "" {
		if minTime, err := TimeFromConfigTimeString(min, baseDate); err == nil && t.Before(minTime) {
			t = minTime
		}
	}
	if max != "" {
		if maxTime, err := TimeFromConfigTimeString(max, baseDate); err == nil && t.After(maxTime) {
			t = maxTime
		}
	}
	return t
}

// TimeFromConfigTimeString builds a time on baseDate's day (and location) from a
// clock time such as "06:30".
func TimeFromConfigTimeString(timeString string, baseDate time.Time) (time.Time, error) {
	timeHM := strings.Split(timeString, ":")
	if len(timeHM) != 2 {
		return time.Time{}, fmt.Errorf("invalid time (%s), expected HH:MM", timeString)
	}
	hour, errH := strconv.Atoi(timeHM[0])
	mins, errM := strconv.Atoi(timeHM[1])
	if errH != nil || errM != nil || hour < 0 || hour > 23 || mins < 0 || mins > 59 {
		return time.Time{}, fmt.Errorf("invalid time (%s), expected HH:MM", timeString)
	}
	return time.Date(baseDate.Year(), baseDate.Month(), baseDate.Day(), hour, mins, 0, 0, baseDate.Location()), nil
}
