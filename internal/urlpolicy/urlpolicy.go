// Package urlpolicy computes the navigation target for each refresh cycle.
//
// The cache-bust marker is a single reserved query parameter whose value
// changes on every call, defeating HTTP and browser caching without
// disturbing the rest of the URL. All functions are pure apart from the
// clock and randomness feeding the marker value.
package urlpolicy

import (
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"time"

	"keepalive/internal/config"
)

// MarkerParam is the reserved query parameter used for cache busting.
const MarkerParam = "_keepalive"

// BlankPage is the sentinel URL a fresh browser page reports.
const BlankPage = "about:blank"

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// markerValue derives a fresh marker: base-36 unix-millis plus four random
// base-36 characters. Distinct per call with overwhelming probability; not
// cryptographically secure and not required to be.
func markerValue() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 36))
	for i := 0; i < 4; i++ {
		b.WriteByte(base36[rand.Intn(len(base36))])
	}
	return b.String()
}

// AddMarker returns raw with a freshly valued marker parameter. Any existing
// marker is replaced. Malformed input is returned unchanged.
func AddMarker(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return raw
	}
	q := dropMarkerPairs(u.RawQuery)
	pair := MarkerParam + "=" + markerValue()
	if q == "" {
		q = pair
	} else {
		q += "&" + pair
	}
	u.RawQuery = q
	return u.String()
}

// StripMarker removes the reserved parameter, leaving every other query pair
// and its ordering untouched. Malformed input is returned unchanged.
func StripMarker(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return raw
	}
	u.RawQuery = dropMarkerPairs(u.RawQuery)
	return u.String()
}

// dropMarkerPairs filters the marker key out of a raw query string without
// re-encoding the surviving pairs.
func dropMarkerPairs(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	pairs := strings.Split(rawQuery, "&")
	kept := pairs[:0]
	for _, p := range pairs {
		key, _, _ := strings.Cut(p, "=")
		if key == MarkerParam {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "&")
}

// NextTarget decides the browser-driving call for one refresh cycle given the
// page's live URL. A non-empty target means navigate there; reload true means
// issue a plain reload of whatever page is current.
func NextTarget(cfg config.Config, currentURL string) (target string, reload bool) {
	switch {
	case cfg.AlwaysReset:
		if cfg.CacheBust {
			return AddMarker(cfg.URL), false
		}
		return cfg.URL, false
	case cfg.CacheBust:
		cur := currentURL
		if cur == "" || cur == BlankPage {
			cur = cfg.URL
		}
		return AddMarker(StripMarker(cur)), false
	default:
		return "", true
	}
}

// InitialTarget is the first navigation performed at startup, before any
// current URL exists. Semantics match the AlwaysReset branch of NextTarget.
func InitialTarget(cfg config.Config) string {
	if cfg.CacheBust {
		return AddMarker(cfg.URL)
	}
	return cfg.URL
}
