package beacon

import (
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"apeBeacon/domain"
)

// Wire aliases. Where two aliases exist the first one listed wins.
const (
	paramCallback      = "jsonp"
	paramPrefix        = "px"
	paramPrefixLegacy  = "ac"
	paramCookie        = "cc"
	paramDebug         = "db"
	paramPageURL       = "dl"
	paramReferrer      = "dr"
	paramTitle         = "dt"
	paramEvent         = "ev"
	paramCustomerID    = "id"
	paramLoadTime      = "ld"
	paramLanguage      = "lg"
	paramColourDepth   = "sc"
	paramScreenHeight  = "sh"
	paramSlots         = "pc"
	paramSlotsLegacy   = "st"
	paramScreenWidth   = "sw"
	paramUserAgent     = "ua"
	paramScriptVersion = "vr"

	headerDoNotTrack = "DNT"

	DefaultCallback = "_ape.callback"
	// DefaultPrefix marks placeholders as "ape-<id>". Legacy pages that tag
	// slots "ape-ad-<id>" send ac=ape-ad (or px=ape-ad) to keep working.
	DefaultPrefix        = "ape"
	defaultScriptVersion = "0.0"

	minEventYear = 1
	maxEventYear = 9999
)

// dotted javascript identifier path, e.g. _ape.callback
var callbackPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

// Normalizer maps the loosely typed query string onto a BeaconRequest.
// It holds no per-request state and is safe for concurrent use.
type Normalizer struct {
	defaultCallback string
	defaultPrefix   string
	now             func() time.Time
}

func NewNormalizer(defaultCallback, defaultPrefix string) *Normalizer {
	if defaultCallback == "" || !callbackPattern.MatchString(defaultCallback) {
		defaultCallback = DefaultCallback
	}
	if defaultPrefix == "" {
		defaultPrefix = DefaultPrefix
	}

	return &Normalizer{
		defaultCallback: defaultCallback,
		defaultPrefix:   defaultPrefix,
		now:             time.Now,
	}
}

// WithClock replaces the clock used for the event time fallback.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	cp := *n
	cp.now = now
	return &cp
}

// Callback resolves the callback name for one request. Names that are not a
// plain identifier path fall back to the default.
func (n *Normalizer) Callback(params url.Values) string {
	cb := params.Get(paramCallback)
	if cb == "" || !callbackPattern.MatchString(cb) {
		return n.defaultCallback
	}
	return cb
}

// Normalize never fails: a complete request is produced whether or not it is valid.
func (n *Normalizer) Normalize(params url.Values, header http.Header) domain.BeaconRequest {
	prefix := firstOf(params, n.defaultPrefix, paramPrefix, paramPrefixLegacy)
	slotTokens := firstOf(params, "", paramSlots, paramSlotsLegacy)

	return domain.BeaconRequest{
		Callback:          n.Callback(params),
		PlaceholderPrefix: prefix,
		VisitorCookieID:   params.Get(paramCookie),
		Debug:             params.Get(paramDebug) == "true",
		PageURL:           params.Get(paramPageURL),
		ReferrerURL:       params.Get(paramReferrer),
		PageTitle:         params.Get(paramTitle),
		EventName:         params.Get(paramEvent),
		CustomerID:        params.Get(paramCustomerID),
		EventTime:         parseEventTime(params.Get(paramLoadTime), n.now),
		Language:          params.Get(paramLanguage),
		SlotTokens:        slotTokens,
		SlotIDs:           ExtractSlotIDs(slotTokens, prefix),
		ScreenColourDepth: parseInt(params.Get(paramColourDepth)),
		ScreenHeight:      parseInt(params.Get(paramScreenHeight)),
		ScreenWidth:       parseInt(params.Get(paramScreenWidth)),
		UserAgent:         params.Get(paramUserAgent),
		ScriptVersion:     firstOf(params, defaultScriptVersion, paramScriptVersion),
		DoNotTrack:        header.Get(headerDoNotTrack) != "",
	}
}

// ExtractSlotIDs keeps the space separated tokens starting with "<prefix>-"
// and strips that prefix. Order is kept, duplicates and bare prefixes dropped.
func ExtractSlotIDs(tokens, prefix string) []string {
	marker := prefix + "-"
	ids := []string{}
	seen := make(map[string]struct{})

	for _, tok := range strings.Split(tokens, " ") {
		if !strings.HasPrefix(tok, marker) {
			continue
		}
		id := strings.TrimPrefix(tok, marker)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids
}

// parseEventTime reads epoch milliseconds. Missing, garbled or out of range
// values fall back to the server clock rather than failing the request.
func parseEventTime(raw string, now func() time.Time) time.Time {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return now().UTC()
	}
	t := time.UnixMilli(ms).UTC()
	// years outside 1..9999 cannot be encoded as RFC 3339 or stored
	if t.Year() < minEventYear || t.Year() > maxEventYear {
		return now().UTC()
	}
	return t
}

func parseInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

func firstOf(params url.Values, def string, keys ...string) string {
	for _, k := range keys {
		if v := params.Get(k); v != "" {
			return v
		}
	}
	return def
}
