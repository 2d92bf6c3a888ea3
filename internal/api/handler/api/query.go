package api

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultLimit = 50

// intParam reads a non-negative integer query parameter, falling back to def.
func intParam(q url.Values, key string, def int) (int, bool) {
	v := q.Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// timeParam accepts RFC 3339 timestamps or plain dates.
func timeParam(q url.Values, key string) (time.Time, bool) {
	v := q.Get(key)
	if v == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func upper(q url.Values, key string) string {
	return strings.ToUpper(strings.TrimSpace(q.Get(key)))
}
