package discord

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Selector timeouts in milliseconds. Discord renders asynchronously with
// no completion signal, so these are the only hard boundaries.
const (
	selectorTimeout      = 15000.0
	shortSelectorTimeout = 10000.0
	loginRedirectTimeout = 60000.0
	verificationTimeout  = 120000.0
)

// Named settle delays. Every delay additionally receives the configured
// ExtraWait offset so slow environments can be scaled with one knob.
const (
	loginFormSettle    = 2 * time.Second
	postLoginSettle    = 1 * time.Second
	postAuthStabilize  = 5 * time.Second
	homeViewSettle     = 3 * time.Second
	navSettle          = 1 * time.Second
	railScrollSettle   = 500 * time.Millisecond
	chatScrollSettle   = 2 * time.Second
	pageUpSettle       = 1 * time.Second
	sendSettle         = 1 * time.Second
	searchBoxSettle    = 200 * time.Millisecond
	searchResultSettle = 500 * time.Millisecond
	browseOpenSettle   = 5 * time.Second
	browseScrollSettle = 3 * time.Second
	resultScrollSettle = 1 * time.Second
	pageButtonSettle   = 1 * time.Second
	ellipsisSettle     = 500 * time.Millisecond
	nextButtonSettle   = 800 * time.Millisecond
	jumpSettle         = 2 * time.Second
	contextListSettle  = 1 * time.Second
)

// goto_ navigates the page and returns once the DOM content has loaded.
// Rendering continues asynchronously afterwards; callers follow up with
// waitVisible or a settle delay.
func (s Session) goto_(url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// settle sleeps for the given delay plus the configured extra-wait offset,
// using the page clock so headless throttling is respected.
func (s Session) settle(d time.Duration) {
	total := d + s.opts.ExtraWait
	if total <= 0 {
		return
	}
	s.page.WaitForTimeout(float64(total.Milliseconds()))
}

// waitVisible waits for a visible marker selector. Absence after the
// timeout is fail-safe: it reports false rather than raising, so callers
// with empty-result semantics can degrade gracefully.
func (s Session) waitVisible(selector string, timeoutMs float64) bool {
	_, err := s.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(timeoutMs),
	})
	return err == nil
}

// mustWaitVisible is the fail-loud variant of waitVisible, used where a
// missing marker leaves the caller with no sensible empty result.
func (s Session) mustWaitVisible(selector string, timeoutMs float64) error {
	if !s.waitVisible(selector, timeoutMs) {
		return fmt.Errorf("required element %q did not appear within %.0fms", selector, timeoutMs)
	}
	return nil
}

// evalRecords runs an in-page extraction script expected to return an
// array of objects, and decodes it into raw records. Fail-safe: any
// evaluation or shape error yields an empty slice.
func (s Session) evalRecords(script string, args ...interface{}) []map[string]interface{} {
	var result interface{}
	var err error
	if len(args) > 0 {
		result, err = s.page.Evaluate(script, args[0])
	} else {
		result, err = s.page.Evaluate(script)
	}
	if err != nil {
		s.log.Debug("extraction script failed", zap.Error(err))
		return nil
	}
	return decodeRecords(result)
}

// decodeRecords converts a generic Evaluate result into a slice of string-
// keyed records, dropping anything that is not object-shaped.
func decodeRecords(v interface{}) []map[string]interface{} {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	records := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if rec, ok := item.(map[string]interface{}); ok {
			records = append(records, rec)
		}
	}
	return records
}

// recordString reads a string field from a raw record, tolerating absent
// or differently-typed values.
func recordString(rec map[string]interface{}, key string) string {
	if v, ok := rec[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// recordStrings reads a string-array field from a raw record.
func recordStrings(rec map[string]interface{}, key string) []string {
	v, ok := rec[key]
	if !ok {
		return nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

// parseTimestamp parses an ISO-8601 datetime attribute, falling back to
// the extraction time in UTC when the value is missing or malformed.
func parseTimestamp(value string) time.Time {
	if value != "" {
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			return ts.UTC()
		}
		if ts, err := time.Parse("2006-01-02T15:04:05.000Z07:00", value); err == nil {
			return ts.UTC()
		}
	}
	return time.Now().UTC()
}
