package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// InvalidKey tags events for records whose id could not be read.
const InvalidKey = "INVALID"

// ErrInvalidRecord matches every *ValidationError via errors.Is.
var ErrInvalidRecord = errors.New("invalid check record")

// ValidationError is the rejection produced by ValidateRecord.
type ValidationError struct {
	ID     string // empty when the record has no usable id
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("check %s: %s", e.Key(), e.Reason)
	}
	return fmt.Sprintf("check %s: %s: %s", e.Key(), e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidRecord }

// Key is the record id, or InvalidKey when the id is unknown.
func (e *ValidationError) Key() string {
	if e.ID == "" {
		return InvalidKey
	}
	return e.ID
}

const (
	MinTimeoutSeconds = 1
	MaxTimeoutSeconds = 5
)

// MaxClockSkew is how far ahead of the local clock a lastChecked written by
// another engine may be.
const MaxClockSkew = 5 * time.Second

// ValidateRecord turns a raw stored document into a canonical CheckRecord or
// rejects it with a *ValidationError. It never panics and has no side effects.
func ValidateRecord(raw []byte) (CheckRecord, error) {
	if !gjson.ValidBytes(raw) {
		return CheckRecord{}, &ValidationError{Reason: "malformed json"}
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return CheckRecord{}, &ValidationError{Reason: "not an object"}
	}

	id, ok := trimmedString(doc.Get("id"))
	if !ok {
		return CheckRecord{}, &ValidationError{Field: "id", Reason: "must be a non-empty string"}
	}
	reject := func(field, reason string) (CheckRecord, error) {
		return CheckRecord{}, &ValidationError{ID: id, Field: field, Reason: reason}
	}

	contact := doc.Get("ownerContact")
	if !contact.Exists() {
		contact = doc.Get("userPhone")
	}
	owner, ok := trimmedString(contact)
	if !ok {
		return reject("ownerContact", "must be a non-empty string")
	}

	proto, ok := trimmedString(doc.Get("protocol"))
	if !ok || (Protocol(proto) != ProtocolHTTP && Protocol(proto) != ProtocolHTTPS) {
		return reject("protocol", "must be http or https")
	}

	url, ok := trimmedString(doc.Get("url"))
	if !ok {
		return reject("url", "must be a non-empty string")
	}

	method, ok := trimmedString(doc.Get("method"))
	if !ok || !validMethod(Method(method)) {
		return reject("method", "must be one of GET, POST, PUT, DELETE")
	}

	codes, ok := successCodes(doc.Get("successCodes"))
	if !ok {
		return reject("successCodes", "must be a non-empty array of integers")
	}

	timeout, ok := integer(doc.Get("timeoutSeconds"))
	if !ok || timeout < MinTimeoutSeconds || timeout > MaxTimeoutSeconds {
		return reject("timeoutSeconds", fmt.Sprintf("must be an integer in [%d,%d]", MinTimeoutSeconds, MaxTimeoutSeconds))
	}

	rec := CheckRecord{
		CheckDescriptor: CheckDescriptor{
			ID:             id,
			OwnerContact:   owner,
			Protocol:       Protocol(proto),
			URL:            url,
			Method:         Method(method),
			SuccessCodes:   codes,
			TimeoutSeconds: int(timeout),
		},
		State: StateUnknown,
	}

	// Without a completed probe there is no state to speak of; with one, an
	// unrecognised state counts as down.
	if ms, ok := integer(doc.Get("lastChecked")); ok && ms > 0 {
		last := time.UnixMilli(ms).UTC()
		if last.After(time.Now().Add(MaxClockSkew)) {
			return reject("lastChecked", "must not be in the future")
		}
		rec.LastChecked = last
		rec.State = StateDown
		if s := State(doc.Get("state").String()); s == StateUp || s == StateDown {
			rec.State = s
		}
	}
	return rec, nil
}

func trimmedString(r gjson.Result) (string, bool) {
	if r.Type != gjson.String {
		return "", false
	}
	s := strings.TrimSpace(r.Str)
	return s, s != ""
}

func integer(r gjson.Result) (int64, bool) {
	if r.Type != gjson.Number || r.Num != math.Trunc(r.Num) {
		return 0, false
	}
	return r.Int(), true
}

func successCodes(r gjson.Result) ([]int, bool) {
	if !r.IsArray() {
		return nil, false
	}
	items := r.Array()
	if len(items) == 0 {
		return nil, false
	}
	seen := make(map[int]struct{}, len(items))
	codes := make([]int, 0, len(items))
	for _, it := range items {
		n, ok := integer(it)
		if !ok {
			return nil, false
		}
		c := int(n)
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		codes = append(codes, c)
	}
	return codes, true
}

func validMethod(m Method) bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	}
	return false
}
