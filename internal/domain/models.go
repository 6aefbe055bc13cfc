package domain

import (
	"encoding/json"
	"time"
)

type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
)

type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

type State string

const (
	StateUnknown State = "unknown"
	StateUp      State = "up"
	StateDown    State = "down"
)

// CheckDescriptor is a validated check. It does not change while a probe runs.
type CheckDescriptor struct {
	ID             string
	OwnerContact   string
	Protocol       Protocol
	URL            string // host + path, no scheme
	Method         Method
	SuccessCodes   []int
	TimeoutSeconds int
}

// Target is the full request URL, e.g. "https://example.com/health".
func (d CheckDescriptor) Target() string {
	return string(d.Protocol) + "://" + d.URL
}

func (d CheckDescriptor) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// IsSuccess reports whether code is one of the check's success codes.
func (d CheckDescriptor) IsSuccess(code int) bool {
	for _, c := range d.SuccessCodes {
		if c == code {
			return true
		}
	}
	return false
}

// CheckRecord is the persisted form of a check. A zero LastChecked means the
// check has never completed a probe.
type CheckRecord struct {
	CheckDescriptor
	State       State
	LastChecked time.Time
}

func (r CheckRecord) HasBeenChecked() bool { return !r.LastChecked.IsZero() }

// recordJSON is the stored document. lastChecked is Unix milliseconds.
type recordJSON struct {
	ID             string `json:"id"`
	OwnerContact   string `json:"ownerContact"`
	Protocol       string `json:"protocol"`
	URL            string `json:"url"`
	Method         string `json:"method"`
	SuccessCodes   []int  `json:"successCodes"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	State          string `json:"state"`
	LastChecked    int64  `json:"lastChecked,omitempty"`
}

func (r CheckRecord) MarshalJSON() ([]byte, error) {
	doc := recordJSON{
		ID:             r.ID,
		OwnerContact:   r.OwnerContact,
		Protocol:       string(r.Protocol),
		URL:            r.URL,
		Method:         string(r.Method),
		SuccessCodes:   r.SuccessCodes,
		TimeoutSeconds: r.TimeoutSeconds,
		State:          string(r.State),
	}
	if doc.State == "" {
		doc.State = string(StateUnknown)
	}
	if r.HasBeenChecked() {
		doc.LastChecked = r.LastChecked.UnixMilli()
	}
	return json.Marshal(doc)
}

// UnmarshalJSON runs the record through ValidateRecord so a decoded record
// always satisfies the same invariants as one read by the engine.
func (r *CheckRecord) UnmarshalJSON(b []byte) error {
	rec, err := ValidateRecord(b)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}
