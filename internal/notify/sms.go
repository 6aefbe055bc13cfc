package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxSMSLength is the longest message the SMS gateway accepts.
const MaxSMSLength = 1600

const twilioBaseURL = "https://api.twilio.com"

// optional country code, then area code, exchange and subscriber with loose
// separators, then an optional extension which is dropped.
var phoneRe = regexp.MustCompile(`^\s*(?:\+?(\d{1,3}))?[-. (]*(\d{3})[-. )]*(\d{3})[-. ]*(\d{4})(?: *x(\d+))?\s*$`)

// NormalizePhone returns the E.164 form of a phone number. Numbers without a
// country code are assumed to be North American.
func NormalizePhone(s string) (string, error) {
	m := phoneRe.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDestination, s)
	}
	cc := m[1]
	if cc == "" {
		cc = "1"
	}
	return "+" + cc + m[2] + m[3] + m[4], nil
}

// SMS sends messages through the Twilio REST API.
type SMS struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	Client     *http.Client
}

func NewSMS(accountSID, authToken, from string) *SMS {
	if accountSID == "" || authToken == "" || from == "" {
		return nil
	}
	return &SMS{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		BaseURL:    twilioBaseURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SMS) Deliver(ctx context.Context, destination, message string) error {
	to, err := NormalizePhone(destination)
	if err != nil {
		return err
	}
	if message == "" {
		return fmt.Errorf("sms: empty message")
	}
	if utf8.RuneCountInString(message) > MaxSMSLength {
		return fmt.Errorf("sms: %w (%d > %d)", ErrMessageTooLong, utf8.RuneCountInString(message), MaxSMSLength)
	}

	form := url.Values{}
	form.Set("From", s.From)
	form.Set("To", to)
	form.Set("Body", message)

	endpoint := strings.TrimRight(s.BaseURL, "/") + "/2010-04-01/Accounts/" + url.PathEscape(s.AccountSID) + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.AccountSID, s.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("sms: status %d", resp.StatusCode)
	}
	return nil
}
