// cmd/preflight/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hamed0406/checkwatch/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✖", err)
		os.Exit(1)
	}
	if !report(os.Stdout, os.Stderr, cfg) {
		os.Exit(1)
	}
}

// report prints the checks for cfg and returns false if any check failed.
func report(out, errOut io.Writer, cfg config.Config) bool {
	passed := true
	fail := func(msg string) {
		fmt.Fprintln(errOut, "✖", msg)
		passed = false
	}
	warn := func(msg string) { fmt.Fprintln(errOut, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(out, "✔", msg) }

	if len(cfg.AdminAPIKeys) == 0 {
		fail("ADMIN_API_KEYS is empty (check writes are open to anyone).")
	}
	if len(cfg.PublicAPIKeys) == 0 {
		warn("PUBLIC_API_KEYS is empty; reads are allowed only with admin keys.")
	}

	ok("ENV=" + cfg.Env)
	ok("API_ADDR=" + cfg.Addr)
	ok("CHECK_INTERVAL=" + cfg.CheckInterval.String())

	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty — checks are stored as files under " + cfg.DataDir)
	} else {
		ok("DATABASE_URL present")
	}

	if cfg.RedisAddr == "" {
		warn("REDIS_ADDR empty — per-check locks are in-process; run a single engine per store.")
	} else {
		ok("REDIS_ADDR=" + cfg.RedisAddr)
	}

	switch {
	case cfg.SMSEnabled():
		ok("Twilio SMS alerts enabled")
	case cfg.TwilioAccountSID != "" || cfg.TwilioAuthToken != "" || cfg.TwilioFromPhone != "":
		fail("Twilio settings incomplete: need TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_PHONE.")
	}
	if cfg.SlackWebhookURL != "" {
		ok("Slack alerts enabled")
	}
	if !cfg.SMSEnabled() && cfg.SlackWebhookURL == "" {
		warn("no alert channel configured; alerts will only be logged.")
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty — CORS allows every origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if passed {
		ok("preflight passed")
	}
	return passed
}
