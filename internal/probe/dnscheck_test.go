package probe

import (
	"context"
	"testing"
)

func TestCheckDNS_InvalidName(t *testing.T) {
	for _, in := range []string{"", "  ", "http://example.com", "a b"} {
		if got := CheckDNS(context.Background(), in); got.Class != DNSInvalidName {
			t.Fatalf("CheckDNS(%q).Class=%q want %q", in, got.Class, DNSInvalidName)
		}
	}
}

func TestHostOf(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"example.com/health", "example.com"},
		{"example.com:8080/x", "example.com"},
		{"example.com", "example.com"},
		{"127.0.0.1:9/p?q=1", "127.0.0.1"},
		{"example.com?x=1", "example.com"},
	}
	for _, c := range cases {
		if got := HostOf(c.in); got != c.want {
			t.Fatalf("HostOf(%q)=%q want %q", c.in, got, c.want)
		}
	}
}
