package httpapi

import "testing"

func TestSplitTarget(t *testing.T) {
	cases := []struct {
		in        string
		wantProto string
		wantURL   string
		wantOK    bool
	}{
		{"https://EXAMPLE.com/", "https", "example.com", true},
		{"http://example.com:80", "http", "example.com", true},
		{"https://example.com:443/health", "https", "example.com/health", true},
		{"http://example.com:8080/p/?q=1", "http", "example.com:8080/p/?q=1", true},
		{"HTTP://[::1]:9000/x", "http", "[::1]:9000/x", true},
		{"ftp://x", "", "", false},
		{"https://", "", "", false},
		{"", "", "", false},
	}
	for _, c := range cases {
		proto, hostPath, ok := splitTarget(c.in)
		if ok != c.wantOK || proto != c.wantProto || hostPath != c.wantURL {
			t.Fatalf("splitTarget(%q)=(%q,%q,%v) want (%q,%q,%v)",
				c.in, proto, hostPath, ok, c.wantProto, c.wantURL, c.wantOK)
		}
	}
}
