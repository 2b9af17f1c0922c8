package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHash_Deterministic(t *testing.T) {
	for _, in := range []string{"1.2.3.4", "::1", "", "not an ip", " 203.0.113.1"} {
		if Hash(in) != Hash(in) {
			t.Fatalf("Hash(%q) not deterministic", in)
		}
	}
}

func TestHash_HexSHA256(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Hash("abc"); got != want {
		t.Fatalf("Hash(abc) = %s; want %s", got, want)
	}
	if got := Hash("1.2.3.4"); len(got) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(got))
	}
}

func TestHash_NotIdentity(t *testing.T) {
	for _, ip := range []string{"1.2.3.4", "5.6.7.8", "203.0.113.1", "2001:db8::1"} {
		if Hash(ip) == ip {
			t.Fatalf("Hash(%q) returned the plaintext", ip)
		}
	}
	if Hash("1.2.3.4") == Hash("5.6.7.8") {
		t.Fatalf("distinct inputs collided")
	}
}

func TestClientAddress(t *testing.T) {
	tests := []struct {
		name   string
		xff    []string
		xri    string
		remote string
		want   string
	}{
		{name: "xff first segment", xff: []string{"203.0.113.1, 198.51.100.1"}, remote: "10.0.0.1:5000", want: "203.0.113.1"},
		{name: "xff keeps whitespace", xff: []string{"  203.0.113.1 , 198.51.100.1"}, want: "  203.0.113.1 "},
		{name: "xff single", xff: []string{"198.51.100.7"}, want: "198.51.100.7"},
		{name: "xff first header only", xff: []string{"192.0.2.1", "192.0.2.2"}, want: "192.0.2.1"},
		{name: "xff empty first segment falls through", xff: []string{",192.0.2.2"}, xri: "192.0.2.9", want: "192.0.2.9"},
		{name: "real ip", xri: "192.0.2.10", remote: "10.0.0.1:5000", want: "192.0.2.10"},
		{name: "remote addr strips port", remote: "10.0.0.1:5000", want: "10.0.0.1"},
		{name: "remote ipv6 strips port", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "remote without port", remote: "10.0.0.2", want: "10.0.0.2"},
		{name: "fallback", want: Fallback},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/enter/x", nil)
			r.RemoteAddr = tc.remote
			for _, v := range tc.xff {
				r.Header.Add("X-Forwarded-For", v)
			}
			if tc.xri != "" {
				r.Header.Set("X-Real-IP", tc.xri)
			}
			if got := ClientAddress(r); got != tc.want {
				t.Fatalf("ClientAddress = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestClientAddress_NilRequest(t *testing.T) {
	if got := ClientAddress(nil); got != Fallback {
		t.Fatalf("ClientAddress(nil) = %q", got)
	}
}
