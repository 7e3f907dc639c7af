package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenAuthenticator(t *testing.T) {
	a := &TokenAuthenticator{Token: "secret"}

	cases := []struct {
		name   string
		header string
		want   error
	}{
		{name: "missing", header: "", want: ErrMissingBearer},
		{name: "wrong scheme", header: "Basic secret", want: ErrInvalidToken},
		{name: "empty token", header: "Bearer   ", want: ErrInvalidToken},
		{name: "wrong token", header: "Bearer nope", want: ErrInvalidToken},
		{name: "ok", header: "Bearer secret", want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/review", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			claims, err := a.Authenticate(req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if tc.want == nil && claims.Subject != "dev" {
				t.Fatalf("unexpected claims %+v", claims)
			}
		})
	}
}

func TestTokenAuthenticatorDisabled(t *testing.T) {
	a := &TokenAuthenticator{}
	claims, err := a.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil || claims.Subject != "anonymous" {
		t.Fatalf("expected anonymous access, got %+v %v", claims, err)
	}
}

func TestNewAuthenticatorFromEnv(t *testing.T) {
	t.Setenv("SUBSCREEN_DEV_TOKEN", "from-env")
	if got := NewAuthenticatorFromEnv().Token; got != "from-env" {
		t.Fatalf("unexpected token %q", got)
	}
}
