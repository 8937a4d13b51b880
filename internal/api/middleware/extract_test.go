package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
		wantOK bool
	}{
		{name: "neither", wantOK: false},
		{name: "header only", header: "h", want: "h", wantOK: true},
		{name: "cookie only", cookie: "c", want: "c", wantOK: true},
		{name: "both prefers header", header: "h", cookie: "c", want: "h", wantOK: true},
		{name: "blank header falls back to cookie", header: "   ", cookie: "c", want: "c", wantOK: true},
		{name: "non ascii header falls back to cookie", header: "t\xffk", cookie: "c", want: "c", wantOK: true},
		{name: "non ascii header without cookie", header: "t\xffk", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header["X-Authentication"] = []string{tt.header}
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}

			got, ok := ExtractToken(req)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("ExtractToken() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTokenSource_TokenForwardedVerbatim(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Authentication", "Bearer abc==")

	got, ok := TokenSource{}.Extract(req)
	if !ok || got != "Bearer abc==" {
		t.Fatalf("expected verbatim token, got %q", got)
	}
}
