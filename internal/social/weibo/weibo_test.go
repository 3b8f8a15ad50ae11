package weibo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Keep-Fight/LightBlogSystem/internal/config"
	"github.com/Keep-Fight/LightBlogSystem/internal/social"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := New(config.SocialProviderConfig{
		Enabled:     true,
		AppID:       "app-id",
		AppSecret:   "app-secret",
		RedirectURI: "https://blog.example.com/callback",
	})
	client.baseURL = server.URL
	return client
}

func TestExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/access_token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("access_token method want POST got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form failed: %v", err)
		}
		if r.PostFormValue("grant_type") != "authorization_code" {
			t.Errorf("grant_type want authorization_code got %s", r.PostFormValue("grant_type"))
		}
		if r.PostFormValue("code") != "auth-code" {
			t.Errorf("code want auth-code got %s", r.PostFormValue("code"))
		}
		fmt.Fprint(w, `{"access_token":"token-abc","uid":"2090000001"}`)
	})
	mux.HandleFunc("/2/users/show.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"screen_name":"小红","avatar_large":"https://tvax.sinaimg.cn/1.jpg"}`)
	})
	client := newTestClient(t, mux)

	identity, err := client.Exchange(context.Background(), []byte(`{"code":"auth-code"}`))
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if identity.ProviderUID != "2090000001" {
		t.Fatalf("provider_uid want 2090000001 got %s", identity.ProviderUID)
	}
	if identity.Nickname != "小红" || identity.Avatar != "https://tvax.sinaimg.cn/1.jpg" {
		t.Fatalf("profile mismatch: %+v", identity)
	}
}

func TestExchangeProfileFailureNonFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/access_token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"token-abc","uid":"2090000001"}`)
	})
	mux.HandleFunc("/2/users/show.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	client := newTestClient(t, mux)

	identity, err := client.Exchange(context.Background(), []byte(`{"code":"auth-code"}`))
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if identity.ProviderUID != "2090000001" || identity.Nickname != "" {
		t.Fatalf("identity mismatch: %+v", identity)
	}
}

func TestExchangeTokenRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/access_token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	})
	client := newTestClient(t, mux)

	_, err := client.Exchange(context.Background(), []byte(`{"code":"expired-code"}`))
	if !errors.Is(err, social.ErrExchangeFailed) {
		t.Fatalf("want ErrExchangeFailed got %v", err)
	}
}

func TestExchangeInvalidPayload(t *testing.T) {
	client := New(config.SocialProviderConfig{Enabled: true})

	if _, err := client.Exchange(context.Background(), []byte(`not-json`)); !errors.Is(err, social.ErrPayloadInvalid) {
		t.Fatalf("want ErrPayloadInvalid got %v", err)
	}
	if _, err := client.Exchange(context.Background(), []byte(`{"code":"  "}`)); !errors.Is(err, social.ErrPayloadInvalid) {
		t.Fatalf("want ErrPayloadInvalid got %v", err)
	}
}

func TestExchangeProviderDisabled(t *testing.T) {
	client := New(config.SocialProviderConfig{Enabled: false})

	if _, err := client.Exchange(context.Background(), []byte(`{"code":"auth-code"}`)); !errors.Is(err, social.ErrProviderDisabled) {
		t.Fatalf("want ErrProviderDisabled got %v", err)
	}
}
