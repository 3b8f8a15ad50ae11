package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Keep-Fight/LightBlogSystem/internal/constants"
)

func TestSessionSaveAndGet(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewSessionStore(client, "blog")
	ctx := context.Background()

	now := time.Now()
	session := &UserSession{
		UserID:    42,
		Username:  "user@example.com",
		LoginType: constants.LoginTypeEmail,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	}
	if err := store.Save(ctx, session, time.Hour); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatalf("expected session, got nil")
	}
	if got.Username != session.Username || got.LoginType != session.LoginType {
		t.Fatalf("session mismatch: %+v", got)
	}
	if got.ExpiresAt != session.ExpiresAt {
		t.Fatalf("expires_at want %d got %d", session.ExpiresAt, got.ExpiresAt)
	}
}

func TestSessionGetMissing(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewSessionStore(client, "blog")

	got, err := store.Get(context.Background(), 999)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil session, got %+v", got)
	}
}

func TestSessionExpiresWithTTL(t *testing.T) {
	s, client := newTestRedis(t)
	store := NewSessionStore(client, "blog")
	ctx := context.Background()

	session := &UserSession{UserID: 7, Username: "seven@example.com", LoginType: constants.LoginTypeEmail}
	if err := store.Save(ctx, session, time.Minute); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	s.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expired session should be gone, got %+v", got)
	}
}

func TestSessionDeleteIdempotent(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewSessionStore(client, "blog")
	ctx := context.Background()

	session := &UserSession{UserID: 11, Username: "eleven@example.com", LoginType: constants.LoginTypeEmail}
	if err := store.Save(ctx, session, time.Hour); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Delete(ctx, 11); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	// 重复删除不报错
	if err := store.Delete(ctx, 11); err != nil {
		t.Fatalf("second delete failed: %v", err)
	}

	got, err := store.Get(ctx, 11)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("deleted session should be gone, got %+v", got)
	}
}
