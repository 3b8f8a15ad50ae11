package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/Keep-Fight/LightBlogSystem/internal/config"
)

func TestEmailServiceDisabled(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: false})

	err := svc.SendTemplateEmail("user@example.com", "验证码", "common.html", map[string]string{"content": "hi"})
	if !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("want ErrEmailServiceDisabled got %v", err)
	}
}

func TestEmailServiceNotConfigured(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: true})

	err := svc.SendTemplateEmail("user@example.com", "验证码", "common.html", map[string]string{"content": "hi"})
	if !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Fatalf("want ErrEmailServiceNotConfigured got %v", err)
	}
}

func TestEmailServiceInvalidReceiver(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    465,
		From:    "noreply@example.com",
	})

	err := svc.SendTemplateEmail("not an address", "验证码", "common.html", map[string]string{"content": "hi"})
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("want ErrInvalidEmail got %v", err)
	}
}

func TestRenderTemplate(t *testing.T) {
	body := renderTemplate("common.html", map[string]string{"content": "您的验证码是：123456"})
	if body != "您的验证码是：123456" {
		t.Fatalf("common template should return content, got %q", body)
	}

	body = renderTemplate("", map[string]string{"content": "hello"})
	if body != "hello" {
		t.Fatalf("empty template should fall back to content, got %q", body)
	}

	body = renderTemplate("other.html", map[string]string{"k": "v"})
	if body != "k: v" {
		t.Fatalf("unknown template should join pairs, got %q", body)
	}
}

func TestBuildFromAddress(t *testing.T) {
	if got := buildFromAddress("noreply@example.com", ""); got != "noreply@example.com" {
		t.Fatalf("plain from want noreply@example.com got %s", got)
	}

	got := buildFromAddress("noreply@example.com", "轻博客")
	if !strings.Contains(got, "noreply@example.com") {
		t.Fatalf("from with name should carry address, got %s", got)
	}
	if strings.Contains(got, "轻博客") {
		t.Fatalf("display name should be MIME encoded, got %s", got)
	}
}

func TestBuildEmailMessage(t *testing.T) {
	msg := buildEmailMessage("noreply@example.com", "user@example.com", "验证码", "body-text")
	if !strings.Contains(msg, "From: noreply@example.com\r\n") {
		t.Fatalf("missing from header: %q", msg)
	}
	if !strings.Contains(msg, "To: user@example.com\r\n") {
		t.Fatalf("missing to header: %q", msg)
	}
	if !strings.Contains(msg, "Content-Type: text/plain; charset=UTF-8\r\n") {
		t.Fatalf("missing content type: %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\nbody-text") {
		t.Fatalf("body should follow blank line: %q", msg)
	}
}
