package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/Keep-Fight/LightBlogSystem/internal/config"
)

func TestCaptchaServiceDisabled(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{Enabled: false})

	if _, err := svc.GenerateImageChallenge(); !errors.Is(err, ErrCaptchaDisabled) {
		t.Fatalf("want ErrCaptchaDisabled got %v", err)
	}
	// 未启用时校验直接放行
	if err := svc.Verify("", ""); err != nil {
		t.Fatalf("disabled captcha should pass through, got %v", err)
	}
}

func TestCaptchaServiceGenerateAndVerify(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{Enabled: true, Length: 4, Width: 240, Height: 80})

	challenge, err := svc.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if challenge.CaptchaID == "" {
		t.Fatalf("expected captcha id")
	}
	if !strings.HasPrefix(challenge.ImageBase64, "data:image/") {
		t.Fatalf("expected base64 image data uri")
	}

	if err := svc.Verify(challenge.CaptchaID, "wrong"); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("wrong answer want ErrCaptchaInvalid got %v", err)
	}
}

func TestCaptchaServiceVerifyMissingInput(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{Enabled: true})

	if err := svc.Verify("", "1234"); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("missing id want ErrCaptchaRequired got %v", err)
	}
	if err := svc.Verify("some-id", ""); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("missing code want ErrCaptchaRequired got %v", err)
	}
}
