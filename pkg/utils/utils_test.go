package utils

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	user := &models.User{Email: "artist@example.com", UserType: models.UserTypeArtist}
	user.ID = 42

	signed, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	token, err := ValidateToken(signed)
	if err != nil || !token.Valid {
		t.Fatalf("ValidateToken: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["id"].(float64) != 42 || claims["userType"] != "artist" {
		t.Fatalf("claims = %v", claims)
	}

	SetJWTSecret("other-secret")
	if _, err := ValidateToken(signed); err == nil {
		t.Fatalf("token signed with another secret should fail")
	}
}

func TestSendVenueEmail(t *testing.T) {
	var gotTo []string
	var gotMsg string
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotTo = to
		gotMsg = string(msg)
		return nil
	}
	defer func() { sendMail = smtp.SendMail }()

	ConfigureEmail(EmailSettings{})
	if err := SendVenueEmail("venue@example.com", "Offer", "hi"); !errors.Is(err, ErrEmailNotConfigured) {
		t.Fatalf("expected ErrEmailNotConfigured, got %v", err)
	}

	ConfigureEmail(EmailSettings{From: "agent@example.com", Password: "pw", Host: "smtp.example.com", Port: "587"})
	defer ConfigureEmail(EmailSettings{})
	if err := SendVenueEmail("venue@example.com", "Offer for <Roxy>", "Hello <team>\n\nSecond para"); err != nil {
		t.Fatalf("SendVenueEmail: %v", err)
	}
	if len(gotTo) != 1 || gotTo[0] != "venue@example.com" {
		t.Fatalf("to = %v", gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: Offer for <Roxy>") {
		t.Fatalf("subject missing from %q", gotMsg)
	}
	if !strings.Contains(gotMsg, "<p>Hello &lt;team&gt;</p>") || !strings.Contains(gotMsg, "<p>Second para</p>") {
		t.Fatalf("body not escaped into paragraphs: %q", gotMsg)
	}
	if err := SendVenueEmail(" ", "Offer", "hi"); err == nil {
		t.Fatalf("empty recipient should fail")
	}
}
