package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTAuthenticatorRoundTrip(t *testing.T) {
	t.Parallel()

	a := NewJWTAuthenticator("test-secret", "fanfare", "fanfare-auth")

	token, err := a.GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	parsed, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not MapClaims")
	}
	if got, want := claims["sub"].(float64), float64(42); got != want {
		t.Errorf("sub = %v, want %v", got, want)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewJWTAuthenticator("secret-a", "fanfare", "fanfare-auth")
	verifier := NewJWTAuthenticator("secret-b", "fanfare", "fanfare-auth")

	token, err := issuer.GenerateToken(1)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("token signed with another secret validated")
	}
}

func TestValidateTokenRejectsWrongAudienceAndIssuer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		verifier *JWTAuthenticator
	}{
		{"wrong audience", NewJWTAuthenticator("test-secret", "other-app", "fanfare-auth")},
		{"wrong issuer", NewJWTAuthenticator("test-secret", "fanfare", "other-issuer")},
	}

	issuer := NewJWTAuthenticator("test-secret", "fanfare", "fanfare-auth")
	token, err := issuer.GenerateToken(1)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := tt.verifier.ValidateToken(token); err == nil {
				t.Error("mismatched token validated")
			}
		})
	}
}
