package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestPasswordRoundTrip(t *testing.T) {
	const password = "garage-door-pin-1234"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	t.Run("correct password verifies", func(t *testing.T) {
		ok, err := VerifyPassword(password, hash)
		if err != nil {
			t.Fatalf("VerifyPassword() error = %v", err)
		}
		if !ok {
			t.Error("VerifyPassword() = false, want true")
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		ok, err := VerifyPassword("garage-door-pin-9999", hash)
		if err != nil {
			t.Fatalf("VerifyPassword() error = %v", err)
		}
		if ok {
			t.Error("VerifyPassword() = true for wrong password")
		}
	})
}

func TestHashPasswordEncoding(t *testing.T) {
	hash, err := HashPassword("bridge-admin")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=1$") {
		t.Errorf("hash prefix = %q, want argon2id PHC with current work factors", hash)
	}

	if parts := strings.Split(hash, "$"); len(parts) != 6 {
		t.Errorf("PHC string has %d $-delimited parts, want 6: %q", len(parts), hash)
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	first, err := HashPassword("same-secret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	second, err := HashPassword("same-secret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if first == second {
		t.Error("repeated hashing produced identical output, salts not random")
	}
}

func TestVerifyPasswordOldWorkFactors(t *testing.T) {
	// A hash minted under lighter factors must still verify using the
	// factors it records, not the current defaults.
	old := "$argon2id$v=19$m=32768,t=2,p=1$" +
		"c2FsdHNhbHRzYWx0c2FsdA$" + // "saltsaltsaltsalt"
		"x0SLd6oz4PyBE8CnA2wZWgmAdwRsBB98lMXvIXiPBLk"

	if _, err := VerifyPassword("anything", old); err != nil {
		t.Fatalf("VerifyPassword() error = %v, want parse success for recorded factors", err)
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"plain text", "not-a-hash"},
		{"bcrypt prefix", "$2a$10$abcdefghijklmnopqrstuv"},
		{"missing digest", "$argon2id$v=19$m=65536,t=3,p=1$c2FsdA"},
		{"bad version", "$argon2id$v=16$m=65536,t=3,p=1$c2FsdA$ZGlnZXN0"},
		{"bad params", "$argon2id$v=19$m=lots$c2FsdA$ZGlnZXN0"},
		{"bad salt base64", "$argon2id$v=19$m=65536,t=3,p=1$!!!$ZGlnZXN0"},
		{"bad digest base64", "$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyPassword("password", tt.hash)
			if !errors.Is(err, ErrMalformedHash) {
				t.Errorf("VerifyPassword() error = %v, want ErrMalformedHash", err)
			}
		})
	}
}
