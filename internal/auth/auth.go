// Package auth verifies worker PINs against the cached person catalog.
// Two hash schemes are accepted: bcrypt for hashes issued by this app and
// the "pbkdf2:sha256:..." format carried over from the previous system.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"

	"worklog/internal/catalog"
)

var (
	ErrUnknownPerson    = errors.New("auth: unknown person")
	ErrNoPIN            = errors.New("auth: person has no pin configured")
	ErrWrongPIN         = errors.New("auth: wrong pin")
	ErrUnsupportedHash  = errors.New("auth: unsupported hash format")
	errMalformedEncoded = errors.New("auth: malformed pbkdf2 hash")
)

// PersonCatalog is the slice of the reference cache the login flow needs.
type PersonCatalog interface {
	Persons(ctx context.Context) catalog.PersonDirectory
}

// Authenticator resolves persons and checks their PINs.
type Authenticator struct {
	persons PersonCatalog
}

func New(persons PersonCatalog) *Authenticator {
	return &Authenticator{persons: persons}
}

// Login verifies pin for personID and returns the matched person.
// Persons without a stored hash cannot log in. When the catalog has never
// loaded the directory is empty and every login fails as unknown.
func (a *Authenticator) Login(ctx context.Context, personID int, pin string) (catalog.Person, error) {
	dir := a.persons.Persons(ctx)
	person, ok := dir[personID]
	if !ok {
		return catalog.Person{}, ErrUnknownPerson
	}
	if person.PINHash == "" {
		return catalog.Person{}, ErrNoPIN
	}
	if err := VerifyPIN(person.PINHash, pin); err != nil {
		if errors.Is(err, ErrUnsupportedHash) {
			slog.WarnContext(ctx, "Unsupported pin hash format", "person_id", personID)
		}
		return catalog.Person{}, err
	}
	return person, nil
}

// VerifyPIN checks pin against a stored hash. bcrypt hashes start with
// "$2", legacy hashes with "pbkdf2:". Anything else is rejected.
func VerifyPIN(hash, pin string) error {
	switch {
	case strings.HasPrefix(hash, "$2"):
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
			return ErrWrongPIN
		}
		return nil
	case strings.HasPrefix(hash, "pbkdf2:"):
		ok, err := verifyPBKDF2(hash, pin)
		if err != nil {
			return err
		}
		if !ok {
			return ErrWrongPIN
		}
		return nil
	default:
		return ErrUnsupportedHash
	}
}

// HashPIN produces a bcrypt hash for newly issued PINs.
func HashPIN(pin string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(h), nil
}

// verifyPBKDF2 checks the legacy encoded form
// "pbkdf2:sha256:<iterations>$<salt>$<hexdigest>".
func verifyPBKDF2(encoded, pin string) (bool, error) {
	method, rest, ok := strings.Cut(encoded, "$")
	if !ok {
		return false, errMalformedEncoded
	}
	salt, digestHex, ok := strings.Cut(rest, "$")
	if !ok || salt == "" || digestHex == "" {
		return false, errMalformedEncoded
	}

	parts := strings.Split(method, ":")
	if len(parts) != 3 || parts[0] != "pbkdf2" || parts[1] != "sha256" {
		return false, ErrUnsupportedHash
	}
	iterations, err := strconv.Atoi(parts[2])
	if err != nil || iterations <= 0 {
		return false, errMalformedEncoded
	}

	want, err := hex.DecodeString(digestHex)
	if err != nil {
		return false, errMalformedEncoded
	}
	got := pbkdf2.Key([]byte(pin), []byte(salt), iterations, len(want), sha256.New)
	return hmac.Equal(got, want), nil
}
