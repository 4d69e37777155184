package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash is returned when a stored hash cannot be parsed as
// an argon2id PHC string.
var ErrMalformedHash = errors.New("malformed password hash")

// Work factors for argon2id. Tuned for an always-on bridge on modest
// hardware: 64 MiB, 3 passes, single lane.
const (
	hashIterations = 3
	hashMemoryKiB  = 64 * 1024
	hashLanes      = 1
	hashLength     = 32
	saltLength     = 16
)

// b64 is the unpadded encoding PHC strings use for salt and digest.
var b64 = base64.RawStdEncoding

// HashPassword derives an argon2id digest of password and encodes it as
// a PHC string ($argon2id$v=19$m=...,t=...,p=...$salt$digest) suitable
// for storage in the users table.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("reading salt: %w", err)
	}

	digest := argon2.IDKey([]byte(password), salt,
		hashIterations, hashMemoryKiB, hashLanes, hashLength)

	var sb strings.Builder
	fmt.Fprintf(&sb, "$argon2id$v=%d", argon2.Version)
	fmt.Fprintf(&sb, "$m=%d,t=%d,p=%d", hashMemoryKiB, hashIterations, hashLanes)
	fmt.Fprintf(&sb, "$%s$%s", b64.EncodeToString(salt), b64.EncodeToString(digest))
	return sb.String(), nil
}

// VerifyPassword re-derives the digest of password under the work
// factors recorded in encodedHash and compares in constant time. The
// stored factors win over the current defaults, so hashes minted under
// older tunings keep verifying.
func VerifyPassword(password, encodedHash string) (bool, error) {
	salt, digest, memory, iterations, lanes, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt,
		iterations, memory, lanes, uint32(len(digest))) //nolint:gosec // G115: digest length fits uint32

	return subtle.ConstantTimeCompare(digest, candidate) == 1, nil
}

// parsePHC walks the $-delimited fields of an argon2id PHC string.
func parsePHC(encoded string) (salt, digest []byte, memory, iterations uint32, lanes uint8, err error) {
	rest, ok := strings.CutPrefix(encoded, "$argon2id$")
	if !ok {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: not argon2id", ErrMalformedHash)
	}

	fields := strings.Split(rest, "$")
	if len(fields) != 4 {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: want 4 fields after algorithm, got %d",
			ErrMalformedHash, len(fields))
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: bad version field", ErrMalformedHash)
	}
	if version != argon2.Version {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: unsupported argon2 version %d",
			ErrMalformedHash, version)
	}

	if _, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &memory, &iterations, &lanes); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: bad parameter field", ErrMalformedHash)
	}

	if salt, err = b64.DecodeString(fields[2]); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: bad salt encoding", ErrMalformedHash)
	}
	if digest, err = b64.DecodeString(fields[3]); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("%w: bad digest encoding", ErrMalformedHash)
	}

	return salt, digest, memory, iterations, lanes, nil
}
