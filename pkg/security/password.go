package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/sahilmehra/campustrade-backend/pkg/config"
)

// ErrInvalidHash signals a hash string that is not a well-formed argon2id
// record.
var ErrInvalidHash = fmt.Errorf("invalid argon2id hash")

type argonParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
	saltLen     uint32
	keyLen      uint32
}

// HashPassword derives an argon2id hash and encodes it in the standard
// $argon2id$... record form, parameters included, so verification never
// depends on current config.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	params := paramsFromConfig(cfg)
	salt := make([]byte, params.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.parallelism, params.keyLen)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		params.memory, params.time, params.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches the encoded record. The
// comparison is constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	params, salt, hash, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.parallelism, params.keyLen)
	return subtle.ConstantTimeCompare(hash, computed) == 1, nil
}

func paramsFromConfig(cfg config.PasswordConfig) argonParams {
	return argonParams{
		memory:      clampUint32(cfg.ArgonMemoryKB, 8, 512*1024),
		time:        clampUint32(cfg.ArgonTime, 1, 10),
		parallelism: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		saltLen:     clampUint32(cfg.ArgonSaltLen, 8, 64),
		keyLen:      clampUint32(cfg.ArgonKeyLen, 16, 64),
	}
}

func decodeHash(encoded string) (argonParams, []byte, []byte, error) {
	var version int
	var memory, iterations uint32
	var parallelism uint8
	var encSalt, encKey string
	n, err := fmt.Sscanf(encoded, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s", &version, &memory, &iterations, &parallelism, &encSalt)
	if err != nil || n != 5 {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	// Sscanf's %s is greedy, so the salt and key arrive as one blob.
	sep := -1
	for i, r := range encSalt {
		if r == '$' {
			sep = i
			break
		}
	}
	if sep < 0 {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	encSalt, encKey = encSalt[:sep], encSalt[sep+1:]

	salt, err := base64.RawStdEncoding.DecodeString(encSalt)
	if err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(encKey)
	if err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	params := argonParams{
		memory:      memory,
		time:        iterations,
		parallelism: parallelism,
		saltLen:     uint32(len(salt)),
		keyLen:      uint32(len(key)),
	}
	return params, salt, key, nil
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func clampUint32(value, min, max int) uint32 {
	return uint32(clamp(value, min, max))
}
