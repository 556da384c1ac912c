package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"go.pilab.hu/authmodel/domain"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// argon2id parameters for salted credentials.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

var (
	// ErrInvalidPassword is returned when the password does not match, and
	// when the stored credential is missing or malformed.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUnsupportedAlgorithm is returned for a credential whose algorithm
	// this verifier does not know. It is a configuration fault, not a
	// denial.
	ErrUnsupportedAlgorithm = errors.New("unsupported password algorithm")
)

// PasswordVerifier checks a plaintext password against a stored credential.
// Verify returns nil on a match and ErrInvalidPassword on a mismatch. A nil
// credential is verified against a decoy so that callers spend the same
// time on unknown users.
type PasswordVerifier interface {
	Verify(password string, credential *domain.Credential) error
}

// Verifier dispatches on the credential algorithm.
type Verifier struct {
	decoyCost int
	decoyOnce sync.Once
	decoy     []byte
}

// NewVerifier creates a Verifier supporting bcrypt and argon2id. decoyCost
// should match the cost credentials are provisioned with; <= 0 means
// bcrypt.DefaultCost.
func NewVerifier(decoyCost int) *Verifier {
	if decoyCost <= 0 {
		decoyCost = bcrypt.DefaultCost
	}
	return &Verifier{decoyCost: decoyCost}
}

// Verify implements PasswordVerifier.
func (v *Verifier) Verify(password string, credential *domain.Credential) error {
	if credential == nil || credential.Password.Hash == "" {
		v.burn(password)
		return ErrInvalidPassword
	}

	stored := credential.Password
	switch stored.Algorithm {
	case AlgorithmBcrypt, "":
		err := bcrypt.CompareHashAndPassword([]byte(stored.Hash), []byte(password))
		if err == nil {
			return nil
		}
		// Every bcrypt failure is either a mismatch or an unreadable hash.
		return ErrInvalidPassword
	case AlgorithmArgon2id:
		salt, err := base64.RawStdEncoding.DecodeString(stored.Salt)
		if err != nil || len(salt) == 0 {
			return ErrInvalidPassword
		}
		want, err := base64.RawStdEncoding.DecodeString(stored.Hash)
		if err != nil || len(want) == 0 {
			return ErrInvalidPassword
		}
		got := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, uint32(len(want)))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			return ErrInvalidPassword
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, stored.Algorithm)
	}
}

// burn spends one bcrypt comparison on a decoy hash.
func (v *Verifier) burn(password string) {
	v.decoyOnce.Do(func() {
		seed := make([]byte, 16)
		_, _ = rand.Read(seed)
		v.decoy, _ = bcrypt.GenerateFromPassword(seed, v.decoyCost)
	})
	_ = bcrypt.CompareHashAndPassword(v.decoy, []byte(password))
}

// BcryptPasswordHasher produces bcrypt credentials for provisioning.
type BcryptPasswordHasher struct {
	Cost int
}

// NewBcryptPasswordHasher creates a new BcryptPasswordHasher.
// Default cost is bcrypt.DefaultCost if cost <= 0.
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{Cost: cost}
}

// Hash generates a bcrypt credential for the given password.
func (h *BcryptPasswordHasher) Hash(password string) (domain.PasswordHash, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return domain.PasswordHash{}, fmt.Errorf("bcrypt hash generation failed: %w", err)
	}
	return domain.PasswordHash{Algorithm: AlgorithmBcrypt, Hash: string(hashedBytes)}, nil
}

// Argon2idPasswordHasher produces salted argon2id credentials.
type Argon2idPasswordHasher struct{}

// Hash generates an argon2id credential with a random salt.
func (Argon2idPasswordHasher) Hash(password string) (domain.PasswordHash, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return domain.PasswordHash{}, fmt.Errorf("salt generation failed: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return domain.PasswordHash{
		Algorithm: AlgorithmArgon2id,
		Salt:      base64.RawStdEncoding.EncodeToString(salt),
		Hash:      base64.RawStdEncoding.EncodeToString(key),
	}, nil
}

var _ PasswordVerifier = (*Verifier)(nil)
