package id

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AccountNumberLength is the number of digits in a customer account number
const AccountNumberLength = 10

const (
	referenceCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	referenceSuffix  = 6
	refreshTokenLen  = 32
)

var randReader = rand.Reader

// New generates a new random UUID
func New() uuid.UUID {
	return uuid.New()
}

// ValidateUUID validates a UUID format
func ValidateUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ParseUUID parses and validates a UUID string
func ParseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// ParseUUIDOrNil parses a UUID string, returning uuid.Nil on error.
func ParseUUIDOrNil(id string) uuid.UUID {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil
	}
	return u
}

// NewAccountNumber generates a 10 digit account number that never starts with zero
func NewAccountNumber() string {
	var b strings.Builder
	b.Grow(AccountNumberLength)
	b.WriteByte(byte('1' + randIntn(9)))
	for i := 1; i < AccountNumberLength; i++ {
		b.WriteByte(byte('0' + randIntn(10)))
	}
	return b.String()
}

// ValidateAccountNumber reports whether s is a well formed account number
func ValidateAccountNumber(s string) bool {
	if len(s) != AccountNumberLength || s[0] == '0' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// NewWireReference generates a reference of the form WT-YYYYMMDD-XXXXXX
func NewWireReference(now time.Time) string {
	return "WT-" + now.UTC().Format("20060102") + "-" + randomString(referenceCharset, referenceSuffix)
}

// NewRefreshToken generates an opaque refresh token
func NewRefreshToken() string {
	buf := make([]byte, refreshTokenLen)
	if _, err := randReader.Read(buf); err != nil {
		// Fall back to two uuids
		return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	}
	return hex.EncodeToString(buf)
}

// HashToken returns the hex SHA-256 digest of a token for storage
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomString(charset string, length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = charset[randIntn(len(charset))]
	}
	return string(buf)
}

func randIntn(n int) int {
	v, err := rand.Int(randReader, big.NewInt(int64(n)))
	if err != nil {
		return int(time.Now().UnixNano() % int64(n))
	}
	return int(v.Int64())
}
