// Package keygen produces order identifiers and license keys.
package keygen

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"license-shop/internal/domain"
)

const (
	OrderPrefix    = "SNK"
	orderSuffixLen = 6
	randomBytes    = 8
	checksumLen    = 6
	fallbackPrefix = "SNK-M"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderID returns SNK + YYMMDD + six random base36 characters.
// Collisions are not detected.
func NewOrderID(now time.Time) string {
	var b strings.Builder
	b.WriteString(OrderPrefix)
	b.WriteString(now.Format("060102"))
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < orderSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b.WriteByte(base36[n.Int64()])
	}
	return b.String()
}

// NewLicenseKey returns PREFIX-RANDOMHEX-CHECKSUM for the tier.
func NewLicenseKey(tier domain.TierCode) string {
	buf := make([]byte, randomBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	random := strings.ToUpper(hex.EncodeToString(buf))
	return prefixFor(tier) + "-" + random + "-" + Checksum(random)
}

// Checksum is the first six upper-case hex digits of sha256(random).
func Checksum(random string) string {
	sum := sha256.Sum256([]byte(random))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:checksumLen]
}

// VerifyChecksum reports whether key has the PREFIX-RANDOMHEX-CHECKSUM shape
// with a matching checksum. It says nothing about whether the key was issued.
func VerifyChecksum(key string) bool {
	i := strings.LastIndexByte(key, '-')
	if i <= 0 {
		return false
	}
	j := strings.LastIndexByte(key[:i], '-')
	if j <= 0 {
		return false
	}
	random, sum := key[j+1:i], key[i+1:]
	if len(random) != randomBytes*2 || len(sum) != checksumLen {
		return false
	}
	return Checksum(random) == sum
}

func NewPaymentID() string {
	return "PAY" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func prefixFor(code domain.TierCode) string {
	t, err := domain.LookupTier(code)
	if err != nil || t.KeyPrefix == "" {
		return fallbackPrefix
	}
	return t.KeyPrefix
}

// NewSessionToken returns 32 random bytes as lower-case hex. Used for the
// admin session and the short-lived token handed out on validation.
func NewSessionToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
