package keygen

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"license-shop/internal/domain"
)

func TestNewOrderID(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	id := NewOrderID(now)

	assert.Regexp(t, regexp.MustCompile(`^SNK260309[0-9A-Z]{6}$`), id)
	assert.NotEqual(t, id, NewOrderID(now))
}

func TestNewLicenseKey_PrefixPerTier(t *testing.T) {
	cases := map[domain.TierCode]string{
		domain.TierDay:      "SNK-D-",
		domain.TierWeek:     "SNK-W-",
		domain.TierMonth:    "SNK-M-",
		domain.TierYear:     "SNK-Y-",
		domain.TierLifetime: "SNK-L-",
		"UNKNOWN":           "SNK-M-",
	}
	for tier, prefix := range cases {
		key := NewLicenseKey(tier)
		assert.Regexp(t, "^"+regexp.QuoteMeta(prefix)+`[0-9A-F]{16}-[0-9A-F]{6}$`, key, tier)
		assert.True(t, VerifyChecksum(key), key)
	}
}

func TestChecksum_Deterministic(t *testing.T) {
	a := Checksum("0123456789ABCDEF")
	require.Len(t, a, 6)
	assert.Equal(t, a, Checksum("0123456789ABCDEF"))
	assert.NotEqual(t, a, Checksum("0123456789ABCDEE"))
}

func TestVerifyChecksum_Rejects(t *testing.T) {
	key := NewLicenseKey(domain.TierWeek)
	tampered := key[:len(key)-1] + "G"

	assert.False(t, VerifyChecksum(tampered))
	assert.False(t, VerifyChecksum("SNK-W-XYZ-123456"))
	assert.False(t, VerifyChecksum("nonsense"))
	assert.False(t, VerifyChecksum(""))
}

func TestNewPaymentID(t *testing.T) {
	id := NewPaymentID()
	assert.Regexp(t, `^PAY[0-9A-F]{32}$`, id)
	assert.NotEqual(t, id, NewPaymentID())
}

func TestNewSessionToken(t *testing.T) {
	tok := NewSessionToken()
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), tok)
	assert.NotEqual(t, tok, NewSessionToken())
}
