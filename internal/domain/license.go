package domain

import (
	"math"
	"time"
)

type LicenseStatus string

const (
	LicenseInactive LicenseStatus = "INACTIVE"
	LicenseActive   LicenseStatus = "ACTIVE"
	LicenseExpired  LicenseStatus = "EXPIRED"
	LicenseBanned   LicenseStatus = "BANNED"
)

type License struct {
	Key             string        `json:"key"`
	TierCode        TierCode      `json:"type"`
	Status          LicenseStatus `json:"status"`
	CreatedAt       time.Time     `json:"created"`
	ExpiresAt       time.Time     `json:"expiry"`
	OrderID         string        `json:"orderId"`
	OwnerEmail      string        `json:"email"`
	ActivationCount int           `json:"activations"`
	MaxActivations  int           `json:"maxActivations"`
	BoundDeviceIDs  []string      `json:"hwid"`
	LastUsedAt      *time.Time    `json:"lastUsed"`
}

// LicenseView is the public projection returned by a successful check.
type LicenseView struct {
	Key             string        `json:"key"`
	TierCode        TierCode      `json:"type"`
	Status          LicenseStatus `json:"status"`
	ExpiresAt       time.Time     `json:"expiry"`
	ActivationCount int           `json:"activations"`
	MaxActivations  int           `json:"maxActivations"`
	RemainingDays   int           `json:"remainingDays"`
}

// ExpiryFor computes when a license of tier t issued at createdAt stops
// validating. A day is always 24h, whatever zone createdAt is in; the
// perpetual term is counted in UTC calendar years.
func ExpiryFor(t Tier, createdAt time.Time) time.Time {
	if t.Perpetual {
		return createdAt.UTC().AddDate(PerpetualYears, 0, 0).In(createdAt.Location())
	}
	return createdAt.Add(time.Duration(t.DurationDays) * 24 * time.Hour)
}

func (l *License) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

func (l *License) IsBound(deviceID string) bool {
	for _, id := range l.BoundDeviceIDs {
		if id == deviceID {
			return true
		}
	}
	return false
}

// Unrestricted reports whether any device may validate.
func (l *License) Unrestricted() bool {
	return len(l.BoundDeviceIDs) == 0
}

func (l *License) SlotsLeft() bool {
	return l.ActivationCount < l.MaxActivations
}

// Bind consumes one activation slot for deviceID. The caller checks SlotsLeft first.
func (l *License) Bind(deviceID string) {
	if l.IsBound(deviceID) {
		return
	}
	l.BoundDeviceIDs = append(l.BoundDeviceIDs, deviceID)
	l.ActivationCount++
	l.Status = LicenseActive
}

func (l *License) Touch(now time.Time) {
	t := now
	l.LastUsedAt = &t
}

func (l *License) RemainingDays(now time.Time) int {
	return int(math.Ceil(l.ExpiresAt.Sub(now).Hours() / 24))
}

func (l *License) View(now time.Time) LicenseView {
	return LicenseView{
		Key:             l.Key,
		TierCode:        l.TierCode,
		Status:          l.Status,
		ExpiresAt:       l.ExpiresAt,
		ActivationCount: l.ActivationCount,
		MaxActivations:  l.MaxActivations,
		RemainingDays:   l.RemainingDays(now),
	}
}

func (l *License) Fail(kind error) *LicenseError {
	return &LicenseError{
		Kind:            kind,
		Key:             l.Key,
		ActivationCount: l.ActivationCount,
		MaxActivations:  l.MaxActivations,
		ExpiresAt:       l.ExpiresAt,
	}
}

func (l License) Clone() License {
	if l.BoundDeviceIDs != nil {
		l.BoundDeviceIDs = append([]string(nil), l.BoundDeviceIDs...)
	}
	if l.LastUsedAt != nil {
		t := *l.LastUsedAt
		l.LastUsedAt = &t
	}
	return l
}
