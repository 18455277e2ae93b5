package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RTC roles accepted by the media token endpoint.
const (
	RolePublisher  = "publisher"
	RoleSubscriber = "subscriber"
)

// RTM token expiry is clamped to this range regardless of what the
// caller asks for.
const (
	MinRTMExpiry = time.Minute
	MaxRTMExpiry = 7 * 24 * time.Hour
)

// RTCClaims are the claims embedded in a media-channel token.
type RTCClaims struct {
	jwt.RegisteredClaims
	AppID   string `json:"app_id"`
	Channel string `json:"channel,omitempty"`
	UID     string `json:"uid"`
	Role    string `json:"role,omitempty"`
	Type    string `json:"type"` // "rtc" or "rtm"
}

// RTCBuilder signs RTC and RTM tokens with the app certificate, the way
// the media SDK's own token server would.
type RTCBuilder struct {
	appID       string
	certificate []byte
}

// NewRTCBuilder creates a builder for the given app credentials.
func NewRTCBuilder(appID, certificate string) *RTCBuilder {
	return &RTCBuilder{
		appID:       appID,
		certificate: []byte(certificate),
	}
}

// AppID returns the configured application ID.
func (b *RTCBuilder) AppID() string {
	return b.appID
}

// Configured reports whether app credentials are present.
func (b *RTCBuilder) Configured() bool {
	return b.appID != "" && len(b.certificate) > 0
}

// BuildRTCToken issues a channel token for a publisher or subscriber.
func (b *RTCBuilder) BuildRTCToken(channel, uid, role string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := &RTCClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
		AppID:   b.appID,
		Channel: channel,
		UID:     uid,
		Role:    role,
		Type:    "rtc",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.certificate)
}

// BuildRTMToken issues a messaging token for a user ID. The expiry is
// clamped to [MinRTMExpiry, MaxRTMExpiry].
func (b *RTCBuilder) BuildRTMToken(userID string, expiresIn time.Duration) (string, time.Duration, error) {
	if expiresIn < MinRTMExpiry {
		expiresIn = MinRTMExpiry
	}
	if expiresIn > MaxRTMExpiry {
		expiresIn = MaxRTMExpiry
	}

	now := time.Now()
	claims := &RTCClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
		AppID: b.appID,
		UID:   userID,
		Type:  "rtm",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.certificate)
	return signed, expiresIn, err
}
