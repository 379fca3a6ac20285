package notification

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	ActionReschedule = "reschedule"
	ActionCancel     = "cancel"
)

var ErrInvalidToken = errors.New("notification: invalid action token")

// ActionClaims is the payload of reschedule and cancel links.
type ActionClaims struct {
	AppointmentID uint   `json:"appointment_id"`
	Action        string `json:"action"`
	jwt.RegisteredClaims
}

// ActionTokens signs and verifies the links embedded in reminder messages.
type ActionTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewActionTokens(secret string, ttl time.Duration, now func() time.Time) *ActionTokens {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &ActionTokens{secret: []byte(secret), ttl: ttl, now: now}
}

func (t *ActionTokens) Issue(appointmentID uint, action string) (string, error) {
	now := t.now()
	claims := ActionClaims{
		AppointmentID: appointmentID,
		Action:        action,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("appointment:%d", appointmentID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies the signature, expiry and expected action.
func (t *ActionTokens) Parse(token, action string) (*ActionClaims, error) {
	claims := &ActionClaims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(tok *jwt.Token) (interface{}, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Action != action || claims.AppointmentID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
