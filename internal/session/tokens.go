package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Seats. The server itself writes as SeatServer (idle aborts).
const (
	SeatServer = 0
	SeatOne    = 1
	SeatTwo    = 2
)

var ErrInvalidToken = errors.New("invalid seat token")

// SeatClaims binds a bearer to one seat of one session
type SeatClaims struct {
	SessionID string `json:"sid"`
	Seat      int    `json:"seat"`
	jwt.RegisteredClaims
}

func IssueSeatToken(secret []byte, sessionID string, seat int, now time.Time, ttl time.Duration) (string, error) {
	if seat != SeatOne && seat != SeatTwo {
		return "", fmt.Errorf("issue token: seat %d out of range", seat)
	}
	claims := SeatClaims{
		SessionID: sessionID,
		Seat:      seat,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%s/%d", sessionID, seat),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseSeatToken verifies signature, algorithm and expiry of a seat token
func ParseSeatToken(secret []byte, token string) (*SeatClaims, error) {
	var claims SeatClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.SessionID == "" || (claims.Seat != SeatOne && claims.Seat != SeatTwo) {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
