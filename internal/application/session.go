package application

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionIssuer = "hourbank"

// SessionIssuer mints employee sessions after a successful code check.
type SessionIssuer interface {
	Issue(employee EmployeeSummary) (Session, error)
}

// SessionClaims are the JWT claims carried by an employee session.
type SessionClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates HS256 employee session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionManager builds a manager. A non-positive ttl defaults to 15 minutes.
func NewSessionManager(secret []byte, ttl time.Duration, now func() time.Time) *SessionManager {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &SessionManager{secret: secret, ttl: ttl, now: now}
}

// Issue signs a token naming the employee.
func (m *SessionManager) Issue(employee EmployeeSummary) (Session, error) {
	issuedAt := m.now().UTC()
	expiresAt := issuedAt.Add(m.ttl)

	claims := SessionClaims{
		Name: employee.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   strconv.FormatInt(employee.ID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}

	return Session{Token: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Validate returns the employee ID named by a valid, unexpired token.
// Every failure is reported as ErrUnauthorized.
func (m *SessionManager) Validate(token string) (int64, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid subject %q", ErrUnauthorized, claims.Subject)
	}
	return id, nil
}
