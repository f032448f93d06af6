package token

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/clubos/internal/auth/domain"
	"github.com/smallbiznis/clubos/internal/config"
)

// Claims is the payload issued by the identity service.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(cfg config.Config) *Verifier {
	return &Verifier{
		secret: []byte(strings.TrimSpace(cfg.Auth.JWTSecret)),
		issuer: strings.TrimSpace(cfg.Auth.JWTIssuer),
		now:    time.Now,
	}
}

func (v *Verifier) Verify(_ context.Context, raw string) (*domain.Actor, error) {
	if len(v.secret) == 0 {
		return nil, domain.ErrVerifierMisconfigured
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrInvalidCredential
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredential, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidCredential
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		subject = strings.TrimSpace(claims.UserID)
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidCredential)
	}

	return &domain.Actor{
		SubjectID: subject,
		Email:     strings.TrimSpace(claims.Email),
		ClaimRole: domain.NormalizeRole(claims.Role),
	}, nil
}

var _ domain.Verifier = (*Verifier)(nil)
