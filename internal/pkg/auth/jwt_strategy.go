package auth

import (
	"errors"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/polkiloo/fooddispatch/internal/domain/model"
)

const jwtIssuer = "fooddispatch"

type identityClaims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTStrategy issues HS256 JSON Web Tokens with uid and role claims.
type JWTStrategy struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTStrategy builds JWTStrategy with provided secret and options.
func NewJWTStrategy(secret string, opts Options) *JWTStrategy {
	return &JWTStrategy{secret: []byte(secret), ttl: opts.ttl(), now: time.Now}
}

func (s *JWTStrategy) IssueToken(identity model.Identity) (string, error) {
	if !identity.Role.Valid() {
		return "", ErrInvalidToken
	}
	now := s.now()
	claims := identityClaims{
		UserID: identity.ID,
		Role:   string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   strconv.FormatInt(identity.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTStrategy) ParseToken(token string) (model.Identity, error) {
	if len(s.secret) == 0 {
		return model.Identity{}, errors.New("jwt secret is empty")
	}

	claims := &identityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return model.Identity{}, ErrInvalidToken
	}

	role := model.Role(claims.Role)
	if claims.UserID <= 0 || !role.Valid() {
		return model.Identity{}, ErrInvalidToken
	}
	return model.Identity{ID: claims.UserID, Role: role}, nil
}

func (s *JWTStrategy) Name() string {
	return "jwt"
}
