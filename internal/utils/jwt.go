package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed JWT together with its UTC expiry.
type AccessToken struct {
    Token string
    Exp   time.Time
}

// RefreshToken is the raw refresh token handed to the client.  Only its
// SHA-256 hash is persisted.
type RefreshToken struct {
    Raw string
    Exp time.Time
}

// AccessClaims is the decoded payload of an access token.
type AccessClaims struct {
    UserID   uint64
    Username string
}

// ErrInvalidToken is returned by ParseAccessToken for any token that is
// malformed, expired or signed with another key.
var ErrInvalidToken = errors.New("invalid or expired token")

// NewAccessToken signs an HS256 JWT whose subject is the user id.  The
// username travels in its own claim so handlers can log it without a
// database lookup.
func NewAccessToken(secret string, userID uint64, username string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":      fmt.Sprintf("%d", userID),
        "username": username,
        "exp":      exp.Unix(),
        "iat":      now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature and expiry and extracts the claims.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return AccessClaims{}, ErrInvalidToken
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return AccessClaims{}, ErrInvalidToken
    }
    sub, err := mc.GetSubject()
    if err != nil || sub == "" {
        return AccessClaims{}, ErrInvalidToken
    }
    var id uint64
    if _, err := fmt.Sscan(sub, &id); err != nil || id == 0 {
        return AccessClaims{}, ErrInvalidToken
    }
    name, _ := mc["username"].(string)
    return AccessClaims{UserID: id, Username: name}, nil
}

// NewRefreshToken returns a random 96 character hex token valid for ttlDays.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48)
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the hex SHA-256 of a raw refresh token.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
