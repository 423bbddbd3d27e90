// Package auth verifies bearer credentials issued by the external identity
// provider. Tokens are never minted here; the provider owns sign-in, sign-out
// and the session change stream.
package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lifesure/internal/common/config"
	stderrors "lifesure/internal/common/errors"
)

// Identity is the verified subject of a request.
type Identity struct {
	Subject  string
	Email    string
	Name     string
	IssuedAt time.Time
}

// Claims is the JWT claim set the identity provider issues.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates provider-issued JWTs.
type Verifier struct {
	cfg config.AuthConfig

	mu         sync.RWMutex
	publicKeys map[string]*rsa.PublicKey
	keysLoaded time.Time
}

func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{
		cfg:        cfg,
		publicKeys: make(map[string]*rsa.PublicKey),
	}
}

// Verify parses and validates a bearer token, returning the identity it
// asserts. All failures map to AUTHENTICATION_FAILED; the session is fatal.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc, opts...)
	if err != nil {
		return nil, stderrors.NewAuthenticationError(err.Error())
	}
	if !token.Valid {
		return nil, stderrors.NewAuthenticationError("token is not valid")
	}
	if claims.Email == "" {
		return nil, stderrors.NewAuthenticationError("token carries no email claim")
	}

	identity := &Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	return identity, nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	switch v.cfg.SigningMethod {
	case "HS256":
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.cfg.HMACSecret), nil
	case "RS256":
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		return v.publicKey(kid)
	default:
		return nil, fmt.Errorf("unsupported signing method %q", v.cfg.SigningMethod)
	}
}

// publicKey returns the cached provider key for kid, refreshing the JWKS
// when the key is unknown or the cache is older than an hour.
func (v *Verifier) publicKey(kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.publicKeys[kid]
	fresh := time.Since(v.keysLoaded) < time.Hour
	v.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := v.refreshKeys(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	key, ok = v.publicKeys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return key, nil
}

type jwksDocument struct {
	Keys []struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (v *Verifier) refreshKeys() error {
	resp, err := http.Get(v.cfg.JWKSURL)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read jwks: %w", err)
	}

	var doc jwksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	v.mu.Lock()
	v.publicKeys = keys
	v.keysLoaded = time.Now()
	v.mu.Unlock()
	return nil
}

func parseRSAKey(nB64, eB64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, err
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
