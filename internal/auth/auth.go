// Package auth validates bearer tokens issued by an AWS Cognito user pool.
// Public keys come from the pool's JWKS endpoint and are cached for the
// process lifetime; there is no invalidation beyond restart.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthorized = errors.New("unauthorized")

// Identity is the authenticated caller as described by the token claims.
type Identity struct {
	UserID        string
	Username      string
	Email         string
	EmailVerified bool
	Name          string
}

type Config struct {
	Issuer   string
	Audience string
	JWKSURL  string
}

// CognitoConfig derives the issuer and JWKS endpoints for a user pool.
func CognitoConfig(region, userPoolID, clientID string) Config {
	issuer := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)

	return Config{
		Issuer:   issuer,
		Audience: clientID,
		JWKSURL:  issuer + "/.well-known/jwks.json",
	}
}

type Verifier struct {
	cfg    Config
	client *http.Client

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey
}

func NewVerifier(cfg Config) *Verifier {
	return &Verifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify validates the token signature, issuer and audience, and returns the
// identity carried in the claims.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	claims := jwt.MapClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token header missing kid")
		}

		return v.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	ident := &Identity{
		UserID:   stringClaim(claims, "sub"),
		Username: stringClaim(claims, "cognito:username"),
		Email:    stringClaim(claims, "email"),
		Name:     stringClaim(claims, "name"),
	}

	if ident.Username == "" {
		ident.Username = stringClaim(claims, "username")
	}

	if b, ok := claims["email_verified"].(bool); ok {
		ident.EmailVerified = b
	}

	return ident, nil
}

// key returns the public key for kid, fetching the key set on first use.
func (v *Verifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	pk, ok := v.keys[kid]
	v.mu.RUnlock()

	if ok {
		return pk, nil
	}

	if err := v.fetchKeys(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	pk, ok = v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("no public key for kid %q", kid)
	}

	return pk, nil
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

func (v *Verifier) fetchKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return fmt.Errorf("creating jwks request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching jwks: unexpected status %d", resp.StatusCode)
	}

	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decoding jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))

	for _, k := range set.Keys {
		if k.Kty != "RSA" {
			continue
		}

		pk, err := parseRSAKey(k)
		if err != nil {
			return fmt.Errorf("parsing jwk %q: %w", k.Kid, err)
		}

		keys[k.Kid] = pk
	}

	v.mu.Lock()
	v.keys = keys
	v.mu.Unlock()

	return nil
}

func parseRSAKey(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}

	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(new(big.Int).SetBytes(eb).Int64()),
	}, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	s, _ := claims[name].(string)
	return s
}
