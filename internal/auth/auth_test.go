package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmoreau/penny/internal/auth"
)

const testKid = "test-key-1"

type fixture struct {
	key      *rsa.PrivateKey
	server   *httptest.Server
	verifier *auth.Verifier
	fetches  atomic.Int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fixture{key: key}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		f.fetches.Add(1)

		set := map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": testKid,
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   "AQAB",
			}},
		}

		require.NoError(t, json.NewEncoder(w).Encode(set))
	}))
	t.Cleanup(f.server.Close)

	f.verifier = auth.NewVerifier(auth.Config{
		Issuer:   "https://issuer.test",
		Audience: "test-client",
		JWKSURL:  f.server.URL,
	})

	return f
}

type tokenOpts struct {
	issuer   string
	audience string
	expires  time.Time
	kid      string
}

func (f *fixture) token(t *testing.T, opts tokenOpts) string {
	t.Helper()

	if opts.issuer == "" {
		opts.issuer = "https://issuer.test"
	}

	if opts.audience == "" {
		opts.audience = "test-client"
	}

	if opts.expires.IsZero() {
		opts.expires = time.Now().Add(time.Hour)
	}

	if opts.kid == "" {
		opts.kid = testKid
	}

	claims := jwt.MapClaims{
		"sub":              "user-123",
		"cognito:username": "ada",
		"email":            "ada@example.com",
		"email_verified":   true,
		"name":             "Ada Lovelace",
		"iss":              opts.issuer,
		"aud":              opts.audience,
		"exp":              opts.expires.Unix(),
		"iat":              time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = opts.kid

	signed, err := token.SignedString(f.key)
	require.NoError(t, err)

	return signed
}

func TestVerifier_Verify(t *testing.T) {
	f := newFixture(t)

	ident, err := f.verifier.Verify(context.Background(), f.token(t, tokenOpts{}))

	require.NoError(t, err)
	assert.Equal(t, "user-123", ident.UserID)
	assert.Equal(t, "ada", ident.Username)
	assert.Equal(t, "ada@example.com", ident.Email)
	assert.Equal(t, "Ada Lovelace", ident.Name)
	assert.True(t, ident.EmailVerified)
}

func TestVerifier_Verify_Rejections(t *testing.T) {
	type testCase struct {
		name string
		opts tokenOpts
	}

	tests := []testCase{
		{name: "WrongIssuer", opts: tokenOpts{issuer: "https://evil.test"}},
		{name: "WrongAudience", opts: tokenOpts{audience: "other-client"}},
		{name: "Expired", opts: tokenOpts{expires: time.Now().Add(-time.Hour)}},
		{name: "UnknownKid", opts: tokenOpts{kid: "no-such-key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			ident, err := f.verifier.Verify(context.Background(), f.token(t, tt.opts))

			assert.ErrorIs(t, err, auth.ErrUnauthorized)
			assert.Nil(t, ident)
		})
	}
}

func TestVerifier_Verify_RejectsUnsignedToken(t *testing.T) {
	f := newFixture(t)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-123",
		"iss": "https://issuer.test",
		"aud": "test-client",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token.Header["kid"] = testKid

	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = f.verifier.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestVerifier_Verify_RejectsGarbage(t *testing.T) {
	f := newFixture(t)

	_, err := f.verifier.Verify(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestVerifier_CachesKeys(t *testing.T) {
	f := newFixture(t)

	for range 3 {
		_, err := f.verifier.Verify(context.Background(), f.token(t, tokenOpts{}))
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), f.fetches.Load())
}

func TestMiddleware(t *testing.T) {
	f := newFixture(t)

	handler := auth.Middleware(f.verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := auth.FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "ada", ident.Username)

		w.WriteHeader(http.StatusOK)
	}))

	t.Run("ValidToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+f.token(t, tokenOpts{}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bogus")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
