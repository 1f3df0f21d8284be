// Package firebase verifies Firebase Authentication ID tokens.
//
// Tokens are RS256 JWTs signed by Google's securetoken service. The signing
// certificates are published as a JSON map of key id to PEM certificate and
// are cached for the max-age advertised by the endpoint.
package firebase

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/sync/singleflight"

	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/observability"
	"github.com/fairyhunter13/fitgenie-relay/internal/config"
	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

const issuerPrefix = "https://securetoken.google.com/"

// defaultCertTTL applies when the certificate response has no usable max-age.
const defaultCertTTL = time.Hour

var (
	// ErrInvalidToken is returned for any token that fails verification.
	ErrInvalidToken = fmt.Errorf("%w: invalid id token", domain.ErrUnauthorized)
	// ErrUnknownKey is returned when the token's kid is not a current signing key.
	ErrUnknownKey = fmt.Errorf("%w: unknown signing key", domain.ErrUnauthorized)
)

// Claims are the ID token claims the relay relies on.
type Claims struct {
	jwt.RegisteredClaims
	AuthTime int64  `json:"auth_time"`
	Email    string `json:"email,omitempty"`
}

// Verifier checks ID tokens for one Firebase project.
type Verifier struct {
	projectID string
	certsURL  string
	hc        *http.Client
	now       func() time.Time

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
	// fetches collapses concurrent certificate refreshes into one.
	fetches singleflight.Group
}

// NewVerifier builds a verifier for cfg.FirebaseProjectID.
func NewVerifier(cfg config.Config) *Verifier {
	return &Verifier{
		projectID: cfg.FirebaseProjectID,
		certsURL:  cfg.FirebaseCertsURL,
		hc: &http.Client{
			Timeout:   10 * time.Second,
			Transport: observability.OutboundTransport("firebase"),
		},
		now: time.Now,
	}
}

// Verify parses and validates token and returns its claims.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	claims := &Claims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKey
		}
		return v.key(ctx, kid)
	})
	if err != nil {
		if errors.Is(err, ErrUnknownKey) {
			return nil, ErrUnknownKey
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := v.checkClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// checkClaims enforces the project-specific rules on top of exp/iat/nbf.
func (v *Verifier) checkClaims(c *Claims) error {
	now := v.now()
	if !c.VerifyAudience(v.projectID, true) {
		return fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	if !c.VerifyIssuer(issuerPrefix+v.projectID, true) {
		return fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if strings.TrimSpace(c.Subject) == "" || len(c.Subject) > 128 {
		return fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	if c.ExpiresAt == nil || c.IssuedAt == nil {
		return fmt.Errorf("%w: missing exp or iat", ErrInvalidToken)
	}
	if c.AuthTime > now.Unix() {
		return fmt.Errorf("%w: auth_time in the future", ErrInvalidToken)
	}
	return nil
}

// key resolves kid against the cached certificates. While the cache is
// fresh an unknown kid is rejected without a refetch, since kid is chosen by
// the caller.
func (v *Verifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if k, ok, fresh := v.cached(kid); fresh {
		if !ok {
			return nil, ErrUnknownKey
		}
		return k, nil
	}
	_, err, _ := v.fetches.Do("certs", func() (interface{}, error) {
		if _, _, fresh := v.cached(kid); fresh {
			return nil, nil
		}
		// the flight is shared, so it must not die with the first caller's request
		return nil, v.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	if k, ok, _ := v.cached(kid); ok {
		return k, nil
	}
	return nil, ErrUnknownKey
}

func (v *Verifier) cached(kid string) (*rsa.PublicKey, bool, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	k, ok := v.keys[kid]
	return k, ok, v.now().Before(v.expires)
}

// refresh downloads the signing certificates, retrying transient failures.
func (v *Verifier) refresh(ctx context.Context) error {
	var (
		keys map[string]*rsa.PublicKey
		ttl  time.Duration
	)
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := v.hc.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("certs status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("certs status %d", resp.StatusCode))
		}
		var raw map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return backoff.Permanent(fmt.Errorf("decode certs: %w", err))
		}
		parsed := make(map[string]*rsa.PublicKey, len(raw))
		for kid, pemText := range raw {
			pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemText))
			if err != nil {
				slog.Warn("skipping unparsable signing certificate", slog.String("kid", kid), slog.Any("error", err))
				continue
			}
			parsed[kid] = pub
		}
		keys = parsed
		ttl = maxAge(resp.Header.Get("Cache-Control"))
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 200 * time.Millisecond
	expo.MaxInterval = 2 * time.Second
	expo.MaxElapsedTime = 5 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		observability.LoggerFromContext(ctx).Error("fetch signing certificates failed",
			slog.String("url", v.certsURL), slog.Any("error", err))
		return fmt.Errorf("%w: signing keys unavailable: %v", domain.ErrUnauthorized, err)
	}

	v.mu.Lock()
	v.keys = keys
	v.expires = v.now().Add(ttl)
	v.mu.Unlock()
	return nil
}

// maxAge reads max-age from a Cache-Control header.
func maxAge(header string) time.Duration {
	for _, directive := range strings.Split(header, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(strings.ToLower(directive), "max-age=") {
			continue
		}
		secs, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(directive), "max-age="))
		if err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultCertTTL
}
