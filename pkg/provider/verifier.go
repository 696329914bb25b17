package provider

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/foodpal/foodpal/pkg/errors"
)

// VerifiedClaims are the validated claims extracted from a provider identity
// token. They are transient: produced by the Verifier, consumed immediately by
// the claims normalizer, never persisted.
type VerifiedClaims struct {
	Subject  string
	Issuer   string
	Audience []string
	Expiry   time.Time
	Raw      map[string]interface{}
}

// supportedSigningAlgs restricts which algorithms a provider token may use.
// Symmetric algorithms are excluded so a token can never be "verified" against
// key material an attacker controls.
var supportedSigningAlgs = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}

// Verifier validates provider-signed identity tokens against the provider's
// published key set.
type Verifier struct {
	keys *KeySetCache
}

// NewVerifier creates a Verifier backed by the given key set cache
func NewVerifier(keys *KeySetCache) *Verifier {
	return &Verifier{keys: keys}
}

// Verify checks the token's signature, issuer, audience, and expiry against
// the provider configuration. The checks run in a fixed order: header parsing
// fails fast before any key fetch or cryptographic work, and claim validation
// only runs on a signature-verified token.
func (v *Verifier) Verify(ctx context.Context, cfg Config, rawToken string) (*VerifiedClaims, error) {
	// (1) unverified header parse for the key id
	unverified, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMalformedToken, "failed to parse token")
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New(errors.ErrCodeMalformedToken, "token header carries no key id")
	}

	// (2) key lookup, with exactly one forced refresh on an unknown key id
	// to pick up a rotation that happened since the last fetch
	keySet, err := v.keys.GetKeys(ctx, cfg)
	if err != nil {
		return nil, err
	}
	key, ok := keySet.Key(kid)
	if !ok {
		v.keys.Invalidate(cfg.Name)
		keySet, err = v.keys.GetKeys(ctx, cfg)
		if err != nil {
			return nil, err
		}
		key, ok = keySet.Key(kid)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeUnknownKey,
				"key id %q not found in key set for provider %s", kid, cfg.Name)
		}
	}

	// (3) signature verification; claims are validated manually below so the
	// failure modes stay distinguishable
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods(supportedSigningAlgs),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}); err != nil {
		if stderrors.Is(err, jwt.ErrTokenMalformed) {
			return nil, errors.Wrap(err, errors.ErrCodeMalformedToken, "failed to parse token")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInvalidSignature, "token signature verification failed")
	}

	// (4) issuer and audience
	issuer, err := claims.GetIssuer()
	if err != nil || !cfg.IssuerMatches(issuer) {
		return nil, errors.Newf(errors.ErrCodeClaimMismatch,
			"token issuer %q does not match provider %s", issuer, cfg.Name)
	}
	audience, err := claims.GetAudience()
	if err != nil || !containsString(audience, cfg.ExpectedAudience()) {
		return nil, errors.Newf(errors.ErrCodeClaimMismatch,
			"token audience %v does not contain %q", []string(audience), cfg.ExpectedAudience())
	}

	// (5) expiry
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return nil, errors.New(errors.ErrCodeClaimMismatch, "token carries no expiry")
	}
	if !time.Now().Before(expiry.Time) {
		return nil, errors.Newf(errors.ErrCodeTokenExpired, "token expired at %s", expiry.Time.Format(time.RFC3339))
	}

	subject, _ := claims.GetSubject()
	return &VerifiedClaims{
		Subject:  subject,
		Issuer:   issuer,
		Audience: audience,
		Expiry:   expiry.Time,
		Raw:      claims,
	}, nil
}

func containsString(values []string, needle string) bool {
	for _, v := range values {
		if v == needle {
			return true
		}
	}
	return false
}
