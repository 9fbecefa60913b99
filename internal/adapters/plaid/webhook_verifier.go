package plaid

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	verificationKeyPath = "/webhook_verification_key/get"
	maxWebhookAge       = 5 * time.Minute
)

// jwk is the subset of a JSON Web Key Plaid returns for webhook
// verification (ES256 over P-256).
type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

type verificationKeyResponse struct {
	Key jwk `json:"key"`
}

// WebhookVerifier validates the Plaid-Verification JWT that accompanies
// every webhook delivery: ES256 signature against the key fetched by kid,
// freshness, and a SHA-256 digest of the raw body.
type WebhookVerifier struct {
	client *Client

	mu   sync.Mutex
	keys map[string]*ecdsa.PublicKey // kid -> key
}

// NewWebhookVerifier creates a verifier that fetches verification keys
// through the given API client.
func NewWebhookVerifier(client *Client) *WebhookVerifier {
	return &WebhookVerifier{
		client: client,
		keys:   map[string]*ecdsa.PublicKey{},
	}
}

// VerifyWebhook checks the signed JWT from the Plaid-Verification header
// against the raw request body. A nil return means the delivery is
// authentic and fresh.
func (v *WebhookVerifier) VerifyWebhook(ctx context.Context, body []byte, signedJWT string) error {
	token, err := jwt.Parse(signedJWT, func(t *jwt.Token) (interface{}, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("verification token has no kid header")
		}
		return v.keyForKid(ctx, kid)
	}, jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}))
	if err != nil {
		return fmt.Errorf("webhook verification token invalid: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return fmt.Errorf("webhook verification token has unexpected claims type")
	}

	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return fmt.Errorf("webhook verification token has no iat claim")
	}
	if time.Since(issuedAt.Time) > maxWebhookAge {
		return fmt.Errorf("webhook verification token issued too long ago (%s)", time.Since(issuedAt.Time))
	}

	claimedDigest, _ := claims["request_body_sha256"].(string)
	if claimedDigest == "" {
		return fmt.Errorf("webhook verification token has no request_body_sha256 claim")
	}
	digest := sha256.Sum256(body)
	if hex.EncodeToString(digest[:]) != claimedDigest {
		return fmt.Errorf("webhook body digest mismatch")
	}
	return nil
}

// keyForKid returns the verification key for a kid, fetching and caching
// it on first sight. Keys rotate rarely; a stale cache only fails closed.
func (v *WebhookVerifier) keyForKid(ctx context.Context, kid string) (*ecdsa.PublicKey, error) {
	v.mu.Lock()
	key, ok := v.keys[kid]
	v.mu.Unlock()
	if ok {
		return key, nil
	}

	var resp verificationKeyResponse
	if err := v.client.post(ctx, verificationKeyPath, map[string]any{"key_id": kid}, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch verification key %s: %w", kid, err)
	}

	key, err := publicKeyFromJWK(resp.Key)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.keys[kid] = key
	v.mu.Unlock()
	return key, nil
}

func publicKeyFromJWK(key jwk) (*ecdsa.PublicKey, error) {
	if key.Kty != "EC" || key.Crv != "P-256" {
		return nil, fmt.Errorf("unsupported verification key type %s/%s", key.Kty, key.Crv)
	}
	xBytes, err := base64.RawURLEncoding.DecodeString(key.X)
	if err != nil {
		return nil, fmt.Errorf("invalid x coordinate in verification key: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(key.Y)
	if err != nil {
		return nil, fmt.Errorf("invalid y coordinate in verification key: %w", err)
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}
