// token-minter mints RS256 bearer tokens for local development and can
// serve the matching JWKS document so a local gateway can verify them.
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agentgate/agentgate/internal/domain"
)

func main() {
	issuer := flag.String("issuer", "https://idp.localhost/", "Token issuer claim")
	audience := flag.String("audience", "gw-local", "Token audience claim")
	subject := flag.String("subject", "user@example.com", "Token subject claim")
	tenant := flag.String("tenant", "demo-tenant", "Tenant ID claim")
	kid := flag.String("kid", "local-dev-key", "Key ID for the token header")
	ttl := flag.Duration("ttl", time.Hour, "Token lifetime")
	serve := flag.String("serve", "", "Address to serve the JWKS document on (e.g. :9000); empty to just print a token")
	flag.Parse()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		log.Fatalf("generate key: %v", err)
	}

	now := time.Now()
	claims := &domain.AgentClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    *issuer,
			Subject:   *subject,
			Audience:  jwt.ClaimStrings{*audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID: *tenant,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = *kid

	signed, err := token.SignedString(key)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(signed)

	if *serve == "" {
		return
	}

	doc := jwksDocument(*kid, &key.PublicKey)
	log.Printf("serving JWKS on %s/.well-known/jwks.json", *serve)
	http.HandleFunc("/.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	})
	log.Fatal(http.ListenAndServe(*serve, nil))
}

func jwksDocument(kid string, pub *rsa.PublicKey) []byte {
	doc := map[string]any{
		"keys": []map[string]string{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			},
		},
	}
	out, err := json.Marshal(doc)
	if err != nil {
		log.Fatalf("encode jwks: %v", err)
	}
	return out
}
