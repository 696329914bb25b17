package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/foodpal/foodpal/pkg/config"
	"github.com/foodpal/foodpal/pkg/sessiontoken"
)

// tokengen mints session tokens for local development and manual API testing.
// Flag defaults come from the same environment variables the server reads, so
// a token minted here verifies against a locally running server.
func main() {
	sessionCfg := config.NewSessionConfigFromEnv()

	secret := flag.String("secret", sessionCfg.Secret, "Secret key for signing the token")
	issuer := flag.String("issuer", sessionCfg.Issuer, "Issuer of the token")
	audience := flag.String("audience", sessionCfg.Audience, "Audience of the token")
	subject := flag.String("subject", "00000000-0000-0000-0000-000000000001", "Subject of the token (user ID)")
	email := flag.String("email", "dev@example.com", "Email claim")
	expiry := flag.Duration("expiry", 30*time.Minute, "Token expiry duration (e.g., 30m, 1h, 24h)")
	outputFormat := flag.String("format", "compact", "Output format: compact, full, or debug")
	flag.Parse()

	tokenGen := sessiontoken.NewHMACTokenGenerator(*secret, *issuer, *audience)

	tokenStr, expiryTime, err := tokenGen.GenerateToken(*subject, *expiry, map[string]interface{}{
		"email": *email,
	})
	if err != nil {
		slog.Error("Failed to generate token", "err", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "compact":
		fmt.Println(tokenStr)
	case "full":
		fmt.Printf("Token: %s\nExpires: %s\n", tokenStr, expiryTime.Format(time.RFC3339))
	case "debug":
		token, err := tokenGen.ParseToken(tokenStr)
		if err != nil {
			slog.Error("Failed to parse generated token", "err", err)
			os.Exit(1)
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			slog.Error("Failed to get claims from token")
			os.Exit(1)
		}

		fmt.Printf("Token: %s\n\n", tokenStr)
		headerJSON, _ := json.MarshalIndent(token.Header, "", "  ")
		fmt.Printf("Header:\n%s\n\n", headerJSON)
		claimsJSON, _ := json.MarshalIndent(claims, "", "  ")
		fmt.Printf("Claims:\n%s\n\n", claimsJSON)
		fmt.Printf("Expires: %s\n", expiryTime.Format(time.RFC3339))
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown output format: %s\n", *outputFormat)
		os.Exit(1)
	}
}
