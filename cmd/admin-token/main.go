package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hivoco/flipbook-api/internal/auth"
	"github.com/hivoco/flipbook-api/pkg/utils"
)

// admin-token prints a bearer token for the guarded write routes, signed
// with FLIPBOOK_AUTH_JWT_SECRET.
func main() {
	var (
		subject = flag.String("sub", "admin", "operator name recorded in the token")
		ttl     = flag.Duration("ttl", 0, "token lifetime (defaults to FLIPBOOK_AUTH_JWT_TTL)")
	)
	flag.Parse()

	cfg, err := utils.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	tokens := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}
	if *ttl > 0 {
		tokens.Duration = *ttl
	}
	if !tokens.Enabled() {
		logrus.Fatal("FLIPBOOK_AUTH_JWT_SECRET is not set; the API runs without a guard")
	}

	tok, exp, err := tokens.Sign(*subject, auth.RoleAdmin)
	if err != nil {
		logrus.Fatalf("sign: %v", err)
	}
	fmt.Println(tok)
	logrus.Infof("token for %q expires %s", *subject, exp.Format(time.RFC3339))
}
