// Command token mints access tokens for operators and local testing, since
// login is handled outside this service.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/config"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/spf13/pflag"
)

func main() {
	var (
		employeeID string
		isAdmin    bool
		ttl        time.Duration
	)

	flagSet := pflag.NewFlagSet("token", pflag.ContinueOnError)
	flagSet.StringVarP(&employeeID, "employee", "e", "", "employee id to put in the token")
	flagSet.BoolVar(&isAdmin, "admin", false, "grant the admin claim")
	flagSet.DurationVar(&ttl, "ttl", 0, "token lifetime (default JWT_ACCESS_EXPIRATION_TIME)")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if employeeID == "" {
		fmt.Fprintln(os.Stderr, "usage: token --employee <id> [--admin] [--ttl 1h]")
		flagSet.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	expiration := cfg.JWT.AccessExpiration
	if ttl > 0 {
		expiration = ttl
	}

	token, expiresAt, err := jwt.NewJWTService(cfg.JWT.Secret, expiration).GenerateAccessToken(employeeID, isAdmin)
	if err != nil {
		log.Fatal("Error generating token: ", err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", time.Unix(expiresAt, 0).Format(time.RFC3339))
}
