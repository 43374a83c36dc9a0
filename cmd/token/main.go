// Command token mints an access token for the API when AUTH_ENABLED is set.
package main

import (
	"flag"
	"fmt"

	"cruce-web/internal/config"
	"cruce-web/internal/utils"
)

func main() {
	operator := flag.String("operator", "", "Operator name stored in the token")
	role := flag.String("role", "operator", "Role stored in the token")
	expire := flag.Duration("expire", 0, "Token lifetime (default: JWT_EXPIRE)")
	flag.Parse()

	log := utils.GetLogger()

	if *operator == "" {
		log.Fatal("-operator is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *expire == 0 {
		*expire = cfg.JWTExpire
	}

	token, err := utils.GenerateAccessToken(*operator, *role, cfg.JWTSecret, *expire)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}
	fmt.Println(token)
}
