package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prazwal-bns/imageprompt-api/internal/config"
	"github.com/prazwal-bns/imageprompt-api/internal/domain"
	"github.com/prazwal-bns/imageprompt-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Creates a login-capable user. There is no registration endpoint, so
// accounts are provisioned out of band with this tool.
func main() {
	var (
		name     = flag.String("name", "", "Display name for the user")
		email    = flag.String("email", "", "Login email (unique)")
		password = flag.String("password", "", "Plaintext password to hash")
	)
	flag.Parse()

	if *name == "" || *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Usage: seed -name <name> -email <email> -password <password>")
		os.Exit(2)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	users := repository.NewUserRepository(db)
	user := &domain.User{
		Name:     *name,
		Email:    *email,
		Password: string(hash),
	}
	if err := users.Create(context.Background(), user); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created user %d (%s)\n", user.ID, user.Email)
}
