package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/stemsi/screening-backend/internal/config"
	"github.com/stemsi/screening-backend/internal/logger"
	"github.com/stemsi/screening-backend/internal/middleware"
	"github.com/stemsi/screening-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	var (
		tokenType = flag.String("type", "", "token type: user or admin")
		userID    = flag.Int("user", 0, "user id carried by the token")
		perms     = flag.String("perms", "", "comma-separated permissions (admin tokens)")
		ttl       = flag.Duration("ttl", 24*time.Hour, "token lifetime")
	)
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	// Prompt for anything missing when a person is at the keyboard.
	if term.IsTerminal(int(os.Stdin.Fd())) {
		reader := bufio.NewReader(os.Stdin)
		fmt.Println("=== Issue Access Token ===")

		if *tokenType == "" {
			*tokenType = prompt(reader, "Token type (user/admin, default user): ")
		}
		if *userID == 0 {
			raw := prompt(reader, "User ID: ")
			id, err := strconv.Atoi(raw)
			if err != nil {
				fmt.Println("Error: User ID must be a number")
				os.Exit(1)
			}
			*userID = id
		}
		if *tokenType == string(service.TokenTypeAdmin) && *perms == "" {
			def := middleware.PermCatalogRead + "," + middleware.PermCatalogWrite
			*perms = prompt(reader, fmt.Sprintf("Permissions (default %s): ", def))
			if *perms == "" {
				*perms = def
			}
		}
	}

	if *tokenType == "" {
		*tokenType = string(service.TokenTypeUser)
	}
	tt := service.TokenType(*tokenType)
	if tt != service.TokenTypeUser && tt != service.TokenTypeAdmin {
		fmt.Println("Error: token type must be user or admin")
		os.Exit(1)
	}
	if *userID <= 0 {
		fmt.Println("Error: a positive user ID is required")
		os.Exit(1)
	}

	var permissions []string
	for _, p := range strings.Split(*perms, ",") {
		if p = strings.TrimSpace(p); p != "" {
			permissions = append(permissions, p)
		}
	}

	token, err := service.NewAuthService(cfg).IssueToken(tt, *userID, permissions, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to issue token")
	}

	fmt.Println(token)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
