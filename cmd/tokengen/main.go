// Package main provides a CLI tool for generating actor tokens for the
// stewardship API. Tokens are signed with the dev key unless -key is given
// and will NOT work against a production deployment.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	jwttoken "stewardship/internal/jwt_token"
	"stewardship/internal/platform/config"
	id "stewardship/pkg/domain"
)

const (
	defaultIssuer   = "stewardship"
	defaultAudience = "stewardship-api"
	defaultTokenTTL = 15 * time.Minute
)

type tokenOutput struct {
	Token     string            `json:"token"`
	ActorID   string            `json:"actor_id"`
	ExpiresIn string            `json:"expires_in"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	actorCmd := flag.NewFlagSet("actor", flag.ExitOnError)
	actorID := actorCmd.String("actor-id", "", "Actor ID (UUID). Generated if empty.")
	key := actorCmd.String("key", config.DevSigningKey, "HS256 signing key")
	issuer := actorCmd.String("issuer", defaultIssuer, "Token issuer")
	audience := actorCmd.String("audience", defaultAudience, "Token audience")
	ttl := actorCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	jsonOut := actorCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "actor":
		_ = actorCmd.Parse(os.Args[2:])
		generateActorToken(*actorID, *key, *issuer, *audience, *ttl, *jsonOut)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate actor tokens for the stewardship API

WARNING: The default signing key is the dev key. Only use for local development.

Usage:
  tokengen actor [flags]

Examples:
  # Token for a fresh random actor
  tokengen actor

  # Token for a seeded actor, valid for an hour
  tokengen actor -actor-id "550e8400-e29b-41d4-a716-446655440000" -ttl 1h

  # Output as JSON
  tokengen actor -json`)
}

func generateActorToken(rawID, key, issuer, audience string, ttl time.Duration, jsonOutput bool) {
	actor := id.ActorID(uuid.New())
	if rawID != "" {
		parsed, err := id.ParseActorID(rawID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid actor-id: %s\n", rawID)
			os.Exit(1)
		}
		actor = parsed
	}

	svc := jwttoken.NewService(key, issuer, audience, ttl)
	token, err := svc.Issue(context.Background(), actor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			ActorID:   actor.String(),
			ExpiresIn: ttl.String(),
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}

	fmt.Println("Actor Token (JWT)")
	fmt.Println("=================")
	fmt.Printf("Actor ID:   %s\n", actor)
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/records")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
