package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"client/internal/infra"
	"client/internal/tokenstore"
)

// Inspects and clears the locally stored credential pair without going
// through the session provider. Useful when a stale token keeps a broken
// session alive on a developer machine.
func main() {
	var clearFlag bool
	flag.BoolVar(&clearFlag, "clear", false, "remove both stored tokens")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "tokens").Logger()
	store := tokenstore.NewStore(cfg.StateDir, &logger)

	if clearFlag {
		store.Remove(tokenstore.AccessToken)
		store.Remove(tokenstore.RefreshToken)
		fmt.Println("stored tokens cleared")
		return
	}

	printToken(store, tokenstore.AccessToken)
	printToken(store, tokenstore.RefreshToken)
}

func printToken(store *tokenstore.Store, name string) {
	value := store.Get(name)
	if value == "" {
		fmt.Printf("%s: absent\n", name)
		return
	}
	expiry := store.Expiry(name)
	fmt.Printf("%s: present (%d chars, expires %s)\n", name, len(value), expiry.Format(time.RFC3339))
}
