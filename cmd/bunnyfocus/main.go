// Package main provides the bunnyfocus server and maintenance commands.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bunnyfocus/internal/auth"
	"bunnyfocus/internal/catalog"
	"bunnyfocus/internal/chat"
	"bunnyfocus/internal/config"
	api "bunnyfocus/internal/http"
	"bunnyfocus/internal/random"
	"bunnyfocus/internal/service"
)

const chatTimeout = 20 * time.Second

var (
	catalogFile string
	profileID   string
)

var stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "bunnyfocus",
		Short:        "Focus timer backend with streaks and collectible bunnies",
		SilenceUsage: true,
		RunE:         runServeCmd,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for ACCESS_PASSWORD_HASH",
		Args:  cobra.NoArgs,
		RunE:  runHashPasswordCmd,
	})
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newProfileCmd())

	return rootCmd
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and list the bunny catalog",
		Args:  cobra.NoArgs,
		RunE:  runCatalogCmd,
	}
	cmd.Flags().StringVar(&catalogFile, "file", os.Getenv("CATALOG_PATH"), "TOML catalog file (default: built-in catalog)")
	return cmd
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Print the stored profile as JSON",
		Args:  cobra.NoArgs,
		RunE:  runProfileCmd,
	}
	cmd.Flags().StringVar(&profileID, "id", "", "profile id (default: PROFILE_ID)")
	return cmd
}

func runServeCmd(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	rnd, err := random.NewSeeded()
	if err != nil {
		return err
	}
	authManager := auth.NewManager(cfg.JWTSecret, cfg.PasswordHash, cfg.TokenTTL)

	svc := service.New(store, cat, rnd)
	svc.Location = loc
	svc.Auth = authManager
	if cfg.ChatEnabled() {
		svc.Assistant = chat.New(chat.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.ChatModel,
			Timeout: chatTimeout,
		})
	}

	handler := &api.API{
		Service:    svc,
		Auth:       authManager,
		TrustProxy: cfg.TrustProxy,
		ProfileID:  cfg.ProfileID,
		Origins:    cfg.CORSOrigin,
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		handler.ChatLimiter = api.NewRateLimiter(rdb, cfg.ChatRateLimit, cfg.ChatRateWindow)
		handler.LoginLimiter = api.NewRateLimiter(rdb, cfg.LoginRateLimit, cfg.LoginRateWindow)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("store=%s catalog=%d items auth=%t chat=%t", cfg.StoreDriver, cat.Len(), cfg.AuthEnabled(), cfg.ChatEnabled())

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	return nil
}

func runHashPasswordCmd(cmd *cobra.Command, _ []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password must not be empty")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(cmd *cobra.Command) (string, error) {
	if stdinIsTerminal() {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		data, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(data), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runCatalogCmd(cmd *cobra.Command, _ []string) error {
	cat, err := catalog.Load(catalogFile)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	return printCatalog(cmd.OutOrStdout(), cat)
}

func printCatalog(w io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUNLOCK STREAK")
	for _, item := range cat.Items() {
		fmt.Fprintf(tw, "%s\t%s %s\t%d\n", item.ID, item.Emoji, item.Name, item.UnlockStreak)
	}
	return tw.Flush()
}

func runProfileCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	id := profileID
	if id == "" {
		id = cfg.ProfileID
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	p, err := store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load profile %s: %w", id, err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "    ")
	return enc.Encode(p)
}
