package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stay-on-one/internal/app"
	"stay-on-one/internal/config"
	"stay-on-one/internal/llm"
	"stay-on-one/internal/service"
)

// storeOpener abre el store de la cuenta; los tests inyectan uno en memoria.
type storeOpener func(ctx context.Context) (*service.AccountStore, llm.LLMClient, func(), error)

type cli struct {
	in    io.Reader
	out   io.Writer
	open  storeOpener
	store *service.AccountStore
	coach llm.LLMClient
	done  func()
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: loading .env: %v", err)
	}
	c := &cli{in: os.Stdin, out: os.Stdout, open: openFromEnv}
	if err := c.rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func openFromEnv(ctx context.Context) (*service.AccountStore, llm.LLMClient, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	loc, _ := cfg.Location()
	logger, _ := zap.NewDevelopment()

	redisClient := app.NewRedisClient(ctx, cfg, logger)
	repo, closeRepo, err := app.OpenDocumentRepository(ctx, cfg, redisClient, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	coach, err := app.NewCoachClient(ctx, cfg, logger)
	if err != nil {
		closeRepo()
		return nil, nil, nil, err
	}
	store := service.NewAccountStore(repo, coach, logger,
		service.WithAccountKey(cfg.AccountKey),
		service.WithClock(time.Now, loc),
	)
	if err := store.Init(ctx); err != nil {
		closeRepo()
		return nil, nil, nil, err
	}
	cleanup := func() {
		closeRepo()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		_ = logger.Sync()
	}
	return store, coach, cleanup, nil
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "soo",
		Short:         "Stay on One: one goal per life area, one check-in per day",
		SilenceUsage:  true,
	}
	root.AddCommand(
		c.nameCmd(),
		c.goalCmd(),
		c.checkinCmd(),
		c.chatCmd(),
		c.statusCmd(),
		c.statsCmd(),
		c.visionCmd(),
		c.exportCmd(),
		hashPassphraseCmd(),
	)
	return root
}

// withStore abre el store antes del comando y lo cierra (flush incluido) al terminar.
func (c *cli) withStore(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, coach, done, err := c.open(cmd.Context())
		if err != nil {
			return fmt.Errorf("open account: %w", err)
		}
		c.store, c.coach, c.done = store, coach, done
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = c.store.Close(ctx)
			if c.done != nil {
				c.done()
			}
		}()
		return run(cmd, args)
	}
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
