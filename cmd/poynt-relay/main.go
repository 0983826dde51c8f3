package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"

	"github.com/poynt/relay/internal/blockchain"
	"github.com/poynt/relay/internal/config"
	"github.com/poynt/relay/internal/events"
	"github.com/poynt/relay/internal/http_api"
	"github.com/poynt/relay/internal/loyalty"
	"github.com/poynt/relay/internal/notificator"
	"github.com/poynt/relay/internal/relay"
	"github.com/poynt/relay/internal/repository"
	"github.com/poynt/relay/internal/signer"
	"github.com/poynt/relay/pkg/logger"
	"github.com/poynt/relay/pkg/relayclient"
)

func main() {
	app := &cli.App{
		Name:  "poynt-relay",
		Usage: "Poynt is a gasless relay for loyalty protocol transactions",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the relay HTTP API",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "port", Aliases: []string{"P"}, Usage: "API port"},
					&cli.StringFlag{Name: "rpc-url", Aliases: []string{"r"}, Usage: "Solana RPC URL"},
					&cli.StringFlag{Name: "gateway-url", Aliases: []string{"g"}, Usage: "Loyalty protocol gateway URL"},
					&cli.StringFlag{Name: "database-driver", Usage: "Journal database driver (postgres or sqlite)"},
					&cli.StringFlag{Name: "sqlite-path", Usage: "SQLite journal path"},
					&cli.StringFlag{Name: "postgres-user", Aliases: []string{"u"}, Usage: "Postgres user"},
					&cli.StringFlag{Name: "postgres-password", Aliases: []string{"p"}, Usage: "Postgres password"},
					&cli.StringFlag{Name: "postgres-host", Aliases: []string{"t"}, Usage: "Postgres host"},
					&cli.IntFlag{Name: "postgres-port", Usage: "Postgres port"},
					&cli.StringFlag{Name: "postgres-db", Aliases: []string{"d"}, Usage: "Postgres database name"},
					&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
				},
				Action: serve,
			},
			{
				Name:  "submit",
				Usage: "Send an operation through a relay, co-sign it with a wallet and submit it",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "relay-url", Value: "http://localhost:6532", Usage: "Relay base URL"},
					&cli.StringFlag{Name: "rpc-url", Value: config.DevnetRPCURL, Usage: "Solana RPC URL"},
					&cli.StringFlag{Name: "keypair", Aliases: []string{"k"}, Usage: "Wallet keypair file written by solana-keygen"},
					&cli.StringFlag{Name: "private-key", Usage: "Wallet secret key, base58", EnvVars: []string{"WALLET_PRIVATE_KEY"}},
					&cli.StringFlag{Name: "request", Aliases: []string{"f"}, Value: "-", Usage: "Request JSON file, - for stdin"},
				},
				Action: submit,
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	// Override with flags if set
	if c.IsSet("port") {
		cfg.APIPort = c.Int("port")
	}
	if c.IsSet("rpc-url") {
		cfg.RPCURL = c.String("rpc-url")
	}
	if c.IsSet("gateway-url") {
		cfg.LoyaltyGatewayURL = c.String("gateway-url")
	}
	if c.IsSet("database-driver") {
		cfg.DatabaseDriver = c.String("database-driver")
	}
	if c.IsSet("sqlite-path") {
		cfg.SQLitePath = c.String("sqlite-path")
	}
	if c.IsSet("postgres-user") {
		cfg.PostgresUser = c.String("postgres-user")
	}
	if c.IsSet("postgres-password") {
		cfg.PostgresPassword = c.String("postgres-password")
	}
	if c.IsSet("postgres-host") {
		cfg.PostgresHost = c.String("postgres-host")
	}
	if c.IsSet("postgres-port") {
		cfg.PostgresPort = c.Int("postgres-port")
	}
	if c.IsSet("postgres-db") {
		cfg.PostgresDB = c.String("postgres-db")
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %v", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer log.Sync()

	// Initialize journal database
	db, err := repository.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize blockchain service
	chain := blockchain.NewSolana(cfg.RPCURL, log)
	defer chain.Close()

	protocol := loyalty.NewGateway(cfg.LoyaltyGatewayURL, cfg.LoyaltyGatewayTimeout, log)
	feePayers := signer.NewProvider(cfg.FeePayerPrivateKey)
	if payer, err := feePayers.FeePayer(); err != nil {
		log.Warnw("Fee payer unavailable, gasless requests will fail", "error", err)
	} else {
		log.Infow("Fee payer loaded", "address", payer.PublicKey().String())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The telegram /feepayer command reads the relay, which is built after the notificator
	var relayApp *relay.Relay
	var telegram *notificator.TelegramNotificator
	if cfg.TelegramBotToken != "" {
		telegram, err = notificator.NewTelegramNotificator(log, cfg.TelegramBotToken, func(ctx context.Context) (string, uint64, error) {
			return relayApp.FeePayerStatus(ctx)
		})
		if err != nil {
			return fmt.Errorf("failed to initialize telegram: %v", err)
		}
	}
	alerts := notificator.NewNotificator(log, telegram, cfg.TelegramAlertChatID)

	publisher := events.New(cfg.RabbitMQURL, log)
	defer publisher.Close()

	relayApp = relay.NewRelay(db, chain, protocol, alerts, publisher, feePayers, log, cfg)

	apiServer := http_api.NewHTTPServer(relayApp, cfg, log)

	go apiServer.Start()
	go relayApp.Start(ctx)
	if telegram != nil {
		go telegram.Start(ctx)
	}

	<-ctx.Done()
	log.Info("Shutdown signal received")
	return apiServer.Shutdown()
}

func submit(c *cli.Context) error {
	wallet, err := loadWallet(c)
	if err != nil {
		return err
	}

	request, err := readRequest(c.String("request"))
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(false)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer log.Sync()

	chain := blockchain.NewSolana(c.String("rpc-url"), log)
	defer chain.Close()

	client := relayclient.New(c.String("relay-url"), wallet, chain)
	result, err := client.Execute(c.Context, request)
	if err != nil {
		return err
	}

	if result.Signature != "" {
		fmt.Fprintln(c.App.Writer, result.Signature)
		return nil
	}
	out, err := json.MarshalIndent(result.Body, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}

func loadWallet(c *cli.Context) (solana.PrivateKey, error) {
	switch {
	case c.String("keypair") != "":
		key, err := solana.PrivateKeyFromSolanaKeygenFile(c.String("keypair"))
		if err != nil {
			return nil, fmt.Errorf("failed to read keypair: %v", err)
		}
		return key, nil
	case c.String("private-key") != "":
		key, err := solana.PrivateKeyFromBase58(c.String("private-key"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %v", err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("one of --keypair or --private-key is required")
	}
}

func readRequest(path string) (json.RawMessage, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %v", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("request is not valid JSON")
	}
	return json.RawMessage(raw), nil
}
