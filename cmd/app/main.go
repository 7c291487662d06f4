package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sqliteadapter "github.com/atvirokodosprendimai/maranzalife/internal/adapters/db/sqlite"
	httpadapter "github.com/atvirokodosprendimai/maranzalife/internal/adapters/http"
	rpcadapter "github.com/atvirokodosprendimai/maranzalife/internal/adapters/rpcjson"
	"github.com/atvirokodosprendimai/maranzalife/internal/application"
	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
	"github.com/atvirokodosprendimai/maranzalife/internal/platform/config"
	"github.com/atvirokodosprendimai/maranzalife/internal/platform/otel"
	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "maranzalife",
		Usage: "Maranza Life game server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			authCommand(),
			characterCommand(),
			gameCommand(),
			shopCommand(),
			auditCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run HTTP and JSON-RPC servers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (MARANZA_ADDR)"},
			&cli.StringFlag{Name: "rpc-socket", Usage: "JSON-RPC unix socket path (MARANZA_RPC_SOCKET)"},
			&cli.StringFlag{Name: "db-dialect", Usage: "sqlite or postgres (MARANZA_DB_DIALECT)"},
			&cli.StringFlag{Name: "db-path", Usage: "SQLite database path (MARANZA_DB_PATH)"},
			&cli.StringFlag{Name: "db-dsn", Usage: "Postgres DSN (MARANZA_DB_DSN)"},
			&cli.StringFlag{Name: "demo-email", Usage: "demo player email (MARANZA_DEMO_EMAIL)"},
			&cli.StringFlag{Name: "demo-password", Usage: "demo player password when users are empty (MARANZA_DEMO_PASSWORD)"},
			&cli.BoolFlag{Name: "allow-guest", Usage: "anonymous requests may play as the demo player (MARANZA_ALLOW_GUEST)"},
			&cli.Int64Flag{Name: "seed", Usage: "resolver seed, 0 picks a random one (MARANZA_SEED)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.IsSet("addr") {
				cfg.Addr = c.String("addr")
			}
			if c.IsSet("rpc-socket") {
				cfg.RPCSocket = c.String("rpc-socket")
			}
			if c.IsSet("db-dialect") {
				cfg.DBDialect = c.String("db-dialect")
			}
			if c.IsSet("db-path") {
				cfg.DBPath = c.String("db-path")
			}
			if c.IsSet("db-dsn") {
				cfg.DBDSN = c.String("db-dsn")
			}
			if c.IsSet("demo-email") {
				cfg.DemoEmail = c.String("demo-email")
			}
			if c.IsSet("demo-password") {
				cfg.DemoPassword = c.String("demo-password")
			}
			if c.IsSet("allow-guest") {
				cfg.AllowGuest = c.Bool("allow-guest")
			}
			if c.IsSet("seed") {
				cfg.Seed = c.Int64("seed")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(ctx, cfg)
		},
	}
}

func runServer(ctx context.Context, cfg config.Server) error {
	shutdownTracing, err := otel.Setup(ctx, "maranzalife", cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	db, err := sqliteadapter.Open(cfg.DBDialect, cfg.DSN())
	if err != nil {
		return err
	}
	if err := sqliteadapter.RunMigrations(ctx, db); err != nil {
		return err
	}

	seed, err := cfg.ResolveSeed()
	if err != nil {
		return err
	}
	repo := sqliteadapter.NewGameRepository(db)
	service := application.NewGameService(repo, application.NewResolver(application.DefaultTables(), seed))
	if err := service.SeedCatalog(ctx); err != nil {
		return err
	}
	demo, err := service.BootstrapDemoPlayer(ctx, cfg.DemoEmail, cfg.DemoPassword)
	if err != nil {
		return err
	}

	var guestID uint
	if cfg.AllowGuest {
		guestID = demo.ID
		log.Printf("guest access enabled as %s", demo.Email)
	}

	router := httpadapter.NewRouter(service, httpadapter.Options{GuestUserID: guestID})
	srv := &http.Server{Addr: cfg.Addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	rpcSrv, err := rpcadapter.Start(cfg.RPCSocket, service, guestID)
	if err != nil {
		return err
	}

	defer func() {
		_ = rpcSrv.Close()
	}()
	log.Printf("json-rpc listening on unix://%s", cfg.RPCSocket)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s (%s)", srv.Addr, cfg.DBDialect)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func transportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "transport", Value: transportSocket, Usage: "uds or http"},
		&cli.StringFlag{Name: "server", Value: defaultServer},
		&cli.StringFlag{Name: "socket", Value: defaultSocket},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}
}

// withGame runs fn against the stored session and saves the session when
// fn changed it.
func withGame(fn func(game gameClient, s *session) error) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	before := s
	if err := fn(newGameClient(s), &s); err != nil {
		return err
	}
	if s != before {
		return s.save()
	}
	return nil
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authentication commands",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Login and store CLI token",
				Flags: append(transportFlags(),
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "token-name", Value: "cli"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					s := session{Transport: c.String("transport"), Server: c.String("server"), Socket: c.String("socket")}.withDefaults()
					out, err := newGameClient(s).Login(ctx, c.String("email"), c.String("password"), c.String("token-name"))
					if err != nil {
						return err
					}
					s.loggedIn(out.Email, out.Token)
					if err := s.save(); err != nil {
						return err
					}
					fmt.Printf("logged in as %s\n", out.Email)
					return nil
				},
			},
			{
				Name:  "whoami",
				Usage: "Show current authenticated user",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withGame(func(game gameClient, s *session) error {
						out, err := game.WhoAmI(ctx)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						rows := [][2]string{{"id", fmt.Sprint(out.ID)}, {"email", out.Email}, {"transport", s.Transport}}
						if s.Character != "" {
							rows = append(rows, [2]string{"character", fmt.Sprintf("%s (giorno %d, %s)", s.Character, s.Day, s.Time)})
						}
						printKV(rows)
						return nil
					})
				},
			},
			{
				Name:  "logout",
				Usage: "Forget the stored CLI token",
				Action: func(ctx context.Context, c *cli.Command) error {
					err := withGame(func(game gameClient, s *session) error {
						if s.Token != "" {
							if err := game.Logout(ctx); err != nil {
								return err
							}
						}
						s.loggedOut()
						return nil
					})
					if err != nil {
						return err
					}
					fmt.Println("logged out")
					return nil
				},
			},
		},
	}
}

func characterCommand() *cli.Command {
	return &cli.Command{
		Name:  "character",
		Usage: "Character commands",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create the active character",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "personality", Value: string(domain.PersonalityAudace), Usage: "audace, ribelle or carismatico"},
					&cli.StringFlag{Name: "look", Value: string(domain.LookCasual), Usage: "casual, sportivo or firmato"},
					&cli.IntFlag{Name: "avatar", Value: 1, Usage: "avatar index 1..5"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withGame(func(game gameClient, s *session) error {
						out, err := game.CreateCharacter(ctx, application.CreateCharacterInput{
							Name:        c.String("name"),
							Personality: domain.Personality(c.String("personality")),
							Look:        domain.Look(c.String("look")),
							Avatar:      int(c.Int("avatar")),
						})
						if err != nil {
							return err
						}
						s.Character = out.Name
						if c.Bool("json") {
							return printJSON(out)
						}
						printCharacter(&out)
						return nil
					})
				},
			},
		},
	}
}

func gameCommand() *cli.Command {
	return &cli.Command{
		Name:  "game",
		Usage: "Play the game",
		Commands: []*cli.Command{
			{
				Name:  "state",
				Usage: "Show clock, character and available activities",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withGame(func(game gameClient, s *session) error {
						out, err := game.State(ctx)
						if err != nil {
							return err
						}
						s.observe(out.Clock, out.Character)
						if out.Character == nil {
							s.Character = ""
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printGameState(out)
						return nil
					})
				},
			},
			{
				Name:  "activity",
				Usage: "Perform an activity by id or title",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "id", Usage: "activity id"},
					&cli.StringFlag{Name: "title", Usage: "activity title, e.g. Palestra"},
					&cli.BoolFlag{Name: "subs", Usage: "list sub-activities instead of performing"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withGame(func(game gameClient, s *session) error {
						id := uint(c.Uint("id"))
						if id == 0 {
							if c.String("title") == "" {
								return errors.New("either --id or --title is required")
							}
							activity, err := game.FindActivity(ctx, c.String("title"))
							if err != nil {
								return err
							}
							id = activity.ID
						}
						if c.Bool("subs") {
							subs, err := game.SubActivities(ctx, id)
							if err != nil {
								return err
							}
							if c.Bool("json") {
								return printJSON(subs)
							}
							printActivities(subs)
							return nil
						}
						out, err := game.Perform(ctx, id)
						if err != nil {
							return err
						}
						s.observe(out.Clock, nil)
						if c.Bool("json") {
							return printJSON(out)
						}
						printActivityResult(out)
						return nil
					})
				},
			},
			{
				Name:  "advance",
				Usage: "Advance the clock by 1..12 hours",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "hours", Value: 1},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withGame(func(game gameClient, s *session) error {
						out, err := game.Advance(ctx, int(c.Int("hours")))
						if err != nil {
							return err
						}
						s.observe(out.Clock, nil)
						if c.Bool("json") {
							return printJSON(out)
						}
						fmt.Println(out.Message)
						printClock(out.Clock)
						return nil
					})
				},
			},
			{
				Name:  "reset",
				Usage: "Delete the character and restart the clock",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withGame(func(game gameClient, s *session) error {
						out, err := game.Reset(ctx)
						if err != nil {
							return err
						}
						s.observe(out.Clock, nil)
						s.Character = ""
						if c.Bool("json") {
							return printJSON(out)
						}
						fmt.Println(out.Message)
						printClock(out.Clock)
						return nil
					})
				},
			},
		},
	}
}

func shopCommand() *cli.Command {
	return &cli.Command{
		Name:  "shop",
		Usage: "Browse and buy items",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List shop items",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withGame(func(game gameClient, _ *session) error {
						out, err := game.Shop(ctx)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printShopItems(out)
						return nil
					})
				},
			},
			{
				Name:  "buy",
				Usage: "Buy an item",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "item", Required: true, Usage: "item id"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withGame(func(game gameClient, _ *session) error {
						out, err := game.Buy(ctx, uint(c.Uint("item")))
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printPurchase(out)
						return nil
					})
				},
			},
		},
	}
}

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Audit log",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent audit records",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 50},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withGame(func(game gameClient, _ *session) error {
						out, err := game.Audit(ctx, int(c.Int("limit")))
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printAuditRecords(out)
						return nil
					})
				},
			},
		},
	}
}
