package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"northtrade/internal/cache"
	"northtrade/internal/config"
	"northtrade/internal/db"
	"northtrade/internal/logging"
	"northtrade/internal/migrate"
	"northtrade/internal/query"
	"northtrade/internal/repo"
	"northtrade/internal/seed"
	"northtrade/internal/server"
	"northtrade/internal/tasks"
)

var rootCmd = &cobra.Command{
	Use:   "nt",
	Short: "Northtrade CLI",
	Long: `Northtrade serves a small trading dataset over HTTP and demonstrates
query strategies, cache-aside reads and background tasks against it.
The workspace is a .northtrade directory holding only the SQLite database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("NORTHTRADE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(productCmd())
	rootCmd.AddCommand(categoryCmd())
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var withSeed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if basePath != "" {
				cfg.Server.BasePath = basePath
			}
			if secret := viper.GetString("jwt-secret"); secret != "" {
				cfg.Auth.JWTSecret = secret
			}

			logger := logging.New()
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn.DB); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			if withSeed {
				if err := seed.Run(cmd.Context(), r); err != nil {
					return err
				}
			}

			dispatcher := tasks.NewDispatcher(tasks.Config{
				Workers: cfg.Tasks.Workers,
				Logger:  logger,
			})
			tasks.RegisterBuiltins(dispatcher, cfg.ReportLatency(), cfg.ImageLatency())
			defer dispatcher.Close()

			handler, err := server.New(server.Config{
				Query:        query.New(conn),
				Dispatcher:   dispatcher,
				HeavyCache:   cache.NewHeavy(cfg.HeavyTTL()),
				ProductCache: cache.NewProducts(cfg.ProductsTTL()),
				HeavyLatency: cfg.HeavyLatency(),
				BasePath:     cfg.Server.BasePath,
				Auth:         server.AuthConfig{JWTSecret: cfg.Auth.JWTSecret},
				Logger:       logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("serving", "addr", cfg.Server.Addr, "base_path", cfg.Server.BasePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default from config)")
	cmd.Flags().BoolVar(&withSeed, "seed", false, "seed sample data before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				fmt.Println("migrations applied")
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample trading dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := seed.Run(ctx, r); err != nil {
					return err
				}
				fmt.Println("sample data loaded")
				return nil
			})
		},
	}
}

func productCmd() *cobra.Command {
	prd := &cobra.Command{Use: "product", Short: "Inspect products"}
	prd.AddCommand(productListCmd())
	return prd
}

func productListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				products, err := r.ListProducts(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(products)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Unit Price", "Quantity Per Unit", "Discontinued"})
				for _, p := range products {
					tw.AppendRow(table.Row{p.ID, p.Name, p.UnitPrice.StringFixed(2), p.QuantityPerUnit, p.Discontinued})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "max rows")
	return cmd
}

func categoryCmd() *cobra.Command {
	cat := &cobra.Command{Use: "category", Short: "Inspect categories"}
	cat.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				categories, err := r.ListCategories(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(categories)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Description"})
				for _, c := range categories {
					tw.AppendRow(table.Row{c.ID, c.Name, c.Description})
				}
				tw.Render()
				return nil
			})
		},
	})
	return cat
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn.DB); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
