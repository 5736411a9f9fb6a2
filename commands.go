package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/config"
	"github.com/mesa-digital/restaurant-app/database"
	"github.com/mesa-digital/restaurant-app/kds"
	"github.com/mesa-digital/restaurant-app/middlewares"
	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/router"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/mesa-digital/restaurant-app/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// bootstrap loads the configuration, opens the store and migrates it.
func bootstrap(ctx context.Context) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	utils.InitLogger(cfg.LogLevel)
	if cfg.UsingDevSecret() {
		utils.ErrorLogger.Warn("SESSION_SECRET not set, using the development secret")
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	if cfg.SuperAdmin.Enabled() {
		if _, err := database.EnsureSuperAdmin(ctx, db, cfg.SuperAdmin.Name, cfg.SuperAdmin.Email, cfg.SuperAdmin.Password, cfg.BcryptCost); err != nil {
			return nil, nil, fmt.Errorf("bootstrap super admin: %w", err)
		}
	}
	return cfg, db, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, db, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			if cfg.GinMode == gin.ReleaseMode {
				gin.SetMode(gin.ReleaseMode)
			}

			store := utils.NewSessionStore(cfg.SessionTTL)
			store.StartJanitor(ctx, 10*time.Minute)

			accessLog := services.NewAccessLogger(db, 256)
			accessLog.Start()
			defer accessLog.Stop()

			r, err := router.SetupRouter(router.Options{
				DB:            db,
				Sessions:      &middlewares.Sessions{Store: store, Secret: []byte(cfg.SessionSecret)},
				Hub:           kds.NewHub(kds.DefaultBuffer),
				AccessLog:     accessLog,
				BcryptCost:    cfg.BcryptCost,
				PublicBaseURL: cfg.PublicBaseURL,
				CORSOrigin:    cfg.CORSOrigin,
				LoginPerMin:   cfg.LoginPerMin,
			})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				utils.InfoLogger.Infof("Listening on port %s", cfg.Port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			utils.InfoLogger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and the super admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := bootstrap(cmd.Context())
			return err
		},
	}
}

func seedDemoCmd() *cobra.Command {
	var (
		adminEmail    string
		adminPassword string
	)
	cmd := &cobra.Command{
		Use:   "seed-demo",
		Short: "Provision a demo restaurant with tables and a small menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, db, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			return seedDemo(ctx, db, cfg.BcryptCost, adminEmail, adminPassword)
		},
	}
	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@restaurante.com", "email of the demo admin")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "admin123", "password of the demo admin")
	return cmd
}

func seedDemo(ctx context.Context, db *gorm.DB, cost int, adminEmail, adminPassword string) error {
	tenantID, err := services.NewTenantService(db, cost).CreateTenant(ctx, services.CreateTenantInput{
		Name:          "Restaurante Principal",
		Email:         "contato@restaurante.com",
		AdminName:     "Administrador",
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	})
	if err != nil {
		return err
	}

	catalog := services.NewCatalogService(db)
	menu := []struct {
		category string
		products []services.CreateProductInput
	}{
		{"Pratos", []services.CreateProductInput{
			{Name: "Feijoada", Price: decimal.RequireFromString("42.00"), Type: models.ProductFood, Featured: true, PrepTimeMinutes: 25},
			{Name: "Risoto de Cogumelos", Price: decimal.RequireFromString("38.50"), Type: models.ProductFood, PrepTimeMinutes: 20},
		}},
		{"Bebidas", []services.CreateProductInput{
			{Name: "Suco de Laranja", Price: decimal.RequireFromString("8.00"), Type: models.ProductDrink, PrepTimeMinutes: 5},
			{Name: "Agua Mineral", Price: decimal.RequireFromString("4.50"), Type: models.ProductDrink},
		}},
	}
	for i, section := range menu {
		category, err := catalog.CreateCategory(ctx, tenantID, services.CreateCategoryInput{Name: section.category, DisplayOrder: i + 1})
		if err != nil {
			return err
		}
		for _, p := range section.products {
			p.CategoryID = category.ID
			if _, err := catalog.CreateProduct(ctx, tenantID, p); err != nil {
				return err
			}
		}
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"admin":     adminEmail,
	}).Info("Demo restaurant ready")
	return nil
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a JSON document into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, db, err := bootstrap(ctx)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := database.ReadDocument(f)
			if err != nil {
				return err
			}
			res, err := database.Import(ctx, db, doc)
			if err != nil {
				var appErr *utils.AppError
				if errors.As(err, &appErr) {
					for field, detail := range appErr.Fields {
						utils.ErrorLogger.Errorf("%s: %s", field, detail)
					}
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d tenants, %d users, %d tables, %d orders\n", res.Tenants, res.Users, res.Tables, res.Orders)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the store as a JSON document",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, db, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			doc, err := database.Export(ctx, db)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return database.WriteDocument(w, doc)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")
	return cmd
}
