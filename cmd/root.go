package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"recall/internal/app"
	"recall/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Recall CLI",
	Long:  `Recall captures personal notes and files and retrieves them with hybrid semantic and keyword search.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		appInstance, err := app.NewApp(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appInstance, err := GetAppFromContext(cmd.Context()); err == nil {
			appInstance.Close()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type contextKey string

const appKey contextKey = "app"

// GetAppFromContext retrieves the app instance stored by PersistentPreRunE.
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check database connectivity and other diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		appInstance, err := GetAppFromContext(ctx)
		if err != nil {
			return err
		}

		fmt.Println("Checking primary store connectivity...")
		if err := appInstance.PrimaryStore.Ping(ctx); err != nil {
			return fmt.Errorf("primary store ping failed: %w", err)
		}
		fmt.Println("Checking vector index connectivity...")
		if err := appInstance.VectorIndex.Ping(ctx); err != nil {
			return fmt.Errorf("vector index ping failed: %w", err)
		}
		fmt.Printf("All stores reachable. Embedding provider: %s (%s)\n",
			appInstance.Embedding.Name(), appInstance.Embedding.ModelName())
		return nil
	},
}
