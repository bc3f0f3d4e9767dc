package cmd

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"recall/internal/apihandlers"
)

var (
	serveAddr string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run Recall as an HTTP API server",
	Long: `Starts an HTTP server exposing hybrid search and query history via a
RESTful API. Authentication is delegated to an upstream proxy that sets the
X-Owner-ID header.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		router := gin.Default()
		apiHandler := apihandlers.NewAPIHandler(appInstance)

		v1 := router.Group("/api/v1")
		{
			v1.GET("/search", apiHandler.SearchHandler)
			v1.GET("/history", apiHandler.HistoryHandler)
		}

		router.GET("/health", func(c *gin.Context) {
			if err := appInstance.PrimaryStore.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		addr, port := serveAddr, servePort
		if !cmd.Flags().Changed("addr") && appInstance.Config.Server.Address != "" {
			addr = appInstance.Config.Server.Address
		}
		if !cmd.Flags().Changed("port") && appInstance.Config.Server.Port != "" {
			port = appInstance.Config.Server.Port
		}

		listenAddr := fmt.Sprintf("%s:%s", addr, port)
		log.Infof("Starting Recall API server on http://%s", listenAddr)
		return router.Run(listenAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1", "Listen address")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Listen port")
	rootCmd.AddCommand(serveCmd)
}
