package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	authToken string
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "A CLI client for the DocChat service",
	Long: `A command-line interface for uploading PDFs to DocChat and asking questions
answered from your own documents.`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("DOCCHAT_SERVER", "http://localhost:8080"), "DocChat server base URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("DOCCHAT_TOKEN"), "bearer token returned by login")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newClient() *apiClient {
	return &apiClient{baseURL: serverURL, token: authToken}
}
