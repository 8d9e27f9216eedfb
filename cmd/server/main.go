package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	root := &cobra.Command{
		Use:          "social-publisher",
		Short:        "Publishes posts to connected social accounts",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
