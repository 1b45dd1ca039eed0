// Package cmd implements the newshub command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/oshoup521/NewsHub/cmd/common"
	"github.com/oshoup521/NewsHub/cmd/ingest"
	"github.com/oshoup521/NewsHub/cmd/migrate"
	"github.com/oshoup521/NewsHub/cmd/retrofit"
	"github.com/oshoup521/NewsHub/internal/config"
)

// Version is stamped at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// verbose switches logging to debug level.
	verbose bool

	v = config.NewViper()

	rootCmd = &cobra.Command{
		Use:           "newshub",
		Short:         "NewsHub feed ingestion",
		Long:          `Fetch RSS and Atom feeds into the NewsHub article store and backfill article images.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command. SIGINT and SIGTERM cancel the running command.
func Execute() error {
	// Load .env file early so environment variables are available
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yml)")
	flags.String("db", "", "database DSN, a file path for sqlite3 (default \"newshub.sqlite\")")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := v.BindPFlag("database.dsn", flags.Lookup("db")); err != nil {
		panic(fmt.Sprintf("bind db flag: %v", err))
	}

	load := func() (*common.CommandDeps, error) {
		return common.NewCommandDeps(common.Options{
			Viper:      v,
			ConfigFile: cfgFile,
			Verbose:    verbose,
		})
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newshub version %s\n", Version)
		},
	})

	rootCmd.AddCommand(ingest.Command(load))
	rootCmd.AddCommand(retrofit.Command(load))
	rootCmd.AddCommand(migrate.Command(load))
}
