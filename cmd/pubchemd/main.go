package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azer/logger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MysterionRise/chemical-similarity/datastore"
	"github.com/MysterionRise/chemical-similarity/extract"
	"github.com/MysterionRise/chemical-similarity/filters"
	"github.com/MysterionRise/chemical-similarity/httpapi"
	"github.com/MysterionRise/chemical-similarity/mirror"
	"github.com/MysterionRise/chemical-similarity/sync"
	"github.com/MysterionRise/chemical-similarity/version"
)

var log = logger.New("pubchemd")

func main() {
	rootCmd := &cobra.Command{
		Use:   "pubchemd",
		Short: "PubChem chemical similarity indexing daemon",
		Long: "pubchemd mirrors the PubChem compound dumps, indexes their " +
			"fingerprints into elasticsearch and serves similarity queries.",
		RunE: runDaemon,
	}

	rootCmd.PersistentFlags().String("data-dir", "", "pubchem mirror directory")
	_ = viper.BindPFlag("pubchem.dataDir", rootCmd.PersistentFlags().Lookup("data-dir"))

	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Mirror the PubChem compound dump and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return mirror.NewLoader().FullDownload(ctx)
		},
	}

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Index the already mirrored archives and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			if err := setupDatastore(ctx); err != nil {
				return err
			}
			filters.InitViper(ctx)

			return sync.InitialSync(ctx)
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check every mirrored archive against its md5 sidecar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return extract.VerifyAll(viper.GetString("pubchem.dataDir"))
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pubchemd %s\nbuilt %s by %s\n%s\n",
				version.GitCommitHash, version.BuildDate, version.BuiltBy, version.GoVersion)
		},
	}

	rootCmd.AddCommand(downloadCmd, extractCmd, verifyCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error("pubchemd failed", logger.Attrs{"err": err})
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	log.Info(" PubChem Daemon ", logger.Attrs{
		"commitHash": version.GitCommitHash,
		"buildDate":  version.BuildDate,
		"builtBy":    version.BuiltBy,
	})

	ctx, cancel := signalContext()
	defer cancel()

	if err := setupDatastore(ctx); err != nil {
		return err
	}

	filters.InitViper(ctx)

	datastore.AutoBulk.BeginTimedCommits(time.Minute)
	defer datastore.AutoBulk.EndTimedCommit()

	if viper.GetBool("pubchem.api.enabled") {
		go httpapi.Serve()
	}

	if err := mirror.NewLoader().FullDownload(ctx); err != nil {
		return err
	}

	if err := sync.InitialSync(ctx); err != nil {
		return err
	}

	log.Info("initial sync complete, waiting for new archives")
	<-ctx.Done()
	return nil
}

// setupDatastore provisions the pubchem index; a conflicting live mapping
// is an operator problem, not a transient one, so say so explicitly.
func setupDatastore(ctx context.Context) error {
	err := datastore.Setup(ctx)
	if errors.Is(err, datastore.ErrMappingConflict) {
		log.Error("the live index mapping conflicts with this build; "+
			"reindex or remove the index before restarting", logger.Attrs{"err": err})
	}
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
