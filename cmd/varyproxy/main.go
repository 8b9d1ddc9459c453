package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/varyproxy/varyproxy"
	"github.com/varyproxy/varyproxy/cache"
)

var (
	cfgFile     string
	verboseFlag bool
	instanceID  = uuid.New()
)

func main() {
	root := &cobra.Command{
		Use:   "varyproxy",
		Short: "A Varnish-style request-lifecycle reverse caching proxy",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./varyproxy.yaml)")
	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "trace-level logging")

	root.AddCommand(serveCmd(), debugCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging() {
	level := zerolog.InfoLevel
	if verboseFlag {
		level = zerolog.TraceLevel
	}
	log.Logger = log.Level(level).Output(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Str("instance", instanceID.String()).Logger()
}

func loadConfig(cmd *cobra.Command) (varyproxy.FileConfig, *viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("varyproxy")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	v.SetEnvPrefix("VARYPROXY")
	v.AutomaticEnv()
	v.BindPFlags(cmd.Flags())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return varyproxy.FileConfig{}, nil, err
		}
		log.Warn().Msg("no config file found, using flags and env vars only")
	}

	fc, err := varyproxy.LoadFileConfig(v)
	return fc, v, err
}

func serveCmd() *cobra.Command {
	var origin, listen, dbFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()

			fc, v, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			v.OnConfigChange(func(e fsnotify.Event) {
				log.Info().Str("file", e.Name).Msg("config file changed, restart to apply")
			})
			v.WatchConfig()

			engCfg, err := fc.ToEngineConfig()
			if err != nil {
				return err
			}
			dbFilename := fc.DBFile
			if dbFilename == "memory" {
				dbFilename = ""
			}
			engCfg.Cache = cache.NewSQLiteCache(dbFilename)
			engCfg.Logger = &log.Logger

			reg := prometheus.NewRegistry()
			engCfg.Registerer = reg

			eng := varyproxy.NewEngine(engCfg)

			go serveAdmin(fc.MetricsListen, reg)

			logMemStats()
			log.Info().Str("listen", fc.Listen).Str("origin", fc.Origin).Msg("starting varyproxy")
			return http.ListenAndServe(fc.Listen, eng)
		},
	}
	var rulesFile string
	cmd.Flags().StringVar(&origin, "origin", "", "origin URL to proxy to")
	cmd.Flags().StringVar(&listen, "listen", ":8080", "address to listen on")
	cmd.Flags().StringVar(&dbFile, "db_file", "cache.db", "cache database file ('memory' for in-memory)")
	cmd.Flags().StringVar(&rulesFile, "rules_file", "", "YAML file of per-path Cache-Control override rules")
	return cmd
}

func serveAdmin(addr string, reg *prometheus.Registry) {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/debug/xid", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, xid.New().String())
	})
	log.Info().Str("listen", addr).Msg("starting admin listener")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Error().Err(err).Msg("admin listener stopped")
	}
}

func logMemStats() {
	if vm, err := mem.VirtualMemory(); err == nil {
		log.Info().
			Str("total", humanize.Bytes(vm.Total)).
			Str("available", humanize.Bytes(vm.Available)).
			Msg("host memory")
	}
}

func debugCmd() *cobra.Command {
	debug := &cobra.Command{Use: "debug", Short: "Debug helpers, mirroring Varnish's debug.* CLI commands"}

	debug.AddCommand(&cobra.Command{
		Use:   "xid",
		Short: "Print a fresh request id",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(xid.New().String())
			return nil
		},
	})

	return debug
}
