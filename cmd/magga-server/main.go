package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pvnkmrksk/magga/pkg/kv"
	"github.com/pvnkmrksk/magga/pkg/server/rest"
	"github.com/pvnkmrksk/magga/pkg/server/rest/service"
)

var (
	listenAddr = flag.String("listenaddr", ":5000", "server listen address")
	cacheDir   = flag.String("cachedir", "./magga-cache", "layout cache directory, empty disables the cache")
)

func main() {
	flag.Parse()

	logger := log.Default()

	var cache *kv.KVDB
	if *cacheDir != "" {
		db, err := badger.Open(badger.DefaultOptions(*cacheDir).WithLogger(nil))
		if err != nil {
			logger.Error("opening layout cache", "err", err)
			os.Exit(1)
		}
		cache = kv.NewKVDB(db)
		defer cache.Close()
	}

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(rest.PromeHttpMiddleware(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	layoutSvc := service.NewLayoutService(cache, logger)
	rest.LayoutRouter(r, layoutSvc)

	fmt.Printf("\nmagga layout server ready at %s\n", *listenAddr)

	if err := http.ListenAndServe(*listenAddr, r); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
