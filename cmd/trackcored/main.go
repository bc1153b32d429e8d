// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Command trackcored runs the track-asset coordination core: it maintains
// synchronized views of every mounted player's loaded-track assets and
// exposes them over a small control/status HTTP API.
//
// # Architecture
//
// Startup wires components in this order:
//
//  1. Configuration: koanf-layered load (defaults -> YAML -> environment).
//  2. Logging: zerolog initialized from the loaded configuration.
//  3. Core components: hot cache, album-art LRU, position extrapolator,
//     resolver, acquirer, per-asset-kind finders.
//  4. Auth/authz: JWT manager, bcrypt operator credential, casbin enforcer.
//  5. Supervisor tree: acquisition/resolution/control tiers.
//  6. HTTP server: the control/status API under /api/v1.
//
// The file-fetch transport is a configuration seam (see fileFetcher below)
// rather than a built-in network client; the real NFS/dbserver wire
// protocol is outside this core's scope.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/deepspin/trackcore/internal/acquirer"
	"github.com/deepspin/trackcore/internal/api"
	"github.com/deepspin/trackcore/internal/audit"
	"github.com/deepspin/trackcore/internal/auth"
	"github.com/deepspin/trackcore/internal/authz"
	"github.com/deepspin/trackcore/internal/cache"
	"github.com/deepspin/trackcore/internal/config"
	"github.com/deepspin/trackcore/internal/dbserver"
	"github.com/deepspin/trackcore/internal/finders"
	"github.com/deepspin/trackcore/internal/logging"
	"github.com/deepspin/trackcore/internal/model"
	"github.com/deepspin/trackcore/internal/position"
	"github.com/deepspin/trackcore/internal/resolver"
	"github.com/deepspin/trackcore/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logging.Info().Msg("starting trackcored")

	hot := cache.NewHotCache()
	art, err := cache.NewArtLRU(cfg.Cache.LRUCapacity)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create album art LRU")
	}
	extrapolator := position.New()

	preferredWaveform, err := model.ParseWaveformVariant(cfg.Acquirer.PreferredWaveformVariant)
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid preferred waveform variant")
	}

	registry := resolver.NewRegistry()
	dbClient := dbserver.NewClient(dbDialer{})
	res := resolver.New(hot, art, registry, dbClient)
	res.SetPassive(cfg.Acquirer.PassiveMode)

	scratch, err := acquirer.NewScratchDir(cfg.Acquirer.ScratchDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to prepare scratch directory")
	}
	acq := acquirer.New(scratch, fileFetcher{}, cfg.Acquirer.RetryLimit, stubDatabaseParser, stubAnlzParser)
	defer func() {
		if err := acq.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing acquirer")
		}
	}()
	registryBridge := acquirer.NewRegistryBridge(acq, registry, preferredWaveform)
	defer registryBridge.Close()

	bus := finders.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing finder bus")
		}
	}()

	metadataFinder := finders.New(model.AssetMetadata, bus, hot, res)
	albumArtFinder := finders.New(model.AssetAlbumArt, bus, hot, res)
	beatGridFinder := finders.New(model.AssetBeatGrid, bus, hot, res)
	cueListFinder := finders.New(model.AssetCueList, bus, hot, res)
	waveformPreviewFinder := finders.New(model.AssetWaveformPreview, bus, hot, res)
	waveformDetailFinder := finders.New(model.AssetWaveformDetail, bus, hot, res)
	tagFinder := finders.NewTagFinder(bus, hot, res)

	// The metadata finder is the only one that triggers a slot database
	// acquisition; every other finder answers off the hot cache once the
	// metadata finder has already resolved a track.
	metadataFinder.BindAcquirer(acq)

	lifecycle := finders.NewLifecycleBus()
	metadataFinder.BindLifecycle(lifecycle, "metadata", "")
	albumArtFinder.BindLifecycle(lifecycle, "album-art", "metadata")
	beatGridFinder.BindLifecycle(lifecycle, "beat-grid", "metadata")
	cueListFinder.BindLifecycle(lifecycle, "cue-list", "metadata")
	waveformPreviewFinder.BindLifecycle(lifecycle, "waveform-preview", "metadata")
	waveformDetailFinder.BindLifecycle(lifecycle, "waveform-detail", "metadata")
	tagFinder.BindLifecycle(lifecycle, "tags", "metadata")

	jwtManager, err := auth.NewManager(cfg.Security.JWTSecret, cfg.Security.SessionTimeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create JWT manager")
	}
	authenticator := auth.NewAuthenticator(jwtManager, cfg.Security.AdminUsername, cfg.Security.AdminPasswordHash)
	authMW := auth.NewMiddleware(jwtManager)

	enforcer, err := authz.NewEnforcer(cfg.Security.CasbinModel, cfg.Security.CasbinPolicy)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load casbin policy")
	}
	authzMW := authz.NewMiddleware(enforcer)

	auditStore := audit.NewMemoryStore(1000)
	auditLogger := audit.NewLogger(auditStore, 256)
	defer auditLogger.Close()

	slogLogger := logging.NewSlogLogger()
	tree := supervisor.NewTree(slogLogger, supervisor.DefaultTreeConfig())

	tree.AddResolutionService(supervisor.Named("finder.metadata", metadataFinder))
	tree.AddResolutionService(supervisor.Named("finder.album-art", albumArtFinder))
	tree.AddResolutionService(supervisor.Named("finder.beat-grid", beatGridFinder))
	tree.AddResolutionService(supervisor.Named("finder.cue-list", cueListFinder))
	tree.AddResolutionService(supervisor.Named("finder.waveform-preview", waveformPreviewFinder))
	tree.AddResolutionService(supervisor.Named("finder.waveform-detail", waveformDetailFinder))
	tree.AddResolutionService(supervisor.Named("finder.tags", tagFinder))
	tree.AddResolutionService(supervisor.Named("metrics-reporter", supervisor.NewMetricsReporter(hot, art, extrapolator, 5*time.Second)))
	tree.AddAcquisitionService(supervisor.Named("acquirer", acq))

	handler := api.NewHandler(tree, hot, art, extrapolator, res, acq, authenticator, auditLogger)
	apiRouter := api.NewRouter(handler, authMW, authzMW, api.RouterConfig{
		RateLimitRequests: cfg.Security.RateLimitRequests,
		RateLimitWindow:   cfg.Security.RateLimitWindow,
	})

	topRouter := chi.NewRouter()
	topRouter.Mount("/api/v1", apiRouter)

	httpSrv := &http.Server{
		Addr:         cfg.Server.Host + ":" + httpPort(cfg.Server.Port),
		Handler:      topRouter,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}
	tree.AddControlService(supervisor.Named("http-api", &httpService{srv: httpSrv}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", httpSrv.Addr).Msg("serving control API")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("supervisor tree exited with error")
	}
	logging.Info().Msg("trackcored shut down cleanly")
}

func httpPort(port int) string {
	return strconv.Itoa(port)
}

// errFileFetcherUnconfigured is returned by the placeholder fileFetcher
// below for every fetch attempt.
var errFileFetcherUnconfigured = errors.New("trackcored: no FileFetcher configured for this deployment")

// fileFetcher is a placeholder FileFetcher: the dbserver/NFS wire protocol
// is a deployment-specific transport seam, not something this core
// implements. A real deployment supplies its own FileFetcher.
type fileFetcher struct{}

func (fileFetcher) Fetch(ctx context.Context, player int, remotePath, localPath string) error {
	return errFileFetcherUnconfigured
}

// errDialerUnconfigured is returned by the placeholder dbDialer below for
// every dial attempt.
var errDialerUnconfigured = errors.New("trackcored: no dbserver Dialer configured for this deployment")

// dbDialer is a placeholder dbserver.Dialer: establishing the real
// connection to a player's dbserver port (port discovery, the greeting
// handshake) is a deployment-specific transport seam, like fileFetcher
// above. A real deployment supplies its own Dialer.
type dbDialer struct{}

func (dbDialer) Dial(ctx context.Context, player int) (net.Conn, error) {
	return nil, errDialerUnconfigured
}

// errParserUnconfigured is returned by the placeholder parsers below.
var errParserUnconfigured = errors.New("trackcored: no database/analysis file parser configured for this deployment")

// stubDatabaseParser and stubAnlzParser are placeholder acquirer.DatabaseParser
// and acquirer.AnlzParser implementations: parsing rekordbox's binary
// export.pdb and analysis file formats is outside this core's scope, same
// as the transport seams above. A real deployment supplies its own parsers.
func stubDatabaseParser(path string) (acquirer.Database, error) {
	return nil, errParserUnconfigured
}

func stubAnlzParser(path string) (acquirer.AnlzFile, error) {
	return nil, errParserUnconfigured
}

// httpService adapts *http.Server to the supervisor tree's ContextService
// shape: Serve blocks until ctx is canceled, then shuts down gracefully.
type httpService struct {
	srv *http.Server
}

func (h *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return h.srv.Shutdown(shutdownCtx)
	}
}
