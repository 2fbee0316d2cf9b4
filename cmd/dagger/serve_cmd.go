package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dd0wney/nodesel-dagger/pkg/config"
	"github.com/dd0wney/nodesel-dagger/pkg/health"
	"github.com/dd0wney/nodesel-dagger/pkg/logging"
	"github.com/dd0wney/nodesel-dagger/pkg/policy"
	"github.com/dd0wney/nodesel-dagger/pkg/scoring"
	"github.com/dd0wney/nodesel-dagger/pkg/server"
)

type serveCmdConfig struct {
	*rootCmdConfig
	address     string
	transport   string
	metricsAddr string
	policyDir   string
	preload     int
	latest      bool
}

func serveCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &serveCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve node scores to the solver",
		Long: `Answer scoring requests on a request/reply socket. Each request names the
policy iteration to use; the server loads it when the id changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.applyDefaults()
			if err := config.Validate(); err != nil {
				return err
			}
			return config.run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.address, "address", "a", "", "socket address to listen on (default from config)")
	cmd.Flags().StringVar(&config.transport, "transport", "", "socket transport, nng or zmq (default from config)")
	cmd.Flags().StringVar(&config.metricsAddr, "metrics-addr", "", "serve /metrics, /healthz and /readyz on this address")
	cmd.Flags().StringVar(&config.policyDir, "policy-dir", "", "load policies from this directory instead of the configured store")
	cmd.Flags().IntVar(&config.preload, "policy", -1, "policy iteration to load before the first request")
	cmd.Flags().BoolVar(&config.latest, "latest", false, "load the newest stored policy before the first request and on SIGHUP")
	return cmd
}

func (c *serveCmdConfig) applyDefaults() {
	s := c.cfg.Scoring
	if c.address == "" {
		c.address = s.Address
	}
	if c.transport == "" {
		c.transport = s.Transport
	}
	if c.metricsAddr == "" {
		c.metricsAddr = s.MetricsAddr
	}
}

// Validate checks the flags once defaults are applied.
func (c *serveCmdConfig) Validate() error {
	if c.address == "" {
		return fmt.Errorf("a listen address is required")
	}
	if c.latest && c.preload >= 0 {
		return fmt.Errorf("--policy and --latest are mutually exclusive")
	}
	return nil
}

func (c *serveCmdConfig) store(ctx context.Context) (policy.Store, error) {
	storeCfg := c.cfg.Scoring.Store
	if c.policyDir != "" {
		storeCfg = config.StoreConfig{Kind: "dir", Dir: c.policyDir}
	}
	return storeCfg.Open(ctx)
}

func (c *serveCmdConfig) run(ctx context.Context) error {
	store, err := c.store(ctx)
	if err != nil {
		return fmt.Errorf("open policy store: %w", err)
	}
	factory, err := scoring.NewSocketFactory(c.transport)
	if err != nil {
		return err
	}
	srv, err := scoring.NewServer(factory, c.address, store,
		scoring.WithLogger(c.logger), scoring.WithMetrics(c.metrics))
	if err != nil {
		return err
	}
	defer srv.Close()

	switch {
	case c.latest:
		if _, err := srv.PreloadLatest(ctx); err != nil && !errors.Is(err, policy.ErrNotFound) {
			return fmt.Errorf("preload latest policy: %w", err)
		}
	case c.preload >= 0:
		if err := srv.Preload(ctx, c.preload); err != nil {
			return fmt.Errorf("preload policy %d: %w", c.preload, err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	if c.metricsAddr != "" {
		ops := c.opsServer(srv, store)
		if c.latest {
			ops.SetReloadFunc(func(ctx context.Context) error {
				_, err := srv.PreloadLatest(ctx)
				return err
			})
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := ops.Run(ctx); err != nil {
				errCh <- err
				cancel()
			}
		}()
		go func() {
			defer wg.Done()
			ops.WatchReload(ctx)
		}()
	}

	c.logger.Info("serving",
		logging.String("address", c.address),
		logging.String("transport", c.transport),
		logging.PolicyID(srv.PolicyID()))
	serveErr := srv.Serve(ctx)
	cancel()
	wg.Wait()

	select {
	case err := <-errCh:
		return errors.Join(serveErr, err)
	default:
		return serveErr
	}
}

func (c *serveCmdConfig) opsServer(srv *scoring.Server, store policy.Store) *server.GracefulServer {
	hc := health.NewHealthChecker()
	hc.RegisterLivenessCheck("store", health.StoreCheck(store.Latest, isNotFound, c.cfg.Scoring.Timeout))
	hc.RegisterReadinessCheck("policy", health.PolicyCheck(srv.PolicyID))

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.metrics.Handler())
	mux.Handle("/healthz", hc.LivenessHandler())
	mux.Handle("/readyz", hc.ReadinessHandler())
	return server.NewGracefulServer(c.metricsAddr, mux, server.WithLogger(c.logger))
}

func isNotFound(err error) bool {
	return errors.Is(err, policy.ErrNotFound)
}
