package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/arvarik/linq-go/linq"
)

func newWebhookCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Receive, verify and send webhook deliveries",
	}
	cmd.AddCommand(
		newWebhookServeCommand(a),
		newWebhookVerifyCommand(a),
		newWebhookSendTestCommand(a),
	)
	return cmd
}

func newWebhookServeCommand(a *app) *cobra.Command {
	var (
		addr     string
		workers  int
		metrics  bool
		markRead bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a webhook receiver that verifies deliveries",
		Long: `serve listens for Linq webhook deliveries, verifies their signature,
acknowledges them and hands the events to a bounded pool of workers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Webhook
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if cfg.SigningSecret == "" {
				return errors.New("a signing secret is required (LINQ_WEBHOOK_SECRET or webhook.signing_secret)")
			}

			reg := prometheus.NewRegistry()
			proc := &eventProcessor{logger: a.logger}
			if markRead {
				client, err := a.client(linq.WithMetrics(reg))
				if err != nil {
					return err
				}
				proc.client = client
			}

			r := newReceiver(cfg, proc, reg, a.logger)
			mux := http.NewServeMux()
			mux.Handle(cfg.Path, r)
			if metrics {
				mux.Handle(cfg.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, &http.Server{
				Addr:              cfg.Addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}, r, cfg.Workers, a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of event workers (default from config, 5)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Expose Prometheus metrics")
	cmd.Flags().BoolVar(&markRead, "mark-read", false, "Mark chats as read when a message is received")
	return cmd
}

// serve runs the HTTP server and the workers until ctx is cancelled or one
// of them fails.
func serve(ctx context.Context, srv *http.Server, r *receiver, workers int, logger logrus.FieldLogger) error {
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			r.work(gctx)
			return nil
		})
	}

	g.Go(func() error {
		logger.WithField("addr", srv.Addr).Info("webhook receiver listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
