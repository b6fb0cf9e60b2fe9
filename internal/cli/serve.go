package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"study-ai/internal/api"
)

func runServe(cmd *Command) func(ctx context.Context, args []string, s streams) int {
	return func(ctx context.Context, args []string, s streams) int {
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		port := flags.Int("port", 0, "Port to listen on (default from PORT)")
		if _, code, ok := parseArgs(cmd, flags, args, 0, s); !ok {
			return code
		}

		return withApp(s, func(a *app) int {
			var ingester api.Ingester
			if svc, err := a.ingestion(); err != nil {
				a.log.Warn("uploads disabled", zap.Error(err))
			} else {
				ingester = svc
			}
			server := api.NewServer(a.topics, a.attempts, ingester, a.log, api.Options{CORSOrigins: a.cfg.CORSOrigins})

			listen := a.cfg.Port
			if *port > 0 {
				listen = *port
			}
			srv := &http.Server{
				Addr:         ":" + strconv.Itoa(listen),
				Handler:      server.Handler(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("listening", zap.String("addr", srv.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					fmt.Fprintf(s.err, "Error: server failed: %v\n", err)
					return ExitError
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					a.log.Error("shutdown", zap.Error(err))
				}
			}
			server.Wait()
			a.log.Info("server stopped")
			return ExitOK
		})
	}
}
