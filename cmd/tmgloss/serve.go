// Copyright 2026 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ianlewis/go-transmem"
	"github.com/ianlewis/go-transmem/internal/server"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "serve the HTTP API",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "addr",
			Usage: "listen on `ADDR` (default from configuration)",
		},
	},
	Action: serve,
}

func serve(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	if c.IsSet("addr") {
		e.cfg.Server.Addr = c.String("addr")
	}

	stores, err := e.openStores()
	if err != nil {
		return err
	}

	var p transmem.Provider
	if e.cfg.Provider.APIKey == "" {
		e.log.Warn().Msg("no provider API key configured; translation is disabled")
	} else {
		client, err := e.newProvider()
		if err != nil {
			return err
		}
		p = client
	}

	handler := server.New(stores, &server.Options{
		Provider:  p,
		Threshold: &e.cfg.Match.Threshold,
		Logger:    &e.log,
	})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", e.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %q: %w", e.cfg.Server.Addr, err)
	}

	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  e.cfg.Server.ReadTimeout,
		WriteTimeout: e.cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e.log.Info().Str("addr", ln.Addr().String()).Msg("serving")
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		e.log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	})

	//nolint:wrapcheck // errors are wrapped above.
	return g.Wait()
}
