package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"

	"github.com/jaxs-ribs/arena-sub001/internal/control"
	"github.com/jaxs-ribs/arena-sub001/internal/scene"
	"github.com/jaxs-ribs/arena-sub001/internal/sim"
	"github.com/jaxs-ribs/arena-sub001/internal/stream"
	"github.com/jaxs-ribs/arena-sub001/internal/viz"
)

// serveScene steps the scene in real time and streams every frame to
// websocket clients until interrupted. Steps of zero runs forever.
func serveScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("controller") && cfg.Controller.Kind == "none" {
		cfg.Controller.Kind = "manual"
	}
	log := newLogger(cfg)

	hub := stream.NewHub(log, frameRate)
	defer hub.Close()
	exp, err := scene.New(cfg, log, sim.WithObserver(hub))
	if err != nil {
		return err
	}
	defer exp.Close()
	manual, _ := exp.Controller().(*control.Manual)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := &http.Server{Addr: addr, Handler: hub.Handler()}
	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	log.Infof("streaming %s on ws://%s/ws", cfg.Scene, addr)

	ticker := time.NewTicker(max(time.Duration(cfg.Dt*float64(time.Second)), time.Millisecond))
	defer ticker.Stop()
	paused := false
	for done := 0; cfg.Steps == 0 || done < cfg.Steps; {
		select {
		case <-ctx.Done():
			return shutdown(srv)
		case err := <-errc:
			return err
		case c := <-hub.Commands():
			switch c.Type {
			case stream.CommandPush:
				if manual != nil {
					manual.Push(mgl64.Vec3(c.Force))
				}
			case stream.CommandRelease:
				if manual != nil {
					manual.Release()
				}
			case stream.CommandReset:
				exp.Reset()
				done = 0
			case stream.CommandPause:
				paused = !paused
			default:
				log.Warnf("unknown command %q", c.Type)
			}
		case <-ticker.C:
			if paused {
				continue
			}
			if err := exp.Step(); err != nil {
				return err
			}
			done++
		}
	}
	log.Infof("finished %d ticks", cfg.Steps)
	return shutdown(srv)
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func watchScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("controller") && cfg.Controller.Kind == "none" {
		cfg.Controller.Kind = "manual"
	}

	exp, err := scene.New(cfg, quietLogger())
	if err != nil {
		return err
	}
	defer exp.Close()

	m := viz.NewModel(exp, frameRate, perFrame)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(viz.Model); ok && fm.Err() != nil {
		return fmt.Errorf("simulation stopped: %w", fm.Err())
	}
	return nil
}
