package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"study-helper/internal/app"
	"study-helper/internal/bus"
	"study-helper/internal/coordinator"
	"study-helper/internal/httputil"
	"study-helper/internal/message"
)

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Log.Warn("close failed", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := deps.Coordinator.Install(ctx); err != nil {
		deps.Log.Error("install failed", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", deps.Config.Port),
		Handler:           routes(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Log.Info("background service listening", "addr", srv.Addr, "providers", deps.Coordinator.Providers())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Shut down on signal or server failure
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("background service stopped", "err", err)
	}
}

func routes(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log, app.RouterTimeout(deps.Config.RequestTimeout))

	r.Post("/api/messages", messagesHandler(deps))
	r.Post("/api/context-menu/clicks", menuClickHandler(deps))
	r.Get("/api/context-menus", menusHandler(deps))
	r.Get("/api/settings/{provider}", getSettingsHandler(deps))
	r.Put("/api/settings/{provider}", putSettingsHandler(deps))
	r.Post("/api/tabs/{tabID}/events", tabEventHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	return r
}

func messagesHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var env message.Envelope
		if err := httputil.DecodeJSON(r, &env); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		// Provider failures are results, not HTTP errors
		httputil.WriteJSON(w, http.StatusOK, deps.Coordinator.HandleMessage(r.Context(), env))
	}
}

func menuClickHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var click coordinator.MenuClick
		if err := httputil.DecodeJSON(r, &click); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		if err := bus.ValidateTabID(click.TabID); err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}
		if err := deps.Coordinator.OnMenuClick(r.Context(), click); err != nil {
			failDelivery(deps, w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func menusHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, deps.Menus.Items())
	}
}

func getSettingsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := providerParam(deps, w, r)
		if !ok {
			return
		}
		httputil.WriteJSON(w, http.StatusOK, deps.Coordinator.Settings(r.Context(), p))
	}
}

func putSettingsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := providerParam(deps, w, r)
		if !ok {
			return
		}
		var u coordinator.SettingsUpdate
		if err := httputil.DecodeJSON(r, &u); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		cfg, err := deps.Coordinator.UpdateSettings(r.Context(), p, u)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to save settings", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, cfg)
	}
}

func tabEventHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tabID := chi.URLParam(r, "tabID")
		if err := bus.ValidateTabID(tabID); err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}
		var ev message.Event
		if err := httputil.DecodeJSON(r, &ev); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		switch ev.Type {
		case message.TypeProcessSelection, message.TypeResponse:
		default:
			httputil.Fail(deps.Log, w, fmt.Sprintf("unsupported event type %q", ev.Type), nil, http.StatusBadRequest)
			return
		}
		if err := deps.Coordinator.SendToTab(r.Context(), tabID, ev); err != nil {
			failDelivery(deps, w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func providerParam(deps app.Deps, w http.ResponseWriter, r *http.Request) (message.Provider, bool) {
	p, err := message.ParseProvider(httputil.ParamLower(r, "provider"))
	if err != nil {
		httputil.Fail(deps.Log, w, err.Error(), err, http.StatusNotFound)
		return "", false
	}
	return p, true
}

func failDelivery(deps app.Deps, w http.ResponseWriter, err error) {
	if errors.Is(err, bus.ErrNoReceiver) {
		httputil.Fail(deps.Log, w, "no page listening on that tab", err, http.StatusNotFound)
		return
	}
	httputil.Fail(deps.Log, w, "failed to deliver to tab", err, http.StatusBadGateway)
}
