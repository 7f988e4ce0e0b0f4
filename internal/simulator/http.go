package simulator

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/muurk/dmxbox/internal/deviceconfig"
	"github.com/muurk/dmxbox/internal/livechannel"
	"github.com/muurk/dmxbox/internal/logging"
)

// maxConfigBody matches the receive buffer of the firmware's JSON handler.
const maxConfigBody = 4096

// Handler returns the device's HTTP surface: the config endpoint and the
// live channel.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(allowOrigin)

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(20 * time.Second))
		api.Get(deviceconfig.ConfigPath, s.getConfig)
		api.Put(deviceconfig.ConfigPath, s.putConfig)
		api.Options(deviceconfig.ConfigPath, preflight)
	})

	// no timeout: the socket lives as long as the client keeps it
	r.Get(livechannel.Path, s.serveWebSocket)
	return r
}

func (s *Server) getConfig(w http.ResponseWriter, _ *http.Request) {
	cfg := s.device.Config()
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	if err := enc.Encode(cfg); err != nil {
		logging.Error("Failed to encode config", zap.Error(err))
	}
}

func (s *Server) putConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBody+1))
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	if len(body) > maxConfigBody {
		http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
		return
	}

	cfg, err := deviceconfig.ParseWireConfig(body)
	if err != nil {
		logging.Warn("Rejected config document", zap.Error(err))
		http.Error(w, "Invalid config", http.StatusBadRequest)
		return
	}

	if err := s.device.Store(*cfg); err != nil {
		if errors.Is(err, ErrHostNameTooLong) {
			http.Error(w, "Hostname too long", http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logging.Info("Config stored",
		zap.String("hostname", cfg.HostName),
		zap.String("ap_ssid", cfg.AccessPoint.Name),
		zap.Bool("sta_enabled", cfg.Station.Enabled),
	)
	_, _ = io.WriteString(w, "Config was stored successfully")
}

func allowOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func preflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusNoContent)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.LogHTTPRequest(r.Method, r.URL.Path, ww.Status())
	})
}
