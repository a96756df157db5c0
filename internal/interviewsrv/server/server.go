// Package server assembles the interview service: stores, AI gateway,
// question selector, feedback synthesizer, voice agent, and the session
// registry, mounted behind one chi router.
package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/prepstage/prepstage/internal/common/httpx"
	commonmiddleware "github.com/prepstage/prepstage/internal/common/middleware"
	"github.com/prepstage/prepstage/internal/interviewsrv/aigateway"
	"github.com/prepstage/prepstage/internal/interviewsrv/config"
	"github.com/prepstage/prepstage/internal/interviewsrv/feedback"
	"github.com/prepstage/prepstage/internal/interviewsrv/kvstore"
	"github.com/prepstage/prepstage/internal/interviewsrv/question"
	"github.com/prepstage/prepstage/internal/interviewsrv/session"
	"github.com/prepstage/prepstage/internal/interviewsrv/sessionstore"
	"github.com/prepstage/prepstage/internal/interviewsrv/voice"
)

const (
	ServerVersion = "0.2.0"
	APIVersion    = "v1"
)

// InterviewServer is the assembled service.
type InterviewServer struct {
	Router  *chi.Mux
	Manager *session.Manager

	gateway aigateway.Gateway
	voice   *voice.Agent
	pool    kvstore.KV
}

// Option overrides a default collaborator, used by tests and the seed
// tooling.
type Option func(*InterviewServer)

// WithGateway substitutes the AI gateway.
func WithGateway(gw aigateway.Gateway) Option {
	return func(s *InterviewServer) { s.gateway = gw }
}

// WithQuestionPool substitutes the question pool store.
func WithQuestionPool(kv kvstore.KV) Option {
	return func(s *InterviewServer) { s.pool = kv }
}

// CreateNewServer builds the service from the loaded configuration.
func CreateNewServer(opts ...Option) (*InterviewServer, error) {
	cfg := config.Config()
	if cfg == nil {
		return nil, fmt.Errorf("configuration is not loaded")
	}

	s := &InterviewServer{Router: chi.NewRouter()}
	for _, opt := range opts {
		opt(s)
	}

	if s.gateway == nil {
		s.gateway = aigateway.NewOpenAI(aigateway.OpenAIConfig{
			APIKey:             cfg.AI.APIKey(),
			BaseURL:            cfg.AI.BaseURL,
			ChatModel:          cfg.AI.ChatModel,
			TranscriptionModel: cfg.AI.TranscriptionModel,
			SpeechModel:        cfg.AI.SpeechModel,
			Voice:              cfg.AI.Voice,
			RetryAttempts:      cfg.AI.RetryAttempts,
		})
	}
	if s.pool == nil {
		if cfg.Store.RedisAddr != "" {
			s.pool = kvstore.NewRedis(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB)
		} else {
			s.pool = kvstore.NewMemory()
		}
	}

	store, err := sessionStore(cfg, s.pool)
	if err != nil {
		return nil, err
	}

	personas, err := voice.LoadRegistry(cfg.Voice.PersonaFile, cfg.Voice.DefaultPersona)
	if err != nil {
		return nil, err
	}
	s.voice = voice.NewAgent(s.gateway, personas, cfg.AI.MaxTokens)

	selector := question.NewSelector(s.gateway, question.NewPool(s.pool),
		question.WithCandidateCap(cfg.Session.CandidateCap))
	synthesizer := feedback.NewSynthesizer(s.gateway,
		feedback.WithGeneration(cfg.AI.Temperature, cfg.AI.MaxTokens))

	s.Manager = session.NewManager(store, selector, synthesizer, s.gateway, session.ManagerOptions{
		MaxQuestions:  cfg.Session.MaxQuestions,
		MaxAge:        cfg.Session.GetMaxAge(),
		SweepInterval: cfg.Session.GetSweepInterval(),
	})
	return s, nil
}

func sessionStore(cfg *config.ConfigParam, pool kvstore.KV) (sessionstore.Store, error) {
	switch cfg.Store.SessionBackend {
	case "postgres":
		return sessionstore.NewPostgres(cfg.Store.PostgresDSN)
	case "kv":
		return sessionstore.NewKV(pool), nil
	default:
		return sessionstore.NewMemory(), nil
	}
}

// MountHandlers installs the middleware stack and routes.
func (s *InterviewServer) MountHandlers() {
	cfg := config.Config()

	s.Router.Use(commonmiddleware.RequestLogger)
	s.Router.Use(commonmiddleware.PanicHandler)
	s.Router.Use(commonmiddleware.SetTimeout(cfg.Server.GetRequestTimeout()))
	if cfg.Server.HandleCORS {
		s.Router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	if cfg.Auth.Enabled {
		s.Router.Use(JWTAuth(cfg.Auth.JWTSecret()))
	}

	s.Router.Get("/version", s.getVersion)
	s.Router.Get("/ready", s.getReadiness)
	s.Router.Mount("/sessions", session.Router(s.Manager, s.voice))
}

// Close releases background resources.
func (s *InterviewServer) Close() {
	if s.Manager != nil {
		s.Manager.Close()
	}
}

type getVersionRsp struct {
	ServerVersion string `json:"serverVersion"`
	APIVersion    string `json:"apiVersion"`
}

func (s *InterviewServer) getVersion(w http.ResponseWriter, r *http.Request) {
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, &getVersionRsp{
		ServerVersion: "PrepStage Interview Server: " + ServerVersion,
		APIVersion:    APIVersion,
	})
}

func (s *InterviewServer) getReadiness(w http.ResponseWriter, r *http.Request) {
	if _, err := s.pool.Get(r.Context(), "essentials"); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("question pool unreachable during readiness check")
		httpx.SendJsonRsp(r.Context(), w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "question pool unreachable",
		})
		return
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
