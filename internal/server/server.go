package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Wrivard/demenagementboreal-sub000/internal/config"
	"github.com/Wrivard/demenagementboreal-sub000/internal/flow"
	"github.com/Wrivard/demenagementboreal-sub000/internal/geo"
	"github.com/Wrivard/demenagementboreal-sub000/internal/mailer"
	"github.com/Wrivard/demenagementboreal-sub000/internal/quote"
	"github.com/Wrivard/demenagementboreal-sub000/internal/quote/pdf"
	"github.com/Wrivard/demenagementboreal-sub000/internal/storage"
)

// DistanceResolver is the mapping collaborator surface the handlers need.
type DistanceResolver interface {
	HasCredential() bool
	APIKey() string
	Distance(ctx context.Context, origin, destination string) (geo.Result, error)
}

// EmailSender dispatches the confirmation/notification email pairs.
type EmailSender interface {
	HasCredential() bool
	SendQuoteEmails(ctx context.Context, msg mailer.QuoteMessage) (mailer.EmailIDs, error)
	SendContactEmails(ctx context.Context, msg mailer.ContactMessage) (mailer.EmailIDs, error)
}

// QuoteStore persists submitted quote requests. Optional: a nil store
// means submissions are priced but not recorded.
type QuoteStore interface {
	SaveQuoteRequest(ctx context.Context, rec storage.QuoteRecord) (int64, error)
	ExportQuoteToExcel(ctx context.Context, rec storage.QuoteRecord) (string, error)
}

// Notifier pushes submitted requests to the owner. Optional, best-effort.
type Notifier interface {
	NotifyQuoteRequest(ctx context.Context, rec storage.QuoteRecord, excelPath string)
}

type Server struct {
	cfg        *config.Config
	logger     *zap.Logger
	controller *flow.Controller
	resolver   DistanceResolver
	mailer     EmailSender
	store      QuoteStore
	notifier   Notifier
	pdfgen     *pdf.Generator
	rates      quote.Rates
}

func New(
	cfg *config.Config,
	controller *flow.Controller,
	resolver DistanceResolver,
	emailSender EmailSender,
	store QuoteStore,
	notifier Notifier,
	logger *zap.Logger,
) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		controller: controller,
		resolver:   resolver,
		mailer:     emailSender,
		store:      store,
		notifier:   notifier,
		pdfgen:     pdf.New(),
		rates:      quote.DefaultRates(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(s.logger))
	r.Use(CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/calculate-quote", s.handleCalculateQuote)
		r.Post("/calculate-distance", s.handleCalculateDistance)
		r.Get("/maps-key", s.handleMapsKey)
		r.Post("/send-quote-email", s.handleSendQuoteEmail)
		r.Post("/send-contact-email", s.handleSendContactEmail)

		r.Route("/flow", func(r chi.Router) {
			r.Post("/", s.handleFlowStart)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleFlowGet)
				r.Post("/advance", s.handleFlowAdvance)
				r.Post("/retreat", s.handleFlowRetreat)
				r.Post("/submit", s.handleFlowSubmit)
				r.Post("/distance", s.handleFlowDistance)
			})
		})
	})

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.cfg.HTTPAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
