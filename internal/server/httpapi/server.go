// Package httpapi is the REST boundary of the petition server. Handlers
// decode requests, call the services and map their errors to status codes.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/petitions/petitiond/internal/logging"
	"github.com/petitions/petitiond/internal/server/metrics"
	"github.com/petitions/petitiond/internal/server/models"
	"github.com/petitions/petitiond/internal/server/services"
)

// UserAPI is the account surface the handlers depend on.
type UserAPI interface {
	Register(ctx context.Context, req services.RegisterRequest) (int64, error)
	Login(ctx context.Context, req services.LoginRequest) (*models.Session, error)
	Logout(ctx context.Context, token string) error
	GetUserInfo(ctx context.Context, userID int64, token string) (*models.UserInfo, error)
	EditUser(ctx context.Context, userID int64, token string, patch services.UserPatch) error
	SetUserPhoto(ctx context.Context, userID int64, token, contentType string, data []byte) (bool, error)
	GetUserPhoto(ctx context.Context, userID int64) (*models.Photo, error)
	DeleteUserPhoto(ctx context.Context, userID int64, token string) error
}

// PetitionAPI is the petition surface the handlers depend on.
type PetitionAPI interface {
	GetPetitions(ctx context.Context, q services.PetitionQuery) ([]models.PetitionSummary, error)
	AddPetition(ctx context.Context, token string, req services.NewPetition) (int64, error)
	GetPetition(ctx context.Context, id int64) (*models.PetitionDetail, error)
	EditPetition(ctx context.Context, id int64, token string, patch services.PetitionPatch) error
	DeletePetition(ctx context.Context, id int64, token string) error
	GetAllCategories(ctx context.Context) ([]models.Category, error)
	GetSignatures(ctx context.Context, petitionID int64) ([]models.Signature, error)
	Sign(ctx context.Context, petitionID int64, token string) error
	Unsign(ctx context.Context, petitionID int64, token string) error
	SetPetitionPhoto(ctx context.Context, petitionID int64, token, contentType string, data []byte) (bool, error)
	GetPetitionPhoto(ctx context.Context, petitionID int64) (*models.Photo, error)
}

// Options tunes the server.
type Options struct {
	Addr            string
	LoginRate       float64
	LoginBurst      int
	ShutdownTimeout time.Duration
}

type Server struct {
	opts      Options
	users     UserAPI
	petitions PetitionAPI
	metrics   *metrics.Metrics
	limiter   *RateLimiter
	logger    logging.Logger
}

func NewServer(opts Options, l logging.Logger, us UserAPI, ps PetitionAPI, m *metrics.Metrics) *Server {
	logger := l.With("module", "http_server")
	return &Server{
		opts:      opts,
		users:     us,
		petitions: ps,
		metrics:   m,
		limiter:   NewRateLimiter(opts.LoginRate, opts.LoginBurst, logger),
		logger:    logger,
	}
}

// Handler builds the router: the API under /api/v1 and /metrics at the root.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.metrics.Instrument)

	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/petitions", func(r chi.Router) {
			r.Get("/", s.getPetitions)
			r.Post("/", s.addPetition)
			r.Get("/categories", s.getCategories)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getPetition)
				r.Patch("/", s.editPetition)
				r.Delete("/", s.deletePetition)

				r.Get("/signatures", s.getSignatures)
				r.Post("/signatures", s.sign)
				r.Delete("/signatures", s.unsign)

				r.Get("/photo", s.getPetitionPhoto)
				r.Put("/photo", s.setPetitionPhoto)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(s.limiter.Handler)
				r.Post("/register", s.register)
				r.Post("/login", s.login)
			})
			r.Post("/logout", s.logout)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getUser)
				r.Patch("/", s.editUser)

				r.Get("/photo", s.getUserPhoto)
				r.Put("/photo", s.setUserPhoto)
				r.Delete("/photo", s.deleteUserPhoto)
			})
		})
	})

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "graceful shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-done
	return nil
}

// fail writes err and logs it. Internal errors are logged with their cause.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := writeError(w, err)
	if code == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		return
	}
	s.logger.Debug(r.Context(), "request rejected", "path", r.URL.Path, "status", code, "error", err)
}
