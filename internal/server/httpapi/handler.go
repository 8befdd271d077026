// Package httpapi exposes the user and file services over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
	"github.com/gorilla/mux"
)

type UserService interface {
	Signup(ctx context.Context, id, password string) (*services.TokenPair, error)
	Signin(ctx context.Context, id, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	Info(ctx context.Context, userID string) (*models.User, error)
}

type FileService interface {
	Upload(ctx context.Context, userID string, upload *models.Upload) (*models.File, error)
	List(ctx context.Context, userID string, pageSize, page int) (*models.FilePage, error)
	Get(ctx context.Context, userID string, id int64) (*models.File, error)
	Download(ctx context.Context, userID string, id int64) (string, error)
	Delete(ctx context.Context, userID string, id int64) error
	Update(ctx context.Context, userID string, id int64, upload *models.Upload) (*models.File, error)
}

// TokenVerifier resolves an access token to the user it was issued for.
// *auth.TokenService implements it.
type TokenVerifier interface {
	UserIDFromAccessToken(token string) (string, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Config struct {
	MaxUploadSize          int64
	AuthRateLimitPerMinute int
}

type Handler struct {
	users   UserService
	files   FileService
	tokens  TokenVerifier
	db      Pinger
	log     logging.Logger
	cfg     Config
	limiter *ipLimiter
}

func NewHandler(users UserService, files FileService, tokens TokenVerifier, db Pinger, log logging.Logger, cfg Config) *Handler {
	return &Handler{
		users:   users,
		files:   files,
		tokens:  tokens,
		db:      db,
		log:     log.With("module", "http"),
		cfg:     cfg,
		limiter: newIPLimiter(cfg.AuthRateLimitPerMinute),
	}
}

// Router wires every route. Auth routes without a token are rate limited
// per client address; file routes and /info go through RequireAccessToken.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(h.Logging)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/ready", h.Ready).Methods(http.MethodGet)

	public := r.NewRoute().Subrouter()
	public.Use(h.RateLimit)
	public.HandleFunc("/signup", h.Signup).Methods(http.MethodPost)
	public.HandleFunc("/signin", h.Signin).Methods(http.MethodPost)
	public.HandleFunc("/signin/new_token", h.NewToken).Methods(http.MethodPost)

	r.HandleFunc("/logout", h.Logout).Methods(http.MethodGet)

	private := r.NewRoute().Subrouter()
	private.Use(h.RequireAccessToken)
	private.HandleFunc("/info", h.Info).Methods(http.MethodGet)
	private.HandleFunc("/file/upload", h.UploadFile).Methods(http.MethodPost)
	private.HandleFunc("/file/list", h.ListFiles).Methods(http.MethodGet)
	private.HandleFunc("/file/download/{id}", h.DownloadFile).Methods(http.MethodGet)
	private.HandleFunc("/file/update/{id}", h.UpdateFile).Methods(http.MethodPut)
	private.HandleFunc("/file/delete/{id}", h.DeleteFile).Methods(http.MethodDelete)
	private.HandleFunc("/file/{id}", h.GetFile).Methods(http.MethodGet)

	return r
}
