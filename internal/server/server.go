package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/climatologylab/labsite/internal/handler"
	"github.com/climatologylab/labsite/internal/mail"
	"github.com/climatologylab/labsite/internal/media"
	"github.com/climatologylab/labsite/internal/metrics"
	"github.com/climatologylab/labsite/internal/middleware"
	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/reset"
	"github.com/climatologylab/labsite/internal/session"
	"github.com/climatologylab/labsite/internal/store"
	ws "github.com/climatologylab/labsite/internal/websocket"
	"github.com/climatologylab/labsite/web"
)

// Options carries the collaborators built from configuration.
type Options struct {
	SiteName       string
	AdminEmail     string
	IdleTimeout    time.Duration
	ResetCodeTTL   time.Duration
	ResetAllowed   func(email string) bool
	OriginPatterns []string
	TrustedProxies []string

	Sessions *session.Manager
	Mail     mail.Sender
	Storage  media.Storage
	Registry *prometheus.Registry
}

type Server struct {
	sessions    *session.Manager
	users       *store.UserStore
	sessionRows *store.SessionStore
	storage     media.Storage
	hub         *ws.Hub
	registry    *prometheus.Registry
	httpMetrics *metrics.HTTP
	rateLimiter *middleware.RateLimiter
	clientIP    func(http.Handler) http.Handler
	idleTimeout time.Duration
	origins     []string

	siteH      *handler.SiteHandler
	contactH   *handler.ContactHandler
	accountH   *handler.AccountHandler
	resetH     *handler.ResetHandler
	dashboardH *handler.DashboardHandler

	projectH     *handler.ProjectHandler
	publicationH *handler.PublicationHandler
	teamH        *handler.TeamHandler
	workshopH    *handler.WorkshopHandler
	noticeH      *handler.NoticeHandler
	tutorialH    *handler.TutorialHandler
	carouselH    *handler.CarouselHandler
	impactH      *handler.ImpactHandler

	logger *slog.Logger
}

func New(db *sql.DB, opts Options, logger *slog.Logger) (*Server, error) {
	hub := ws.NewHub(logger.With("component", "websocket"))
	appMetrics := metrics.NewApp(opts.Registry)
	changes := handler.NewChanges(hub, appMetrics)

	render, err := handler.NewRenderer(web.FS, opts.Sessions, opts.Storage, opts.SiteName, logger.With("component", "render"))
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	projectStore := store.NewProjectStore(db)
	publicationStore := store.NewPublicationStore(db)
	teamStore := store.NewTeamStore(db)
	workshopStore := store.NewWorkshopStore(db)
	noticeStore := store.NewNoticeStore(db)
	tutorialStore := store.NewTutorialStore(db)
	carouselStore := store.NewCarouselStore(db)
	impactStore := store.NewImpactStore(db)
	statsStore := store.NewStatsStore(db)
	contactStore := store.NewContactStore(db)
	userStore := store.NewUserStore(db)

	clientIP, err := middleware.TrustedProxies(opts.TrustedProxies)
	if err != nil {
		return nil, err
	}

	flow := reset.NewFlow(userStore, opts.Mail, opts.ResetAllowed, opts.SiteName, opts.ResetCodeTTL,
		logger.With("component", "reset"))

	return &Server{
		sessions:    opts.Sessions,
		users:       userStore,
		sessionRows: store.NewSessionStore(db),
		storage:     opts.Storage,
		hub:         hub,
		registry:    opts.Registry,
		httpMetrics: metrics.NewHTTP(opts.Registry),
		rateLimiter: middleware.NewRateLimiter(),
		clientIP:    clientIP,
		idleTimeout: opts.IdleTimeout,
		origins:     opts.OriginPatterns,

		siteH: handler.NewSiteHandler(handler.SiteStores{
			Projects:     projectStore,
			Publications: publicationStore,
			Team:         teamStore,
			Workshops:    workshopStore,
			Notices:      noticeStore,
			Tutorials:    tutorialStore,
			Carousel:     carouselStore,
			Impact:       impactStore,
			Stats:        statsStore,
		}, render, logger),
		contactH: handler.NewContactHandler(contactStore, opts.Mail, opts.AdminEmail, opts.SiteName, appMetrics, render, logger),
		accountH: handler.NewAccountHandler(userStore, opts.Sessions, appMetrics, render, logger),
		resetH:   handler.NewResetHandler(flow, opts.Sessions, appMetrics, render, logger),
		dashboardH: handler.NewDashboardHandler(store.NewCountStore(db), tutorialStore, statsStore, contactStore,
			opts.Storage, changes, render, logger),

		projectH:     handler.NewProjectHandler(projectStore, changes, logger),
		publicationH: handler.NewPublicationHandler(publicationStore, changes, logger),
		teamH:        handler.NewTeamHandler(teamStore, changes, logger),
		workshopH:    handler.NewWorkshopHandler(workshopStore, changes, logger),
		noticeH:      handler.NewNoticeHandler(noticeStore, changes, logger),
		tutorialH:    handler.NewTutorialHandler(tutorialStore, changes, logger),
		carouselH:    handler.NewCarouselHandler(carouselStore, changes, logger),
		impactH:      handler.NewImpactHandler(impactStore, changes, logger),

		logger: logger,
	}, nil
}

// SessionStore returns the session rows for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionRows
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the dashboard change feed.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	s.registerPublicRoutes(mux)
	s.registerAccountRoutes(mux)
	s.registerDashboardRoutes(mux)
	s.registerAPIRoutes(mux)

	static, _ := fs.Sub(web.FS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	if local, ok := s.storage.(*media.LocalStorage); ok {
		prefix := strings.TrimSuffix(local.URLPrefix(), "/") + "/"
		mux.Handle("GET "+prefix, serveMedia(http.StripPrefix(prefix, http.FileServer(http.Dir(local.Dir())))))
	}
	mux.Handle("GET /metrics", metrics.Handler(s.registry))
	mux.HandleFunc("GET /health", s.healthHandler)

	return s.clientIP(middleware.RequestLogger(s.logger.With("component", "http"))(
		middleware.Instrument(s.httpMetrics)(mux)))
}

// serveMedia stops browsers from rendering uploads as anything other than
// images or PDFs.
func serveMedia(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if !media.Inline(r.URL.Path) {
			w.Header().Set("Content-Disposition", "attachment")
			w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(bucket string, limit int, window time.Duration, h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.ByIP(bucket), limit, window)(h)
}

// staff wraps h so it runs only for a signed-in, recently active user.
func (s *Server) staff(h http.HandlerFunc) http.Handler {
	return middleware.IdleTimeout(s.sessions, s.idleTimeout, s.logger.With("component", "idle"))(
		middleware.RequireStaff(s.sessions, s.users)(h))
}

// faculty is staff restricted to the faculty role.
func (s *Server) faculty(h http.HandlerFunc) http.Handler {
	return s.staff(middleware.RequireFaculty(h).ServeHTTP)
}

func (s *Server) registerPublicRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.siteH.Home)
	mux.HandleFunc("GET /projects/{$}", s.siteH.ProjectsRedirect)
	mux.HandleFunc("GET /projects/research/{$}", s.siteH.ResearchProjects)
	mux.HandleFunc("GET /projects/consultancy/{$}", s.siteH.ConsultancyProjects)
	mux.HandleFunc("GET /projects/{id}/{$}", s.siteH.ProjectDetail)
	mux.HandleFunc("GET /team/{$}", s.siteH.Team)
	mux.HandleFunc("GET /learn/{$}", s.siteH.Learn)
	mux.HandleFunc("GET /impact/{$}", s.siteH.Impact)
	mux.HandleFunc("GET /workshops/{$}", s.siteH.Workshops)
	mux.HandleFunc("GET /research-technology/{$}", s.siteH.ResearchTechnology)
	mux.HandleFunc("GET /tutorials/{$}", s.siteH.Tutorials)

	publications := map[string]store.PublicationFilter{
		"/publications/{$}":                          {},
		"/publications/journals/{$}":                 {Category: model.CategoryJournal},
		"/publications/conferences/{$}":              {Category: model.CategoryConference},
		"/publications/conference/national/{$}":      {Category: model.CategoryConference, Scope: model.ScopeNational},
		"/publications/conference/international/{$}": {Category: model.CategoryConference, Scope: model.ScopeInternational},
		"/publications/books/{$}":                    {Category: model.CategoryBook},
		"/publications/guidelines/{$}":               {Category: model.CategoryGuideline},
		"/publications/other/{$}":                    {Category: model.CategoryOther},
	}
	for path, f := range publications {
		mux.HandleFunc("GET "+path, s.siteH.Publications(f))
	}

	mux.Handle("POST /contact/{$}", s.rateLimited("contact", 5, 10*time.Minute, s.contactH.Submit))
}

func (s *Server) registerAccountRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /accounts/login/{$}", s.accountH.LoginPage)
	mux.Handle("POST /accounts/login/{$}", s.rateLimited("login", 10, time.Minute, s.accountH.Login))
	mux.HandleFunc("GET /accounts/logout/{$}", s.accountH.Logout)
	mux.HandleFunc("POST /accounts/logout/{$}", s.accountH.Logout)

	// The reset pages sit under /dashboard/ but serve signed-out visitors.
	mux.HandleFunc("GET /dashboard/password-reset/{$}", s.resetH.RequestPage)
	mux.Handle("POST /dashboard/password-reset/{$}", s.rateLimited("reset", 5, 15*time.Minute, s.resetH.Request))
	mux.HandleFunc("GET /dashboard/password-reset/verify/{$}", s.resetH.VerifyPage)
	mux.Handle("POST /dashboard/password-reset/verify/{$}", s.rateLimited("reset-verify", 20, 15*time.Minute, s.resetH.Verify))
	mux.HandleFunc("GET /dashboard/password-reset/set-password/{$}", s.resetH.SetPasswordPage)
	mux.HandleFunc("POST /dashboard/password-reset/set-password/{$}", s.resetH.SetPassword)
	mux.HandleFunc("GET /dashboard/password-reset-complete/{$}", s.resetH.Complete)
}

func (s *Server) registerDashboardRoutes(mux *http.ServeMux) {
	mux.Handle("GET /dashboard/{$}", s.staff(s.dashboardH.Home))
	mux.Handle("GET /dashboard/password-change/{$}", s.staff(s.accountH.PasswordChangePage))
	mux.Handle("POST /dashboard/password-change/{$}", s.staff(s.accountH.PasswordChange))
	mux.Handle("GET /dashboard/ws", s.staff(ws.HandleWebSocket(s.hub, s.origins, s.logger.With("component", "websocket"))))
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	mux.Handle("GET /dashboard/api/projects", s.staff(s.projectH.List))
	mux.Handle("POST /dashboard/api/projects", s.staff(s.projectH.Create))
	mux.Handle("GET /dashboard/api/projects/{id}", s.staff(s.projectH.Get))
	mux.Handle("PUT /dashboard/api/projects/{id}", s.staff(s.projectH.Update))
	mux.Handle("DELETE /dashboard/api/projects/{id}", s.faculty(s.projectH.Delete))

	mux.Handle("GET /dashboard/api/publications", s.staff(s.publicationH.List))
	mux.Handle("POST /dashboard/api/publications", s.staff(s.publicationH.Create))
	mux.Handle("GET /dashboard/api/publications/{id}", s.staff(s.publicationH.Get))
	mux.Handle("PUT /dashboard/api/publications/{id}", s.staff(s.publicationH.Update))
	mux.Handle("DELETE /dashboard/api/publications/{id}", s.faculty(s.publicationH.Delete))

	mux.Handle("GET /dashboard/api/team", s.staff(s.teamH.List))
	mux.Handle("POST /dashboard/api/team", s.staff(s.teamH.Create))
	mux.Handle("PUT /dashboard/api/team/{id}", s.staff(s.teamH.Update))
	mux.Handle("DELETE /dashboard/api/team/{id}", s.faculty(s.teamH.Delete))

	mux.Handle("GET /dashboard/api/workshops", s.staff(s.workshopH.List))
	mux.Handle("POST /dashboard/api/workshops", s.staff(s.workshopH.Create))
	mux.Handle("PUT /dashboard/api/workshops/{id}", s.staff(s.workshopH.Update))
	mux.Handle("DELETE /dashboard/api/workshops/{id}", s.faculty(s.workshopH.Delete))

	mux.Handle("GET /dashboard/api/notices", s.staff(s.noticeH.List))
	mux.Handle("POST /dashboard/api/notices", s.staff(s.noticeH.Create))
	mux.Handle("PUT /dashboard/api/notices/{id}", s.staff(s.noticeH.Update))
	mux.Handle("DELETE /dashboard/api/notices/{id}", s.faculty(s.noticeH.Delete))

	mux.Handle("GET /dashboard/api/tutorials", s.staff(s.tutorialH.List))
	mux.Handle("GET /dashboard/api/tutorials/orphans", s.staff(s.tutorialH.Orphans))
	mux.Handle("POST /dashboard/api/tutorials", s.staff(s.tutorialH.Create))
	mux.Handle("PUT /dashboard/api/tutorials/{id}", s.staff(s.tutorialH.Update))
	mux.Handle("DELETE /dashboard/api/tutorials/{id}", s.faculty(s.tutorialH.Delete))

	mux.Handle("GET /dashboard/api/carousel", s.staff(s.carouselH.List))
	mux.Handle("POST /dashboard/api/carousel", s.staff(s.carouselH.Create))
	mux.Handle("PUT /dashboard/api/carousel/{id}", s.staff(s.carouselH.Update))
	mux.Handle("DELETE /dashboard/api/carousel/{id}", s.faculty(s.carouselH.Delete))

	mux.Handle("GET /dashboard/api/impact/stories", s.staff(s.impactH.ListStories))
	mux.Handle("POST /dashboard/api/impact/stories", s.staff(s.impactH.CreateStory))
	mux.Handle("PUT /dashboard/api/impact/stories/{id}", s.staff(s.impactH.UpdateStory))
	mux.Handle("DELETE /dashboard/api/impact/stories/{id}", s.faculty(s.impactH.DeleteStory))
	mux.Handle("GET /dashboard/api/impact/highlights", s.staff(s.impactH.ListHighlights))
	mux.Handle("POST /dashboard/api/impact/highlights", s.staff(s.impactH.CreateHighlight))
	mux.Handle("DELETE /dashboard/api/impact/highlights/{id}", s.faculty(s.impactH.DeleteHighlight))
	mux.Handle("GET /dashboard/api/impact/policies", s.staff(s.impactH.ListPolicies))
	mux.Handle("POST /dashboard/api/impact/policies", s.staff(s.impactH.CreatePolicy))
	mux.Handle("DELETE /dashboard/api/impact/policies/{id}", s.faculty(s.impactH.DeletePolicy))

	mux.Handle("GET /dashboard/api/contacts", s.staff(s.dashboardH.ListContacts))
	mux.Handle("POST /dashboard/api/contacts/{id}/read", s.staff(s.dashboardH.MarkContactRead))
	mux.Handle("DELETE /dashboard/api/contacts/{id}", s.faculty(s.dashboardH.DeleteContact))

	mux.Handle("GET /dashboard/api/stats", s.staff(s.dashboardH.GetStats))
	mux.Handle("PUT /dashboard/api/stats", s.staff(s.dashboardH.UpdateStats))
	mux.Handle("POST /dashboard/api/media", s.staff(s.dashboardH.Upload))
}
