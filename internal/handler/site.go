package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/climatologylab/labsite/internal/listing"
	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/store"
)

// SiteStores are the stores read by the public pages.
type SiteStores struct {
	Projects     *store.ProjectStore
	Publications *store.PublicationStore
	Team         *store.TeamStore
	Workshops    *store.WorkshopStore
	Notices      *store.NoticeStore
	Tutorials    *store.TutorialStore
	Carousel     *store.CarouselStore
	Impact       *store.ImpactStore
	Stats        *store.StatsStore
}

type SiteHandler struct {
	stores SiteStores
	render *Renderer
	logger *slog.Logger
}

func NewSiteHandler(stores SiteStores, render *Renderer, logger *slog.Logger) *SiteHandler {
	return &SiteHandler{stores: stores, render: render, logger: logger.With("component", "site")}
}

func (h *SiteHandler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func listData(p listing.Params, placeholder string) map[string]any {
	return map[string]any{
		"SearchQuery":       p.Search,
		"SortBy":            string(p.Sort),
		"SearchPlaceholder": placeholder,
	}
}

func (h *SiteHandler) Home(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stores.Stats.Get()
	if err != nil {
		h.fail(w, "failed to get home stats", err)
		return
	}
	workshops, err := h.stores.Workshops.Latest(6)
	if err != nil {
		h.fail(w, "failed to list workshops", err)
		return
	}
	research, err := h.stores.Notices.Latest(model.NoticeResearch, 3)
	if err != nil {
		h.fail(w, "failed to list research notices", err)
		return
	}
	technology, err := h.stores.Notices.Latest(model.NoticeTechnology, 3)
	if err != nil {
		h.fail(w, "failed to list technology notices", err)
		return
	}
	notices, err := h.stores.Notices.Latest("", 3)
	if err != nil {
		h.fail(w, "failed to list notices", err)
		return
	}
	pubCount, err := h.stores.Publications.CountActive()
	if err != nil {
		h.fail(w, "failed to count publications", err)
		return
	}
	projCount, err := h.stores.Projects.CountActive()
	if err != nil {
		h.fail(w, "failed to count projects", err)
		return
	}
	teamCount, err := h.stores.Team.CountActive()
	if err != nil {
		h.fail(w, "failed to count team", err)
		return
	}
	carousel, err := h.stores.Carousel.ListActive()
	if err != nil {
		h.fail(w, "failed to list carousel", err)
		return
	}

	h.render.Render(w, r, "home.html", map[string]any{
		"Stats":             stats,
		"Workshops":         workshops,
		"ResearchNotices":   research,
		"TechnologyNotices": technology,
		"Notices":           notices,
		"PublicationCount":  pubCount,
		"ProjectCount":      projCount,
		"TeamCount":         teamCount,
		"Carousel":          carousel,
	})
}

func (h *SiteHandler) ProjectsRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/projects/research/", http.StatusFound)
}

func (h *SiteHandler) ResearchProjects(w http.ResponseWriter, r *http.Request) {
	h.projects(w, r, model.ProjectTypeResearch, "Research Projects")
}

func (h *SiteHandler) ConsultancyProjects(w http.ResponseWriter, r *http.Request) {
	h.projects(w, r, model.ProjectTypeConsultancy, "Consultancy Projects")
}

func (h *SiteHandler) projects(w http.ResponseWriter, r *http.Request, projectType, title string) {
	p := listing.FromQuery(r.URL.Query(), "search")
	projects, err := h.stores.Projects.ListPublic(projectType, p)
	if err != nil {
		h.fail(w, "failed to list projects", err)
		return
	}

	data := listData(p, "Search projects...")
	data["Projects"] = projects
	data["ProjectType"] = projectType
	data["PageTitle"] = title
	h.render.Render(w, r, "projects.html", data)
}

// ProjectDetail sends the visitor to the project's external page.
func (h *SiteHandler) ProjectDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	project, err := h.stores.Projects.GetByID(id)
	if err != nil {
		h.fail(w, "failed to get project", err)
		return
	}
	if project == nil {
		http.NotFound(w, r)
		return
	}
	if project.ExternalLink != "" {
		http.Redirect(w, r, project.ExternalLink, http.StatusFound)
		return
	}
	http.Redirect(w, r, "/projects/research/", http.StatusFound)
}

type teamGroup struct {
	Title   string
	Members []model.TeamMember
}

var teamGroups = []struct {
	title    string
	keywords []string
}{
	{"Faculty", []string{"faculty", "professor"}},
	{"Post Graduate Students", []string{"post graduate", "m.arch", "master"}},
	{"PhD Scholars", []string{"phd", "research scholar", "doctoral"}},
	{"Alumni", []string{"alumni", "alumnus"}},
}

// groupTeam sorts members into groups by role keyword. The first matching
// group wins; members matching none are left out.
func groupTeam(members []model.TeamMember) []teamGroup {
	groups := make([]teamGroup, len(teamGroups))
	for i, g := range teamGroups {
		groups[i].Title = g.title
	}
	for _, m := range members {
		role := strings.ToLower(m.Role)
	match:
		for i, g := range teamGroups {
			for _, kw := range g.keywords {
				if strings.Contains(role, kw) {
					groups[i].Members = append(groups[i].Members, m)
					break match
				}
			}
		}
	}
	return groups
}

func (h *SiteHandler) Team(w http.ResponseWriter, r *http.Request) {
	members, err := h.stores.Team.ListActive()
	if err != nil {
		h.fail(w, "failed to list team", err)
		return
	}
	h.render.Render(w, r, "team.html", map[string]any{"Groups": groupTeam(members)})
}

func (h *SiteHandler) Learn(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, "learn.html", map[string]any{"PageTitle": "Learning Resources"})
}

func (h *SiteHandler) Impact(w http.ResponseWriter, r *http.Request) {
	stories, err := h.stores.Impact.ListStories(true)
	if err != nil {
		h.fail(w, "failed to list impact stories", err)
		return
	}
	highlights, err := h.stores.Impact.ListHighlights(true)
	if err != nil {
		h.fail(w, "failed to list highlights", err)
		return
	}
	policies, err := h.stores.Impact.ListPolicies(true)
	if err != nil {
		h.fail(w, "failed to list policy impacts", err)
		return
	}
	total, err := h.stores.Publications.CountAll()
	if err != nil {
		h.fail(w, "failed to count publications", err)
		return
	}

	h.render.Render(w, r, "impact.html", map[string]any{
		"Stories":          stories,
		"Highlights":       highlights,
		"Policies":         policies,
		"PublicationCount": total,
	})
}

func (h *SiteHandler) Workshops(w http.ResponseWriter, r *http.Request) {
	p := listing.FromQuery(r.URL.Query(), "search")
	workshops, err := h.stores.Workshops.ListPublic(p)
	if err != nil {
		h.fail(w, "failed to list workshops", err)
		return
	}

	data := listData(p, "Search workshops...")
	data["Workshops"] = workshops
	data["PageTitle"] = "Workshops"
	h.render.Render(w, r, "workshops.html", data)
}

func (h *SiteHandler) ResearchTechnology(w http.ResponseWriter, r *http.Request) {
	p := listing.FromQuery(r.URL.Query(), "search")
	notices, err := h.stores.Notices.ListPublic(p)
	if err != nil {
		h.fail(w, "failed to list notices", err)
		return
	}

	data := listData(p, "Search research & technology...")
	data["Notices"] = notices
	data["PageTitle"] = "Research & Technology"
	h.render.Render(w, r, "research_technology.html", data)
}

func (h *SiteHandler) Tutorials(w http.ResponseWriter, r *http.Request) {
	p := listing.FromQuery(r.URL.Query(), "search")
	playlists, err := h.stores.Tutorials.Playlists(p)
	if err != nil {
		h.fail(w, "failed to list playlists", err)
		return
	}
	standalone, err := h.stores.Tutorials.ListStandalone(p)
	if err != nil {
		h.fail(w, "failed to list tutorials", err)
		return
	}

	data := listData(p, "Search tutorials...")
	data["Playlists"] = playlists
	data["Standalone"] = standalone
	data["PageTitle"] = "Tutorials"
	h.render.Render(w, r, "tutorials.html", data)
}

var publicationTitles = map[string]string{
	model.CategoryJournal:    "Journal Articles",
	model.CategoryConference: "Conference Papers",
	model.CategoryBook:       "Book Chapters",
	model.CategoryThesis:     "Theses",
	model.CategoryReport:     "Technical Reports",
	model.CategoryGuideline:  "Guidelines",
	model.CategoryOther:      "Other Documents",
}

func publicationTitle(f store.PublicationFilter) string {
	switch {
	case f.Category == model.CategoryConference && f.Scope == model.ScopeNational:
		return "National Conference Papers"
	case f.Category == model.CategoryConference && f.Scope == model.ScopeInternational:
		return "International Conference Papers"
	}
	if t, ok := publicationTitles[f.Category]; ok {
		return t
	}
	return "All Publications"
}

// Publications returns a list view over publications narrowed by f.
func (h *SiteHandler) Publications(f store.PublicationFilter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := listing.FromQuery(r.URL.Query(), "search")
		pubs, err := h.stores.Publications.ListPublic(f, p)
		if err != nil {
			h.fail(w, "failed to list publications", err)
			return
		}

		data := listData(p, "Search publications...")
		data["Publications"] = pubs
		data["PageTitle"] = publicationTitle(f)
		data["Category"] = f.Category
		h.render.Render(w, r, "publications.html", data)
	}
}
