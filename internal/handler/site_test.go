package handler

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/store"
)

func newSite(env *testEnv) *SiteHandler {
	return NewSiteHandler(SiteStores{
		Projects:     store.NewProjectStore(env.db),
		Publications: store.NewPublicationStore(env.db),
		Team:         store.NewTeamStore(env.db),
		Workshops:    store.NewWorkshopStore(env.db),
		Notices:      store.NewNoticeStore(env.db),
		Tutorials:    store.NewTutorialStore(env.db),
		Carousel:     store.NewCarouselStore(env.db),
		Impact:       store.NewImpactStore(env.db),
		Stats:        store.NewStatsStore(env.db),
	}, env.render, discard)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestGroupTeam(t *testing.T) {
	members := []model.TeamMember{
		{Name: "A", Role: "Associate Professor"},
		{Name: "B", Role: "M.Arch student"},
		{Name: "C", Role: "PhD Scholar"},
		{Name: "D", Role: "Alumni (PhD 2019)"},
		{Name: "E", Role: "Visiting researcher"},
	}
	groups := groupTeam(members)

	want := map[string][]string{
		"Faculty":                {"A"},
		"Post Graduate Students": {"B"},
		"PhD Scholars":           {"C", "D"},
		"Alumni":                 nil,
	}
	if len(groups) != 4 {
		t.Fatalf("groups = %d, want 4", len(groups))
	}
	for _, g := range groups {
		var names []string
		for _, m := range g.Members {
			names = append(names, m.Name)
		}
		if strings.Join(names, ",") != strings.Join(want[g.Title], ",") {
			t.Errorf("%s = %v, want %v", g.Title, names, want[g.Title])
		}
	}
}

func TestPublicationTitle(t *testing.T) {
	tests := []struct {
		f    store.PublicationFilter
		want string
	}{
		{store.PublicationFilter{}, "All Publications"},
		{store.PublicationFilter{Category: model.CategoryJournal}, "Journal Articles"},
		{store.PublicationFilter{Category: model.CategoryConference}, "Conference Papers"},
		{store.PublicationFilter{Category: model.CategoryConference, Scope: model.ScopeNational}, "National Conference Papers"},
		{store.PublicationFilter{Category: model.CategoryConference, Scope: model.ScopeInternational}, "International Conference Papers"},
		{store.PublicationFilter{Category: model.CategoryGuideline}, "Guidelines"},
	}
	for _, tt := range tests {
		if got := publicationTitle(tt.f); got != tt.want {
			t.Errorf("publicationTitle(%+v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestResearchProjectsSearch(t *testing.T) {
	env := setupEnv(t)
	projects := store.NewProjectStore(env.db)
	for _, p := range []*model.Project{
		{Type: model.ProjectTypeResearch, Title: "Urban heat islands", Status: "ongoing", IsActive: true},
		{Type: model.ProjectTypeResearch, Title: "Flood mapping", Status: "completed", IsActive: true},
		{Type: model.ProjectTypeConsultancy, Title: "Heat audit", Status: "ongoing", IsActive: true},
		{Type: model.ProjectTypeResearch, Title: "Heat archive", Status: "planned", IsActive: false},
	} {
		if _, err := projects.Create(p); err != nil {
			t.Fatalf("create project: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	newSite(env).ResearchProjects(rec, httptest.NewRequest("GET", "/projects/research/?search=HEAT", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Urban heat islands") {
		t.Error("expected matching research project")
	}
	for _, hidden := range []string{"Flood mapping", "Heat audit", "Heat archive"} {
		if strings.Contains(body, hidden) {
			t.Errorf("unexpected %q in page", hidden)
		}
	}
	if !strings.Contains(body, `value="HEAT"`) {
		t.Error("expected search box to keep the query")
	}
}

func TestProjectDetail(t *testing.T) {
	env := setupEnv(t)
	projects := store.NewProjectStore(env.db)
	linked, _ := projects.Create(&model.Project{Type: model.ProjectTypeResearch, Title: "Linked", Status: "ongoing",
		ExternalLink: "https://example.org/heat", IsActive: true})
	plain, _ := projects.Create(&model.Project{Type: model.ProjectTypeResearch, Title: "Plain", Status: "ongoing", IsActive: true})
	site := newSite(env)

	tests := []struct {
		path     string
		status   int
		location string
	}{
		{"/projects/" + itoa(linked.ID) + "/", http.StatusFound, "https://example.org/heat"},
		{"/projects/" + itoa(plain.ID) + "/", http.StatusFound, "/projects/research/"},
		{"/projects/999/", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		rec := serve(site.ProjectDetail, "GET /projects/{id}/", httptest.NewRequest("GET", tt.path, nil))
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.path, rec.Code, tt.status)
		}
		if loc := rec.Header().Get("Location"); loc != tt.location {
			t.Errorf("%s: Location = %q, want %q", tt.path, loc, tt.location)
		}
	}
}

func TestHomeRenders(t *testing.T) {
	env := setupEnv(t)
	workshops := store.NewWorkshopStore(env.db)
	d, _ := model.ParseDate("2025-03-10")
	if _, err := workshops.Create(&model.Workshop{Title: "Heatwave resilience workshop", EventDate: &d, IsActive: true}); err != nil {
		t.Fatalf("create workshop: %v", err)
	}

	rec := httptest.NewRecorder()
	newSite(env).Home(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Heatwave resilience workshop") || !strings.Contains(body, "Mar 10, 2025") {
		t.Errorf("home page missing workshop: %s", body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestTutorialsRenders(t *testing.T) {
	env := setupEnv(t)
	tutorials := store.NewTutorialStore(env.db)
	pl := "PL1"
	one := 1
	for _, tu := range []*model.Tutorial{
		{Title: "Building physics", ExternalLink: "https://www.youtube.com/playlist?list=PL1", PlaylistID: &pl, IsPlaylist: true, IsActive: true},
		{Title: "Heat transfer basics", ExternalLink: "https://www.youtube.com/watch?v=aaa111", PlaylistID: &pl, LectureNumber: &one, IsActive: true},
		{Title: "Standalone talk", ExternalLink: "https://youtu.be/bbb222", IsActive: true},
	} {
		if _, err := tutorials.Create(tu); err != nil {
			t.Fatalf("create tutorial: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	newSite(env).Tutorials(rec, httptest.NewRequest("GET", "/tutorials/", nil))

	body := rec.Body.String()
	for _, want := range []string{"Building physics", "Lecture 1: Heat transfer basics", "Standalone talk",
		"https://img.youtube.com/vi/bbb222/maxresdefault.jpg"} {
		if !strings.Contains(body, want) {
			t.Errorf("tutorials page missing %q", want)
		}
	}
}

func TestTeamPageGroups(t *testing.T) {
	env := setupEnv(t)
	team := store.NewTeamStore(env.db)
	if _, err := team.Create(&model.TeamMember{Name: "Dr. Rao", Role: "Professor", IsActive: true}); err != nil {
		t.Fatalf("create member: %v", err)
	}

	rec := httptest.NewRecorder()
	newSite(env).Team(rec, httptest.NewRequest("GET", "/team/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "Faculty") || !strings.Contains(body, "Dr. Rao") {
		t.Errorf("team page = %s", body)
	}
}

func TestPublicationsPageRenders(t *testing.T) {
	env := setupEnv(t)
	pubs := store.NewPublicationStore(env.db)
	if _, err := pubs.Create(&model.Publication{Title: "Thermal comfort in classrooms", Authors: "Rao, K.",
		Category: model.CategoryJournal, IsActive: true}); err != nil {
		t.Fatalf("create publication: %v", err)
	}

	rec := httptest.NewRecorder()
	newSite(env).Publications(store.PublicationFilter{Category: model.CategoryJournal})(rec,
		httptest.NewRequest("GET", "/publications/journals/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "Journal Articles") || !strings.Contains(body, "Thermal comfort in classrooms") {
		t.Errorf("publications page = %s", body)
	}
}
