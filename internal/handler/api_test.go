package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/climatologylab/labsite/internal/metrics"
	"github.com/climatologylab/labsite/internal/model"
	"github.com/climatologylab/labsite/internal/store"
)

func serve(h http.HandlerFunc, pattern string, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestProjectAPI(t *testing.T) {
	env := setupEnv(t)
	m := metrics.NewApp(prometheus.NewRegistry())
	h := NewProjectHandler(store.NewProjectStore(env.db), NewChanges(nil, m), discard)

	body := `{"project_type":"research","title":"Urban heat","status":"ongoing","start_date":"2024-01-15"}`
	rec := serve(h.Create, "POST /dashboard/api/projects", asStaff(jsonRequest("POST", "/dashboard/api/projects", body), model.RoleEditor))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created model.Project
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !created.IsActive || created.StartDate == nil || created.StartDate.String() != "2024-01-15" {
		t.Errorf("created = %+v", created)
	}

	rec = serve(h.List, "GET /dashboard/api/projects", httptest.NewRequest("GET", "/dashboard/api/projects?q=heat", nil))
	var list []model.Project
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list) != 1 {
		t.Fatalf("list = %d, want 1", len(list))
	}

	body = `{"project_type":"research","title":"Urban heat islands","status":"completed","is_active":false}`
	rec = serve(h.Update, "PUT /dashboard/api/projects/{id}", asStaff(jsonRequest("PUT", "/dashboard/api/projects/1", body), model.RoleEditor))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	var updated model.Project
	json.NewDecoder(rec.Body).Decode(&updated)
	if updated.Title != "Urban heat islands" || updated.IsActive || updated.StartDate != nil {
		t.Errorf("updated = %+v", updated)
	}

	rec = serve(h.Delete, "DELETE /dashboard/api/projects/{id}", asStaff(httptest.NewRequest("DELETE", "/dashboard/api/projects/1", nil), model.RoleFaculty))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = serve(h.Delete, "DELETE /dashboard/api/projects/{id}", asStaff(httptest.NewRequest("DELETE", "/dashboard/api/projects/1", nil), model.RoleFaculty))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}

	for _, action := range []string{"created", "updated", "deleted"} {
		if got := testutil.ToFloat64(m.ContentChanges.WithLabelValues("project", action)); got != 1 {
			t.Errorf("%s changes = %v, want 1", action, got)
		}
	}
}

func TestProjectAPIValidation(t *testing.T) {
	env := setupEnv(t)
	h := NewProjectHandler(store.NewProjectStore(env.db), nil, discard)

	tests := map[string]string{
		"missing title":  `{"project_type":"research","status":"ongoing"}`,
		"bad type":       `{"project_type":"grant","title":"x","status":"ongoing"}`,
		"bad date":       `{"project_type":"research","title":"x","status":"ongoing","start_date":"15/01/2024"}`,
		"unknown field":  `{"project_type":"research","title":"x","status":"ongoing","budget":5}`,
		"bad link":       `{"project_type":"research","title":"x","status":"ongoing","external_link":"not a url"}`,
		"malformed json": `{"title":`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := serve(h.Create, "POST /dashboard/api/projects", jsonRequest("POST", "/dashboard/api/projects", body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestProjectAPIValidationMessage(t *testing.T) {
	env := setupEnv(t)
	h := NewProjectHandler(store.NewProjectStore(env.db), nil, discard)

	rec := serve(h.Create, "POST /dashboard/api/projects", jsonRequest("POST", "/dashboard/api/projects", `{"project_type":"research","status":"ongoing"}`))
	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["error"] != "title is required" {
		t.Errorf("error = %q, want %q", resp["error"], "title is required")
	}
}

func TestTutorialAPIOrphans(t *testing.T) {
	env := setupEnv(t)
	h := NewTutorialHandler(store.NewTutorialStore(env.db), nil, discard)

	body := `{"title":"Lecture 1","external_link":"https://www.youtube.com/watch?v=abc123","playlist_id":"PL9","lecture_number":1}`
	rec := serve(h.Create, "POST /dashboard/api/tutorials", jsonRequest("POST", "/dashboard/api/tutorials", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created model.Tutorial
	json.NewDecoder(rec.Body).Decode(&created)
	if created.PlaylistID == nil || *created.PlaylistID != "PL9" {
		t.Errorf("playlist id = %v", created.PlaylistID)
	}

	rec = serve(h.Orphans, "GET /dashboard/api/tutorials/orphans", httptest.NewRequest("GET", "/dashboard/api/tutorials/orphans", nil))
	var orphans []model.Tutorial
	json.NewDecoder(rec.Body).Decode(&orphans)
	if len(orphans) != 1 || orphans[0].ID != created.ID {
		t.Errorf("orphans = %+v", orphans)
	}
}

func TestNoticeAPIKindFilter(t *testing.T) {
	env := setupEnv(t)
	h := NewNoticeHandler(store.NewNoticeStore(env.db), nil, discard)

	for _, body := range []string{
		`{"kind":"research","title":"Monsoon study","event_date":"2025-07-01"}`,
		`{"kind":"technology","title":"Sensor kit","event_date":"2025-08-01"}`,
	} {
		rec := serve(h.Create, "POST /dashboard/api/notices", jsonRequest("POST", "/dashboard/api/notices", body))
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := serve(h.List, "GET /dashboard/api/notices", httptest.NewRequest("GET", "/dashboard/api/notices?kind=technology", nil))
	var list []model.Notice
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list) != 1 || list[0].Title != "Sensor kit" {
		t.Errorf("technology = %+v", list)
	}

	rec = serve(h.List, "GET /dashboard/api/notices", httptest.NewRequest("GET", "/dashboard/api/notices?kind=weather", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad kind status = %d, want 400", rec.Code)
	}
}

func TestEmptyListEncodesArray(t *testing.T) {
	env := setupEnv(t)
	h := NewWorkshopHandler(store.NewWorkshopStore(env.db), nil, discard)

	rec := serve(h.List, "GET /dashboard/api/workshops", httptest.NewRequest("GET", "/dashboard/api/workshops", nil))
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestImpactHighlightDefaultsIcon(t *testing.T) {
	env := setupEnv(t)
	h := NewImpactHandler(store.NewImpactStore(env.db), nil, discard)

	rec := serve(h.CreateHighlight, "POST /dashboard/api/impact/highlights",
		jsonRequest("POST", "/dashboard/api/impact/highlights", `{"title":"Heat action plans","description":"Adopted by 3 cities"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var hl model.ResearchHighlight
	json.NewDecoder(rec.Body).Decode(&hl)
	if hl.Icon != "globe" || !hl.IsActive {
		t.Errorf("highlight = %+v", hl)
	}

	rec = serve(h.CreateHighlight, "POST /dashboard/api/impact/highlights",
		jsonRequest("POST", "/dashboard/api/impact/highlights", `{"title":"x","description":"y","icon":"rocket"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad icon status = %d, want 400", rec.Code)
	}
}

func TestUploadStoresFile(t *testing.T) {
	env := setupEnv(t)
	h := NewDashboardHandler(store.NewCountStore(env.db), store.NewTutorialStore(env.db), store.NewStatsStore(env.db),
		store.NewContactStore(env.db), env.storage, nil, env.render, discard)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("folder", "team")
	fw, _ := mw.CreateFormFile("file", "Portrait.JPG")
	fw.Write([]byte("jpeg bytes"))
	mw.Close()

	req := httptest.NewRequest("POST", "/dashboard/api/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := serve(h.Upload, "POST /dashboard/api/media", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if !strings.HasPrefix(resp["name"], "team/") || !strings.HasSuffix(resp["name"], ".jpg") {
		t.Errorf("name = %q", resp["name"])
	}
	if resp["url"] != "/media/"+resp["name"] {
		t.Errorf("url = %q", resp["url"])
	}
	data, err := os.ReadFile(filepath.Join(env.storage.Dir(), filepath.FromSlash(resp["name"])))
	if err != nil || string(data) != "jpeg bytes" {
		t.Errorf("stored file = %q, %v", data, err)
	}
}

func TestUploadRejectsUnknownFolder(t *testing.T) {
	env := setupEnv(t)
	h := NewDashboardHandler(store.NewCountStore(env.db), store.NewTutorialStore(env.db), store.NewStatsStore(env.db),
		store.NewContactStore(env.db), env.storage, nil, env.render, discard)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("folder", "../etc")
	fw, _ := mw.CreateFormFile("file", "x.txt")
	fw.Write([]byte("x"))
	mw.Close()

	req := httptest.NewRequest("POST", "/dashboard/api/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := serve(h.Upload, "POST /dashboard/api/media", req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	env := setupEnv(t)
	h := NewDashboardHandler(store.NewCountStore(env.db), store.NewTutorialStore(env.db), store.NewStatsStore(env.db),
		store.NewContactStore(env.db), env.storage, nil, env.render, discard)

	upload := func(folder, filename, contentType string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("folder", folder)
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		hdr.Set("Content-Type", contentType)
		fw, _ := mw.CreatePart(hdr)
		fw.Write([]byte("<script>fetch('/dashboard/api/projects/1',{method:'DELETE'})</script>"))
		mw.Close()

		req := httptest.NewRequest("POST", "/dashboard/api/media", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return serve(h.Upload, "POST /dashboard/api/media", req)
	}

	for _, tc := range []struct{ folder, filename, contentType string }{
		{"team", "x.html", "text/html"},
		{"team", "x.svg", "image/svg+xml"},
		{"team", "x.htm", "image/jpeg"},
		{"team", "cv.pdf", "application/pdf"},
		{"publications", "x.html", "application/pdf"},
		{"carousel", "x", "image/png"},
	} {
		if rec := upload(tc.folder, tc.filename, tc.contentType); rec.Code != http.StatusBadRequest {
			t.Errorf("upload %s/%s status = %d, want 400", tc.folder, tc.filename, rec.Code)
		}
	}

	entries, _ := os.ReadDir(env.storage.Dir())
	if len(entries) != 0 {
		t.Errorf("expected nothing stored, found %d entries", len(entries))
	}

	rec := upload("publications", "paper.pdf", "text/html")
	if rec.Code != http.StatusCreated {
		t.Fatalf("pdf status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStatsAPI(t *testing.T) {
	env := setupEnv(t)
	h := NewDashboardHandler(store.NewCountStore(env.db), store.NewTutorialStore(env.db), store.NewStatsStore(env.db),
		store.NewContactStore(env.db), env.storage, nil, env.render, discard)

	rec := serve(h.UpdateStats, "PUT /dashboard/api/stats", jsonRequest("PUT", "/dashboard/api/stats",
		`{"publications_count":140,"projects_count":60,"outreach_programs_count":30,"years_of_research":18}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(h.GetStats, "GET /dashboard/api/stats", httptest.NewRequest("GET", "/dashboard/api/stats", nil))
	var st model.HomeStats
	json.NewDecoder(rec.Body).Decode(&st)
	if st.PublicationsCount != 140 || st.YearsOfResearch != 18 {
		t.Errorf("stats = %+v", st)
	}

	rec = serve(h.UpdateStats, "PUT /dashboard/api/stats", jsonRequest("PUT", "/dashboard/api/stats", `{"projects_count":-1}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative count status = %d, want 400", rec.Code)
	}
}
