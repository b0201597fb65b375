package web_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vbonduro/propinv/internal/blobstore/local"
	"github.com/vbonduro/propinv/internal/catalog"
	"github.com/vbonduro/propinv/internal/db"
	"github.com/vbonduro/propinv/internal/domain"
	"github.com/vbonduro/propinv/internal/export"
	"github.com/vbonduro/propinv/internal/imaging"
	"github.com/vbonduro/propinv/internal/metrics"
	"github.com/vbonduro/propinv/internal/service"
	"github.com/vbonduro/propinv/internal/store"
	"github.com/vbonduro/propinv/internal/web"
)

// testPNG is a 400x300 grey PNG; the pipeline scales it to 800x600.
var testPNG = func() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 400; x++ {
			img.Set(x, y, color.Gray{Y: 90})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}()

// newTestServer sets up a real web.Server backed by in-memory SQLite, the real
// image pipeline and a local blob store under exportDir.
func newTestServer(t *testing.T) (srv *httptest.Server, exportDir string) {
	t.Helper()
	database, err := db.OpenForTesting()
	if err != nil {
		t.Fatalf("OpenForTesting: %v", err)
	}

	cat := catalog.Default()
	m := metrics.New()
	svc := service.NewInventoryService(
		store.NewInventoryStore(database, store.NewCodec(cat)),
		imaging.New(imaging.DefaultQuality, nil),
		cat,
		m,
		slog.Default(),
		service.Options{},
	)

	exportDir = t.TempDir()
	blobs, err := local.New(exportDir)
	if err != nil {
		t.Fatalf("local.New: %v", err)
	}
	exporter := export.New(blobs, m, slog.Default())

	srv = httptest.NewServer(web.NewServer(svc, exporter, m, slog.Default(), 0))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return srv, exportDir
}

func do(t *testing.T, method, url, contentType string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new %s request: %v", method, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, b
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	return do(t, method, url, "application/json", strings.NewReader(body))
}

func expectStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

// buildMultipartBody creates a multipart/form-data body with a file field and
// optional plain fields.
func buildMultipartBody(t *testing.T, field string, data []byte, values map[string]string) (body *bytes.Buffer, contentType string) {
	t.Helper()
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range values {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	fw, err := w.CreateFormFile(field, "upload.bin")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write file data: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func createInventory(t *testing.T, srv *httptest.Server) *domain.Inventory {
	t.Helper()
	resp, body := do(t, http.MethodPost, srv.URL+"/inventories", "", nil)
	expectStatus(t, resp, body, http.StatusCreated)
	var inv domain.Inventory
	if err := json.Unmarshal(body, &inv); err != nil {
		t.Fatalf("decode inventory: %v", err)
	}
	return &inv
}

func attachPhoto(t *testing.T, srv *httptest.Server, inv *domain.Inventory, room, item int) string {
	t.Helper()
	r := inv.Rooms[room]
	url := srv.URL + "/inventories/" + inv.ID + "/rooms/" + r.ID + "/items/" + r.Items[item].ID + "/photos"
	body, contentType := buildMultipartBody(t, "image", testPNG, nil)
	resp, b := do(t, http.MethodPost, url, contentType, body)
	expectStatus(t, resp, b, http.StatusCreated)
	var photo struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &photo); err != nil {
		t.Fatalf("decode photo: %v", err)
	}
	return photo.ID
}

func TestIntegration_CreateAndGetInventory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv, _ := newTestServer(t)

	inv := createInventory(t, srv)
	if inv.Status != domain.StatusDraft {
		t.Errorf("status = %q, want DRAFT", inv.Status)
	}
	if len(inv.Rooms) == 0 || len(inv.HealthSafetyChecks) == 0 || len(inv.Documents) == 0 {
		t.Fatalf("inventory not seeded from catalog: %+v", inv)
	}

	resp, body := do(t, http.MethodGet, srv.URL+"/inventories/"+inv.ID, "", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/inventories", "", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if !strings.Contains(string(body), inv.ID) {
		t.Errorf("list does not contain %s: %s", inv.ID, body)
	}
}

func TestIntegration_UnknownInventory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/inventories/does-not-exist", "", nil)
	expectStatus(t, resp, body, http.StatusNotFound)

	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/inventories/does-not-exist", `{"address":"x"}`)
	expectStatus(t, resp, body, http.StatusNotFound)
}

func TestIntegration_UpdateFieldsAndCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv, _ := newTestServer(t)
	inv := createInventory(t, srv)
	base := srv.URL + "/inventories/" + inv.ID

	resp, body := doJSON(t, http.MethodPatch, base, `{"address":"1 High Street","tenantPresent":true}`)
	expectStatus(t, resp, body, http.StatusOK)
	var updated domain.Inventory
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Address != "1 High Street" || !updated.TenantPresent {
		t.Errorf("fields not applied: address=%q tenantPresent=%v", updated.Address, updated.TenantPresent)
	}
	if !updated.DateUpdated.After(inv.DateUpdated) {
		t.Errorf("dateUpdated did not advance: %v -> %v", inv.DateUpdated, updated.DateUpdated)
	}

	resp, body = doJSON(t, http.MethodPatch, base, `{"colour":"blue"}`)
	expectStatus(t, resp, body, http.StatusBadRequest)

	check := inv.HealthSafetyChecks[0]
	resp, body = doJSON(t, http.MethodPut, base+"/checks/"+check.ID, `{"answer":"YES","comment":"fitted in hall"}`)
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = doJSON(t, http.MethodPut, base+"/checks/"+check.ID, `{"answer":"MAYBE"}`)
	expectStatus(t, resp, body, http.StatusBadRequest)

	room := inv.Rooms[0]
	resp, body = doJSON(t, http.MethodPatch, base+"/rooms/"+room.ID+"/items/"+room.Items[0].ID, `{"condition":"Good","description":"minor scuffs"}`)
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = doJSON(t, http.MethodPatch, base+"/rooms/"+room.ID+"/items/missing", `{"condition":"Good"}`)
	expectStatus(t, resp, body, http.StatusNotFound)
}

func TestIntegration_PhotosAndVault(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv, _ := newTestServer(t)
	inv := createInventory(t, srv)
	base := srv.URL + "/inventories/" + inv.ID

	first := attachPhoto(t, srv, inv, 0, 0)
	second := attachPhoto(t, srv, inv, 0, 0)

	resp, body := do(t, http.MethodGet, base+"/photos/"+first, "", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if got := resp.Header.Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", got)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("decode stored photo: %v", err)
	}
	if cfg.Width != imaging.DefaultPhotoWidth || cfg.Height != 600 {
		t.Errorf("stored photo is %dx%d, want 800x600", cfg.Width, cfg.Height)
	}

	resp, body = do(t, http.MethodGet, base+"/vault", "", nil)
	expectStatus(t, resp, body, http.StatusOK)
	var entries []struct {
		Ordinal int    `json:"ordinal"`
		PhotoID string `json:"photoId"`
		URL     string `json:"url"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatalf("decode vault: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 vault entries, got %d", len(entries))
	}
	if entries[0].PhotoID != first || entries[0].Ordinal != 1 || entries[1].PhotoID != second || entries[1].Ordinal != 2 {
		t.Errorf("unexpected vault order: %+v", entries)
	}
	if entries[0].URL != "/inventories/"+inv.ID+"/photos/"+first {
		t.Errorf("vault url = %q", entries[0].URL)
	}

	room := inv.Rooms[0]
	resp, body = do(t, http.MethodDelete, base+"/rooms/"+room.ID+"/items/"+room.Items[0].ID+"/photos/"+first, "", nil)
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = do(t, http.MethodGet, base+"/photos/"+first, "", nil)
	expectStatus(t, resp, body, http.StatusNotFound)
}

func TestIntegration_RejectsNonImageUpload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv, _ := newTestServer(t)
	inv := createInventory(t, srv)
	room := inv.Rooms[0]

	body, contentType := buildMultipartBody(t, "image", []byte("%PDF-1.4 not a photo"), nil)
	url := srv.URL + "/inventories/" + inv.ID + "/rooms/" + room.ID + "/items/" + room.Items[0].ID + "/photos"
	resp, b := do(t, http.MethodPost, url, contentType, body)
	expectStatus(t, resp, b, http.StatusBadRequest)

	resp, b = do(t, http.MethodPost, url, "", nil)
	expectStatus(t, resp, b, http.StatusBadRequest)
}

func TestIntegration_DocumentUpload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv, _ := newTestServer(t)
	inv := createInventory(t, srv)
	doc := inv.Documents[0]

	body, contentType := buildMultipartBody(t, "file", []byte("%PDF-1.4 gas certificate"), nil)
	resp, b := do(t, http.MethodPut, srv.URL+"/inventories/"+inv.ID+"/documents/"+doc.ID, contentType, body)
	expectStatus(t, resp, b, http.StatusOK)

	var updated domain.Inventory
	if err := json.Unmarshal(b, &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !updated.Documents[0].Uploaded() || updated.Documents[0].UploadDate == nil {
		t.Errorf("document not marked uploaded: %+v", updated.Documents[0])
	}
}

func TestIntegration_SignAndLock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv, _ := newTestServer(t)
	inv := createInventory(t, srv)
	base := srv.URL + "/inventories/" + inv.ID

	resp, body := do(t, http.MethodPost, base+"/lock", "", nil)
	expectStatus(t, resp, body, http.StatusConflict)

	sig, contentType := buildMultipartBody(t, "image", testPNG, map[string]string{"name": "Jo Bloggs", "type": "Tenant"})
	resp, body = do(t, http.MethodPost, base+"/signatures", contentType, sig)
	expectStatus(t, resp, body, http.StatusCreated)

	bad, contentType := buildMultipartBody(t, "image", testPNG, map[string]string{"name": "Jo Bloggs", "type": "Neighbour"})
	resp, body = do(t, http.MethodPost, base+"/signatures", contentType, bad)
	expectStatus(t, resp, body, http.StatusBadRequest)

	resp, body = doJSON(t, http.MethodPatch, base, `{"declarationAgreed":true}`)
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = do(t, http.MethodPost, base+"/lock", "", nil)
	expectStatus(t, resp, body, http.StatusOK)

	resp, body = doJSON(t, http.MethodPatch, base, `{"address":"too late"}`)
	expectStatus(t, resp, body, http.StatusConflict)

	resp, body = do(t, http.MethodGet, base, "", nil)
	expectStatus(t, resp, body, http.StatusOK)
	var locked domain.Inventory
	if err := json.Unmarshal(body, &locked); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if locked.Status != domain.StatusLocked || locked.Address != "" {
		t.Errorf("locked inventory changed: status=%q address=%q", locked.Status, locked.Address)
	}
}

func TestIntegration_ReportAndExport(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv, exportDir := newTestServer(t)
	inv := createInventory(t, srv)
	base := srv.URL + "/inventories/" + inv.ID

	attachPhoto(t, srv, inv, 0, 0)

	resp, body := do(t, http.MethodGet, base+"/report", "", nil)
	expectStatus(t, resp, body, http.StatusOK)
	var rep struct {
		Ready    bool              `json:"ready"`
		Sections []json.RawMessage `json:"sections"`
	}
	if err := json.Unmarshal(body, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !rep.Ready || len(rep.Sections) == 0 {
		t.Errorf("unexpected report: %s", body)
	}

	resp, body = do(t, http.MethodGet, base+"/export", "", nil)
	expectStatus(t, resp, body, http.StatusNotFound)

	resp, body = do(t, http.MethodPost, base+"/export", "", nil)
	expectStatus(t, resp, body, http.StatusOK)
	var written export.Manifest
	if err := json.Unmarshal(body, &written); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}

	if _, err := os.Stat(filepath.Join(exportDir, inv.ID, "photos", "001.jpg")); err != nil {
		t.Errorf("exported photo missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(exportDir, inv.ID, "report.json")); err != nil {
		t.Errorf("exported report missing: %v", err)
	}

	resp, body = do(t, http.MethodGet, base+"/export", "", nil)
	expectStatus(t, resp, body, http.StatusOK)
	var last export.Manifest
	if err := json.Unmarshal(body, &last); err != nil {
		t.Fatalf("decode last export: %v", err)
	}
	if last.ReportKey != written.ReportKey || len(last.PhotoKeys) != 1 || last.PhotoKeys[0] != inv.ID+"/photos/001.jpg" {
		t.Errorf("last export = %+v, want %+v", last, written)
	}
}

func TestIntegration_Metrics(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv, _ := newTestServer(t)
	createInventory(t, srv)

	resp, body := do(t, http.MethodGet, srv.URL+"/metrics", "", nil)
	expectStatus(t, resp, body, http.StatusOK)
	if !strings.Contains(string(body), "propinv_mutations_total") {
		t.Errorf("metrics output missing mutation counter:\n%s", body)
	}
}
