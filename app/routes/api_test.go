package routes_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"drivebox/app/controllers"
	appgraphql "drivebox/app/graphql"
	"drivebox/app/models"
	"drivebox/app/repositories"
	"drivebox/app/routes"
	"drivebox/app/services"
	"drivebox/pkg/auth"
	pkggraphql "drivebox/pkg/graphql"
	"drivebox/pkg/router"
	"drivebox/pkg/storage"
	"drivebox/pkg/testkit"
	"drivebox/pkg/ws"
)

type api struct {
	handler http.Handler
	disk    *storage.MemoryDisk
	db      *gorm.DB
}

// newAPI assembles the real route table over an in-memory database and
// blob store, the same wiring the server boot does.
func newAPI(t *testing.T) api {
	t.Helper()
	db := testkit.NewDB(t, &models.User{}, &models.Folder{}, &models.File{})
	disk := storage.NewMemoryDisk()

	users := repositories.NewUserRepository(db)
	folders := repositories.NewFolderRepository(db)
	files := repositories.NewFileRepository(db)

	authSvc := services.NewAuthService(users)
	folderSvc := services.NewFolderService(folders, files)
	fileSvc := services.NewFileService(files, disk, services.UploadPolicy{MaxBytes: 1 << 20})
	sweepSvc := services.NewSweepService(files, disk, time.Hour, 2)
	adminSvc := services.NewAdminService(users, folders, files, sweepSvc)

	schema, err := appgraphql.NewSchema(authSvc, folderSvc)
	require.NoError(t, err)

	r := router.New()
	routes.RegisterOps(r)
	routes.RegisterAPI(r, routes.Deps{
		Auth:    controllers.NewAuthController(authSvc),
		Folders: controllers.NewFolderController(folderSvc),
		Files:   controllers.NewFileController(fileSvc),
		Admin:   controllers.NewAdminController(adminSvc),
		WS:      controllers.NewWSController(ws.NewHub()),
		GraphQL: pkggraphql.Handler(schema),
	})
	return api{handler: r.Handler(), disk: disk, db: db}
}

func register(t *testing.T, a api, name, email string) string {
	t.Helper()
	rec := testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodPost, "/api/register", map[string]string{
		"name": name, "email": email, "password": "secret-password",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var data struct {
		Tokens services.TokenPair `json:"tokens"`
	}
	testkit.DecodeData(t, rec, &data)
	require.NotEmpty(t, data.Tokens.AccessToken)
	return data.Tokens.AccessToken
}

func authed(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func createFolder(t *testing.T, a api, token, name, parentID string) uint {
	t.Helper()
	body := map[string]string{"name": name}
	if parentID != "" {
		body["parentId"] = parentID
	}
	rec := testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodPost, "/api/folders", body), token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var f struct {
		ID uint `json:"id"`
	}
	testkit.DecodeData(t, rec, &f)
	return f.ID
}

func uploadFile(t *testing.T, a api, token, name, folderID, content string) (uint, *testkit.Envelope) {
	t.Helper()
	fields := map[string]string{}
	if folderID != "" {
		fields["folderId"] = folderID
	}
	req := testkit.MultipartRequest(t, "/api/files", "file", name, "text/plain", []byte(content), fields)
	rec := testkit.Do(t, a.handler, authed(req, token))
	env := testkit.DecodeEnvelope(t, rec)
	if rec.Code != http.StatusCreated {
		return 0, &env
	}
	var f struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &f))
	return f.ID, &env
}

func TestRegisterAndLoginOverHTTP(t *testing.T) {
	a := newAPI(t)

	register(t, a, "Priya", "priya@example.com")

	rec := testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodPost, "/api/register", map[string]string{
		"name": "Priya Again", "email": "priya@example.com", "password": "secret-password",
	}))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Wrong password and unknown account answer identically.
	rec = testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodPost, "/api/login", map[string]string{
		"email": "priya@example.com", "password": "not-the-password",
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodPost, "/api/login", map[string]string{
		"email": "nobody@example.com", "password": "secret-password",
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodPost, "/api/login", map[string]string{
		"email": "priya@example.com", "password": "secret-password",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Tokens services.TokenPair `json:"tokens"`
	}
	testkit.DecodeData(t, rec, &data)
	assert.NotEmpty(t, data.Tokens.RefreshToken)
}

func TestRegisterValidation(t *testing.T) {
	a := newAPI(t)

	rec := testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodPost, "/api/register", map[string]string{
		"name": "X", "email": "not-an-email", "password": "short",
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	env := testkit.DecodeEnvelope(t, rec)
	assert.NotEmpty(t, env.Errors)
}

func TestAuthRequired(t *testing.T) {
	a := newAPI(t)

	rec := testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodGet, "/api/folders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := testkit.JSONRequest(t, http.MethodGet, "/api/folders", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec = testkit.Do(t, a.handler, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshOverHTTP(t *testing.T) {
	a := newAPI(t)

	rec := testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodPost, "/api/register", map[string]string{
		"name": "Sam", "email": "sam@example.com", "password": "secret-password",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	var reg struct {
		Tokens services.TokenPair `json:"tokens"`
	}
	testkit.DecodeData(t, rec, &reg)

	rec = testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodPost, "/api/refresh", map[string]string{
		"refreshToken": reg.Tokens.RefreshToken,
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var refreshed struct {
		Tokens services.TokenPair `json:"tokens"`
	}
	testkit.DecodeData(t, rec, &refreshed)
	assert.NotEmpty(t, refreshed.Tokens.AccessToken)

	// An access token is the wrong kind for this endpoint.
	rec = testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodPost, "/api/refresh", map[string]string{
		"refreshToken": reg.Tokens.AccessToken,
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logout answers 200 even without Redis; revocation is best effort.
	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodPost, "/api/logout", nil), refreshed.Tokens.AccessToken))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFolderLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	token := register(t, a, "Maya", "maya@example.com")

	docs := createFolder(t, a, token, "Documents", "")
	taxes := createFolder(t, a, token, "Taxes", fmt.Sprint(docs))

	// Sibling names collide case-insensitively.
	rec := testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodPost, "/api/folders", map[string]string{
		"name": "DOCUMENTS",
	}), token))
	assert.Equal(t, http.StatusConflict, rec.Code)
	env := testkit.DecodeEnvelope(t, rec)
	assert.Contains(t, env.Message, "already exists")

	// Rename into a sibling's name collides too.
	other := createFolder(t, a, token, "Archive", "")
	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodPatch, fmt.Sprintf("/api/folders/%d", other), map[string]string{
		"name": "documents",
	}), token))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Moving a folder into its own subtree is refused.
	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodPatch, fmt.Sprintf("/api/folders/%d/move", docs), map[string]string{
		"parentId": fmt.Sprint(taxes),
	}), token))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Breadcrumb comes back root first.
	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodGet, fmt.Sprintf("/api/folders/%d/path", taxes), nil), token))
	require.Equal(t, http.StatusOK, rec.Code)
	var chain []struct {
		Name string `json:"name"`
	}
	testkit.DecodeData(t, rec, &chain)
	require.Len(t, chain, 2)
	assert.Equal(t, "Documents", chain[0].Name)
	assert.Equal(t, "Taxes", chain[1].Name)

	// Cascade delete reports what it marked and frees the name.
	_, envp := uploadFile(t, a, token, "w2.pdf", fmt.Sprint(taxes), "tax stuff")
	require.Equal(t, 201, envp.Status)

	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodDelete, fmt.Sprintf("/api/folders/%d", docs), nil), token))
	require.Equal(t, http.StatusOK, rec.Code)
	var counts struct {
		Folders int64 `json:"folders"`
		Files   int64 `json:"files"`
	}
	testkit.DecodeData(t, rec, &counts)
	assert.Equal(t, int64(2), counts.Folders)
	assert.Equal(t, int64(1), counts.Files)

	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodGet, fmt.Sprintf("/api/folders?parentId=%d", docs), nil), token))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	recreated := createFolder(t, a, token, "Documents", "")
	assert.NotEqual(t, docs, recreated)
}

func TestFolderListingSortedWithCounts(t *testing.T) {
	a := newAPI(t)
	token := register(t, a, "Noel", "noel@example.com")

	docs := createFolder(t, a, token, "docs2", "")
	createFolder(t, a, token, "Docs10", "")
	createFolder(t, a, token, "sub", fmt.Sprint(docs))
	uploadFile(t, a, token, "a.txt", fmt.Sprint(docs), "a")

	rec := testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodGet, "/api/folders?parentId=root", nil), token))
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Folders []struct {
			ID          uint   `json:"id"`
			Name        string `json:"name"`
			ChildCounts *struct {
				Folders int64 `json:"folders"`
				Files   int64 `json:"files"`
			} `json:"childCounts"`
		} `json:"folders"`
		Files []struct {
			Name string `json:"name"`
		} `json:"files"`
	}
	testkit.DecodeData(t, rec, &listing)

	// Natural, case-insensitive name order: docs2 before Docs10.
	require.Len(t, listing.Folders, 2)
	assert.Equal(t, "docs2", listing.Folders[0].Name)
	assert.Equal(t, "Docs10", listing.Folders[1].Name)

	require.NotNil(t, listing.Folders[0].ChildCounts)
	assert.Equal(t, int64(1), listing.Folders[0].ChildCounts.Folders)
	assert.Equal(t, int64(1), listing.Folders[0].ChildCounts.Files)
	assert.Empty(t, listing.Files)

	// Scope parsing: garbage is 400, a vanished id is 404.
	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodGet, "/api/folders?parentId=banana", nil), token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodGet, "/api/folders?parentId=424242", nil), token))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodGet, "/api/folders?sort=banana", nil), token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadDownloadOverHTTP(t *testing.T) {
	a := newAPI(t)
	token := register(t, a, "Ira", "ira@example.com")

	id, env := uploadFile(t, a, token, "notes.txt", "", "hello drive")
	require.Equal(t, 201, env.Status)

	var file struct {
		Size        int64  `json:"size"`
		ContentType string `json:"contentType"`
		Category    string `json:"category"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &file))
	assert.Equal(t, int64(11), file.Size)
	assert.Equal(t, "text/plain", file.ContentType)
	assert.NotEmpty(t, file.Category)

	// Same name in the same folder is taken, case-sensitively.
	_, env = uploadFile(t, a, token, "notes.txt", "", "other")
	assert.Equal(t, 409, env.Status)
	_, env = uploadFile(t, a, token, "NOTES.txt", "", "other")
	assert.Equal(t, 201, env.Status)

	rec := testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodGet, fmt.Sprintf("/api/files/%d/download", id), nil), token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello drive", rec.Body.String())
	assert.Equal(t, `attachment; filename="notes.txt"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))

	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodGet, fmt.Sprintf("/api/files/%d/preview", id), nil), token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "inline;"))

	// Delete hides the file but keeps its blob for the sweep to judge.
	before := a.disk.Len()
	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodDelete, fmt.Sprintf("/api/files/%d", id), nil), token))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodGet, fmt.Sprintf("/api/files/%d/download", id), nil), token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before, a.disk.Len())
}

func TestUploadRejectionsOverHTTP(t *testing.T) {
	a := newAPI(t)
	token := register(t, a, "Ona", "ona@example.com")

	// No multipart "file" field.
	rec := testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodPost, "/api/files", map[string]string{"name": "x"}), token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Payload above the policy cap.
	big := strings.Repeat("x", (1<<20)+1)
	_, env := uploadFile(t, a, token, "big.txt", "", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, env.Status)

	// Target folder does not exist.
	_, env = uploadFile(t, a, token, "lost.txt", "424242", "x")
	assert.Equal(t, http.StatusNotFound, env.Status)

	// Unparsable folder reference.
	req := testkit.MultipartRequest(t, "/api/files", "file", "x.txt", "text/plain", []byte("x"), map[string]string{"folderId": "banana"})
	rec = testkit.Do(t, a.handler, authed(req, token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Names with path separators never reach storage.
	_, env = uploadFile(t, a, token, "../../etc/passwd", "", "x")
	assert.Equal(t, http.StatusBadRequest, env.Status)
	assert.Equal(t, 0, a.disk.Len())
}

func TestTenantIsolationOverHTTP(t *testing.T) {
	a := newAPI(t)
	alice := register(t, a, "Alice", "alice@example.com")
	bob := register(t, a, "Bob", "bob@example.com")

	id, env := uploadFile(t, a, alice, "private.txt", "", "alice's words")
	require.Equal(t, 201, env.Status)
	folder := createFolder(t, a, alice, "Private", "")

	// Bob sees 404, not 403: foreign ids look nonexistent.
	rec := testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodGet, fmt.Sprintf("/api/files/%d/download", id), nil), bob))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodGet, fmt.Sprintf("/api/folders?parentId=%d", folder), nil), bob))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodDelete, fmt.Sprintf("/api/folders/%d", folder), nil), bob))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Both users can hold the same names independently.
	_, env = uploadFile(t, a, bob, "private.txt", "", "bob's words")
	assert.Equal(t, 201, env.Status)
}

func TestShareLinkOverHTTP(t *testing.T) {
	a := newAPI(t)
	token := register(t, a, "Zoe", "zoe@example.com")

	id, env := uploadFile(t, a, token, "report.txt", "", "quarterly numbers")
	require.Equal(t, 201, env.Status)

	rec := testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodPost, fmt.Sprintf("/api/files/%d/link", id), map[string]int{
		"ttlMinutes": 30,
	}), token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var link struct {
		URL       string `json:"url"`
		ExpiresAt string `json:"expiresAt"`
	}
	testkit.DecodeData(t, rec, &link)
	require.True(t, strings.HasPrefix(link.URL, "/s/"))
	_, err := time.Parse(time.RFC3339, link.ExpiresAt)
	require.NoError(t, err)

	// The link redeems with no Authorization header.
	rec = testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodGet, link.URL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "quarterly numbers", rec.Body.String())
	assert.Equal(t, `attachment; filename="report.txt"`, rec.Header().Get("Content-Disposition"))

	// Deleting the file kills the link.
	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodDelete, fmt.Sprintf("/api/files/%d", id), nil), token))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodGet, link.URL, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Tampered tokens are indistinguishable from dead ones.
	rec = testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodGet, "/s/forged-token", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminEndpointsOverHTTP(t *testing.T) {
	a := newAPI(t)
	userToken := register(t, a, "Plain", "plain@example.com")

	admin := models.User{Name: "Root", Email: "root@example.com", Password: "x", Role: models.RoleAdmin}
	require.NoError(t, a.db.Create(&admin).Error)
	adminToken, err := auth.GenerateToken(admin.ID, admin.Role)
	require.NoError(t, err)

	rec := testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodGet, "/api/admin/users", nil), userToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodGet, "/api/admin/users", nil), adminToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var listed []struct {
		Email string `json:"email"`
	}
	testkit.DecodeData(t, rec, &listed)
	assert.GreaterOrEqual(t, len(listed), 2)

	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodPost, "/api/admin/sweep", nil), adminToken))
	require.Equal(t, http.StatusOK, rec.Code)
	var sweep struct {
		Removed int `json:"removed"`
	}
	testkit.DecodeData(t, rec, &sweep)
	assert.GreaterOrEqual(t, sweep.Removed, 0)
}

func TestGraphQLOverHTTP(t *testing.T) {
	a := newAPI(t)
	token := register(t, a, "Quinn", "quinn@example.com")
	docs := createFolder(t, a, token, "Docs", "")
	uploadFile(t, a, token, "inside.txt", fmt.Sprint(docs), "x")

	rec := testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodPost, "/api/graphql", map[string]string{
		"query": "{ me { email } }",
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	query := fmt.Sprintf(`{
		me { email }
		children(parentId: %d, sort: "name", order: "asc") { folders { name } files { name } }
		breadcrumb(folderId: %d) { name }
	}`, docs, docs)
	rec = testkit.Do(t, a.handler, authed(testkit.JSONRequest(t, http.MethodPost, "/api/graphql", map[string]string{
		"query": query,
	}), token))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data struct {
			Me struct {
				Email string `json:"email"`
			} `json:"me"`
			Children struct {
				Folders []struct {
					Name string `json:"name"`
				} `json:"folders"`
				Files []struct {
					Name string `json:"name"`
				} `json:"files"`
			} `json:"children"`
			Breadcrumb []struct {
				Name string `json:"name"`
			} `json:"breadcrumb"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Empty(t, out.Errors)
	assert.Equal(t, "quinn@example.com", out.Data.Me.Email)
	assert.Empty(t, out.Data.Children.Folders)
	require.Len(t, out.Data.Children.Files, 1)
	assert.Equal(t, "inside.txt", out.Data.Children.Files[0].Name)
	require.Len(t, out.Data.Breadcrumb, 1)
	assert.Equal(t, "Docs", out.Data.Breadcrumb[0].Name)
}

func TestOpsEndpoints(t *testing.T) {
	a := newAPI(t)

	rec := testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = testkit.Do(t, a.handler, testkit.JSONRequest(t, http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "drivebox_")
}
