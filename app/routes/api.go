package routes

import (
	"net/http"
	"time"

	"drivebox/app/controllers"
	"drivebox/app/models"
	"drivebox/pkg/ctx"
	"drivebox/pkg/metrics"
	"drivebox/pkg/middleware"
	"drivebox/pkg/rbac"
	"drivebox/pkg/router"
)

// Deps carries the constructed controllers the route table mounts.
type Deps struct {
	Auth    *controllers.AuthController
	Folders *controllers.FolderController
	Files   *controllers.FileController
	Admin   *controllers.AdminController
	WS      *controllers.WSController
	GraphQL http.HandlerFunc
}

// RegisterAPI mounts the REST surface. Everything except register, login
// and refresh sits behind the access-token middleware.
func RegisterAPI(r *router.Router, d Deps) {
	api := r.Group("/api")

	// Credential endpoints get a tighter rate limit than the rest.
	authLimit := middleware.RateLimit(10, time.Minute)
	api.Post("/register", "auth.register", ctx.Wrap(d.Auth.Register), authLimit)
	api.Post("/login", "auth.login", ctx.Wrap(d.Auth.Login), authLimit)
	api.Post("/refresh", "auth.refresh", ctx.Wrap(d.Auth.Refresh), authLimit)

	protected := api.Group("", middleware.Auth)
	protected.Get("/profile", "auth.profile", ctx.Wrap(d.Auth.Profile))
	protected.Post("/logout", "auth.logout", ctx.Wrap(d.Auth.Logout))

	protected.Get("/folders", "folders.index", ctx.Wrap(d.Folders.Index))
	protected.Post("/folders", "folders.store", ctx.Wrap(d.Folders.Store))
	protected.Patch("/folders/{id}", "folders.rename", ctx.Wrap(d.Folders.Rename))
	protected.Patch("/folders/{id}/move", "folders.move", ctx.Wrap(d.Folders.Move))
	protected.Delete("/folders/{id}", "folders.destroy", ctx.Wrap(d.Folders.Destroy))
	protected.Get("/folders/{id}/path", "folders.path", ctx.Wrap(d.Folders.Path))

	protected.Post("/files", "files.upload", ctx.Wrap(d.Files.Upload))
	protected.Get("/files/{id}", "files.show", ctx.Wrap(d.Files.Show))
	protected.Get("/files/{id}/download", "files.download", ctx.Wrap(d.Files.Download))
	protected.Get("/files/{id}/preview", "files.preview", ctx.Wrap(d.Files.Preview))
	protected.Patch("/files/{id}", "files.rename", ctx.Wrap(d.Files.Rename))
	protected.Patch("/files/{id}/move", "files.move", ctx.Wrap(d.Files.Move))
	protected.Delete("/files/{id}", "files.destroy", ctx.Wrap(d.Files.Destroy))
	protected.Post("/files/{id}/link", "files.link", ctx.Wrap(d.Files.CreateLink))

	// Share links redeem outside /api and without auth; the token is the
	// credential. Rate limited since the endpoint is public.
	r.Get("/s/{token}", "files.shared", ctx.Wrap(d.Files.Shared), middleware.RateLimit(60, time.Minute))

	protected.Get("/ws", "ws.connect", ctx.Wrap(d.WS.Connect))
	if d.GraphQL != nil {
		protected.Post("/graphql", "graphql", d.GraphQL)
	}

	admin := protected.Group("/admin", rbac.HasRole(models.RoleAdmin))
	admin.Get("/users", "admin.users", ctx.Wrap(d.Admin.Users))
	admin.Post("/sweep", "admin.sweep", ctx.Wrap(d.Admin.Sweep))
}

// RegisterOps mounts the unauthenticated operational endpoints.
func RegisterOps(r *router.Router) {
	r.Get("/healthz", "health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())
}
