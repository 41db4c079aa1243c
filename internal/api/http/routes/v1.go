package routes

import (
	"github.com/gin-gonic/gin"

	httpapi "github.com/GoSim-25-26J-441/erp-backend/internal/api/http"
	authhttp "github.com/GoSim-25-26J-441/erp-backend/internal/auth/http"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth/middleware"
	"github.com/GoSim-25-26J-441/erp-backend/internal/files"
	projecthttp "github.com/GoSim-25-26J-441/erp-backend/internal/projects/http"
	"github.com/GoSim-25-26J-441/erp-backend/internal/realtime"
	"github.com/GoSim-25-26J-441/erp-backend/internal/seed"
	"github.com/GoSim-25-26J-441/erp-backend/internal/users"
)

// APIDeps holds the feature handlers. A nil handler leaves its routes unmounted.
type APIDeps struct {
	Diagnostics *httpapi.DiagnosticsHandler
	Auth        *authhttp.Handler
	Accounts    *authhttp.AccountHandler
	Projects    *projecthttp.Handler
	Users       *users.Handler
	Files       *files.Handler
	Seed        *seed.Handler
	Hub         *realtime.Hub
}

// RegisterAPI mounts the feature routes. Authentication must already run on r.
func RegisterAPI(r *gin.Engine, dep APIDeps) {
	api := r.Group("/api")

	if dep.Diagnostics != nil {
		dep.Diagnostics.Register(api.Group("/test"))
	}
	if dep.Auth != nil {
		dep.Auth.Register(api.Group("/auth"))
	}
	if dep.Accounts != nil {
		dep.Accounts.Register(api.Group("/auth/account"))
	}
	if dep.Seed != nil {
		dep.Seed.Register(api.Group("/seeddata"))
	}

	tenant := api.Group("", middleware.RequireTenant())
	if dep.Projects != nil {
		dep.Projects.Register(tenant.Group("/projects"))
	}
	if dep.Users != nil {
		dep.Users.Register(tenant.Group("/users"))
	}
	if dep.Files != nil {
		dep.Files.Register(tenant.Group("/files"))
	}

	if dep.Hub != nil {
		dep.Hub.Register(r.Group("/hubs"))
	}
}
