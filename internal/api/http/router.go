package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/planmeet/internal/api/http/handlers"
	"github.com/spec-kit/planmeet/internal/auth"
	"github.com/spec-kit/planmeet/internal/observability"
)

// DirectoryRoutes bundles dependencies for the directory service routes.
type DirectoryRoutes struct {
	Health         *handlers.HealthHandler
	Session        *handlers.SessionHandler
	Directory      *handlers.DirectoryHandler
	AuthMiddleware *auth.AuthMiddleware
	Policy         *auth.Policy
	Metrics        *observability.Metrics
	LoginLimiter   fiber.Handler
}

// ChecklistRoutes bundles dependencies for the checklist service routes.
type ChecklistRoutes struct {
	Health         *handlers.HealthHandler
	Checklists     *handlers.ChecklistHandler
	Submissions    *handlers.SubmissionHandler
	AuthMiddleware *auth.AuthMiddleware
	Policy         *auth.Policy
	Metrics        *observability.Metrics
}

// RegisterDirectoryRoutes wires the directory/session service.
func RegisterDirectoryRoutes(app *fiber.App, cfg DirectoryRoutes) {
	registerProbes(app, cfg.Health, cfg.Metrics)

	login := []fiber.Handler{cfg.Session.Login}
	if cfg.LoginLimiter != nil {
		login = append([]fiber.Handler{cfg.LoginLimiter}, login...)
	}
	app.Post("/auth/login", login...)

	authn := cfg.AuthMiddleware.Handle
	view := cfg.Policy.Require(auth.ActionViewDirectory)
	manage := cfg.Policy.Require(auth.ActionManageDirectory)

	app.Get("/user", authn, cfg.Policy.Require(auth.ActionViewSession), cfg.Session.CurrentUser)
	app.Get("/getUserData", authn, view, cfg.Directory.UserData)
	app.Get("/getUserRoles", authn, view, cfg.Directory.UserRoles)
	app.Get("/getUserGroups", authn, view, cfg.Directory.UserGroups)
	app.Get("/project/members", authn, view, cfg.Directory.Members)
	app.Get("/groups", authn, view, cfg.Directory.Groups)
	app.Get("/roles", authn, view, cfg.Directory.Roles)

	app.Post("/assign-team", authn, manage, cfg.Directory.AssignTeam)
	app.Post("/delete-group", authn, manage, cfg.Directory.RemoveGroup)
	app.Post("/assign-role", authn, manage, cfg.Directory.AssignRole)
	app.Post("/delete-role", authn, manage, cfg.Directory.RemoveRole)
}

// RegisterChecklistRoutes wires the checklist service.
func RegisterChecklistRoutes(app *fiber.App, cfg ChecklistRoutes) {
	registerProbes(app, cfg.Health, cfg.Metrics)

	authn := cfg.AuthMiddleware.Handle
	require := cfg.Policy.Require

	checklists := app.Group("/checklists", authn)
	checklists.Post("/", require(auth.ActionCreateChecklist), cfg.Checklists.Create)
	checklists.Get("/", require(auth.ActionViewOwnChecklists), cfg.Checklists.List)
	checklists.Get("/team/:team", require(auth.ActionViewTeamBoard), cfg.Checklists.ListTeam)
	checklists.Put("/:id/:assignedTeam", require(auth.ActionUpdateChecklistStatus), cfg.Checklists.UpdateStatus)
	checklists.Put("/:id/:assignedTeam/edit", require(auth.ActionEditChecklist), cfg.Checklists.UpdateContent)
	checklists.Delete("/:id/:assignedTeam", require(auth.ActionDeleteChecklist), cfg.Checklists.Delete)

	app.Post("/submission/:assignedTeam", authn, require(auth.ActionSubmitTeam), cfg.Submissions.Submit)

	submissions := app.Group("/submissions", authn)
	submissions.Get("/", require(auth.ActionViewAllSubmissions), cfg.Submissions.ListAll)
	submissions.Get("/:assignedTeam", require(auth.ActionViewTeamSubmissions), cfg.Submissions.ListTeam)
	submissions.Put("/:id/:assignedTeam/edit", require(auth.ActionEditSubmission), cfg.Submissions.UpdateContent)
}

func registerProbes(app *fiber.App, health *handlers.HealthHandler, metrics *observability.Metrics) {
	app.Get("/", health.Banner)
	app.Get("/health/live", health.Live)
	app.Get("/health/ready", health.Ready)
	if metrics != nil {
		app.Get("/metrics", metrics.Handler())
	}
}
