package routes

import (
	"net/http"

	adoptioncontrollers "github.com/angelmondragon/pawhaven-backend/api/controllers/adoptions"
	donationcontrollers "github.com/angelmondragon/pawhaven-backend/api/controllers/donations"
	lostcontrollers "github.com/angelmondragon/pawhaven-backend/api/controllers/lostreports"
	petcontrollers "github.com/angelmondragon/pawhaven-backend/api/controllers/pets"
	verificationcontrollers "github.com/angelmondragon/pawhaven-backend/api/controllers/verification"
	"github.com/angelmondragon/pawhaven-backend/api/middleware"
	"github.com/angelmondragon/pawhaven-backend/pkg/config"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
)

type scope int

const (
	scopePublic scope = iota
	scopeUser
	scopeStaff
)

var scopePrefixes = map[scope]string{
	scopePublic: "/api/public/v1",
	scopeUser:   "/api/v1",
	scopeStaff:  "/api/admin/v1",
}

// command binds a verb and noun to one HTTP endpoint.
type command struct {
	verb    string
	noun    string
	method  string
	path    string
	scope   scope
	handler http.HandlerFunc
	use     []func(http.Handler) http.Handler
}

type limiters struct {
	apply        func(http.Handler) http.Handler
	verification func(http.Handler) http.Handler
}

func commandTable(svcs Services, lim limiters, logg *logger.Logger) []command {
	return []command{
		{verb: "list", noun: "pet", method: http.MethodGet, path: "/pets", scope: scopePublic, handler: petcontrollers.List(svcs.Pets, logg)},
		{verb: "get", noun: "pet", method: http.MethodGet, path: "/pets/{petId}", scope: scopePublic, handler: petcontrollers.Detail(svcs.Pets, logg)},
		{verb: "views", noun: "pet", method: http.MethodGet, path: "/pets/{petId}/views", scope: scopePublic, handler: petcontrollers.Views(svcs.Views, logg)},

		{verb: "create", noun: "pet", method: http.MethodPost, path: "/pets", scope: scopeUser, handler: petcontrollers.Create(svcs.Pets, logg)},
		{verb: "apply", noun: "pet", method: http.MethodPost, path: "/pets/{petId}/apply", scope: scopeUser, handler: adoptioncontrollers.Apply(svcs.Adoptions, logg), use: []func(http.Handler) http.Handler{lim.apply}},
		{verb: "mark_lost", noun: "pet", method: http.MethodPost, path: "/pets/{petId}/mark_lost", scope: scopeUser, handler: petcontrollers.MarkLost(svcs.Pets, logg)},
		{verb: "set_status", noun: "pet", method: http.MethodPost, path: "/pets/{petId}/set_status", scope: scopeUser, handler: petcontrollers.SetStatus(svcs.Pets, logg)},

		{verb: "list", noun: "adoption", method: http.MethodGet, path: "/adoptions", scope: scopeUser, handler: adoptioncontrollers.List(svcs.Adoptions, logg)},
		{verb: "get", noun: "adoption", method: http.MethodGet, path: "/adoptions/{adoptionId}", scope: scopeUser, handler: adoptioncontrollers.Detail(svcs.Adoptions, logg)},
		{verb: "update_status", noun: "adoption", method: http.MethodPatch, path: "/adoptions/{adoptionId}", scope: scopeUser, handler: adoptioncontrollers.UpdateStatus(svcs.Adoptions, logg)},

		{verb: "create", noun: "donation", method: http.MethodPost, path: "/donations", scope: scopeUser, handler: donationcontrollers.Create(svcs.Donations, logg)},
		{verb: "list", noun: "donation", method: http.MethodGet, path: "/donations", scope: scopeUser, handler: donationcontrollers.List(svcs.Donations, logg)},
		{verb: "get", noun: "donation", method: http.MethodGet, path: "/donations/{donationId}", scope: scopeUser, handler: donationcontrollers.Detail(svcs.Donations, logg)},

		{verb: "create", noun: "lost_report", method: http.MethodPost, path: "/lost-reports", scope: scopeUser, handler: lostcontrollers.Create(svcs.LostReports, logg)},
		{verb: "list", noun: "lost_report", method: http.MethodGet, path: "/lost-reports", scope: scopeUser, handler: lostcontrollers.List(svcs.LostReports, logg)},
		{verb: "get", noun: "lost_report", method: http.MethodGet, path: "/lost-reports/{reportId}", scope: scopeUser, handler: lostcontrollers.Detail(svcs.LostReports, logg)},
		{verb: "update_status", noun: "lost_report", method: http.MethodPatch, path: "/lost-reports/{reportId}", scope: scopeUser, handler: lostcontrollers.UpdateStatus(svcs.LostReports, logg)},

		{verb: "issue", noun: "email_verification", method: http.MethodPost, path: "/verification/email", scope: scopeUser, handler: verificationcontrollers.IssueEmail(svcs.Verification, logg), use: []func(http.Handler) http.Handler{lim.verification}},
		{verb: "confirm", noun: "email_verification", method: http.MethodPost, path: "/verification/email/confirm", scope: scopeUser, handler: verificationcontrollers.ConfirmEmail(svcs.Verification, logg), use: []func(http.Handler) http.Handler{lim.verification}},

		{verb: "list", noun: "donation", method: http.MethodGet, path: "/donations", scope: scopeStaff, handler: donationcontrollers.List(svcs.Donations, logg)},
		{verb: "approve", noun: "donation", method: http.MethodPost, path: "/donations/{donationId}/approve", scope: scopeStaff, handler: donationcontrollers.Approve(svcs.Donations, logg)},
		{verb: "review", noun: "donation", method: http.MethodPost, path: "/donations/{donationId}/review", scope: scopeStaff, handler: donationcontrollers.Review(svcs.Donations, logg)},
		{verb: "reject", noun: "donation", method: http.MethodPost, path: "/donations/{donationId}/reject", scope: scopeStaff, handler: donationcontrollers.Reject(svcs.Donations, logg)},
		{verb: "close", noun: "donation", method: http.MethodPost, path: "/donations/{donationId}/close", scope: scopeStaff, handler: donationcontrollers.Close(svcs.Donations, logg)},
		{verb: "batch", noun: "donation", method: http.MethodPost, path: "/donations/actions/{verb}", scope: scopeStaff, handler: donationcontrollers.Batch(svcs.Donations, logg)},
	}
}

func newLimiters(cfg config.RateLimitConfig, store rateLimitStore, logg *logger.Logger) limiters {
	return limiters{
		apply:        middleware.RateLimit(middleware.NewRateLimitPolicy("apply", cfg.ApplyWindow, cfg.ApplyIPLimit, cfg.ApplyLimit), store, logg),
		verification: middleware.RateLimit(middleware.NewRateLimitPolicy("verification", cfg.VerificationWindow, 0, cfg.ConfirmLimit), store, logg),
	}
}
