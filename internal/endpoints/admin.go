package endpoints

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/jobs"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/middlewares"
)

// Admin serves maintenance routes that sit outside the v1 dispatcher.
type Admin struct {
	svc  *Service
	auth middlewares.Authorizer
}

// NewAdmin builds the admin routes. auth is usually the api.Dispatcher.
func NewAdmin(svc *Service, auth middlewares.Authorizer) *Admin {
	return &Admin{svc: svc, auth: auth}
}

func (a *Admin) Routes(r internal.Router) {
	r.Group(func(r internal.Router) {
		r.POST("/api/admin/cache/clear", a.clearCache,
			middlewares.RequireGroup(a.auth, "admin"))
		r.POST("/api/admin/support_email/{id}/resend", a.resendSupportEmail,
			middlewares.RequirePermission(a.auth, "process-support-emails"))
	})
}

func (a *Admin) clearCache(c internal.Context) error {
	if err := a.svc.cache.Clear(c); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	c.LogInfo("cache cleared")
	return c.NoContent(http.StatusNoContent)
}

// resendSupportEmail marks the email unsent and queues it again.
func (a *Admin) resendSupportEmail(c internal.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return api.ParamError(api.CodeBadFormat, "id")
	}
	if a.svc.jobs == nil {
		return ErrJobsDisabled
	}

	tag, err := a.svc.db.Exec(c, `UPDATE support_email SET sent = NULL WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("reset support email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return api.ParamError("no-such-support-email", "id")
	}
	if err := a.svc.jobs.Enqueue(c, jobs.SendSupportEmailName, jobs.SupportEmailPayload{ID: id}); err != nil {
		return fmt.Errorf("enqueue support email: %w", err)
	}
	return c.JSON(http.StatusAccepted, Saved{ID: id})
}
