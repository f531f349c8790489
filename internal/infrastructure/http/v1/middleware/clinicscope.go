package middleware

import (
	"github.com/gin-gonic/gin"

	"chequedentista/internal/core/appctx"
	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/tenant"
	"chequedentista/internal/domain/clinic"
)

// ClinicScope resolves the authenticated user's clinic and stores it on
// the request context. Every repository read below this point is scoped
// to that clinic. Requires Auth to have run first.
func ClinicScope(clinics *clinic.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := appctx.UserID(c.Request.Context())
		if userID == "" {
			abortUnauthorized(c, "authentication required")
			return
		}

		profile, err := clinics.ResolveProfile(c.Request.Context(), userID)
		if err != nil {
			if apperror.IsNotFound(err) {
				abortUnauthorized(c, "no clinic membership")
				return
			}
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx := tenant.WithClinic(c.Request.Context(), &tenant.Clinic{ID: profile.ClinicID})
		c.Request = c.Request.WithContext(ctx)

		c.Set("clinic_id", profile.ClinicID.String())

		c.Next()
	}
}
