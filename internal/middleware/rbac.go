package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/access"
	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/response"
)

// RBAC enforces a static role allow-list. Roles are compared after
// normalisation, so "Admin" and "ADMIN" are the same role.
func RBAC(allowed ...access.Role) gin.HandlerFunc {
	allowedRoles := make(map[access.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedRoles[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[access.NormalizeRole(string(claims.Role))]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// AdminOnly admits ADMIN and SUPERADMIN.
func AdminOnly() gin.HandlerFunc {
	return RBAC(access.RoleAdmin, access.RoleSuperAdmin)
}
