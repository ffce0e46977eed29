package middleware

import (
	"context"
	"database/sql"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	"github.com/noah-isme/sga-api/internal/service"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
	"github.com/noah-isme/sga-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// ContextActorKey is the gin context key storing the resolved policy actor.
const ContextActorKey = "currentActor"

type teacherResolver interface {
	FindByUserID(ctx context.Context, userID string) (*models.TeacherDetail, error)
}

type studentResolver interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
}

// JWT protects routes by requiring a valid access token. On success it
// resolves the policy actor, including the teacher or student record behind
// the account, and stores both in the request context.
func JWT(authService *service.AuthService, teachers teacherResolver, students studentResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		actor := policy.Actor{UserID: claims.UserID, Role: claims.Role}
		switch claims.Role {
		case models.RoleTeacher:
			teacher, err := teachers.FindByUserID(c.Request.Context(), claims.UserID)
			if err != nil && err != sql.ErrNoRows {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve teacher"))
				c.Abort()
				return
			}
			if teacher != nil {
				actor.TeacherID = teacher.ID
			}
		case models.RoleStudent:
			student, err := students.FindByUserID(c.Request.Context(), claims.UserID)
			if err != nil && err != sql.ErrNoRows {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student"))
				c.Abort()
				return
			}
			if student != nil {
				actor.StudentID = student.ID
			}
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextActorKey, actor)
		c.Next()
	}
}
