package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sga-api/internal/models"
)

func TestAllows(t *testing.T) {
	tests := []struct {
		name  string
		role  models.UserRole
		class OperationClass
		want  bool
	}{
		{"admin only allows admin", models.RoleAdmin, AdminOnly, true},
		{"admin only rejects coordinator", models.RoleCoordinator, AdminOnly, false},
		{"coordinator class allows coordinator", models.RoleCoordinator, CoordinatorOrAdmin, true},
		{"coordinator class rejects teacher", models.RoleTeacher, CoordinatorOrAdmin, false},
		{"teacher class allows teacher", models.RoleTeacher, TeacherOrAbove, true},
		{"teacher class rejects student", models.RoleStudent, TeacherOrAbove, false},
		{"self or staff allows student", models.RoleStudent, SelfOrStaff, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allows(tt.role, tt.class))
		})
	}
}

func TestCanManageClass(t *testing.T) {
	assert.True(t, CanManageClass(Actor{Role: models.RoleAdmin}, "t-1"))
	assert.True(t, CanManageClass(Actor{Role: models.RoleCoordinator}, "t-1"))
	assert.True(t, CanManageClass(Actor{Role: models.RoleTeacher, TeacherID: "t-1"}, "t-1"))
	assert.False(t, CanManageClass(Actor{Role: models.RoleTeacher, TeacherID: "t-2"}, "t-1"))
	assert.False(t, CanManageClass(Actor{Role: models.RoleTeacher}, "t-1"))
	assert.False(t, CanManageClass(Actor{Role: models.RoleStudent, StudentID: "s-1"}, "t-1"))
}

func TestCanViewStudent(t *testing.T) {
	assert.True(t, CanViewStudent(Actor{Role: models.RoleTeacher, TeacherID: "t-1"}, "s-1"))
	assert.True(t, CanViewStudent(Actor{Role: models.RoleStudent, StudentID: "s-1"}, "s-1"))
	assert.False(t, CanViewStudent(Actor{Role: models.RoleStudent, StudentID: "s-2"}, "s-1"))
	assert.False(t, CanViewStudent(Actor{Role: models.RoleStudent}, "s-1"))
}
