// Package policy decides who may perform which operation. Every service
// calls it explicitly at the top of an operation instead of relying on
// router middleware, so the rule is visible next to the code it guards.
package policy

import "github.com/noah-isme/sga-api/internal/models"

// OperationClass buckets operations by the minimum role they require.
type OperationClass int

const (
	// AdminOnly covers institution, course and user administration.
	AdminOnly OperationClass = iota
	// CoordinatorOrAdmin covers subject, class group, student and teacher
	// management.
	CoordinatorOrAdmin
	// TeacherOrAbove covers evaluations, grades and attendance.
	TeacherOrAbove
	// SelfOrStaff covers reads of a student's own records.
	SelfOrStaff
)

// Actor is the authenticated principal performing an operation.
type Actor struct {
	UserID    string
	Role      models.UserRole
	TeacherID string
	StudentID string
}

// Allows reports whether the actor's role satisfies the operation class.
func Allows(role models.UserRole, class OperationClass) bool {
	switch class {
	case AdminOnly:
		return role == models.RoleAdmin
	case CoordinatorOrAdmin:
		return role == models.RoleAdmin || role == models.RoleCoordinator
	case TeacherOrAbove:
		return role == models.RoleAdmin || role == models.RoleCoordinator || role == models.RoleTeacher
	case SelfOrStaff:
		return true
	}
	return false
}

// CanManageClass reports whether the actor may mutate evaluations, grades or
// attendance of a class group. A teacher only manages their own classes.
func CanManageClass(actor Actor, classTeacherID string) bool {
	switch actor.Role {
	case models.RoleAdmin, models.RoleCoordinator:
		return true
	case models.RoleTeacher:
		return actor.TeacherID != "" && actor.TeacherID == classTeacherID
	}
	return false
}

// CanViewStudent reports whether the actor may read a student's enrollments,
// grades, attendance or transcript. Students only see themselves.
func CanViewStudent(actor Actor, studentID string) bool {
	switch actor.Role {
	case models.RoleAdmin, models.RoleCoordinator, models.RoleTeacher:
		return true
	case models.RoleStudent:
		return actor.StudentID != "" && actor.StudentID == studentID
	}
	return false
}
