package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sga-api/internal/middleware"
	"github.com/noah-isme/sga-api/internal/models"
)

// Handlers groups every HTTP handler for route registration.
type Handlers struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Institutions *InstitutionHandler
	Courses      *CourseHandler
	Subjects     *SubjectHandler
	Classes      *ClassHandler
	Students     *StudentHandler
	Teachers     *TeacherHandler
	Enrollments  *EnrollmentHandler
	Evaluations  *EvaluationHandler
	Grades       *GradeHandler
	Attendance   *AttendanceHandler
	Reports      *ReportHandler
	Exports      *ExportHandler
}

// RegisterRoutes wires all endpoints under the given group. authRequired is
// the JWT middleware; role gates here are coarse, ownership rules live in the
// services.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, authRequired gin.HandlerFunc) {
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator, models.RoleTeacher)
	coordinators := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator)
	admins := middleware.RequireRoles(models.RoleAdmin)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)

		auth.POST("/logout-all", authRequired, h.Auth.LogoutAll)
		auth.GET("/me", authRequired, h.Auth.Me)
		auth.PUT("/password", authRequired, h.Auth.ChangePassword)
	}

	users := api.Group("/users", authRequired)
	{
		users.POST("", admins, h.Users.Create)
		users.GET("", admins, h.Users.List)
		users.GET("/:id", h.Users.Get)
		users.PUT("/:id", admins, h.Users.Update)
		users.DELETE("/:id", admins, h.Users.Deactivate)
	}

	institutions := api.Group("/institutions", authRequired)
	{
		institutions.POST("", admins, h.Institutions.Create)
		institutions.GET("", h.Institutions.List)
		institutions.GET("/:id", h.Institutions.Get)
		institutions.PUT("/:id", admins, h.Institutions.Update)
		institutions.DELETE("/:id", admins, h.Institutions.Deactivate)
	}

	courses := api.Group("/courses", authRequired)
	{
		courses.POST("", admins, h.Courses.Create)
		courses.GET("", h.Courses.List)
		courses.GET("/:id", h.Courses.Get)
		courses.PUT("/:id", admins, h.Courses.Update)
		courses.DELETE("/:id", admins, h.Courses.Deactivate)
	}

	subjects := api.Group("/subjects", authRequired)
	{
		subjects.POST("", coordinators, h.Subjects.Create)
		subjects.GET("", h.Subjects.List)
		subjects.GET("/:id", h.Subjects.Get)
		subjects.PUT("/:id", coordinators, h.Subjects.Update)
		subjects.DELETE("/:id", coordinators, h.Subjects.Deactivate)
	}

	classes := api.Group("/classes", authRequired)
	{
		classes.POST("", coordinators, h.Classes.Create)
		classes.GET("", h.Classes.List)
		classes.GET("/:id", h.Classes.Get)
		classes.PUT("/:id", coordinators, h.Classes.Update)
		classes.PUT("/:id/status", coordinators, h.Classes.ChangeStatus)
		classes.GET("/:id/evaluations", h.Classes.Evaluations)
		classes.GET("/:id/enrollments", staff, h.Classes.Enrollments)
		classes.GET("/:id/gradebook", staff, h.Grades.Gradebook)
		classes.GET("/:id/gradebook/csv", staff, h.Exports.GradebookCSV)
		classes.GET("/:id/pending-grades", staff, h.Grades.PendingGrades)
		classes.GET("/:id/summary", staff, h.Reports.ClassSummary)
	}

	students := api.Group("/students", authRequired)
	{
		students.POST("", coordinators, h.Students.Create)
		students.GET("", staff, h.Students.List)
		students.GET("/:id", h.Students.Get)
		students.PUT("/:id", coordinators, h.Students.Update)
		students.PUT("/:id/status", coordinators, h.Students.ChangeStatus)
		students.GET("/:id/enrollments", h.Students.Enrollments)
		students.GET("/:id/transcript", h.Students.Transcript)
		students.GET("/:id/transcript/pdf", h.Exports.TranscriptPDF)
	}

	teachers := api.Group("/teachers", authRequired)
	{
		teachers.POST("", admins, h.Teachers.Create)
		teachers.GET("", coordinators, h.Teachers.List)
		teachers.GET("/:id", staff, h.Teachers.Get)
		teachers.PUT("/:id", admins, h.Teachers.Update)
		teachers.PUT("/:id/status", admins, h.Teachers.ChangeStatus)
		teachers.GET("/:id/workload", staff, h.Teachers.Workload)
	}

	enrollments := api.Group("/enrollments", authRequired)
	{
		enrollments.POST("", coordinators, h.Enrollments.Enroll)
		enrollments.GET("", h.Enrollments.List)
		enrollments.GET("/:id", h.Enrollments.Get)
		enrollments.PUT("/:id/status", coordinators, h.Enrollments.UpdateStatus)
		enrollments.GET("/:id/grades", h.Enrollments.Grades)
		enrollments.GET("/:id/attendance", h.Enrollments.Attendance)
		enrollments.GET("/:id/attendance/summary", h.Enrollments.AttendanceSummary)
	}

	evaluations := api.Group("/evaluations", authRequired)
	{
		evaluations.POST("", staff, h.Evaluations.Create)
		evaluations.GET("/:id", h.Evaluations.Get)
		evaluations.PUT("/:id", staff, h.Evaluations.Update)
		evaluations.DELETE("/:id", staff, h.Evaluations.Delete)
	}

	grades := api.Group("/grades", authRequired)
	{
		grades.PUT("", staff, h.Grades.Upsert)
		grades.PUT("/batch", staff, h.Grades.BatchUpsert)
		grades.DELETE("/:id", staff, h.Grades.Delete)
	}

	attendance := api.Group("/attendance", authRequired)
	{
		attendance.POST("", staff, h.Attendance.Record)
		attendance.PUT("/:id", staff, h.Attendance.Update)
		attendance.DELETE("/:id", staff, h.Attendance.Delete)
	}

	reports := api.Group("/reports", authRequired)
	{
		reports.GET("/dashboard", h.Reports.Dashboard)
		reports.GET("/classes", staff, h.Reports.ClassStats)
		reports.GET("/students", staff, h.Reports.StudentStats)
		reports.GET("/courses", staff, h.Reports.CourseStats)
		reports.GET("/performance", staff, h.Reports.Performance)
		reports.GET("/system", h.Reports.SystemMetrics)
	}
}
