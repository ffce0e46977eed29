package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sga-api/api/swagger"
	"github.com/noah-isme/sga-api/internal/handler"
	"github.com/noah-isme/sga-api/internal/middleware"
	"github.com/noah-isme/sga-api/internal/repository"
	"github.com/noah-isme/sga-api/internal/service"
	"github.com/noah-isme/sga-api/pkg/cache"
	"github.com/noah-isme/sga-api/pkg/config"
	"github.com/noah-isme/sga-api/pkg/database"
	"github.com/noah-isme/sga-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sga-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sga-api/pkg/middleware/requestid"
)

// @title SGA API
// @version 1.0.0
// @description Academic records management backend
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	userRepo := repository.NewUserRepository(db)
	institutionRepo := repository.NewInstitutionRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassGroupRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	reportRepo := repository.NewReportRepository(db)
	sessions := repository.NewSessionStore(redisClient)

	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, sessions, cfg.JWT, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	institutionSvc := service.NewInstitutionService(institutionRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, institutionRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, courseRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, subjectRepo, teacherRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, userRepo, courseRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, userRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, classRepo, validate, logr)
	evaluationSvc := service.NewEvaluationService(evaluationRepo, classRepo, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, enrollmentRepo, evaluationRepo, classRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, enrollmentRepo, classRepo, validate, logr)
	transcriptSvc := service.NewTranscriptService(studentRepo, enrollmentRepo, logr)
	reportSvc := service.NewReportService(reportRepo, gradeRepo, attendanceRepo, classRepo, evaluationRepo, teacherRepo, courseRepo, logr)
	exportSvc := service.NewExportService(transcriptSvc, gradeSvc, cfg.Export, logr)
	metricsSvc := service.NewMetricsService()

	handlers := handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc, userSvc),
		Users:        handler.NewUserHandler(userSvc),
		Institutions: handler.NewInstitutionHandler(institutionSvc),
		Courses:      handler.NewCourseHandler(courseSvc),
		Subjects:     handler.NewSubjectHandler(subjectSvc),
		Classes:      handler.NewClassHandler(classSvc, evaluationSvc, enrollmentSvc),
		Students:     handler.NewStudentHandler(studentSvc, enrollmentSvc, transcriptSvc),
		Teachers:     handler.NewTeacherHandler(teacherSvc, reportSvc),
		Enrollments:  handler.NewEnrollmentHandler(enrollmentSvc, gradeSvc, attendanceSvc),
		Evaluations:  handler.NewEvaluationHandler(evaluationSvc),
		Grades:       handler.NewGradeHandler(gradeSvc, metricsSvc),
		Attendance:   handler.NewAttendanceHandler(attendanceSvc),
		Reports:      handler.NewReportHandler(reportSvc, metricsSvc),
		Exports:      handler.NewExportHandler(exportSvc),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		start := time.Now()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "postgres unavailable"})
			return
		}
		metricsSvc.ObserveDBQuery("ping", time.Since(start))
		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authRequired := middleware.JWT(authSvc, teacherRepo, studentRepo)
	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handlers, authRequired)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
