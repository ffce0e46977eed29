package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sga-api/internal/middleware"
	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
)

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, rec
}

func TestActorFromContext(t *testing.T) {
	c, _ := testContext("/students")
	assert.Equal(t, policy.Actor{}, actorFromContext(c), "a missing actor yields the zero value")

	c.Set(middleware.ContextActorKey, policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: "t1"})
	actor := actorFromContext(c)
	assert.Equal(t, "u1", actor.UserID)
	assert.Equal(t, models.RoleTeacher, actor.Role)
}

func TestPaginationFromQueryDefaults(t *testing.T) {
	c, _ := testContext("/students")
	page, pageSize := paginationFromQuery(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, pageSize)

	c, _ = testContext("/students?page=3&page_size=50")
	page, pageSize = paginationFromQuery(c)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, pageSize)
}

func TestIntQuery(t *testing.T) {
	c, _ := testContext("/classes?semester=2&year=abc")
	semester := intQuery(c, "semester")
	assert.NotNil(t, semester)
	assert.Equal(t, 2, *semester)
	assert.Nil(t, intQuery(c, "year"), "a malformed value is treated as absent")
	assert.Nil(t, intQuery(c, "missing"))
}

func TestBoolQuery(t *testing.T) {
	c, _ := testContext("/courses?active=true&broken=yep")
	active := boolQuery(c, "active")
	assert.NotNil(t, active)
	assert.True(t, *active)
	assert.Nil(t, boolQuery(c, "broken"))
	assert.Nil(t, boolQuery(c, "missing"))
}
