// internal/tests/api_test.go
package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/catalog-backend/internal/config"
	"github.com/javajoker/catalog-backend/internal/database"
	"github.com/javajoker/catalog-backend/internal/i18n"
	"github.com/javajoker/catalog-backend/internal/models"
	"github.com/javajoker/catalog-backend/internal/router"
)

type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	token  string
}

func (suite *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(i18n.Initialize("en"))
}

func (suite *APITestSuite) SetupTest() {
	cfg := &config.Config{
		Environment: "test",
		Database: config.DatabaseConfig{
			Driver:   config.DriverSQLite,
			Path:     "file::memory:",
			LogLevel: "silent",
		},
		JWT:       config.JWTConfig{SecretKey: "api-test-secret", Issuer: "catalog-test", AccessTokenTTL: 60},
		RateLimit: config.RateLimitConfig{TokenPerMinute: 600, TokenBurst: 100},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	db, err := database.Initialize(cfg.Database)
	suite.Require().NoError(err)
	suite.Require().NoError(database.RunMigrations(db))

	suite.db = db
	suite.router = router.Initialize(db, cfg)

	w := suite.request(http.MethodPost, "/v1/user", map[string]interface{}{
		"name": "Admin", "email": "admin@example.com", "password": "secret",
	}, "")
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.request(http.MethodPost, "/v1/user/token", map[string]interface{}{
		"email": "admin@example.com", "password": "secret",
	}, "")
	suite.Require().Equal(http.StatusOK, w.Code)

	var body map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.token = body["token"]
	suite.Require().NotEmpty(suite.token)
}

func (suite *APITestSuite) TearDownTest() {
	database.Close(suite.db)
}

func (suite *APITestSuite) request(method, path string, payload interface{}, token string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		suite.Require().NoError(json.NewEncoder(&body).Encode(payload))
	}

	req, _ := http.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func (suite *APITestSuite) errorCode(w *httptest.ResponseRecorder) string {
	response := suite.decode(w)
	assert.Equal(suite.T(), false, response["success"])
	return response["error"].(map[string]interface{})["code"].(string)
}

func (suite *APITestSuite) createCategory(slug string) int {
	w := suite.request(http.MethodPost, "/v1/category", map[string]interface{}{
		"name": slug, "slug": slug, "use_in_menu": true,
	}, suite.token)
	suite.Require().Equal(http.StatusCreated, w.Code)
	return int(suite.decode(w)["id"].(float64))
}

func (suite *APITestSuite) TestHealth() {
	w := suite.request(http.MethodGet, "/health", nil, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "healthy", suite.decode(w)["status"])
}

func (suite *APITestSuite) TestUnknownRoute() {
	w := suite.request(http.MethodGet, "/v1/nothing", nil, "")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "NOT_FOUND", suite.errorCode(w))
}

func (suite *APITestSuite) TestUserEndpoints() {
	w := suite.request(http.MethodPost, "/v1/user", map[string]interface{}{
		"name": "Other", "email": "admin@example.com", "password": "x",
	}, "")
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	assert.Equal(suite.T(), "CONFLICT", suite.errorCode(w))

	w = suite.request(http.MethodPost, "/v1/user", map[string]interface{}{
		"name": "Bad", "email": "nope", "password": "x",
	}, "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", suite.errorCode(w))

	w = suite.request(http.MethodPost, "/v1/user/token", map[string]interface{}{
		"email": "admin@example.com", "password": "wrong",
	}, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w = suite.request(http.MethodPost, "/v1/user", map[string]interface{}{
		"name": "Carla", "email": "carla@example.com", "password": "pw",
	}, "")
	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	body := suite.decode(w)
	assert.Equal(suite.T(), "carla@example.com", body["email"])
	assert.NotContains(suite.T(), body, "password")
	assert.NotContains(suite.T(), body, "password_hash")
}

func (suite *APITestSuite) TestUserAccountEndpoints() {
	w := suite.request(http.MethodGet, "/v1/user/1", nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), "admin@example.com", suite.decode(w)["email"])

	w = suite.request(http.MethodPut, "/v1/user/1", map[string]interface{}{"name": "Root"}, suite.token)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)

	w = suite.request(http.MethodPost, "/v1/user", map[string]interface{}{
		"name": "Dora", "email": "dora@example.com", "password": "pw",
	}, "")
	suite.Require().Equal(http.StatusCreated, w.Code)
	doraID := int(suite.decode(w)["id"].(float64))

	w = suite.request(http.MethodDelete, fmt.Sprintf("/v1/user/%d", doraID), nil, suite.token)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
	assert.Equal(suite.T(), "FORBIDDEN", suite.errorCode(w))

	w = suite.request(http.MethodGet, "/v1/user/999", nil, "")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestProtectedRoutesRequireToken() {
	routes := []struct{ method, path string }{
		{http.MethodPost, "/v1/product"},
		{http.MethodPut, "/v1/product/1"},
		{http.MethodDelete, "/v1/product/1"},
		{http.MethodPost, "/v1/category"},
		{http.MethodPut, "/v1/category/1"},
		{http.MethodDelete, "/v1/category/1"},
		{http.MethodPut, "/v1/user/1"},
		{http.MethodDelete, "/v1/user/1"},
	}

	for _, route := range routes {
		w := suite.request(route.method, route.path, map[string]interface{}{}, "")
		assert.Equal(suite.T(), http.StatusUnauthorized, w.Code, route.path)

		w = suite.request(route.method, route.path, map[string]interface{}{}, "forged.token.value")
		assert.Equal(suite.T(), http.StatusUnauthorized, w.Code, route.path)
	}
}

func (suite *APITestSuite) TestProductLifecycle() {
	categoryID := suite.createCategory("tees")

	w := suite.request(http.MethodPost, "/v1/product", map[string]interface{}{
		"name":        "Tee",
		"slug":        "tee",
		"price":       19.9,
		"description": "Plain tee",
		"images":      []map[string]string{{"type": "image/png", "content": "aW1n"}},
		"options": []map[string]interface{}{
			{"title": "Size", "type": "text", "values": []interface{}{"P", 42, true}},
		},
		"category_ids": []int{categoryID},
	}, suite.token)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	created := suite.decode(w)
	id := int(created["id"].(float64))
	assert.Equal(suite.T(), true, created["enabled"])
	options := created["options"].([]interface{})
	suite.Require().Len(options, 1)
	option := options[0].(map[string]interface{})
	assert.Equal(suite.T(), []interface{}{"P", "42", "true"}, option["values"])
	assert.Equal(suite.T(), "square", option["shape"])

	w = suite.request(http.MethodPost, "/v1/product", map[string]interface{}{
		"name": "Tee 2", "slug": "tee", "price": 1,
	}, suite.token)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	path := fmt.Sprintf("/v1/product/%d", id)
	w = suite.request(http.MethodPut, path, map[string]interface{}{
		"stock": 5,
		"options": []map[string]interface{}{
			{"id": option["id"], "values": []string{"M", "G"}},
		},
	}, suite.token)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code, w.Body.String())

	w = suite.request(http.MethodGet, path, nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	fetched := suite.decode(w)
	assert.Equal(suite.T(), float64(5), fetched["stock"])
	fetchedOption := fetched["options"].([]interface{})[0].(map[string]interface{})
	assert.Equal(suite.T(), []interface{}{"M", "G"}, fetchedOption["values"])
	assert.Equal(suite.T(), []interface{}{float64(categoryID)}, fetched["category_ids"])

	w = suite.request(http.MethodGet, fmt.Sprintf("/v1/product/search?match=Tee&option[%d]=G&fields=name", int(option["id"].(float64))), nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	search := suite.decode(w)
	assert.Equal(suite.T(), float64(1), search["total"])
	assert.Equal(suite.T(), float64(12), search["limit"])
	assert.Equal(suite.T(), float64(1), search["page"])
	hit := search["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(suite.T(), "Tee", hit["name"])
	assert.NotContains(suite.T(), hit, "price")
	assert.Equal(suite.T(), "1", w.Header().Get("X-Total-Count"))

	w = suite.request(http.MethodPut, path, map[string]interface{}{
		"price":  -3,
		"images": []map[string]interface{}{{"id": 9999, "deleted": true}},
	}, suite.token)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", suite.errorCode(w))

	w = suite.request(http.MethodDelete, path, nil, suite.token)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)

	w = suite.request(http.MethodGet, path, nil, "")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.request(http.MethodDelete, path, nil, suite.token)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	var values int64
	suite.Require().NoError(suite.db.Model(&models.ProductOptionValue{}).Count(&values).Error)
	assert.Equal(suite.T(), int64(0), values)
}

func (suite *APITestSuite) TestProductSearchValidation() {
	for _, query := range []string{"limit=0", "page=0", "price_range=9-1", "price_range=x", "option[3]="} {
		w := suite.request(http.MethodGet, "/v1/product/search?"+query, nil, "")
		assert.Equal(suite.T(), http.StatusBadRequest, w.Code, query)
	}

	w := suite.request(http.MethodGet, "/v1/product/search?limit=-1", nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	search := suite.decode(w)
	assert.Equal(suite.T(), float64(-1), search["limit"])
	assert.Equal(suite.T(), []interface{}{}, search["data"])
}

func (suite *APITestSuite) TestProductCreateRollsBackOnUnknownCategory() {
	w := suite.request(http.MethodPost, "/v1/product", map[string]interface{}{
		"name": "Ghost", "slug": "ghost", "price": 1, "category_ids": []int{777},
	}, suite.token)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(suite.T(), int64(0), count)
}

func (suite *APITestSuite) TestCategoryEndpoints() {
	id := suite.createCategory("hats")
	path := fmt.Sprintf("/v1/category/%d", id)

	w := suite.request(http.MethodGet, path, nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(suite.T(), "hats", suite.decode(w)["slug"])

	w = suite.request(http.MethodPut, path, map[string]interface{}{"name": "Caps"}, suite.token)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)

	w = suite.request(http.MethodGet, "/v1/category/search?fields=name&use_in_menu=true", nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	search := suite.decode(w)
	assert.Equal(suite.T(), float64(1), search["total"])
	item := search["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(suite.T(), "Caps", item["name"])
	assert.NotContains(suite.T(), item, "slug")

	w = suite.request(http.MethodGet, "/v1/category/search?use_in_menu=perhaps", nil, "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodGet, "/v1/category/abc", nil, "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodDelete, path, nil, suite.token)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)

	w = suite.request(http.MethodGet, path, nil, "")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestLocalisedErrors() {
	req, _ := http.NewRequest(http.MethodGet, "/v1/product/999", nil)
	req.Header.Set("Accept-Language", "pt-BR")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	body := suite.decode(w)
	assert.Equal(suite.T(), "Produto não encontrado", body["error"].(map[string]interface{})["message"])
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
