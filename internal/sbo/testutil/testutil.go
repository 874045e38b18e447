// Package testutil provides the shared test harness: an isolated postgres
// schema per test, a gin router with JWT auth, and request helpers.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/middleware"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/repository"
)

const (
	TestSchema = "test_sbo"
	JWTSecret  = "sbo-workflow-test-jwt-secret"
)

// TestEnv holds test environment resources.
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the project root directory by looking for go.mod.
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// SetupTestDB creates a test database connection using a dedicated schema.
// Each test gets an isolated schema that is dropped on cleanup.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "sbo")
	password := getEnv("DB_PASSWORD", "sbo123")
	dbname := getEnv("DB_NAME", "sbo_workflow")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// search_path in the DSN so every pooled connection uses the test schema.
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&repository.ProcessRecord{},
		&repository.NoteRecord{},
		&repository.PCREmailRecord{},
		&entity.Org{},
		&entity.User{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router.
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group guarded by JWT auth.
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for tests.
func GenerateTestToken(userID int64, name, email string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", userID),
		"uid":   userID,
		"name":  name,
		"email": email,
		"roles": roles,
		"iss":   "sbo-workflow",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default admin test user.
func DefaultTestToken() string {
	return GenerateTestToken(1, "Test Admin", "admin@test.mil", []string{"admin"})
}

// DoRequest executes an HTTP request against the test router.
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON envelope into a map.
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedTestUser creates a directory user.
func SeedTestUser(t *testing.T, db *gorm.DB, name, email string) *entity.User {
	t.Helper()
	user := &entity.User{
		Name:      name,
		Email:     email,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed test user: %v", err)
	}
	return user
}

// SeedTestOrgs creates a minimal org reference set.
func SeedTestOrgs(t *testing.T, db *gorm.DB) []entity.Org {
	t.Helper()
	orgs := []entity.Org{
		{Title: "AFLCMC/HB", ParentOrg: entity.ParentOrgAFMC},
		{Title: "ACC/A7K", ParentOrg: entity.ParentOrgACC},
	}
	if err := db.Create(&orgs).Error; err != nil {
		t.Fatalf("Failed to seed test orgs: %v", err)
	}
	return orgs
}

// ValidProcess returns a process that passes every field rule, placed at
// Buyer Review.
func ValidProcess() *entity.Process {
	now := time.Now().UTC()
	return &entity.Process{
		ProcessType:            entity.ProcessTypeDD2579,
		SolicitationNumber:     "FA8601-24-R-0001",
		ProgramName:            "Depot Maintenance Support",
		ParentOrg:              entity.ParentOrgAFMC,
		Org:                    "AFLCMC/HB",
		SboDuration:            12,
		ContractValueDollars:   "$1,250,000.00",
		SetAsideRecommendation: entity.SetAsideSmallBusiness,
		Buyer:                  entity.Person{ID: 1, Display: "Test Buyer", Email: "buyer@test.mil"},
		ContractingOfficer:     entity.Person{ID: 2, Display: "Test CO", Email: "co@test.mil"},
		SmallBusinessProfessional: entity.Person{
			ID: 3, Display: "Test SBP", Email: "sbp@test.mil",
		},
		SBAPCR:                entity.Person{ID: 4, Display: "Test PCR", Email: "pcr@test.mil"},
		CurrentAssignee:       entity.Person{ID: 1, Display: "Test Buyer", Email: "buyer@test.mil"},
		CurrentStage:          entity.StageBuyerReview,
		CurrentStageStartDate: now,
		StageWindows: map[entity.Stage]entity.StageWindow{
			entity.StageBuyerReview: {Start: &now},
		},
	}
}
