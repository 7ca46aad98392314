package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/sejali/apps/api/echo"
	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/activity"
	"github.com/trezcool/sejali/core/assistant"
	"github.com/trezcool/sejali/core/audit"
	"github.com/trezcool/sejali/core/certificate"
	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/enrollment"
	"github.com/trezcool/sejali/core/report"
	"github.com/trezcool/sejali/core/session"
	"github.com/trezcool/sejali/core/user"
	aisvc "github.com/trezcool/sejali/services/ai"
	emailsvc "github.com/trezcool/sejali/services/email"
	logsvc "github.com/trezcool/sejali/services/logger"
	uploadsvc "github.com/trezcool/sejali/services/upload"
	inmemdb "github.com/trezcool/sejali/storage/database/inmem"
)

const testPassword = "s3cr3t-pwd"

var (
	db        *inmemdb.DB
	uploadDir string
	app     *echoapi.Server
	mailSvc *emailsvc.ConsoleServiceMock
	usrSvc  *user.Service
	crsSvc  *course.Service
	actSvc  *activity.Service
)

func TestMain(m *testing.M) {
	conf := core.NewTestConfig()
	uploadDir = conf.UploadDir
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	activity.InitValidators(validate, translator)
	course.InitValidators(validate, translator)

	// set up DB & services
	db = inmemdb.Open()
	mailSvc = emailsvc.NewConsoleServiceMock(conf, logger)
	auditSvc := audit.NewSyncService(inmemdb.NewAuditRepository(db), logger)
	sessions := session.NewManager(inmemdb.NewSessionStore(db), conf.Server.SessionTTL)

	usrSvc = user.NewService(inmemdb.NewUserRepository(db), auditSvc, mailSvc, sessions)
	actSvc = activity.NewService(inmemdb.NewActivityRepository(db), auditSvc, mailSvc)
	crsSvc = course.NewService(inmemdb.NewCourseRepository(db))
	certSvc := certificate.NewService(inmemdb.NewCertificateRepository(db), usrSvc, crsSvc, auditSvc, mailSvc)
	enrSvc := enrollment.NewService(inmemdb.NewEnrollmentRepository(db), crsSvc, certSvc, auditSvc)
	reportSvc := report.NewService(inmemdb.NewReportRepository(db))
	assistantSvc := assistant.NewService(aisvc.NewClient(conf), usrSvc, actSvc, crsSvc, enrSvc, certSvc)

	// set up server
	app = echoapi.NewServer(conf, nil, &echoapi.Deps{
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		Sessions:       sessions,
		Files:          uploadsvc.NewStore(conf),
		UserSvc:        usrSvc,
		AuditSvc:       auditSvc,
		ActivitySvc:    actSvc,
		CourseSvc:      crsSvc,
		EnrollmentSvc:  enrSvc,
		CertificateSvc: certSvc,
		ReportSvc:      reportSvc,
		AssistantSvc:   assistantSvc,
	})

	code := m.Run()
	_ = os.RemoveAll(conf.UploadDir)
	os.Exit(code)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
	wantErr  string
}

func resetDB(t *testing.T) {
	t.Helper()
	db.Reset()
	mailSvc.Reset()
}

func newAuthRequest(t *testing.T, method, path, token string, body interface{}) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

// newUploadForm builds a multipart POST with the fields and, when fileName is set, a file under fileField.
func newUploadForm(t *testing.T, path, token, fileField string, fields map[string]string, fileName string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req, httptest.NewRecorder()
}

// countUploads returns how many files the upload dir holds.
func countUploads(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(uploadDir)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return len(entries)
}

func serve(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newAuthRequest(t, method, path, token, body)
	app.ServeHTTP(rec, req)
	return rec
}

// runHTTPTests serves each test and checks its status code and, when set, its error message.
func runHTTPTests(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, tt.method, tt.path, tt.token, tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != "" {
				var herr httpErr
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &herr))
				require.Equal(t, tt.wantErr, herr.Error)
			}
		})
	}
}

func auditEntries(t *testing.T, supervisorToken string) []audit.Entry {
	t.Helper()
	rec := serve(t, http.MethodGet, "/api/audit-logs", supervisorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var entries []audit.Entry
	decode(t, rec, &entries)
	return entries
}

// findAuditEntry returns the most recent entry with the action on the entity.
func findAuditEntry(t *testing.T, entries []audit.Entry, action, entityID string) audit.Entry {
	t.Helper()
	for _, e := range entries {
		if e.Action == action && e.EntityID == entityID {
			return e
		}
	}
	require.Failf(t, "audit entry not found", "%s on %s", action, entityID)
	return audit.Entry{}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// createUser creates an account with the role and logs it in.
func createUser(t *testing.T, email string, role user.Role) (user.UserWithProfile, string) {
	t.Helper()
	usr, err := usrSvc.CreateByAdmin(context.Background(), "", user.NewUser{
		Email:     email,
		Password:  testPassword,
		FirstName: "Test",
		LastName:  string(role),
		Role:      role,
	})
	require.NoError(t, err)
	return usr, login(t, email, testPassword)
}

func login(t *testing.T, email, password string) string {
	t.Helper()
	rec := serve(t, http.MethodPost, "/api/auth/login", "", user.Credentials{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := rec.Header().Get("Authorization")
	require.NotEmpty(t, token)
	return token[len("Bearer "):]
}

func createCourse(t *testing.T, instructorID string, published bool) course.Course {
	t.Helper()
	c, err := crsSvc.Create(context.Background(), instructorID, course.NewCourse{
		TitleAr:     "مقدمة في البرمجة",
		TitleEn:     "Intro to Programming",
		Category:    "programming",
		Duration:    10,
		IsPublished: &published,
	})
	require.NoError(t, err)
	return c
}
