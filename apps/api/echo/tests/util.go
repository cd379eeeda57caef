package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	. "github.com/koda-tec/sistema-escolar/apps/api/echo"
	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/attendance"
	"github.com/koda-tec/sistema-escolar/core/billing"
	"github.com/koda-tec/sistema-escolar/core/notification"
	"github.com/koda-tec/sistema-escolar/core/push"
	"github.com/koda-tec/sistema-escolar/services/email"
	"github.com/koda-tec/sistema-escolar/services/logger"
	"github.com/koda-tec/sistema-escolar/storage/database/inmem"
	"github.com/koda-tec/sistema-escolar/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fixture struct {
	conf    *core.Config
	app     *Server
	db      *inmemdb.DB
	mail    *emailsvc.ConsoleServiceMock
	billing *billing.Service
}

func newTestConfig() *core.Config {
	return &core.Config{
		TestMode:        true,
		AppName:         "KodaEd",
		Env:             "TEST",
		SecretKey:       "test-secret",
		FrontendBaseURL: "https://app.kodaed.test",
		Push:            core.PushConfig{VAPIDPublicKey: "BPublicKeyForTests"},
		Notify:          core.NotifyConfig{Workers: 4},
		Payments:        core.PaymentsConfig{WebhookSecret: "whsec-test"},
	}
}

// setup returns a server backed by a seeded in-memory database.
// dir replaces the directory used to resolve recipients when given.
func setup(t *testing.T, dir ...notification.Directory) fixture {
	conf := newTestConfig()
	db := inmemdb.NewDB()
	testutil.Seed(db)

	var directory notification.Directory = inmemdb.NewDirectoryRepository(db)
	if len(dir) > 0 {
		directory = dir[0]
	}

	logger := logsvc.NewTestLogger(t)
	mailSvc := emailsvc.NewConsoleServiceMock()
	validate, translator := testutil.NewValidator()

	notifySvc, err := notification.NewService(directory, mailSvc, nil, logger, notification.Options{
		Workers: conf.Notify.Workers,
		Site:    core.Site{AppName: conf.AppName, FrontendBaseURL: conf.FrontendBaseURL},
	})
	if err != nil {
		t.Fatalf("notification.NewService(): %v", err)
	}
	t.Cleanup(func() { _ = notifySvc.Close() })

	billingSvc := billing.NewService(inmemdb.NewBillingRepository(db), validate, conf.Payments)

	app := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		NotifySvc:     notifySvc,
		AttendanceSvc: attendance.NewService(inmemdb.NewAttendanceRepository(db), validate),
		BillingSvc:    billingSvc,
		PushSvc:       push.NewService(inmemdb.NewPushRepository(db), validate),
	})
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	return fixture{conf: conf, app: app, db: db, mail: mailSvc, billing: billingSvc}
}

func (f fixture) token(t *testing.T, id, role, schoolID string) string {
	token, err := GenerateToken(f.conf, NewClaims(f.conf, core.Identity{ID: id, Role: role, SchoolID: schoolID}))
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}
	return token
}

func (f fixture) do(req *http.Request, rec *httptest.ResponseRecorder) {
	f.app.ServeHTTP(rec, req)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
