package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/kiongozi/apps/api/echo"
	"github.com/trezcool/kiongozi/core/assessment"
	"github.com/trezcool/kiongozi/core/team"
	"github.com/trezcool/kiongozi/core/user"
	"github.com/trezcool/kiongozi/services/email"
	"github.com/trezcool/kiongozi/services/metrics"
	"github.com/trezcool/kiongozi/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app     echoapi.Server
	auth    *echoapi.Auth
	usrRepo user.Repository
	invRepo team.Repository
}

func setup(t *testing.T) testEnv {
	t.Helper()
	emailsvc.ClearSentMessages()

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	invRepo := inmemdb.NewInvitationRepository(db)

	// set up services
	reg := prometheus.NewRegistry()
	obs, err := metricsvc.NewPrometheusObserver(reg)
	if err != nil {
		t.Fatalf("NewPrometheusObserver(): %v", err)
	}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)

	// set up server
	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        usrSvc,
		AssessmentSvc:  assessment.NewService(inmemdb.NewAssessmentRepository(db), policy, obs),
		TeamSvc:        team.NewService(invRepo, usrSvc, db, mailSvc, validate, conf),
		MetricsHandler: metricsvc.Handler(reg),
	})
	return testEnv{app: app, auth: echoapi.NewAuth(conf), usrRepo: usrRepo, invRepo: invRepo}
}

type httpErr struct {
	Error string `json:"error"`
}

type fieldErr struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type notOK struct {
	Status string     `json:"status"`
	Error  []fieldErr `json:"error"`
}

func newNotOK(flds ...fieldErr) notOK {
	return notOK{Status: "Not OK", Error: flds}
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
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

func (env testEnv) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	env.app.ServeHTTP(rec, req)
	return rec
}

func (env testEnv) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := env.auth.GenerateToken(env.auth.UserClaims(usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
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
	t.Helper()
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

func runTests(t *testing.T, env testEnv, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

type httpTests []httpTest

// withRequest sets the method & path of every test.
func (tests httpTests) withRequest(method, path string) []httpTest {
	for i := range tests {
		tests[i].method = method
		tests[i].path = path
	}
	return tests
}
