package tests

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/vidwanic/backend/apps/api/echo"
	"github.com/vidwanic/backend/core"
	"github.com/vidwanic/backend/core/catalog"
	"github.com/vidwanic/backend/core/enquiry"
	"github.com/vidwanic/backend/core/order"
	"github.com/vidwanic/backend/core/school"
	"github.com/vidwanic/backend/core/user"
	appfs "github.com/vidwanic/backend/fs"
	emailsvc "github.com/vidwanic/backend/services/email"
	logsvc "github.com/vidwanic/backend/services/logger"
	inmemdb "github.com/vidwanic/backend/storage/database/inmem"
)

var (
	memDB       *inmemdb.DB
	usrRepo     user.Repository
	catalogRepo catalog.Repository
	schoolRepo  school.Repository
	orderRepo   order.Repository
	enquiryRepo enquiry.Repository

	usrSvc     *user.Service
	catalogSvc *catalog.Service
	schoolSvc  *school.Service
	orderSvc   *order.Service
	enquirySvc *enquiry.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func newTestConfig() *core.Config {
	return &core.Config{
		TestMode:         true,
		AppName:          "Vidwanic",
		Env:              "TEST",
		SecretKey:        "poq5-wer)enb$(o6&p7x1b6pp@4g#kk@m8$aqi3ub&t2z-x2#t",
		FrontendBaseURL:  "http://localhost:8080",
		DefaultFromEmail: "noreply@vidwanic.test",
		AdminEmail:       "admin@vidwanic.test",
		Server: core.ServerConfig{
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
}

func setup(t *testing.T) *Server {
	conf := newTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	// set up DB & repos
	memDB = inmemdb.Open()
	db := memDB
	usrRepo = inmemdb.NewUserRepository(db)
	catalogRepo = inmemdb.NewCatalogRepository(db)
	schoolRepo = inmemdb.NewSchoolRepository(db)
	orderRepo = inmemdb.NewOrderRepository(db)
	enquiryRepo = inmemdb.NewEnquiryRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	emailsvc.ClearSentMessages()
	usrSvc = user.NewService(usrRepo, mailSvc, conf, logger)
	catalogSvc = catalog.NewService(catalogRepo)
	schoolSvc = school.NewService(schoolRepo, mailSvc, conf, logger)
	orderSvc = order.NewService(orderRepo, catalogSvc, schoolSvc, mailSvc, conf, logger)
	enquirySvc = enquiry.NewService(enquiryRepo, mailSvc, conf, logger)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(appfs.FS, conf, logger)

	// set up server
	return NewServer(
		ServerDeps{
			Conf:           conf,
			Logger:         logger,
			UserSvc:        usrSvc,
			CatalogSvc:     catalogSvc,
			SchoolSvc:      schoolSvc,
			OrderSvc:       orderSvc,
			EnquirySvc:     enquirySvc,
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
		},
	)
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

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
