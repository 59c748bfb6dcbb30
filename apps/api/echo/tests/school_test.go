package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidwanic/backend/core/school"
	emailsvc "github.com/vidwanic/backend/services/email"
	testutil "github.com/vidwanic/backend/tests"
)

func newSchoolPayload(name, udise string) school.NewSchoolProfile {
	return school.NewSchoolProfile{
		SchoolName:      name,
		UdiseCode:       udise,
		Address:         "12 Main Road",
		City:            "Pune",
		State:           "Maharashtra",
		Pincode:         "411001",
		ContactPhone:    "9876543210",
		ContactEmail:    "contact@school.test",
		PrincipalName:   "P. Principal",
		OnboardedByName: "P. Principal",
		OnboardedByRole: "principal",
		SchoolType:      "private",
	}
}

func Test_schoolApi_onboard(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "School User", "schooluser", "school@test.in", "", false, true)
	onboarded := testutil.CreateUser(t, usrRepo, "Onboarded", "onboarded", "onboarded@test.in", "", false, true)
	testutil.CreateSchool(t, schoolRepo, onboarded, "Existing School", "existing1", false)

	tests := []httpTest{
		{
			name: "Auth required", body: marchallObj(t, newSchoolPayload("St. Mary's", "")),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Required fields", token: getToken(t, usr), body: []byte("{}"),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Invalid pincode", token: getToken(t, usr),
			body: marchallObj(t, func() school.NewSchoolProfile {
				p := newSchoolPayload("St. Mary's", "")
				p.Pincode = "1234"
				return p
			}()),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Duplicate UDISE", token: getToken(t, usr),
			body:     marchallObj(t, newSchoolPayload("St. Mary's", "existing1")),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"udise_code": "a school with this UDISE code already exists"}),
		},
		{
			name: "Onboard ok", token: getToken(t, usr),
			body:     marchallObj(t, newSchoolPayload("St. Mary's", "udise1234")),
			wantCode: http.StatusCreated,
		},
		{
			name: "One profile per user", token: getToken(t, usr),
			body:     marchallObj(t, newSchoolPayload("Another School", "")),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "school profile already submitted"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ClearSentMessages()

			req, rec := newAuthRequest(http.MethodPost, "/v1/schools/onboard", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusCreated {
				return
			}

			var sp school.SchoolProfile
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sp))
			assert.Equal(t, "St. Mary's", sp.SchoolName)
			assert.Equal(t, usr.ID, sp.OnboardedByUserID)
			assert.False(t, sp.IsVerified)
			assert.Equal(t, school.SubscriptionPending, sp.SubscriptionStatus)

			// the admin alert is sent
			require.Len(t, emailsvc.SentMessages, 1)
			assert.Contains(t, emailsvc.SentMessages[0].Subject, "St. Mary's")
		})
	}
}

func Test_schoolApi_verify(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "School User", "schooluser", "school@test.in", "", false, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.in", "", true, true)
	sp := testutil.CreateSchool(t, schoolRepo, usr, "St. Mary's", "udise1234", false)

	adminToken := getToken(t, admin)

	approve := marchallObj(t, school.VerifySchool{SchoolID: sp.ID, Approve: true})
	reject := marchallObj(t, school.VerifySchool{SchoolID: sp.ID, Approve: false})

	tests := []httpTest{
		{name: "Auth required", body: approve, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, usr), body: approve,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Unknown school", token: adminToken,
			body:     marchallObj(t, school.VerifySchool{SchoolID: "04d45b5f-9b4f-4b63-a3db-08a37ec3f23e", Approve: true}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "school profile not found"}),
		},
		{name: "Approve", token: adminToken, body: approve, wantCode: http.StatusOK, extra: true},
		{name: "Reject after approve", token: adminToken, body: reject, wantCode: http.StatusOK, extra: false},
		{name: "Re-approve", token: adminToken, body: approve, wantCode: http.StatusOK, extra: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ClearSentMessages()

			req, rec := newAuthRequest(http.MethodPost, "/v1/schools/verify", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusOK {
				return
			}
			approved := tt.extra.(bool)

			var got school.SchoolProfile
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, approved, got.IsVerified)
			if approved {
				assert.Equal(t, school.SubscriptionActive, got.SubscriptionStatus)
				assert.Contains(t, got.VerificationNotes, "Approved by Admin on ")
			} else {
				assert.Equal(t, school.SubscriptionCancelled, got.SubscriptionStatus)
				assert.Contains(t, got.VerificationNotes, "Rejected by Admin on ")
			}

			// outcome mail to the school + alert to the admin
			require.Len(t, emailsvc.SentMessages, 2)
		})
	}
}

func Test_schoolApi_dashboard(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "School User", "schooluser", "school@test.in", "", false, true)
	stranger := testutil.CreateUser(t, usrRepo, "Stranger", "stranger", "stranger@test.in", "", false, true)
	sp := testutil.CreateSchool(t, schoolRepo, usr, "St. Mary's", "udise1234", true)

	now := time.Now().UTC()
	s1 := school.Student{ID: uuid.New().String(), SchoolID: sp.ID, Name: "Asha", Class: "6", CreatedAt: now}
	memDB.AddStudent(s1)
	memDB.AddStudent(school.Student{ID: uuid.New().String(), SchoolID: sp.ID, Name: "Ravi", Class: "7", CreatedAt: now})
	memDB.AddTeacher(school.Teacher{ID: uuid.New().String(), SchoolID: sp.ID, Name: "Mr. Rao", Subject: "Science", CreatedAt: now})
	memDB.AddAttendance(school.Attendance{ID: uuid.New().String(), StudentID: s1.ID, Date: now, Status: "present"})
	memDB.AddAttendance(school.Attendance{ID: uuid.New().String(), StudentID: s1.ID, Date: now, Status: "absent"})

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Not onboarded", token: getToken(t, stranger),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "school profile not found"}),
		},
		{name: "Dashboard ok", token: getToken(t, usr), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/schools/me", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusOK {
				return
			}

			var dash struct {
				school.Dashboard
				OrdersCount           int `json:"orders_count"`
				TotalMagazinesOrdered int `json:"total_magazines_ordered"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
			assert.Equal(t, sp.ID, dash.Profile.ID)
			assert.Equal(t, 2, dash.StudentsCount)
			assert.Equal(t, 1, dash.TeachersCount)
			assert.Equal(t, float64(50), dash.AttendancePct)
			assert.Zero(t, dash.OrdersCount)
			assert.Zero(t, dash.TotalMagazinesOrdered)
		})
	}
}

func Test_schoolApi_query(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.in", "", true, true)
	usr1 := testutil.CreateUser(t, usrRepo, "User 1", "user1", "user1@test.in", "", false, true)
	usr2 := testutil.CreateUser(t, usrRepo, "User 2", "user2", "user2@test.in", "", false, true)
	verified := testutil.CreateSchool(t, schoolRepo, usr1, "Verified School", "udise1", true)
	pending := testutil.CreateSchool(t, schoolRepo, usr2, "Pending School", "udise2", false)

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/schools", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/schools", token: getToken(t, usr1),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Get all", path: "/v1/schools", token: adminToken, wantCode: http.StatusOK, extra: 2},
		{name: "is_verified=true", path: "/v1/schools?is_verified=true", token: adminToken, wantCode: http.StatusOK, extra: 1},
		{name: "status=pending", path: "/v1/schools?status=pending", token: adminToken, wantCode: http.StatusOK, extra: 1},
		{name: "search", path: "/v1/schools?search=verified", token: adminToken, wantCode: http.StatusOK, extra: 1},
		{name: "search (unknown)", path: "/v1/schools?search=lol", token: adminToken, wantCode: http.StatusOK, extra: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusOK {
				return
			}
			var got []school.SchoolProfile
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			require.Len(t, got, tt.extra.(int))

			switch tt.name {
			case "is_verified=true", "search":
				assert.Equal(t, verified.ID, got[0].ID)
			case "status=pending":
				assert.Equal(t, pending.ID, got[0].ID)
			}
		})
	}
}
