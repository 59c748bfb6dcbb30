package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidwanic/backend/core/enquiry"
	emailsvc "github.com/vidwanic/backend/services/email"
	testutil "github.com/vidwanic/backend/tests"
)

func Test_enquiryApi_create(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Parent", "parent", "parent@test.in", "", false, true)

	payload := enquiry.NewEnquiry{
		Name:        "Parent",
		Message:     "How do I subscribe my kid's school?",
		ContactType: "parent",
	}

	tests := []httpTest{
		{
			name: "Auth required", body: marchallObj(t, payload),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{name: "Required fields", token: getToken(t, usr), body: []byte("{}"), wantCode: http.StatusBadRequest},
		{
			name: "Bad contact type", token: getToken(t, usr),
			body: marchallObj(t, enquiry.NewEnquiry{Name: "Parent", Message: "Hi", ContactType: "alien"}),
			wantCode: http.StatusBadRequest,
		},
		{name: "Create ok", token: getToken(t, usr), body: marchallObj(t, payload), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ClearSentMessages()

			req, rec := newAuthRequest(http.MethodPost, "/v1/enquiries", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusCreated {
				assert.Empty(t, emailsvc.SentMessages)
				return
			}

			var enq enquiry.Enquiry
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enq))
			assert.Equal(t, enquiry.StatusPending, enq.Status)
			assert.Equal(t, usr.ID, enq.UserID)
			// the email always comes from the authenticated user
			assert.Equal(t, usr.Email, enq.Email)

			require.Len(t, emailsvc.SentMessages, 1)
		})
	}
}

func Test_enquiryApi_query(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Parent", "parent", "parent@test.in", "", false, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.in", "", true, true)

	for i := 0; i < 25; i++ {
		ctype := "parent"
		if i%2 == 0 {
			ctype = "school"
		}
		_, err := enquirySvc.Create(usr, enquiry.NewEnquiry{
			Name:        "Parent",
			Message:     fmt.Sprintf("enquiry %d", i),
			ContactType: ctype,
		})
		require.NoError(t, err)
	}

	adminToken := getToken(t, admin)

	type listResp struct {
		Enquiries  []enquiry.Enquiry `json:"enquiries"`
		Pagination struct {
			Total   int  `json:"total"`
			Limit   int  `json:"limit"`
			Offset  int  `json:"offset"`
			HasMore bool `json:"has_more"`
		} `json:"pagination"`
	}

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/enquiries")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Admin required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/enquiries", getToken(t, usr))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("First page defaults", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/enquiries", adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got listResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got.Enquiries, 20)
		assert.Equal(t, 25, got.Pagination.Total)
		assert.Equal(t, 20, got.Pagination.Limit)
		assert.Equal(t, 0, got.Pagination.Offset)
		assert.True(t, got.Pagination.HasMore)
		// submitter summary rides along
		assert.Equal(t, usr.ID, got.Enquiries[0].Submitter.ID)
	})

	t.Run("Last page", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/enquiries?limit=20&offset=20", adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got listResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got.Enquiries, 5)
		assert.Equal(t, 25, got.Pagination.Total)
		assert.False(t, got.Pagination.HasMore)
	})

	t.Run("Filter by contact type", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/enquiries?contact_type=school&limit=50", adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got listResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got.Enquiries, 13)
		assert.Equal(t, 13, got.Pagination.Total)
	})
}

func Test_enquiryApi_updateStatus(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Parent", "parent", "parent@test.in", "", false, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.in", "", true, true)

	enq, err := enquirySvc.Create(usr, enquiry.NewEnquiry{
		Name:        "Parent",
		Message:     "How do I subscribe?",
		ContactType: "parent",
	})
	require.NoError(t, err)

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name: "Auth required", path: "/v1/enquiries/" + enq.ID + "/status",
			body:     marchallObj(t, enquiry.UpdateEnquiryStatus{Status: enquiry.StatusResolved}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", path: "/v1/enquiries/" + enq.ID + "/status", token: getToken(t, usr),
			body:     marchallObj(t, enquiry.UpdateEnquiryStatus{Status: enquiry.StatusResolved}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Bad status", path: "/v1/enquiries/" + enq.ID + "/status", token: adminToken,
			body:     marchallObj(t, enquiry.UpdateEnquiryStatus{Status: "done"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Unknown enquiry", path: "/v1/enquiries/6358a0f9-23ab-4630-b66f-b77d11b23f0a/status", token: adminToken,
			body:     marchallObj(t, enquiry.UpdateEnquiryStatus{Status: enquiry.StatusResolved}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "enquiry not found"}),
		},
		{
			name: "Resolve", path: "/v1/enquiries/" + enq.ID + "/status", token: adminToken,
			body:     marchallObj(t, enquiry.UpdateEnquiryStatus{Status: enquiry.StatusResolved}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusOK {
				return
			}
			var got enquiry.Enquiry
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, enquiry.StatusResolved, got.Status)
		})
	}
}
