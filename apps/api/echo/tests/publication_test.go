package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidwanic/backend/core/catalog"
	testutil "github.com/vidwanic/backend/tests"
)

func Test_publicationApi_query(t *testing.T) {
	app := setup(t)

	mag1 := testutil.CreateMagazine(t, catalogRepo, "Science Weekly", 150)
	mag2 := testutil.CreateMagazine(t, catalogRepo, "Maths Monthly", 200)

	t.Run("Public listing", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/publications")
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var mags []catalog.Magazine
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mags))
		require.Len(t, mags, 2)
		// newest first
		assert.Equal(t, mag2.ID, mags[0].ID)
		assert.Equal(t, mag1.ID, mags[1].ID)
	})

	t.Run("Retrieve", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/publications/"+mag1.ID)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var mag catalog.Magazine
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mag))
		assert.Equal(t, "Science Weekly", mag.Title)
		assert.Equal(t, 150, mag.Price)
	})

	t.Run("Retrieve unknown", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/publications/ec68a1f7-b9a1-48b6-97b7-b61dbfae3b4f")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_publicationApi_crud(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "user", "user@test.in", "", false, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.in", "", true, true)
	adminToken := getToken(t, admin)

	newMag := catalog.NewMagazine{
		Title:       "Science Weekly",
		Description: "Hands-on science for curious kids",
		Price:       150,
		SuitableFor: "8-14 years",
	}

	var created catalog.Magazine

	t.Run("Create auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/publications", marchallObj(t, newMag))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Create admin required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/publications", getToken(t, usr), marchallObj(t, newMag))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Create required fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/publications", adminToken, []byte("{}"))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Create ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/publications", adminToken, marchallObj(t, newMag))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Zero(t, created.TotalPurchases)
		assert.Zero(t, created.SchoolPurchases)
	})

	t.Run("Update keeps unset fields", func(t *testing.T) {
		body := marchallObj(t, catalog.UpdateMagazine{Price: 180})
		req, rec := newAuthRequest(http.MethodPut, "/v1/publications/"+created.ID, adminToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got catalog.Magazine
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 180, got.Price)
		assert.Equal(t, newMag.Title, got.Title)
		assert.Equal(t, newMag.Description, got.Description)
	})

	t.Run("Delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/publications/"+created.ID, adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newRequest(http.MethodGet, "/v1/publications/"+created.ID)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Delete unknown", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/publications/"+created.ID, adminToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_publicationApi_comments(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Commenter", "commenter", "commenter@test.in", "", false, true)
	mag := testutil.CreateMagazine(t, catalogRepo, "Science Weekly", 150)

	t.Run("Comment auth required", func(t *testing.T) {
		body := marchallObj(t, catalog.NewComment{Content: "Great read!"})
		req, rec := newRequest(http.MethodPost, "/v1/publications/"+mag.ID+"/comments", body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Comment on unknown publication", func(t *testing.T) {
		body := marchallObj(t, catalog.NewComment{Content: "Great read!"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/publications/3b6f6be8-4c4e-4b0c-8518-a2d4e64e0437/comments", getToken(t, usr), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Comment ok", func(t *testing.T) {
		body := marchallObj(t, catalog.NewComment{Content: "Great read!"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/publications/"+mag.ID+"/comments", getToken(t, usr), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var cmt catalog.Comment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmt))
		assert.Equal(t, "Great read!", cmt.Content)
		assert.Equal(t, usr.ID, cmt.UserID)
	})

	t.Run("Public comment listing", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/publications/"+mag.ID+"/comments")
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var cmts []catalog.Comment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmts))
		require.Len(t, cmts, 1)
		assert.Equal(t, "Commenter", cmts[0].Author.Name)
	})

	t.Run("Comments count rides on retrieve", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/publications/"+mag.ID)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got catalog.Magazine
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 1, got.CommentsCount)
	})
}
