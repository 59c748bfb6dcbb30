package tests

import (
	"encoding/json"
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidwanic/backend/core/order"
	emailsvc "github.com/vidwanic/backend/services/email"
	testutil "github.com/vidwanic/backend/tests"
)

var orderNumberRe = regexp.MustCompile(`^ORD-\d{6}-[A-Z0-9]{4}$`)

func Test_orderApi_create(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "School User", "schooluser", "school@test.in", "", false, true)
	pendingUsr := testutil.CreateUser(t, usrRepo, "Pending User", "pendinguser", "pending@test.in", "", false, true)
	noSchoolUsr := testutil.CreateUser(t, usrRepo, "No School", "noschool", "noschool@test.in", "", false, true)
	testutil.CreateSchool(t, schoolRepo, usr, "St. Mary's", "udise1", true)
	testutil.CreateSchool(t, schoolRepo, pendingUsr, "Pending School", "udise2", false)

	mag1 := testutil.CreateMagazine(t, catalogRepo, "Science Weekly", 150)
	mag2 := testutil.CreateMagazine(t, catalogRepo, "Maths Monthly", 200)

	token := getToken(t, usr)
	cart := func(items ...order.NewOrderItem) []byte {
		return marchallObj(t, order.NewOrder{
			Items:           items,
			DeliveryAddress: "12 Main Road, Pune",
			DeliveryContact: "9876543210",
		})
	}

	tests := []httpTest{
		{
			name: "Auth required", body: cart(order.NewOrderItem{MagazineID: mag1.ID, Quantity: 1, UnitPrice: 150}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{name: "Empty cart", token: token, body: []byte(`{"items":[]}`), wantCode: http.StatusBadRequest},
		{
			name: "No school profile", token: getToken(t, noSchoolUsr),
			body:     cart(order.NewOrderItem{MagazineID: mag1.ID, Quantity: 1, UnitPrice: 150}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "a verified school profile is required to place orders"}),
		},
		{
			name: "Unverified school", token: getToken(t, pendingUsr),
			body:     cart(order.NewOrderItem{MagazineID: mag1.ID, Quantity: 1, UnitPrice: 150}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "a verified school profile is required to place orders"}),
		},
		{
			name: "Unknown magazine", token: token,
			body:     cart(order.NewOrderItem{MagazineID: "60a2e8fb-7a43-47fb-9b45-8da3dd20efb2", Quantity: 1, UnitPrice: 150}),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "one or more magazines do not exist"}),
		},
		{
			name: "Duplicate magazine in cart", token: token,
			body: cart(
				order.NewOrderItem{MagazineID: mag1.ID, Quantity: 1, UnitPrice: 150},
				order.NewOrderItem{MagazineID: mag1.ID, Quantity: 2, UnitPrice: 150},
			),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"items": "the same magazine appears more than once in the order"}),
		},
		{
			name: "Stale price", token: token,
			body: cart(
				order.NewOrderItem{MagazineID: mag1.ID, Quantity: 1, UnitPrice: 150},
				order.NewOrderItem{MagazineID: mag2.ID, Quantity: 3, UnitPrice: 180},
			),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Order ok", token: token,
			body: cart(
				order.NewOrderItem{MagazineID: mag1.ID, Quantity: 10, UnitPrice: 150},
				order.NewOrderItem{MagazineID: mag2.ID, Quantity: 5, UnitPrice: 200},
			),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ClearSentMessages()

			req, rec := newAuthRequest(http.MethodPost, "/v1/schools/orders", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode != http.StatusCreated {
				// failed submissions never touch the catalog counters
				m1, err := catalogRepo.GetMagazineByID(mag1.ID)
				require.NoError(t, err)
				m2, err := catalogRepo.GetMagazineByID(mag2.ID)
				require.NoError(t, err)
				assert.Zero(t, m1.TotalPurchases)
				assert.Zero(t, m1.SchoolPurchases)
				assert.Zero(t, m2.TotalPurchases)
				assert.Zero(t, m2.SchoolPurchases)
				assert.Empty(t, emailsvc.SentMessages)
				return
			}

			var ord order.Order
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ord))
			assert.Regexp(t, orderNumberRe, ord.OrderNumber)
			assert.Equal(t, order.StatusPending, ord.Status)
			assert.Equal(t, order.TypeMagazine, ord.OrderType)
			assert.Equal(t, order.PaymentPending, ord.PaymentStatus)
			assert.Equal(t, 10*150+5*200, ord.TotalAmount)
			require.Len(t, ord.Items, 2)
			assert.Equal(t, "Science Weekly", ord.Items[0].MagazineTitle)
			assert.Equal(t, 1500, ord.Items[0].TotalPrice)

			// counters move with the order
			m1, err := catalogRepo.GetMagazineByID(mag1.ID)
			require.NoError(t, err)
			m2, err := catalogRepo.GetMagazineByID(mag2.ID)
			require.NoError(t, err)
			assert.Equal(t, 10, m1.TotalPurchases)
			assert.Equal(t, 1, m1.SchoolPurchases)
			assert.Equal(t, 5, m2.TotalPurchases)
			assert.Equal(t, 1, m2.SchoolPurchases)

			// confirmation to the school + alert to the admin
			require.Len(t, emailsvc.SentMessages, 2)
			assert.Contains(t, emailsvc.SentMessages[0].Subject, ord.OrderNumber)
		})
	}
}

func Test_orderApi_stalePriceDetail(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "School User", "schooluser", "school@test.in", "", false, true)
	testutil.CreateSchool(t, schoolRepo, usr, "St. Mary's", "udise1", true)
	mag := testutil.CreateMagazine(t, catalogRepo, "Science Weekly", 150)

	body := marchallObj(t, order.NewOrder{
		Items:           []order.NewOrderItem{{MagazineID: mag.ID, Quantity: 1, UnitPrice: 120}},
		DeliveryAddress: "12 Main Road, Pune",
		DeliveryContact: "9876543210",
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/schools/orders", getToken(t, usr), body)
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var fldErrs map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fldErrs))
	assert.Contains(t, fldErrs["items"], "Science Weekly")
}

func Test_orderApi_query(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "School User", "schooluser", "school@test.in", "", false, true)
	other := testutil.CreateUser(t, usrRepo, "Other User", "otheruser", "other@test.in", "", false, true)
	sp := testutil.CreateSchool(t, schoolRepo, usr, "St. Mary's", "udise1", true)
	testutil.CreateSchool(t, schoolRepo, other, "Other School", "udise2", true)
	mag := testutil.CreateMagazine(t, catalogRepo, "Science Weekly", 150)

	ord1, err := orderSvc.Create(usr.ID, order.NewOrder{
		Items:           []order.NewOrderItem{{MagazineID: mag.ID, Quantity: 1, UnitPrice: 150}},
		DeliveryAddress: "12 Main Road, Pune",
		DeliveryContact: "9876543210",
	})
	require.NoError(t, err)
	ord2, err := orderSvc.Create(usr.ID, order.NewOrder{
		Items:           []order.NewOrderItem{{MagazineID: mag.ID, Quantity: 2, UnitPrice: 150}},
		DeliveryAddress: "12 Main Road, Pune",
		DeliveryContact: "9876543210",
	})
	require.NoError(t, err)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/schools/orders")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Own orders, newest first", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schools/orders", getToken(t, usr))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var orders []order.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
		require.Len(t, orders, 2)
		assert.Equal(t, ord2.ID, orders[0].ID)
		assert.Equal(t, ord1.ID, orders[1].ID)
		assert.Equal(t, sp.ID, orders[0].SchoolID)
	})

	t.Run("Other school sees none", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schools/orders", getToken(t, other))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var orders []order.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
		assert.Empty(t, orders)
	})

	t.Run("Retrieve own", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schools/orders/"+ord1.ID, getToken(t, usr))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got order.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, ord1.OrderNumber, got.OrderNumber)
	})

	t.Run("Retrieve foreign is hidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schools/orders/"+ord1.ID, getToken(t, other))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
