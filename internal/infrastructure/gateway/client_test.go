package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePaymentProcess(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/createPaymentProcess", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"pageCode": r.PostFormValue("pageCode"),
			"userId":   r.PostFormValue("userId"),
			"sum":      r.PostFormValue("sum"),
			"cField1":  r.PostFormValue("cField1"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":1,"data":{"processId":555,"processToken":"ptok","url":"https://pay.example/p/555"}}`))
	}))
	defer srv.Close()

	gw := NewClient(Config{BaseURL: srv.URL, UserID: "u1", APIKey: "k1"})

	session, err := gw.CreatePaymentProcess(context.Background(), &ProcessRequest{
		OrderID:  7788,
		Amount:   "129.90",
		Method:   "credit-card",
		FullName: "Noa Levi",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example/p/555", session.RedirectURL)
	assert.Equal(t, int64(555), session.ProcessID)
	assert.Equal(t, "ptok", session.ProcessToken)
	assert.Equal(t, int64(7788), session.OrderID)

	assert.Equal(t, "7788", gotForm["cField1"])
	assert.Equal(t, "u1", gotForm["userId"])
	assert.Equal(t, "129.90", gotForm["sum"])
	assert.Equal(t, defaultPageCodes["credit-card"], gotForm["pageCode"])
}

func TestCreatePaymentProcessGatewayDecline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":0,"err":{"id":330,"message":"invalid page code"}}`))
	}))
	defer srv.Close()

	gw := NewClient(Config{BaseURL: srv.URL})
	_, err := gw.CreatePaymentProcess(context.Background(), &ProcessRequest{OrderID: 1, Method: "bit"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid page code")
	assert.Contains(t, err.Error(), msgSessionFailed)
}

func TestCreatePaymentProcessUnknownMethod(t *testing.T) {
	gw := NewClient(Config{BaseURL: "http://unused"})
	_, err := gw.CreatePaymentProcess(context.Background(), &ProcessRequest{OrderID: 1, Method: "cheque"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), msgUnknownMethod)
}

func TestPageCodeFallbackWhenCatalogUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gw := NewClient(Config{BaseURL: "http://unused", PageCodeURL: srv.URL})
	code, err := gw.PageCode(context.Background(), "bit")
	require.NoError(t, err)
	assert.Equal(t, defaultPageCodes["bit"], code)
}

func TestPageCodeRemoteCatalogWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"credit-card":"remote-code-1","bit":"remote-code-2"}`))
	}))
	defer srv.Close()

	gw := NewClient(Config{BaseURL: "http://unused", PageCodeURL: srv.URL, PageCodeTTL: time.Minute})

	code, err := gw.PageCode(context.Background(), "credit-card")
	require.NoError(t, err)
	assert.Equal(t, "remote-code-1", code)

	// cached within the TTL, the remote is not re-fetched per call
	srv.Close()
	code, err = gw.PageCode(context.Background(), "bit")
	require.NoError(t, err)
	assert.Equal(t, "remote-code-2", code)
}
