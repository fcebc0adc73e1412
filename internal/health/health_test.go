package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAllAggregates(t *testing.T) {
	r := NewRegistry()
	r.Register(func(context.Context) Status {
		return Status{Name: "good", Healthy: true}
	})
	r.Register(func(context.Context) Status {
		return Status{Name: "bad", Healthy: false, Detail: "down"}
	})

	healthy, statuses := r.CheckAll(context.Background())
	assert.False(t, healthy, "one unhealthy subsystem fails the aggregate")
	assert.Len(t, statuses, 2)
	assert.Equal(t, "bad", statuses[1].Name)
	assert.Equal(t, "down", statuses[1].Detail)
}

func TestEmptyRegistryIsHealthy(t *testing.T) {
	healthy, statuses := NewRegistry().CheckAll(context.Background())
	assert.True(t, healthy)
	assert.Empty(t, statuses)
}

func TestEndpointChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := Endpoint("horizon", srv.URL)(context.Background())
	assert.True(t, st.Healthy)

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	st = Endpoint("horizon", bad.URL)(context.Background())
	assert.False(t, st.Healthy)
	assert.Equal(t, "status 502", st.Detail)
}
