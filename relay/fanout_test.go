package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanOutSubmitsToEveryRelay(t *testing.T) {
	var hits [2]int
	srvA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits[0]++
		w.WriteHeader(http.StatusOK)
	}))
	defer srvA.Close()
	srvB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits[1]++
		w.WriteHeader(http.StatusOK)
	}))
	defer srvB.Close()

	f := FanOut{New(srvA.URL), New(srvB.URL)}
	require.NoError(t, f.Submit(context.Background(), testSigned()))
	assert.Equal(t, 1, hits[0])
	assert.Equal(t, 1, hits[1])
}

func TestFanOutJoinsPartialFailure(t *testing.T) {
	srvOK := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srvOK.Close()
	srvFail := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srvFail.Close()

	f := FanOut{New(srvOK.URL), New(srvFail.URL)}
	assert.Error(t, f.Submit(context.Background(), testSigned()))
}
