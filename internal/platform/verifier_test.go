package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		switch {
		case strings.HasPrefix(r.URL.Path, "/bot999:good/"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":999,"is_bot":true,"first_name":"Helper","username":"helper_bot","can_join_groups":true}}`))
		case strings.HasPrefix(r.URL.Path, "/bot1:bad/"):
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
		case strings.HasPrefix(r.URL.Path, "/bot2:down/"):
			w.WriteHeader(http.StatusBadGateway)
		case strings.HasPrefix(r.URL.Path, "/bot4:flood/"):
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 5","parameters":{"retry_after":5}}`))
		case strings.HasPrefix(r.URL.Path, "/bot6:flood/"):
			// error code in the body only
			_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests"}`))
		default:
			_, _ = w.Write([]byte(`<html>`))
		}
	}))
	t.Cleanup(srv.Close)
	v := NewVerifier(srv.URL+"/", srv.Client(), time.Second)
	ctx := context.Background()

	res, err := v.Verify(ctx, " 999:good ")
	require.NoError(t, err)
	assert.Equal(t, "/bot999:good/getMe", gotPath)
	valid, ok := res.(Valid)
	require.True(t, ok, "got %T", res)
	assert.Equal(t, int64(999), valid.Profile.ID)
	assert.Equal(t, "helper_bot", valid.Profile.Username)
	assert.True(t, valid.Profile.CanJoinGroups)

	res, err = v.Verify(ctx, "1:bad")
	require.NoError(t, err)
	assert.Equal(t, Invalid{Code: 401, Description: "Unauthorized"}, res)

	for _, token := range []string{"2:down", "3:garbage", "4:flood", "6:flood"} {
		_, err = v.Verify(ctx, token)
		var callErr *CallError
		require.True(t, errors.As(err, &callErr), token)
		assert.Equal(t, "EXTERNAL_CALL", callErr.Code())
		assert.NotContains(t, err.Error(), token)
	}
}

func TestVerifyMalformedTokenSkipsCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	t.Cleanup(srv.Close)
	v := NewVerifier(srv.URL, srv.Client(), time.Second)

	for _, token := range []string{"", "   ", "a/b", "a?b", "two words"} {
		res, err := v.Verify(context.Background(), token)
		require.NoError(t, err)
		assert.IsType(t, Invalid{}, res)
	}
	assert.Zero(t, calls)
}

func TestVerifyTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	v := NewVerifier(srv.URL, srv.Client(), 50*time.Millisecond)

	_, err := v.Verify(context.Background(), "5:slow")
	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
