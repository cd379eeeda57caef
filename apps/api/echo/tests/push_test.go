package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/push"
	"github.com/koda-tec/sistema-escolar/storage/database/inmem"
	"github.com/koda-tec/sistema-escolar/tests"
)

func Test_pushApi_vapidPublicKey(t *testing.T) {
	f := setup(t)

	req, rec := newRequest(http.MethodGet, "/v1/push/vapid-public-key")
	f.do(req, rec)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, map[string]string{"publicKey": "BPublicKeyForTests"}),
	}, rec)
}

func Test_pushApi_subscription(t *testing.T) {
	f := setup(t)
	path := "/v1/push/subscription"
	store := inmemdb.NewPushRepository(f.db)
	parent := f.token(t, testutil.ParentAna, "parent", testutil.SchoolID)

	subscription := func(endpoint string) push.NewSubscription {
		return push.NewSubscription{
			Endpoint: endpoint,
			Keys:     push.Keys{Auth: "YXV0aC1zZWNyZXQ", P256dh: "BP256dhKeyOfTheBrowser"},
		}
	}

	tests := []httpTest{
		{
			name:     "no token",
			method:   http.MethodPost,
			path:     path,
			body:     marchallObj(t, subscription("https://push.example.com/send/abc")),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "plain http endpoint",
			method:   http.MethodPost,
			path:     path,
			body:     marchallObj(t, subscription("http://push.example.com/send/abc")),
			token:    parent,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"endpoint": "must be an https url"}),
		},
		{
			name:     "missing keys",
			method:   http.MethodPost,
			path:     path,
			body:     marchallObj(t, push.NewSubscription{Endpoint: "https://push.example.com/send/abc"}),
			token:    parent,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"auth": "this field is required", "p256dh": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			f.do(req, rec)
			checkCodeAndData(t, tt, rec)

			_, err := store.GetSubscription(context.Background(), testutil.ParentAna)
			assert.ErrorIs(t, err, core.ErrNotFound)
		})
	}

	t.Run("register then replace", func(t *testing.T) {
		for _, endpoint := range []string{"https://push.example.com/send/old", "https://push.example.com/send/new"} {
			req, rec := newAuthRequest(http.MethodPost, path, parent, marchallObj(t, subscription(endpoint)))
			f.do(req, rec)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		}

		sub, err := store.GetSubscription(context.Background(), testutil.ParentAna)
		require.NoError(t, err)
		assert.Contains(t, string(sub.Payload), "https://push.example.com/send/new")
	})

	t.Run("unregister", func(t *testing.T) {
		for i := 0; i < 2; i++ { // twice: removing nothing is fine
			req, rec := newAuthRequest(http.MethodDelete, path, parent)
			f.do(req, rec)
			assert.Equal(t, http.StatusNoContent, rec.Code)
		}

		_, err := store.GetSubscription(context.Background(), testutil.ParentAna)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}
