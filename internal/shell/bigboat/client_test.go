package bigboat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "http://dashboard.example.org", normalizeHost("dashboard.example.org"))
	assert.Equal(t, "https://dashboard.example.org", normalizeHost("https://dashboard.example.org/"))
}

func TestV2_GetApp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v2/apps/app/2", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("api-key"))

		json.NewEncoder(w).Encode(Application{ID: "a1", Name: "app", Version: "2"})
	}))
	defer server.Close()

	client := NewV2(Config{Site: "dashboard.example.org", Host: server.URL, APIKey: "test-key"})

	app, err := client.GetApp(context.Background(), "app", "2")
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "app", app.Name)
	assert.Equal(t, "2", app.Version)
	assert.Equal(t, "dashboard.example.org", client.Site())
}

func TestV2_GetApp_Absent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewV2(Config{Site: "dashboard.example.org", Host: server.URL, APIKey: "test-key"})

	app, err := client.GetApp(context.Background(), "app", "2")
	require.NoError(t, err)
	assert.Nil(t, app)
}

func TestV2_UpdateApp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v2/apps/app/2", r.URL.Path)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Application{ID: "a1", Name: "app", Version: "2"})
	}))
	defer server.Close()

	client := NewV2(Config{Site: "dashboard.example.org", Host: server.URL, APIKey: "test-key"})

	app, err := client.UpdateApp(context.Background(), "app", "2")
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "a1", app.ID)
}

func TestV2_UpdateCompose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v2/apps/app/2/files/dockerCompose", r.URL.Path)
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "services:\n  web:\n    image: nginx\n", string(body))

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewV2(Config{Site: "dashboard.example.org", Host: server.URL, APIKey: "test-key"})

	err := client.UpdateCompose(context.Background(), "app", "2", "dockerCompose",
		"services:\n  web:\n    image: nginx\n")
	assert.NoError(t, err)
}

func TestV2_UpdateCompose_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "compose file invalid", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewV2(Config{Site: "dashboard.example.org", Host: server.URL, APIKey: "test-key"})

	err := client.UpdateCompose(context.Background(), "app", "2", "dockerCompose", "x")
	require.Error(t, err)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "dashboard.example.org", remoteErr.Site)
	assert.Equal(t, "update compose file", remoteErr.Op)
	assert.Equal(t, http.StatusBadRequest, remoteErr.Status)
}

func TestV2_UpdateInstance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v2/instances/agent", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload updateInstanceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "app", payload.App)
		assert.Equal(t, "2", payload.Version)
		assert.Equal(t, "dashboard.example.org", payload.Parameters["BIGBOAT_HOST"])

		json.NewEncoder(w).Encode(Instance{Name: "agent", State: "starting"})
	}))
	defer server.Close()

	client := NewV2(Config{Site: "dashboard.example.org", Host: server.URL, APIKey: "test-key"})

	instance, err := client.UpdateInstance(context.Background(), "agent", "app", "2",
		map[string]string{"BIGBOAT_HOST": "dashboard.example.org"})
	require.NoError(t, err)
	require.NotNil(t, instance)
	assert.Equal(t, "agent", instance.Name)
}

func TestV2_UpdateInstance_NoInstanceReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	}))
	defer server.Close()

	client := NewV2(Config{Site: "dashboard.example.org", Host: server.URL, APIKey: "test-key"})

	instance, err := client.UpdateInstance(context.Background(), "agent", "app", "2", nil)
	require.NoError(t, err)
	assert.Nil(t, instance)
}

func TestV2_DeleteInstance_ToleratesAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewV2(Config{Site: "dashboard.example.org", Host: server.URL, APIKey: "test-key"})

	assert.NoError(t, client.DeleteInstance(context.Background(), "agent"))
}

func TestV1_GetApp(t *testing.T) {
	var sawKey bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/appdef/app/2", r.URL.Path)
		sawKey = r.Header.Get("api-key") != ""
		w.Write([]byte("name: app\nversion: '2'\n"))
	}))
	defer server.Close()

	client := NewV1(Config{Site: "legacy.example.org", Host: server.URL, APIKey: "ignored"})

	app, err := client.GetApp(context.Background(), "app", "2")
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "app", app.Name)
	assert.False(t, sawKey, "the legacy API has no authentication")
}

func TestV1_GetInstance_Absent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/instances/agent", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewV1(Config{Site: "legacy.example.org", Host: server.URL})

	instance, err := client.GetInstance(context.Background(), "agent")
	require.NoError(t, err)
	assert.Nil(t, instance)
}

func TestV1_HasNoMutationCapability(t *testing.T) {
	var client Client = NewV1(Config{Site: "legacy.example.org"})

	_, ok := client.(Mutator)
	assert.False(t, ok)
	assert.Equal(t, "v1", client.ProtocolVersion())
}

func TestV2_HasMutationCapability(t *testing.T) {
	var client Client = NewV2(Config{Site: "dashboard.example.org"})

	_, ok := client.(Mutator)
	assert.True(t, ok)
	assert.Equal(t, "v2", client.ProtocolVersion())
}

func TestConfig_RemoteHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	// The logical site stays the identity; only the wire goes elsewhere.
	client := NewV2(Config{Site: "dashboard.example.org", Host: server.URL, APIKey: "k"})

	_, err := client.GetApp(context.Background(), "app", "2")
	require.NoError(t, err)
	assert.Equal(t, "dashboard.example.org", client.Site())
}
