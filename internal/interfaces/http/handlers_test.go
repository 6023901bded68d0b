package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutes_RequirePassword(t *testing.T) {
	env := newTestEnv(t, newMemStore())

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/admin/stats-all"},
		{http.MethodGet, "/admin/files/0"},
		{http.MethodGet, "/admin/files/1/export"},
		{http.MethodDelete, "/admin/files/0/id-1"},
		{http.MethodPost, "/admin/delete-multiple"},
		{http.MethodPost, "/admin/rename"},
		{http.MethodPost, "/admin/empty-trash/0"},
	}

	for _, route := range routes {
		for name, header := range map[string]string{"missing": "", "wrong": "nope"} {
			t.Run(route.method+" "+route.path+" "+name, func(t *testing.T) {
				req := jsonRequest(t, route.method, route.path, map[string]interface{}{"fileIds": []string{"a"}})
				if header != "" {
					req.Header.Set(AdminPasswordHeader, header)
				}

				w := env.do(req)

				assert.Equal(t, http.StatusUnauthorized, w.Code)
				assert.Equal(t, false, decodeBody(t, w)["success"])
			})
		}
	}

	assert.Zero(t, env.store.(*memStore).callCount())
}

func TestAdminAuth_EmptyPasswordRejectsEverything(t *testing.T) {
	assert.False(t, passwordMatches("", ""))
	assert.False(t, passwordMatches("", "anything"))
	assert.True(t, passwordMatches("pw", "pw"))
	assert.False(t, passwordMatches("pw", "pw "))
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t, newMemStore())

	w := env.do(jsonRequest(t, http.MethodPost, "/admin/login", map[string]string{"password": testPassword}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["success"])

	w = env.do(jsonRequest(t, http.MethodPost, "/admin/login", map[string]string{"password": "guess"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(jsonRequest(t, http.MethodPost, "/admin/login", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListAccounts(t *testing.T) {
	env := newTestEnv(t, newMemStore())

	w := env.do(httptest.NewRequest(http.MethodGet, "/accounts", nil))
	require.Equal(t, http.StatusOK, w.Code)

	accounts := decodeBody(t, w)["accounts"].([]interface{})
	require.Len(t, accounts, 2)
	assert.Equal(t, map[string]interface{}{"index": float64(0), "name": "Server VIP 1"}, accounts[0])
	assert.Equal(t, map[string]interface{}{"index": float64(1), "name": "Server VIP 2"}, accounts[1])
}

func TestListFiles_FiltersByIndex(t *testing.T) {
	store := newMemStore()
	first := store.put("folder-1", "one.png", 10)
	second := store.put("folder-2", "two.png", 20)
	env := newTestEnv(t, store)

	ids := func(path string) []string {
		w := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)
		var out []string
		for _, f := range decodeBody(t, w)["files"].([]interface{}) {
			out = append(out, f.(map[string]interface{})["id"].(string))
		}
		return out
	}

	assert.Equal(t, []string{second.ID}, ids("/files?index=1"))
	assert.Equal(t, []string{first.ID}, ids("/files?index=0"))
	assert.Equal(t, []string{first.ID}, ids("/files"))
	assert.Equal(t, []string{first.ID}, ids("/files?index=abc"))
	assert.Equal(t, []string{first.ID}, ids("/files?index=1.5"))
}

func TestListFiles_ProviderError(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("quota exceeded")
	env := newTestEnv(t, store)

	w := env.do(httptest.NewRequest(http.MethodGet, "/files", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "quota exceeded", body["error"])
}

func TestListFiles_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t, newMemStore())

	w := env.do(httptest.NewRequest(http.MethodGet, "/files", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"files":[]`)
}

func TestFolderStats(t *testing.T) {
	store := newMemStore()
	store.put("folder-1", "a", 3*1024*1024*1024/2)
	env := newTestEnv(t, store)

	w := env.do(httptest.NewRequest(http.MethodGet, "/stats?index=0", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["totalFiles"])
	assert.Equal(t, map[string]interface{}{
		"used":    "1.50",
		"total":   "15.00",
		"percent": "10.00",
	}, body["storage"])
}

func TestUpload_WithoutFile(t *testing.T) {
	store := newMemStore()
	env := newTestEnv(t, store)

	w := env.do(uploadRequest(t, "", "", nil, "1"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file", decodeBody(t, w)["error"])
	assert.Zero(t, store.callCount())
}

func TestUpload_WrongField(t *testing.T) {
	store := newMemStore()
	env := newTestEnv(t, store)

	w := env.do(uploadRequest(t, "other", "a.txt", []byte("x"), ""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, store.callCount())
}

func TestUpload_TooLarge(t *testing.T) {
	store := newMemStore()
	env := newTestEnv(t, store, withUploadLimit(8))

	w := env.do(uploadRequest(t, "myFile", "big.bin", bytes.Repeat([]byte("x"), 64), ""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, store.callCount())
}

func TestUpload_ThenList(t *testing.T) {
	store := newMemStore()
	env := newTestEnv(t, store)

	w := env.do(uploadRequest(t, "myFile", "cat.png", []byte("png-bytes"), "1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "cat.png", data["name"])
	assert.NotEmpty(t, data["fileId"])
	assert.NotEmpty(t, data["driveLink"])

	w = env.do(httptest.NewRequest(http.MethodGet, "/files?index=1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	files := decodeBody(t, w)["files"].([]interface{})
	require.Len(t, files, 1)
	file := files[0].(map[string]interface{})
	assert.Equal(t, data["fileId"], file["id"])
	assert.NotEmpty(t, file["webViewLink"])
}

func TestUploadFromURL(t *testing.T) {
	t.Run("missing url", func(t *testing.T) {
		store := newMemStore()
		env := newTestEnv(t, store)

		w := env.do(jsonRequest(t, http.MethodPost, "/upload-url", map[string]interface{}{"accountIndex": 1}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, store.callCount())
	})

	t.Run("stores fetched body", func(t *testing.T) {
		store := newMemStore()
		env := newTestEnv(t, store)

		w := env.do(jsonRequest(t, http.MethodPost, "/upload-url", map[string]interface{}{
			"url":          "https://img.example/path/dog.jpg?size=large",
			"accountIndex": 1,
		}))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		data := decodeBody(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "dog.jpg", data["name"])
		assert.Equal(t, "image/jpeg", data["mimeType"])

		objects := store.objects
		require.Len(t, objects, 1)
		for _, obj := range objects {
			assert.True(t, obj.InContainer("folder-2"))
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		env := newTestEnv(t, newMemStore(), withFetcher(staticFetcher{err: errors.New("connection refused")}))

		w := env.do(jsonRequest(t, http.MethodPost, "/upload-url", map[string]interface{}{"url": "https://down.example/a.jpg"}))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["message"], "failed to fetch from URL: ")
		assert.Contains(t, body["message"], "connection refused")
	})
}

func TestJSONBodyLimit(t *testing.T) {
	env := newTestEnv(t, newMemStore())

	huge := string(bytes.Repeat([]byte("a"), 200*1024))
	w := env.do(jsonRequest(t, http.MethodPost, "/upload-url", map[string]string{"url": huge}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServerStats(t *testing.T) {
	store := newMemStore()
	store.put("folder-1", "a", 100)
	env := newTestEnv(t, store)

	w := env.do(adminRequest(t, http.MethodGet, "/admin/stats-all", nil))
	require.Equal(t, http.StatusOK, w.Code)

	servers := decodeBody(t, w)["servers"].([]interface{})
	require.Len(t, servers, 2)

	first := servers[0].(map[string]interface{})
	assert.Equal(t, "Server VIP 1", first["name"])
	assert.Equal(t, float64(15*1024*1024*1024), first["bytes_Limit"])
	assert.Equal(t, float64(100), first["bytes_Web"])
	assert.Contains(t, first, "bytes_Gmail")
	assert.Contains(t, first, "bytes_OtherDrive")
	assert.NotContains(t, first, "error")

	assert.Equal(t, map[string]interface{}{
		"name":  "Server VIP 2",
		"error": "token not configured",
	}, servers[1])
}

func TestAdminListFiles(t *testing.T) {
	store := newMemStore()
	store.put("folder-2", "report.pdf", 2048)
	env := newTestEnv(t, store)

	w := env.do(adminRequest(t, http.MethodGet, "/admin/files/1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	files := decodeBody(t, w)["files"].([]interface{})
	require.Len(t, files, 1)
	file := files[0].(map[string]interface{})
	assert.Equal(t, "2048", file["size"])
	assert.NotEmpty(t, file["createdTime"])
}

func TestDeleteMultiple(t *testing.T) {
	store := newMemStore()
	a := store.put("folder-1", "a", 1)
	b := store.put("folder-1", "b", 1)
	env := newTestEnv(t, store)

	w := env.do(adminRequest(t, http.MethodPost, "/admin/delete-multiple", map[string]interface{}{
		"fileIds": []string{a.ID, "missing-1", b.ID, "missing-2", "missing-3"},
	}))
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["deleted"])
	assert.Equal(t, float64(3), body["failed"])
	assert.NotEmpty(t, body["message"])
	assert.Empty(t, store.objects)
}

func TestDeleteMultiple_RejectsNonArray(t *testing.T) {
	store := newMemStore()
	env := newTestEnv(t, store)

	for _, payload := range []interface{}{
		map[string]interface{}{},
		map[string]interface{}{"fileIds": "id-1"},
		map[string]interface{}{"fileIds": 7},
	} {
		w := env.do(adminRequest(t, http.MethodPost, "/admin/delete-multiple", payload))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Zero(t, store.callCount())
}

func TestDeleteRenameTrash(t *testing.T) {
	store := newMemStore()
	obj := store.put("folder-1", "old", 1)
	env := newTestEnv(t, store)

	w := env.do(adminRequest(t, http.MethodPost, "/admin/rename", map[string]string{"fileId": obj.ID, "newName": "new"}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new", store.objects[obj.ID].Name)

	w = env.do(adminRequest(t, http.MethodDelete, "/admin/files/1/"+obj.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.objects)

	w = env.do(adminRequest(t, http.MethodDelete, "/admin/files/1/"+obj.ID, nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "File not found", decodeBody(t, w)["message"])

	w = env.do(adminRequest(t, http.MethodPost, "/admin/empty-trash/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, newMemStore())

	w := env.do(httptest.NewRequest(http.MethodOptions, "/admin/stats-all", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), AdminPasswordHeader)
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, newMemStore())

	w := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])
}

func TestAdminLogin_MalformedBody(t *testing.T) {
	env := newTestEnv(t, newMemStore())

	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewBufferString(`{"password":`))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["success"])
}

func TestDeleteMultiple_RejectsNonStringIDs(t *testing.T) {
	store := newMemStore()
	obj := store.put("folder-1", "a", 1)
	env := newTestEnv(t, store)

	w := env.do(adminRequest(t, http.MethodPost, "/admin/delete-multiple", map[string]interface{}{
		"fileIds": []interface{}{obj.ID, 12345678901234567890.0},
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, store.callCount())
	assert.Len(t, store.objects, 1)
}
