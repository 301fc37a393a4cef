package main

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/postline/internal/common"
)

func TestHealthCheckHandler(t *testing.T) {
	app, _, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	status, _, body := ts.get(t, "/v1/healthcheck", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "available", body["status"])

	info := body["system_info"].(map[string]any)
	assert.Equal(t, "testing", info["environment"])
	assert.Equal(t, "lenient", info["aggregation_mode"])
	assert.Equal(t, "true", info["uploads_enabled"])
}

func TestRegisterUserHandler(t *testing.T) {
	app, _, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	testCases := []struct {
		name       string
		payload    any
		wantStatus int
		wantBody   envelope
	}{
		{
			name: "Valid Request",
			payload: map[string]any{
				"username":  "testuser",
				"email":     "testuser@example.com",
				"password":  "Test_1234!",
				"full_name": "Test User",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "Invalid Payload",
			payload: map[string]any{
				"username": "otheruser",
				"email":    "test",
				"password": "Test_1234!",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   envelope{"error": map[string]any{"email": "must be a valid email address"}},
		},
		{
			name: "Duplicate Email",
			payload: map[string]any{
				"username": "user1",
				"email":    "testuser@example.com",
				"password": "Test_1234!",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   envelope{"error": map[string]any{"email": "a user with this email address already exists"}},
		},
		{
			name: "Duplicate Username",
			payload: map[string]any{
				"username": "testuser",
				"email":    "testuser1@example.com",
				"password": "Test_1234!",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   envelope{"error": map[string]any{"username": "this username is already taken"}},
		},
		{
			name: "Invalid Password",
			payload: map[string]any{
				"username": "thirduser",
				"email":    "third@example.com",
				"password": "password",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   envelope{"error": map[string]any{"password": "must be between 8 and 72 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one symbol"}},
		},
		{
			name:       "Empty Payload",
			payload:    map[string]any{},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   envelope{"error": map[string]any{"email": "must be provided", "password": "must be provided", "username": "must be provided"}},
		},
		{
			name:       "Unknown Field",
			payload:    map[string]any{"username": "x", "role": "admin"},
			wantStatus: http.StatusBadRequest,
			wantBody:   envelope{"error": `request body contains unknown field "role"`},
		},
	}

	// subtests share the database, so they run in order
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, body := ts.post(t, "/v1/users/register", nil, tc.payload)

			assert.Equal(t, tc.wantStatus, status)
			if tc.wantBody != nil {
				assert.Equal(t, tc.wantBody, body)
			}
			if status == http.StatusCreated {
				user := body["user"].(map[string]any)
				assert.Equal(t, "testuser@example.com", user["email"])
				assert.Equal(t, "testuser", user["profile"].(map[string]any)["username"])
			}
		})
	}
}

func TestLoginLogoutHandlers(t *testing.T) {
	app, _, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	token := ts.registerAndLogin(t, "loginuser")

	status, _, body := ts.post(t, "/v1/users/login", nil, map[string]any{
		"username": "loginuser",
		"password": "Wrong_1234!",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid authentication credentials", body["error"])

	status, _, _ = ts.get(t, "/v1/me/posts", &token)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = ts.delete(t, "/v1/users/logout", &token)
	assert.Equal(t, http.StatusOK, status)

	// the revoked token no longer authenticates
	status, _, _ = ts.get(t, "/v1/me/posts", &token)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, _ = ts.delete(t, "/v1/users/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProfileHandlers(t *testing.T) {
	app, mb, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	token := ts.registerAndLogin(t, "writer")

	status, _, body := ts.get(t, "/v1/profiles/writer", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "writer", body["profile"].(map[string]any)["username"])

	status, _, _ = ts.get(t, "/v1/profiles/nobody", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _, body = ts.put(t, "/v1/profiles", &token, map[string]any{
		"username": "writer2",
		"bio":      "I write things",
		"website":  "https://writer.example.com",
	})
	require.Equal(t, http.StatusOK, status)

	profile := body["profile"].(map[string]any)
	assert.Equal(t, "writer2", profile["username"])
	assert.Equal(t, "I write things", profile["bio"])
	assert.Nil(t, profile["full_name"])
	assert.Len(t, mb.Messages(common.ContentChangedKey), 1)

	status, _, body = ts.put(t, "/v1/profiles", &token, map[string]any{"username": "writer2", "website": "ftp://x"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["error"], "website")

	status, _, _ = ts.put(t, "/v1/profiles", nil, map[string]any{"username": "anon"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTaxonomyHandlers(t *testing.T) {
	app, _, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	token := ts.registerAndLogin(t, "editor")

	status, _, _ := ts.post(t, "/v1/categories", nil, map[string]any{"name": "Go"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, body := ts.post(t, "/v1/categories", &token, map[string]any{"name": "Go Tips", "description": "Short ones"})
	require.Equal(t, http.StatusCreated, status)
	category := body["category"].(map[string]any)
	assert.Equal(t, "go-tips", category["slug"])

	status, _, _ = ts.post(t, "/v1/categories", &token, map[string]any{"name": "Go Tips"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _, body = ts.get(t, "/v1/categories", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["categories"], 1)

	status, _, _ = ts.get(t, "/v1/categories/go-tips", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _, body = ts.put(t, "/v1/categories/"+category["id"].(string), &token, map[string]any{"name": "Go Recipes"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "go-recipes", body["category"].(map[string]any)["slug"])

	// updates are visible through the cached list
	_, _, body = ts.get(t, "/v1/categories", nil)
	assert.Equal(t, "go-recipes", body["categories"].([]any)[0].(map[string]any)["slug"])

	status, _, body = ts.post(t, "/v1/tags", &token, map[string]any{"name": "Concurrency"})
	require.Equal(t, http.StatusCreated, status)
	tagID := body["tag"].(map[string]any)["id"]

	status, _, body = ts.post(t, "/v1/tags", &token, map[string]any{"name": "concurrency"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, tagID, body["tag"].(map[string]any)["id"])

	status, _, _ = ts.get(t, "/v1/tags/concurrency", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = ts.delete(t, "/v1/tags/"+tagID.(string), &token)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = ts.get(t, "/v1/tags/concurrency", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = ts.delete(t, "/v1/categories/not-a-uuid", &token)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPostHandlers(t *testing.T) {
	app, mb, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	author := ts.registerAndLogin(t, "author")
	reader := ts.registerAndLogin(t, "reader")

	_, _, body := ts.post(t, "/v1/categories", &author, map[string]any{"name": "Backend"})
	categoryID := body["category"].(map[string]any)["id"]
	_, _, body = ts.post(t, "/v1/tags", &author, map[string]any{"name": "Postgres"})
	tagID := body["tag"].(map[string]any)["id"]

	status, _, _ := ts.post(t, "/v1/posts", nil, map[string]any{"title": "Nope", "content": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, body = ts.post(t, "/v1/posts", &author, map[string]any{"title": "", "content": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["error"], "title")

	status, _, body = ts.post(t, "/v1/posts", &author, map[string]any{
		"title":       "Hello World",
		"content":     "# Hi\n\nSome **markdown**.",
		"category_id": categoryID,
		"tag_ids":     []any{tagID},
		"published":   true,
	})
	require.Equal(t, http.StatusCreated, status)
	post := body["post"].(map[string]any)
	postID := post["id"].(string)
	assert.Equal(t, "hello-world", post["slug"])
	assert.NotNil(t, post["published_at"])

	status, _, body = ts.post(t, "/v1/posts", &author, map[string]any{"title": "Hello World", "content": "draft"})
	require.Equal(t, http.StatusCreated, status)
	draft := body["post"].(map[string]any)
	assert.Equal(t, "hello-world-2", draft["slug"])
	assert.Nil(t, draft["published_at"])

	t.Run("Detail", func(t *testing.T) {
		status, _, body := ts.get(t, "/v1/posts/hello-world", nil)
		require.Equal(t, http.StatusOK, status)

		detail := body["post"].(map[string]any)
		assert.Equal(t, "author", detail["author"].(map[string]any)["username"])
		assert.Equal(t, "backend", detail["category"].(map[string]any)["slug"])
		assert.Len(t, detail["tags"], 1)
		assert.Equal(t, false, detail["is_liked"])
		assert.Contains(t, detail["content_html"], "<strong>markdown</strong>")
	})

	t.Run("Draft Visibility", func(t *testing.T) {
		status, _, _ := ts.get(t, "/v1/posts/hello-world-2", nil)
		assert.Equal(t, http.StatusNotFound, status)

		status, _, _ = ts.get(t, "/v1/posts/hello-world-2", &reader)
		assert.Equal(t, http.StatusNotFound, status)

		status, _, _ = ts.get(t, "/v1/posts/hello-world-2", &author)
		assert.Equal(t, http.StatusOK, status)

		status, _, body := ts.get(t, "/v1/me/posts", &author)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, body["posts"], 2)
	})

	t.Run("List", func(t *testing.T) {
		status, _, body := ts.get(t, "/v1/posts", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, body["posts"], 1)

		_, _, body = ts.get(t, "/v1/posts?category=backend&tag=postgres&author=author", nil)
		assert.Len(t, body["posts"], 1)

		_, _, body = ts.get(t, "/v1/posts?tag=unknown", nil)
		assert.Len(t, body["posts"], 0)

		status, _, _ = ts.get(t, "/v1/posts?limit=abc", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Like", func(t *testing.T) {
		status, _, body := ts.post(t, "/v1/posts/"+postID+"/like", &reader, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["liked"])

		_, _, body = ts.get(t, "/v1/posts/hello-world", &reader)
		detail := body["post"].(map[string]any)
		assert.Equal(t, true, detail["is_liked"])
		assert.EqualValues(t, 1, detail["likes_count"])

		_, _, body = ts.post(t, "/v1/posts/"+postID+"/like", &reader, nil)
		assert.Equal(t, false, body["liked"])

		status, _, _ = ts.post(t, "/v1/posts/"+postID+"/like", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _, _ = ts.post(t, "/v1/posts/00000000-0000-0000-0000-000000000001/like", &reader, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("Update", func(t *testing.T) {
		status, _, _ := ts.put(t, "/v1/posts/"+postID, &reader, map[string]any{"title": "Hijack", "content": "x"})
		assert.Equal(t, http.StatusForbidden, status)

		status, _, body := ts.put(t, "/v1/posts/"+postID, &author, map[string]any{"title": "Hello Again", "content": "updated", "published": true})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "hello-again", body["post"].(map[string]any)["slug"])

		status, _, _ = ts.put(t, "/v1/posts/00000000-0000-0000-0000-000000000001", &author, map[string]any{"title": "Ghost", "content": "x"})
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("Delete", func(t *testing.T) {
		status, _, _ := ts.delete(t, "/v1/posts/"+postID, &reader)
		assert.Equal(t, http.StatusForbidden, status)

		status, _, _ = ts.delete(t, "/v1/posts/"+postID, &author)
		assert.Equal(t, http.StatusOK, status)

		status, _, _ = ts.get(t, "/v1/posts/hello-again", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	assert.NotEmpty(t, mb.Messages(common.ContentChangedKey))
}

func TestCommentHandlers(t *testing.T) {
	app, mb, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	author := ts.registerAndLogin(t, "poster")
	reader := ts.registerAndLogin(t, "commenter")

	_, _, body := ts.post(t, "/v1/posts", &author, map[string]any{"title": "Discuss", "content": "talk", "published": true})
	postID := body["post"].(map[string]any)["id"].(string)

	status, _, body := ts.get(t, "/v1/comments/post/"+postID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["comments"])

	status, _, _ = ts.post(t, "/v1/comments", nil, map[string]any{"post_id": postID, "content": "hi"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, body = ts.post(t, "/v1/comments", &reader, map[string]any{"post_id": postID, "content": "First!"})
	require.Equal(t, http.StatusCreated, status)
	rootID := body["comment"].(map[string]any)["id"].(string)

	// the post author gets a mail for a comment by someone else
	assert.Len(t, mb.Messages(common.CommentCreatedKey), 1)

	status, _, body = ts.post(t, "/v1/comments", &author, map[string]any{"post_id": postID, "content": "Thanks", "parent_id": rootID})
	require.Equal(t, http.StatusCreated, status)
	replyID := body["comment"].(map[string]any)["id"].(string)
	assert.Len(t, mb.Messages(common.CommentCreatedKey), 1)

	status, _, body = ts.post(t, "/v1/comments", &reader, map[string]any{"post_id": postID, "content": "Deeper", "parent_id": replyID})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["error"], "parent_id")

	status, _, _ = ts.post(t, "/v1/comments", &reader, map[string]any{"post_id": postID, "content": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _, _ = ts.post(t, "/v1/comments", &reader, map[string]any{"post_id": "00000000-0000-0000-0000-000000000001", "content": "lost"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = ts.post(t, "/v1/comments", &reader, map[string]any{"post_id": "not-a-uuid", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, body = ts.get(t, "/v1/comments/post/"+postID, nil)
	require.Equal(t, http.StatusOK, status)
	tree := body["comments"].([]any)
	require.Len(t, tree, 1)
	replies := tree[0].(map[string]any)["replies"].([]any)
	require.Len(t, replies, 1)
	assert.Equal(t, "Thanks", replies[0].(map[string]any)["content"])

	status, _, _ = ts.patch(t, "/v1/comments/"+rootID, &author, map[string]any{"content": "edited"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _, body = ts.patch(t, "/v1/comments/"+rootID, &reader, map[string]any{"content": "edited"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "edited", body["comment"].(map[string]any)["content"])

	status, _, _ = ts.delete(t, "/v1/comments/"+rootID, &reader)
	assert.Equal(t, http.StatusOK, status)

	_, _, body = ts.get(t, "/v1/comments/post/"+postID, nil)
	assert.Equal(t, []any{}, body["comments"])
}

func newUploadBody(t *testing.T, contentType string, data []byte, folder string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="banner.png"`)
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)

	if folder != "" {
		require.NoError(t, w.WriteField("folder", folder))
	}
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	app, _, store := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	token := ts.registerAndLogin(t, "uploader")
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	upload := func(token *string, contentType string, data []byte, folder string) (int, envelope) {
		body, formType := newUploadBody(t, contentType, data, folder)

		req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/uploads", body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", formType)
		if token != nil {
			req.Header.Set("Authorization", "Bearer "+*token)
		}

		res, err := ts.Client().Do(req)
		require.NoError(t, err)

		status, _, env := readResponse(t, res)
		return status, env
	}

	status, body := upload(&token, "image/png", png, "avatars")
	require.Equal(t, http.StatusCreated, status)
	url := body["url"].(string)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/avatars/"))
	assert.True(t, strings.HasSuffix(url, ".png"))
	assert.Len(t, store.objects, 1)

	status, _ = upload(nil, "image/png", png, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = upload(&token, "application/pdf", []byte("%PDF-1.4"), "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["error"], "file")

	status, _ = upload(&token, "image/jpeg", png, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = upload(&token, "image/png", png, "../etc")
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	assert.Len(t, store.objects, 1)
}
