package http

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/utafrali/VideoTubeGo/internal/domain"
	"github.com/utafrali/VideoTubeGo/pkg/middleware"
)

func TestGetCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	id := env.registerUser(t, "alice", "alice@example.com", "wonderland")
	accessToken, _ := env.login(t, "alice", "wonderland")

	t.Run("bearer header", func(t *testing.T) {
		rec := env.do(withBearer(httptestRequestNoBody(http.MethodGet, "/api/v1/users/me"), accessToken))

		require.Equal(t, http.StatusOK, rec.Code)
		var user domain.User
		decodeData(t, rec, &user)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "current user fetched successfully", decodeEnvelope(t, rec).Message)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptestRequestNoBody(http.MethodGet, "/api/v1/users/me")
		req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: accessToken})
		rec := env.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(httptestRequestNoBody(http.MethodGet, "/api/v1/users/me"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized request", decodeEnvelope(t, rec).Message)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		refresh, err := env.jwtManager.GenerateRefreshToken(id)
		require.NoError(t, err)

		rec := env.do(withBearer(httptestRequestNoBody(http.MethodGet, "/api/v1/users/me"), refresh))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUpdateAccount(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice", "alice@example.com", "wonderland")
	env.registerUser(t, "bob", "bob@example.com", "builder1")
	accessToken, _ := env.login(t, "alice", "wonderland")

	rec := env.do(withBearer(jsonRequest(http.MethodPatch, "/api/v1/users/me",
		map[string]string{"fullName": "Alice Pleasance", "username": "AliceP"}), accessToken))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user domain.User
	decodeData(t, rec, &user)
	assert.Equal(t, "Alice Pleasance", user.FullName)
	assert.Equal(t, "alicep", user.Username)

	rec = env.do(withBearer(jsonRequest(http.MethodPatch, "/api/v1/users/me",
		map[string]string{"username": "bob"}), accessToken))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(withBearer(jsonRequest(http.MethodPatch, "/api/v1/users/me",
		map[string]string{"fullName": "   "}), accessToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "request validation failed", body.Message)
	require.Len(t, body.Errors, 1)
	assert.Contains(t, body.Errors[0], "fullName")

	rec = env.do(withBearer(jsonRequest(http.MethodPatch, "/api/v1/users/me", map[string]string{}), accessToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no fields to update", decodeEnvelope(t, rec).Message)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice", "alice@example.com", "wonderland")
	accessToken, _ := env.login(t, "alice", "wonderland")

	rec := env.do(withBearer(jsonRequest(http.MethodPatch, "/api/v1/users/me/password", map[string]string{
		"oldPassword": "wonderland", "newPassword": "looking-glass", "confirmPassword": "looking-glass2",
	}), accessToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "new password and confirmation do not match", decodeEnvelope(t, rec).Message)

	rec = env.do(withBearer(jsonRequest(http.MethodPatch, "/api/v1/users/me/password", map[string]string{
		"oldPassword": "wrong-old", "newPassword": "looking-glass", "confirmPassword": "looking-glass",
	}), accessToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid password", decodeEnvelope(t, rec).Message)

	rec = env.do(withBearer(jsonRequest(http.MethodPatch, "/api/v1/users/me/password", map[string]string{
		"oldPassword": "wonderland",
	}), accessToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decodeEnvelope(t, rec).Errors, 2)

	rec = env.do(withBearer(jsonRequest(http.MethodPatch, "/api/v1/users/me/password", map[string]string{
		"oldPassword": "wonderland", "newPassword": "looking-glass", "confirmPassword": "looking-glass",
	}), accessToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "{}", string(decodeEnvelope(t, rec).Data))

	env.login(t, "alice", "looking-glass")
}

func TestUpdateAvatarAndCover(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice", "alice@example.com", "wonderland")
	accessToken, _ := env.login(t, "alice", "wonderland")

	rec := env.do(withBearer(multipartRequest(t, http.MethodPatch, "/api/v1/users/me/avatar",
		nil, map[string]string{"avatar": "new.JPG"}), accessToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user domain.User
	decodeData(t, rec, &user)
	assert.True(t, strings.HasSuffix(user.Avatar, ".jpg"), user.Avatar)

	rec = env.do(withBearer(multipartRequest(t, http.MethodPatch, "/api/v1/users/me/cover-image",
		nil, map[string]string{"coverImage": "cover.png"}), accessToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &user)
	assert.True(t, strings.HasPrefix(user.CoverImage, "https://media.test/"))

	rec = env.do(withBearer(multipartRequest(t, http.MethodPatch, "/api/v1/users/me/avatar",
		nil, map[string]string{"wrongField": "x.png"}), accessToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "avatar file is required", decodeEnvelope(t, rec).Message)
}

func TestWatchHistory(t *testing.T) {
	env := newTestEnv(t)
	ownerID := env.registerUser(t, "bob", "bob@example.com", "builder1")
	env.registerUser(t, "alice", "alice@example.com", "wonderland")
	accessToken, _ := env.login(t, "alice", "wonderland")

	first := primitive.NewObjectID().Hex()
	second := primitive.NewObjectID().Hex()
	env.store.addVideo(domain.Video{ID: first, Title: "first", Owner: ownerID, IsPublished: true})
	env.store.addVideo(domain.Video{ID: second, Title: "second", Owner: ownerID, IsPublished: true})

	rec := env.do(withBearer(httptestRequestNoBody(http.MethodGet, "/api/v1/users/me/watch-history"), accessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", string(decodeEnvelope(t, rec).Data))

	for _, id := range []string{second, first, second} {
		rec = env.do(withBearer(jsonRequest(http.MethodPost, "/api/v1/users/me/watch-history",
			map[string]string{"videoId": id}), accessToken))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = env.do(withBearer(httptestRequestNoBody(http.MethodGet, "/api/v1/users/me/watch-history"), accessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	var history []domain.WatchedVideo
	decodeData(t, rec, &history)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"second", "first", "second"}, []string{history[0].Title, history[1].Title, history[2].Title})
	require.NotNil(t, history[0].Owner)
	assert.Equal(t, "bob", history[0].Owner.Username)

	rec = env.do(withBearer(jsonRequest(http.MethodPost, "/api/v1/users/me/watch-history",
		map[string]string{"videoId": "nope"}), accessToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(withBearer(jsonRequest(http.MethodPost, "/api/v1/users/me/watch-history",
		map[string]string{"videoId": primitive.NewObjectID().Hex()}), accessToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "video not found", decodeEnvelope(t, rec).Message)
}
