package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kumpul/server/internal/docstore"
	"kumpul/server/internal/models"
	"kumpul/server/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuth stands in for the JWT middleware and pins the caller identity
func fakeAuth(userID, email string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		c.Locals("email", email)
		c.Locals("uniqueID", "#TEST-100")
		c.Locals("role", "user")
		return c.Next()
	}
}

// newTestApp wires the meetup routes over a fresh in-memory store.
// The returned switchUser swaps the authenticated identity mid-test.
func newTestApp(t *testing.T) (*fiber.App, func(userID, email string)) {
	t.Helper()

	Store = store.New(docstore.NewMemoryStore())
	CountCache = nil

	userID, email := "alice", "alice@example.com"
	auth := func(c *fiber.Ctx) error {
		return fakeAuth(userID, email)(c)
	}

	app := fiber.New()
	meetups := app.Group("/meetups", auth)
	meetups.Post("/", CreateMeetup)
	meetups.Get("/", GetMeetups)
	meetups.Get("/:meetupId", GetMeetupDetails)
	meetups.Patch("/:meetupId", UpdateMeetup)
	meetups.Delete("/:meetupId", ArchiveMeetup)
	meetups.Post("/:meetupId/join", JoinMeetup)
	meetups.Post("/:meetupId/leave", LeaveMeetup)
	meetups.Post("/:meetupId/react", ReactToMeetup)
	meetups.Get("/:meetupId/messages", GetMeetupMessages)
	meetups.Post("/:meetupId/messages", SendMeetupMessage)
	meetups.Post("/:meetupId/messages/:messageId/react", ReactToMessage)

	return app, func(id, em string) { userID, email = id, em }
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func createTestMeetup(t *testing.T, app *fiber.App, maxParticipants *int) models.Meetup {
	t.Helper()

	resp := doJSON(t, app, "POST", "/meetups/", fiber.Map{
		"title":           "Friday Futsal",
		"location":        "Senayan",
		"time":            time.Now().Add(48 * time.Hour),
		"maxParticipants": maxParticipants,
		"creator":         fiber.Map{"name": "Alice"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var meetup models.Meetup
	decodeData(t, resp, &meetup)
	return meetup
}

func TestCreateMeetupSeedsCreator(t *testing.T) {
	app, _ := newTestApp(t)

	meetup := createTestMeetup(t, app, nil)

	assert.Equal(t, "alice", meetup.CreatorID)
	require.Len(t, meetup.Participants, 1)
	assert.Equal(t, "alice", meetup.Participants[0].ID)
	assert.Equal(t, "alice@example.com", meetup.Participants[0].Email)
	assert.Equal(t, models.MeetupStatusActive, meetup.Status)
}

func TestCreateMeetupValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, "POST", "/meetups/", fiber.Map{
		"title":   "No location",
		"time":    time.Now(),
		"creator": fiber.Map{"name": "Alice"},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestJoinTwiceKeepsOneEntry(t *testing.T) {
	app, switchUser := newTestApp(t)
	meetup := createTestMeetup(t, app, nil)

	switchUser("bob", "bob@example.com")
	for i := 0; i < 2; i++ {
		resp := doJSON(t, app, "POST", "/meetups/"+meetup.ID+"/join", fiber.Map{"name": "Bob"})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp := doJSON(t, app, "GET", "/meetups/"+meetup.ID, nil)
	var got models.Meetup
	decodeData(t, resp, &got)
	assert.Len(t, got.Participants, 2)
}

func TestLeaveRemovesParticipant(t *testing.T) {
	app, switchUser := newTestApp(t)
	meetup := createTestMeetup(t, app, nil)

	switchUser("bob", "bob@example.com")
	doJSON(t, app, "POST", "/meetups/"+meetup.ID+"/join", fiber.Map{"name": "Bob"})

	resp := doJSON(t, app, "POST", "/meetups/"+meetup.ID+"/leave", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Leaving again is a no-op, not an error
	resp = doJSON(t, app, "POST", "/meetups/"+meetup.ID+"/leave", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/meetups/"+meetup.ID, nil)
	var got models.Meetup
	decodeData(t, resp, &got)
	require.Len(t, got.Participants, 1)
	assert.Equal(t, "alice", got.Participants[0].ID)
}

func TestJoinFullMeetupRejected(t *testing.T) {
	app, switchUser := newTestApp(t)
	max := 1
	meetup := createTestMeetup(t, app, &max)

	switchUser("bob", "bob@example.com")
	resp := doJSON(t, app, "POST", "/meetups/"+meetup.ID+"/join", fiber.Map{"name": "Bob"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestJoinArchivedMeetupRejected(t *testing.T) {
	app, switchUser := newTestApp(t)
	meetup := createTestMeetup(t, app, nil)

	resp := doJSON(t, app, "DELETE", "/meetups/"+meetup.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	switchUser("bob", "bob@example.com")
	resp = doJSON(t, app, "POST", "/meetups/"+meetup.ID+"/join", fiber.Map{"name": "Bob"})
	assert.Equal(t, fiber.StatusGone, resp.StatusCode)
}

func TestArchivedMeetupDropsFromList(t *testing.T) {
	app, _ := newTestApp(t)
	meetup := createTestMeetup(t, app, nil)

	resp := doJSON(t, app, "DELETE", "/meetups/"+meetup.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/meetups/", nil)
	var cards []map[string]interface{}
	decodeData(t, resp, &cards)
	assert.Empty(t, cards)

	// Document itself is still readable, only the list hides it
	resp = doJSON(t, app, "GET", "/meetups/"+meetup.ID, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestOnlyCreatorMayUpdate(t *testing.T) {
	app, switchUser := newTestApp(t)
	meetup := createTestMeetup(t, app, nil)

	switchUser("bob", "bob@example.com")
	resp := doJSON(t, app, "PATCH", "/meetups/"+meetup.ID, fiber.Map{"title": "Hijacked"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	switchUser("alice", "alice@example.com")
	resp = doJSON(t, app, "PATCH", "/meetups/"+meetup.ID, fiber.Map{"title": "Saturday Futsal"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got models.Meetup
	decodeData(t, resp, &got)
	assert.Equal(t, "Saturday Futsal", got.Title)
}

func TestReactionToggleOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)
	meetup := createTestMeetup(t, app, nil)

	react := func() *http.Response {
		return doJSON(t, app, "POST", "/meetups/"+meetup.ID+"/react", fiber.Map{"emoji": "🔥"})
	}

	require.Equal(t, fiber.StatusOK, react().StatusCode)

	resp := doJSON(t, app, "GET", "/meetups/"+meetup.ID, nil)
	var got models.Meetup
	decodeData(t, resp, &got)
	assert.Equal(t, []string{"alice"}, got.Reactions["🔥"])

	// Second toggle removes the reaction
	require.Equal(t, fiber.StatusOK, react().StatusCode)

	resp = doJSON(t, app, "GET", "/meetups/"+meetup.ID, nil)
	got = models.Meetup{}
	decodeData(t, resp, &got)
	assert.Empty(t, got.Reactions["🔥"])
}

func TestReactRequiresEmoji(t *testing.T) {
	app, _ := newTestApp(t)
	meetup := createTestMeetup(t, app, nil)

	resp := doJSON(t, app, "POST", "/meetups/"+meetup.ID+"/react", fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMutationsOnMissingMeetupReturn404(t *testing.T) {
	app, _ := newTestApp(t)
	createTestMeetup(t, app, nil)

	for _, tc := range []struct {
		method, path string
		body         interface{}
	}{
		{"GET", "/meetups/nope", nil},
		{"POST", "/meetups/nope/join", fiber.Map{"name": "Bob"}},
		{"POST", "/meetups/nope/leave", nil},
		{"POST", "/meetups/nope/react", fiber.Map{"emoji": "🔥"}},
	} {
		resp := doJSON(t, app, tc.method, tc.path, tc.body)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestChatRequiresParticipation(t *testing.T) {
	app, switchUser := newTestApp(t)
	meetup := createTestMeetup(t, app, nil)

	switchUser("mallory", "mallory@example.com")
	resp := doJSON(t, app, "POST", "/meetups/"+meetup.ID+"/messages", fiber.Map{
		"text":     "hi",
		"userName": "Mallory",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/meetups/"+meetup.ID+"/messages", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestChatRoundTrip(t *testing.T) {
	app, switchUser := newTestApp(t)
	meetup := createTestMeetup(t, app, nil)

	switchUser("bob", "bob@example.com")
	doJSON(t, app, "POST", "/meetups/"+meetup.ID+"/join", fiber.Map{"name": "Bob"})

	var sent models.Message
	for i := 0; i < 3; i++ {
		resp := doJSON(t, app, "POST", "/meetups/"+meetup.ID+"/messages", fiber.Map{
			"text":     fmt.Sprintf("message %d", i),
			"userName": "Bob",
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		decodeData(t, resp, &sent)
	}

	resp := doJSON(t, app, "GET", "/meetups/"+meetup.ID+"/messages", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var feed struct {
		MeetupID string            `json:"meetupId"`
		Messages []*models.Message `json:"messages"`
	}
	decodeData(t, resp, &feed)
	require.Len(t, feed.Messages, 3)
	assert.Equal(t, "message 0", feed.Messages[0].Text)
	assert.Equal(t, "message 2", feed.Messages[2].Text)

	// React to the last message and read it back
	resp = doJSON(t, app, "POST", "/meetups/"+meetup.ID+"/messages/"+sent.ID+"/react", fiber.Map{"emoji": "👍"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/meetups/"+meetup.ID+"/messages", nil)
	feed.Messages = nil
	decodeData(t, resp, &feed)
	assert.Equal(t, []string{"bob"}, feed.Messages[2].Reactions["👍"])
}

func TestListCountsComputedWithoutCache(t *testing.T) {
	app, switchUser := newTestApp(t)
	meetup := createTestMeetup(t, app, nil)

	switchUser("bob", "bob@example.com")
	doJSON(t, app, "POST", "/meetups/"+meetup.ID+"/join", fiber.Map{"name": "Bob"})
	doJSON(t, app, "POST", "/meetups/"+meetup.ID+"/react", fiber.Map{"emoji": "🔥"})

	resp := doJSON(t, app, "GET", "/meetups/", nil)
	var cards []struct {
		ID     string `json:"id"`
		Counts struct {
			Participants int `json:"participants"`
			Reactions    int `json:"reactions"`
		} `json:"counts"`
	}
	decodeData(t, resp, &cards)
	require.Len(t, cards, 1)
	assert.Equal(t, 2, cards[0].Counts.Participants)
	assert.Equal(t, 1, cards[0].Counts.Reactions)
}
