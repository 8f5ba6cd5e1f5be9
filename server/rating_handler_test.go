package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"WaveFM/config"
	"WaveFM/core/auth"
	"WaveFM/core/rating"
	"WaveFM/db"
	"WaveFM/model"
	"WaveFM/repository"

	"github.com/gorilla/mux"
)

// memRatingRepo backs handler tests without a database.
type memRatingRepo struct {
	rows   map[string]*model.Rating
	nextID int64
}

func newMemRatingRepo() *memRatingRepo {
	return &memRatingRepo{rows: make(map[string]*model.Rating)}
}

func ratingKey(userID int64, title, artist string) string {
	return fmt.Sprintf("%d\x00%s\x00%s", userID, title, artist)
}

func (m *memRatingRepo) Upsert(_ context.Context, userID int64, title, artist string, value int) (*model.Rating, error) {
	k := ratingKey(userID, title, artist)
	if existing, ok := m.rows[k]; ok {
		existing.Value = value
		existing.SubmittedAt = time.Now()
		cp := *existing
		return &cp, nil
	}
	m.nextID++
	now := time.Now()
	r := &model.Rating{
		ID: m.nextID, UserID: userID, SongTitle: title, SongArtist: artist,
		Value: value, SubmittedAt: now, CreatedAt: now,
	}
	m.rows[k] = r
	cp := *r
	return &cp, nil
}

func (m *memRatingRepo) Aggregate(_ context.Context, title, artist string) (model.RatingSummary, error) {
	var summary model.RatingSummary
	for _, r := range m.rows {
		if r.SongTitle != title || r.SongArtist != artist {
			continue
		}
		summary.TotalRatings++
		if r.Value == rating.ThumbsUp {
			summary.ThumbsUp++
		} else {
			summary.ThumbsDown++
		}
	}
	return summary, nil
}

func (m *memRatingRepo) UserRating(_ context.Context, userID int64, title, artist string) (int, error) {
	if r, ok := m.rows[ratingKey(userID, title, artist)]; ok {
		return r.Value, nil
	}
	return 0, repository.ErrNotFound
}

func (m *memRatingRepo) Delete(_ context.Context, userID int64, title, artist string) error {
	k := ratingKey(userID, title, artist)
	if _, ok := m.rows[k]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, k)
	return nil
}

func (m *memRatingRepo) ListByUser(_ context.Context, userID int64) ([]*model.Rating, error) {
	out := make([]*model.Rating, 0)
	for _, r := range m.rows {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func newTestRouter(t *testing.T) (*mux.Router, *auth.TokenIssuer) {
	t.Helper()

	issuer := auth.NewTokenIssuer("test-secret")
	repo := newMemRatingRepo()
	handler := NewAPIHandler(
		&db.Repositories{Ratings: repo},
		rating.NewLedger(repo),
		issuer,
		nil,
		nil,
		&config.Config{},
	)

	router := mux.NewRouter()
	router.UseEncodedPath()
	router.HandleFunc("/api/ratings", handler.RequireAuth(handler.SubmitRatingHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/ratings", handler.RequireAuth(handler.DeleteRatingHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/ratings/mine", handler.RequireAuth(handler.ListMyRatingsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/ratings/{title}/{artist}", handler.OptionalAuth(handler.GetRatingHandler)).Methods(http.MethodGet)
	return router, issuer
}

func tokenFor(t *testing.T, issuer *auth.TokenIssuer, userID int64, username string) string {
	t.Helper()
	token, err := issuer.GenerateToken(userID, username)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func doJSON(t *testing.T, router *mux.Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestSubmitRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/ratings", "",
		RatingRequest{SongTitle: "Ode", SongArtist: "Joy", Rating: 1})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] == nil {
		t.Errorf("expected JSON error body, got %q", rec.Body.String())
	}
}

func TestSubmitRejectsGarbageToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/ratings", "not-a-token",
		RatingRequest{SongTitle: "Ode", SongArtist: "Joy", Rating: 1})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSubmitValidationErrors(t *testing.T) {
	router, issuer := newTestRouter(t)
	token := tokenFor(t, issuer, 1, "alice")

	tests := []struct {
		name string
		req  RatingRequest
	}{
		{"zero rating", RatingRequest{SongTitle: "Ode", SongArtist: "Joy", Rating: 0}},
		{"rating out of range", RatingRequest{SongTitle: "Ode", SongArtist: "Joy", Rating: 5}},
		{"missing title", RatingRequest{SongArtist: "Joy", Rating: 1}},
		{"missing artist", RatingRequest{SongTitle: "Ode", Rating: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/ratings", token, tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if body := decodeBody(t, rec); body["error"] == nil {
				t.Errorf("expected error field in %q", rec.Body.String())
			}
		})
	}
}

func TestSubmitReturnsLabel(t *testing.T) {
	router, issuer := newTestRouter(t)
	token := tokenFor(t, issuer, 1, "alice")

	rec := doJSON(t, router, http.MethodPost, "/api/ratings", token,
		RatingRequest{SongTitle: "Ode", SongArtist: "Joy", Rating: 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["rating"] != "thumbs_up" {
		t.Errorf("rating label = %v, want thumbs_up", body["rating"])
	}

	rec = doJSON(t, router, http.MethodPost, "/api/ratings", token,
		RatingRequest{SongTitle: "Ode", SongArtist: "Joy", Rating: -1})
	if rec.Code != http.StatusOK {
		t.Fatalf("resubmit status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["rating"] != "thumbs_down" {
		t.Errorf("rating label = %v, want thumbs_down", body["rating"])
	}
}

func TestAggregateAnonymousAndAuthenticated(t *testing.T) {
	router, issuer := newTestRouter(t)
	alice := tokenFor(t, issuer, 1, "alice")
	bob := tokenFor(t, issuer, 2, "bob")

	for _, sub := range []struct {
		token string
		value int
	}{{alice, 1}, {bob, -1}} {
		rec := doJSON(t, router, http.MethodPost, "/api/ratings", sub.token,
			RatingRequest{SongTitle: "Ode", SongArtist: "Joy", Rating: sub.value})
		if rec.Code != http.StatusOK {
			t.Fatalf("submit status = %d: %s", rec.Code, rec.Body.String())
		}
	}

	path := "/api/ratings/" + url.PathEscape("Ode") + "/" + url.PathEscape("Joy")

	// Anonymous: counts only, no userRating key.
	rec := doJSON(t, router, http.MethodGet, path, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["thumbsUp"] != float64(1) || body["thumbsDown"] != float64(1) || body["totalRatings"] != float64(2) {
		t.Errorf("anonymous counts = %v, want 1/1/2", body)
	}
	if _, present := body["userRating"]; present {
		t.Errorf("anonymous response must omit userRating: %v", body)
	}

	// Authenticated: own rating included.
	rec = doJSON(t, router, http.MethodGet, path, alice, nil)
	body = decodeBody(t, rec)
	if body["userRating"] != float64(1) {
		t.Errorf("userRating = %v, want 1", body["userRating"])
	}
}

func TestAggregateEncodedSongKey(t *testing.T) {
	router, issuer := newTestRouter(t)
	token := tokenFor(t, issuer, 1, "alice")

	title := "Love / Hate"
	artist := "AC/DC"
	rec := doJSON(t, router, http.MethodPost, "/api/ratings", token,
		RatingRequest{SongTitle: title, SongArtist: artist, Rating: 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d: %s", rec.Code, rec.Body.String())
	}

	path := "/api/ratings/" + url.PathEscape(title) + "/" + url.PathEscape(artist)
	rec = doJSON(t, router, http.MethodGet, path, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("aggregate status = %d for %s", rec.Code, path)
	}
	body := decodeBody(t, rec)
	if body["songTitle"] != title || body["songArtist"] != artist {
		t.Errorf("song key = %v/%v, want %q/%q", body["songTitle"], body["songArtist"], title, artist)
	}
	if body["totalRatings"] != float64(1) {
		t.Errorf("totalRatings = %v, want 1", body["totalRatings"])
	}
}

func TestAggregateUnknownSongReturnsZeros(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/ratings/Unknown/Nobody", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["thumbsUp"] != float64(0) || body["thumbsDown"] != float64(0) || body["totalRatings"] != float64(0) {
		t.Errorf("counts = %v, want zeros", body)
	}
}

func TestDeleteThenDeleteAgain(t *testing.T) {
	router, issuer := newTestRouter(t)
	token := tokenFor(t, issuer, 1, "alice")

	rec := doJSON(t, router, http.MethodPost, "/api/ratings", token,
		RatingRequest{SongTitle: "Ode", SongArtist: "Joy", Rating: 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d", rec.Code)
	}

	del := RatingRequest{SongTitle: "Ode", SongArtist: "Joy"}
	rec = doJSON(t, router, http.MethodDelete, "/api/ratings", token, del)
	if rec.Code != http.StatusOK {
		t.Fatalf("first delete status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/ratings", token, del)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] == nil {
		t.Errorf("expected error body on 404, got %q", rec.Body.String())
	}
}

func TestDeleteValidatesKey(t *testing.T) {
	router, issuer := newTestRouter(t)
	token := tokenFor(t, issuer, 1, "alice")

	rec := doJSON(t, router, http.MethodDelete, "/api/ratings", token,
		RatingRequest{SongTitle: "", SongArtist: "Joy"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListMyRatings(t *testing.T) {
	router, issuer := newTestRouter(t)
	alice := tokenFor(t, issuer, 1, "alice")
	bob := tokenFor(t, issuer, 2, "bob")

	for _, title := range []string{"First", "Second"} {
		rec := doJSON(t, router, http.MethodPost, "/api/ratings", alice,
			RatingRequest{SongTitle: title, SongArtist: "A", Rating: 1})
		if rec.Code != http.StatusOK {
			t.Fatalf("submit status = %d", rec.Code)
		}
	}
	rec := doJSON(t, router, http.MethodPost, "/api/ratings", bob,
		RatingRequest{SongTitle: "Theirs", SongArtist: "B", Rating: -1})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/ratings/mine", alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var ratings []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &ratings); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(ratings) != 2 {
		t.Fatalf("len = %d, want 2 (only the caller's rows)", len(ratings))
	}
}
