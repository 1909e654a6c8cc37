// ABOUTME: Tests for the HTTP record store client against a chi fake of the /api endpoints.
// ABOUTME: The fake delegates to the KV record service so round trips exercise real behavior.
package recordstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/pump/internal/charm"
	"github.com/harperreed/pump/internal/models"
	"github.com/harperreed/pump/internal/recordstore"
)

type fakeAPI struct {
	store   recordstore.Client
	calls   atomic.Int32
	devices []string
}

func (f *fakeAPI) writeErr(w http.ResponseWriter, err error) {
	status, msg := http.StatusInternalServerError, err.Error()
	var se *recordstore.Error
	if errors.As(err, &se) && se.Status > 0 {
		status, msg = se.Status, se.Message
	}
	f.writeJSON(w, status, map[string]string{"error": msg})
}

func (f *fakeAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) user(r *http.Request) string {
	id, _ := recordstore.DecodePrincipal(r.Header.Get(recordstore.PrincipalHeader))
	return id
}

func (f *fakeAPI) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			f.calls.Add(1)
			f.devices = append(f.devices, req.Header.Get(recordstore.DeviceHeader))
			if f.user(req) == "" {
				f.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/api/routines", func(w http.ResponseWriter, req *http.Request) {
		out, err := f.store.ListRoutines(req.Context(), f.user(req), req.URL.Query().Get("date"))
		if err != nil {
			f.writeErr(w, err)
			return
		}
		f.writeJSON(w, http.StatusOK, out)
	})
	r.Post("/api/routines", func(w http.ResponseWriter, req *http.Request) {
		var in models.RoutineInput
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			f.writeErr(w, recordstore.Invalid(err))
			return
		}
		out, err := f.store.CreateRoutine(req.Context(), f.user(req), in)
		if err != nil {
			f.writeErr(w, err)
			return
		}
		f.writeJSON(w, http.StatusCreated, out)
	})
	r.Patch("/api/routines/{id}", func(w http.ResponseWriter, req *http.Request) {
		var p models.RoutinePatch
		if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
			f.writeErr(w, recordstore.Invalid(err))
			return
		}
		out, err := f.store.UpdateRoutine(req.Context(), f.user(req), chi.URLParam(req, "id"), p)
		if err != nil {
			f.writeErr(w, err)
			return
		}
		f.writeJSON(w, http.StatusOK, out)
	})
	r.Delete("/api/routines/{id}", func(w http.ResponseWriter, req *http.Request) {
		n, err := f.store.DeleteRoutine(req.Context(), f.user(req), chi.URLParam(req, "id"))
		if err != nil {
			f.writeErr(w, err)
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]any{"success": true, "deletedExercises": n})
	})

	r.Get("/api/exercises", func(w http.ResponseWriter, req *http.Request) {
		out, err := f.store.ListExercises(req.Context(), f.user(req), req.URL.Query().Get("routineId"))
		if err != nil {
			f.writeErr(w, err)
			return
		}
		f.writeJSON(w, http.StatusOK, out)
	})
	r.Post("/api/exercises", func(w http.ResponseWriter, req *http.Request) {
		var in models.ExerciseInput
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			f.writeErr(w, recordstore.Invalid(err))
			return
		}
		out, err := f.store.CreateExercise(req.Context(), f.user(req), in)
		if err != nil {
			f.writeErr(w, err)
			return
		}
		f.writeJSON(w, http.StatusCreated, out)
	})
	r.Patch("/api/exercises/{id}", func(w http.ResponseWriter, req *http.Request) {
		var p models.ExercisePatch
		if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
			f.writeErr(w, recordstore.Invalid(err))
			return
		}
		out, err := f.store.UpdateExercise(req.Context(), f.user(req), chi.URLParam(req, "id"), p)
		if err != nil {
			f.writeErr(w, err)
			return
		}
		f.writeJSON(w, http.StatusOK, out)
	})
	r.Delete("/api/exercises/{id}", func(w http.ResponseWriter, req *http.Request) {
		n, err := f.store.DeleteExercise(req.Context(), f.user(req), chi.URLParam(req, "id"))
		if err != nil {
			f.writeErr(w, err)
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]any{"success": true, "photosDeleted": n})
	})

	r.Get("/api/photos", func(w http.ResponseWriter, req *http.Request) {
		out, err := f.store.ListPhotos(req.Context(), f.user(req), req.URL.Query().Get("exerciseId"))
		if err != nil {
			f.writeErr(w, err)
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "photos": out})
	})
	r.Post("/api/photos", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			f.writeErr(w, recordstore.Invalid(err))
			return
		}
		file, _, err := req.FormFile("photo")
		if err != nil {
			f.writeErr(w, recordstore.Invalid(err))
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		ts, _ := strconv.ParseInt(req.FormValue("timestamp"), 10, 64)
		out, err := f.store.UploadPhoto(req.Context(), f.user(req), models.PhotoInput{
			ExerciseID: req.FormValue("exerciseId"),
			Data:       data,
			Timestamp:  ts,
		})
		if err != nil {
			f.writeErr(w, err)
			return
		}
		f.writeJSON(w, http.StatusCreated, out)
	})
	r.Delete("/api/photos/*", func(w http.ResponseWriter, req *http.Request) {
		id, err := url.PathUnescape(chi.URLParam(req, "*"))
		if err != nil {
			f.writeErr(w, recordstore.Invalid(err))
			return
		}
		if err := f.store.DeletePhoto(req.Context(), f.user(req), id); err != nil {
			f.writeErr(w, err)
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})
	return r
}

func newFakeServer(t *testing.T) (*fakeAPI, *recordstore.HTTPClient) {
	t.Helper()
	store, err := charm.OpenLocal("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	api := &fakeAPI{store: store}
	srv := httptest.NewServer(api.router())
	t.Cleanup(srv.Close)
	return api, recordstore.NewHTTPClient(srv.URL, recordstore.WithDeviceID("dev-1"))
}

func TestHTTPClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	api, c := newFakeServer(t)

	r, err := c.CreateRoutine(ctx, "u1", models.RoutineInput{Date: "2024-02-14", Name: "Leg Day", Order: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)

	routines, err := c.ListRoutines(ctx, "u1", "2024-02-14")
	require.NoError(t, err)
	require.Len(t, routines, 1)
	assert.Equal(t, "Leg Day", routines[0].Name)

	name := "Heavy Legs"
	r, err = c.UpdateRoutine(ctx, "u1", r.ID, models.RoutinePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Heavy Legs", r.Name)

	sets := 4
	e, err := c.CreateExercise(ctx, "u1", models.ExerciseInput{RoutineID: r.ID, Name: "Squat", Sets: &sets, Order: 1})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTime, e.Time)

	done := 2
	e, err = c.UpdateExercise(ctx, "u1", e.ID, models.ExercisePatch{SetsCompleted: &done})
	require.NoError(t, err)
	assert.Equal(t, 2, e.SetsCompleted)
	assert.Equal(t, 4, e.Sets)

	p, err := c.UploadPhoto(ctx, "u1", models.PhotoInput{ExerciseID: e.ID, Data: []byte("jpeg"), Timestamp: 1234})
	require.NoError(t, err)
	assert.Equal(t, "u1/"+e.ID+"/1234.jpg", p.ID)

	photos, err := c.ListPhotos(ctx, "u1", e.ID)
	require.NoError(t, err)
	require.Len(t, photos, 1)

	require.NoError(t, c.DeletePhoto(ctx, "u1", p.ID))
	photos, err = c.ListPhotos(ctx, "u1", e.ID)
	require.NoError(t, err)
	assert.Empty(t, photos)

	n, err := c.DeleteRoutine(ctx, "u1", r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Contains(t, api.devices, "dev-1")
}

func TestHTTPClientErrorStatuses(t *testing.T) {
	ctx := context.Background()
	api, c := newFakeServer(t)

	_, err := c.DeleteExercise(ctx, "u1", "missing")
	assert.True(t, recordstore.IsNotFound(err))

	_, err = c.ListRoutines(ctx, "u1", "bad-date")
	assert.True(t, recordstore.IsValidation(err))

	err = c.DeletePhoto(ctx, "thisUser", "otherUser/ex1/123.jpg")
	assert.True(t, recordstore.IsForbidden(err))

	before := api.calls.Load()
	_, err = c.ListRoutines(ctx, "", "2024-01-01")
	assert.True(t, recordstore.IsUnauthenticated(err))
	assert.Equal(t, before, api.calls.Load(), "no request without a user")
}

func TestHTTPClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := recordstore.NewHTTPClient(addr)
	_, err := c.ListRoutines(context.Background(), "u1", "2024-01-01")
	require.Error(t, err)
	assert.True(t, recordstore.IsNetwork(err))

	var se *recordstore.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, recordstore.StatusNetwork, se.Status)
}

func TestHTTPClientMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "{not json")
	}))
	t.Cleanup(srv.Close)

	c := recordstore.NewHTTPClient(srv.URL)
	_, err := c.ListRoutines(context.Background(), "u1", "2024-01-01")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, recordstore.StatusOf(err))
	assert.False(t, recordstore.IsNetwork(err))
}

func TestPrincipalRoundTrip(t *testing.T) {
	id, err := recordstore.DecodePrincipal(recordstore.EncodePrincipal("user-42"))
	require.NoError(t, err)
	assert.Equal(t, "user-42", id)

	_, err = recordstore.DecodePrincipal("%%%")
	assert.Error(t, err)
}
