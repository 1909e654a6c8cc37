// ABOUTME: HTTP implementation of the record store client against the /api endpoints.
// ABOUTME: Identifies the user with a base64 client-principal header.
package recordstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/pump/internal/models"
)

const (
	// PrincipalHeader carries base64 JSON {"userId": "..."}.
	PrincipalHeader = "x-ms-client-principal"
	// DeviceHeader identifies the calling installation.
	DeviceHeader = "X-Pump-Device"

	defaultTimeout = 30 * time.Second
)

// HTTPClient talks to the remote record service over REST.
type HTTPClient struct {
	baseURL    string
	deviceID   string
	httpClient *http.Client
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// WithDeviceID sets the value sent in DeviceHeader.
func WithDeviceID(id string) HTTPOption {
	return func(c *HTTPClient) { c.deviceID = id }
}

// NewHTTPClient creates a client for the service rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EncodePrincipal builds the client-principal header value for userID.
func EncodePrincipal(userID string) string {
	data, _ := json.Marshal(map[string]string{"userId": userID})
	return base64.StdEncoding.EncodeToString(data)
}

// DecodePrincipal extracts the user ID from a client-principal header value.
func DecodePrincipal(header string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return "", fmt.Errorf("decode principal: %w", err)
	}
	var p struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", fmt.Errorf("decode principal: %w", err)
	}
	return p.UserID, nil
}

type apiError struct {
	Error string `json:"error"`
}

type deleteRoutineResponse struct {
	Success          bool `json:"success"`
	DeletedExercises int  `json:"deletedExercises"`
}

type deleteExerciseResponse struct {
	Success       bool `json:"success"`
	PhotosDeleted int  `json:"photosDeleted"`
}

type listPhotosResponse struct {
	Count  int            `json:"count"`
	Photos []models.Photo `json:"photos"`
}

func (c *HTTPClient) newRequest(ctx context.Context, userID, method, path string, body io.Reader) (*http.Request, error) {
	if userID == "" {
		return nil, Unauthenticated()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(PrincipalHeader, EncodePrincipal(userID))
	req.Header.Set("Accept", "application/json")
	if c.deviceID != "" {
		req.Header.Set(DeviceHeader, c.deviceID)
	}
	return req, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, userID, method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, userID, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, target)
}

func (c *HTTPClient) do(req *http.Request, target any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Status: StatusNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return Errorf(http.StatusBadGateway, "decode response: %v", err)
		}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Error != "" {
		return &Error{Status: resp.StatusCode, Message: ae.Error}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &Error{Status: resp.StatusCode, Message: msg}
}

// ListRoutines returns the user's routines on date.
func (c *HTTPClient) ListRoutines(ctx context.Context, userID, date string) ([]models.Routine, error) {
	var out []models.Routine
	path := "/api/routines?" + url.Values{"date": {date}}.Encode()
	if err := c.doJSON(ctx, userID, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRoutine creates a routine.
func (c *HTTPClient) CreateRoutine(ctx context.Context, userID string, in models.RoutineInput) (*models.Routine, error) {
	var out models.Routine
	if err := c.doJSON(ctx, userID, http.MethodPost, "/api/routines", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRoutine applies a partial update.
func (c *HTTPClient) UpdateRoutine(ctx context.Context, userID, routineID string, patch models.RoutinePatch) (*models.Routine, error) {
	var out models.Routine
	path := "/api/routines/" + url.PathEscape(routineID)
	if err := c.doJSON(ctx, userID, http.MethodPatch, path, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRoutine deletes a routine and its children.
func (c *HTTPClient) DeleteRoutine(ctx context.Context, userID, routineID string) (int, error) {
	var out deleteRoutineResponse
	path := "/api/routines/" + url.PathEscape(routineID)
	if err := c.doJSON(ctx, userID, http.MethodDelete, path, nil, &out); err != nil {
		return 0, err
	}
	return out.DeletedExercises, nil
}

// ListExercises returns the exercises of a routine.
func (c *HTTPClient) ListExercises(ctx context.Context, userID, routineID string) ([]models.Exercise, error) {
	var out []models.Exercise
	path := "/api/exercises?" + url.Values{"routineId": {routineID}}.Encode()
	if err := c.doJSON(ctx, userID, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateExercise creates an exercise.
func (c *HTTPClient) CreateExercise(ctx context.Context, userID string, in models.ExerciseInput) (*models.Exercise, error) {
	var out models.Exercise
	if err := c.doJSON(ctx, userID, http.MethodPost, "/api/exercises", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateExercise applies a partial update.
func (c *HTTPClient) UpdateExercise(ctx context.Context, userID, exerciseID string, patch models.ExercisePatch) (*models.Exercise, error) {
	var out models.Exercise
	path := "/api/exercises/" + url.PathEscape(exerciseID)
	if err := c.doJSON(ctx, userID, http.MethodPatch, path, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteExercise deletes an exercise and its photos.
func (c *HTTPClient) DeleteExercise(ctx context.Context, userID, exerciseID string) (int, error) {
	var out deleteExerciseResponse
	path := "/api/exercises/" + url.PathEscape(exerciseID)
	if err := c.doJSON(ctx, userID, http.MethodDelete, path, nil, &out); err != nil {
		return 0, err
	}
	return out.PhotosDeleted, nil
}

// ListPhotos returns the photos of an exercise.
func (c *HTTPClient) ListPhotos(ctx context.Context, userID, exerciseID string) ([]models.Photo, error) {
	var out listPhotosResponse
	path := "/api/photos?" + url.Values{"exerciseId": {exerciseID}}.Encode()
	if err := c.doJSON(ctx, userID, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Photos, nil
}

// UploadPhoto sends the image as multipart form data.
func (c *HTTPClient) UploadPhoto(ctx context.Context, userID string, in models.PhotoInput) (*models.Photo, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("exerciseId", in.ExerciseID); err != nil {
		return nil, fmt.Errorf("write form: %w", err)
	}
	if in.Timestamp > 0 {
		if err := w.WriteField("timestamp", strconv.FormatInt(in.Timestamp, 10)); err != nil {
			return nil, fmt.Errorf("write form: %w", err)
		}
	}
	part, err := w.CreateFormFile("photo", "photo.jpg")
	if err != nil {
		return nil, fmt.Errorf("write form: %w", err)
	}
	if _, err := part.Write(in.Data); err != nil {
		return nil, fmt.Errorf("write form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("write form: %w", err)
	}

	req, err := c.newRequest(ctx, userID, http.MethodPost, "/api/photos", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out models.Photo
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out.ExerciseID == "" {
		out.ExerciseID = in.ExerciseID
	}
	return &out, nil
}

// DeletePhoto deletes a photo by its identity path.
func (c *HTTPClient) DeletePhoto(ctx context.Context, userID, photoID string) error {
	path := "/api/photos/" + url.PathEscape(photoID)
	return c.doJSON(ctx, userID, http.MethodDelete, path, nil, nil)
}

var _ Client = (*HTTPClient)(nil)
