package detectionHandler

import (
	detectionService "QualityCheck/internal/api/detection/service"
	"QualityCheck/internal/middleware"
	"QualityCheck/pkg/utils"
	"QualityCheck/pkg/yolo"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var labels = yolo.Labels{"good_apple", "rotten_apple", "storage"}

type fakeDetector struct {
	batch   yolo.Batch
	err     error
	panicky bool
}

func (f *fakeDetector) Detect(context.Context, image.Image) (yolo.Batch, error) {
	if f.panicky {
		panic("letterbox: index out of range")
	}
	return f.batch, f.err
}

func (f *fakeDetector) Labels() yolo.Labels { return labels }

func (f *fakeDetector) Metrics() yolo.Metrics {
	return yolo.Metrics{PoolSize: 2, TotalAcquired: 7, TotalReleased: 7}
}

func newTestApp(t *testing.T, d yolo.Detector) (*fiber.App, *test.Hook) {
	t.Helper()

	logger, hook := test.NewNullLogger()
	m := middleware.New(logger, 0, 0)
	u := utils.New()

	app := fiber.New()
	app.Use(m.NewRequestIDMiddleware())
	app.Use(m.NewLoggingMiddleware)
	app.Use(m.NewRecoverMiddleware)

	svc := detectionService.NewDetectionService(logger, d, u)
	New(logger, m, svc, u, time.Second).Start(app)

	return app, hook
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	img.Set(12, 20, color.RGBA{R: 200, G: 30, B: 30, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, field string, data []byte) *multipartBody {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "apple.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &multipartBody{body: buf.Bytes(), contentType: w.FormDataContentType()}
}

type multipartBody struct {
	body        []byte
	contentType string
}

func postDetect(t *testing.T, app *fiber.App, mb *multipartBody) (int, string) {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPost, "/detect", bytes.NewReader(mb.body))
	req.Header.Set(fiber.HeaderContentType, mb.contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestDetectReturnsEncodedDetections(t *testing.T) {
	d := &fakeDetector{batch: yolo.Batch{{
		{Box: [4]float32{10.7, 20.2, 50.9, 60.1}, Confidence: 0.5, Class: 0},
	}}}
	app, _ := newTestApp(t, d)

	status, body := postDetect(t, app, uploadRequest(t, "file", pngBytes(t)))

	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[[{"class":0,"class_name":"good_apple","bbox":[10,20,50,60],"confidence":0.5}]]`, body)
}

func TestDetectWithNoObjectsReturnsEmptyInnerList(t *testing.T) {
	app, _ := newTestApp(t, &fakeDetector{batch: yolo.Batch{{}}})

	status, body := postDetect(t, app, uploadRequest(t, "file", pngBytes(t)))

	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[[]]`, body)
}

func TestDetectErrors(t *testing.T) {
	cases := []struct {
		name   string
		field  string
		data   []byte
		err    error
		status int
		body   string
	}{
		{"missing file field", "image", pngBytes(t), nil, fiber.StatusUnprocessableEntity, "Unprocessable entity"},
		{"not an image", "file", []byte("definitely not an image"), nil, fiber.StatusInternalServerError, "Internal server error"},
		{"inference failure", "file", pngBytes(t), fmt.Errorf("onnx: run failed"), fiber.StatusInternalServerError, "Internal server error"},
		{"pool busy", "file", pngBytes(t), yolo.ErrPoolBusy, fiber.StatusServiceUnavailable, "Service unavailable"},
		{"timeout", "file", pngBytes(t), fmt.Errorf("%w: %w", yolo.ErrTimeout, context.DeadlineExceeded), fiber.StatusGatewayTimeout, "Gateway timeout"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, hook := newTestApp(t, &fakeDetector{batch: yolo.Batch{{}}, err: tc.err})

			status, body := postDetect(t, app, uploadRequest(t, tc.field, tc.data))

			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.body, body)
			assert.NotContains(t, body, "goroutine")

			var begins, ends int
			for _, e := range hook.AllEntries() {
				switch e.Message {
				case "BEGIN":
					begins++
				case "END":
					ends++
				}
			}
			assert.Equal(t, 1, begins)
			assert.Equal(t, 1, ends)
		})
	}
}

func TestPoolMetrics(t *testing.T) {
	app, _ := newTestApp(t, &fakeDetector{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics/pool", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pool_size":2,"sessions_in_use":0,"total_acquired":7,"total_released":7,"acquire_failures":0,"wait_time_ms":0}`, string(body))
}

func TestDetectWebSocketRequiresUpgrade(t *testing.T) {
	app, _ := newTestApp(t, &fakeDetector{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/detect/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func dialStream(t *testing.T, app *fiber.App, header http.Header) *websocket.Conn {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/detect/ws", ln.Addr()), header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestDetectWebSocketStream(t *testing.T) {
	d := &fakeDetector{batch: yolo.Batch{{
		{Box: [4]float32{1, 2, 30, 40}, Confidence: 0.75, Class: 2},
	}}}
	app, _ := newTestApp(t, d)
	conn := dialStream(t, app, nil)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, pngBytes(t)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `[[{"class":2,"class_name":"storage","bbox":[1,2,30,40],"confidence":0.75}]]`, string(msg))

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("garbage")))
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Internal server error"}`, string(msg))
}

func TestDetectWebSocketSurvivesPanicAndKeepsRequestID(t *testing.T) {
	app, hook := newTestApp(t, &fakeDetector{panicky: true})
	conn := dialStream(t, app, http.Header{"X-Request-ID": []string{"stream-42"}})

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, pngBytes(t)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"error":"Internal server error"}`, string(msg))
	}

	var failures []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "Stream frame failed" {
			failures = append(failures, e)
		}
	}
	require.Len(t, failures, 2)
	assert.Equal(t, "stream-42", failures[0].Data["request_id"])
	assert.Equal(t, "panic: letterbox: index out of range", failures[0].Data["error"])
	assert.Contains(t, failures[0].Data["stack"], "detection_hd_test.go")
}

func TestDetectRecoversPanicOverHTTP(t *testing.T) {
	app, _ := newTestApp(t, &fakeDetector{panicky: true})

	status, body := postDetect(t, app, uploadRequest(t, "file", pngBytes(t)))

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body)
}
