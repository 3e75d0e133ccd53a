package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smartystreets/goconvey/convey"
)

func uploadRequest(t *testing.T, field string, payload []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, "game.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/matches", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// The handler must reject these requests before touching storage or the
	// orchestrator, so nil dependencies double as the assertion: reaching
	// either would panic.
	convey.Convey("Given the upload handler", t, func() {
		handler := NewMatchHandler(nil, nil, 512)

		convey.Convey("A zero-byte video is rejected synchronously", func() {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = uploadRequest(t, "video", nil)

			handler.Upload(c)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, "empty video file")
		})

		convey.Convey("A request without a video part is rejected", func() {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = uploadRequest(t, "attachment", []byte("frames"))

			handler.Upload(c)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, "missing video file")
		})
	})
}
