// Package handler maps HTTP requests onto the command, query and auth services.
package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/internal/session"
	"github.com/visadesk/visadesk/shared/cqrs"
	"github.com/visadesk/visadesk/shared/middleware"
	"github.com/visadesk/visadesk/shared/notice"
)

// upstreamStatus picks the response status for a failed backend call.
func upstreamStatus(err error) int {
	if backend.IsRateLimited(err) {
		return http.StatusTooManyRequests
	}
	return http.StatusBadGateway
}

func failWith(c *gin.Context, err error, message string) {
	middleware.RespondWithNotice(c, upstreamStatus(err), notice.Error(message))
}

// bindJSON binds and validates a JSON body, answering the request on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}

func setSessionCookie(c *gin.Context, sess *session.Session, secure bool) {
	session.SetCookie(c, sess.ID, int(sess.TTL(time.Now()).Seconds()), secure)
}

func requireSession(c *gin.Context) (*session.Session, bool) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return sess, true
}

// uploadFiles adapts multipart headers to upload commands. Files are opened lazily.
func uploadFiles(c *gin.Context, field string) ([]cqrs.UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, errNoFiles
	}

	files := make([]cqrs.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, cqrs.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return files, nil
}

var errNoFiles = errors.New("no files")

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func userOf(sess *session.Session) UserResponse {
	return UserResponse{ID: sess.UserID, Email: sess.Email}
}
