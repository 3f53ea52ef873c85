package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/visadesk/visadesk/internal/command"
	"github.com/visadesk/visadesk/internal/query"
	"github.com/visadesk/visadesk/shared/cqrs"
	"github.com/visadesk/visadesk/shared/middleware"
	"github.com/visadesk/visadesk/shared/models"
	"github.com/visadesk/visadesk/shared/notice"
)

// VisaCommander defines the write-side operations used by VisaHandler.
type VisaCommander interface {
	CreateVisa(context.Context, cqrs.CreateVisaCommand) (*models.Visa, error)
	DeleteVisa(context.Context, cqrs.DeleteVisaCommand) error
	UploadDocuments(context.Context, cqrs.UploadDocumentsCommand) (*command.UploadResult, error)
}

// VisaQuerier defines the read-side operations used by VisaHandler.
type VisaQuerier interface {
	GetVisa(context.Context, cqrs.GetVisaQuery) (*models.VisaView, error)
	ListVisas(context.Context, cqrs.ListVisasQuery) ([]models.VisaView, error)
}

type VisaHandler struct {
	commands VisaCommander
	queries  VisaQuerier
}

// CreateVisaRequest leaves passport and visa number checks to the command so
// a blank form is refused with a single notice.
type CreateVisaRequest struct {
	PassportID string                `json:"passport_id"`
	VisaNumber string                `json:"visa_number"`
	Country    string                `json:"country" validate:"required"`
	VisaType   string                `json:"visa_type" validate:"required"`
	IssueDate  string                `json:"issue_date" validate:"required,datetime=2006-01-02"`
	ExpiryDate string                `json:"expiry_date" validate:"required,datetime=2006-01-02"`
	Status     string                `json:"status" validate:"omitempty,oneof=active expired cancelled"`
	Notes      string                `json:"notes"`
	Documents  []models.VisaDocument `json:"documents"`
}

const documentsField = "files"

func NewVisaHandler(commands VisaCommander, queries VisaQuerier) *VisaHandler {
	return &VisaHandler{commands: commands, queries: queries}
}

func (h *VisaHandler) CreateVisa(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateVisaRequest
	if !bindJSON(c, &req) {
		return
	}

	visa, err := h.commands.CreateVisa(c.Request.Context(), cqrs.CreateVisaCommand{
		UserID:     userID,
		PassportID: req.PassportID,
		VisaNumber: req.VisaNumber,
		Country:    req.Country,
		VisaType:   req.VisaType,
		IssueDate:  req.IssueDate,
		ExpiryDate: req.ExpiryDate,
		Status:     req.Status,
		Notes:      req.Notes,
		Documents:  req.Documents,
	})
	if err != nil {
		switch {
		case errors.Is(err, command.ErrMissingRequired):
			middleware.RespondWithNotice(c, http.StatusBadRequest, notice.Error("Please fill in all required fields"))
		case errors.Is(err, command.ErrDuplicateVisa):
			middleware.RespondWithNotice(c, http.StatusConflict, notice.Error("This visa number already exists"))
		default:
			failWith(c, err, "Error saving the visa")
		}
		return
	}

	n := notice.Success("Visa saved successfully")
	middleware.RespondWithData(c, http.StatusCreated, visa, &n)
}

func (h *VisaHandler) ListVisas(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	visas, err := h.queries.ListVisas(c.Request.Context(), cqrs.ListVisasQuery{
		UserID: userID,
		Search: c.Query("q"),
	})
	if err != nil {
		failWith(c, err, "Error loading visas")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": visas})
}

func (h *VisaHandler) GetVisa(c *gin.Context) {
	visa, err := h.queries.GetVisa(c.Request.Context(), cqrs.GetVisaQuery{VisaID: c.Param("id")})
	if err != nil {
		if errors.Is(err, query.ErrNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "Visa not found")
			return
		}
		failWith(c, err, "Error loading visas")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": visa})
}

func (h *VisaHandler) DeleteVisa(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	err := h.commands.DeleteVisa(c.Request.Context(), cqrs.DeleteVisaCommand{
		VisaID: c.Param("id"),
		UserID: userID,
	})
	if err != nil {
		if errors.Is(err, command.ErrNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "Visa not found")
			return
		}
		failWith(c, err, "Error deleting visa")
		return
	}
	middleware.RespondWithNotice(c, http.StatusOK, notice.Success("Visa deleted successfully"))
}

// UploadDocuments stores every file of the batch it can and reports one
// notice per file. Partial failures still answer 200.
func (h *VisaHandler) UploadDocuments(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	files, err := uploadFiles(c, documentsField)
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "At least one file is required")
		return
	}

	result, err := h.commands.UploadDocuments(c.Request.Context(), cqrs.UploadDocumentsCommand{
		UserID: userID,
		Files:  files,
	})
	if result == nil {
		failWith(c, err, "Error uploading documents")
		return
	}
	if err != nil {
		logrus.WithError(err).WithField("files", len(files)).Warn("some documents were not uploaded")
	}
	middleware.RespondWithNotices(c, http.StatusOK, result.Documents, result.Notices)
}
