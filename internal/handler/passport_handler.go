package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/visadesk/visadesk/internal/command"
	"github.com/visadesk/visadesk/internal/query"
	"github.com/visadesk/visadesk/shared/cqrs"
	"github.com/visadesk/visadesk/shared/middleware"
	"github.com/visadesk/visadesk/shared/models"
	"github.com/visadesk/visadesk/shared/notice"
)

// PassportCommander defines the write-side operations used by PassportHandler.
type PassportCommander interface {
	CreatePassport(context.Context, cqrs.CreatePassportCommand) (*models.Passport, error)
	UploadPassportPhoto(context.Context, cqrs.UploadPassportPhotoCommand) (string, error)
}

// PassportQuerier defines the read-side operations used by PassportHandler.
type PassportQuerier interface {
	GetPassport(context.Context, cqrs.GetPassportQuery) (*models.Passport, error)
	ListPassports(context.Context, cqrs.ListPassportsQuery) ([]models.Passport, error)
	ListPassportOptions(context.Context, cqrs.ListPassportsQuery) ([]models.PassportOption, error)
}

type PassportHandler struct {
	commands PassportCommander
	queries  PassportQuerier
}

type CreatePassportRequest struct {
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	DateOfBirth    string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Nationality    string `json:"nationality" validate:"required"`
	PassportNumber string `json:"passport_number" validate:"required"`
	IssueDate      string `json:"issue_date" validate:"required,datetime=2006-01-02"`
	ExpiryDate     string `json:"expiry_date" validate:"required,datetime=2006-01-02"`
	Photo          string `json:"photo" validate:"omitempty,url"`
}

const photoField = "photo"

func NewPassportHandler(commands PassportCommander, queries PassportQuerier) *PassportHandler {
	return &PassportHandler{commands: commands, queries: queries}
}

func (h *PassportHandler) CreatePassport(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreatePassportRequest
	if !bindJSON(c, &req) {
		return
	}

	passport, err := h.commands.CreatePassport(c.Request.Context(), cqrs.CreatePassportCommand{
		UserID:         userID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DateOfBirth:    req.DateOfBirth,
		Nationality:    req.Nationality,
		PassportNumber: req.PassportNumber,
		IssueDate:      req.IssueDate,
		ExpiryDate:     req.ExpiryDate,
		Photo:          req.Photo,
	})
	if err != nil {
		switch {
		case errors.Is(err, command.ErrMissingRequired):
			middleware.RespondWithNotice(c, http.StatusBadRequest, notice.Error("Please fill in all required fields"))
		case errors.Is(err, command.ErrDuplicatePassport):
			middleware.RespondWithNotice(c, http.StatusConflict, notice.Error("This passport number already exists"))
		default:
			failWith(c, err, "Error saving the passport")
		}
		return
	}

	n := notice.Success("Passport saved successfully")
	middleware.RespondWithData(c, http.StatusCreated, passport, &n)
}

// ListPassports returns full records, or the picker projection with ?view=options.
func (h *PassportHandler) ListPassports(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	q := cqrs.ListPassportsQuery{UserID: userID}

	if c.Query("view") == "options" {
		options, err := h.queries.ListPassportOptions(c.Request.Context(), q)
		if err != nil {
			failWith(c, err, "Error loading passports")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": options})
		return
	}

	passports, err := h.queries.ListPassports(c.Request.Context(), q)
	if err != nil {
		failWith(c, err, "Error loading passports")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": passports})
}

func (h *PassportHandler) GetPassport(c *gin.Context) {
	passport, err := h.queries.GetPassport(c.Request.Context(), cqrs.GetPassportQuery{PassportID: c.Param("id")})
	if err != nil {
		if errors.Is(err, query.ErrNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "Passport not found")
			return
		}
		failWith(c, err, "Error loading passports")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": passport})
}

func (h *PassportHandler) UploadPhoto(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	files, err := uploadFiles(c, photoField)
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "A photo file is required")
		return
	}
	file := files[0]

	url, err := h.commands.UploadPassportPhoto(c.Request.Context(), cqrs.UploadPassportPhotoCommand{
		UserID: userID,
		File:   file,
	})
	if err != nil {
		if errors.Is(err, command.ErrFileTooLarge) {
			msg := fmt.Sprintf("The file %s exceeds the maximum size of 10MB", file.Name)
			middleware.RespondWithNotice(c, http.StatusRequestEntityTooLarge, notice.Error(msg))
			return
		}
		failWith(c, err, fmt.Sprintf("Error uploading %s", file.Name))
		return
	}

	n := notice.Success(fmt.Sprintf("%s uploaded successfully", file.Name))
	middleware.RespondWithData(c, http.StatusCreated, gin.H{"url": url}, &n)
}
