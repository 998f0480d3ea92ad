package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"poovi/internal/api/middleware"
	"poovi/internal/database"
	"poovi/internal/storage"
)

// ProfileHandler 负责用户个人资料与头像。
type ProfileHandler struct {
	db        *gorm.DB
	storage   *storage.Client
	logger    *slog.Logger
	clamdAddr string
}

// NewProfileHandler 构造 ProfileHandler。storageClient 为 nil 时头像上传不可用。
func NewProfileHandler(db *gorm.DB, storageClient *storage.Client, logger *slog.Logger, clamdAddr string) *ProfileHandler {
	return &ProfileHandler{
		db:        db,
		storage:   storageClient,
		logger:    logger,
		clamdAddr: clamdAddr,
	}
}

type profileResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Bio       string `json:"bio"`
	Location  string `json:"location"`
	Website   string `json:"website"`
	PhotoURL  string `json:"photo_url,omitempty"`
}

func newProfileResponse(p database.Profile) profileResponse {
	return profileResponse{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Bio:       p.Bio,
		Location:  p.Location,
		Website:   p.Website,
		PhotoURL:  p.PhotoURL,
	}
}

// GetProfile 返回当前用户资料，首次访问时隐式建一条空记录。
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var profile database.Profile
	err := h.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = database.Profile{UserID: userID}
		if err := h.db.WithContext(ctx).Create(&profile).Error; err != nil {
			h.loggerFromContext(c).Error("create profile failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
	} else if err != nil {
		h.loggerFromContext(c).Error("load profile failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(profile))
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=80"`
	LastName  *string `json:"last_name" binding:"omitempty,max=80"`
	Email     *string `json:"email" binding:"omitempty,max=254"`
	Bio       *string `json:"bio" binding:"omitempty,max=2000"`
	Location  *string `json:"location" binding:"omitempty,max=120"`
	Website   *string `json:"website" binding:"omitempty,max=255"`
}

// UpdateProfile 局部更新资料，仅写入请求里显式出现的字段。
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	updates := map[string]any{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Website != nil {
		updates["website"] = *req.Website
	}
	if len(updates) == 0 {
		BadRequest(c, "empty update")
		return
	}

	ctx := c.Request.Context()

	var profile database.Profile
	err := h.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = database.Profile{UserID: userID}
		if err := h.db.WithContext(ctx).Create(&profile).Error; err != nil {
			h.loggerFromContext(c).Error("create profile failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
	} else if err != nil {
		h.loggerFromContext(c).Error("load profile failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if err := h.db.WithContext(ctx).Model(&profile).Updates(updates).Error; err != nil {
		h.loggerFromContext(c).Error("update profile failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if err := h.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		h.loggerFromContext(c).Error("reload profile failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(profile))
}

// UploadPhoto 上传头像：先病毒扫描，再写入对象存储并记录 objectKey。
func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if h.storage == nil {
		ServiceUnavailable(c, "photo storage unavailable")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	clamdClient := clamd.NewClamd(h.clamdAddr)

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}

	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(fileReader, abortChan)
	fileReader.Close()
	if err != nil {
		h.loggerFromContext(c).Error("scan photo", slog.Any("error", err))
		Internal(c, "failed to scan file")
		return
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			BadRequest(c, "malicious file detected")
			return
		}
	}

	fileReader, err = file.Open()
	if err != nil {
		Internal(c, "failed to reopen file")
		return
	}
	defer fileReader.Close()

	objectKey := fmt.Sprintf("profile-photos/%d/%s.png", userID, uuid.NewString())
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx := c.Request.Context()
	if _, err := h.storage.UploadFile(ctx, objectKey, fileReader, file.Size, contentType); err != nil {
		h.loggerFromContext(c).Error("upload photo", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	var profile database.Profile
	if err := h.db.WithContext(ctx).
		Where(database.Profile{UserID: userID}).
		FirstOrCreate(&profile).Error; err != nil {
		h.loggerFromContext(c).Error("load profile for photo", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if err := h.db.WithContext(ctx).Model(&profile).Update("photo_url", objectKey).Error; err != nil {
		h.loggerFromContext(c).Error("save photo key", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(ctx, objectKey, 15*time.Minute)
	if err != nil {
		h.loggerFromContext(c).Error("generate photo url", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"objectKey": objectKey, "url": signedURL})
}

func (h *ProfileHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
