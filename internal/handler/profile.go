package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelune/homehub/internal/config"
	"github.com/avelune/homehub/internal/repository"
)

// ProfileHandler serves the profile page, the edit form and the avatar
// upload. Every route checks that the :id in the path is the session's
// own account; other accounts' profiles answer 404 rather than 403 so
// the route leaks no existence information.
type ProfileHandler struct {
	Cfg      config.Config
	Accounts *repository.AccountRepo
}

func NewProfileHandler(cfg config.Config, a *repository.AccountRepo) *ProfileHandler {
	return &ProfileHandler{Cfg: cfg, Accounts: a}
}

type profileEditReq struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Gender    string `json:"gender" form:"gender"`
	HeightCm  string `json:"height_cm" form:"height_cm"`
	WeightKg  string `json:"weight_kg" form:"weight_kg"`
}

// ownAccount loads the account behind :id after verifying it belongs
// to the session.
func (h *ProfileHandler) ownAccount(ctx context.Context, c echo.Context) (repository.Account, error) {
	sessionID, err := getAccountID(c)
	if err != nil {
		return repository.Account{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c)
	if err != nil || id != sessionID {
		return repository.Account{}, echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	acc, err := h.Accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Account{}, echo.NewHTTPError(http.StatusNotFound, "profile not found")
		}
		return repository.Account{}, echo.NewHTTPError(http.StatusInternalServerError, "load profile failed")
	}
	return acc, nil
}

// Show renders the profile page.
func (h *ProfileHandler) Show(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	acc, err := h.ownAccount(ctx, c)
	if err != nil {
		return err
	}
	if wantsJSON(c) || c.Request().Header.Get(echo.HeaderAccept) == echo.MIMEApplicationJSON {
		return c.JSON(http.StatusOK, profileView(acc))
	}
	return c.Render(http.StatusOK, "profile.html", echo.Map{"Account": acc})
}

// EditForm renders the edit form pre-filled with the current values.
func (h *ProfileHandler) EditForm(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	acc, err := h.ownAccount(ctx, c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "profile_edit.html", echo.Map{"Account": acc})
}

// Edit applies the posted profile changes. Blank fields are left
// untouched; height and weight must parse as positive numbers.
func (h *ProfileHandler) Edit(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	acc, err := h.ownAccount(ctx, c)
	if err != nil {
		return err
	}

	var req profileEditReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	var upd repository.ProfileUpdate
	if v := strings.TrimSpace(req.FirstName); v != "" {
		upd.FirstName = &v
	}
	if v := strings.TrimSpace(req.LastName); v != "" {
		upd.LastName = &v
	}
	if v := strings.TrimSpace(req.Gender); v != "" {
		upd.Gender = &v
	}
	if v := strings.TrimSpace(req.HeightCm); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "height must be a positive number"})
		}
		upd.HeightCm = &n
	}
	if v := strings.TrimSpace(req.WeightKg); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "weight must be a positive number"})
		}
		upd.WeightKg = &n
	}

	if err := h.Accounts.UpdateProfile(ctx, acc.ID, upd); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "profile update failed"})
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"message": "profile updated"})
	}
	return c.Redirect(http.StatusFound, fmt.Sprintf("/profile/%d", acc.ID))
}

// maxPhotoBytes caps avatar uploads at 5 MiB.
const maxPhotoBytes = 5 << 20

var photoExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// UploadPhoto stores the multipart "photo" file under the upload
// directory and records its relative path on the account.
func (h *ProfileHandler) UploadPhoto(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	acc, err := h.ownAccount(ctx, c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "photo file required"})
	}
	if fh.Size > maxPhotoBytes {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "photo too large"})
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !photoExts[ext] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported image type"})
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read upload failed"})
	}
	defer src.Close()

	if err := os.MkdirAll(h.Cfg.UploadDir, 0o755); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save upload failed"})
	}
	name := fmt.Sprintf("account_%d_%d%s", acc.ID, time.Now().Unix(), ext)
	dst, err := os.Create(filepath.Join(h.Cfg.UploadDir, name))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save upload failed"})
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save upload failed"})
	}

	rel := filepath.ToSlash(filepath.Join("uploads", name))
	if err := h.Accounts.UpdatePhoto(ctx, acc.ID, rel); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record upload failed"})
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"photo_path": rel})
	}
	return c.Redirect(http.StatusFound, fmt.Sprintf("/profile/%d", acc.ID))
}

// profileView strips hashes before the account leaves the server.
func profileView(a repository.Account) echo.Map {
	return echo.Map{
		"id":         a.ID,
		"first_name": a.FirstName,
		"last_name":  a.LastName,
		"email":      a.Email,
		"birthdate":  a.Birthdate,
		"gender":     a.Gender,
		"height_cm":  a.HeightCm,
		"weight_kg":  a.WeightKg,
		"photo_path": a.PhotoPath,
	}
}
