package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/sportup/internal/api/middleware"
	"github.com/sanosuguru/sportup/internal/application"
	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/domain/profile"
)

type ProfileHandler struct {
	profileService ProfileServiceInterface
}

func NewProfileHandler(profileService ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// UpdateProfileRequest は省略したフィールドを変更しない
type UpdateProfileRequest struct {
	DisplayName    *string `json:"displayName" validate:"omitempty,max=100"`
	FavoriteSports *string `json:"favoriteSports"`
	SkillLevel     *string `json:"skillLevel"`
}

type ProfileResponse struct {
	UID            string   `json:"uid"`
	Email          string   `json:"email"`
	DisplayName    string   `json:"displayName"`
	PhotoURL       string   `json:"photoURL"`
	Roles          []string `json:"roles"`
	FavoriteSports []string `json:"favoriteSports"`
	SkillLevel     string   `json:"skillLevel"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
}

func toProfileResponse(p *profile.UserProfile) *ProfileResponse {
	roles := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		roles[i] = string(r)
	}
	favorites := p.FavoriteSports
	if favorites == nil {
		favorites = []string{}
	}
	return &ProfileResponse{
		UID:            p.UID,
		Email:          p.Email,
		DisplayName:    p.DisplayName,
		PhotoURL:       p.PhotoURL,
		Roles:          roles,
		FavoriteSports: favorites,
		SkillLevel:     string(p.SkillLevel),
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      p.UpdatedAt.Format(time.RFC3339),
	}
}

// Signup はログイン中のユーザーのプロフィールを作成する
// POST /api/v1/profile
func (h *ProfileHandler) Signup(c echo.Context) error {
	p, err := h.profileService.Signup(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toProfileResponse(p))
}

// Get はログイン中のユーザーのプロフィールを返す
// GET /api/v1/profile
func (h *ProfileHandler) Get(c echo.Context) error {
	p, err := h.profileService.GetProfile(c.Request().Context(), middleware.Actor(c).UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(p))
}

// Update はログイン中のユーザーのプロフィールを更新する
// PUT /api/v1/profile
func (h *ProfileHandler) Update(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	actor := middleware.Actor(c)
	p, err := h.profileService.UpdateProfile(c.Request().Context(), actor, actor.UID, application.UpdateProfileInput{
		DisplayName:    req.DisplayName,
		FavoriteSports: req.FavoriteSports,
		SkillLevel:     req.SkillLevel,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(p))
}

// UploadPhoto はプロフィール写真をアップロードする
// POST /api/v1/profile/photo (multipart の photo フィールド)
func (h *ProfileHandler) UploadPhoto(c echo.Context) error {
	fh, err := c.FormFile("photo")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "photo ファイルが必要です")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "photo ファイルを読み込めません")
	}
	defer f.Close()

	actor := middleware.Actor(c)
	p, err := h.profileService.UploadPhoto(c.Request().Context(), actor, actor.UID, application.UploadPhotoInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Body:        f,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(p))
}

// SkillLevels は選択可能なスキルレベルを返す
// GET /api/v1/profile/skill-levels
func (h *ProfileHandler) SkillLevels(c echo.Context) error {
	levels := []string{}
	for _, l := range profile.SkillLevels() {
		levels = append(levels, string(l))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"skillLevels": levels,
		"roles":       []identity.Role{identity.RoleUser, identity.RoleAdmin},
	})
}
