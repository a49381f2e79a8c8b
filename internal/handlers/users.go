package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"listinghub/internal/service"
)

const profileImageField = "profile_image"

type registerRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	Phone    *string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterUser accepts JSON or multipart/form-data with an optional profile_image file.
func (h HandlerSet) RegisterUser(c *gin.Context) {
	var input service.RegisterInput

	if isMultipart(c) {
		form, err := h.parseMultipart(c)
		if err != nil {
			h.respondError(c, err)
			return
		}
		defer form.RemoveAll()

		input = service.RegisterInput{
			Username: formValue(form, "username"),
			Email:    formValue(form, "email"),
			Password: formValue(form, "password"),
			Role:     formValue(form, "role"),
		}
		if phone, ok := form.Value["phone"]; ok && len(phone) > 0 {
			input.Phone = &phone[0]
		}
		image, closeImage, err := imageFromForm(form)
		if err != nil {
			h.respondError(c, err)
			return
		}
		defer closeImage()
		input.Image = image
	} else {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, service.Invalidf("invalid registration body: %s", describeJSONError(err)))
			return
		}
		input = service.RegisterInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			Role:     req.Role,
			Phone:    req.Phone,
		}
	}

	user, err := h.users.Register(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, service.Invalidf("invalid login body: %s", describeJSONError(err)))
		return
	}

	result, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "login successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

func (h HandlerSet) Profile(c *gin.Context) {
	actor, ok := h.identity(c)
	if !ok {
		return
	}
	user, err := h.users.Profile(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile accepts JSON (username, email, phone) or multipart/form-data,
// which may additionally carry a profile_image file.
func (h HandlerSet) UpdateProfile(c *gin.Context) {
	actor, ok := h.identity(c)
	if !ok {
		return
	}

	var (
		update service.ProfileUpdate
		err    error
	)
	if isMultipart(c) {
		form, perr := h.parseMultipart(c)
		if perr != nil {
			h.respondError(c, perr)
			return
		}
		defer form.RemoveAll()

		var closeImage func()
		update, closeImage, err = profileFromForm(form)
		if closeImage != nil {
			defer closeImage()
		}
	} else {
		update, err = decodeProfileJSON(c.Request.Body)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), actor, update)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "profile updated",
		"user":    user,
	})
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func (h HandlerSet) parseMultipart(c *gin.Context) (*multipart.Form, error) {
	// room for the text fields on top of the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploads.MaxBytes()+1<<20)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, service.Invalidf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, service.Invalidf("invalid multipart body")
	}
	return form, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func imageFromForm(form *multipart.Form) (*service.ImageUpload, func(), error) {
	files := form.File[profileImageField]
	if len(files) == 0 {
		return nil, func() {}, nil
	}
	header := files[0]
	file, err := header.Open()
	if err != nil {
		return nil, func() {}, service.Invalidf("unreadable profile_image")
	}
	return &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, func() { file.Close() }, nil
}

func profileFromForm(form *multipart.Form) (service.ProfileUpdate, func(), error) {
	var update service.ProfileUpdate
	if _, ok := form.Value["role"]; ok {
		update.RoleRequested = true
		return update, nil, nil
	}

	var unknown []string
	for key := range form.Value {
		switch key {
		case "username", "email", "phone":
		default:
			unknown = append(unknown, key)
		}
	}
	for key := range form.File {
		if key != profileImageField {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return update, nil, service.Invalidf("unknown fields: %s", strings.Join(unknown, ", "))
	}

	if v, ok := form.Value["username"]; ok && len(v) > 0 {
		update.Username = &v[0]
	}
	if v, ok := form.Value["email"]; ok && len(v) > 0 {
		update.Email = &v[0]
	}
	if v, ok := form.Value["phone"]; ok && len(v) > 0 {
		update.Phone = &v[0]
	}

	image, closeImage, err := imageFromForm(form)
	if err != nil {
		return update, nil, err
	}
	update.Image = image
	return update, closeImage, nil
}
