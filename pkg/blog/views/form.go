package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/mikepea/blog/pkg/blog/models"
)

// CommentForm is the reader comment form shown under a post
type CommentForm struct {
	Name  string `form:"name" binding:"required,max=100"`
	Email string `form:"email" binding:"required,email,max=255"`
	URL   string `form:"url" binding:"omitempty,url"`
	Text  string `form:"text" binding:"required"`
}

// bindCommentForm reads the posted form and validates it after trimming
// surrounding whitespace, so a blank field counts as missing.
func bindCommentForm(c *gin.Context) (CommentForm, error) {
	var form CommentForm
	if err := c.Request.ParseForm(); err != nil {
		return form, err
	}
	if err := binding.MapFormWithTag(&form, c.Request.PostForm, "form"); err != nil {
		return form, err
	}
	form.trim()
	return form, binding.Validator.ValidateStruct(&form)
}

func (f *CommentForm) trim() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.URL = strings.TrimSpace(f.URL)
	f.Text = strings.TrimSpace(f.Text)
}

// Comment builds the comment to store for postID
func (f CommentForm) Comment(postID uint) *models.Comment {
	return &models.Comment{
		PostID: postID,
		Name:   f.Name,
		Email:  f.Email,
		URL:    f.URL,
		Text:   f.Text,
	}
}

// FieldErrors maps form field names to a message for the reader.
// Errors that are not validation errors are reported under "__all__".
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["__all__"] = "The comment could not be read."
		return out
	}
	for _, fe := range verrs {
		out[strings.ToLower(fe.Field())] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	default:
		return "Enter a valid value."
	}
}
