package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storesync/backend/internal/interfaces/http/dto"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

type lineInput struct {
	SKU      string `json:"sku" binding:"required"`
	Quantity int64  `json:"quantity" binding:"gt=0"`
}

type orderInput struct {
	ID        int64       `json:"id" binding:"required"`
	Email     string      `json:"email" binding:"omitempty,email"`
	LineItems []lineInput `json:"line_items" binding:"required,min=1,dive"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req orderInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderRequestID, "req-v")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleValidationError(t *testing.T) {
	router := newValidationRouter()

	t.Run("reports field paths with JSON names", func(t *testing.T) {
		w := postJSON(router, `{"id": 1, "email": "nope", "line_items": [{"sku": "A", "quantity": 0}]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-v", resp.Error.RequestID)

		fields := map[string]string{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "Invalid email format", fields["email"])
		assert.Equal(t, "Must be greater than 0", fields["line_items[0].quantity"])
	})

	t.Run("empty line items", func(t *testing.T) {
		w := postJSON(router, `{"id": 1, "line_items": []}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Must contain at least 1 item(s)")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		w := postJSON(router, `{"id": `)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidJSON)
	})

	t.Run("valid input", func(t *testing.T) {
		w := postJSON(router, `{"id": 1, "line_items": [{"sku": "A", "quantity": 2}]}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestValidationMessage(t *testing.T) {
	type probe struct {
		Required string   `validate:"required"`
		Email    string   `validate:"email"`
		Min      string   `validate:"min=5"`
		OneOf    string   `validate:"oneof=a b c"`
		GT       int      `validate:"gt=0"`
		Items    []string `validate:"min=1"`
	}

	err := validator.New().Struct(probe{Email: "x", Min: "ab", OneOf: "d"})
	require.Error(t, err)

	messages := map[string]string{}
	for _, e := range err.(validator.ValidationErrors) {
		messages[e.Field()] = validationMessage(e)
	}

	assert.Equal(t, "This field is required", messages["Required"])
	assert.Equal(t, "Invalid email format", messages["Email"])
	assert.Equal(t, "Must be at least 5 characters", messages["Min"])
	assert.Equal(t, "Must be one of: a b c", messages["OneOf"])
	assert.Equal(t, "Must be greater than 0", messages["GT"])
	assert.Equal(t, "Must contain at least 1 item(s)", messages["Items"])
}
