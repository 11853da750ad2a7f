package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string `json:"title" binding:"required,notblank"`
	Email string `json:"email" binding:"omitempty,email"`
}

func TestValidateStruct_NotBlank(t *testing.T) {
	v := NewCustomValidator()

	assert.NoError(t, v.ValidateStruct(&sample{Title: "ok"}))
	assert.Error(t, v.ValidateStruct(&sample{Title: "   "}))
	assert.NoError(t, v.ValidateStruct((*sample)(nil)))
	assert.Error(t, v.ValidateStruct([]sample{{Title: "a"}, {Title: " "}}))
}

func TestNewUniversalTranslator(t *testing.T) {
	v := NewCustomValidator()
	uni, err := NewUniversalTranslator(v)
	require.NoError(t, err)
	require.NotNil(t, uni)

	err = v.ValidateStruct(&sample{Title: " ", Email: "nope"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)
	assert.Equal(t, "title", verrs[0].Field())

	en, _ := uni.GetTranslator("en")
	zh, _ := uni.GetTranslator("zh")
	assert.Equal(t, "title must not be blank", verrs[0].Translate(en))
	assert.Equal(t, "title不能为空白", verrs[0].Translate(zh))
	assert.Equal(t, "email must be a valid email address", verrs[1].Translate(en))
}
