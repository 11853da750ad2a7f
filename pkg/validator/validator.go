// Package validator wires go-playground/validator into gin binding
// Package validator 将 go-playground/validator 接入 gin 参数绑定
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// CustomValidator implements binding.StructValidator
// CustomValidator 实现 binding.StructValidator
type CustomValidator struct {
	once     sync.Once
	Validate *validator.Validate
}

var _ binding.StructValidator = (*CustomValidator)(nil)

// NewCustomValidator creates a validator reading the `binding` struct tag
// NewCustomValidator 创建读取 `binding` 标签的验证器
func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

// ValidateStruct validates structs, pointers to structs and slices of them
// ValidateStruct 校验结构体、结构体指针以及它们的切片
func (v *CustomValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	value := reflect.ValueOf(obj)
	switch value.Kind() {
	case reflect.Ptr:
		if value.IsNil() {
			return nil
		}
		return v.ValidateStruct(value.Elem().Interface())
	case reflect.Struct:
		v.lazyinit()
		return v.Validate.Struct(obj)
	case reflect.Slice, reflect.Array:
		for i := 0; i < value.Len(); i++ {
			if err := v.ValidateStruct(value.Index(i).Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Engine returns the underlying *validator.Validate
// Engine 返回底层 *validator.Validate
func (v *CustomValidator) Engine() any {
	v.lazyinit()
	return v.Validate
}

func (v *CustomValidator) lazyinit() {
	v.once.Do(func() {
		v.Validate = validator.New()
		v.Validate.SetTagName("binding")
		registerCustom(v.Validate)
	})
}

// notBlank rejects strings that are empty after trimming
// notBlank 拒绝去除空白后为空的字符串
func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(field.String()) != ""
}

func registerCustom(v *validator.Validate) {
	_ = v.RegisterValidation("notblank", notBlank)
}

// RegisterTranslations registers messages for custom tags
// RegisterTranslations 为自定义标签注册翻译
func RegisterTranslations(v *validator.Validate, trans ut.Translator, lang string) error {
	text := "{0} must not be blank"
	if lang == "zh" {
		text = "{0}不能为空白"
	}
	return v.RegisterTranslation("notblank", trans,
		func(t ut.Translator) error {
			return t.Add("notblank", text, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T("notblank", fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

// NewUniversalTranslator registers en and zh messages on v, field names follow the json tag
// NewUniversalTranslator 为 v 注册中英文翻译，字段名使用 json 标签
func NewUniversalTranslator(v *CustomValidator) (*ut.UniversalTranslator, error) {
	validate, ok := v.Engine().(*validator.Validate)
	if !ok {
		return nil, nil
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	uni := ut.New(en.New(), en.New(), zh.New())

	zhTran, _ := uni.GetTranslator("zh")
	enTran, _ := uni.GetTranslator("en")

	if err := zh_translations.RegisterDefaultTranslations(validate, zhTran); err != nil {
		return nil, err
	}
	if err := en_translations.RegisterDefaultTranslations(validate, enTran); err != nil {
		return nil, err
	}
	if err := RegisterTranslations(validate, zhTran, "zh"); err != nil {
		return nil, err
	}
	if err := RegisterTranslations(validate, enTran, "en"); err != nil {
		return nil, err
	}
	return uni, nil
}
