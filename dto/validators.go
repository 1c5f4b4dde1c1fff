package dto

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules on gin's validator and
// makes validation errors report json field names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("oneproducer", oneProducer)
	})
}

// oneProducer passes when exactly one cast member has the producer role.
func oneProducer(fl validator.FieldLevel) bool {
	field := fl.Field()
	for field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	if field.Kind() != reflect.Slice {
		return false
	}
	producers := 0
	for i := 0; i < field.Len(); i++ {
		if m, ok := field.Index(i).Interface().(CastMemberDTO); ok && m.Role == "producer" {
			producers++
		}
	}
	return producers == 1
}
