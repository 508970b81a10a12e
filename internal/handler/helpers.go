package handler

import (
	"errors"
	"net/http"
	"reflect"

	"agrosnab/internal/apierror"
	"agrosnab/internal/dto"
	"agrosnab/internal/model"
	"agrosnab/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewFields(fields))
		return false
	}
	return true
}

// writeServiceError maps known service errors onto HTTP status codes.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apierror.ErrProductNotFound), errors.Is(err, apierror.ErrActionNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, apierror.ErrUnauthorized):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case apierror.IsValidation(err):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	default:
		c.Error(err)
	}
}

// writeOpResult renders a stock-operation result with the status code implied
// by its error kind.
func writeOpResult(c *gin.Context, result model.StockOpResult) {
	status := http.StatusOK
	if !result.OK {
		switch result.Kind {
		case service.KindValidation:
			status = http.StatusUnprocessableEntity
		case service.KindNotFound:
			status = http.StatusNotFound
		case service.KindRowChanged:
			status = http.StatusConflict
		case service.KindPartialFailure:
			status = http.StatusBadGateway
		default:
			status = http.StatusInternalServerError
		}
	}
	c.JSON(status, dto.FromStockOpResult(result))
}
