package handler

import (
	"errors"
	"net/http"
	"reflect"

	"shelfwise/internal/apierror"
	"shelfwise/internal/insights"
	"shelfwise/internal/repository"
	"shelfwise/internal/service"
	"shelfwise/internal/stockflow"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
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
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query strings.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid query: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// errorStatus maps domain errors onto status codes. ok is false for errors
// it does not recognise.
func errorStatus(err error) (status int, ok bool) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, stockflow.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, insights.ErrInvalidConfig),
		errors.Is(err, stockflow.ErrNoChange),
		errors.Is(err, stockflow.ErrInvalidQuantity),
		errors.Is(err, service.ErrUnknownSupplier):
		return http.StatusUnprocessableEntity, true
	case errors.Is(err, stockflow.ErrBusy),
		errors.Is(err, stockflow.ErrNotPending),
		errors.Is(err, repository.ErrInsufficientStock):
		return http.StatusConflict, true
	}
	return http.StatusInternalServerError, false
}

// writeServiceError writes the mapped error, or leaves an unrecognised one to
// the ErrorHandler middleware as a 500.
func writeServiceError(c *gin.Context, err error) {
	if status, ok := errorStatus(err); ok {
		c.JSON(status, apierror.New(err.Error()))
		return
	}
	_ = c.Error(err)
}
