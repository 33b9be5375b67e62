package app

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"

	"warehouse-inventory/internal/core"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateRequest checks req's validate tags and returns a VALIDATION error
// with one detail per failing field.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return core.UnexpectedError(err, "validate request")
	}
	out := core.ValidationError("validation failed")
	for _, fe := range fieldErrs {
		out = out.WithDetail(fieldPath(fe), fieldMessage(fe))
	}
	return out
}

// fieldPath drops the struct name: "lines[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must be a number", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date in format %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}

// parseDate parses an optional YYYY-MM-DD value already checked by validateRequest.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, core.ValidationError("invalid date %q", s)
	}
	return &t, nil
}

// requestTypes maps each published operation name to its request contract.
var requestTypes = map[string]any{
	"create-requisition":  CreateRequisitionRequest{},
	"convert-requisition": ConvertRequisitionRequest{},
	"update-order-lines":  UpdateOrderLinesRequest{},
	"receive-receipt":     ReceiveReceiptRequest{},
	"complete-putaway":    CompletePutawayRequest{},
	"pick":                PickStockRequest{},
	"issue-stock":         IssueStockRequest{},
	"transfer-stock":      TransferStockRequest{},
	"create-bin":          CreateBinRequest{},
	"reorder-rule":        ReorderRuleRequest{},
}

// RequestSchema returns the JSON Schema of an operation's request body.
func RequestSchema(operation string) (*jsonschema.Schema, bool) {
	v, ok := requestTypes[operation]
	if !ok {
		return nil, false
	}
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v), true
}

// SchemaOperations lists the operations RequestSchema knows, sorted.
func SchemaOperations() []string {
	out := make([]string, 0, len(requestTypes))
	for name := range requestTypes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
