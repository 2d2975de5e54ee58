package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel starts an insert for every exported field of model carrying a
// db tag. Callers add conflict handling and RETURNING on the result.
func InsertModel(table string, model any) (*InsertBuilder, error) {
	cols, vals, err := ModelColumns(model)
	if err != nil {
		return nil, err
	}
	return InsertInto(table).Columns(cols...).Values(vals...), nil
}

// ModelColumns lists db-tagged columns of a struct in field order along with
// their current values.
func ModelColumns(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}
