package models

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
)

// Model is a row type that maps onto one table of the schema. Field order
// must follow the column order of the table, and every field needs a db tag.
type Model interface {
	TableName() string
	PrimaryKey() string
	GetID() int64
	EmptySlice() interface{}
}

// QuoteIdent quotes a table or column name. The schema uses mixed-case
// identifiers ("eventID", "User") which Postgres folds unless quoted.
func QuoteIdent(name string) string {
	return strconv.Quote(name)
}

// GetValsFromModel returns the field values of a model as a slice of
// interfaces, in the order of the model's column names. It is used for
// extracting values from the model and writing them to the database. Validation
// of the input should be done before use.
func GetValsFromModel(m Model) []interface{} {
	val := reflect.ValueOf(m)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()
	numFields := val.NumField()

	fieldMap := make(map[string]interface{})
	for i := 0; i < numFields; i++ {
		field := typ.Field(i)

		if field.Tag.Get("readOnly") == "true" {
			continue
		}

		dbTag := field.Tag.Get("db")
		fieldMap[dbTag] = val.Field(i).Interface()
	}

	columnNames := GetColumnNames(m, true)
	vals := make([]interface{}, len(columnNames))
	for i, cn := range columnNames {
		vals[i] = fieldMap[cn]
	}

	return vals
}

// ScanRowToModel scans a single SQL row into a given model. It takes a model
// and passes a slice of pointers to the model's fields to the sql.Row's Scan
// method. It returns an error if the scan fails or the model is not a pointer.
func ScanRowToModel(m Model, r *sql.Row) error {
	val := reflect.ValueOf(m)
	if val.Kind() != reflect.Ptr {
		return fmt.Errorf("expected pointer to model, got %T", m)
	}
	val = val.Elem()
	typ := val.Type()

	fieldPtrs := make([]interface{}, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		fieldPtrs[i] = val.Field(i).Addr().Interface()
	}

	if err := r.Scan(fieldPtrs...); err != nil {
		return err
	}
	return nil
}

func ScanRowsToSliceOfModels(m Model, rows *sql.Rows, expectedRows int) (interface{}, error) {
	// Obtain the slice of models using the EmptySlice method, which returns a
	// pointer to an empty slice of the model type as an interface{}
	modelsSlice := m.EmptySlice()

	// Dereference the interface wrapper with Elem(), and make sure we have a slice
	sliceVal := reflect.ValueOf(modelsSlice).Elem()
	if sliceVal.Kind() != reflect.Slice {
		return nil, fmt.Errorf("expected slice, got %s", sliceVal.Kind())
	}

	elemType := sliceVal.Type().Elem()

	// Best guess at the capacity from the caller's expected row count (e.g. the
	// limit of an event listing).
	initialCapacity := determineInitialCapacity(expectedRows)
	sliceVal.Set(reflect.MakeSlice(sliceVal.Type(), 0, initialCapacity))

	for rows.Next() {
		model := reflect.New(elemType).Elem()

		fieldPtrs := make([]interface{}, model.NumField())
		for i := 0; i < model.NumField(); i++ {
			fieldPtrs[i] = model.Field(i).Addr().Interface()
		}

		if err := rows.Scan(fieldPtrs...); err != nil {
			return nil, err
		}

		sliceVal.Set(reflect.Append(sliceVal, model))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return modelsSlice, nil
}

// GetColumnNames returns the model's column names as a slice of strings.
func GetColumnNames(m Model, excludeReadOnlyFields bool) []string {
	typ := modelType(m)
	var columnNames []string

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("db")

		if excludeReadOnlyFields {

			if field.Tag.Get("readOnly") == "true" {
				continue
			}

		}

		columnNames = append(columnNames, tag)
	}
	return columnNames
}

// GetSelectExprs returns one SELECT expression per field of the model, in
// field order. Columns are quoted; a field may override its expression with a
// selectExpr tag (used for TIME columns rendered as HH:mm).
func GetSelectExprs(m Model) []string {
	typ := modelType(m)
	exprs := make([]string, 0, typ.NumField())

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if expr := field.Tag.Get("selectExpr"); expr != "" {
			exprs = append(exprs, expr)
			continue
		}
		exprs = append(exprs, QuoteIdent(field.Tag.Get("db")))
	}
	return exprs
}

// Returns a map of the model's field tags where key is JSON and value is DB
func MapJsonTagsToDB(m Model) map[string]string {
	typ := modelType(m)
	tagMap := make(map[string]string)

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		jsonTag := field.Tag.Get("json")
		if jsonTag == "" || jsonTag == "-" {
			continue
		}
		tagMap[jsonTag] = field.Tag.Get("db")
	}
	return tagMap
}

// MapJsonTagsToTypes returns the Go type of each of the model's fields, keyed
// by JSON tag.
func MapJsonTagsToTypes(m Model) map[string]reflect.Type {
	typ := modelType(m)
	typeMap := make(map[string]reflect.Type)

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		jsonTag := field.Tag.Get("json")
		if jsonTag == "" || jsonTag == "-" {
			continue
		}
		typeMap[jsonTag] = field.Type
	}
	return typeMap
}

func modelType(m Model) reflect.Type {
	typ := reflect.TypeOf(m)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ
}

// Helper function to determine the initial capacity based on expected rows
func determineInitialCapacity(expectedRows int) int {
	switch {
	case expectedRows <= 10:
		return 10
	case expectedRows <= 25:
		return 20
	case expectedRows <= 50:
		return 35
	case expectedRows <= 100:
		return 75
	case expectedRows <= 200:
		return 150
	case expectedRows <= 300:
		return 250
	case expectedRows <= 500:
		return 400
	case expectedRows <= 1000:
		return 900
	case expectedRows <= 2000:
		return 1800
	case expectedRows <= 5000:
		return 2500
	default:
		return 5000
	}
}
