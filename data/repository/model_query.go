package repository

import (
	"eventdesk/data/models"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const (
	maxListLimit     = 1000
	filterDateLayout = "2006-01-02"
)

// buildQueryClauses constructs a formatted and parameterized sql string from the
// given query parameters, ANDed with any base conditions the caller already
// holds values for. It returns the finished sql string, and the values to be
// passed alongside the query
func buildQueryClauses(queryParams map[string]string, m models.Model, defaultSort string, baseConds []string, baseVals []interface{}) (string, []interface{}, error) {
	placeholderIndex := len(baseVals) + 1
	jsonMap := models.MapJsonTagsToDB(m)
	fieldTypes := models.MapJsonTagsToTypes(m)
	// Filtering
	whereClause, values, placeholderIndex, err := buildWhereClause(queryParams, placeholderIndex, jsonMap, fieldTypes, baseConds)
	if err != nil {
		return "", nil, err
	}
	values = append(append([]interface{}{}, baseVals...), values...)

	// Sorting
	sort, order, err := buildSortingClause(queryParams, jsonMap, defaultSort)
	if err != nil {
		return "", nil, err
	}
	orderClause := fmt.Sprintf("ORDER BY %s %s, %s", models.QuoteIdent(sort), order, models.QuoteIdent(m.PrimaryKey()))

	// Pagination
	limit, offset, err := buildPaginationClause(queryParams)
	if err != nil {
		return "", nil, err
	}
	paginationClause := fmt.Sprintf("LIMIT $%d OFFSET $%d", placeholderIndex, placeholderIndex+1)
	values = append(values, limit, offset)

	var clauses string
	if whereClause != "" {
		clauses = fmt.Sprintf("%s %s %s", whereClause, orderClause, paginationClause)
	} else {
		clauses = fmt.Sprintf("%s %s", orderClause, paginationClause)
	}

	return clauses, values, nil
}

// buildWhereClause constructs a formatted and parameterized sql WHERE clause.
// It is a helper for buildQueryClauses. It returns the finished WHERE clause,
// the values of the query-parameter conditions, and the current placeholder
// count. If there are no conditions at all, it returns an empty string for the
// WHERE clause. Values are converted to the Go type of the field they filter.
func buildWhereClause(queryParams map[string]string, phIndex int, jsonMap map[string]string, fieldTypes map[string]reflect.Type, baseConds []string) (whereClause string, values []interface{}, placeholderIndex int, err error) {
	whereClauseParts := append([]string{}, baseConds...)
	values = []interface{}{}

	for key, value := range queryParams {
		// Skip these for later handling
		if key == "sortBy" || key == "limit" || key == "offset" {
			continue
		}

		operator, field, dbColumn, err := parseOperatorAndKey(key, jsonMap)
		if err != nil {
			return "", nil, 0, err
		}
		// The IN operator takes a variable-length list of values (e.g.
		// location_anyOf=Berlin,Paris)
		if operator == "IN" {
			whereClauseParts, values, phIndex, err = handleInOperator(field, dbColumn, value, phIndex, whereClauseParts, values, fieldTypes[field])
			if err != nil {
				return "", nil, 0, err
			}
			continue
		}

		var formattedVal interface{}
		if operator == "ILIKE" {
			if fieldTypes[field].Kind() != reflect.String {
				return "", nil, 0, fmt.Errorf("invalid query parameter: %s does not support _contains", field)
			}
			formattedVal = "%" + value + "%"
		} else {
			formattedVal, err = convertFilterValue(field, value, fieldTypes[field])
			if err != nil {
				return "", nil, 0, err
			}
		}

		whereClauseParts = append(whereClauseParts, fmt.Sprintf("%s %s $%d", models.QuoteIdent(dbColumn), operator, phIndex))
		values = append(values, formattedVal)
		phIndex++
	}

	whereClause = ""
	if len(whereClauseParts) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauseParts, " AND ")
	}

	return whereClause, values, phIndex, nil
}

// parseOperatorAndKey determines the SQL operator and strips the operator
// suffix from the key. It returns the operator, the bare field name and its
// database column mapping.
func parseOperatorAndKey(key string, jsonMap map[string]string) (operator, field, dbColumn string, err error) {
	operator = "="

	if strings.HasSuffix(key, "_ne") {
		operator = "!="
		key = strings.TrimSuffix(key, "_ne")

	} else if strings.HasSuffix(key, "_lt") {
		operator = "<"
		key = strings.TrimSuffix(key, "_lt")

	} else if strings.HasSuffix(key, "_gt") {
		operator = ">"
		key = strings.TrimSuffix(key, "_gt")

	} else if strings.HasSuffix(key, "_lte") {
		operator = "<="
		key = strings.TrimSuffix(key, "_lte")

	} else if strings.HasSuffix(key, "_gte") {
		operator = ">="
		key = strings.TrimSuffix(key, "_gte")

	} else if strings.HasSuffix(key, "_contains") {
		operator = "ILIKE"
		key = strings.TrimSuffix(key, "_contains")

	} else if strings.HasSuffix(key, "_anyOf") {
		operator = "IN"
		key = strings.TrimSuffix(key, "_anyOf")
	}

	if err := validateQueryParam(key, jsonMap); err != nil {
		return "", "", "", err
	}

	return operator, key, jsonMap[key], nil
}

// handleInOperator builds a WHERE clause part, from a list of comma-separated
// values, for the IN operator. It is a helper for buildWhereClause. It returns
// the still-under-construction WHERE clause parts, the values to be ultimately passed
// alongside the query, and the current placeholder count.
func handleInOperator(field, dbColumn, value string, phIndex int, whereClauseParts []string, values []interface{}, fieldType reflect.Type) ([]string, []interface{}, int, error) {
	anyOfValuesList := strings.Split(value, ",")
	placeholders := []string{}

	for _, v := range anyOfValuesList {
		formattedVal, err := convertFilterValue(field, v, fieldType)
		if err != nil {
			return nil, nil, 0, err
		}
		placeholders = append(placeholders, fmt.Sprintf("$%d", phIndex))
		values = append(values, formattedVal)
		phIndex++
	}

	whereClauseParts = append(whereClauseParts, fmt.Sprintf("%s IN (%s)", models.QuoteIdent(dbColumn), strings.Join(placeholders, ",")))
	return whereClauseParts, values, phIndex, nil
}

func buildSortingClause(queryParams map[string]string, jsonMap map[string]string, defaultSort string) (string, string, error) {
	sort := queryParams["sortBy"]
	order := "ASC"
	if strings.HasPrefix(sort, "-") {
		order = "DESC"
		sort = strings.TrimPrefix(sort, "-")
	}
	if sort == "" {
		sort = defaultSort
	}

	if err := validateQueryParam(sort, jsonMap); err != nil {
		return "", "", fmt.Errorf("invalid sort value: %v", sort)
	}

	sort = jsonMap[sort]
	return sort, order, nil
}

func buildPaginationClause(queryParams map[string]string) (int, int, error) {
	limit := 10
	offset := 0
	if l, ok := queryParams["limit"]; ok {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil {
			return 0, 0, fmt.Errorf("pagination err; limit must be a number: %v", err)
		}
	}
	if o, ok := queryParams["offset"]; ok {
		var err error
		offset, err = strconv.Atoi(o)
		if err != nil {
			return 0, 0, fmt.Errorf("pagination err; offset must be a number: %v", err)
		}
	}
	if limit < 1 || limit > maxListLimit {
		return 0, 0, fmt.Errorf("pagination err; limit must be between 1 and %d", maxListLimit)
	}
	if offset < 0 {
		return 0, 0, fmt.Errorf("pagination err; offset must not be negative")
	}
	return limit, offset, nil
}

var timeType = reflect.TypeOf(time.Time{})

// convertFilterValue parses a query-string value into the type of the field
// it filters. Dates use the 2006-01-02 layout.
func convertFilterValue(field, value string, fieldType reflect.Type) (interface{}, error) {
	if fieldType == timeType {
		t, err := time.Parse(filterDateLayout, value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected a date in %s format", field, filterDateLayout)
		}
		return t, nil
	}

	switch fieldType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected a whole number", field)
		}
		return n, nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected a number", field)
		}
		return f, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", field)
		}
		return b, nil
	default:
		return value, nil
	}
}

func validateQueryParam(key string, jsonMap map[string]string) error {
	if jsonMap[key] == "" {
		return fmt.Errorf("invalid query parameter: %s", key)
	}
	return nil
}
