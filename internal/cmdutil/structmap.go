// Package cmdutil holds helpers shared by the batch commands.
package cmdutil

import (
	"reflect"
	"strings"
	"time"
	"unicode"
)

// RowOptions configures StructToRow.
type RowOptions struct {
	// Omit lists Go field names to leave out.
	Omit map[string]bool
	// JoinStrings stores []string fields as one comma-joined string.
	JoinStrings bool
}

// StructToRow flattens a struct into a column → value map, ready for
// datastore.Store.BatchInsert. Columns come from the `db` tag, else the
// snake_case field name; `db:"-"` skips a field. Embedded structs are
// flattened, nil pointers become nil (NULL), bools become 0/1 and times
// become RFC 3339 UTC strings.
func StructToRow(value any, opts RowOptions) map[string]any {
	row := make(map[string]any)
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return row
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Struct {
		flatten(v, row, opts)
	}
	return row
}

func flatten(v reflect.Value, row map[string]any, opts RowOptions) {
	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() || opts.Omit[field.Name] {
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "-" {
			continue
		}

		fv := v.Field(i)
		if field.Anonymous && tag == "" && fv.Kind() == reflect.Struct {
			flatten(fv, row, opts)
			continue
		}

		column := tag
		if column == "" {
			column = snakeCase(field.Name)
		}
		row[column] = columnValue(fv, opts)
	}
}

func columnValue(v reflect.Value, opts RowOptions) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch {
	case v.Type() == reflect.TypeFor[time.Time]():
		return v.Interface().(time.Time).UTC().Format(time.RFC3339)
	case v.Kind() == reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case opts.JoinStrings && v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.String:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = v.Index(i).String()
		}
		return strings.Join(parts, ",")
	}
	return v.Interface()
}

// snakeCase turns a Go field name into a column name, keeping acronyms
// together: RunID → run_id, FoundISBN → found_isbn, ISBNField → isbn_field.
func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			startsWord := unicode.IsLower(prev) || unicode.IsDigit(prev)
			endsAcronym := unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if startsWord || endsAcronym {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
