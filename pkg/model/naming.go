package model

import (
	"strings"

	"github.com/jinzhu/inflection"
)

// TableName returns the pluralized snake_case table name for a model name.
// "ProjectMember" becomes "project_members".
func TableName(modelName string) string {
	return inflection.Plural(SnakeCase(modelName))
}

// ColumnName returns the snake_case column name for a field name.
func ColumnName(fieldName string) string {
	return SnakeCase(fieldName)
}

// TableName returns the model's pluralized snake_case table name.
func (d *Definition) TableName() string {
	return TableName(d.Name)
}

// SnakeCase converts a camelCase or PascalCase DSL name to snake_case.
// Consecutive upper-case runs are kept together: "ownerID" -> "owner_id",
// "APIKey" -> "api_key".
func SnakeCase(name string) string {
	if name == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name) + 4)

	runes := []rune(name)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			prevLower := i > 0 && isLower(runes[i-1])
			nextLower := i+1 < len(runes) && isLower(runes[i+1])
			if i > 0 && (prevLower || (isUpper(runes[i-1]) && nextLower)) {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LowerCamel lowercases the first rune of a name: "Post" -> "post".
// Used when deriving hasMany foreign-key field names from model names.
func LowerCamel(name string) string {
	if name == "" {
		return ""
	}
	runes := []rune(name)
	if isUpper(runes[0]) {
		runes[0] = runes[0] - 'A' + 'a'
	}
	return string(runes)
}

func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
