package store

import (
	"fmt"
	"regexp"
	"strings"

	lexerrors "github.com/aman-cerp/lexidex/internal/errors"
)

// jsonPathSegment matches one dotted segment of a metadata/content field
// path; anything else (quotes, SQL punctuation, whitespace) is rejected
// before it ever reaches a json_extract() literal.
var jsonPathSegment = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// columnExpr translates a predicate field path into a SQL expression and
// reports whether the comparison should happen numerically (CAST'd to
// REAL), per spec §4.3's field-path table.
func columnExpr(fieldPath string) (expr string, numeric bool, err error) {
	switch {
	case fieldPath == "id":
		return "ext_id", false, nil
	case fieldPath == "language":
		return "language", false, nil
	case fieldPath == "type":
		return "type", false, nil
	case fieldPath == "timestamp":
		return "timestamp", true, nil
	case strings.HasPrefix(fieldPath, "metadata."):
		expr, err := jsonExtract("metadata", strings.TrimPrefix(fieldPath, "metadata."))
		return expr, false, err
	case strings.HasPrefix(fieldPath, "content."):
		expr, err := jsonExtract("content_json", strings.TrimPrefix(fieldPath, "content."))
		return expr, false, err
	default:
		return "", false, lexerrors.InvalidArgument("field_path", fieldPath)
	}
}

// jsonExtract builds a `json_extract(column, '$.a.b')` expression from a
// dotted sub-path. Every segment must match jsonPathSegment; subPath is
// caller-supplied (it flows from the public Facade's Predicate.FieldPath)
// so it is validated rather than interpolated as-is into the SQL literal.
func jsonExtract(column, subPath string) (string, error) {
	segments := strings.Split(subPath, ".")
	path := "$"
	for _, seg := range segments {
		if !jsonPathSegment.MatchString(seg) {
			return "", lexerrors.InvalidArgument("field_path", subPath)
		}
		path += "." + seg
	}
	return fmt.Sprintf("json_extract(%s, '%s')", column, path), nil
}

// predicateSQL compiles one Predicate into a parameterized WHERE fragment
// and its bind arguments.
func predicateSQL(p Predicate) (string, []any, error) {
	expr, numeric, err := columnExpr(p.FieldPath)
	if err != nil {
		return "", nil, err
	}

	switch p.Operator {
	case "=":
		if numeric {
			return fmt.Sprintf("CAST(%s AS REAL) = ?", expr), []any{p.Value}, nil
		}
		return fmt.Sprintf("%s = ?", expr), []any{p.Value}, nil
	case "!=":
		if numeric {
			return fmt.Sprintf("CAST(%s AS REAL) != ?", expr), []any{p.Value}, nil
		}
		return fmt.Sprintf("%s != ?", expr), []any{p.Value}, nil
	case "<", "<=", ">", ">=":
		return fmt.Sprintf("CAST(%s AS REAL) %s ?", expr, p.Operator), []any{p.Value}, nil
	case "in", "not in":
		values, ok := toSlice(p.Value)
		if !ok || len(values) == 0 {
			return "", nil, lexerrors.InvalidArgument(p.FieldPath, p.Value)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")
		kw := "IN"
		if p.Operator == "not in" {
			kw = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", expr, kw, placeholders), values, nil
	case "contains":
		s, _ := p.Value.(string)
		return fmt.Sprintf("%s LIKE ? ESCAPE '\\'", expr), []any{"%" + escapeLike(s) + "%"}, nil
	case "like":
		s, _ := p.Value.(string)
		return fmt.Sprintf("%s LIKE ?", expr), []any{s}, nil
	case "exists":
		return fmt.Sprintf("%s IS NOT NULL", expr), nil, nil
	case "=?":
		if numeric {
			return fmt.Sprintf("(%s IS NULL OR CAST(%s AS REAL) = ?)", expr, expr), []any{p.Value}, nil
		}
		return fmt.Sprintf("(%s IS NULL OR %s = ?)", expr, expr), []any{p.Value}, nil
	default:
		return "", nil, lexerrors.InvalidArgument("operator", p.Operator)
	}
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

func toSlice(v any) ([]any, bool) {
	switch vv := v.(type) {
	case []any:
		return vv, true
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(vv))
		for i, f := range vv {
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
}

// buildWhereClause ANDs together a list of predicates into one SQL
// fragment (empty string, nil args if preds is empty).
func buildWhereClause(preds []Predicate) (string, []any, error) {
	if len(preds) == 0 {
		return "", nil, nil
	}
	var clauses []string
	var args []any
	for _, p := range preds {
		clause, a, err := predicateSQL(p)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, a...)
	}
	return strings.Join(clauses, " AND "), args, nil
}
