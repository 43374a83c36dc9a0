package repository

import (
	"fmt"
	"regexp"
	"strings"

	"cruce-web/internal/models"
	"cruce-web/internal/queries"
)

var (
	trailingClauseRe = regexp.MustCompile(`(?i)\b(GROUP\s+BY|ORDER\s+BY|HAVING)\b`)
	whereRe          = regexp.MustCompile(`(?i)\bWHERE\b`)
	orderByRe        = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)
	andRe            = regexp.MustCompile(`(?i)\s+AND\s+`)
	betweenLowRe     = regexp.MustCompile(`(?i)\bBETWEEN\s*$`)
	betweenHighRe    = regexp.MustCompile(`(?i)\bBETWEEN\s+\S+\s*$`)
	whereGuardRe     = regexp.MustCompile(`(?i)\bWHERE\s+1\s*=\s*1\s*$`)
)

const whereGuard = " WHERE 1=1 "

// finalBlock is the SQL text cut around the final aggregation stage.
// head runs from "FROM <alias>" up to the first GROUP BY, ORDER BY or HAVING; rest is everything after.
type finalBlock struct {
	prefix string
	head   string
	rest   string
	found  bool
}

func anchorRe(alias string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)FROM\s+` + regexp.QuoteMeta(alias) + `\b`)
}

func splitFinal(sql, alias string) finalBlock {
	loc := anchorRe(alias).FindStringIndex(sql)
	if loc == nil {
		return finalBlock{head: sql}
	}
	tail := sql[loc[0]:]
	b := finalBlock{prefix: sql[:loc[0]], head: tail, found: true}
	if cut := trailingClauseRe.FindStringIndex(tail); cut != nil {
		b.head = tail[:cut[0]]
		b.rest = tail[cut[0]:]
	}
	return b
}

func (b finalBlock) String() string {
	return b.prefix + b.head + b.rest
}

// EnsureFinalClause guarantees a WHERE in the head of the final stage so conditions can be chained with AND.
// Without the anchor the guard is appended to the end of the text.
func EnsureFinalClause(sql, alias string) string {
	b := splitFinal(sql, alias)
	if !b.found {
		trimmed := strings.TrimRight(sql, " \t\r\n")
		if whereGuardRe.MatchString(trimmed) {
			return trimmed + " "
		}
		return trimmed + whereGuard
	}
	if whereRe.MatchString(b.head) {
		b.head = strings.TrimRight(b.head, " \t\r\n") + " "
	} else {
		b.head = strings.TrimRight(b.head, " \t\r\n") + whereGuard
	}
	return b.String()
}

// ReferenceParam is the parameter bound by the reference filter.
const ReferenceParam = "refLike"

// InjectReferenceFilter replaces the reference marker with a case-insensitive LIKE clause,
// or removes the marker when raw is blank. Input without wildcards becomes a prefix match.
func InjectReferenceFilter(sql, raw string) (string, map[string]interface{}) {
	params := map[string]interface{}{}
	ref := strings.ToLower(strings.TrimSpace(raw))
	if ref == "" {
		return strings.ReplaceAll(sql, queries.RefFilterMarker, ""), params
	}
	if !strings.ContainsAny(ref, "%_") {
		ref += "%"
	}
	params[ReferenceParam] = ref
	clause := " AND LOWER(LTRIM(RTRIM(I.Referencia))) LIKE :" + ReferenceParam
	return strings.ReplaceAll(sql, queries.RefFilterMarker, clause), params
}

// Placeholder is one named parameter reference found in SQL text.
type Placeholder struct {
	Name  string
	Start int
	End   int
}

func isNameByte(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Placeholders lists the :name references the way sqlx.Named reads them.
// "::" is an escaped colon and ":=" is an assignment, neither is a parameter.
func Placeholders(sql string) []Placeholder {
	var out []Placeholder
	for i := 0; i < len(sql); i++ {
		if sql[i] != ':' {
			continue
		}
		if i+1 < len(sql) && (sql[i+1] == ':' || sql[i+1] == '=') {
			i++
			continue
		}
		j := i + 1
		for j < len(sql) && isNameByte(sql[j]) {
			j++
		}
		if j > i+1 {
			out = append(out, Placeholder{Name: sql[i+1 : j], Start: i, End: j})
		}
		i = j - 1
	}
	return out
}

// UnboundPlaceholders returns the names referenced in sql that params does not bind.
func UnboundPlaceholders(sql string, params map[string]interface{}) []string {
	seen := map[string]bool{}
	var names []string
	for _, p := range Placeholders(sql) {
		if _, ok := params[p.Name]; ok || seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		names = append(names, p.Name)
	}
	return names
}

// StripUnboundPlaceholder removes every "AND ..." clause whose placeholder has no bound value.
// The clause starts at the nearest AND on the same line and ends after the placeholder and any
// parentheses it left open. A placeholder with no such AND cannot be removed safely and is an error,
// and so is either bound of a BETWEEN, whose AND is not a clause separator.
func StripUnboundPlaceholder(sql string, params map[string]interface{}) (string, error) {
	found := Placeholders(sql)
	cut := len(sql)
	for k := len(found) - 1; k >= 0; k-- {
		p := found[k]
		if _, ok := params[p.Name]; ok || p.Start >= cut {
			continue
		}

		lineStart := strings.LastIndexByte(sql[:p.Start], '\n') + 1
		matches := andRe.FindAllStringIndex(sql[lineStart:p.Start], -1)
		if len(matches) == 0 {
			return "", &models.QueryError{Field: p.Name, Msg: "unbound placeholder is not part of a removable AND clause"}
		}
		start := lineStart + matches[len(matches)-1][0]
		if betweenHighRe.MatchString(sql[lineStart:start]) || betweenLowRe.MatchString(sql[start:p.Start]) {
			return "", &models.QueryError{Field: p.Name, Msg: "unbound placeholder is a BETWEEN bound"}
		}

		end := p.End
		depth := strings.Count(sql[start:end], "(") - strings.Count(sql[start:end], ")")
		for depth > 0 && end < len(sql) {
			switch sql[end] {
			case '(':
				depth++
			case ')':
				depth--
			}
			end++
		}
		if depth > 0 {
			return "", &models.QueryError{Field: p.Name, Msg: "unbalanced clause around unbound placeholder"}
		}

		sql = sql[:start] + sql[end:]
		cut = start
	}
	return sql, nil
}

// ensureBound fails when the rendered text still references a parameter with no value.
func ensureBound(sql string, params map[string]interface{}) error {
	if missing := UnboundPlaceholders(sql, params); len(missing) > 0 {
		return &models.QueryError{
			Field: strings.Join(missing, ","),
			Msg:   fmt.Sprintf("assembled query has %d unbound placeholder(s)", len(missing)),
		}
	}
	return nil
}
