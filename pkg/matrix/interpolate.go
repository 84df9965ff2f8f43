package matrix

import (
	"fmt"
	"strings"
)

// A LookupFunc resolves a variable name to its bound value.
type LookupFunc func(name string) (val string, ok bool)

// UnresolvedVariableError is a %NAME% reference with no binding.
type UnresolvedVariableError struct {
	Name string
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("unresolved variable reference %%%s%%", e.Name)
}

// Expand substitutes %NAME% references in a command string:
//
//   - "%%" is a literal "%";
//   - "%NAME%" where NAME is a bound identifier becomes the bound value;
//   - "%NAME%" where NAME is an unbound identifier is an error;
//   - any other "%" is literal.
func Expand(str string, lookup LookupFunc) (string, error) {
	var ret strings.Builder
	for {
		i := strings.IndexByte(str, '%')
		if i < 0 {
			ret.WriteString(str)
			return ret.String(), nil
		}
		ret.WriteString(str[:i])
		str = str[i+1:]
		if strings.HasPrefix(str, "%") {
			ret.WriteByte('%')
			str = str[1:]
			continue
		}
		j := strings.IndexByte(str, '%')
		if j < 0 || !isIdent(str[:j]) {
			ret.WriteByte('%')
			continue
		}
		name := str[:j]
		str = str[j+1:]
		val, ok := lookup(name)
		if !ok {
			return "", &UnresolvedVariableError{Name: name}
		}
		ret.WriteString(val)
	}
}

func isIdent(str string) bool {
	if str == "" {
		return false
	}
	for i := 0; i < len(str); i++ {
		switch c := str[i]; {
		case c == '_' || ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z'):
		case '0' <= c && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
