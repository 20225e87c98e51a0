package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: FieldError{Field: field, Message: "field is required", Code: "required"},
	}
}

func MinLen(field, value string, min int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) >= min },
		Error: FieldError{Field: field, Message: fmt.Sprintf("must be at least %d characters long", min), Code: "min_length"},
	}
}

func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: FieldError{Field: field, Message: fmt.Sprintf("must be at most %d characters long", max), Code: "max_length"},
	}
}

// Email accepts a bare address with a dotted domain. Display names are rejected.
func Email(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != value || addr.Name != "" {
				return false
			}
			at := strings.LastIndexByte(value, '@')
			domain := value[at+1:]
			if !strings.Contains(domain, ".") {
				return false
			}
			for part := range strings.SplitSeq(domain, ".") {
				if part == "" {
					return false
				}
			}
			return true
		},
		Error: FieldError{Field: field, Message: "must be a valid email address", Code: "email"},
	}
}

// Username allows letters, digits, dot, dash and underscore, starting with a letter or digit.
// The '@' character is excluded so a login string can never be both.
func Username(field, value string) Rule {
	return Rule{
		Check: func() bool { return usernameRegex.MatchString(value) },
		Error: FieldError{Field: field, Message: "may contain only letters, digits, '.', '-' and '_'", Code: "username"},
	}
}

func UUID(field, value string) Rule {
	return Rule{
		Check: func() bool {
			id, err := uuid.Parse(value)
			return err == nil && id != uuid.Nil
		},
		Error: FieldError{Field: field, Message: "must be a valid UUID", Code: "uuid"},
	}
}

func NonZero(field string, value int) Rule {
	return Rule{
		Check: func() bool { return value != 0 },
		Error: FieldError{Field: field, Message: "must not be zero", Code: "non_zero"},
	}
}

func NotEmpty[T any](field string, value []T) Rule {
	return Rule{
		Check: func() bool { return len(value) > 0 },
		Error: FieldError{Field: field, Message: "must contain at least one item", Code: "not_empty"},
	}
}
