package warehouse

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"

	apperrors "tbsu/internal/errors"
)

// SQLTimeLayout is the literal format accepted by PostgreSQL timestamps
const SQLTimeLayout = "2006-01-02 15:04:05"

// SQLTime renders value shifted by offset as a SQL timestamp literal.
// value is a time.Time or a date string in any common format.
func SQLTime(value any, offset time.Duration) (string, error) {
	var t time.Time
	switch x := value.(type) {
	case time.Time:
		t = x
	case string:
		parsed, err := dateparse.ParseIn(x, time.UTC)
		if err != nil {
			return "", apperrors.NewParsingError(fmt.Sprintf("cannot parse %q as a time", x), err)
		}
		t = parsed
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("only strings or times are supported, got %T", value), nil)
	}
	return t.Add(offset).Format(SQLTimeLayout), nil
}
