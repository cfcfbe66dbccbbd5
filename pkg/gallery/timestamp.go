package gallery

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TimestampLayout is the text form a Timestamp is stored in. Values are
// always written in UTC so the text sorts in time order.
const TimestampLayout = "2006-01-02 15:04:05-07:00"

var timestampParseLayouts = []string{
	TimestampLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// Timestamp is a point in time with an offset. It serialises to JSON as RFC
// 3339 and to the database as TimestampLayout text.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Second)}
}

// String returns the stored text form.
func (t Timestamp) String() string {
	return t.UTC().Format(TimestampLayout)
}

// Value implements driver.Valuer.
func (t Timestamp) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan implements sql.Scanner.
func (t *Timestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("gallery: cannot scan %T into Timestamp", src)
	}
}

func (t *Timestamp) parse(s string) error {
	for _, layout := range timestampParseLayouts {
		v, err := time.Parse(layout, s)
		if err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("gallery: invalid timestamp %q", s)
}
