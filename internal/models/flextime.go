package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// FlexTime decodes both BSON dates and the ISO-8601 strings that older
// documents stored, and always encodes as a BSON date.
type FlexTime struct {
	time.Time
}

var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func (t FlexTime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(t.Time)
}

func (t *FlexTime) UnmarshalBSONValue(typ bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: typ, Value: data}
	switch typ {
	case bsontype.DateTime:
		t.Time = raw.Time().UTC()
		return nil
	case bsontype.String:
		s := raw.StringValue()
		for _, layout := range legacyTimeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed.UTC()
				return nil
			}
		}
		return fmt.Errorf("unrecognised timestamp %q", s)
	case bsontype.Null, bsontype.Undefined:
		t.Time = time.Time{}
		return nil
	}
	return fmt.Errorf("cannot decode %s into FlexTime", typ)
}
