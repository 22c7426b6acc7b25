package mongo

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/pkg/document"
)

// Keys stored as BSON dates rather than strings so range filters work.
var dateKeys = []string{model.KeyCreatedAt, model.KeyUpdatedAt}

// toDoc encodes a model value as a BSON document: its JSON form with the "_id"
// coerced to an ObjectID and timestamps converted back to dates.
func toDoc(v interface{}) (bson.M, error) {
	m, err := document.ToMap(v)
	if err != nil {
		return nil, err
	}
	doc := bson.M(m)

	if raw, ok := doc[model.KeyID].(string); ok {
		oid, err := model.CoerceObjectID(raw)
		if err != nil {
			return nil, err
		}
		doc[model.KeyID] = oid
	}
	for _, k := range dateKeys {
		if raw, ok := doc[k].(string); ok {
			t, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", k, err)
			}
			doc[k] = t
		}
	}
	return doc, nil
}

// setDoc prepares a partial update for $set: dates stay dates, everything else
// is passed through as given.
func setDoc(fields map[string]interface{}) bson.M {
	set := make(bson.M, len(fields))
	for k, v := range fields {
		set[k] = v
	}
	return set
}

// fromDoc decodes a BSON document into out, a pointer to a model type.
func fromDoc(doc bson.M, out interface{}) error {
	raw, err := json.Marshal(normalize(doc))
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

// normalize rewrites driver specific values into plain JSON friendly ones.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case primitive.ObjectID:
		return x.Hex()
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	case primitive.Decimal128:
		return x.String()
	case bson.M:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[k] = normalize(val)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[k] = normalize(val)
		}
		return out
	case bson.D:
		out := make(map[string]interface{}, len(x))
		for _, e := range x {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := model.CoerceObjectID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}
