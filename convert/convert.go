package convert

import (
	"encoding/json"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// GoToCtyValue converts a Go value into a cty.Value so that it can be set
// on an evaluation context. The conversion goes through the JSON form of
// the value, the json tags on resource structs define the attribute names
// that manifests use to reference them.
func GoToCtyValue(val any) (cty.Value, error) {
	d, err := json.Marshal(val)
	if err != nil {
		return cty.False, err
	}

	typ, err := ctyjson.ImpliedType(d)
	if err != nil {
		return cty.False, err
	}

	ctyVal, err := ctyjson.Unmarshal(d, typ)
	if err != nil {
		return cty.False, err
	}

	return ctyVal, nil
}

// CtyToGo converts a cty.Value into the given Go value, the reverse of
// GoToCtyValue. It also goes through the JSON form so that the same json
// tags apply in both directions.
func CtyToGo(val cty.Value, target any) error {
	d, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return err
	}

	return json.Unmarshal(d, target)
}
