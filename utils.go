package stackform

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/stackform-io/stackform/types"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ParseVars converts a map[string]cty.Value into map[string]interface
// where the interface are generic go types like string, number, bool, slice, map
func ParseVars(value map[string]cty.Value) map[string]interface{} {
	vars := map[string]interface{}{}

	for k, v := range value {
		vars[k] = castVar(v)
	}

	return vars
}

// HashString creates an MD5 hash of the given string
func HashString(in string) string {
	h := md5.New()
	h.Write([]byte(in))

	return fmt.Sprintf("%x", h.Sum(nil))
}

func castVar(v cty.Value) interface{} {
	// computed values that a provider has not yet populated evaluate as
	// unknown, treat them the same as null
	if v.IsNull() || !v.IsKnown() {
		return nil
	}

	if v.Type() == cty.String {
		return v.AsString()
	} else if v.Type() == cty.Bool {
		return v.True()
	} else if v.Type() == cty.Number {
		// the template engine does not understand big.Float so numbers are
		// always converted to float64
		val, _ := v.AsBigFloat().Float64()
		return val
	} else if v.Type().IsObjectType() || v.Type().IsMapType() {
		return ParseVars(v.AsValueMap())
	} else if v.Type().IsTupleType() || v.Type().IsListType() {
		vars := []interface{}{}

		i := v.ElementIterator()
		for {
			if !i.Next() {
				break
			}

			_, value := i.Element()
			vars = append(vars, castVar(value))
		}

		return vars
	} else if v.Type() == cty.DynamicPseudoType {
		v, err := convert.Convert(v, cty.String)
		if err == nil {
			return v.AsString()
		}
	}

	return nil
}

// generateChecksum calculates a checksum for the given resource from the
// json representation of its attributes.
//
// The metadata is excluded from the calculation so that moving a stanza
// within a file, or the file within the manifest folder, does not mark the
// resource as changed.
func generateChecksum(r types.Resource) string {
	// sort the links and depends on as their order depends on the graph walk
	sort.Strings(r.GetDependencies())
	sort.Strings(r.Metadata().Links)

	d, _ := json.Marshal(r)

	attrs := map[string]interface{}{}
	json.Unmarshal(d, &attrs)

	delete(attrs, "meta")

	d, _ = json.Marshal(attrs)

	return HashString(string(d))
}
