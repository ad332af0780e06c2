package stackform

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/infinytum/raymond/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

func getDefaultFunctions(filePath string) map[string]function.Function {
	var EnvFunc = function.New(&function.Spec{
		Params: []function.Parameter{
			{
				Name:             "env",
				Type:             cty.String,
				AllowDynamicType: true,
			},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			return cty.StringVal(os.Getenv(args[0].AsString())), nil
		},
	})

	var HomeFunc = function.New(&function.Spec{
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			h, _ := os.UserHomeDir()
			return cty.StringVal(h), nil
		},
	})

	var ReadFileFunc = function.New(&function.Spec{
		Params: []function.Parameter{
			{
				Name:             "path",
				Type:             cty.String,
				AllowDynamicType: true,
			},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			// convert the file path to an absolute
			fp := ensureAbsolute(args[0].AsString(), filePath)

			// read the contents of the file
			d, err := os.ReadFile(fp)
			if err != nil {
				return cty.StringVal(""), err
			}

			return cty.StringVal(string(d)), nil
		},
	})

	var ReadTemplateFileFunc = function.New(&function.Spec{
		Params: []function.Parameter{
			{
				Name:             "path",
				Type:             cty.String,
				AllowDynamicType: true,
			},
			{
				Name:             "variables",
				Type:             cty.DynamicPseudoType,
				AllowUnknown:     true,
				AllowDynamicType: true,
			},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			// convert the file path to an absolute
			fp := ensureAbsolute(args[0].AsString(), filePath)

			// read the contents of the file
			d, err := os.ReadFile(fp)
			if err != nil {
				return cty.StringVal(""), err
			}

			vars := args[1]
			if vars.IsNull() || !vars.Type().IsObjectType() {
				return cty.StringVal(""), fmt.Errorf(`variables is either empty or not correctly formatted, e.g. { foo = "bar" list = ["a", "b"] number = 3 }`)
			}

			variables := ParseVars(vars.AsValueMap())

			tmpl, err := raymond.Parse(string(d))
			if err != nil {
				return cty.StringVal(""), fmt.Errorf("error parsing template: %s", err)
			}

			tmpl.RegisterHelpers(map[string]interface{}{
				"quote": func(in string) string {
					return fmt.Sprintf(`"%s"`, in)
				},
				"trim": func(in string) string {
					return strings.TrimSpace(in)
				},
			})

			result, err := tmpl.Exec(variables)
			if err != nil {
				return cty.StringVal(""), fmt.Errorf("error processing template: %s", err)
			}

			return cty.StringVal(result), nil
		},
	})

	var LenFunc = function.New(&function.Spec{
		Params: []function.Parameter{
			{
				Name:             "var",
				Type:             cty.DynamicPseudoType,
				AllowDynamicType: true,
			},
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			if len(args) == 1 && args[0].Type().IsCollectionType() || args[0].Type().IsTupleType() {
				i := args[0].ElementIterator()
				if i.Next() {
					return args[0].Length(), nil
				}
			}

			if len(args) == 1 && args[0].Type() == cty.String {
				return cty.NumberIntVal(int64(len(args[0].AsString()))), nil
			}

			return cty.NumberIntVal(0), nil
		},
	})

	var DirFunc = function.New(&function.Spec{
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			s, err := filepath.Abs(filePath)

			// check if filepath is already a directory
			if stat, err := os.Stat(s); err == nil && stat.IsDir() {
				return cty.StringVal(s), err
			}

			return cty.StringVal(filepath.Dir(s)), err
		},
	})

	var TrimFunc = function.New(&function.Spec{
		Params: []function.Parameter{
			{
				Name:             "string",
				Type:             cty.String,
				AllowDynamicType: true,
			},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			return cty.StringVal(strings.TrimSpace(args[0].AsString())), nil
		},
	})

	var ElementFunc = function.New(&function.Spec{
		Params: []function.Parameter{
			{
				Name:             "value",
				Type:             cty.DynamicPseudoType,
				AllowDynamicType: true,
			},
			{
				Name:             "index",
				Type:             cty.DynamicPseudoType,
				AllowDynamicType: true,
			},
		},
		Type: function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			if args[0].Type().IsTupleType() || args[0].Type().IsListType() {
				i := args[0].ElementIterator()

				for {
					if !i.Next() {
						break
					}

					index, e := i.Element()
					if index.Equals(args[1]).True() {
						return e, nil
					}
				}

				return cty.NullVal(retType), nil
			} else if args[1].Type() == cty.String && (args[0].Type().IsObjectType() || args[0].Type().IsMapType()) {
				index := args[1].AsString()
				m := args[0].AsValueMap()

				return m[index], nil
			}

			return cty.NullVal(retType), nil
		},
	})

	// CidrSubnetFunc carves a child network out of the given prefix,
	// cidrsubnet("10.0.0.0/16", 8, 2) returns "10.0.2.0/24"
	var CidrSubnetFunc = function.New(&function.Spec{
		Params: []function.Parameter{
			{
				Name:             "prefix",
				Type:             cty.String,
				AllowDynamicType: true,
			},
			{
				Name:             "newbits",
				Type:             cty.Number,
				AllowDynamicType: true,
			},
			{
				Name:             "netnum",
				Type:             cty.Number,
				AllowDynamicType: true,
			},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			_, network, err := net.ParseCIDR(args[0].AsString())
			if err != nil {
				return cty.StringVal(""), fmt.Errorf("invalid CIDR prefix: %s", err)
			}

			newbits, _ := args[1].AsBigFloat().Int64()
			netnum, _ := args[2].AsBigFloat().Int64()

			ones, bits := network.Mask.Size()
			if int(newbits)+ones > bits {
				return cty.StringVal(""), fmt.Errorf("not enough address space in %s for %d additional bits", args[0].AsString(), newbits)
			}

			maxNets := int64(1) << newbits
			if netnum >= maxNets {
				return cty.StringVal(""), fmt.Errorf("network number %d is out of range for %d additional bits", netnum, newbits)
			}

			ip := network.IP.Mask(network.Mask)
			hostBits := bits - ones - int(newbits)

			offset := netnum << hostBits
			for i := len(ip) - 1; i >= 0 && offset > 0; i-- {
				offset += int64(ip[i])
				ip[i] = byte(offset & 0xff)
				offset >>= 8
			}

			sub := &net.IPNet{IP: ip, Mask: net.CIDRMask(ones+int(newbits), bits)}

			return cty.StringVal(sub.String()), nil
		},
	})

	funcs := map[string]function.Function{
		"abs":             stdlib.AbsoluteFunc,
		"ceil":            stdlib.CeilFunc,
		"chomp":           stdlib.ChompFunc,
		"cidrsubnet":      CidrSubnetFunc,
		"coalescelist":    stdlib.CoalesceListFunc,
		"compact":         stdlib.CompactFunc,
		"concat":          stdlib.ConcatFunc,
		"contains":        stdlib.ContainsFunc,
		"csvdecode":       stdlib.CSVDecodeFunc,
		"dir":             DirFunc,
		"distinct":        stdlib.DistinctFunc,
		"element":         ElementFunc,
		"env":             EnvFunc,
		"chunklist":       stdlib.ChunklistFunc,
		"file":            ReadFileFunc,
		"flatten":         stdlib.FlattenFunc,
		"floor":           stdlib.FloorFunc,
		"format":          stdlib.FormatFunc,
		"formatdate":      stdlib.FormatDateFunc,
		"formatlist":      stdlib.FormatListFunc,
		"home":            HomeFunc,
		"indent":          stdlib.IndentFunc,
		"join":            stdlib.JoinFunc,
		"jsondecode":      stdlib.JSONDecodeFunc,
		"jsonencode":      stdlib.JSONEncodeFunc,
		"keys":            stdlib.KeysFunc,
		"len":             LenFunc,
		"log":             stdlib.LogFunc,
		"lower":           stdlib.LowerFunc,
		"max":             stdlib.MaxFunc,
		"merge":           stdlib.MergeFunc,
		"min":             stdlib.MinFunc,
		"parseint":        stdlib.ParseIntFunc,
		"pow":             stdlib.PowFunc,
		"range":           stdlib.RangeFunc,
		"regex":           stdlib.RegexFunc,
		"regexall":        stdlib.RegexAllFunc,
		"reverse":         stdlib.ReverseListFunc,
		"setintersection": stdlib.SetIntersectionFunc,
		"setproduct":      stdlib.SetProductFunc,
		"setsubtract":     stdlib.SetSubtractFunc,
		"setunion":        stdlib.SetUnionFunc,
		"signum":          stdlib.SignumFunc,
		"slice":           stdlib.SliceFunc,
		"sort":            stdlib.SortFunc,
		"split":           stdlib.SplitFunc,
		"strrev":          stdlib.ReverseFunc,
		"substr":          stdlib.SubstrFunc,
		"template_file":   ReadTemplateFileFunc,
		"timeadd":         stdlib.TimeAddFunc,
		"title":           stdlib.TitleFunc,
		"trim":            TrimFunc,
		"trimprefix":      stdlib.TrimPrefixFunc,
		"trimspace":       stdlib.TrimSpaceFunc,
		"trimsuffix":      stdlib.TrimSuffixFunc,
		"upper":           stdlib.UpperFunc,
		"values":          stdlib.ValuesFunc,
		"zipmap":          stdlib.ZipmapFunc,
	}

	return funcs
}
