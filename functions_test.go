package stackform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestCidrSubnetCarvesSubnets(t *testing.T) {
	funcs := getDefaultFunctions(t.TempDir())
	f := funcs["cidrsubnet"]

	v, err := f.Call([]cty.Value{
		cty.StringVal("10.0.0.0/16"),
		cty.NumberIntVal(8),
		cty.NumberIntVal(1),
	})
	require.NoError(t, err)
	require.Equal(t, "10.0.1.0/24", v.AsString())

	v, err = f.Call([]cty.Value{
		cty.StringVal("10.0.0.0/16"),
		cty.NumberIntVal(8),
		cty.NumberIntVal(2),
	})
	require.NoError(t, err)
	require.Equal(t, "10.0.2.0/24", v.AsString())
}

func TestCidrSubnetRejectsOutOfRange(t *testing.T) {
	funcs := getDefaultFunctions(t.TempDir())
	f := funcs["cidrsubnet"]

	_, err := f.Call([]cty.Value{
		cty.StringVal("10.0.0.0/16"),
		cty.NumberIntVal(8),
		cty.NumberIntVal(256),
	})
	require.Error(t, err)

	_, err = f.Call([]cty.Value{
		cty.StringVal("10.0.0.0/30"),
		cty.NumberIntVal(8),
		cty.NumberIntVal(0),
	})
	require.Error(t, err)

	_, err = f.Call([]cty.Value{
		cty.StringVal("not-a-cidr"),
		cty.NumberIntVal(8),
		cty.NumberIntVal(0),
	})
	require.Error(t, err)
}

func TestEnvFunctionReadsEnvironment(t *testing.T) {
	os.Setenv("SF_TEST_VALUE", "from-env")
	t.Cleanup(func() {
		os.Unsetenv("SF_TEST_VALUE")
	})

	funcs := getDefaultFunctions(t.TempDir())

	v, err := funcs["env"].Call([]cty.Value{cty.StringVal("SF_TEST_VALUE")})
	require.NoError(t, err)
	require.Equal(t, "from-env", v.AsString())
}

func TestFileFunctionReadsRelativeToManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.txt"), []byte("hello"), 0644))

	// the manifest file must exist, relative paths are resolved against
	// the directory of the file being parsed
	manifest := filepath.Join(dir, "manifest.hcl")
	require.NoError(t, os.WriteFile(manifest, []byte{}, 0644))

	funcs := getDefaultFunctions(manifest)

	v, err := funcs["file"].Call([]cty.Value{cty.StringVal("./data.txt")})
	require.NoError(t, err)
	require.Equal(t, "hello", v.AsString())
}

func TestLenFunctionCountsElements(t *testing.T) {
	funcs := getDefaultFunctions(t.TempDir())

	v, err := funcs["len"].Call([]cty.Value{
		cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}),
	})
	require.NoError(t, err)

	n, _ := v.AsBigFloat().Int64()
	require.Equal(t, int64(2), n)
}

func TestCreateCtyFunctionFromGoFunc(t *testing.T) {
	f, err := createCtyFunctionFromGoFunc(func(a, b int) int {
		return a + b
	})
	require.NoError(t, err)

	v, err := f.Call([]cty.Value{cty.NumberIntVal(2), cty.NumberIntVal(3)})
	require.NoError(t, err)

	n, _ := v.AsBigFloat().Int64()
	require.Equal(t, int64(5), n)
}

func TestCreateCtyFunctionPropagatesErrors(t *testing.T) {
	f, err := createCtyFunctionFromGoFunc(func(in string) (string, error) {
		return "", os.ErrNotExist
	})
	require.NoError(t, err)

	_, err = f.Call([]cty.Value{cty.StringVal("x")})
	require.Error(t, err)
}

func TestCreateCtyFunctionRejectsNonFunctions(t *testing.T) {
	_, err := createCtyFunctionFromGoFunc("not a function")
	require.Error(t, err)

	_, err = createCtyFunctionFromGoFunc(func() {})
	require.Error(t, err)
}
