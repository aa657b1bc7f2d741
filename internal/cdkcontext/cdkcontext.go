// Package cdkcontext reads deployment parameters from the "context" block of
// a cdk.json file, the file-based configuration path used when no "default"
// environment is registered in code.
package cdkcontext

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"

	"github.com/eugenenazirov/stackctl/internal/params"
)

// ErrMalformed is returned when cdk.json cannot be interpreted.
var ErrMalformed = errors.New("malformed cdk.json")

// File is the parsed content of a cdk.json file relevant to parameters.
type File struct {
	// App is the synthesis command line ("app" key).
	App string
	// Parameters holds the recognized parameter keys found under "context".
	Parameters params.Input
	// Unused lists context keys that are not deployment parameters.
	Unused []string
}

// Load reads path. A missing file yields found == false and no error.
func Load(path string) (file File, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{}, false, nil
		}
		return File{}, false, fmt.Errorf("read file: %w", err)
	}

	file, err = Parse(data)
	if err != nil {
		return File{}, true, fmt.Errorf("%s: %w", path, err)
	}
	return file, true, nil
}

// Parse interprets cdk.json content. Comments and trailing commas are tolerated.
func Parse(data []byte) (File, error) {
	stripped := jsonc.ToJSON(data)
	if !gjson.ValidBytes(stripped) {
		return File{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}

	doc := gjson.ParseBytes(stripped)
	if !doc.IsObject() {
		return File{}, fmt.Errorf("%w: top level must be an object", ErrMalformed)
	}

	out := File{App: doc.Get("app").String()}

	ctx := doc.Get("context")
	if !ctx.Exists() {
		return out, nil
	}
	if !ctx.IsObject() {
		return File{}, fmt.Errorf("%w: context must be an object", ErrMalformed)
	}

	raw, ok := ctx.Value().(map[string]interface{})
	if !ok {
		return File{}, fmt.Errorf("%w: context must be an object", ErrMalformed)
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         &md,
		Result:           &out.Parameters,
		WeaklyTypedInput: true,
		ZeroFields:       false,
	})
	if err != nil {
		return File{}, fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	out.Unused = md.Unused
	sort.Strings(out.Unused)
	return out, nil
}
