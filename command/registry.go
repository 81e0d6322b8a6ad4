package command

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"

	"github.com/liljencrantz/crush/errs"
)

// parameterSchema is the JSON Schema every declared Parameter list is
// checked against at registration time (§11 domain stack:
// santhosh-tekuri/jsonschema/v5), catching a malformed descriptor — a
// blank name — before a single call site ever exercises BindArguments.
// Duplicate parameter names are not checked.
//
// Grounded directly on the teacher's core/types/validation.go
// compileSchema: a jsonschema.Compiler with a single in-memory resource,
// compiled once and reused.
const parameterSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"description": {"type": "string"}
		},
		"required": ["name"]
	}
}`

var (
	compiledParamSchema     *jsonschema.Schema
	compiledParamSchemaOnce sync.Once
	compiledParamSchemaErr  error
)

func getParameterValidator() (*jsonschema.Schema, error) {
	compiledParamSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		const url = "schema://command-parameters.json"
		if err := compiler.AddResource(url, strings.NewReader(parameterSchema)); err != nil {
			compiledParamSchemaErr = err
			return
		}
		compiledParamSchema, compiledParamSchemaErr = compiler.Compile(url)
	})
	return compiledParamSchema, compiledParamSchemaErr
}

// ValidateParameters checks a declared Parameter list against
// parameterSchema and against the sink-uniqueness rule of §4.E
// ("multiple sinks of the same kind ... are errors"), which a JSON
// Schema alone cannot express.
func ValidateParameters(params []Parameter) error {
	validator, err := getParameterValidator()
	if err != nil {
		return errs.Wrap(errs.Generic, err, "compiling parameter schema")
	}

	doc := make([]map[string]any, len(params))
	for i, p := range params {
		doc[i] = map[string]any{"name": p.Name, "description": p.Description}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return errs.Wrap(errs.Generic, err, "marshaling parameter descriptors")
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return errs.Wrap(errs.Generic, err, "re-decoding parameter descriptors")
	}
	if err := validator.Validate(instance); err != nil {
		return errs.Wrap(errs.Argument, err, "invalid parameter descriptor list")
	}

	sawNamedSink, sawUnnamedSink := false, false
	for _, p := range params {
		if p.NamedSink {
			if sawNamedSink {
				return errs.New(errs.Argument, "multiple named-sink parameters declared")
			}
			sawNamedSink = true
		}
		if p.UnnamedSink {
			if sawUnnamedSink {
				return errs.New(errs.Argument, "multiple unnamed-sink parameters declared")
			}
			sawUnnamedSink = true
		}
	}
	return nil
}

// Registry maps a command name to its current Builtin, used by the
// packages that register built-in command libraries (out of scope per
// §1, but the registration point itself is in-scope plumbing) with
// last-writer-wins-only-if-newer semantics on HelpMetadata.Version
// (§11 domain stack: golang.org/x/mod/semver), rather than a silent
// unconditional overwrite. Grounded on §9 "Dispatch": "each type's
// methods live in a lazily-initialized map name -> Command".
type Registry struct {
	mu       sync.Mutex
	commands map[string]*Builtin
}

// NewRegistry creates an empty built-in command registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Builtin)}
}

// Register installs cmd under its name, validating its parameter list
// first. If a command is already registered under that name, cmd only
// replaces it when cmd.Help().Version is a valid semver newer than the
// incumbent's; an incumbent or challenger with no valid semver version
// always loses to one that has it, and two unversioned commands keep
// the incumbent (first-writer-wins when neither can be compared).
func (r *Registry) Register(cmd *Builtin) error {
	if err := ValidateParameters(cmd.Params()); err != nil {
		return errs.Wrap(errs.Argument, err, "registering command %q", cmd.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.commands[cmd.Name()]
	if !ok || Newer(cmd.Help().Version, existing.Help().Version) {
		r.commands[cmd.Name()] = cmd
	}
	return nil
}

// Lookup returns the currently registered command for name, if any.
func (r *Registry) Lookup(name string) (*Builtin, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Newer reports whether candidate is a strictly newer semver than
// incumbent. A candidate with no "v"-prefixed valid semver never beats
// an incumbent that has one; between two invalid versions, candidate
// does not win (first-writer-wins).
func Newer(candidate, incumbent string) bool {
	cv, iv := toSemver(candidate), toSemver(incumbent)
	if !semver.IsValid(cv) {
		return false
	}
	if !semver.IsValid(iv) {
		return true
	}
	return semver.Compare(cv, iv) > 0
}

// toSemver adds the "v" prefix golang.org/x/mod/semver requires, if
// the caller's HelpMetadata.Version omitted it.
func toSemver(v string) string {
	if v == "" {
		return v
	}
	if v[0] != 'v' {
		return "v" + v
	}
	return v
}
