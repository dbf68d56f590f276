// Shared helpers for facets CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/facets/pkg/facets"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// attachEngine builds a Config from flags and config.yaml, creates the
// engine, and attaches it. The caller must defer engine.Detach().
func attachEngine() (types.Engine, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	driver := configDriver
	if driver == "" {
		driver = defaultDriver
	}
	cfg := types.Config{
		Driver:            driver,
		DSN:               configDSN,
		DataDir:           dataDir,
		CachedEntityTypes: configCachedTypes,
	}

	engine, err := facets.New(cfg, newLogger())
	if err != nil {
		return nil, fmt.Errorf("attach engine: %w", err)
	}
	return engine, nil
}

// newLogger builds the engine logger. Quiet by default; --verbose enables
// development output on stderr.
func newLogger() *zap.Logger {
	if !flagVerbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// printResult writes v to stdout, as indented JSON when --json is set or v
// has no simpler form.
func printResult(v any) {
	if flagJSON {
		printJSON(v)
		return
	}
	switch val := v.(type) {
	case nil:
		fmt.Println("(null)")
	case string:
		fmt.Println(val)
	default:
		printJSON(v)
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal JSON:", err)
		os.Exit(exitSysError)
	}
	fmt.Println(string(out))
}

// failValidation prints every field message of a validation or definition
// error and exits with the user-error code. Returns false when err is
// neither.
func failValidation(err error) bool {
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		for _, msg := range verr.Messages() {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(exitUserError)
	}
	var derr *types.DefinitionError
	if errors.As(err, &derr) {
		for _, v := range derr.Violations {
			fmt.Fprintln(os.Stderr, v)
		}
		os.Exit(exitUserError)
	}
	return false
}

// isUserError reports whether err stems from caller input rather than the
// storage layer.
func isUserError(err error) bool {
	return errors.Is(err, types.ErrAttributeNotFound) ||
		errors.Is(err, types.ErrDuplicateAttribute) ||
		errors.Is(err, types.ErrEntityNotPersisted) ||
		errors.Is(err, types.ErrInvalidOperator) ||
		errors.Is(err, types.ErrInvalidFilter) ||
		errors.Is(err, types.ErrInvalidLogic)
}

// fail prints err and exits with the matching code.
func fail(context string, err error) {
	if failValidation(err) {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", context, err)
	if isUserError(err) {
		os.Exit(exitUserError)
	}
	os.Exit(exitSysError)
}

// parseRuleValue converts a rule's string form from the command line into
// the value the catalog stores: numbers stay numeric, everything else
// (dates, "today") stays a string.
func parseRuleValue(s string) any {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}

// parseRules splits key=value rule arguments into a rule map.
func parseRules(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	rules := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("rule %q is not key=value", arg)
		}
		rules[key] = parseRuleValue(value)
	}
	return rules, nil
}

// parseFilter decodes a filter JSON document. Entries whose value is an
// object with an "operator" key become explicit conditions; everything else
// passes through as an equality literal.
func parseFilter(payload string) (types.Filter, error) {
	raw := make(map[string]any)
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("parse filter JSON: %w", err)
	}

	filter := make(types.Filter, len(raw))
	for name, entry := range raw {
		obj, ok := entry.(map[string]any)
		if !ok {
			filter[name] = entry
			continue
		}
		op, ok := obj["operator"].(string)
		if !ok {
			filter[name] = entry
			continue
		}
		cond := types.Condition{Operator: op, Value: obj["value"]}
		cond.Min = obj["min"]
		cond.Max = obj["max"]
		if b, ok := obj["case_sensitive"].(bool); ok {
			cond.CaseSensitive = b
		}
		if b, ok := obj["full_text"].(bool); ok {
			cond.FullText = b
		}
		filter[name] = cond
	}
	return filter, nil
}
