package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/pkg/invoker"
)

// EnvPrefix is prepended to the upper-cased yaml name of each option.
const EnvPrefix = "MAVEN_INVOKER_"

var durationType = reflect.TypeOf(time.Duration(0))

// EnvName returns the environment variable that overrides a yaml option.
func EnvName(option string) string {
	return EnvPrefix + strings.ToUpper(option)
}

// ApplyEnv overlays MAVEN_INVOKER_* variables onto o. Lists are
// comma-separated and maps are comma-separated k=v pairs.
func ApplyEnv(o *invoker.Options, lookup func(string) (string, bool)) error {
	v := reflect.ValueOf(o).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := yamlName(t.Field(i))
		if name == "" {
			continue
		}
		raw, ok := lookup(EnvName(name))
		if !ok {
			continue
		}
		if err := setField(v.Field(i), raw); err != nil {
			return dserrors.ConfigError{
				Field:      EnvName(name),
				Value:      raw,
				Message:    err.Error(),
				Suggestion: fmt.Sprintf("Fix or unset %s", EnvName(name)),
				Err:        err,
			}
		}
	}
	return nil
}

func yamlName(f reflect.StructField) string {
	tag := f.Tag.Get("yaml")
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

func setField(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	case reflect.Slice:
		field.Set(reflect.ValueOf(splitList(raw)))
	case reflect.Map:
		m, err := splitPairs(raw)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(m))
	default:
		return fmt.Errorf("unsupported option type %s", field.Type())
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func splitPairs(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, item := range splitList(raw) {
		k, v, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", item)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}
