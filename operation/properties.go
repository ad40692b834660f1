package operation

import (
	"fmt"
	"time"

	"github.com/hesitationer/into/errors"
)

// Property is one named, typed configuration entry of an operation. The
// Set and Get closures are built at compile time in the operation's
// constructor; there is no reflection anywhere in the configuration path.
type Property struct {
	Name        string
	Type        string // "int", "float", "bool", "string", "duration"
	Description string
	Set         func(value any) error
	Get         func() any
}

// PropertyMap is the property table of one operation, keyed by name.
type PropertyMap map[string]Property

// IntProperty builds a table entry backed by an int64 field.
func IntProperty(name, description string, target *int64) Property {
	return Property{
		Name: name, Type: "int", Description: description,
		Set: func(value any) error {
			v, err := coerceInt(value)
			if err != nil {
				return err
			}
			*target = v
			return nil
		},
		Get: func() any { return *target },
	}
}

// FloatProperty builds a table entry backed by a float64 field.
func FloatProperty(name, description string, target *float64) Property {
	return Property{
		Name: name, Type: "float", Description: description,
		Set: func(value any) error {
			switch v := value.(type) {
			case float64:
				*target = v
			case float32:
				*target = float64(v)
			case int:
				*target = float64(v)
			case int64:
				*target = float64(v)
			default:
				return fmt.Errorf("expected float, got %T", value)
			}
			return nil
		},
		Get: func() any { return *target },
	}
}

// BoolProperty builds a table entry backed by a bool field.
func BoolProperty(name, description string, target *bool) Property {
	return Property{
		Name: name, Type: "bool", Description: description,
		Set: func(value any) error {
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("expected bool, got %T", value)
			}
			*target = v
			return nil
		},
		Get: func() any { return *target },
	}
}

// StringProperty builds a table entry backed by a string field.
func StringProperty(name, description string, target *string) Property {
	return Property{
		Name: name, Type: "string", Description: description,
		Set: func(value any) error {
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", value)
			}
			*target = v
			return nil
		},
		Get: func() any { return *target },
	}
}

// DurationProperty builds a table entry backed by a time.Duration field.
// String values are parsed with time.ParseDuration.
func DurationProperty(name, description string, target *time.Duration) Property {
	return Property{
		Name: name, Type: "duration", Description: description,
		Set: func(value any) error {
			switch v := value.(type) {
			case time.Duration:
				*target = v
			case string:
				d, err := time.ParseDuration(v)
				if err != nil {
					return err
				}
				*target = d
			case int:
				*target = time.Duration(v)
			case int64:
				*target = time.Duration(v)
			default:
				return fmt.Errorf("expected duration, got %T", value)
			}
			return nil
		},
		Get: func() any { return *target },
	}
}

func coerceInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		// YAML decodes bare numbers in mixed documents as float64.
		if v == float64(int64(v)) {
			return int64(v), nil
		}
		return 0, fmt.Errorf("expected int, got fractional %v", v)
	default:
		return 0, fmt.Errorf("expected int, got %T", value)
	}
}

// setProperty applies a value through a property table.
func (pm PropertyMap) setProperty(component, name string, value any) error {
	prop, ok := pm[name]
	if !ok {
		return errors.WrapConfig(
			fmt.Errorf("%q: %w", name, errors.ErrUnknownProperty),
			component, "SetProperty", "property lookup")
	}
	if err := prop.Set(value); err != nil {
		return errors.WrapConfig(err, component, "SetProperty", "property "+name)
	}
	return nil
}

// property reads a value through a property table.
func (pm PropertyMap) property(component, name string) (any, error) {
	prop, ok := pm[name]
	if !ok {
		return nil, errors.WrapConfig(
			fmt.Errorf("%q: %w", name, errors.ErrUnknownProperty),
			component, "Property", "property lookup")
	}
	return prop.Get(), nil
}
