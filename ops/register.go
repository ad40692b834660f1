package ops

import (
	"github.com/hesitationer/into/operation"
)

// RegisterAll registers every operation in this package with the given
// registry under its canonical type name.
func RegisterAll(reg *operation.Registry) error {
	registrations := []*operation.Registration{
		{
			Name:        "generator",
			Description: "Emits an integer sequence at a configurable rate",
			Version:     "1.0.0",
			Factory: func(name string) (operation.Operation, error) {
				return NewGenerator(name).Op(), nil
			},
		},
		{
			Name:        "scale",
			Description: "Multiplies numeric objects by a factor",
			Version:     "1.0.0",
			Factory: func(name string) (operation.Operation, error) {
				return NewScale(name).Op(), nil
			},
		},
		{
			Name:        "debug",
			Description: "Prints passing objects with a format template",
			Version:     "1.0.0",
			Factory: func(name string) (operation.Operation, error) {
				return NewDebug(name).Op(), nil
			},
		},
		{
			Name:        "collector",
			Description: "Collects received objects into memory",
			Version:     "1.0.0",
			Factory: func(name string) (operation.Operation, error) {
				return NewCollector(name).Op(), nil
			},
		},
		{
			Name:        "delay",
			Description: "Forwards objects after a configurable pause",
			Version:     "1.0.0",
			Factory: func(name string) (operation.Operation, error) {
				return NewDelay(name).Op(), nil
			},
		},
		{
			Name:        "failer",
			Description: "Forwards objects and fails on a configured index",
			Version:     "1.0.0",
			Factory: func(name string) (operation.Operation, error) {
				return NewFailer(name).Op(), nil
			},
		},
		{
			Name:        "passthrough",
			Description: "Forwards objects unchanged",
			Version:     "1.0.0",
			Factory: func(name string) (operation.Operation, error) {
				return NewPassthrough(name).Op(), nil
			},
		},
	}

	for _, r := range registrations {
		if err := reg.RegisterFactory(r); err != nil {
			return err
		}
	}
	return nil
}
