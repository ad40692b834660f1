package engine

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hesitationer/into/compound"
	"github.com/hesitationer/into/errors"
	"github.com/hesitationer/into/operation"
)

// GraphFile is the persisted representation of a graph: operation names
// with their configuration key/value pairs, connection tuples, and the
// external port exposures. Runtime state is never persisted.
type GraphFile struct {
	Name       string           `yaml:"name"`
	Operations []OperationSpec  `yaml:"operations"`
	Connects   []ConnectionSpec `yaml:"connections,omitempty"`
	Expose     ExposeSpec       `yaml:"expose,omitempty"`
}

// OperationSpec describes one operation instance.
type OperationSpec struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config,omitempty"`
}

// ConnectionSpec describes one output port fanning out to input ports.
// Ports are addressed as "operation.socket".
type ConnectionSpec struct {
	From string   `yaml:"from"`
	To   []string `yaml:"to"`
}

// ExposeSpec maps external port names to child ports.
type ExposeSpec struct {
	Inputs  map[string]string `yaml:"inputs,omitempty"`
	Outputs map[string]string `yaml:"outputs,omitempty"`
}

// Load reconstructs the root compound from a YAML graph definition,
// creating operations through the registry, applying configuration
// through the property tables, and connecting sockets. The engine's root
// is replaced.
func (e *Engine) Load(data []byte) error {
	if e.registry == nil {
		return errors.WrapConfig(errors.ErrInvalidConfig, "Engine", "Load", "no registry configured")
	}

	var gf GraphFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return errors.WrapConfig(err, "Engine", "Load", "yaml parsing")
	}
	if gf.Name == "" {
		gf.Name = "root"
	}

	root := compound.New(gf.Name)
	root.SetLogger(e.logger)
	opTypes := make(map[string]string, len(gf.Operations))

	for _, spec := range gf.Operations {
		op, err := e.registry.Create(spec.Type, spec.Name)
		if err != nil {
			return err
		}
		for _, key := range sortedKeys(spec.Config) {
			if err := op.SetProperty(key, spec.Config[key]); err != nil {
				return err
			}
		}
		if err := root.AddOperation(op); err != nil {
			return err
		}
		opTypes[spec.Name] = spec.Type
	}

	for _, conn := range gf.Connects {
		out, err := resolveOutput(root, conn.From)
		if err != nil {
			return err
		}
		for _, to := range conn.To {
			in, err := resolveInput(root, to)
			if err != nil {
				return err
			}
			if err := operation.Connect(out, in); err != nil {
				return err
			}
		}
	}

	for ext, ref := range gf.Expose.Inputs {
		child, socket, err := splitPort(ref)
		if err != nil {
			return err
		}
		if err := root.ExposeInput(ext, child, socket); err != nil {
			return err
		}
	}
	for ext, ref := range gf.Expose.Outputs {
		child, socket, err := splitPort(ref)
		if err != nil {
			return err
		}
		if err := root.ExposeOutput(ext, child, socket); err != nil {
			return err
		}
	}

	e.root = root
	e.opTypes = opTypes
	e.logger.Info("graph loaded", "graph", gf.Name, "operations", len(gf.Operations))
	return nil
}

// Save serializes the current graph topology and per-operation
// configuration to YAML. Operations added programmatically without a
// registry type are saved with an empty type and cannot be round-tripped.
func (e *Engine) Save() ([]byte, error) {
	gf := GraphFile{Name: e.root.Name()}

	// Map every input socket to its "operation.socket" address.
	inputAddr := make(map[*operation.InputSocket]string)
	for _, op := range e.root.Operations() {
		for _, in := range op.Inputs() {
			inputAddr[in] = op.Name() + "." + in.Name()
		}
	}

	for _, op := range e.root.Operations() {
		spec := OperationSpec{
			Name: op.Name(),
			Type: e.opTypes[op.Name()],
		}
		if dop, ok := op.(*operation.DefaultOperation); ok {
			if props := dop.Properties(); len(props) > 0 {
				spec.Config = make(map[string]any, len(props))
				for name, prop := range props {
					spec.Config[name] = prop.Get()
				}
			}
		}
		gf.Operations = append(gf.Operations, spec)

		for _, out := range op.Outputs() {
			conns := out.Connections()
			if len(conns) == 0 {
				continue
			}
			spec := ConnectionSpec{From: op.Name() + "." + out.Name()}
			for _, in := range conns {
				if addr, ok := inputAddr[in]; ok {
					spec.To = append(spec.To, addr)
				}
			}
			sort.Strings(spec.To)
			gf.Connects = append(gf.Connects, spec)
		}
	}

	inputs, outputs := e.root.Exposures()
	if len(inputs) > 0 {
		gf.Expose.Inputs = inputs
	}
	if len(outputs) > 0 {
		gf.Expose.Outputs = outputs
	}

	return yaml.Marshal(&gf)
}

func resolveOutput(c *compound.Compound, ref string) (*operation.OutputSocket, error) {
	opName, socket, err := splitPort(ref)
	if err != nil {
		return nil, err
	}
	op, ok := c.Operation(opName)
	if !ok {
		return nil, errors.WrapConfig(
			fmt.Errorf("operation %q: %w", opName, errors.ErrUnknownPort),
			"Engine", "Load", "connection source lookup")
	}
	out := op.Output(socket)
	if out == nil {
		return nil, errors.WrapConfig(
			fmt.Errorf("port %q: %w", ref, errors.ErrUnknownPort),
			"Engine", "Load", "connection source lookup")
	}
	return out, nil
}

func resolveInput(c *compound.Compound, ref string) (*operation.InputSocket, error) {
	opName, socket, err := splitPort(ref)
	if err != nil {
		return nil, err
	}
	op, ok := c.Operation(opName)
	if !ok {
		return nil, errors.WrapConfig(
			fmt.Errorf("operation %q: %w", opName, errors.ErrUnknownPort),
			"Engine", "Load", "connection target lookup")
	}
	in := op.Input(socket)
	if in == nil {
		return nil, errors.WrapConfig(
			fmt.Errorf("port %q: %w", ref, errors.ErrUnknownPort),
			"Engine", "Load", "connection target lookup")
	}
	return in, nil
}

func splitPort(ref string) (op, socket string, err error) {
	op, socket, found := strings.Cut(ref, ".")
	if !found || op == "" || socket == "" {
		return "", "", errors.WrapConfig(
			fmt.Errorf("port reference %q must be operation.socket: %w", ref, errors.ErrInvalidConfig),
			"Engine", "Load", "port reference parsing")
	}
	return op, socket, nil
}

// sortedKeys returns map keys in sorted order for deterministic
// configuration application.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
