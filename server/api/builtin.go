package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// CircuitTypeGnark is the only circuit type the emulator can actually
// compile and prove. Uploads of other types are accepted and then fail
// their compile job, which is what SDK failure-path tests need.
const CircuitTypeGnark = "gnark"

// CubicCircuit proves knowledge of x such that x**3 + x + 5 == y.
type CubicCircuit struct {
	X frontend.Variable `gnark:"x"`
	Y frontend.Variable `gnark:",public"`
}

func (c *CubicCircuit) Define(api frontend.API) error {
	x3 := api.Mul(c.X, c.X, c.X)
	api.AssertIsEqual(c.Y, api.Add(x3, c.X, 5))
	return nil
}

type cubicInput struct {
	X json.Number `json:"X"`
	Y json.Number `json:"Y"`
}

func parseCubicInput(raw []byte) (frontend.Circuit, error) {
	var in cubicInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("proof input is not valid JSON: %w", err)
	}
	if in.X == "" || in.Y == "" {
		return nil, fmt.Errorf("proof input must set X and Y")
	}
	return &CubicCircuit{X: in.X.String(), Y: in.Y.String()}, nil
}

// CircuitSetup is a compiled constraint system with its groth16 keys.
type CircuitSetup struct {
	CS constraint.ConstraintSystem
	PK groth16.ProvingKey
	VK groth16.VerifyingKey
}

// BuiltinCircuit is a circuit the emulator can stand in for an upload. The
// emulator cannot compile arbitrary uploaded sources, so every gnark upload
// is mapped onto one of these.
type BuiltinCircuit struct {
	Name     string
	template func() frontend.Circuit
	parse    func([]byte) (frontend.Circuit, error)

	once  sync.Once
	setup *CircuitSetup
	err   error
}

// Setup compiles the circuit and runs the groth16 setup, once, caching the
// result for every circuit record that maps onto this builtin.
func (b *BuiltinCircuit) Setup() (*CircuitSetup, error) {
	b.once.Do(func() {
		ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, b.template())
		if err != nil {
			b.err = fmt.Errorf("compiling %s: %w", b.Name, err)
			return
		}
		pk, vk, err := groth16.Setup(ccs)
		if err != nil {
			b.err = fmt.Errorf("groth16 setup for %s: %w", b.Name, err)
			return
		}
		b.setup = &CircuitSetup{CS: ccs, PK: pk, VK: vk}
	})
	return b.setup, b.err
}

// Parse converts raw proof input into a full circuit assignment.
func (b *BuiltinCircuit) Parse(raw []byte) (frontend.Circuit, error) {
	return b.parse(raw)
}

// DefaultBuiltin is used when an upload manifest does not name a builtin.
const DefaultBuiltin = "cubic"

var builtins = map[string]*BuiltinCircuit{
	"cubic": {
		Name:     "cubic",
		template: func() frontend.Circuit { return &CubicCircuit{} },
		parse:    parseCubicInput,
	},
}

// Builtin looks up a builtin circuit by name.
func Builtin(name string) (*BuiltinCircuit, bool) {
	b, ok := builtins[name]
	return b, ok
}

// BuiltinCircuitNames lists the available builtins, sorted.
func BuiltinCircuitNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
