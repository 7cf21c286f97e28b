package input

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"arena/internal/game/world"
)

// MaxCommandSize bounds a single encoded command.
const MaxCommandSize = 4 << 10

var (
	ErrTooLarge       = errors.New("command too large")
	ErrUnknownAction  = errors.New("unknown action")
	ErrMissingAbility = errors.New("ability id required")
	ErrMissingField   = errors.New("missing field")
	ErrInvalidValue   = errors.New("invalid value")
)

// Parse decodes and validates a JSON command from source. Unknown fields
// are rejected.
func Parse(source string, data []byte) (Command, error) {
	if len(data) > MaxCommandSize {
		return Command{}, ErrTooLarge
	}

	var cmd Command
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}

	action, ok := ParseAction(string(cmd.Action))
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}
	cmd.Action = action
	cmd.Source = source

	if err := Validate(cmd); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// Validate checks the fields an action needs.
func Validate(cmd Command) error {
	if _, ok := ParseAction(string(cmd.Action)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}
	if cmd.Action.NeedsAbility() && cmd.AbilityID == "" {
		return ErrMissingAbility
	}
	if cmd.Facing != nil && !finite(*cmd.Facing) {
		return fmt.Errorf("%w: facing", ErrInvalidValue)
	}
	if !finiteVec(cmd.Direction) || !finiteVec(cmd.Point) || !finiteVec(cmd.Position) {
		return fmt.Errorf("%w: vector", ErrInvalidValue)
	}

	switch cmd.Action {
	case ActionMove:
		if cmd.Position == nil && cmd.Facing == nil {
			return fmt.Errorf("%w: position or facing", ErrMissingField)
		}
	case ActionLevel:
		if cmd.Level < 1 {
			return fmt.Errorf("%w: level must be at least 1", ErrInvalidValue)
		}
	case ActionFocus:
		if cmd.TargetID == "" {
			return fmt.Errorf("%w: target", ErrMissingField)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finiteVec(v *world.Vec3) bool {
	return v == nil || (finite(v.X) && finite(v.Y) && finite(v.Z))
}
