package stage

import "github.com/DreamingRabbit/CP-Gen/internal/artifact"

// Base provides common plumbing for stages (identity + IO contracts).
type Base struct {
	info    Info
	inputs  []artifact.ArtifactRef
	outputs []artifact.ArtifactRef
}

// NewBase seeds the helper with stage info.
func NewBase(info Info) Base {
	return Base{info: info}
}

// SetInputs declares the artifacts read by the stage.
func (b *Base) SetInputs(refs ...artifact.ArtifactRef) {
	b.inputs = append([]artifact.ArtifactRef{}, refs...)
}

// SetOutputs declares the produced artifacts.
func (b *Base) SetOutputs(refs ...artifact.ArtifactRef) {
	b.outputs = append([]artifact.ArtifactRef{}, refs...)
}

// Info implements Stage.Info.
func (b *Base) Info() Info {
	return b.info
}

// Inputs implements Stage.Inputs.
func (b *Base) Inputs() []artifact.ArtifactRef {
	return append([]artifact.ArtifactRef{}, b.inputs...)
}

// Outputs implements Stage.Outputs.
func (b *Base) Outputs() []artifact.ArtifactRef {
	return append([]artifact.ArtifactRef{}, b.outputs...)
}

// MissingInputs lists declared inputs that are not ready in store.
func MissingInputs(s Stage, store *artifact.Store) []artifact.ArtifactRef {
	if s == nil {
		return nil
	}
	return notReady(s.Inputs(), store)
}

// MissingOutputs lists declared outputs that are not ready in store.
func MissingOutputs(s Stage, store *artifact.Store) []artifact.ArtifactRef {
	if s == nil {
		return nil
	}
	return notReady(s.Outputs(), store)
}

func notReady(refs []artifact.ArtifactRef, store *artifact.Store) []artifact.ArtifactRef {
	if store == nil {
		return nil
	}
	var missing []artifact.ArtifactRef
	for _, ref := range refs {
		if !store.Ready(ref) {
			missing = append(missing, ref)
		}
	}
	return missing
}
