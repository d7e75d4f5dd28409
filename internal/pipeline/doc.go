// Package pipeline drives one generation run: it allocates the run id and
// directory, executes the stage graph in order, skips stages whose
// dependencies did not succeed, and always finishes with the final stage.
package pipeline
