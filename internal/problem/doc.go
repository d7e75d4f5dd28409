// Package problem holds the structured record of a competitive-programming
// problem and the conversion between that record and the sectioned,
// markdown-like text produced by the statement generator.
//
// Parsing is best-effort: a statement missing any of the eight known
// sections still yields a usable Problem with blank fields. Serialize emits
// the sections in canonical order so that
//
//	Parse(Serialize(Parse(text)))
//
// reproduces every field of Parse(text) except Title, which is taken from the
// first non-blank line of whatever text was parsed.
package problem
