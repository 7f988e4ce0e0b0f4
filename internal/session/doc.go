// Package session holds the load, edit, validate and submit cycle for one
// dmxbox configuration.
//
// Load moves the session from Loading to Ready or Failed. Submit validates
// first and never touches the network when validation fails; otherwise it
// sends the whole document once. Retrying a failed load or submit is left to
// the caller.
package session
