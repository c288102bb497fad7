// Package element defines pipeline elements: the closed table of element
// kinds with their pad templates and typed property schemas, the state
// enums shared by elements and pipelines, and the factory that builds
// elements by kind name.
//
// Elements never talk to the bus directly. Kind behaviors report pads,
// errors and durations through the Host interface, which the owning
// pipeline implements.
package element
