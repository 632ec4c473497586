package slicer

// Physical unit scales. Times are expressed in nanoseconds and amplitudes in
// photoelectrons everywhere in the package; values coming from the command
// line or the config file are multiplied by these scales exactly once, when
// they are written into the ElecConfig snapshot.
const (
	Ns = 1.0
	Us = 1e3 * Ns
	Ms = 1e6 * Ns
	S  = 1e9 * Ns

	// Frequencies are cycles per nanosecond, so sampling * duration
	// is directly a sample count.
	Hz  = 1.0 / S
	KHz = 1e3 * Hz
	MHz = 1e6 * Hz

	PE = 1.0
)
