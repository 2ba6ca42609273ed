package can

// Identifier word bit layout, matching the kernel's can_id contract: the
// lower 29 bits address the bus, the upper 3 bits multiplex frame format,
// remote transmission requests and error reporting.
const (
	// FlagExtended marks a 29-bit (extended) identifier.
	FlagExtended uint32 = 0x80000000

	// FlagRemoteRequest marks a remote transmission request.
	FlagRemoteRequest uint32 = 0x40000000

	// FlagError marks an error report rather than a data frame.
	FlagError uint32 = 0x20000000

	// MaskStandard selects the 11 address bits of a standard identifier.
	MaskStandard uint32 = 0x000007FF

	// MaskExtended selects the 29 address bits of an extended identifier.
	MaskExtended uint32 = 0x1FFFFFFF

	// MaskError selects the error cause bits of an error frame identifier.
	MaskError uint32 = 0x1FFFFFFF
)

// IsExtended reports whether the raw identifier word uses the 29-bit
// extended address space.
func IsExtended(rawID uint32) bool {
	return rawID&FlagExtended != 0
}

// IsRemoteRequest reports whether the raw identifier word marks a remote
// transmission request.
func IsRemoteRequest(rawID uint32) bool {
	return rawID&FlagRemoteRequest != 0
}

// IsError reports whether the raw identifier word marks an error frame.
func IsError(rawID uint32) bool {
	return rawID&FlagError != 0
}

// ErrorCause extracts the error cause bits from the raw identifier word.
// The result is meaningless when IsError reports false.
func ErrorCause(rawID uint32) uint32 {
	return rawID & MaskError
}

// MaskID extracts the bare numeric identifier: 29 bits for extended words,
// 11 bits otherwise. Any word is accepted; undefined flag combinations are
// not rejected here.
func MaskID(rawID uint32) uint32 {
	if IsExtended(rawID) {
		return rawID & MaskExtended
	}
	return rawID & MaskStandard
}
