package can

// Region layout shared by classic and FD frames. The header is followed by
// the payload area; multi-byte fields use the host's native byte order
// because the counterpart of this layout is the kernel's can_frame struct.
const (
	// HeaderLength is the fixed byte length of the frame header.
	HeaderLength = 8

	// MaxDataLength is the payload capacity of a classic frame.
	MaxDataLength = 8

	// MaxFDDataLength is the payload capacity of a flexible data rate frame.
	MaxFDDataLength = 64

	// MTU is the full region size of a classic frame.
	MTU = HeaderLength + MaxDataLength

	// FDMTU is the full region size of an FD frame.
	FDMTU = HeaderLength + MaxFDDataLength
)

// Byte offsets of the header fields within a frame region.
const (
	offsetID         = 0
	offsetDataLength = 4
	offsetFlags      = 5
	offsetData       = HeaderLength
)

// FD flag bits carried in the flags byte. Undefined for classic frames.
const (
	// FDFlagBitRateSwitch selects the second bit rate for the payload phase.
	FDFlagBitRateSwitch byte = 0x01

	// FDFlagErrorStateIndicator reflects the error state of the transmitter.
	FDFlagErrorStateIndicator byte = 0x02
)
