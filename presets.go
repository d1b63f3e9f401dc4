package vdisk

// Preset geometry parameters for New, covering common volume sizes
// without requiring a caller to hand-pick block size, file-info size and
// max name length themselves.
const (
	// PresetSmallBlockSize, PresetSmallFileInfoSize, PresetSmallMaxName
	// and PresetSmallStorageSize describe a small volume (roughly the
	// size of a handful of source trees) with short names and an 8MB
	// capacity.
	PresetSmallBlockSize    uint16 = 512
	PresetSmallFileInfoSize uint8  = 12
	PresetSmallMaxName      uint8  = 16
	PresetSmallStorageSize  int64  = 8 * 1024 * 1024

	// PresetStandardBlockSize and friends describe a general-purpose
	// volume sized for everyday use: 64MB with 24-byte names.
	PresetStandardBlockSize    uint16 = 4000
	PresetStandardFileInfoSize uint8  = 12
	PresetStandardMaxName      uint8  = 24
	PresetStandardStorageSize  int64  = 64 * 1024 * 1024

	// PresetLargeBlockSize and friends describe a large volume sized for
	// bulk archival use: 1GB with long names.
	PresetLargeBlockSize    uint16 = 16384
	PresetLargeFileInfoSize uint8  = 16
	PresetLargeMaxName      uint8  = 64
	PresetLargeStorageSize  int64  = 1024 * 1024 * 1024
)

// NewSmall creates a volume using PresetSmall parameters.
func NewSmall(opts ...Option) (*Volume, error) {
	return New(PresetSmallBlockSize, PresetSmallFileInfoSize, PresetSmallStorageSize, PresetSmallMaxName, opts...)
}

// NewStandard creates a volume using PresetStandard parameters.
func NewStandard(opts ...Option) (*Volume, error) {
	return New(PresetStandardBlockSize, PresetStandardFileInfoSize, PresetStandardStorageSize, PresetStandardMaxName, opts...)
}

// NewLarge creates a volume using PresetLarge parameters.
func NewLarge(opts ...Option) (*Volume, error) {
	return New(PresetLargeBlockSize, PresetLargeFileInfoSize, PresetLargeStorageSize, PresetLargeMaxName, opts...)
}
