package backup

// SnapshotCodec turns canonical payload JSON into artifact bytes and
// back. The wire layout is encrypt?(compress?(json)); the integrity
// checksum is always computed over the inner JSON, never the encoded
// bytes.
type SnapshotCodec struct {
	compression *CompressionManager
	encryption  *EncryptionManager
	config      CompressionConfig
}

// EncodeStats reports what the codec did to one payload.
type EncodeStats struct {
	Compression *CompressionStats `json:"compression,omitempty"`
	Encrypted   bool              `json:"encrypted"`
	FinalSize   int64             `json:"final_size"`
}

// NewSnapshotCodec creates a codec with the given compression settings
// and encryption key source.
func NewSnapshotCodec(compressionCfg CompressionConfig, encryptionCfg *EncryptionConfig) *SnapshotCodec {
	return &SnapshotCodec{
		compression: NewCompressionManager(),
		encryption:  NewEncryptionManager(encryptionCfg),
		config:      compressionCfg,
	}
}

// Algorithm returns the compression algorithm the codec applies when
// compression is requested.
func (c *SnapshotCodec) Algorithm() CompressionType {
	if c.config.Algorithm == "" {
		return CompressionTypeZstd
	}
	return c.config.Algorithm
}

// Encode produces artifact bytes from canonical payload JSON.
func (c *SnapshotCodec) Encode(raw []byte, compress, encrypt bool) ([]byte, *EncodeStats, error) {
	stats := &EncodeStats{Encrypted: encrypt}
	encoded := raw

	if compress {
		compressed, compStats, err := c.compression.Compress(encoded, c.Algorithm(), c.config.Level)
		if err != nil {
			return nil, nil, err
		}
		encoded = compressed
		stats.Compression = compStats
	}

	if encrypt {
		encrypted, err := c.encryption.Encrypt(encoded)
		if err != nil {
			return nil, nil, err
		}
		encoded = encrypted
	}

	stats.FinalSize = int64(len(encoded))
	return encoded, stats, nil
}

// Decode reverses Encode using the flags recorded when the artifact was
// written.
func (c *SnapshotCodec) Decode(artifact []byte, compressed bool, algorithm CompressionType, encrypted bool) ([]byte, error) {
	decoded := artifact

	if encrypted {
		plaintext, err := c.encryption.Decrypt(decoded)
		if err != nil {
			return nil, err
		}
		decoded = plaintext
	}

	if compressed {
		if algorithm == "" {
			algorithm = c.Algorithm()
		}
		decompressed, err := c.compression.Decompress(decoded, algorithm)
		if err != nil {
			return nil, err
		}
		decoded = decompressed
	}

	return decoded, nil
}
