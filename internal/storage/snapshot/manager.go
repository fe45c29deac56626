package snapshot

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/yndnr/redkv/internal/storage/memory"
	"github.com/yndnr/redkv/pkg/crypto/adaptive"
)

// Magic bytes identify snapshot files.
var magicBytes = []byte("REDKVSNP")

const (
	checksumSize  = 32
	headerVersion = 1

	// maxSectionLen bounds the header and data length fields.
	maxSectionLen = 1 << 31
)

var (
	ErrInvalidMagic       = errors.New("snapshot: invalid magic bytes")
	ErrChecksumMismatch   = errors.New("snapshot: checksum mismatch")
	ErrNotFound           = errors.New("snapshot: not found")
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
	ErrKeyRequired        = errors.New("snapshot: file is encrypted but no key is configured")
)

type snapshotHeader struct {
	Version   int    `json:"version"`
	CreatedAt int64  `json:"created_at"`
	KeyCount  uint64 `json:"key_count"`
	Encrypted bool   `json:"encrypted"`
	Cipher    string `json:"cipher,omitempty"`
	Salt      []byte `json:"salt,omitempty"`
}

type snapshotBody struct {
	Data   map[string][]byte `json:"data"`
	Expiry map[string]int64  `json:"expiry"`
}

// Source is the keyspace as read by Save.
type Source interface {
	Records() []memory.Record
}

// Sink is the keyspace as written by Load.
type Sink interface {
	Restore(records []memory.Record) int
}

// Config configures the snapshot manager.
type Config struct {
	// Path is the snapshot file. Its directory is created on first save.
	Path string

	Encryption EncryptionConfig
}

// Info describes a snapshot file.
type Info struct {
	Path      string        `json:"path"`
	KeyCount  int           `json:"key_count"`
	Skipped   int           `json:"skipped,omitempty"`
	CreatedAt int64         `json:"created_at"`
	Size      int64         `json:"size"`
	Checksum  string        `json:"checksum"`
	Encrypted bool          `json:"encrypted"`
	Duration  time.Duration `json:"duration"`
}

// Manager saves and loads the snapshot file. Saves are serialized.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	now func() time.Time

	// Sealing cipher, built once. For passphrase keys salt is the one
	// stored in every header this process writes.
	cipher adaptive.Cipher
	salt   []byte
}

// NewManager validates cfg and prepares the sealing cipher.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("snapshot: path is required")
	}

	c, salt, err := NewCipherFromConfig(cfg.Encryption)
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:    cfg,
		now:    time.Now,
		cipher: c,
		salt:   salt,
	}, nil
}

// Path returns the snapshot file path.
func (m *Manager) Path() string {
	return m.cfg.Path
}

// Save writes every live key of src to the snapshot file, replacing the
// previous snapshot atomically.
func (m *Manager) Save(src Source) (*Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := m.now()
	records := src.Records()

	body := snapshotBody{
		Data:   make(map[string][]byte, len(records)),
		Expiry: make(map[string]int64),
	}
	for _, r := range records {
		body.Data[r.Key] = r.Value
		if !r.ExpiresAt.IsZero() {
			body.Expiry[r.Key] = r.ExpiresAt.UnixMilli()
		}
	}

	hdr := snapshotHeader{
		Version:   headerVersion,
		CreatedAt: start.UnixMilli(),
		KeyCount:  uint64(len(records)),
		Encrypted: m.cipher != nil,
	}
	if m.cipher != nil {
		hdr.Cipher = string(m.cipher.Type())
		hdr.Salt = m.salt
	}

	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal header: %w", err)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal body: %w", err)
	}
	if m.cipher != nil {
		data, err = m.cipher.Encrypt(data, hdrJSON)
		if err != nil {
			return nil, fmt.Errorf("snapshot: encrypt: %w", err)
		}
	}

	size, sum, err := m.writeFile(hdrJSON, data)
	if err != nil {
		return nil, err
	}

	return &Info{
		Path:      m.cfg.Path,
		KeyCount:  len(records),
		CreatedAt: hdr.CreatedAt,
		Size:      size,
		Checksum:  hex.EncodeToString(sum),
		Encrypted: hdr.Encrypted,
		Duration:  m.now().Sub(start),
	}, nil
}

// writeFile writes the framed snapshot to a temporary file next to the
// target and renames it into place.
func (m *Manager) writeFile(hdrJSON, data []byte) (int64, []byte, error) {
	dir := filepath.Dir(m.cfg.Path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return 0, nil, fmt.Errorf("snapshot: create dir: %w", err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(m.cfg.Path)+"-*.tmp")
	if err != nil {
		return 0, nil, fmt.Errorf("snapshot: create temp file: %w", err)
	}
	tempPath := file.Name()
	defer os.Remove(tempPath)

	hash := sha256.New()
	bw := bufio.NewWriter(file)
	writer := io.MultiWriter(bw, hash)

	var lenBuf [4]byte
	writeSection := func(b []byte) error {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
		if _, err := writer.Write(lenBuf[:]); err != nil {
			return err
		}
		_, err := writer.Write(b)
		return err
	}

	if _, err := writer.Write(magicBytes); err != nil {
		file.Close()
		return 0, nil, fmt.Errorf("snapshot: write magic: %w", err)
	}
	if err := writeSection(hdrJSON); err != nil {
		file.Close()
		return 0, nil, fmt.Errorf("snapshot: write header: %w", err)
	}
	if err := writeSection(data); err != nil {
		file.Close()
		return 0, nil, fmt.Errorf("snapshot: write data: %w", err)
	}

	// Checksum trailer (not included in hash).
	sum := hash.Sum(nil)
	if _, err := bw.Write(sum); err != nil {
		file.Close()
		return 0, nil, fmt.Errorf("snapshot: write checksum: %w", err)
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		return 0, nil, fmt.Errorf("snapshot: flush: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return 0, nil, fmt.Errorf("snapshot: sync: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return 0, nil, err
	}
	if err := file.Close(); err != nil {
		return 0, nil, fmt.Errorf("snapshot: close: %w", err)
	}

	if err := os.Rename(tempPath, m.cfg.Path); err != nil {
		return 0, nil, fmt.Errorf("snapshot: rename: %w", err)
	}
	syncDir(dir)

	return stat.Size(), sum, nil
}

// syncDir makes the rename durable where the platform supports it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// Load reads the snapshot file into dst, replacing its contents. Keys whose
// expiry has passed are skipped. A missing file yields ErrNotFound and
// leaves dst untouched.
func (m *Manager) Load(dst Sink) (*Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := m.now()
	records, info, err := m.loadFile(m.cfg.Path)
	if err != nil {
		return nil, err
	}

	info.KeyCount = dst.Restore(records)
	info.Skipped = len(records) - info.KeyCount
	info.Duration = m.now().Sub(start)
	return info, nil
}

func (m *Manager) loadFile(path string) ([]memory.Record, *Info, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("snapshot: open: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if stat.Size() < int64(len(magicBytes))+checksumSize {
		return nil, nil, ErrChecksumMismatch
	}

	// Verify checksum.
	dataLen := stat.Size() - checksumSize
	expected := make([]byte, checksumSize)
	if _, err := io.ReadFull(io.NewSectionReader(f, dataLen, checksumSize), expected); err != nil {
		return nil, nil, err
	}
	h := sha256.New()
	if _, err := io.CopyN(h, io.NewSectionReader(f, 0, dataLen), dataLen); err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(h.Sum(nil), expected) {
		return nil, nil, ErrChecksumMismatch
	}

	br := bufio.NewReader(io.NewSectionReader(f, 0, dataLen))

	magic := make([]byte, len(magicBytes))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(magic, magicBytes) {
		return nil, nil, ErrInvalidMagic
	}

	hdrJSON, err := readSection(br, dataLen)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: read header: %w", err)
	}
	var hdr snapshotHeader
	if err := json.Unmarshal(hdrJSON, &hdr); err != nil {
		return nil, nil, fmt.Errorf("snapshot: unmarshal header: %w", err)
	}
	if hdr.Version != headerVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr.Version)
	}

	data, err := readSection(br, dataLen)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: read data: %w", err)
	}

	if hdr.Encrypted {
		c, err := m.openingCipher(hdr)
		if err != nil {
			return nil, nil, err
		}
		plain, err := c.Decrypt(data, hdrJSON)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
		}
		data = plain
	}

	var body snapshotBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, nil, fmt.Errorf("snapshot: unmarshal body: %w", err)
	}

	records := make([]memory.Record, 0, len(body.Data))
	for key, value := range body.Data {
		r := memory.Record{Key: key, Value: value}
		if ms, ok := body.Expiry[key]; ok {
			r.ExpiresAt = time.UnixMilli(ms)
		}
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })

	info := &Info{
		Path:      path,
		CreatedAt: hdr.CreatedAt,
		Size:      stat.Size(),
		Checksum:  hex.EncodeToString(expected),
		Encrypted: hdr.Encrypted,
	}
	return records, info, nil
}

// openingCipher returns the cipher able to open a file written with hdr.
func (m *Manager) openingCipher(hdr snapshotHeader) (adaptive.Cipher, error) {
	if !m.cfg.Encryption.Enabled() {
		return nil, ErrKeyRequired
	}
	if m.cipher != nil && string(m.cipher.Type()) == hdr.Cipher && bytes.Equal(m.salt, hdr.Salt) {
		return m.cipher, nil
	}

	cfg := m.cfg.Encryption
	cfg.Algorithm = hdr.Cipher
	cfg.Salt = hdr.Salt
	c, _, err := NewCipherFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func readSection(r io.Reader, limit int64) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := int64(binary.BigEndian.Uint32(lenBuf[:]))
	if n > limit || n >= maxSectionLen {
		return nil, fmt.Errorf("section length %d exceeds file size", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
