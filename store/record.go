package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

const recordFormatVersionCurrent = 1

// fingerprintOffset is the byte offset of the fingerprint inside an encoded
// record. The rotation Lua script compares the stored fingerprint by a fixed
// substring at this offset; changing the layout requires bumping the format
// version and updating casScript in refresh.go.
const fingerprintOffset = 1

// Record is the single currently-valid refresh-token record for a subject.
// Email and Role are carried so a rotation can re-mint an access token
// without a user-store round trip. Fingerprint is a one-way derivation of
// the refresh token value, never the raw secret.
type Record struct {
	SubjectID   string
	Email       string
	Role        string
	Fingerprint [32]byte

	// IssuedAt is the origin of the rotation chain. Rotation updates
	// LastRotatedAt and ExpiresAt but never IssuedAt, which is what bounds
	// the absolute lifetime of a sliding-renewal chain.
	IssuedAt      int64
	LastRotatedAt int64
	ExpiresAt     int64
	RememberMe    bool
}

// TTL returns the remaining lifetime of the record relative to now.
func (r *Record) TTL(now time.Time) time.Duration {
	return time.Unix(r.ExpiresAt, 0).Sub(now)
}

// ErrRecordCorrupt is returned when a stored blob cannot be decoded.
var ErrRecordCorrupt = errors.New("refresh record corrupt")

func encodeRecord(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)
	buf.Write(r.Fingerprint[:])

	if err := binary.Write(&buf, binary.BigEndian, r.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.LastRotatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.ExpiresAt); err != nil {
		return nil, err
	}

	if r.RememberMe {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	for _, field := range []string{r.SubjectID, r.Email, r.Role} {
		if len(field) > 255 {
			return nil, errors.New("record field too long")
		}
		buf.WriteByte(byte(len(field)))
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrRecordCorrupt
	}
	if version != recordFormatVersionCurrent {
		return nil, ErrRecordCorrupt
	}

	r := &Record{}
	if _, err := io.ReadFull(reader, r.Fingerprint[:]); err != nil {
		return nil, ErrRecordCorrupt
	}

	for _, dst := range []*int64{&r.IssuedAt, &r.LastRotatedAt, &r.ExpiresAt} {
		if err := binary.Read(reader, binary.BigEndian, dst); err != nil {
			return nil, ErrRecordCorrupt
		}
	}

	remember, err := reader.ReadByte()
	if err != nil {
		return nil, ErrRecordCorrupt
	}
	r.RememberMe = remember == 1

	for _, dst := range []*string{&r.SubjectID, &r.Email, &r.Role} {
		n, err := reader.ReadByte()
		if err != nil {
			return nil, ErrRecordCorrupt
		}
		field := make([]byte, n)
		if _, err := io.ReadFull(reader, field); err != nil {
			return nil, ErrRecordCorrupt
		}
		*dst = string(field)
	}

	if r.SubjectID == "" {
		return nil, ErrRecordCorrupt
	}

	return r, nil
}
