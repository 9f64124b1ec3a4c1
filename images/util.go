package images

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
)

// Checksum generates a deterministic checksum for a raster to verify idempotency
// and that a stage left its input untouched.
//
// Arguments:
// - r: The raster to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum over the shape and the data.
//
// Example:
//
// ```go
//
//	before := Checksum(r)
//	_, _ = resizer.Resize(r, 640, 640)
//	fmt.Println(before == Checksum(r)) // true
//
// ```
func Checksum(r Raster) string {
	if len(r.Data) == 0 {
		return "empty"
	}

	var shape [24]byte
	binary.LittleEndian.PutUint64(shape[0:], uint64(r.Width))
	binary.LittleEndian.PutUint64(shape[8:], uint64(r.Height))
	binary.LittleEndian.PutUint64(shape[16:], uint64(r.Channels))

	hash := md5.New()
	hash.Write(shape[:])
	hash.Write(r.Data)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
