package ports

import "github.com/kakao/partnersso/core"

// RecordCodec converts between stored bytes and account snapshots
type RecordCodec interface {
	Decode(data []byte) (core.Snapshot, error)
	Encode(snapshot core.Snapshot) ([]byte, error)
}
